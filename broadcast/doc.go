// Package broadcast makes authentication-state transitions visible to every
// running process of the same installation without a network round-trip to
// the backend.
//
// The browser original piggybacked on storage events because no same-origin
// broadcast channel existed; here the notification is an explicit pub/sub
// channel. Each state change is also written to a last-state record that new
// subscribers can read on startup. The record is last-write-wins: a process
// that writes a stale record after a newer one overwrites it, and no ordering
// is guaranteed beyond delivery order on the channel.
//
// The publisher's own listeners are invoked synchronously at publish time, so
// a writer observes its own change immediately; every other process observes
// it asynchronously via its subscription.
package broadcast
