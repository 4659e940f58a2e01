// Package session is the single authority for reading, writing, and clearing
// the authenticated session, and for reasoning about credential freshness.
//
// A session is two separately stored parts: the opaque access credential,
// which the server issues as a cookie and which this package only ever reads
// best-effort, and the cached user profile kept in durable storage. The
// session counts as authenticated only while both parts are present at once.
// The split is a security boundary, not an accident, and must not be
// collapsed into a single store.
//
// Refresh coordination is single-flight: however many callers observe an
// expired credential concurrently, exactly one network refresh runs and all
// callers share its outcome.
package session
