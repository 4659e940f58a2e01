// Package storage abstracts the durable key/value store that authsync keeps
// session state in. Two implementations are provided: a Redis-backed store
// shared by every process of the same installation, and an in-memory store
// for tests and single-process deployments.
//
// The store is a best-effort cache, not a source of truth. Writes are
// last-writer-wins and carry no transactional guarantees; the credential
// itself always lives in the server-issued cookie, never here.
package storage
