package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by [Backend.Get] when the key does not exist.
var ErrNotFound = errors.New("storage: key not found")

// Backend is the key/value contract the session layer is written against.
//
// Backend instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error

	// Keys lists every key currently held by the backend, without its
	// namespace prefix. Order is unspecified.
	Keys(ctx context.Context) ([]string, error)

	// Flush removes every key held by the backend.
	Flush(ctx context.Context) error
}
