package storage

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryRoundTrip(t *testing.T) {
	backend := NewMemory()
	ctx := context.Background()

	if _, err := backend.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := backend.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	data, err := backend.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(data) != "v" {
		t.Fatalf("unexpected value %q", data)
	}

	// Mutating the returned slice must not leak into the store.
	data[0] = 'x'
	again, err := backend.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(again) != "v" {
		t.Fatalf("stored value mutated to %q", again)
	}

	if err := backend.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	keys, err := backend.Keys(ctx)
	if err != nil {
		t.Fatalf("keys failed: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected empty store, got %v", keys)
	}
}
