package storage

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisBackend(t *testing.T) (*Redis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	backend := NewRedis(rdb, "authsync")

	return backend, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func TestRedisRoundTrip(t *testing.T) {
	backend, done := newRedisBackend(t)
	defer done()

	ctx := context.Background()

	if _, err := backend.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := backend.Set(ctx, "session:profile", []byte(`{"id":"u1"}`)); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	data, err := backend.Get(ctx, "session:profile")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(data) != `{"id":"u1"}` {
		t.Fatalf("unexpected value %q", data)
	}

	if err := backend.Delete(ctx, "session:profile"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := backend.Get(ctx, "session:profile"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestRedisKeysAreNamespaced(t *testing.T) {
	backend, done := newRedisBackend(t)
	defer done()

	ctx := context.Background()
	for _, key := range []string{"session:profile", "session:remember_me", "pref:theme"} {
		if err := backend.Set(ctx, key, []byte("x")); err != nil {
			t.Fatalf("set %s failed: %v", key, err)
		}
	}

	keys, err := backend.Keys(ctx)
	if err != nil {
		t.Fatalf("keys failed: %v", err)
	}
	sort.Strings(keys)

	want := []string{"pref:theme", "session:profile", "session:remember_me"}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %v", len(want), keys)
	}
	for i, key := range want {
		if keys[i] != key {
			t.Fatalf("expected key %q at %d, got %q", key, i, keys[i])
		}
	}
}

func TestRedisFlush(t *testing.T) {
	backend, done := newRedisBackend(t)
	defer done()

	ctx := context.Background()
	if err := backend.Set(ctx, "a", []byte("1")); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := backend.Set(ctx, "b", []byte("2")); err != nil {
		t.Fatalf("set failed: %v", err)
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
