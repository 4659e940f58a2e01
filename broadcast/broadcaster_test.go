package broadcast

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Prospect-Engine/authsync/session"
)

func TestFanOutInvokesEveryListenerOnce(t *testing.T) {
	b := New(Options{Transport: NewMemoryTransport()})

	var first, second, third atomic.Int64
	b.AddListener(func(Record) { first.Add(1) })
	b.AddListener(func(Record) {
		second.Add(1)
		panic("listener failure")
	})
	b.AddListener(func(Record) { third.Add(1) })

	b.NotifyAuthChange(context.Background(), true, &session.Profile{ID: "u1"})

	for name, counter := range map[string]*atomic.Int64{
		"first": &first, "second": &second, "third": &third,
	} {
		if got := counter.Load(); got != 1 {
			t.Fatalf("listener %s invoked %d times, want 1", name, got)
		}
	}
}

func TestRemoveListener(t *testing.T) {
	b := New(Options{Transport: NewMemoryTransport()})

	var calls atomic.Int64
	remove := b.AddListener(func(Record) { calls.Add(1) })

	b.NotifyAuthChange(context.Background(), true, nil)
	remove()
	b.NotifyAuthChange(context.Background(), false, nil)

	if got := calls.Load(); got != 1 {
		t.Fatalf("removed listener invoked %d times, want 1", got)
	}
}

func TestNotifyWritesFreshTimestamp(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	b := New(Options{
		Transport: NewMemoryTransport(),
		Now:       func() time.Time { return now },
	})

	b.NotifyAuthChange(context.Background(), true, &session.Profile{ID: "u1"})

	state := b.AuthState(context.Background())
	if state == nil {
		t.Fatal("expected a last-state record")
	}
	if state.Timestamp != now.UnixMilli() {
		t.Fatalf("timestamp = %d, want %d", state.Timestamp, now.UnixMilli())
	}
	if !state.IsAuthenticated || state.Profile == nil || state.Profile.ID != "u1" {
		t.Fatalf("unexpected record %+v", state)
	}
}

func TestCrossInstanceDelivery(t *testing.T) {
	transport := NewMemoryTransport()
	writer := New(Options{Transport: transport})
	reader := New(Options{Transport: transport})

	if err := reader.Start(context.Background()); err != nil {
		t.Fatalf("reader start: %v", err)
	}
	defer reader.Close()

	var received atomic.Int64
	reader.AddListener(func(record Record) {
		if record.IsAuthenticated {
			received.Add(1)
		}
	})

	writer.NotifyAuthChange(context.Background(), true, &session.Profile{ID: "u1"})

	if got := received.Load(); got != 1 {
		t.Fatalf("reader received %d records, want 1", got)
	}
}

func TestOwnEchoIsSkipped(t *testing.T) {
	transport := NewMemoryTransport()
	b := New(Options{Transport: transport})

	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer b.Close()

	var calls atomic.Int64
	b.AddListener(func(Record) { calls.Add(1) })

	// The memory transport delivers synchronously, so the echo would have
	// arrived by the time NotifyAuthChange returns.
	b.NotifyAuthChange(context.Background(), true, nil)

	if got := calls.Load(); got != 1 {
		t.Fatalf("listener invoked %d times, want exactly 1 (no echo double-delivery)", got)
	}
}

func TestMalformedPayloadIsIgnored(t *testing.T) {
	transport := NewMemoryTransport()
	var malformed atomic.Int64
	b := New(Options{
		Transport: transport,
		Hooks:     Hooks{Malformed: func() { malformed.Add(1) }},
	})

	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer b.Close()

	var calls atomic.Int64
	b.AddListener(func(Record) { calls.Add(1) })

	if err := transport.Publish(context.Background(), []byte("{corrupt")); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if got := calls.Load(); got != 0 {
		t.Fatalf("listener invoked %d times for malformed payload, want 0", got)
	}
	if got := malformed.Load(); got != 1 {
		t.Fatalf("malformed hook fired %d times, want 1", got)
	}
}

func TestClearAuthState(t *testing.T) {
	transport := NewMemoryTransport()
	b := New(Options{Transport: transport})

	b.NotifyAuthChange(context.Background(), true, &session.Profile{ID: "u1"})

	var last atomic.Value
	b.AddListener(func(record Record) { last.Store(record) })

	b.ClearAuthState(context.Background())

	record, ok := last.Load().(Record)
	if !ok {
		t.Fatal("expected clear to notify listeners")
	}
	if record.IsAuthenticated {
		t.Fatal("clear must broadcast an unauthenticated record")
	}

	// The clear itself re-publishes an unauthenticated record, so the last
	// state reads as signed out rather than absent.
	state := b.AuthState(context.Background())
	if state == nil || state.IsAuthenticated {
		t.Fatalf("unexpected state after clear: %+v", state)
	}
}

func TestAuthStateAbsent(t *testing.T) {
	b := New(Options{Transport: NewMemoryTransport()})
	if state := b.AuthState(context.Background()); state != nil {
		t.Fatalf("expected nil state on empty transport, got %+v", state)
	}
}

func TestStartTwiceReplacesSubscription(t *testing.T) {
	transport := NewMemoryTransport()
	writer := New(Options{Transport: transport})
	reader := New(Options{Transport: transport})

	if err := reader.Start(context.Background()); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if err := reader.Start(context.Background()); err != nil {
		t.Fatalf("second start: %v", err)
	}
	defer reader.Close()

	var calls atomic.Int64
	reader.AddListener(func(Record) { calls.Add(1) })

	writer.NotifyAuthChange(context.Background(), true, nil)

	if got := calls.Load(); got != 1 {
		t.Fatalf("listener invoked %d times after re-init, want 1", got)
	}
}
