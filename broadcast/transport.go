package broadcast

import (
	"context"
	"sync"
)

// Transport carries broadcast payloads between processes and persists the
// last-state record.
type Transport interface {
	// Publish writes payload as the new last-state record and notifies every
	// subscriber, including the publisher's own subscription.
	Publish(ctx context.Context, payload []byte) error

	// Last returns the most recently published payload, or nil when none
	// exists.
	Last(ctx context.Context) ([]byte, error)

	// ClearLast removes the last-state record.
	ClearLast(ctx context.Context) error

	// Subscribe registers handler for every published payload and returns a
	// stop function. Handlers run on the transport's delivery goroutine.
	Subscribe(ctx context.Context, handler func(payload []byte)) (func(), error)
}

// MemoryTransport is an in-process [Transport]. Two Broadcasters sharing one
// MemoryTransport behave like two tabs of the same origin, which makes it the
// workhorse of the test suite.
type MemoryTransport struct {
	mu     sync.Mutex
	last   []byte
	subs   map[uint64]func([]byte)
	nextID uint64
}

// NewMemoryTransport creates an empty in-process transport.
func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{subs: make(map[uint64]func([]byte))}
}

func (t *MemoryTransport) Publish(_ context.Context, payload []byte) error {
	stored := make([]byte, len(payload))
	copy(stored, payload)

	t.mu.Lock()
	t.last = stored
	handlers := make([]func([]byte), 0, len(t.subs))
	for _, handler := range t.subs {
		handlers = append(handlers, handler)
	}
	t.mu.Unlock()

	for _, handler := range handlers {
		handler(stored)
	}
	return nil
}

func (t *MemoryTransport) Last(context.Context) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last == nil {
		return nil, nil
	}
	out := make([]byte, len(t.last))
	copy(out, t.last)
	return out, nil
}

func (t *MemoryTransport) ClearLast(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = nil
	return nil
}

func (t *MemoryTransport) Subscribe(_ context.Context, handler func([]byte)) (func(), error) {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = handler
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}, nil
}
