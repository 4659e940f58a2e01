package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Prospect-Engine/authsync/session"
)

// Record is the payload exchanged between processes on every
// authentication-state change. Readers must treat the most recently written
// record as authoritative.
type Record struct {
	IsAuthenticated bool             `json:"is_authenticated"`
	Profile         *session.Profile `json:"profile,omitempty"`
	Timestamp       int64            `json:"timestamp"`
	Origin          string           `json:"origin,omitempty"`
}

// Listener receives validated broadcast records, from this process or any
// other. Each AddListener call is its own registration; removing one
// registration never affects another.
type Listener func(Record)

// Hooks are optional observation callbacks, wired to metrics by the client.
type Hooks struct {
	Sent      func()
	Received  func()
	Malformed func()
}

// Options configures a [Broadcaster].
type Options struct {
	Transport Transport
	Logger    zerolog.Logger
	Hooks     Hooks

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Broadcaster publishes and observes authentication-state changes. Every
// instance carries a unique origin ID so it can skip the echo of its own
// published records: local listeners already ran synchronously at publish
// time.
type Broadcaster struct {
	transport Transport
	origin    string
	logger    zerolog.Logger
	hooks     Hooks
	now       func() time.Time

	mu        sync.Mutex
	listeners map[uint64]Listener
	nextID    uint64
	stop      func()
}

// New creates a Broadcaster over the given transport.
func New(opts Options) *Broadcaster {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Broadcaster{
		transport: opts.Transport,
		origin:    uuid.NewString(),
		logger:    opts.Logger,
		hooks:     opts.Hooks,
		now:       now,
		listeners: make(map[uint64]Listener),
	}
}

// Start subscribes to the transport. Calling Start on a started Broadcaster
// replaces the previous subscription rather than crashing or doubling
// delivery.
func (b *Broadcaster) Start(ctx context.Context) error {
	stop, err := b.transport.Subscribe(ctx, b.handlePayload)
	if err != nil {
		return err
	}

	b.mu.Lock()
	previous := b.stop
	b.stop = stop
	b.mu.Unlock()

	if previous != nil {
		previous()
	}
	return nil
}

// Close ends the transport subscription. Local notification keeps working.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	stop := b.stop
	b.stop = nil
	b.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// NotifyAuthChange writes a fresh-timestamped record to the shared channel
// and synchronously invokes this instance's own listeners, so the writer
// observes its change without waiting for the transport round-trip.
func (b *Broadcaster) NotifyAuthChange(ctx context.Context, authenticated bool, profile *session.Profile) {
	record := Record{
		IsAuthenticated: authenticated,
		Profile:         profile,
		Timestamp:       b.now().UnixMilli(),
		Origin:          b.origin,
	}

	payload, err := json.Marshal(record)
	if err != nil {
		b.logger.Warn().Err(err).Msg("encode broadcast record")
		return
	}
	if err := b.transport.Publish(ctx, payload); err != nil {
		b.logger.Warn().Err(err).Msg("publish broadcast record")
	}
	if b.hooks.Sent != nil {
		b.hooks.Sent()
	}

	b.fanOut(record)
}

// AddListener registers a callback for every validated broadcast and
// returns its remove function.
func (b *Broadcaster) AddListener(fn Listener) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

// ClearAuthState removes the shared last-state record and notifies every
// process that the session ended.
func (b *Broadcaster) ClearAuthState(ctx context.Context) {
	if err := b.transport.ClearLast(ctx); err != nil {
		b.logger.Warn().Err(err).Msg("clear broadcast state")
	}
	b.NotifyAuthChange(ctx, false, nil)
}

// AuthState is a best-effort read of the last broadcast record. It returns
// nil on absence, transport failure, or an unparsable payload.
func (b *Broadcaster) AuthState(ctx context.Context) *Record {
	payload, err := b.transport.Last(ctx)
	if err != nil || payload == nil {
		return nil
	}

	var record Record
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil
	}
	return &record
}

// handlePayload validates an incoming payload before any listener sees it.
// Malformed payloads are counted and dropped, never delivered.
func (b *Broadcaster) handlePayload(payload []byte) {
	var record Record
	if err := json.Unmarshal(payload, &record); err != nil {
		if b.hooks.Malformed != nil {
			b.hooks.Malformed()
		}
		b.logger.Debug().Err(err).Msg("drop malformed broadcast payload")
		return
	}

	// Own records were already fanned out synchronously at publish time.
	if record.Origin == b.origin {
		return
	}

	if b.hooks.Received != nil {
		b.hooks.Received()
	}
	b.fanOut(record)
}

// fanOut delivers record to every listener. A panicking listener is logged
// and must not block delivery to the others.
func (b *Broadcaster) fanOut(record Record) {
	b.mu.Lock()
	listeners := make([]Listener, 0, len(b.listeners))
	for _, fn := range b.listeners {
		listeners = append(listeners, fn)
	}
	b.mu.Unlock()

	for _, fn := range listeners {
		b.invoke(fn, record)
	}
}

func (b *Broadcaster) invoke(fn Listener, record Record) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn().Interface("panic", r).Msg("auth listener panicked")
		}
	}()
	fn(record)
}
