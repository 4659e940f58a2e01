package authsync

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/Prospect-Engine/authsync/broadcast"
	"github.com/Prospect-Engine/authsync/gateway"
	internalaudit "github.com/Prospect-Engine/authsync/internal/audit"
	"github.com/Prospect-Engine/authsync/session"
)

// Client is the assembled session client: durable session store, auth-state
// broadcaster, and API gateway, wired together with shared metrics and audit
// dispatch. Construct it through [Builder.Build], then call [Client.Start].
type Client struct {
	config      Config
	logger      zerolog.Logger
	metrics     *Metrics
	audit       *internalaudit.Dispatcher
	store       *session.Store
	broadcaster *broadcast.Broadcaster
	api         *gateway.Gateway
	navigator   Navigator

	state      atomic.Uint32
	loggingOut atomic.Bool
	closed     atomic.Bool
}

// Start subscribes to cross-instance auth-state broadcasts and derives the
// initial session state from storage. Call it once after Build.
func (c *Client) Start(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if err := c.broadcaster.Start(ctx); err != nil {
		return err
	}

	if c.store.IsAuthenticated(ctx) {
		c.setState(StateAuthenticated)
	} else {
		c.setState(StateAnonymous)
	}
	return nil
}

// Close stops broadcast delivery and drains the audit dispatcher. The client
// rejects further auth operations once closed.
func (c *Client) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.broadcaster.Close()
	c.audit.Close()
}

// Session returns the current session snapshot. It never fails; a broken
// store reads as an absent session.
func (c *Client) Session(ctx context.Context) session.Session {
	return c.store.GetSession(ctx)
}

// IsAuthenticated reports whether both the credential and the profile are
// present.
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	return c.store.IsAuthenticated(ctx)
}

// State returns the client's current lifecycle position.
func (c *Client) State() SessionState {
	return SessionState(c.state.Load())
}

func (c *Client) setState(s SessionState) {
	c.state.Store(uint32(s))
}

// OnAuthChange registers a listener for auth-state records, local and
// cross-instance alike. The returned function removes the listener.
func (c *Client) OnAuthChange(fn broadcast.Listener) func() {
	return c.broadcaster.AddListener(fn)
}

// API exposes the request gateway for domain calls (deals, contacts,
// pipelines). Requests issued through it get the full 401 recovery and
// messaging behavior.
func (c *Client) API() *gateway.Gateway {
	return c.api
}

// MetricsSnapshot returns a point-in-time copy of all client metrics.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded under
// backpressure.
func (c *Client) AuditDropped() uint64 {
	return c.audit.Dropped()
}

func (c *Client) emitAudit(ctx context.Context, event AuditEvent) {
	if c.audit == nil {
		return
	}
	if event.IP == "" {
		event.IP = clientIPFromContext(ctx)
	}
	if event.UserAgent == "" {
		event.UserAgent = userAgentFromContext(ctx)
	}
	c.audit.Emit(ctx, event)
}
