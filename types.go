package authsync

import (
	"context"
	"io"

	internalaudit "github.com/Prospect-Engine/authsync/internal/audit"
)

// SessionState is the client's coarse auth lifecycle position.
type SessionState uint8

const (
	// StateAnonymous is an exported constant or variable used by the session client.
	StateAnonymous SessionState = iota
	// StateAuthenticating is an exported constant or variable used by the session client.
	StateAuthenticating
	// StateAuthenticated is an exported constant or variable used by the session client.
	StateAuthenticated
	// StateRefreshing is an exported constant or variable used by the session client.
	StateRefreshing
)

// String describes the string operation and its observable behavior.
//
// String may return an error when input validation, dependency calls, or security checks fail.
// String does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s SessionState) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// Navigator moves the user to the sign-in surface after a logout. The client
// calls it exactly once per logout, concurrent invocations included.
type Navigator interface {
	RedirectToSignIn(ctx context.Context)
}

// NoOpNavigator is a [Navigator] that does nothing.
type NoOpNavigator struct{}

// RedirectToSignIn describes the redirecttosignin operation and its observable behavior.
//
// RedirectToSignIn may return an error when input validation, dependency calls, or security checks fail.
// RedirectToSignIn does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (NoOpNavigator) RedirectToSignIn(context.Context) {}

// Credentials carry a login attempt's inputs.
type Credentials struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

// AuditEvent is a structured audit record emitted by the client.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the client's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
