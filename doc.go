// Package authsync provides a CRM session client with cookie-delivered access
// credentials, a durable profile store, cross-instance auth-state broadcast,
// and a never-throwing API gateway with single-retry 401 recovery.
//
// The package is designed for concurrent workloads: Client methods are safe to
// call from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// authsync is the public surface. It exposes [Client], [Builder], [Config],
// and value types (MetricsSnapshot, SessionState, etc.). All internal
// coordination — audit dispatch, metric definitions — lives under internal/
// and is never exported. The storage, session, broadcast, and gateway
// sub-packages are importable on their own for callers that want the pieces
// without the assembled client.
//
// # What this package must NOT do
//
//   - Expose Redis clients, transports, or encoding details in its public API.
//   - Perform I/O during construction (Builder is allocation-only until Build).
//   - Import any sub-package that re-imports authsync (no import cycles).
//
// # Failure contract
//
// Logout and ClearSession always complete: internal failures are logged and
// swallowed so a broken backend can never strand a signed-in session. API
// calls through [Client.API] never return transport errors to the caller;
// failures surface as a status code plus a user-facing message.
package authsync
