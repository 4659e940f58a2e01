package authsync

import (
	"context"
	"net/http"

	"github.com/Prospect-Engine/authsync/gateway"
	internalaudit "github.com/Prospect-Engine/authsync/internal/audit"
)

// Logout ends the session. It never fails: the server-side revocation is
// best-effort, local state is always cleared, and the user always lands on
// the sign-in surface. Concurrent calls collapse into one logout — one
// server call, one clear, one redirect.
func (c *Client) Logout(ctx context.Context) {
	c.logout(ctx, true, internalaudit.TypeLogout, "user")
}

// ForcedLogout is the gateway's escalation path: the backend already
// considers the session dead (failed refresh or permission denial), so no
// revocation call is made.
func (c *Client) ForcedLogout(ctx context.Context, cause gateway.LogoutCause) {
	c.metrics.Inc(MetricForcedLogout)
	c.logout(ctx, false, internalaudit.TypeForcedLogout, string(cause))
}

func (c *Client) logout(ctx context.Context, revoke bool, eventType, reason string) {
	if !c.loggingOut.CompareAndSwap(false, true) {
		return
	}
	defer c.loggingOut.Store(false)

	sess := c.store.GetSession(ctx)

	if revoke {
		resp := c.api.Do(ctx, gateway.Request{
			Method:        http.MethodPost,
			Path:          logoutPath,
			SkipAuthRetry: true,
		})
		if !resp.OK() {
			c.logger.Warn().Int("status", resp.Status).Msg("server-side logout failed, clearing locally")
		}
	}

	c.store.ClearSession(ctx)
	c.setState(StateAnonymous)

	c.metrics.Inc(MetricLogout)
	c.metrics.Inc(MetricSessionCleared)

	event := AuditEvent{
		EventType: eventType,
		Success:   true,
		Metadata:  map[string]string{"reason": reason},
	}
	if sess.Profile != nil {
		event.UserID = sess.Profile.ID
		event.WorkspaceID = sess.Profile.WorkspaceID
	}
	c.emitAudit(ctx, event)

	c.navigator.RedirectToSignIn(ctx)
}
