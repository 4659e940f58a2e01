package authsync

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Prospect-Engine/authsync/gateway"
	internalaudit "github.com/Prospect-Engine/authsync/internal/audit"
	"github.com/Prospect-Engine/authsync/session"
)

// Auth endpoints. All three set or clear the credential cookie server-side;
// the client never handles the raw credential on these paths.
const (
	loginPath   = "/auth/login"
	logoutPath  = "/auth/logout"
	refreshPath = "/auth/refresh"
)

// Login authenticates with the backend and persists the resulting session.
// The backend delivers the credential via cookie; the response body carries
// the profile. SkipAuthRetry is always set: a 401 here means wrong
// credentials, not an expired session.
func (c *Client) Login(ctx context.Context, creds Credentials) (*session.Profile, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}

	c.setState(StateAuthenticating)

	resp := c.api.Do(ctx, gateway.Request{
		Method:        http.MethodPost,
		Path:          loginPath,
		Body:          creds,
		SkipAuthRetry: true,
	})
	if !resp.OK() {
		c.setState(StateAnonymous)
		c.metrics.Inc(MetricLoginFailure)
		c.emitAudit(ctx, AuditEvent{
			EventType: internalaudit.TypeLoginFailed,
			Success:   false,
			Error:     fmt.Sprintf("status %d", resp.Status),
			Metadata:  map[string]string{"email": creds.Email},
		})
		if resp.Status == http.StatusUnauthorized {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: status %d", ErrLoginFailed, resp.Status)
	}

	var profile session.Profile
	if err := resp.Decode(&profile); err != nil || profile.ID == "" {
		c.setState(StateAnonymous)
		c.metrics.Inc(MetricLoginFailure)
		return nil, ErrProfileInvalid
	}

	if err := c.store.StoreSession(ctx, profile, creds.RememberMe); err != nil {
		c.setState(StateAnonymous)
		c.metrics.Inc(MetricLoginFailure)
		return nil, err
	}

	c.setState(StateAuthenticated)
	c.metrics.Inc(MetricLoginSuccess)
	c.emitAudit(ctx, AuditEvent{
		EventType:   internalaudit.TypeLogin,
		UserID:      profile.ID,
		WorkspaceID: profile.WorkspaceID,
		Success:     true,
	})
	return &profile, nil
}

// Refresh renews the session credential. Concurrent callers coalesce into a
// single network attempt through the session store; every caller observes
// that attempt's outcome. Also satisfies the gateway's auth escalation
// surface, so a 401 on any API call funnels through here.
func (c *Client) Refresh(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	previous := c.State()
	c.setState(StateRefreshing)

	profile, err := c.store.Refresh(ctx)
	if err != nil {
		c.setState(previous)
		c.metrics.Inc(MetricRefreshFailure)
		c.emitAudit(ctx, AuditEvent{
			EventType: internalaudit.TypeRefreshFailed,
			Success:   false,
			Error:     err.Error(),
		})
		return err
	}

	c.setState(StateAuthenticated)
	c.metrics.Inc(MetricRefreshSuccess)
	c.emitAudit(ctx, AuditEvent{
		EventType:   internalaudit.TypeRefresh,
		UserID:      profile.ID,
		WorkspaceID: profile.WorkspaceID,
		Success:     true,
	})
	return nil
}

// refreshProfile is the single network refresh attempt the session store
// serializes. It re-persists the refreshed profile so every coalesced caller
// sees consistent state, and exactly one broadcast goes out per attempt.
func (c *Client) refreshProfile(ctx context.Context) (*session.Profile, error) {
	resp := c.api.Do(ctx, gateway.Request{
		Method:        http.MethodPost,
		Path:          refreshPath,
		SkipAuthRetry: true,
	})
	if !resp.OK() {
		return nil, fmt.Errorf("%w: status %d", ErrRefreshRejected, resp.Status)
	}

	var profile session.Profile
	if err := resp.Decode(&profile); err != nil || profile.ID == "" {
		return nil, ErrProfileInvalid
	}

	if err := c.store.StoreSession(ctx, profile, c.store.RememberMeActive(ctx)); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ValidateSessionState reports whether a usable session exists, refreshing
// once when the credential is expired. A failed refresh clears the session.
func (c *Client) ValidateSessionState(ctx context.Context) bool {
	if c.closed.Load() {
		return false
	}

	if c.store.ValidateSessionState(ctx) {
		c.setState(StateAuthenticated)
		return true
	}
	c.setState(StateAnonymous)
	return false
}
