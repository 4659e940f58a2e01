package authsync

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/Prospect-Engine/authsync/session"
)

// Config defines a public type used by authsync APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	API       APIConfig
	Session   SessionConfig
	Broadcast BroadcastConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig defines a public type used by authsync APIs.
//
// APIConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type APIConfig struct {
	// BaseURL is the backend origin every request is issued against. Required.
	BaseURL string

	// RequestTimeout bounds each API call end to end, the retried request
	// after a 401 recovery included. Zero disables the timeout.
	RequestTimeout time.Duration

	// CredentialCookie is the cookie name the backend sets the access
	// credential under.
	CredentialCookie string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by authsync APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	RedisPrefix   string
	RememberMeTTL time.Duration

	// PreserveKeys are extra durable keys that survive a session clear, on
	// top of the always-preserved theme preference.
	PreserveKeys []string
}

/*
====================================
BROADCAST CONFIG
====================================
*/

// BroadcastConfig defines a public type used by authsync APIs.
//
// BroadcastConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type BroadcastConfig struct {
	// Channel is the pub/sub channel auth-state records travel on.
	Channel string

	// StateKey is where the last published record is kept for late joiners.
	StateKey string
}

// AuditConfig defines a public type used by authsync APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by authsync APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			RequestTimeout:   30 * time.Second,
			CredentialCookie: "psx_access",
		},
		Session: SessionConfig{
			RedisPrefix:   "psx",
			RememberMeTTL: session.DefaultRememberTTL,
		},
		Broadcast: BroadcastConfig{
			Channel:  "psx:auth:events",
			StateKey: "psx:auth:last",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if len(cfg.Session.PreserveKeys) > 0 {
		out.Session.PreserveKeys = make([]string, len(cfg.Session.PreserveKeys))
		copy(out.Session.PreserveKeys, cfg.Session.PreserveKeys)
	}
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// API
	if c.API.BaseURL == "" {
		return errors.New("API BaseURL is required")
	}
	base, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return errors.New("API BaseURL must be a valid URL")
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return errors.New("API BaseURL must be http or https")
	}
	if base.Host == "" {
		return errors.New("API BaseURL must carry a host")
	}
	if c.API.RequestTimeout < 0 {
		return errors.New("API RequestTimeout must be >= 0")
	}
	if strings.TrimSpace(c.API.CredentialCookie) == "" {
		return errors.New("API CredentialCookie is required")
	}

	// Session
	if strings.TrimSpace(c.Session.RedisPrefix) == "" {
		return errors.New("Session RedisPrefix is required")
	}
	if c.Session.RememberMeTTL <= 0 {
		return errors.New("Session RememberMeTTL must be > 0")
	}
	for _, key := range c.Session.PreserveKeys {
		if strings.TrimSpace(key) == "" {
			return errors.New("Session PreserveKeys must not contain empty keys")
		}
	}

	// Broadcast
	if strings.TrimSpace(c.Broadcast.Channel) == "" {
		return errors.New("Broadcast Channel is required")
	}
	if strings.TrimSpace(c.Broadcast.StateKey) == "" {
		return errors.New("Broadcast StateKey is required")
	}
	if c.Broadcast.Channel == c.Broadcast.StateKey {
		return errors.New("Broadcast Channel and StateKey must differ")
	}

	// Audit
	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	return nil
}
