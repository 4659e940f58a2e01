package authsync

import (
	"testing"
	"time"
)

func validTestConfig() Config {
	cfg := defaultConfig()
	cfg.API.BaseURL = "https://api.example.test"
	return cfg
}

func TestDefaultConfigValidatesWithBaseURL(t *testing.T) {
	cfg := validTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestConfigValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing base url", mutate: func(c *Config) { c.API.BaseURL = "" }},
		{name: "non-http base url", mutate: func(c *Config) { c.API.BaseURL = "redis://localhost" }},
		{name: "base url without host", mutate: func(c *Config) { c.API.BaseURL = "https://" }},
		{name: "negative request timeout", mutate: func(c *Config) { c.API.RequestTimeout = -time.Second }},
		{name: "blank credential cookie", mutate: func(c *Config) { c.API.CredentialCookie = "  " }},
		{name: "blank redis prefix", mutate: func(c *Config) { c.Session.RedisPrefix = "" }},
		{name: "zero remember ttl", mutate: func(c *Config) { c.Session.RememberMeTTL = 0 }},
		{name: "empty preserve key", mutate: func(c *Config) { c.Session.PreserveKeys = []string{"pref:locale", ""} }},
		{name: "blank broadcast channel", mutate: func(c *Config) { c.Broadcast.Channel = "" }},
		{name: "blank state key", mutate: func(c *Config) { c.Broadcast.StateKey = "" }},
		{name: "channel equals state key", mutate: func(c *Config) {
			c.Broadcast.Channel = "psx:auth"
			c.Broadcast.StateKey = "psx:auth"
		}},
		{name: "audit enabled without buffer", mutate: func(c *Config) {
			c.Audit.Enabled = true
			c.Audit.BufferSize = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestCloneConfigCopiesPreserveKeys(t *testing.T) {
	cfg := validTestConfig()
	cfg.Session.PreserveKeys = []string{"pref:locale"}

	clone := cloneConfig(cfg)
	clone.Session.PreserveKeys[0] = "mutated"

	if cfg.Session.PreserveKeys[0] != "pref:locale" {
		t.Fatal("cloneConfig must not share the PreserveKeys slice")
	}
}

func TestZeroRequestTimeoutIsValid(t *testing.T) {
	cfg := validTestConfig()
	cfg.API.RequestTimeout = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero timeout disables the deadline and must validate, got %v", err)
	}
}
