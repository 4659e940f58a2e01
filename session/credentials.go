package session

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// CredentialSource is where the access credential is read from. The server
// sets the credential as a cookie; reading it from the jar is a best-effort
// fallback path and absence is never an error.
type CredentialSource interface {
	// Credential returns the current access credential, or false when none
	// is readable.
	Credential(ctx context.Context) (string, bool)

	// Clear removes the credential best-effort. It must never fail.
	Clear(ctx context.Context)
}

// CookieSource reads the credential from an [http.CookieJar], the jar the
// API client also sends requests through.
type CookieSource struct {
	jar  http.CookieJar
	base *url.URL
	name string
}

// NewCookieSource creates a CookieSource for the given jar, API base URL,
// and cookie name.
func NewCookieSource(jar http.CookieJar, base *url.URL, name string) *CookieSource {
	return &CookieSource{
		jar:  jar,
		base: base,
		name: name,
	}
}

func (c *CookieSource) Credential(context.Context) (string, bool) {
	if c == nil || c.jar == nil || c.base == nil {
		return "", false
	}
	for _, cookie := range c.jar.Cookies(c.base) {
		if cookie.Name == c.name && cookie.Value != "" {
			return cookie.Value, true
		}
	}
	return "", false
}

// Clear expires the credential cookie for every reachable domain variant:
// the exact host, the registrable two-label parent domain, and the full
// hostname. Variants the jar never stored are silently skipped.
func (c *CookieSource) Clear(context.Context) {
	if c == nil || c.jar == nil || c.base == nil {
		return
	}

	expired := time.Unix(0, 0)
	for _, domain := range domainVariants(c.base.Hostname()) {
		c.jar.SetCookies(c.base, []*http.Cookie{{
			Name:    c.name,
			Value:   "",
			Path:    "/",
			Domain:  domain,
			Expires: expired,
			MaxAge:  -1,
		}})
	}
}

func domainVariants(host string) []string {
	variants := []string{""}
	if host == "" {
		return variants
	}

	variants = append(variants, host)
	labels := strings.Split(host, ".")
	if len(labels) > 2 {
		variants = append(variants, strings.Join(labels[len(labels)-2:], "."))
	}
	return variants
}

// StaticSource is an in-memory [CredentialSource] for tests and for
// deployments that manage the token outside a cookie jar.
type StaticSource struct {
	mu    sync.RWMutex
	token string
}

// NewStaticSource creates a StaticSource holding the given token.
func NewStaticSource(token string) *StaticSource {
	return &StaticSource{token: token}
}

// SetToken replaces the held token.
func (s *StaticSource) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *StaticSource) Credential(context.Context) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *StaticSource) Clear(context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}
