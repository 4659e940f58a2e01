package authsync

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Prospect-Engine/authsync/broadcast"
	"github.com/Prospect-Engine/authsync/gateway"
	internalaudit "github.com/Prospect-Engine/authsync/internal/audit"
	"github.com/Prospect-Engine/authsync/session"
	"github.com/Prospect-Engine/authsync/storage"
)

// Builder defines a public type used by authsync APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  *redis.Client

	httpClient *http.Client
	notifier   gateway.Notifier
	navigator  Navigator
	auditSink  AuditSink
	logger     zerolog.Logger

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithHTTPClient describes the withhttpclient operation and its observable behavior.
//
// WithHTTPClient may return an error when input validation, dependency calls, or security checks fail.
// WithHTTPClient does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithNotifier describes the withnotifier operation and its observable behavior.
//
// WithNotifier may return an error when input validation, dependency calls, or security checks fail.
// WithNotifier does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithNotifier(notifier gateway.Notifier) *Builder {
	b.notifier = notifier
	return b
}

// WithNavigator describes the withnavigator operation and its observable behavior.
//
// WithNavigator may return an error when input validation, dependency calls, or security checks fail.
// WithNavigator does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithNavigator(navigator Navigator) *Builder {
	b.navigator = navigator
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
//
// WithLogger may return an error when input validation, dependency calls, or security checks fail.
// WithLogger does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms may return an error when input validation, dependency calls, or security checks fail.
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, ErrBuilderReused
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base, err := url.Parse(cfg.API.BaseURL)
	if err != nil {
		return nil, err
	}

	httpClient := b.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.API.RequestTimeout}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		httpClient.Jar = jar
	}

	navigator := b.navigator
	if navigator == nil {
		navigator = NoOpNavigator{}
	}

	// -------- STORAGE --------
	var durable storage.Backend
	var transport broadcast.Transport
	if b.redis != nil {
		durable = storage.NewRedis(b.redis, cfg.Session.RedisPrefix)
		transport = broadcast.NewRedisTransport(b.redis, cfg.Broadcast.Channel, cfg.Broadcast.StateKey)
	} else {
		durable = storage.NewMemory()
		transport = broadcast.NewMemoryTransport()
	}

	metrics := NewMetrics(cfg.Metrics)

	client := &Client{
		config:    cfg,
		logger:    b.logger,
		metrics:   metrics,
		navigator: navigator,
	}

	// -------- BROADCASTER --------
	client.broadcaster = broadcast.New(broadcast.Options{
		Transport: transport,
		Logger:    b.logger,
		Hooks: broadcast.Hooks{
			Sent:      func() { metrics.Inc(MetricBroadcastSent) },
			Received:  func() { metrics.Inc(MetricBroadcastReceived) },
			Malformed: func() { metrics.Inc(MetricBroadcastMalformed) },
		},
	})

	// -------- SESSION STORE --------
	client.store = session.NewStore(session.Options{
		Durable:            durable,
		Scratch:            storage.NewMemory(),
		Credentials:        session.NewCookieSource(httpClient.Jar, base, cfg.API.CredentialCookie),
		Notifier:           client.broadcaster,
		Refresh:            client.refreshProfile,
		Logger:             b.logger,
		RememberTTL:        cfg.Session.RememberMeTTL,
		PreserveKeys:       cfg.Session.PreserveKeys,
		OnRefreshCoalesced: func() { metrics.Inc(MetricRefreshCoalesced) },
	})

	// -------- GATEWAY --------
	client.api, err = gateway.New(gateway.Options{
		BaseURL:    cfg.API.BaseURL,
		HTTPClient: httpClient,
		Auth:       client,
		Notifier:   b.notifier,
		Logger:     b.logger,
		Hooks: gateway.Hooks{
			RetryAfterRefresh: func() { metrics.Inc(MetricRetryAfterRefresh) },
			BillingHold:       func() { metrics.Inc(MetricBillingHold) },
			RequestFailed:     func() { metrics.Inc(MetricRequestFailed) },
			NetworkError:      func() { metrics.Inc(MetricNetworkError) },
			Latency:           func(d time.Duration) { metrics.Observe(MetricRequestLatency, d) },
		},
	})
	if err != nil {
		return nil, err
	}

	client.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	b.built = true

	return client, nil
}
