package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// User-facing message texts. The gateway owns all wording; callers never
// compose their own copies of these.
const (
	msgTryAgainLater = "Something went wrong. Please try again later."
	msgNetwork       = "Could not reach the server. Check your network connection and the configured base URL."
	msgTrialHold     = "Your trial has ended and the account is on hold. Contact support to reactivate your workspace."
	msgExtensionHold = "Your trial extension has ended and the account is on hold. Contact support to reactivate your workspace."
)

// LogoutCause names why the gateway escalated to a forced logout.
type LogoutCause string

const (
	// CauseRefreshFailed: a 401 whose recovery refresh failed.
	CauseRefreshFailed LogoutCause = "refresh_failed"
	// CausePermissionDenied: an explicit 403, never retried.
	CausePermissionDenied LogoutCause = "permission_denied"
)

// AuthHandler is the gateway's escalation surface, implemented by the
// client over the session store. Refresh must be single-flight; the gateway
// never guards against concurrent 401 recoveries itself.
type AuthHandler interface {
	Refresh(ctx context.Context) error
	ForcedLogout(ctx context.Context, cause LogoutCause)
}

// Request describes one outbound API call.
type Request struct {
	Method string
	Path   string

	// Body is serialized as JSON for every method except GET.
	Body any

	// Header entries override the defaults (Content-Type, Accept).
	Header http.Header

	// SkipAuthRetry suppresses the 401 refresh-and-retry recovery. The
	// gateway sets it on the one permitted retry so a second 401 can never
	// loop.
	SkipAuthRetry bool
}

// Response is the uniform result shape. Data is always valid JSON: an
// unparsable response body is replaced by a synthesized payload carrying the
// raw text. Status defaults to 500 when the call never completed.
type Response struct {
	Status int
	Data   json.RawMessage
}

// OK reports whether the status classifies as success.
func (r Response) OK() bool {
	return IsSuccess(r.Status)
}

// Decode unmarshals the response data into v.
func (r Response) Decode(v any) error {
	return json.Unmarshal(r.Data, v)
}

// apiError is the backend's structured error shape.
type apiError struct {
	Message     string       `json:"message"`
	FieldErrors []fieldError `json:"field_errors"`
}

type fieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Hooks are optional observation callbacks, wired to metrics by the client.
type Hooks struct {
	RetryAfterRefresh func()
	BillingHold       func()
	RequestFailed     func()
	NetworkError      func()
	Latency           func(time.Duration)
}

// Options configures a [Gateway]. BaseURL is required.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Auth       AuthHandler
	Notifier   Notifier
	Logger     zerolog.Logger
	Hooks      Hooks
}

// Gateway issues API requests against a single backend base URL.
type Gateway struct {
	base     *url.URL
	client   *http.Client
	auth     AuthHandler
	notifier Notifier
	logger   zerolog.Logger
	hooks    Hooks
}

// New creates a Gateway from opts.
func New(opts Options) (*Gateway, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("gateway: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.New("gateway: base url must be http or https")
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NoOpNotifier{}
	}

	return &Gateway{
		base:     base,
		client:   client,
		auth:     opts.Auth,
		notifier: notifier,
		logger:   opts.Logger,
		hooks:    opts.Hooks,
	}, nil
}

// BaseURL returns the configured backend origin.
func (g *Gateway) BaseURL() *url.URL {
	clone := *g.base
	return &clone
}

// Do sends the request and classifies the response. It never returns an
// error; transport failures and error statuses surface through the notifier
// and the returned status.
//
// Recovery ladder on failure statuses:
//   - 401 without SkipAuthRetry: one refresh, then the identical request
//     once more with SkipAuthRetry set; a failed refresh forces logout.
//   - 403: forced logout, no retry.
//   - 438/498: billing hold, distinct support message per code.
//   - anything else: short user-visible error, preferring the first
//     field-level validation message.
func (g *Gateway) Do(ctx context.Context, req Request) Response {
	start := time.Now()
	resp := g.do(ctx, req)
	if g.hooks.Latency != nil {
		g.hooks.Latency(time.Since(start))
	}
	return resp
}

func (g *Gateway) do(ctx context.Context, req Request) Response {
	httpReq, err := g.build(ctx, req)
	if err != nil {
		g.logger.Warn().Err(err).Str("path", req.Path).Msg("build request")
		g.notifier.Notify(ctx, Message{Kind: MessageError, Text: msgTryAgainLater})
		return Response{
			Status: http.StatusInternalServerError,
			Data:   synthesizePayload(err.Error()),
		}
	}

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		if g.hooks.NetworkError != nil {
			g.hooks.NetworkError()
		}
		text := msgTryAgainLater
		if isConnectivityFailure(err) {
			text = msgNetwork
		}
		g.logger.Warn().Err(err).Str("path", req.Path).Msg("request transport failure")
		g.notifier.Notify(ctx, Message{Kind: MessageError, Text: text})
		return Response{
			Status: http.StatusInternalServerError,
			Data:   synthesizePayload(err.Error()),
		}
	}
	defer func() { _ = httpResp.Body.Close() }()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		raw = nil
	}
	data := normalizePayload(raw)
	status := httpResp.StatusCode

	if IsSuccess(status) {
		return Response{Status: status, Data: data}
	}

	switch {
	case status == http.StatusUnauthorized && !req.SkipAuthRetry && g.auth != nil:
		if err := g.auth.Refresh(ctx); err == nil {
			if g.hooks.RetryAfterRefresh != nil {
				g.hooks.RetryAfterRefresh()
			}
			req.SkipAuthRetry = true
			return g.do(ctx, req)
		}
		g.auth.ForcedLogout(ctx, CauseRefreshFailed)

	case status == http.StatusUnauthorized:
		// Second 401 after a successful refresh, or no auth handler wired:
		// terminal failure, no further recovery and no toast — the caller
		// is being moved to the sign-in flow or manages auth itself.
		g.logger.Debug().Str("path", req.Path).Msg("unauthorized without retry")

	case status == http.StatusForbidden:
		if g.auth != nil {
			g.auth.ForcedLogout(ctx, CausePermissionDenied)
		}

	case status == StatusTrialHold:
		if g.hooks.BillingHold != nil {
			g.hooks.BillingHold()
		}
		g.notifier.Notify(ctx, Message{Kind: MessageBillingHold, Text: msgTrialHold})

	case status == StatusExtensionHold:
		if g.hooks.BillingHold != nil {
			g.hooks.BillingHold()
		}
		g.notifier.Notify(ctx, Message{Kind: MessageBillingHold, Text: msgExtensionHold})

	default:
		if g.hooks.RequestFailed != nil {
			g.hooks.RequestFailed()
		}
		g.notifier.Notify(ctx, Message{Kind: MessageError, Text: errorMessage(data)})
	}

	return Response{Status: status, Data: data}
}

func (g *Gateway) build(ctx context.Context, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target := g.base.JoinPath(req.Path)

	var body io.Reader
	if req.Body != nil && method != http.MethodGet {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, values := range req.Header {
		httpReq.Header.Del(key)
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	return httpReq, nil
}

// normalizePayload guarantees valid JSON: a body that does not parse is
// downgraded to a synthesized payload carrying the raw text, never an error.
func normalizePayload(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	return synthesizePayload(string(trimmed))
}

func synthesizePayload(text string) json.RawMessage {
	payload, err := json.Marshal(apiError{Message: text})
	if err != nil {
		return json.RawMessage("null")
	}
	return payload
}

// errorMessage picks the most specific user-facing text from an error
// payload: first field-level validation message, then the top-level message,
// then the retry-later fallback.
func errorMessage(data json.RawMessage) string {
	var payload apiError
	if err := json.Unmarshal(data, &payload); err == nil {
		for _, fe := range payload.FieldErrors {
			if strings.TrimSpace(fe.Message) != "" {
				return fe.Message
			}
		}
		if strings.TrimSpace(payload.Message) != "" {
			return payload.Message
		}
	}
	return msgTryAgainLater
}

// isConnectivityFailure distinguishes a transport/connectivity failure from
// other request errors, so the user sees a network-specific message instead
// of a generic one.
func isConnectivityFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
