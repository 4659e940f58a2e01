package internaldefs

import (
	authsync "github.com/Prospect-Engine/authsync"
)

// CounterDef defines a public type used by authsync APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   authsync.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by authsync APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   authsync.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the session client.
var CounterDefs = []CounterDef{
	{ID: authsync.MetricLoginSuccess, Name: "authsync_login_success_total", Help: "Successful login attempts."},
	{ID: authsync.MetricLoginFailure, Name: "authsync_login_failure_total", Help: "Failed login attempts."},
	{ID: authsync.MetricRefreshSuccess, Name: "authsync_refresh_success_total", Help: "Successful credential refreshes."},
	{ID: authsync.MetricRefreshFailure, Name: "authsync_refresh_failure_total", Help: "Failed credential refreshes."},
	{ID: authsync.MetricRefreshCoalesced, Name: "authsync_refresh_coalesced_total", Help: "Refresh callers that joined an in-flight attempt."},
	{ID: authsync.MetricRetryAfterRefresh, Name: "authsync_retry_after_refresh_total", Help: "Requests retried after a 401 recovery refresh."},
	{ID: authsync.MetricForcedLogout, Name: "authsync_forced_logout_total", Help: "Logouts forced by refresh failure or permission denial."},
	{ID: authsync.MetricLogout, Name: "authsync_logout_total", Help: "Completed logout operations."},
	{ID: authsync.MetricSessionCleared, Name: "authsync_session_cleared_total", Help: "Session clear operations."},
	{ID: authsync.MetricBillingHold, Name: "authsync_billing_hold_total", Help: "Responses carrying a billing-hold status."},
	{ID: authsync.MetricRequestFailed, Name: "authsync_request_failed_total", Help: "API requests that ended in a non-recoverable failure status."},
	{ID: authsync.MetricNetworkError, Name: "authsync_network_error_total", Help: "API requests that failed at the transport layer."},
	{ID: authsync.MetricBroadcastSent, Name: "authsync_broadcast_sent_total", Help: "Auth-state records published."},
	{ID: authsync.MetricBroadcastReceived, Name: "authsync_broadcast_received_total", Help: "Auth-state records received from other instances."},
	{ID: authsync.MetricBroadcastMalformed, Name: "authsync_broadcast_malformed_total", Help: "Auth-state payloads dropped as malformed."},
}

// HistogramDefs is an exported constant or variable used by the session client.
var HistogramDefs = []HistogramDef{
	{ID: authsync.MetricRequestLatency, Name: "authsync_request_latency_seconds", Help: "API request latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the session client.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the session client.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
