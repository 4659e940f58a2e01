// Package gateway is the single chokepoint for outbound API calls. It owns
// status classification, authentication-failure recovery (one refresh, one
// retry, then escalation to logout), billing-hold detection, and user-facing
// error surfacing.
//
// Calls never fail with an error: every code path, including transport
// failures and unparsable bodies, funnels into the same {data, status}
// response shape. Callers treat a non-2xx status as already communicated to
// the user for the generic cases.
package gateway
