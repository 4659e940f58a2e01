package gateway

// Billing-hold status codes. The backend signals an account that cannot
// proceed until an invoice is paid; the two codes carry slightly different
// hold reasons and map to distinct support messages.
const (
	StatusTrialHold     = 438
	StatusExtensionHold = 498
)

// IsSuccess classifies an HTTP status code: true for the conventional
// success range 200–299, false for everything else including out-of-range
// values. Pure, no side effects.
func IsSuccess(status int) bool {
	return status >= 200 && status <= 299
}
