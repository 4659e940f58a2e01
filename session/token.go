package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpired reports whether the credential should be treated as expired
// at the given instant. The credential is a three-part dot-delimited token;
// only the payload segment is decoded and the signature is never verified —
// expiry detection is a local freshness check, not an authenticity check.
//
// A credential that is absent, not three segments, not valid base64/JSON, or
// missing its exp claim is classified as expired rather than rejected with
// an error.
func TokenExpired(credential string, now time.Time) bool {
	if credential == "" {
		return true
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return true
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}

	return !exp.Time.After(now)
}
