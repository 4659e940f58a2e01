package session

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func tokenWithoutExp(t *testing.T) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1"})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestTokenExpiredClassification(t *testing.T) {
	now := time.Now()
	garbagePayload := "eyJhbGciOiJIUzI1NiJ9." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".sig"

	tests := []struct {
		name       string
		credential string
		expired    bool
	}{
		{name: "empty", credential: "", expired: true},
		{name: "one segment", credential: "nonsense", expired: true},
		{name: "two segments", credential: "a.b", expired: true},
		{name: "payload not base64", credential: "a.!!!.c", expired: true},
		{name: "payload not json", credential: garbagePayload, expired: true},
		{name: "no exp claim", credential: tokenWithoutExp(t), expired: true},
		{name: "exp in the past", credential: signedToken(t, now.Add(-time.Minute)), expired: true},
		{name: "exp in the future", credential: signedToken(t, now.Add(time.Hour)), expired: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TokenExpired(tt.credential, now); got != tt.expired {
				t.Fatalf("TokenExpired(%q) = %v, want %v", tt.credential, got, tt.expired)
			}
		})
	}
}
