package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpiry reads the exp claim of a JWT without verifying its signature.
// Opaque tokens and tokens without exp report ok=false; the backend decides.
func tokenExpiry(token string) (exp time.Time, ok bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
