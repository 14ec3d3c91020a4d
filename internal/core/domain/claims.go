package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the registered claims read from a JWT access token.
//
// They are decoded without signature verification and are for display only;
// the client never trusts them for authorization decisions.
type TokenClaims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carried an exp claim that lies before now.
func (c TokenClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// ParseTokenClaims decodes the claims of a JWT access token. ok is false when
// the token is not a JWT.
func ParseTokenClaims(token string) (TokenClaims, bool) {
	if token == "" {
		return TokenClaims{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenClaims{}, false
	}

	var out TokenClaims
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	return out, true
}
