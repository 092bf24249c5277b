package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned when a token is not a three-part compact JWT.
var ErrNotJWT = errors.New("token is not a jwt")

// Claims is the subset of registered claims the session manager reads.
// Zero times mean the claim is absent.
type Claims struct {
	Subject   string
	Issuer    string
	Audience  []string
	ExpiresAt time.Time
	IssuedAt  time.Time
	NotBefore time.Time
	KeyID     string
	Algorithm string
}

// Inspect decodes tok's header and registered claims. The signature is NOT
// verified: the result must never drive an authorization decision.
func Inspect(tok string) (*Claims, error) {
	tok = strings.TrimSpace(tok)
	if strings.Count(tok, ".") != 2 {
		return nil, ErrNotJWT
	}

	var registered jwt.RegisteredClaims
	parsed, _, err := jwt.NewParser().ParseUnverified(tok, &registered)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotJWT, err)
	}

	claims := &Claims{
		Subject:  registered.Subject,
		Issuer:   registered.Issuer,
		Audience: []string(registered.Audience),
	}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time
	}
	if registered.IssuedAt != nil {
		claims.IssuedAt = registered.IssuedAt.Time
	}
	if registered.NotBefore != nil {
		claims.NotBefore = registered.NotBefore.Time
	}
	if parsed.Method != nil {
		claims.Algorithm = parsed.Method.Alg()
	}
	claims.KeyID, _ = parsed.Header["kid"].(string)

	return claims, nil
}

// Expired reports whether the exp claim is at or before now minus leeway.
// A token without exp never expires.
func (c *Claims) Expired(now time.Time, leeway time.Duration) bool {
	if c == nil || c.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(-leeway).Before(c.ExpiresAt)
}
