package goSession

import (
	"time"

	"github.com/MrEthical07/goSession/jwt"
)

// HasPermission reports whether the current user may perform action on
// resource. It is false when no user is present. The answer comes from the
// role table given to the Builder and the user's explicit grants; no I/O is
// performed.
func (m *Manager) HasPermission(resource, action string) bool {
	if m == nil {
		return false
	}

	m.mu.Lock()
	user := m.current.User
	var (
		role   string
		grants []string
	)
	if user != nil {
		role = user.Role
		grants = append(grants, user.Permissions...)
	}
	m.mu.Unlock()

	if user == nil {
		return false
	}
	return m.evaluator.Allowed(role, grants, resource, action)
}

// AccessTokenExpiry returns the exp claim of the current access token. ok is
// false when there is no token, the token is not a JWT, or it carries no exp.
// The token signature is not verified.
func (m *Manager) AccessTokenExpiry() (exp time.Time, ok bool) {
	token := m.Session().AccessToken
	if token == "" {
		return time.Time{}, false
	}

	claims, err := jwt.Inspect(token)
	if err != nil || claims.ExpiresAt.IsZero() {
		return time.Time{}, false
	}
	return claims.ExpiresAt, true
}
