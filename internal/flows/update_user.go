package flows

import (
	"context"
	"fmt"

	"github.com/MrEthical07/goSession/session"
)

// UpdateUserDeps captures update-user flow dependencies.
type UpdateUserDeps struct {
	Store SessionStore
}

// RunUpdateUser persists user under the user key only. Tokens are untouched.
func RunUpdateUser(ctx context.Context, user *session.User, deps UpdateUserDeps) error {
	if user == nil {
		return fmt.Errorf("%w: nil user", session.ErrSerialization)
	}
	return deps.Store.SaveUser(ctx, user)
}
