package flows

import (
	"context"
	"fmt"
)

// LogoutDeps captures logout flow dependencies. A nil Revoke skips the
// remote step.
type LogoutDeps struct {
	Store  SessionStore
	Revoke RevokeFunc
}

// LogoutResult reports each step of RunLogout. None of the failures stop the
// flow; the caller decides what to surface.
type LogoutResult struct {
	RemoteAttempted bool
	// RemoteErr is a transport failure of the revoke call.
	RemoteErr error
	// RemoteRejected is the service's reason when it answered success=false.
	RemoteRejected string
	// StorageErr is the failure to remove persisted keys.
	StorageErr error
}

// RemoteOK reports whether the remote revoke was attempted and accepted.
func (r LogoutResult) RemoteOK() bool {
	return r.RemoteAttempted && r.RemoteErr == nil && r.RemoteRejected == ""
}

// RunLogout revokes remotely (best effort) and then removes every persisted
// key. Storage removal runs regardless of the remote outcome. Neither step
// observes cancellation of ctx: a logout that reset memory must also reach
// storage, or the next load would restore the session. The revoke is bounded
// by the remote client's own timeout.
func RunLogout(ctx context.Context, refreshToken string, deps LogoutDeps) LogoutResult {
	var res LogoutResult
	ctx = context.WithoutCancel(ctx)

	if deps.Revoke != nil {
		res.RemoteAttempted = true
		res.RemoteRejected, res.RemoteErr = revoke(ctx, refreshToken, deps.Revoke)
	}

	res.StorageErr = deps.Store.Clear(ctx)
	return res
}

func revoke(ctx context.Context, refreshToken string, fn RevokeFunc) (rejected string, err error) {
	defer func() {
		if r := recover(); r != nil {
			rejected = ""
			err = fmt.Errorf("remote revoke panicked: %v", r)
		}
	}()

	ok, reason, err := fn(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	if !ok {
		if reason == "" {
			reason = "rejected"
		}
		return reason, nil
	}
	return "", nil
}
