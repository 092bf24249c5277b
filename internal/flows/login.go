package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goSession/session"
)

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	Store SessionStore
}

// LoginResult is the outcome of RunLogin.
type LoginResult struct {
	// Err is the save failure; nil means the new record is persisted.
	Err error
	// RolledBack is true when a failed save was followed by an attempt to
	// restore the previous record.
	RolledBack bool
	// RollbackErr is the failure of that restore attempt, if any.
	RollbackErr error
}

// RunLogin persists next. When the save fails after some keys may have been
// written, the previous record (or an empty store, if there was none) is
// written back so storage keeps agreeing with the unchanged in-memory session.
// The restore ignores cancellation of ctx, since a canceled ctx is often what
// failed the save.
func RunLogin(ctx context.Context, prev, next session.Record, deps LoginDeps) LoginResult {
	err := deps.Store.Save(ctx, next)
	if err == nil {
		return LoginResult{}
	}

	res := LoginResult{Err: err}
	// Serialization fails before any write is issued.
	if errors.Is(err, session.ErrSerialization) {
		return res
	}

	res.RolledBack = true
	restoreCtx := context.WithoutCancel(ctx)
	if prev.Complete() {
		res.RollbackErr = deps.Store.Save(restoreCtx, prev)
	} else {
		res.RollbackErr = deps.Store.Clear(restoreCtx)
	}
	return res
}
