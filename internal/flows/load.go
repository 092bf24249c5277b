package flows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goSession/session"
)

// LoadOutcome classifies how the initial load resolved.
type LoadOutcome uint8

const (
	// LoadEmpty means no complete session was stored.
	LoadEmpty LoadOutcome = iota
	// LoadRestored means a complete session was read and decoded.
	LoadRestored
	// LoadCorrupt means the stored user record failed to decode.
	LoadCorrupt
	// LoadUnavailable means storage could not be read.
	LoadUnavailable
)

func (o LoadOutcome) String() string {
	switch o {
	case LoadEmpty:
		return "empty"
	case LoadRestored:
		return "restored"
	case LoadCorrupt:
		return "corrupt"
	case LoadUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// LoadDeps captures load flow dependencies.
type LoadDeps struct {
	Store   SessionStore
	Timeout time.Duration
}

// LoadResult is the outcome of RunLoad. Record is complete only when
// Outcome is LoadRestored. Err explains any other outcome and is never
// meant to reach a consumer.
type LoadResult struct {
	Record  session.Record
	Outcome LoadOutcome
	Err     error
}

// RunLoad reads the persisted session. It never panics and never returns a
// partially populated record.
func RunLoad(ctx context.Context, deps LoadDeps) (res LoadResult) {
	defer func() {
		if r := recover(); r != nil {
			res = LoadResult{
				Outcome: LoadUnavailable,
				Err:     fmt.Errorf("%w: load panicked: %v", session.ErrStorageRead, r),
			}
		}
	}()

	if deps.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deps.Timeout)
		defer cancel()
	}

	read := deps.Store.Read(ctx)
	rec, err := deps.Store.Resolve(read)
	switch {
	case err == nil:
		return LoadResult{Record: rec, Outcome: LoadRestored}
	case errors.Is(err, session.ErrIncomplete):
		return LoadResult{Outcome: LoadEmpty, Err: err}
	case errors.Is(err, session.ErrSerialization):
		return LoadResult{Outcome: LoadCorrupt, Err: err}
	default:
		return LoadResult{Outcome: LoadUnavailable, Err: err}
	}
}
