package flows

import (
	"context"

	"github.com/MrEthical07/goSession/session"
)

// SessionStore is the persistence surface the flows need.
// *session.Store satisfies it.
type SessionStore interface {
	Read(ctx context.Context) session.ReadResult
	Resolve(r session.ReadResult) (session.Record, error)
	Save(ctx context.Context, rec session.Record) error
	SaveUser(ctx context.Context, u *session.User) error
	Clear(ctx context.Context) error
}

// RevokeFunc calls the remote session service. ok=false with a nil error is a
// service-side rejection; a non-nil error is a transport failure.
type RevokeFunc func(ctx context.Context, refreshToken string) (ok bool, reason string, err error)

// Deps groups flow dependency sets. The Manager builds this once and
// delegates each operation to the matching flow.
type Deps struct {
	Load       LoadDeps
	Login      LoginDeps
	Logout     LogoutDeps
	UpdateUser UpdateUserDeps
}
