package flows

import (
	"context"

	"github.com/MrEthical07/goSession/session"
)

// Service is the centralized flow runner built once by the Manager.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

func (s Service) Load(ctx context.Context) LoadResult {
	return RunLoad(ctx, s.deps.Load)
}

func (s Service) Login(ctx context.Context, prev, next session.Record) LoginResult {
	return RunLogin(ctx, prev, next, s.deps.Login)
}

func (s Service) Logout(ctx context.Context, refreshToken string) LogoutResult {
	return RunLogout(ctx, refreshToken, s.deps.Logout)
}

func (s Service) UpdateUser(ctx context.Context, user *session.User) error {
	return RunUpdateUser(ctx, user, s.deps.UpdateUser)
}
