package goSession

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/goSession/session"
)

// Login persists user, accessToken and, when non-empty, refreshToken, then
// publishes an authenticated snapshot.
//
// The writes run concurrently and Login waits for all of them. On any failure
// it returns an error wrapping [ErrSessionSave] and the kind
// ([ErrSerialization] or [ErrStorageWrite]); the published session is left
// unchanged and storage is restored to the previous record. Empty tokens are
// not rejected. A nil user returns [ErrInvalidUser].
func (m *Manager) Login(ctx context.Context, user *User, accessToken, refreshToken string) error {
	if user == nil {
		m.metricInc(MetricLoginFailure)
		m.emitAudit(ctx, auditEventLoginFailure, false, m.snapshot(), ErrInvalidUser, nil)
		return ErrInvalidUser
	}

	release, err := m.acquire(ctx)
	if err != nil {
		m.metricInc(MetricLoginFailure)
		m.emitAudit(ctx, auditEventLoginFailure, false, m.snapshot(), err, nil)
		return err
	}
	defer release()

	start := time.Now()
	prev := m.snapshot()
	next := session.Record{
		User:         user.Clone(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}

	res := m.flows.Login(ctx, prev.record(), next)
	m.observe(MetricLoginLatency, start)

	if res.Err != nil {
		m.metricInc(MetricLoginFailure)
		if res.RollbackErr != nil {
			m.metricInc(MetricLoginRollbackFailure)
			m.logger.Warn("could not restore previous session after failed login",
				slog.String("op", "login"), slog.Any("error", res.RollbackErr))
		}
		m.logger.Warn("login not persisted",
			slog.String("op", "login"), slog.Any("error", res.Err))

		m.emitAudit(ctx, auditEventLoginFailure, false, prev, res.Err, func() map[string]string {
			return map[string]string{"rolled_back": fmt.Sprint(res.RolledBack && res.RollbackErr == nil)}
		})
		return fmt.Errorf("%w: %w", ErrSessionSave, res.Err)
	}

	m.mu.Lock()
	snap := m.publishLocked(authenticatedSession(next))
	m.mu.Unlock()

	m.metricInc(MetricLoginSuccess)
	m.logger.Debug("login persisted", slog.String("op", "login"), slog.String("user_id", user.ID))
	m.emitAudit(ctx, auditEventLoginSuccess, true, snap, nil, func() map[string]string {
		return map[string]string{"refresh_token": fmt.Sprint(refreshToken != "")}
	})
	return nil
}
