package goSession

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// UpdateUser persists user and replaces the user of the current session.
// Tokens are untouched.
//
// Without an authenticated session it returns [ErrNotAuthenticated]. When the
// write fails it returns an error wrapping [ErrSessionSave] and the published
// session is unchanged.
func (m *Manager) UpdateUser(ctx context.Context, user *User) error {
	if user == nil {
		m.metricInc(MetricUpdateUserFailure)
		m.emitAudit(ctx, auditEventUpdateUserFailure, false, m.snapshot(), ErrInvalidUser, nil)
		return ErrInvalidUser
	}

	release, err := m.acquire(ctx)
	if err != nil {
		m.metricInc(MetricUpdateUserFailure)
		m.emitAudit(ctx, auditEventUpdateUserFailure, false, m.snapshot(), err, nil)
		return err
	}
	defer release()

	prev := m.snapshot()
	if !prev.IsAuthenticated {
		m.metricInc(MetricUpdateUserFailure)
		m.emitAudit(ctx, auditEventUpdateUserFailure, false, prev, ErrNotAuthenticated, nil)
		return ErrNotAuthenticated
	}

	start := time.Now()
	next := user.Clone()
	err = m.flows.UpdateUser(ctx, next)
	m.observe(MetricUpdateUserLatency, start)

	if err != nil {
		m.metricInc(MetricUpdateUserFailure)
		m.logger.Warn("user update not persisted",
			slog.String("op", "update_user"), slog.Any("error", err))
		m.emitAudit(ctx, auditEventUpdateUserFailure, false, prev, err, nil)
		return fmt.Errorf("%w: %w", ErrSessionSave, err)
	}

	m.mu.Lock()
	// With unserialized mutations a logout may have finished meanwhile; it
	// wins and the user is not resurrected.
	if !m.current.IsAuthenticated {
		snap := m.current.clone()
		m.mu.Unlock()
		m.metricInc(MetricUpdateUserFailure)
		m.emitAudit(ctx, auditEventUpdateUserFailure, false, snap, ErrNotAuthenticated, nil)
		return ErrNotAuthenticated
	}
	updated := m.current
	updated.User = next
	snap := m.publishLocked(updated)
	m.mu.Unlock()

	m.metricInc(MetricUpdateUserSuccess)
	m.emitAudit(ctx, auditEventUpdateUserSuccess, true, snap, nil, nil)
	return nil
}
