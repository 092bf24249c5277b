package goSession

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/goSession/internal/flows"
)

// Logout ends the session. It always leaves the published session
// unauthenticated, whatever fails on the way.
//
// Steps:
//  1. Revoke the refresh token through the remote service, when one is
//     configured. Transport errors and rejections are logged and ignored.
//  2. Remove the three persisted keys.
//  3. Publish the empty unauthenticated session.
//
// Logout returns nil, or an error wrapping [ErrSessionClear] when step 2 failed
// or something unexpected happened; in both cases step 3 has already run.
// Logout does not give up early when ctx ends: ctx is passed to the remote
// call and to storage, which decide how to react. Calling Logout twice yields
// the same final state.
func (m *Manager) Logout(ctx context.Context) (err error) {
	release := m.acquireUninterruptible()
	defer release()

	start := time.Now()
	prev := m.snapshot()
	m.logger.Debug("logout started", slog.String("op", "logout"), slog.Bool("authenticated", prev.IsAuthenticated))

	var res flows.LogoutResult
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSessionClear, r)
			m.logger.Error("logout failed unexpectedly, session reset anyway",
				slog.String("op", "logout"), slog.Any("panic", r))
		}

		m.mu.Lock()
		snap := m.publishLocked(unauthenticatedSession())
		m.mu.Unlock()
		m.logger.Debug("session reset", slog.String("op", "logout"), slog.Uint64("version", snap.Version))

		m.metricInc(MetricLogout)
		m.observe(MetricLogoutLatency, start)
		m.emitAudit(ctx, auditEventLogout, err == nil, snap, err, func() map[string]string {
			meta := map[string]string{"remote": remoteOutcome(res)}
			if prev.User != nil {
				meta["previous_user_id"] = prev.User.ID
			}
			return meta
		})
	}()

	res = m.flows.Logout(ctx, prev.RefreshToken)
	m.recordRemoteOutcome(ctx, prev, res)

	if res.StorageErr != nil {
		m.metricInc(MetricLogoutStorageFailure)
		m.logger.Warn("could not remove persisted session",
			slog.String("op", "logout"), slog.Any("error", res.StorageErr))
		return fmt.Errorf("%w: %w", ErrSessionClear, res.StorageErr)
	}
	m.logger.Debug("persisted session removed", slog.String("op", "logout"))
	return nil
}

func (m *Manager) recordRemoteOutcome(ctx context.Context, prev Session, res flows.LogoutResult) {
	switch {
	case res.RemoteOK():
		m.metricInc(MetricRemoteRevokeSuccess)
		m.logger.Debug("remote revoke accepted", slog.String("op", "logout"))
	case !res.RemoteAttempted:
		m.logger.Debug("no remote session service, revoke skipped", slog.String("op", "logout"))
	case res.RemoteErr != nil:
		m.metricInc(MetricRemoteRevokeError)
		m.logger.Warn("remote revoke failed, continuing logout",
			slog.String("op", "logout"), slog.Any("error", res.RemoteErr))
		m.emitAudit(ctx, auditEventRemoteRevokeFailed, false, prev, res.RemoteErr, nil)
	case res.RemoteRejected != "":
		m.metricInc(MetricRemoteRevokeRejected)
		m.logger.Warn("remote revoke rejected, continuing logout",
			slog.String("op", "logout"), slog.String("reason", res.RemoteRejected))
		rejected := fmt.Errorf("%w: %s", errRemoteRejected, res.RemoteRejected)
		m.emitAudit(ctx, auditEventRemoteRevokeFailed, false, prev, rejected, func() map[string]string {
			return map[string]string{"reason": res.RemoteRejected}
		})
	}
}

func remoteOutcome(res flows.LogoutResult) string {
	switch {
	case res.RemoteOK():
		return "ok"
	case !res.RemoteAttempted:
		return "skipped"
	case res.RemoteErr != nil:
		return "error"
	default:
		return "rejected"
	}
}
