package goSession

import (
	"context"
	"time"

	"github.com/google/uuid"
)

func (m *Manager) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	snap Session,
	err error,
	metadataBuilder func() map[string]string,
) {
	if m == nil || m.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Origin:    originFromContext(ctx),
		State:     snap.State.String(),
		Version:   snap.Version,
		Success:   success,
		Metadata:  metadata,
	}
	if snap.User != nil {
		event.UserID = snap.User.ID
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	// The dispatcher may block when DropIfFull is off; a finished caller
	// context must not lose the event.
	m.audit.Emit(context.WithoutCancel(ctx), event)
}

func (m *Manager) metricInc(id MetricID) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.Inc(id)
}

func (m *Manager) observe(id MetricID, start time.Time) {
	if m == nil || !m.metrics.LatencyEnabled() {
		return
	}
	m.metrics.Observe(id, time.Since(start))
}
