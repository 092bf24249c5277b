package goSession

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/permission"
	"github.com/MrEthical07/goSession/session"
)

// Manager is the single owner of the session. It is created by [Builder.Build],
// which also starts the initial load, and is shared by reference.
//
// Every method is safe for concurrent use.
type Manager struct {
	config    Config
	logger    *slog.Logger
	store     *session.Store
	remote    RemoteSessionService
	evaluator *permission.Evaluator
	audit     *internalaudit.Dispatcher
	metrics   *Metrics
	flows     flows.Service

	// mu guards current and subscribers. Publishing and delivery both happen
	// under it so subscribers observe versions in order.
	mu          sync.Mutex
	current     Session
	subscribers map[uint64]*Subscription
	nextSubID   uint64

	// slot is a one-element semaphore for mutating operations; nil when
	// Session.SerializeMutations is false.
	slot chan struct{}

	loaded    chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
}

func newManager(cfg Config, store *session.Store, remote RemoteSessionService, evaluator *permission.Evaluator, logger *slog.Logger, sink AuditSink) *Manager {
	m := &Manager{
		config:      cfg,
		logger:      logger,
		store:       store,
		remote:      remote,
		evaluator:   evaluator,
		metrics:     NewMetrics(cfg.Metrics),
		subscribers: make(map[uint64]*Subscription),
		loaded:      make(chan struct{}),
		current:     Session{State: StateUninitialized, IsLoading: true},
	}
	m.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, sink)
	if cfg.Session.SerializeMutations {
		m.slot = make(chan struct{}, 1)
	}

	var revoke flows.RevokeFunc
	if remote != nil {
		revoke = m.revoke
	}
	m.flows = flows.New(flows.Deps{
		Load:       flows.LoadDeps{Store: store, Timeout: cfg.Session.LoadTimeout},
		Login:      flows.LoginDeps{Store: store},
		Logout:     flows.LogoutDeps{Store: store, Revoke: revoke},
		UpdateUser: flows.UpdateUserDeps{Store: store},
	})
	return m
}

// start publishes the Loading state and runs the initial load in the background.
func (m *Manager) start() {
	m.mu.Lock()
	m.publishLocked(Session{State: StateLoading, IsLoading: true})
	m.mu.Unlock()

	go m.load()
}

func (m *Manager) load() {
	defer close(m.loaded)

	start := time.Now()
	res := m.flows.Load(context.Background())
	m.observe(MetricLoadLatency, start)

	next := unauthenticatedSession()
	switch res.Outcome {
	case flows.LoadRestored:
		next = authenticatedSession(res.Record)
		m.metricInc(MetricLoadRestored)
	case flows.LoadEmpty:
		m.metricInc(MetricLoadEmpty)
		m.logger.Debug("no stored session", slog.String("op", "load"))
	case flows.LoadCorrupt:
		m.metricInc(MetricLoadCorrupt)
		m.logger.Warn("stored session is corrupt, starting unauthenticated",
			slog.String("op", "load"), slog.Any("error", res.Err))
	default:
		m.metricInc(MetricLoadUnavailable)
		m.logger.Warn("session storage unavailable, starting unauthenticated",
			slog.String("op", "load"), slog.Any("error", res.Err))
	}

	m.mu.Lock()
	snap := m.publishLocked(next)
	m.mu.Unlock()

	m.emitAudit(context.Background(), auditEventSessionLoad, res.Outcome != flows.LoadUnavailable, snap, res.Err, func() map[string]string {
		return map[string]string{"outcome": res.Outcome.String()}
	})
}

// publishLocked stamps next with the following version, makes it current and
// delivers a copy to every subscriber. Callers hold m.mu.
func (m *Manager) publishLocked(next Session) Session {
	next.IsAuthenticated = next.User != nil && next.AccessToken != ""
	next.Version = m.current.Version + 1
	m.current = next

	for _, sub := range m.subscribers {
		sub.deliver(next.clone())
	}
	return next.clone()
}

func (m *Manager) snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.clone()
}

// Session returns a copy of the current snapshot. A call made after an
// operation returns observes that operation's result.
func (m *Manager) Session() Session {
	if m == nil {
		return unauthenticatedSession()
	}
	return m.snapshot()
}

// Loaded returns a channel that is closed once the initial load has finished.
func (m *Manager) Loaded() <-chan struct{} {
	return m.loaded
}

// WaitLoaded blocks until the initial load has finished or ctx ends.
func (m *Manager) WaitLoaded(ctx context.Context) error {
	select {
	case <-m.loaded:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrManagerNotReady, ctx.Err())
	}
}

// acquire waits for the initial load and, when mutations are serialized, for
// the mutation slot. The returned release must be called exactly once.
func (m *Manager) acquire(ctx context.Context) (func(), error) {
	if m.closed.Load() {
		return nil, ErrManagerClosed
	}
	if err := m.WaitLoaded(ctx); err != nil {
		return nil, err
	}
	if m.slot == nil {
		return func() {}, nil
	}

	select {
	case m.slot <- struct{}{}:
		return func() { <-m.slot }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrManagerNotReady, ctx.Err())
	}
}

// acquireUninterruptible is acquire for Logout, which must run to completion
// whatever the caller's context does.
func (m *Manager) acquireUninterruptible() func() {
	<-m.loaded
	if m.slot == nil {
		return func() {}
	}
	m.slot <- struct{}{}
	return func() { <-m.slot }
}

// Close stops the audit dispatcher and ends every subscription. The session
// itself is left as is; Logout still works after Close.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.closeOnce.Do(func() {
		m.closed.Store(true)

		m.mu.Lock()
		for id, sub := range m.subscribers {
			delete(m.subscribers, id)
			sub.closeLocked()
		}
		m.mu.Unlock()

		m.audit.Close()
	})
}

// AuditDropped reports audit events dropped because the buffer was full.
func (m *Manager) AuditDropped() uint64 {
	if m == nil || m.audit == nil {
		return 0
	}
	return m.audit.Dropped()
}

// AuditFailed reports audit events lost because the sink panicked.
func (m *Manager) AuditFailed() uint64 {
	if m == nil || m.audit == nil {
		return 0
	}
	return m.audit.Failed()
}

// MetricsSnapshot returns a copy of the in-process metrics.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil || m.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return m.metrics.Snapshot()
}

// Config returns a copy of the configuration the manager was built with.
func (m *Manager) Config() Config {
	return cloneConfig(m.config)
}

func (m *Manager) revoke(ctx context.Context, refreshToken string) (bool, string, error) {
	res, err := m.remote.Logout(ctx, refreshToken)
	if err != nil {
		return false, "", fmt.Errorf("%w: %w", ErrRemoteRevoke, err)
	}
	return res.Success, res.Error, nil
}
