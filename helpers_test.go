package goSession

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/kvstore"
)

type fakeRemote struct {
	mu       sync.Mutex
	result   RevokeResult
	err      error
	panicMsg string
	calls    []string
}

func newFakeRemote(result RevokeResult, err error) *fakeRemote {
	return &fakeRemote{result: result, err: err}
}

func (f *fakeRemote) Logout(_ context.Context, refreshToken string) (RevokeResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, refreshToken)
	result, err, panicMsg := f.result, f.err, f.panicMsg
	f.mu.Unlock()

	if panicMsg != "" {
		panic(panicMsg)
	}
	return result, err
}

func (f *fakeRemote) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

var errInjected = errors.New("injected fault")

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}

type testManagerOptions struct {
	cfg    Config
	kv     KVStore
	remote RemoteSessionService
	sink   AuditSink
	perms  []string
	roles  map[string][]string
}

func buildTestManager(t *testing.T, opts testManagerOptions) *Manager {
	t.Helper()

	if opts.kv == nil {
		opts.kv = kvstore.NewMemory()
	}
	if opts.cfg == (Config{}) {
		opts.cfg = testConfig()
	}

	b := New().
		WithConfig(opts.cfg).
		WithStore(opts.kv).
		WithPermissions(opts.perms).
		WithRoles(opts.roles)
	if opts.remote != nil {
		b.WithRemote(opts.remote)
	}
	if opts.sink != nil {
		b.WithAuditSink(opts.sink)
	}

	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(m.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.WaitLoaded(ctx); err != nil {
		t.Fatalf("initial load did not finish: %v", err)
	}
	return m
}

func newTestManager(t *testing.T, kv *kvstore.Memory, remote RemoteSessionService) *Manager {
	t.Helper()
	opts := testManagerOptions{remote: remote}
	if kv != nil {
		opts.kv = kv
	}
	return buildTestManager(t, opts)
}

func assertConsistent(t *testing.T, s Session) {
	t.Helper()
	want := s.User != nil && s.AccessToken != ""
	if s.IsAuthenticated != want {
		t.Fatalf("IsAuthenticated=%v but user=%v token=%q", s.IsAuthenticated, s.User, s.AccessToken)
	}
	if s.IsAuthenticated && s.State != StateAuthenticated {
		t.Fatalf("authenticated snapshot in state %s", s.State)
	}
	if !s.IsAuthenticated && s.State == StateAuthenticated {
		t.Fatal("unauthenticated snapshot in authenticated state")
	}
}

func adminUser() *User {
	return &User{ID: "u1", Role: "admin"}
}
