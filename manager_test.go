package goSession

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/kvstore"
	"github.com/MrEthical07/goSession/session"
)

func TestLoadEmptyStore(t *testing.T) {
	m := newTestManager(t, kvstore.NewMemory(), nil)

	s := m.Session()
	if s.User != nil || s.AccessToken != "" || s.IsAuthenticated || s.IsLoading {
		t.Fatalf("unexpected session after empty load: %+v", s)
	}
	if s.State != StateUnauthenticated {
		t.Fatalf("state = %s, want unauthenticated", s.State)
	}
	assertConsistent(t, s)

	select {
	case <-m.Loaded():
	default:
		t.Fatal("Loaded channel should be closed")
	}
}

func TestLoadPartialOrCorruptStoreIsUnauthenticated(t *testing.T) {
	keys := session.DefaultKeys()
	tests := []struct {
		name string
		seed map[string]string
		hook func(string) error
	}{
		{name: "token only", seed: map[string]string{keys.AccessToken: "tok"}},
		{name: "user only", seed: map[string]string{keys.User: `{"id":"u1","role":"admin"}`}},
		{name: "empty token", seed: map[string]string{keys.User: `{"id":"u1"}`, keys.AccessToken: ""}},
		{name: "corrupt user", seed: map[string]string{keys.User: "{not json", keys.AccessToken: "tok"}},
		{name: "null user", seed: map[string]string{keys.User: "null", keys.AccessToken: "tok"}},
		{
			name: "read failure",
			seed: map[string]string{keys.User: `{"id":"u1"}`, keys.AccessToken: "tok"},
			hook: func(string) error { return errInjected },
		},
		{
			name: "refresh read failure",
			seed: map[string]string{keys.User: `{"id":"u1"}`, keys.AccessToken: "tok", keys.RefreshToken: "ref"},
			hook: func(key string) error {
				if key == keys.RefreshToken {
					return errInjected
				}
				return nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := kvstore.NewMemory()
			for k, v := range tt.seed {
				_ = kv.Set(context.Background(), k, v)
			}
			kv.GetHook = tt.hook

			m := newTestManager(t, kv, nil)
			s := m.Session()
			if s.IsAuthenticated || s.User != nil || s.IsLoading {
				t.Fatalf("expected unauthenticated session, got %+v", s)
			}
			assertConsistent(t, s)
		})
	}
}

func TestLoginPersistsAllKeys(t *testing.T) {
	kv := kvstore.NewMemory()
	m := newTestManager(t, kv, nil)

	if err := m.Login(context.Background(), adminUser(), "tok-123", "ref-456"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	keys := session.DefaultKeys()
	stored := kv.Snapshot()
	if stored[keys.User] != `{"id":"u1","role":"admin"}` {
		t.Fatalf("user key = %q", stored[keys.User])
	}
	if stored[keys.AccessToken] != "tok-123" || stored[keys.RefreshToken] != "ref-456" {
		t.Fatalf("unexpected tokens in storage: %v", stored)
	}

	s := m.Session()
	if !s.IsAuthenticated || s.User.ID != "u1" || s.AccessToken != "tok-123" || s.RefreshToken != "ref-456" {
		t.Fatalf("unexpected session after login: %+v", s)
	}
	assertConsistent(t, s)
}

func TestLoginRoundTripAcrossRestart(t *testing.T) {
	tests := []struct {
		name    string
		refresh string
	}{
		{name: "with refresh token", refresh: "ref-456"},
		{name: "without refresh token", refresh: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := kvstore.NewMemory()
			first := newTestManager(t, kv, nil)

			user := &User{ID: "u1", Role: "admin", Name: "Ada", Permissions: []string{"sprint:*"}}
			if err := first.Login(context.Background(), user, "tok-123", tt.refresh); err != nil {
				t.Fatalf("Login failed: %v", err)
			}
			first.Close()

			second := newTestManager(t, kv, nil)
			s := second.Session()
			if !s.IsAuthenticated || s.User.ID != "u1" || s.User.Name != "Ada" || s.User.Role != "admin" {
				t.Fatalf("unexpected restored session: %+v", s)
			}
			if len(s.User.Permissions) != 1 || s.User.Permissions[0] != "sprint:*" {
				t.Fatalf("permissions not restored: %v", s.User.Permissions)
			}
			if s.AccessToken != "tok-123" || s.RefreshToken != tt.refresh {
				t.Fatalf("tokens not restored: access=%q refresh=%q", s.AccessToken, s.RefreshToken)
			}
		})
	}
}

func TestLoginWithoutRefreshRemovesStaleRefresh(t *testing.T) {
	kv := kvstore.NewMemory()
	m := newTestManager(t, kv, nil)
	ctx := context.Background()

	if err := m.Login(ctx, adminUser(), "tok-1", "ref-1"); err != nil {
		t.Fatal(err)
	}
	if err := m.Login(ctx, &User{ID: "u2", Role: "member"}, "tok-2", ""); err != nil {
		t.Fatal(err)
	}

	if _, ok := kv.Snapshot()[session.DefaultKeys().RefreshToken]; ok {
		t.Fatal("refresh key from the previous session survived")
	}
	if m.Session().RefreshToken != "" {
		t.Fatal("in-memory refresh token should be empty")
	}
}

func TestLoginNilUser(t *testing.T) {
	m := newTestManager(t, nil, nil)
	before := m.Session()

	if err := m.Login(context.Background(), nil, "tok", ""); !errors.Is(err, ErrInvalidUser) {
		t.Fatalf("expected ErrInvalidUser, got %v", err)
	}
	if after := m.Session(); after.Version != before.Version {
		t.Fatal("nil user login must not publish")
	}
}

func TestLoginDoesNotAliasCallerUser(t *testing.T) {
	m := newTestManager(t, nil, nil)
	user := adminUser()
	if err := m.Login(context.Background(), user, "tok", ""); err != nil {
		t.Fatal(err)
	}

	user.Role = "mutated"
	if got := m.Session().User.Role; got != "admin" {
		t.Fatalf("session role changed through caller pointer: %q", got)
	}

	snap := m.Session()
	snap.User.Role = "mutated-again"
	if got := m.Session().User.Role; got != "admin" {
		t.Fatalf("session role changed through snapshot: %q", got)
	}
}

func TestLoginWriteFailureIsAtomic(t *testing.T) {
	kv := kvstore.NewMemory()
	m := newTestManager(t, kv, nil)
	ctx := context.Background()

	if err := m.Login(ctx, adminUser(), "tok-123", "ref-456"); err != nil {
		t.Fatal(err)
	}
	before := m.Session()
	storedBefore := kv.Snapshot()

	var failed atomic.Bool
	kv.SetHook = func(key, _ string) error {
		if key == session.DefaultKeys().AccessToken && failed.CompareAndSwap(false, true) {
			return errInjected
		}
		return nil
	}

	err := m.Login(ctx, &User{ID: "u2", Role: "member"}, "tok-999", "")
	if !errors.Is(err, ErrSessionSave) || !errors.Is(err, ErrStorageWrite) || !errors.Is(err, errInjected) {
		t.Fatalf("expected ErrSessionSave wrapping ErrStorageWrite, got %v", err)
	}

	after := m.Session()
	if after.Version != before.Version || after.User.ID != "u1" || after.AccessToken != before.AccessToken || after.RefreshToken != before.RefreshToken {
		t.Fatalf("session changed after failed login: before %+v after %+v", before, after)
	}
	assertConsistent(t, after)

	storedAfter := kv.Snapshot()
	if len(storedAfter) != len(storedBefore) {
		t.Fatalf("storage diverged: before %v after %v", storedBefore, storedAfter)
	}
	for k, v := range storedBefore {
		if storedAfter[k] != v {
			t.Fatalf("key %s = %q after failed login, want %q", k, storedAfter[k], v)
		}
	}
}

func TestLoginFailureFromEmptyLeavesStorageEmpty(t *testing.T) {
	kv := kvstore.NewMemory()
	m := newTestManager(t, kv, nil)
	kv.SetHook = func(key, _ string) error {
		if key == session.DefaultKeys().User {
			return errInjected
		}
		return nil
	}

	if err := m.Login(context.Background(), adminUser(), "tok", "ref"); !errors.Is(err, ErrSessionSave) {
		t.Fatalf("expected ErrSessionSave, got %v", err)
	}
	if m.Session().IsAuthenticated {
		t.Fatal("failed login published an authenticated session")
	}
	if kv.Len() != 0 {
		t.Fatalf("partial login left keys behind: %v", kv.Snapshot())
	}
}

func TestLogoutClearsSessionWhenRemoteRejects(t *testing.T) {
	kv := kvstore.NewMemory()
	remote := newFakeRemote(RevokeResult{Success: false, Error: "network"}, nil)
	m := newTestManager(t, kv, remote)
	ctx := context.Background()

	if err := m.Login(ctx, adminUser(), "tok-123", "ref-456"); err != nil {
		t.Fatal(err)
	}
	if err := m.Logout(ctx); err != nil {
		t.Fatalf("Logout should absorb a remote rejection, got %v", err)
	}

	if calls := remote.Calls(); len(calls) != 1 || calls[0] != "ref-456" {
		t.Fatalf("remote calls = %v", calls)
	}
	if kv.Len() != 0 {
		t.Fatalf("storage not cleared: %v", kv.Snapshot())
	}
	s := m.Session()
	if s.IsAuthenticated || s.User != nil || s.AccessToken != "" || s.RefreshToken != "" {
		t.Fatalf("session not reset: %+v", s)
	}
	if s.State != StateUnauthenticated {
		t.Fatalf("state = %s", s.State)
	}
}

func TestLogoutFailSafe(t *testing.T) {
	tests := []struct {
		name   string
		remote *fakeRemote
	}{
		{name: "remote transport error", remote: newFakeRemote(RevokeResult{}, errInjected)},
		{name: "remote panics", remote: &fakeRemote{panicMsg: "client bug"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := kvstore.NewMemory()
			m := newTestManager(t, kv, tt.remote)
			ctx := context.Background()

			if err := m.Login(ctx, adminUser(), "tok-123", "ref-456"); err != nil {
				t.Fatal(err)
			}
			kv.RemoveHook = func(string) error { return errInjected }

			err := m.Logout(ctx)
			if !errors.Is(err, ErrSessionClear) || !errors.Is(err, ErrStorageWrite) {
				t.Fatalf("expected ErrSessionClear wrapping ErrStorageWrite, got %v", err)
			}

			s := m.Session()
			if s.IsAuthenticated || s.User != nil {
				t.Fatalf("logout left session authenticated: %+v", s)
			}
			assertConsistent(t, s)
		})
	}
}

func TestLogoutWithoutRemote(t *testing.T) {
	kv := kvstore.NewMemory()
	m := newTestManager(t, kv, nil)
	ctx := context.Background()

	if err := m.Login(ctx, adminUser(), "tok", ""); err != nil {
		t.Fatal(err)
	}
	if err := m.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if kv.Len() != 0 || m.Session().IsAuthenticated {
		t.Fatal("logout without remote did not clear the session")
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	kv := kvstore.NewMemory()
	remote := newFakeRemote(RevokeResult{Success: true}, nil)
	m := newTestManager(t, kv, remote)
	ctx := context.Background()

	if err := m.Login(ctx, adminUser(), "tok-123", "ref-456"); err != nil {
		t.Fatal(err)
	}
	if err := m.Logout(ctx); err != nil {
		t.Fatalf("first Logout: %v", err)
	}
	first := m.Session()

	remote.mu.Lock()
	remote.result = RevokeResult{Success: false, Error: "unknown token"}
	remote.mu.Unlock()

	if err := m.Logout(ctx); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
	second := m.Session()

	first.Version, second.Version = 0, 0
	if first != second {
		t.Fatalf("second logout changed the outcome: %+v vs %+v", first, second)
	}
	if kv.Len() != 0 {
		t.Fatal("storage not empty after repeated logout")
	}
	if calls := remote.Calls(); len(calls) != 2 || calls[1] != "" {
		t.Fatalf("second revoke should carry no refresh token, calls=%v", calls)
	}
}

func TestLogoutRunsToCompletionWithCanceledContext(t *testing.T) {
	kv := kvstore.NewMemory()
	remote := newFakeRemote(RevokeResult{Success: true}, nil)
	m := newTestManager(t, kv, remote)

	if err := m.Login(context.Background(), adminUser(), "tok", "ref"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.Logout(ctx); err != nil {
		t.Fatalf("Logout with a canceled context: %v", err)
	}
	if m.Session().IsAuthenticated {
		t.Fatal("canceled logout left the session authenticated")
	}
	if kv.Len() != 0 {
		t.Fatalf("canceled logout left keys behind: %v", kv.Snapshot())
	}
	if calls := remote.Calls(); len(calls) != 1 || calls[0] != "ref" {
		t.Fatalf("remote revoke not attempted, calls=%v", calls)
	}

	restarted := newTestManager(t, kv, nil)
	if s := restarted.Session(); s.IsAuthenticated || s.User != nil {
		t.Fatalf("logged-out session came back after restart: %+v", s)
	}
}

func TestLoginCanceledMidSaveRestoresPreviousRecord(t *testing.T) {
	kv := kvstore.NewMemory()
	m := newTestManager(t, kv, nil)

	if err := m.Login(context.Background(), adminUser(), "tok-A", "ref-A"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var failed atomic.Bool
	kv.SetHook = func(key, _ string) error {
		if key == session.DefaultKeys().AccessToken && failed.CompareAndSwap(false, true) {
			cancel()
			return context.Canceled
		}
		return nil
	}

	err := m.Login(ctx, &User{ID: "u2", Role: "member"}, "tok-B", "")
	if !errors.Is(err, ErrSessionSave) {
		t.Fatalf("expected ErrSessionSave, got %v", err)
	}
	kv.SetHook = nil

	s := m.Session()
	if s.User.ID != "u1" || s.AccessToken != "tok-A" {
		t.Fatalf("failed login changed memory: %+v", s)
	}

	restarted := newTestManager(t, kv, nil)
	r := restarted.Session()
	if !r.IsAuthenticated || r.User.ID != "u1" || r.AccessToken != "tok-A" || r.RefreshToken != "ref-A" {
		t.Fatalf("storage does not hold the previous record after restart: %+v (stored %v)", r, kv.Snapshot())
	}
}

func TestUpdateUserReplacesUserKeepsTokens(t *testing.T) {
	kv := kvstore.NewMemory()
	m := newTestManager(t, kv, nil)
	ctx := context.Background()

	if err := m.Login(ctx, adminUser(), "tok-123", "ref-456"); err != nil {
		t.Fatal(err)
	}
	if err := m.UpdateUser(ctx, &User{ID: "u1", Role: "member"}); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}

	s := m.Session()
	if s.User.Role != "member" || s.AccessToken != "tok-123" || s.RefreshToken != "ref-456" || !s.IsAuthenticated {
		t.Fatalf("unexpected session after update: %+v", s)
	}
	if got := kv.Snapshot()[session.DefaultKeys().User]; got != `{"id":"u1","role":"member"}` {
		t.Fatalf("user key = %q", got)
	}
}

func TestUpdateUserFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("not authenticated", func(t *testing.T) {
		kv := kvstore.NewMemory()
		m := newTestManager(t, kv, nil)
		if err := m.UpdateUser(ctx, adminUser()); !errors.Is(err, ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}
		if kv.Len() != 0 {
			t.Fatal("update without a session wrote to storage")
		}
	})

	t.Run("nil user", func(t *testing.T) {
		m := newTestManager(t, nil, nil)
		if err := m.Login(ctx, adminUser(), "tok", ""); err != nil {
			t.Fatal(err)
		}
		if err := m.UpdateUser(ctx, nil); !errors.Is(err, ErrInvalidUser) {
			t.Fatalf("expected ErrInvalidUser, got %v", err)
		}
	})

	t.Run("write failure", func(t *testing.T) {
		kv := kvstore.NewMemory()
		m := newTestManager(t, kv, nil)
		if err := m.Login(ctx, adminUser(), "tok", ""); err != nil {
			t.Fatal(err)
		}
		before := m.Session()
		kv.SetHook = func(string, string) error { return errInjected }

		err := m.UpdateUser(ctx, &User{ID: "u1", Role: "member"})
		if !errors.Is(err, ErrSessionSave) || !errors.Is(err, ErrStorageWrite) {
			t.Fatalf("expected ErrSessionSave wrapping ErrStorageWrite, got %v", err)
		}
		after := m.Session()
		if after.Version != before.Version || after.User.Role != "admin" {
			t.Fatalf("failed update changed the session: %+v", after)
		}
	})
}

func TestMutationsWaitForInitialLoad(t *testing.T) {
	kv := kvstore.NewMemory()
	gate := make(chan struct{})
	kv.GetHook = func(string) error {
		<-gate
		return nil
	}

	m, err := New().WithConfig(testConfig()).WithStore(kv).Build()
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	if s := m.Session(); !s.IsLoading || s.State != StateLoading {
		t.Fatalf("expected loading snapshot, got %+v", s)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := m.Login(ctx, adminUser(), "tok", ""); !errors.Is(err, ErrManagerNotReady) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected ErrManagerNotReady, got %v", err)
	}
	if kv.Len() != 0 {
		t.Fatal("login wrote before the initial load finished")
	}

	close(gate)
	if err := m.WaitLoaded(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := m.Login(context.Background(), adminUser(), "tok", ""); err != nil {
		t.Fatalf("Login after load failed: %v", err)
	}
	if !m.Session().IsAuthenticated {
		t.Fatal("login after load not visible")
	}
}

func TestLoadTimeoutFallsBackToUnauthenticated(t *testing.T) {
	kv := kvstore.NewMemory()
	block := make(chan struct{})
	defer close(block)
	kv.GetHook = func(string) error {
		<-block
		return nil
	}

	cfg := testConfig()
	cfg.Session.LoadTimeout = 20 * time.Millisecond
	m, err := New().WithConfig(cfg).WithStore(slowGetStore{kv}).Build()
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.WaitLoaded(ctx); err != nil {
		t.Fatalf("load did not honour LoadTimeout: %v", err)
	}
	if s := m.Session(); s.IsAuthenticated || s.IsLoading {
		t.Fatalf("unexpected session after timed-out load: %+v", s)
	}
	if m.MetricsSnapshot().Counters[MetricLoadUnavailable] != 1 {
		t.Fatal("timed-out load not counted as unavailable")
	}
}

// slowGetStore runs Get in a goroutine so a blocked backend still yields to
// context cancellation.
type slowGetStore struct {
	*kvstore.Memory
}

func (s slowGetStore) Get(ctx context.Context, key string) (string, error) {
	type result struct {
		v   string
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := s.Memory.Get(context.Background(), key)
		done <- result{v, err}
	}()
	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestClosedManagerRejectsMutationsButLogsOut(t *testing.T) {
	kv := kvstore.NewMemory()
	m := newTestManager(t, kv, nil)
	ctx := context.Background()

	if err := m.Login(ctx, adminUser(), "tok", ""); err != nil {
		t.Fatal(err)
	}
	m.Close()
	m.Close()

	if err := m.Login(ctx, adminUser(), "tok-2", ""); !errors.Is(err, ErrManagerClosed) {
		t.Fatalf("expected ErrManagerClosed, got %v", err)
	}
	if err := m.UpdateUser(ctx, adminUser()); !errors.Is(err, ErrManagerClosed) {
		t.Fatalf("expected ErrManagerClosed, got %v", err)
	}
	if err := m.Logout(ctx); err != nil {
		t.Fatalf("Logout after Close: %v", err)
	}
	if m.Session().IsAuthenticated || kv.Len() != 0 {
		t.Fatal("logout after close did not clear the session")
	}
}

func TestVersionIncreasesPerTransition(t *testing.T) {
	m := newTestManager(t, nil, nil)
	ctx := context.Background()

	v0 := m.Session().Version
	_ = m.Login(ctx, adminUser(), "tok", "")
	v1 := m.Session().Version
	_ = m.UpdateUser(ctx, &User{ID: "u1", Role: "member"})
	v2 := m.Session().Version
	_ = m.Logout(ctx)
	v3 := m.Session().Version

	if !(v0 < v1 && v1 < v2 && v2 < v3) {
		t.Fatalf("versions not increasing: %d %d %d %d", v0, v1, v2, v3)
	}
	if v0 != 2 {
		t.Fatalf("after load version = %d, want 2 (loading, loaded)", v0)
	}
}
