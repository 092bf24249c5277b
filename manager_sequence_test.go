package goSession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/MrEthical07/goSession/kvstore"
	"github.com/MrEthical07/goSession/session"
)

// assertStorageMatches checks that the persisted keys describe s.
func assertStorageMatches(t *testing.T, kv *kvstore.Memory, s Session) {
	t.Helper()
	keys := session.DefaultKeys()
	stored := kv.Snapshot()

	if !s.IsAuthenticated {
		if len(stored) != 0 {
			t.Fatalf("unauthenticated session but storage holds %v", stored)
		}
		return
	}

	var u User
	if err := json.Unmarshal([]byte(stored[keys.User]), &u); err != nil {
		t.Fatalf("stored user unreadable: %v (%q)", err, stored[keys.User])
	}
	if u.ID != s.User.ID || u.Role != s.User.Role {
		t.Fatalf("stored user %+v, memory user %+v", u, *s.User)
	}
	if stored[keys.AccessToken] != s.AccessToken {
		t.Fatalf("stored access token %q, memory %q", stored[keys.AccessToken], s.AccessToken)
	}
	refresh, ok := stored[keys.RefreshToken]
	if s.RefreshToken == "" && ok {
		t.Fatalf("stale refresh token %q in storage", refresh)
	}
	if s.RefreshToken != "" && refresh != s.RefreshToken {
		t.Fatalf("stored refresh token %q, memory %q", refresh, s.RefreshToken)
	}
}

func TestRandomOperationSequencesKeepSessionConsistent(t *testing.T) {
	roles := []string{"admin", "member", "viewer"}

	for seed := uint64(1); seed <= 8; seed++ {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewPCG(seed, seed*7919))
			kv := kvstore.NewMemory()
			remote := newFakeRemote(RevokeResult{Success: true}, nil)
			m := newTestManager(t, kv, remote)
			ctx := context.Background()

			// diverged is set after a logout whose key removal failed; the
			// next completed login or logout brings storage back in line.
			diverged := false

			for step := 0; step < 150; step++ {
				faulty := rng.IntN(4) == 0
				before := m.Session()

				var failOnce atomic.Bool
				if faulty {
					kv.SetHook = func(string, string) error {
						if failOnce.CompareAndSwap(false, true) {
							return errInjected
						}
						return nil
					}
				}

				var err error
				op := rng.IntN(3)
				switch op {
				case 0:
					n := rng.IntN(100)
					refresh := ""
					if rng.IntN(2) == 0 {
						refresh = fmt.Sprintf("ref-%d", n)
					}
					user := &User{ID: fmt.Sprintf("u%d", n), Role: roles[rng.IntN(len(roles))]}
					err = m.Login(ctx, user, fmt.Sprintf("tok-%d", n), refresh)
					if faulty {
						if !errors.Is(err, ErrSessionSave) {
							t.Fatalf("step %d: faulty login returned %v", step, err)
						}
						after := m.Session()
						if after.Version != before.Version || after.AccessToken != before.AccessToken {
							t.Fatalf("step %d: failed login changed memory", step)
						}
						if !before.IsAuthenticated {
							diverged = false
						}
					} else {
						if err != nil {
							t.Fatalf("step %d: login: %v", step, err)
						}
						diverged = false
					}

				case 1:
					if faulty {
						kv.SetHook = nil
						kv.RemoveHook = func(string) error { return errInjected }
					}
					err = m.Logout(ctx)
					if faulty {
						if !errors.Is(err, ErrSessionClear) {
							t.Fatalf("step %d: faulty logout returned %v", step, err)
						}
						diverged = before.IsAuthenticated || diverged
					} else {
						if err != nil {
							t.Fatalf("step %d: logout: %v", step, err)
						}
						diverged = false
					}
					if m.Session().IsAuthenticated {
						t.Fatalf("step %d: logout left the session authenticated", step)
					}

				case 2:
					role := roles[rng.IntN(len(roles))]
					id := "anon"
					if before.User != nil {
						id = before.User.ID
					}
					err = m.UpdateUser(ctx, &User{ID: id, Role: role})
					switch {
					case !before.IsAuthenticated:
						if !errors.Is(err, ErrNotAuthenticated) {
							t.Fatalf("step %d: update without session returned %v", step, err)
						}
					case faulty:
						if !errors.Is(err, ErrSessionSave) {
							t.Fatalf("step %d: faulty update returned %v", step, err)
						}
						if m.Session().User.Role != before.User.Role {
							t.Fatalf("step %d: failed update changed memory", step)
						}
					case err != nil:
						t.Fatalf("step %d: update: %v", step, err)
					}
				}

				kv.SetHook = nil
				kv.RemoveHook = nil

				s := m.Session()
				assertConsistent(t, s)
				if !diverged {
					assertStorageMatches(t, kv, s)
				}
			}
		})
	}
}

func TestConcurrentMutationsWithoutSerialization(t *testing.T) {
	cfg := testConfig()
	cfg.Session.SerializeMutations = false
	kv := kvstore.NewMemory()
	m := buildTestManager(t, testManagerOptions{cfg: cfg, kv: kv})

	sub := m.Subscribe()
	defer sub.Close()

	var (
		wg      sync.WaitGroup
		watched sync.WaitGroup
		bad     atomic.Value
	)
	checkPairing := func(s Session) {
		if s.IsAuthenticated != (s.User != nil && s.AccessToken != "") {
			bad.Store(fmt.Sprintf("inconsistent snapshot %+v", s))
		}
		if s.AccessToken != "" && "ref-"+strings.TrimPrefix(s.AccessToken, "tok-") != s.RefreshToken {
			bad.Store(fmt.Sprintf("access token %q published with refresh token %q", s.AccessToken, s.RefreshToken))
		}
	}

	watched.Add(1)
	go func() {
		defer watched.Done()
		for s := range sub.C() {
			checkPairing(s)
		}
	}()

	ctx := context.Background()
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("u%d", i)
			for j := 0; j < 20; j++ {
				switch (i + j) % 3 {
				case 0:
					if err := m.Login(ctx, &User{ID: id, Role: "member"}, "tok-"+id, "ref-"+id); err != nil {
						bad.Store(fmt.Sprintf("login: %v", err))
					}
				case 1:
					if err := m.Logout(ctx); err != nil {
						bad.Store(fmt.Sprintf("logout: %v", err))
					}
				default:
					// UpdateUser may race a logout or another login; tokens
					// must still pair.
					cur := m.Session()
					if cur.User != nil {
						_ = m.UpdateUser(ctx, &User{ID: cur.User.ID, Role: "admin"})
					}
				}
				checkPairing(m.Session())
			}
		}(i)
	}
	wg.Wait()
	sub.Close()
	watched.Wait()

	if msg := bad.Load(); msg != nil {
		t.Fatal(msg)
	}
	assertConsistent(t, m.Session())

	// Once the writers are done a final logout settles both sides.
	if err := m.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	assertStorageMatches(t, kv, m.Session())
}
