package goSession

import (
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/kvstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newBenchmarkManager(b *testing.B, store KVStore) *Manager {
	b.Helper()
	m, err := New().
		WithStore(store).
		WithPermissions([]string{"sprint:read", "sprint:write", "project:read"}).
		WithRoles(map[string][]string{
			"admin":  {"*"},
			"member": {"sprint:read", "project:read"},
		}).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(m.Close)
	if err := m.WaitLoaded(context.Background()); err != nil {
		b.Fatal(err)
	}
	return m
}

func BenchmarkSession(b *testing.B) {
	m := newBenchmarkManager(b, kvstore.NewMemory())
	if err := m.Login(context.Background(), &User{ID: "u1", Role: "member"}, "tok", "ref"); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = m.Session()
	}
}

func BenchmarkHasPermissionParallel(b *testing.B) {
	m := newBenchmarkManager(b, kvstore.NewMemory())
	if err := m.Login(context.Background(), &User{ID: "u1", Role: "member"}, "tok", ""); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if !m.HasPermission("sprint", "read") {
				b.Error("member should read sprints")
				return
			}
		}
	})
}

func BenchmarkLoginLogoutMemory(b *testing.B) {
	m := newBenchmarkManager(b, kvstore.NewMemory())
	ctx := context.Background()
	user := &User{ID: "u1", Role: "admin"}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if err := m.Login(ctx, user, "tok", "ref"); err != nil {
			b.Fatalf("login failed: %v", err)
		}
		if err := m.Logout(ctx); err != nil {
			b.Fatalf("logout failed: %v", err)
		}
	}
}

func BenchmarkLoginRedis(b *testing.B) {
	mr, err := miniredis.Run()
	if err != nil {
		b.Fatal(err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), DialTimeout: time.Second})
	defer rdb.Close()

	m := newBenchmarkManager(b, kvstore.NewRedis(rdb, "bench"))
	ctx := context.Background()
	user := &User{ID: "u1", Role: "admin"}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if err := m.Login(ctx, user, "tok", "ref"); err != nil {
			b.Fatalf("login failed: %v", err)
		}
	}
}
