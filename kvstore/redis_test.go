package kvstore

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStoreTest(t *testing.T) (*Redis, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedis(rdb, "app"), mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestRedisRoundTripUsesPrefix(t *testing.T) {
	store, mr, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Set(ctx, "auth.accessToken", "tok-123"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	raw, err := mr.Get("app:auth.accessToken")
	if err != nil || raw != "tok-123" {
		t.Fatalf("expected prefixed key in redis, got %q, %v", raw, err)
	}

	got, err := store.Get(ctx, "auth.accessToken")
	if err != nil || got != "tok-123" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	if err := store.Remove(ctx, "auth.accessToken"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := store.Remove(ctx, "auth.accessToken"); err != nil {
		t.Fatalf("second Remove failed: %v", err)
	}
	if _, err := store.Get(ctx, "auth.accessToken"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRedisUnavailableWrapsError(t *testing.T) {
	store, mr, done := newRedisStoreTest(t)
	defer done()

	mr.Close()

	if _, err := store.Get(context.Background(), "k"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := store.Set(context.Background(), "k", "v"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
