package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by [Store.Get] when the key holds no value.
var ErrNotFound = errors.New("kvstore: key not found")

// ErrClosed is returned by backends that have been closed.
var ErrClosed = errors.New("kvstore: store closed")

// Store is the durability contract consumed by the session layer.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
