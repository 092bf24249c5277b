package kvstore

import (
	"context"
	"sync"
)

// Memory is an in-process [Store]. Fault hooks let tests make individual
// operations fail without a real backend.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string

	// GetHook, SetHook and RemoveHook run before the operation; a non-nil
	// error is returned to the caller and the map is left untouched.
	GetHook    func(key string) error
	SetHook    func(key, value string) error
	RemoveHook func(key string) error
}

// NewMemory returns an empty [Memory] store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.GetHook != nil {
		if err := m.GetHook(key); err != nil {
			return "", err
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.SetHook != nil {
		if err := m.SetHook(key, value); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	return nil
}

func (m *Memory) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.RemoveHook != nil {
		if err := m.RemoveHook(key); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Snapshot returns a copy of every stored key and value.
func (m *Memory) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// Len reports the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
