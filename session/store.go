package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goSession/kvstore"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrStorageRead is returned when a persisted key cannot be read.
	ErrStorageRead = errors.New("session storage read failed")
	// ErrStorageWrite is returned when a persisted key cannot be written or removed.
	ErrStorageWrite = errors.New("session storage write failed")
	// ErrIncomplete is returned when the user or access-token key is missing.
	ErrIncomplete = errors.New("session record incomplete")
)

// Keys names the three persisted entries.
type Keys struct {
	User         string
	AccessToken  string
	RefreshToken string
}

// DefaultKeys returns the key names used when none are configured.
func DefaultKeys() Keys {
	return Keys{
		User:         "auth.user",
		AccessToken:  "auth.accessToken",
		RefreshToken: "auth.refreshToken",
	}
}

// Validate rejects empty or colliding key names.
func (k Keys) Validate() error {
	if k.User == "" || k.AccessToken == "" || k.RefreshToken == "" {
		return errors.New("session keys must be non-empty")
	}
	if k.User == k.AccessToken || k.User == k.RefreshToken || k.AccessToken == k.RefreshToken {
		return errors.New("session keys must be distinct")
	}
	return nil
}

// Slot is the outcome of reading one key.
type Slot struct {
	Value string
	Found bool
	Err   error
}

// ReadResult carries the per-key outcome of [Store.Read].
type ReadResult struct {
	User         Slot
	AccessToken  Slot
	RefreshToken Slot
}

// Err joins every read failure other than a missing key.
func (r ReadResult) Err() error {
	return errors.Join(r.User.Err, r.AccessToken.Err, r.RefreshToken.Err)
}

// Store reads and writes the session [Record] through a [kvstore.Store].
type Store struct {
	kv    kvstore.Store
	keys  Keys
	codec Codec
}

// NewStore creates a record store. A nil codec selects JSON.
func NewStore(kv kvstore.Store, keys Keys, codec Codec) *Store {
	if codec == nil {
		codec = jsonCodec{}
	}
	return &Store{
		kv:    kv,
		keys:  keys,
		codec: codec,
	}
}

func (s *Store) readSlot(ctx context.Context, key string) Slot {
	v, err := s.kv.Get(ctx, key)
	switch {
	case err == nil:
		return Slot{Value: v, Found: true}
	case errors.Is(err, kvstore.ErrNotFound):
		return Slot{}
	default:
		return Slot{Err: fmt.Errorf("%w: %s: %w", ErrStorageRead, key, err)}
	}
}

// Read fetches the three keys concurrently and waits for all of them.
func (s *Store) Read(ctx context.Context) ReadResult {
	var (
		res ReadResult
		g   errgroup.Group
	)
	g.Go(func() error {
		res.User = s.readSlot(ctx, s.keys.User)
		return nil
	})
	g.Go(func() error {
		res.AccessToken = s.readSlot(ctx, s.keys.AccessToken)
		return nil
	})
	g.Go(func() error {
		res.RefreshToken = s.readSlot(ctx, s.keys.RefreshToken)
		return nil
	})
	_ = g.Wait()
	return res
}

// Resolve turns a [ReadResult] into a complete [Record]. Any read failure,
// including one on the optional refresh-token key, fails resolution: a record
// restored without a token storage still holds would disagree with it.
func (s *Store) Resolve(r ReadResult) (Record, error) {
	if err := r.Err(); err != nil {
		return Record{}, err
	}
	if !r.User.Found || r.User.Value == "" || !r.AccessToken.Found || r.AccessToken.Value == "" {
		return Record{}, ErrIncomplete
	}

	user, err := s.codec.Decode(r.User.Value)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		User:        user,
		AccessToken: r.AccessToken.Value,
	}
	if r.RefreshToken.Found {
		rec.RefreshToken = r.RefreshToken.Value
	}
	return rec, nil
}

// Save writes the user and access token, and the refresh token only when it
// is non-empty. With an empty refresh token any stale refresh key left by an
// earlier session is removed instead, so the stored triple matches rec.
// Writes run concurrently; Save returns after all of them finish. Encoding
// happens first, so a serialization failure writes nothing.
func (s *Store) Save(ctx context.Context, rec Record) error {
	encoded, err := s.codec.Encode(rec.User)
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.Go(func() error {
		return s.set(ctx, s.keys.User, encoded)
	})
	g.Go(func() error {
		return s.set(ctx, s.keys.AccessToken, rec.AccessToken)
	})
	g.Go(func() error {
		if rec.RefreshToken == "" {
			return s.remove(ctx, s.keys.RefreshToken)
		}
		return s.set(ctx, s.keys.RefreshToken, rec.RefreshToken)
	})
	return g.Wait()
}

// SaveUser rewrites only the user key.
func (s *Store) SaveUser(ctx context.Context, u *User) error {
	encoded, err := s.codec.Encode(u)
	if err != nil {
		return err
	}
	return s.set(ctx, s.keys.User, encoded)
}

// Clear removes all three keys concurrently and returns the first failure
// after every removal has finished.
func (s *Store) Clear(ctx context.Context) error {
	var g errgroup.Group
	for _, key := range []string{s.keys.User, s.keys.AccessToken, s.keys.RefreshToken} {
		g.Go(func() error {
			return s.remove(ctx, key)
		})
	}
	return g.Wait()
}

func (s *Store) set(ctx context.Context, key, value string) error {
	if err := s.kv.Set(ctx, key, value); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStorageWrite, key, err)
	}
	return nil
}

func (s *Store) remove(ctx context.Context, key string) error {
	if err := s.kv.Remove(ctx, key); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStorageWrite, key, err)
	}
	return nil
}
