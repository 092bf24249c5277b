package goSession

import (
	"errors"

	"github.com/MrEthical07/goSession/kvstore"
	"github.com/MrEthical07/goSession/session"
)

var (
	// ErrStorageRead is returned by the persistence layer when a key cannot be read.
	// Load absorbs it.
	ErrStorageRead = session.ErrStorageRead
	// ErrStorageWrite is returned by the persistence layer when a key cannot be written or removed.
	ErrStorageWrite = session.ErrStorageWrite
	// ErrSerialization is returned when the user record cannot be encoded or decoded.
	ErrSerialization = session.ErrSerialization
	// ErrKeyNotFound is returned by a [KVStore] Get for a missing key.
	ErrKeyNotFound = kvstore.ErrNotFound
	// ErrRemoteRevoke wraps transport failures of the remote logout call.
	ErrRemoteRevoke = errors.New("remote session revoke failed")
	// ErrSessionSave is returned by Login and UpdateUser when the session could not be persisted.
	ErrSessionSave = errors.New("session save failed")
	// ErrSessionClear is returned by Logout when persisted keys could not be removed.
	// The in-memory session is already reset when it is returned.
	ErrSessionClear = errors.New("session clear failed")
	// ErrNotAuthenticated is returned by UpdateUser without an authenticated session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrInvalidUser is returned when a nil user is passed to Login or UpdateUser.
	ErrInvalidUser = errors.New("invalid user")
	// ErrManagerNotReady is returned when the caller's context ends while waiting for
	// the initial load or for a serialized mutation slot.
	ErrManagerNotReady = errors.New("session manager not ready")
	// ErrManagerClosed is returned by Login and UpdateUser after Close.
	ErrManagerClosed = errors.New("session manager closed")
)
