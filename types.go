package goSession

import (
	"context"
	"io"
	"log/slog"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/kvstore"
	"github.com/MrEthical07/goSession/session"
)

// State is the lifecycle position of the session.
type State uint8

const (
	// StateUninitialized is the state before Build starts the initial load.
	StateUninitialized State = iota
	// StateLoading is the state while persisted keys are being read.
	StateLoading
	// StateAuthenticated means a user and an access token are present.
	StateAuthenticated
	// StateUnauthenticated means no usable session is present.
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// User is the identity record held by the session.
type User = session.User

// Session is an immutable snapshot published by the [Manager]. Every value a
// caller receives is a private copy.
//
// IsAuthenticated is true exactly when User is non-nil and AccessToken is
// non-empty. Version increases by one for every published transition.
type Session struct {
	User            *User
	AccessToken     string
	RefreshToken    string
	IsAuthenticated bool
	IsLoading       bool
	State           State
	Version         uint64
}

func (s Session) clone() Session {
	out := s
	out.User = s.User.Clone()
	return out
}

func (s Session) record() session.Record {
	return session.Record{
		User:         s.User,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
	}
}

func authenticatedSession(rec session.Record) Session {
	if !rec.Complete() {
		return unauthenticatedSession()
	}
	return Session{
		User:            rec.User,
		AccessToken:     rec.AccessToken,
		RefreshToken:    rec.RefreshToken,
		IsAuthenticated: true,
		State:           StateAuthenticated,
	}
}

func unauthenticatedSession() Session {
	return Session{State: StateUnauthenticated}
}

// KVStore is the persistent string store backing the session. Get returns
// [ErrKeyNotFound] for a missing key; removing a missing key is not an error.
// Implementations live in kvstore/.
type KVStore = kvstore.Store

// RevokeResult is the answer of the remote session service. Success=false is a
// service-side rejection, distinct from a transport error.
type RevokeResult struct {
	Success bool
	Error   string
}

// RemoteSessionService revokes a refresh token on the server. Implementations
// bound the call with their own timeout. An HTTP client lives in remote/.
type RemoteSessionService interface {
	Logout(ctx context.Context, refreshToken string) (RevokeResult, error)
}

// AuditEvent is a structured record of one session transition.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the manager's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// SlogSink is an [AuditSink] that records events through a [slog.Logger].
type SlogSink = internalaudit.SlogSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewSlogSink creates a [SlogSink]. A nil logger selects [slog.Default].
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return internalaudit.NewSlogSink(logger)
}
