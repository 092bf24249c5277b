package goSession

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goSession/session"
)

// Config holds every tunable of the [Manager].
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	Storage    StorageConfig
	Session    SessionConfig
	Permission PermissionConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageConfig names the three persisted keys and the user record encoding.
type StorageConfig struct {
	UserKey         string
	AccessTokenKey  string
	RefreshTokenKey string
	Encoding        string // "json" (default) or "cbor"
}

func (c StorageConfig) keys() session.Keys {
	return session.Keys{
		User:         c.UserKey,
		AccessToken:  c.AccessTokenKey,
		RefreshToken: c.RefreshTokenKey,
	}
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls how mutating operations are scheduled.
type SessionConfig struct {
	// SerializeMutations runs Login, Logout and UpdateUser one at a time.
	// When false, concurrent operations interleave and the last one to finish
	// writing wins.
	SerializeMutations bool
	// LoadTimeout bounds the initial load. Zero means unbounded.
	LoadTimeout time.Duration
}

/*
====================================
PERMISSION CONFIG
====================================
*/

// PermissionConfig sizes the role bitmasks.
type PermissionConfig struct {
	MaxBits         int  // 64, 128, 256, 512 (hard cap)
	RootBitReserved bool // if true, highest bit grants every permission
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters and latency histograms.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	keys := session.DefaultKeys()
	return Config{
		Storage: StorageConfig{
			UserKey:         keys.User,
			AccessTokenKey:  keys.AccessToken,
			RefreshTokenKey: keys.RefreshToken,
			Encoding:        session.EncodingJSON,
		},
		Session: SessionConfig{
			SerializeMutations: true,
			LoadTimeout:        0,
		},
		Permission: PermissionConfig{
			MaxBits:         64,
			RootBitReserved: true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// DefaultConfig returns the configuration [New] starts from.
func DefaultConfig() Config {
	return defaultConfig()
}

func cloneConfig(cfg Config) Config {
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate rejects configurations the Manager cannot run with.
func (c *Config) Validate() error {
	// Storage
	if err := c.Storage.keys().Validate(); err != nil {
		return fmt.Errorf("Storage: %w", err)
	}
	if c.Storage.Encoding != session.EncodingJSON && c.Storage.Encoding != session.EncodingCBOR {
		return errors.New("Storage Encoding must be 'json' or 'cbor'")
	}

	// Session
	if c.Session.LoadTimeout < 0 {
		return errors.New("Session LoadTimeout must be >= 0")
	}

	// Permission
	switch c.Permission.MaxBits {
	case 64, 128, 256, 512:
	default:
		return errors.New("Permission MaxBits must be 64, 128, 256, or 512")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when Audit is enabled")
	}

	return nil
}
