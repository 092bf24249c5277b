package kvstore

import (
	"crypto/rand"
	"errors"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	minKDFMemoryKB    uint32 = 8 * 1024
	minKDFTime        uint32 = 1
	minKDFParallelism uint8  = 1
	minSaltLength            = 16
	minPassphrase            = 10
)

// KDFConfig holds argon2id parameters for [DeriveKey].
type KDFConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
}

// DefaultKDFConfig returns interactive-grade argon2id parameters.
func DefaultKDFConfig() KDFConfig {
	return KDFConfig{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
	}
}

func (c KDFConfig) validate() error {
	if c.Memory < minKDFMemoryKB {
		return errors.New("kvstore: argon2 memory must be >= 8192 KB")
	}
	if c.Time < minKDFTime {
		return errors.New("kvstore: argon2 time must be >= 1")
	}
	if c.Parallelism < minKDFParallelism {
		return errors.New("kvstore: argon2 parallelism must be >= 1")
	}
	return nil
}

// NewSalt returns a random salt suitable for [DeriveKey].
func NewSalt() ([]byte, error) {
	salt := make([]byte, minSaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// DeriveKey stretches a passphrase into a [KeySize]-byte key with argon2id.
// The salt must be stored alongside the data; it is not secret.
func DeriveKey(passphrase, salt []byte, cfg KDFConfig) ([]byte, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	// Passphrase bytes are used exactly as provided (no Unicode normalization).
	if len(passphrase) < minPassphrase {
		return nil, errors.New("kvstore: passphrase must be at least 10 bytes")
	}
	if len(salt) < minSaltLength {
		return nil, errors.New("kvstore: salt must be at least 16 bytes")
	}
	return argon2.IDKey(passphrase, salt, cfg.Time, cfg.Memory, cfg.Parallelism, KeySize), nil
}
