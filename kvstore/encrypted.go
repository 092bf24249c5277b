package kvstore

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the symmetric key length accepted by [NewEncrypted].
const KeySize = chacha20poly1305.KeySize

// encryptedVersion prefixes every sealed value and is bound as additional
// data, so a tampered version byte fails authentication.
const encryptedVersion byte = 0x01

// ErrCorrupt is returned when a stored value cannot be decoded or fails
// authentication.
var ErrCorrupt = errors.New("kvstore: encrypted value corrupt")

// Encrypted seals values with XChaCha20-Poly1305 before handing them to an
// inner [Store]. The key name is part of the additional data, so a value
// copied under another key does not open.
type Encrypted struct {
	inner Store
	aead  cipher.AEAD
}

// NewEncrypted wraps inner with a [KeySize]-byte key.
func NewEncrypted(inner Store, key []byte) (*Encrypted, error) {
	if inner == nil {
		return nil, errors.New("kvstore: inner store required")
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("kvstore: encryption key must be %d bytes", KeySize)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("kvstore: init cipher: %w", err)
	}
	return &Encrypted{inner: inner, aead: aead}, nil
}

func additionalData(key string) []byte {
	ad := make([]byte, 0, 1+len(key))
	ad = append(ad, encryptedVersion)
	return append(ad, key...)
}

func (e *Encrypted) seal(key, value string) (string, error) {
	nonce := make([]byte, e.aead.NonceSize(), 1+e.aead.NonceSize()+len(value)+e.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("kvstore: generate nonce: %w", err)
	}

	out := make([]byte, 0, cap(nonce))
	out = append(out, encryptedVersion)
	out = append(out, nonce...)
	out = e.aead.Seal(out, nonce, []byte(value), additionalData(key))
	return base64.RawStdEncoding.EncodeToString(out), nil
}

func (e *Encrypted) open(key, sealed string) (string, error) {
	raw, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	nonceSize := e.aead.NonceSize()
	if len(raw) < 1+nonceSize+e.aead.Overhead() {
		return "", fmt.Errorf("%w: value too short", ErrCorrupt)
	}
	if raw[0] != encryptedVersion {
		return "", fmt.Errorf("%w: unsupported version %d", ErrCorrupt, raw[0])
	}

	nonce := raw[1 : 1+nonceSize]
	plain, err := e.aead.Open(nil, nonce, raw[1+nonceSize:], additionalData(key))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return string(plain), nil
}

func (e *Encrypted) Get(ctx context.Context, key string) (string, error) {
	sealed, err := e.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return e.open(key, sealed)
}

func (e *Encrypted) Set(ctx context.Context, key, value string) error {
	sealed, err := e.seal(key, value)
	if err != nil {
		return err
	}
	return e.inner.Set(ctx, key, sealed)
}

func (e *Encrypted) Remove(ctx context.Context, key string) error {
	return e.inner.Remove(ctx, key)
}
