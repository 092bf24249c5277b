package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/kvstore"
	"github.com/redis/go-redis/v9"
)

// openStore builds the key-value store named by cfg, wrapped in encryption
// when a passphrase is present in the environment. The returned cleanup
// releases backend connections.
func openStore(ctx context.Context, cfg fileConfig, logger *slog.Logger) (goSession.KVStore, func(), error) {
	var (
		store   goSession.KVStore
		cleanup = func() {}
	)

	switch cfg.Store.Kind {
	case "memory":
		store = kvstore.NewMemory()
	case "file":
		f, err := kvstore.OpenFile(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("opened session file", slog.String("path", f.Path()))
		store = f
	case "redis":
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{cfg.Store.RedisAddr},
		})
		r := kvstore.NewRedis(client, cfg.Store.RedisPrefix)
		if err := r.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		logger.Debug("connected to redis", slog.String("addr", cfg.Store.RedisAddr), slog.String("prefix", cfg.Store.RedisPrefix))
		store = r
		cleanup = func() { _ = client.Close() }
	default:
		return nil, nil, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
	}

	passphrase := os.Getenv(cfg.Encryption.PassphraseEnv)
	if cfg.Encryption.PassphraseEnv == "" || passphrase == "" {
		return store, cleanup, nil
	}

	salt, err := cfg.Encryption.salt()
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if salt == nil {
		cleanup()
		return nil, nil, errors.New("encryption.salt required when a passphrase is set; generate one with `sessionctl keygen`")
	}

	key, err := kvstore.DeriveKey([]byte(passphrase), salt, kvstore.DefaultKDFConfig())
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	encrypted, err := kvstore.NewEncrypted(store, key)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return encrypted, cleanup, nil
}
