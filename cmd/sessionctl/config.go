package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML document read from --config. Flags override it.
type fileConfig struct {
	Store       storeConfig         `yaml:"store"`
	Encryption  encryptionConfig    `yaml:"encryption"`
	Storage     storageConfig       `yaml:"storage"`
	Remote      remoteConfig        `yaml:"remote"`
	LoadTimeout time.Duration       `yaml:"load_timeout"`
	Permissions []string            `yaml:"permissions"`
	Roles       map[string][]string `yaml:"roles"`
	Audit       bool                `yaml:"audit"`
	Listen      string              `yaml:"listen"`
}

type storeConfig struct {
	Kind        string `yaml:"kind"` // file | redis | memory
	Path        string `yaml:"path"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisPrefix string `yaml:"redis_prefix"`
}

type encryptionConfig struct {
	Salt          string `yaml:"salt"` // base64, from `sessionctl keygen`
	PassphraseEnv string `yaml:"passphrase_env"`
}

type storageConfig struct {
	Encoding        string `yaml:"encoding"`
	UserKey         string `yaml:"user_key"`
	AccessTokenKey  string `yaml:"access_token_key"`
	RefreshTokenKey string `yaml:"refresh_token_key"`
}

type remoteConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

const defaultPassphraseEnv = "SESSIONCTL_PASSPHRASE"

func defaultFileConfig() fileConfig {
	path := "session.json"
	if dir, err := os.UserConfigDir(); err == nil {
		path = filepath.Join(dir, "sessionctl", "session.json")
	}
	return fileConfig{
		Store: storeConfig{
			Kind:        "file",
			Path:        path,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "sessionctl",
		},
		Encryption: encryptionConfig{
			PassphraseEnv: defaultPassphraseEnv,
		},
		Remote: remoteConfig{
			Timeout: 10 * time.Second,
		},
		Listen: "127.0.0.1:7070",
	}
}

// loadFileConfig reads path over the defaults. An empty path returns the
// defaults.
func loadFileConfig(path string) (fileConfig, error) {
	cfg := defaultFileConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c fileConfig) validate() error {
	switch c.Store.Kind {
	case "file":
		if c.Store.Path == "" {
			return errors.New("store.path required for file store")
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			return errors.New("store.redis_addr required for redis store")
		}
	case "memory":
	default:
		return fmt.Errorf("store.kind %q must be file, redis or memory", c.Store.Kind)
	}
	if c.Remote.Timeout < 0 {
		return errors.New("remote.timeout must be >= 0")
	}
	return nil
}

// managerConfig maps the file config onto the library configuration.
func (c fileConfig) managerConfig() goSession.Config {
	cfg := goSession.DefaultConfig()
	if c.Storage.Encoding != "" {
		cfg.Storage.Encoding = c.Storage.Encoding
	}
	if c.Storage.UserKey != "" {
		cfg.Storage.UserKey = c.Storage.UserKey
	}
	if c.Storage.AccessTokenKey != "" {
		cfg.Storage.AccessTokenKey = c.Storage.AccessTokenKey
	}
	if c.Storage.RefreshTokenKey != "" {
		cfg.Storage.RefreshTokenKey = c.Storage.RefreshTokenKey
	}
	cfg.Session.LoadTimeout = c.LoadTimeout
	cfg.Audit.Enabled = c.Audit
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}

func (c encryptionConfig) salt() ([]byte, error) {
	if c.Salt == "" {
		return nil, nil
	}
	salt, err := base64.StdEncoding.DecodeString(c.Salt)
	if err != nil {
		return nil, fmt.Errorf("encryption.salt: %w", err)
	}
	return salt, nil
}
