package goSession

import (
	"errors"
	"log/slog"

	"github.com/MrEthical07/goSession/permission"
	"github.com/MrEthical07/goSession/session"
)

// Builder assembles a [Manager]. A Builder is single-use.
type Builder struct {
	config Config
	store  KVStore
	remote RemoteSessionService

	permissions []string
	roles       map[string][]string

	auditSink AuditSink
	logger    *slog.Logger

	built bool
}

// New returns a Builder starting from the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the persistent key-value store. Required.
func (b *Builder) WithStore(store KVStore) *Builder {
	b.store = store
	return b
}

// WithRemote sets the remote session service used by Logout. Optional; without
// it the remote revoke step is skipped.
func (b *Builder) WithRemote(remote RemoteSessionService) *Builder {
	b.remote = remote
	return b
}

// WithPermissions registers the permission names ("resource:action") roles may
// refer to.
func (b *Builder) WithPermissions(perms []string) *Builder {
	b.permissions = perms
	return b
}

// WithRoles sets the role table. Each role maps to permission names
// registered with WithPermissions, or to "*" for every permission.
func (b *Builder) WithRoles(r map[string][]string) *Builder {
	b.roles = r
	return b
}

// WithAuditSink sets the sink receiving transition events. Events are only
// dispatched when Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the diagnostics logger. The default discards everything.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, creates the Manager and starts the
// initial load in the background. Use [Manager.Loaded] or
// [Manager.WaitLoaded] to wait for it.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.store == nil {
		return nil, errors.New("key-value store required")
	}

	// -------- PERMISSION TABLE --------
	evaluator, err := buildEvaluator(cfg.Permission, b.permissions, b.roles)
	if err != nil {
		return nil, err
	}

	// -------- SESSION STORE --------
	codec, err := session.NewCodec(cfg.Storage.Encoding)
	if err != nil {
		return nil, err
	}
	store := session.NewStore(b.store, cfg.Storage.keys(), codec)

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	m := newManager(cfg, store, b.remote, evaluator, logger, b.auditSink)
	m.start()

	b.built = true
	return m, nil
}

func buildEvaluator(cfg PermissionConfig, perms []string, roles map[string][]string) (*permission.Evaluator, error) {
	if len(perms) == 0 && len(roles) == 0 {
		return permission.NewEvaluator(nil, nil), nil
	}

	registry, err := permission.NewRegistry(cfg.MaxBits, cfg.RootBitReserved)
	if err != nil {
		return nil, err
	}
	for _, p := range perms {
		if _, err := registry.Register(p); err != nil {
			return nil, err
		}
	}
	registry.Freeze()

	roleManager := permission.NewRoleManager(registry)
	for roleName, permList := range roles {
		if err := roleManager.RegisterRole(roleName, permList); err != nil {
			return nil, err
		}
	}
	roleManager.Freeze()

	return permission.NewEvaluator(registry, roleManager), nil
}
