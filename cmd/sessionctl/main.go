package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/remote"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// errDenied makes `can` exit with status 1 without an error message.
var errDenied = errors.New("permission denied")

type app struct {
	configPath string
	storeKind  string
	storePath  string
	remoteURL  string
	verbose    bool
	jsonOut    bool

	stdout io.Writer
	stderr io.Writer

	cfg    fileConfig
	logger *slog.Logger
	runID  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{stdout: os.Stdout, stderr: os.Stderr}
	err := a.rootCmd().ExecuteContext(ctx)
	switch {
	case err == nil:
	case errors.Is(err, errDenied):
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sessionctl",
		Short: "Inspect and drive a persisted client session",
		Long: `sessionctl loads the persisted session from a file, Redis or memory
store and runs login, logout and user updates against it, the same way an
application embedding the session manager would.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	flags.StringVar(&a.storeKind, "store", "", "store kind: file, redis or memory (overrides config)")
	flags.StringVar(&a.storePath, "file", "", "session file path (overrides config)")
	flags.StringVar(&a.remoteURL, "remote", "", "session service base URL used to revoke on logout (overrides config)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log debug diagnostics to stderr")
	flags.BoolVar(&a.jsonOut, "json", false, "print JSON instead of text")

	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.AddCommand(
		a.statusCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.updateUserCmd(),
		a.canCmd(),
		a.serveCmd(),
		a.keygenCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := loadFileConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.storeKind != "" {
		cfg.Store.Kind = a.storeKind
	}
	if a.storePath != "" {
		cfg.Store.Path = a.storePath
	}
	if a.remoteURL != "" {
		cfg.Remote.BaseURL = a.remoteURL
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.runID = uuid.NewString()
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level})).
		With(slog.String("run_id", a.runID))
	return nil
}

// open builds a manager over the configured store and waits for the initial
// load. The returned close func releases everything.
func (a *app) open(ctx context.Context) (*goSession.Manager, func(), error) {
	store, closeStore, err := openStore(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, nil, err
	}

	b := goSession.New().
		WithConfig(a.cfg.managerConfig()).
		WithStore(store).
		WithPermissions(a.cfg.Permissions).
		WithRoles(a.cfg.Roles).
		WithLogger(a.logger)
	if a.cfg.Audit {
		b.WithAuditSink(goSession.NewSlogSink(a.logger.With(slog.String("stream", "audit"))))
	}
	if a.cfg.Remote.BaseURL != "" {
		client, err := remote.NewClient(remote.ClientConfig{
			BaseURL:    a.cfg.Remote.BaseURL,
			HTTPClient: &http.Client{Timeout: a.cfg.Remote.Timeout},
			Logger:     a.logger,
		})
		if err != nil {
			closeStore()
			return nil, nil, err
		}
		b.WithRemote(client)
	}

	m, err := b.Build()
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	if err := m.WaitLoaded(ctx); err != nil {
		m.Close()
		closeStore()
		return nil, nil, err
	}

	return m, func() {
		m.Close()
		closeStore()
	}, nil
}

func (a *app) origin(ctx context.Context, command string) context.Context {
	return goSession.WithOrigin(ctx, "sessionctl "+command)
}
