package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/metrics/export/prometheus"
	"github.com/MrEthical07/goSession/middleware"
	"github.com/spf13/cobra"
)

func (a *app) serveCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"watch"},
		Short:   "Serve the session on a local HTTP port and print every transition",
		Long: `serve keeps a manager open and exposes it to local tools:

  GET  /session                       current snapshot (401 while logged out)
  GET  /can?resource=R&action=A        permission check (403 when denied)
  POST /logout                        end the session
  GET  /metrics                       Prometheus metrics

Each published snapshot is printed to stdout until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen == "" {
				listen = a.cfg.Listen
			}
			m, closeFn, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			ln, err := net.Listen("tcp", listen)
			if err != nil {
				return err
			}
			a.logger.Info("serving session", slog.String("addr", ln.Addr().String()))
			return a.serve(cmd.Context(), m, ln, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config, 127.0.0.1:7070)")
	return cmd
}

// serve runs until ctx ends, then shuts the server down.
func (a *app) serve(ctx context.Context, m *goSession.Manager, ln net.Listener, out io.Writer) error {
	srv := &http.Server{
		Handler:           a.routes(m),
		ReadHeaderTimeout: 5 * time.Second,
	}

	sub := m.Subscribe()
	defer sub.Close()
	go func() {
		for s := range sub.C() {
			_ = a.printTransition(out, m, s)
		}
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *app) printTransition(w io.Writer, m *goSession.Manager, s goSession.Session) error {
	if a.jsonOut {
		return json.NewEncoder(w).Encode(viewOf(m, s))
	}
	user := "-"
	if s.User != nil {
		user = s.User.ID
	}
	_, err := fmt.Fprintf(w, "v%d %s user=%s\n", s.Version, s.State, user)
	return err
}

func (a *app) routes(m *goSession.Manager) http.Handler {
	mux := http.NewServeMux()
	authed := middleware.RequireSession(m)

	mux.Handle("GET /session", authed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, _ := middleware.SessionFromContext(r.Context())
		writeJSON(w, http.StatusOK, viewOf(m, s))
	})))

	mux.Handle("GET /can", authed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resource, action := r.URL.Query().Get("resource"), r.URL.Query().Get("action")
		if resource == "" || action == "" {
			http.Error(w, "resource and action required", http.StatusBadRequest)
			return
		}
		middleware.RequirePermission(m, resource, action)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]bool{"allowed": true})
		})).ServeHTTP(w, r)
	})))

	mux.HandleFunc("POST /logout", func(w http.ResponseWriter, r *http.Request) {
		err := m.Logout(goSession.WithOrigin(r.Context(), "sessionctl serve"))
		status := http.StatusOK
		body := map[string]any{"success": err == nil}
		if err != nil {
			status = http.StatusInternalServerError
			body["error"] = err.Error()
		}
		writeJSON(w, status, body)
	})

	mux.Handle("GET /metrics", prometheus.NewPrometheusExporter(m).Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
