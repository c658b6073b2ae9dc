package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/acbay/co2survey/internal/api"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Example: `  # Serve on the configured address with an in-memory store
  co2survey serve

  # Serve from SQLite on another port
  CO2_DB_DRIVER=sqlite CO2_DB_DSN=file:co2.db co2survey serve --addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides config")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	if a.cfg.UsesMemory() {
		a.log.Warn().Msg("using the in-memory store; data is lost on exit")
	}

	svc, authn := a.newServices(store)
	if a.cfg.Auth.BootstrapAdmin {
		admin, err := svc.Auth.EnsureInitialAdmin(ctx)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if admin != nil {
			a.log.Info().Str("email", admin.Email).Msg("bootstrap super admin ready")
		}
	}

	router := api.NewRouter(store, authn, svc, a.log, api.Options{
		Version:     a.version,
		StaticDir:   a.cfg.StaticDir,
		CORSOrigins: a.cfg.CORSOrigins,
	})
	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", srv.Addr).Str("version", a.version).Msg("co2survey listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	a.log.Info().Dur("grace", a.cfg.ShutdownGrace).Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
