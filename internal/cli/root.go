// Package cli wires the co2survey commands: the HTTP server, database
// migrations, spreadsheet imports and one-off calculations.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/acbay/co2survey/internal/api"
	"github.com/acbay/co2survey/internal/config"
	"github.com/acbay/co2survey/internal/db"
	"github.com/acbay/co2survey/internal/logging"
	"github.com/acbay/co2survey/internal/middleware"
	"github.com/acbay/co2survey/internal/models"
	"github.com/acbay/co2survey/internal/services"
	"github.com/acbay/co2survey/internal/utils"
)

var _ api.Store = (*db.SQLStore)(nil)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	version string
	cfg     config.Config
	log     zerolog.Logger
}

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd(version string) *cobra.Command {
	a := &app{version: version, log: zerolog.Nop()}
	var cfgPath, level string

	cmd := &cobra.Command{
		Use:           "co2survey",
		Short:         "CO2 survey intake and footprint service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if level != "" {
				cfg.Log.Level = level
			}
			a.cfg = cfg
			a.log = logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", utils.SafeEnv("CO2_CONFIG", ""), "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&level, "log-level", "", "log level override (debug, info, warn, error)")
	cmd.AddCommand(newServeCmd(a), newMigrateCmd(a), newImportCmd(a), newRecomputeCmd(a), newCalcCmd(a))
	return cmd
}

var errNeedsDatabase = errors.New("this command needs a database; set db.driver to sqlite or postgres")

// openStore returns the configured store. Migrations run as part of opening
// a SQL database.
func (a *app) openStore(ctx context.Context) (api.Store, error) {
	if a.cfg.UsesMemory() {
		return api.NewMemoryStore(), nil
	}
	driver, err := db.ParseDriver(a.cfg.DB.Driver, a.cfg.DB.DSN)
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(ctx, driver, a.cfg.DB.DSN, a.cfg.DB.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	store, err := db.NewSQLStore(conn, driver)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return store, nil
}

// openDatabase is openStore for commands whose effect would be lost in memory.
func (a *app) openDatabase(ctx context.Context) (api.Store, error) {
	if a.cfg.UsesMemory() {
		return nil, errNeedsDatabase
	}
	return a.openStore(ctx)
}

func (a *app) newServices(store api.Store) (*api.Services, *middleware.Authenticator) {
	authn := middleware.NewAuthenticator(a.cfg.Auth.JWTSecret)
	opts := services.AuthOptions{
		TokenTTL:           a.cfg.Auth.TokenTTL,
		SuperAdminEmail:    a.cfg.Auth.SuperAdminEmail,
		SuperAdminPassword: a.cfg.Auth.SuperAdminPassword,
	}
	return api.NewServices(store, authn, opts, a.cfg.Auth.SuperAdminEmail, a.log), authn
}

// systemActor acts as the bootstrap super admin, creating it if needed, so
// command line imports are attributed and owned like HTTP imports.
func (a *app) systemActor(ctx context.Context, store api.Store, svc *api.Services) (services.Actor, error) {
	if _, err := svc.Auth.EnsureInitialAdmin(ctx); err != nil {
		return services.Actor{}, fmt.Errorf("bootstrap admin: %w", err)
	}
	u, err := store.FindUserByEmail(ctx, a.cfg.Auth.SuperAdminEmail)
	if err != nil {
		return services.Actor{}, err
	}
	if u == nil || !u.Role.IsAdmin() {
		return services.Actor{ID: "cli", Role: models.RoleSuperAdmin}, nil
	}
	return services.Actor{ID: u.ID, Role: u.Role}, nil
}
