package cli

import (
	"github.com/spf13/cobra"

	"github.com/acbay/co2survey/internal/db"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Long: `Applies the schema for the configured driver. Migrations are idempotent and
also run on every serve; this command is for deploy pipelines that migrate
ahead of rollout. Files in db.migrations_dir/<driver> replace the built-in set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Ping(cmd.Context()); err != nil {
				return err
			}
			driver, _ := db.ParseDriver(a.cfg.DB.Driver, a.cfg.DB.DSN)
			cmd.Printf("migrations applied (%s)\n", driver)
			return nil
		},
	}
}
