package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/acbay/co2survey/internal/api"
	"github.com/acbay/co2survey/internal/importer"
	"github.com/acbay/co2survey/internal/services"
)

type importEnv struct {
	svc   *api.Services
	actor services.Actor
	wb    importer.Workbook
}

func newImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load emission factors or survey answers from a spreadsheet",
	}
	cmd.AddCommand(newImportFactorsCmd(a), newImportSurveysCmd(a))
	return cmd
}

func newImportFactorsCmd(a *app) *cobra.Command {
	var sheet string
	cmd := &cobra.Command{
		Use:   "factors <file>",
		Short: "Replace the emission factor table and recompute every survey",
		Example: `  co2survey import factors Emissionsfaktoren.xlsx
  co2survey import factors pendelweg.csv --sheet Pendelweg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withImport(cmd, args[0], sheet, func(ctx context.Context, env importEnv) (any, error) {
				return env.svc.Imports.ImportFactors(ctx, env.actor, env.wb)
			})
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet name for CSV input (default: file name)")
	return cmd
}

func newImportSurveysCmd(a *app) *cobra.Command {
	var sheet string
	cmd := &cobra.Command{
		Use:   "surveys <file>",
		Short: "Replace the imported survey answers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withImport(cmd, args[0], sheet, func(ctx context.Context, env importEnv) (any, error) {
				return env.svc.Imports.ImportSurveys(ctx, env.actor, env.wb)
			})
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet name for CSV input (default: file name)")
	return cmd
}

// openWorkbook opens path as XLSX or CSV. CSV input is a single sheet named
// sheet, or the file name without extension.
func openWorkbook(path, sheet string) (importer.Workbook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if sheet == "" {
		base := filepath.Base(path)
		sheet = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return importer.Open(path, f, sheet)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) withImport(cmd *cobra.Command, path, sheet string, run func(context.Context, importEnv) (any, error)) error {
	ctx := cmd.Context()
	wb, err := openWorkbook(path, sheet)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer wb.Close()

	store, err := a.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	svc, _ := a.newServices(store)
	actor, err := a.systemActor(ctx, store, svc)
	if err != nil {
		return err
	}
	res, err := run(ctx, importEnv{svc: svc, actor: actor, wb: wb})
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), res)
}
