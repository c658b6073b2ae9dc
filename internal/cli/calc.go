package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/acbay/co2survey/internal/footprint"
	"github.com/acbay/co2survey/internal/importer"
)

type calcResult struct {
	Inputs     footprint.Inputs    `json:"inputs"`
	Breakdown  footprint.Breakdown `json:"breakdown"`
	TotalCo2Kg float64             `json:"total_co2_kg"`
}

func newCalcCmd(a *app) *cobra.Command {
	var answers, factorsPath string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Compute the footprint for one set of answers",
		Long: `Normalizes one set of raw answers and prints the commute, flight and warm
water estimates. Factors come from --factors when given, otherwise from the
configured database.`,
		Example: `  co2survey calc --factors Emissionsfaktoren.xlsx \
    --answers '{"office_days":"3","main_transport":"Auto","car_type":"Benzin","distance":"10-20 km"}'

  # answers from a file or stdin
  co2survey calc --answers @answers.json
  cat answers.json | co2survey calc --answers -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := readAnswers(answers, cmd.InOrStdin())
			if err != nil {
				return err
			}
			factors, err := a.loadFactors(cmd.Context(), factorsPath)
			if err != nil {
				return err
			}
			in := footprint.NormalizeAndMap(raw)
			b := footprint.Compute(in, factors)
			res := calcResult{Inputs: in, Breakdown: b, TotalCo2Kg: b.Total()}

			out := cmd.OutOrStdout()
			if asJSON || !isTerminal(out) {
				return writeJSON(out, res)
			}
			return printBreakdown(out, res)
		},
	}
	cmd.Flags().StringVar(&answers, "answers", "", "answers as JSON, @file, or - for stdin")
	cmd.Flags().StringVar(&factorsPath, "factors", "", "factor workbook (xlsx or csv) instead of the database")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON even on a terminal")
	_ = cmd.MarkFlagRequired("answers")
	return cmd
}

func readAnswers(arg string, stdin io.Reader) (footprint.RawAnswers, error) {
	var raw footprint.RawAnswers
	var data []byte
	var err error
	switch {
	case arg == "-":
		data, err = io.ReadAll(stdin)
	case strings.HasPrefix(arg, "@"):
		data, err = os.ReadFile(strings.TrimPrefix(arg, "@"))
	default:
		data = []byte(arg)
	}
	if err != nil {
		return raw, fmt.Errorf("read answers: %w", err)
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return raw, fmt.Errorf("parse answers: %w", err)
	}
	return raw, nil
}

func (a *app) loadFactors(ctx context.Context, path string) ([]footprint.EmissionFactor, error) {
	if path != "" {
		wb, err := openWorkbook(path, "")
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer wb.Close()
		rows, warnings, err := importer.ReadFactors(wb)
		if err != nil {
			return nil, err
		}
		for _, w := range warnings {
			a.log.Debug().Str("warning", w).Msg("factor workbook")
		}
		out := make([]footprint.EmissionFactor, 0, len(rows))
		for _, r := range rows {
			out = append(out, r.EmissionFactor)
		}
		return out, nil
	}
	if a.cfg.UsesMemory() {
		a.log.Warn().Msg("no --factors and no database configured; every estimate is 0")
		return nil, nil
	}
	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	svc, _ := a.newServices(store)
	return svc.Factors.Current(ctx)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printBreakdown(w io.Writer, res calcResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "main transport\t%s\n", res.Inputs.MainTransport)
	fmt.Fprintf(tw, "office days / week\t%d\n", res.Inputs.OfficeDaysPerWeek)
	fmt.Fprintf(tw, "commute distance\t%g km\n", res.Inputs.CommuteDistanceKm)
	fmt.Fprintf(tw, "commute\t%.2f kg\n", res.Breakdown.CommuteKg)
	fmt.Fprintf(tw, "flights\t%.2f kg\n", res.Breakdown.FlightKg)
	fmt.Fprintf(tw, "warm water\t%.2f kg\n", res.Breakdown.WarmWaterKg)
	fmt.Fprintf(tw, "total\t%.2f kg CO2 / year\n", res.TotalCo2Kg)
	return tw.Flush()
}
