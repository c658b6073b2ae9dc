package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRecomputeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute",
		Short: "Re-price every stored survey against the current factors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			svc, _ := a.newServices(store)
			n, err := svc.Surveys.Recompute(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "recomputed %d surveys\n", n)
			return err
		},
	}
}
