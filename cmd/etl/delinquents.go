package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/farxc/contaazul-sync/internal/ingest"
)

func delinquentsCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "delinquents",
		Short: "Rebuild the inadimplentes snapshot",
		Long:  "Rebuild inadimplentes from unpaid receivables due within the last --days days.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			const component = "Delinquents"
			if days < 0 {
				return fmt.Errorf("--days must not be negative")
			}

			a := setup(cmd)
			defer a.Close()

			w := ingest.DefaultWindow(time.Now(), days, 0)
			n, err := a.Storage.Delinquents.Refresh(cmd.Context(), w.From, w.To)
			if err != nil {
				return err
			}
			a.Log.Info(component, "Snapshot rebuilt: from=%s to=%s rows=%d", w.From.Format(time.DateOnly), w.To.Format(time.DateOnly), n)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "How many days back to look for unpaid receivables")
	return cmd
}
