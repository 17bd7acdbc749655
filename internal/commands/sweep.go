package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/services"
)

func newSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Count due recurring credit charges against their cards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			manager, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer manager.Close()

			return runSweep(cmd.Context(), services.NewInvoiceService(manager.DB()), time.Now(), cmd.OutOrStdout())
		},
	}
}

func runSweep(ctx context.Context, invoices services.InvoiceServicer, at time.Time, out io.Writer) error {
	n, err := invoices.ActivateDueOccurrences(ctx, at)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}
	_, err = fmt.Fprintf(out, "activated %d occurrence(s)\n", n)
	return err
}
