package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stakedo/stakedo/internal/app/engine"
	"github.com/stakedo/stakedo/internal/daemon"
)

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(ledgerCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Most recent N records (default: config display_limit)")
}

// ─── history ────────────────────────────────────────────────────────────────

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the audit history",
	Long: `Show the most recent audit records, oldest first. The history is
rotated automatically every Monday by the sweep.`,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	return withEngine(func(e *engine.Engine, cfg daemon.Config) error {
		limit := historyLimit
		if limit <= 0 {
			limit = cfg.History.DisplayLimit
		}
		entries, err := e.History(limit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(os.Stdout, "No history.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tEVENT\tDESCRIPTION\tAMOUNT")
		for _, h := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%+.2f\n",
				h.Timestamp.Format("Jan 2 15:04"), h.Event, h.Description, h.Amount)
		}
		return w.Flush()
	})
}

// ─── ledger ─────────────────────────────────────────────────────────────────

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Show the full money ledger",
	RunE:  runLedger,
}

func runLedger(cmd *cobra.Command, args []string) error {
	return withEngine(func(e *engine.Engine, _ daemon.Config) error {
		entries, err := e.LedgerEntries()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(os.Stdout, "Ledger is empty.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tTYPE\tDESCRIPTION\tAMOUNT\tBALANCE")
		for _, le := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%+.2f\t%.2f\n",
				le.Timestamp.Format("Jan 2 15:04"), le.Type, le.Description, le.Amount, le.Balance)
		}
		return w.Flush()
	})
}
