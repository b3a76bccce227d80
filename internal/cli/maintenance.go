package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stakedo/stakedo/internal/app/engine"
	"github.com/stakedo/stakedo/internal/daemon"
)

var (
	compactRetainDays int
	purgeSaveBalance  bool
	purgeHistoryOnly  bool
)

func init() {
	rootCmd.AddCommand(compactCmd)
	rootCmd.AddCommand(purgeCmd)

	compactCmd.Flags().IntVar(&compactRetainDays, "retain-days", 30, "Keep ledger entries newer than this many days")
	purgeCmd.Flags().BoolVar(&purgeSaveBalance, "save-balance", true, "Carry the current balance forward as a snapshot")
	purgeCmd.Flags().BoolVar(&purgeHistoryOnly, "history-only", false, "Purge only the audit history")
}

// ─── compact ────────────────────────────────────────────────────────────────

var compactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Collapse old ledger entries into a snapshot",
	Long: `Collapse ledger entries older than the retention period into a single
snapshot entry. The balance is preserved exactly.`,
	RunE: runCompact,
}

func runCompact(cmd *cobra.Command, args []string) error {
	if compactRetainDays <= 0 {
		return fmt.Errorf("--retain-days must be positive")
	}
	return withEngine(func(e *engine.Engine, _ daemon.Config) error {
		if err := e.CompactLedger(compactRetainDays); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Ledger compacted. Balance: %.2f\n", e.Balance())
		return nil
	})
}

// ─── purge ──────────────────────────────────────────────────────────────────

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete tasks and logs",
	Long: `Delete all tasks and the audit history. By default the ledger is
replaced by a single snapshot carrying the current balance; pass
--save-balance=false to reset the balance to zero as well.`,
	RunE: runPurge,
}

func runPurge(cmd *cobra.Command, args []string) error {
	return withEngine(func(e *engine.Engine, _ daemon.Config) error {
		if purgeHistoryOnly {
			if err := e.PurgeHistory(); err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, "History purged.")
			return nil
		}
		if err := e.PurgeData(purgeSaveBalance); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Data purged. Balance: %.2f\n", e.Balance())
		return nil
	})
}
