package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stakedo/stakedo/internal/app/engine"
	"github.com/stakedo/stakedo/internal/daemon"
	"github.com/stakedo/stakedo/internal/domain"
)

var revertRestore bool

func init() {
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(purchaseCmd)
	rootCmd.AddCommand(refundCmd)
	rootCmd.AddCommand(revertCmd)
	revertCmd.AddCommand(revertCompletionCmd)
	revertCmd.AddCommand(revertForfeitCmd)

	revertCompletionCmd.Flags().BoolVar(&revertRestore, "restore", false, "Recreate the task as pending with a fresh due date")
	revertForfeitCmd.Flags().BoolVar(&revertRestore, "restore", false, "Recreate the task as pending with a fresh due date")
}

// ─── balance ────────────────────────────────────────────────────────────────

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the current balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(e *engine.Engine, _ daemon.Config) error {
			fmt.Fprintf(os.Stdout, "%.2f\n", e.Balance())
			return nil
		})
	},
}

// ─── purchase ───────────────────────────────────────────────────────────────

var purchaseCmd = &cobra.Command{
	Use:   "purchase DESCRIPTION AMOUNT",
	Short: "Spend earnings on a reward",
	Args:  cobra.ExactArgs(2),
	RunE:  runPurchase,
}

func runPurchase(cmd *cobra.Command, args []string) error {
	amount, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[1], err)
	}
	return withEngine(func(e *engine.Engine, _ daemon.Config) error {
		if err := e.RecordPurchase(args[0], amount); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Purchase recorded. Balance: %.2f\n", e.Balance())
		return nil
	})
}

// ─── refund ─────────────────────────────────────────────────────────────────

var refundCmd = &cobra.Command{
	Use:   "refund DESCRIPTION AMOUNT",
	Short: "Refund a previously recorded purchase",
	Long: `Credit back a previously recorded purchase. The original purchase
record stays in the ledger; the refund is a compensating entry.`,
	Args: cobra.ExactArgs(2),
	RunE: runRefund,
}

func runRefund(cmd *cobra.Command, args []string) error {
	amount, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[1], err)
	}
	return withEngine(func(e *engine.Engine, _ daemon.Config) error {
		if err := e.RevertPurchase(args[0], amount); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Refund recorded. Balance: %.2f\n", e.Balance())
		return nil
	})
}

// ─── revert ─────────────────────────────────────────────────────────────────

var revertCmd = &cobra.Command{
	Use:   "revert",
	Short: "Reverse a completion or forfeiture",
}

var revertCompletionCmd = &cobra.Command{
	Use:   "completion TASK_ID DESCRIPTION BUY_IN PAYOUT",
	Short: "Reverse a completed task's payout",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRevert(args, func(e *engine.Engine, snap domain.TaskSnapshot) (*domain.Task, error) {
			return e.RevertCompletion(snap, revertRestore)
		})
	},
}

var revertForfeitCmd = &cobra.Command{
	Use:   "forfeit TASK_ID DESCRIPTION BUY_IN PAYOUT",
	Short: "Reverse a forfeited task's buy-in loss",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRevert(args, func(e *engine.Engine, snap domain.TaskSnapshot) (*domain.Task, error) {
			return e.RevertForfeit(snap, revertRestore)
		})
	},
}

func runRevert(args []string, fn func(*engine.Engine, domain.TaskSnapshot) (*domain.Task, error)) error {
	buyIn, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("invalid buy-in %q: %w", args[2], err)
	}
	payout, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return fmt.Errorf("invalid payout %q: %w", args[3], err)
	}
	snap := domain.TaskSnapshot{
		ID:          args[0],
		Description: args[1],
		BuyIn:       buyIn,
		Payout:      payout,
	}
	return withEngine(func(e *engine.Engine, _ daemon.Config) error {
		restored, err := fn(e, snap)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Reversal recorded. Balance: %.2f\n", e.Balance())
		if restored != nil {
			fmt.Fprintf(os.Stdout, "Task restored as %s", restored.ID)
			if restored.DueAt != nil {
				fmt.Fprintf(os.Stdout, ", due %s", restored.DueAt.Format("Mon Jan 2 15:04"))
			}
			fmt.Fprintln(os.Stdout)
		}
		return nil
	})
}
