package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stakedo/stakedo/internal/app/engine"
	"github.com/stakedo/stakedo/internal/daemon"
)

func init() {
	rootCmd.AddCommand(taskCmd)
	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskCompleteCmd)
	taskCmd.AddCommand(taskDeleteCmd)
}

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage staked tasks",
}

// ─── task add ───────────────────────────────────────────────────────────────

var taskAddCmd = &cobra.Command{
	Use:   "add DESCRIPTION BUY_IN PAYOUT",
	Short: "Stake a new task",
	Long: `Stake a new task with a buy-in and a payout. Tasks can only be added
inside the daily creation window, and come due at the close of the next
day's window.`,
	Args: cobra.ExactArgs(3),
	RunE: runTaskAdd,
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	buyIn, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid buy-in %q: %w", args[1], err)
	}
	payout, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("invalid payout %q: %w", args[2], err)
	}
	return withEngine(func(e *engine.Engine, _ daemon.Config) error {
		task, err := e.Create(args[0], buyIn, payout)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Task staked: %s\n", task.Description)
		fmt.Fprintf(os.Stdout, "  id:      %s\n", task.ID)
		fmt.Fprintf(os.Stdout, "  buy-in:  %.2f\n", task.BuyIn)
		fmt.Fprintf(os.Stdout, "  payout:  %.2f\n", task.Payout)
		if task.DueAt != nil {
			fmt.Fprintf(os.Stdout, "  due:     %s\n", task.DueAt.Format("Mon Jan 2 15:04"))
		}
		return nil
	})
}

// ─── task list ──────────────────────────────────────────────────────────────

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active tasks",
	RunE:  runTaskList,
}

func runTaskList(cmd *cobra.Command, args []string) error {
	return withEngine(func(e *engine.Engine, _ daemon.Config) error {
		tasks := e.Tasks()
		if len(tasks) == 0 {
			fmt.Fprintln(os.Stdout, "No active tasks.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDESCRIPTION\tBUY-IN\tPAYOUT\tDUE")
		for _, t := range tasks {
			due := "-"
			if t.DueAt != nil {
				due = t.DueAt.Format("Mon Jan 2 15:04")
			}
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%s\n", t.ID, t.Description, t.BuyIn, t.Payout, due)
		}
		return w.Flush()
	})
}

// ─── task complete ──────────────────────────────────────────────────────────

var taskCompleteCmd = &cobra.Command{
	Use:   "complete TASK_ID",
	Short: "Complete a task and collect its payout",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskComplete,
}

func runTaskComplete(cmd *cobra.Command, args []string) error {
	return withEngine(func(e *engine.Engine, _ daemon.Config) error {
		if err := e.Complete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Task completed. Balance: %.2f\n", e.Balance())
		return nil
	})
}

// ─── task delete ────────────────────────────────────────────────────────────

var taskDeleteCmd = &cobra.Command{
	Use:   "delete TASK_ID",
	Short: "Delete a task",
	Long: `Delete a pending task. Deletion is free until the task's due window
closes; afterwards it costs half the buy-in.`,
	Args: cobra.ExactArgs(1),
	RunE: runTaskDelete,
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	return withEngine(func(e *engine.Engine, _ daemon.Config) error {
		penalty, err := e.Delete(args[0])
		if err != nil {
			return err
		}
		if penalty != 0 {
			fmt.Fprintf(os.Stdout, "Task deleted with penalty %.2f. Balance: %.2f\n", penalty, e.Balance())
		} else {
			fmt.Fprintf(os.Stdout, "Task deleted. Balance: %.2f\n", e.Balance())
		}
		return nil
	})
}
