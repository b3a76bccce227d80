package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stakedo/stakedo/internal/app/engine"
	"github.com/stakedo/stakedo/internal/daemon"
)

func init() {
	rootCmd.AddCommand(windowCmd)
	windowCmd.AddCommand(windowShowCmd)
	windowCmd.AddCommand(windowSetCmd)
}

var windowCmd = &cobra.Command{
	Use:   "window",
	Short: "Show or change the daily creation window",
}

var windowShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show today's creation window",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(e *engine.Engine, _ daemon.Config) error {
			cw := e.Settings().CreationWindow
			state := "closed"
			if e.InWindow() {
				state = "open"
			}
			win := e.WindowToday()
			fmt.Fprintf(os.Stdout, "Creation window: %s–%s (%s)\n", cw.Start, cw.End, state)
			fmt.Fprintf(os.Stdout, "Today: %s – %s\n",
				win.Start.Format("Mon Jan 2 15:04"), win.End.Format("Mon Jan 2 15:04"))
			return nil
		})
	},
}

var windowSetCmd = &cobra.Command{
	Use:   "set START END",
	Short: "Change the creation window times (HH:MM)",
	Long: `Change the daily creation window. An end at or before the start makes
the window cross midnight into the next day.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(e *engine.Engine, _ daemon.Config) error {
			if err := e.SetWindowTimes(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Creation window set to %s–%s\n", args[0], args[1])
			return nil
		})
	},
}
