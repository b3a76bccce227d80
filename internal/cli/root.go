// Package cli implements the stakedo command tree. Every command loads the
// daemon config, opens the configured storage backend and drives the engine
// directly — the HTTP API is only started by `stakedo serve`.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/stakedo/stakedo/internal/app/engine"
	"github.com/stakedo/stakedo/internal/daemon"
	"github.com/stakedo/stakedo/internal/infra/jsonfile"
	"github.com/stakedo/stakedo/internal/infra/sqlite"
)

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.toml (default: $STAKEDO_HOME/config.toml)")
	rootCmd.AddCommand(statusCmd)
}

var rootCmd = &cobra.Command{
	Use:   "stakedo",
	Short: "Stake money on your tasks",
	Long: `Stakedo is a task-staking tool: each task carries a buy-in and a payout.
Tasks can only be created inside a daily creation window and come due at
the close of the next day's window. Complete a task to earn its payout;
let it lapse and the buy-in is forfeited. Every movement of money lands
in an append-only ledger, and every event in an audit history.`,
	SilenceUsage: true,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show balance, window state and active task count",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(e *engine.Engine, cfg daemon.Config) error {
			state := "closed"
			if e.InWindow() {
				state = "open"
			}
			cw := e.Settings().CreationWindow
			fmt.Fprintf(os.Stdout, "Balance:       %.2f\n", e.Balance())
			fmt.Fprintf(os.Stdout, "Window:        %s–%s (%s)\n", cw.Start, cw.End, state)
			fmt.Fprintf(os.Stdout, "Active tasks:  %d\n", len(e.Tasks()))
			fmt.Fprintf(os.Stdout, "Backend:       %s\n", cfg.Data.Backend)
			return nil
		})
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig resolves the config file, preferring the --config flag.
func loadConfig() (daemon.Config, error) {
	path := configPath
	if path == "" {
		path = daemon.ConfigPath()
	}
	return daemon.Load(path)
}

// openEngine builds an engine over the configured backend. The returned
// close function releases the backend (a no-op for the jsonl backend).
func openEngine(cfg daemon.Config) (*engine.Engine, func() error, error) {
	stores, closeFn, err := openStores(cfg)
	if err != nil {
		return nil, nil, err
	}
	e, err := engine.New(stores, nil)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return e, closeFn, nil
}

// openStores opens the storage backend named in the config.
func openStores(cfg daemon.Config) (engine.Stores, func() error, error) {
	switch cfg.Data.Backend {
	case "sqlite":
		db, err := sqlite.Open(filepath.Join(cfg.Data.Dir, "stakedo.db"))
		if err != nil {
			return engine.Stores{}, nil, fmt.Errorf("open sqlite backend: %w", err)
		}
		return engine.Stores{
			Settings: sqlite.NewSettingsStore(db),
			Tasks:    sqlite.NewTaskStore(db),
			Ledger:   sqlite.NewLedgerStore(db),
			History:  sqlite.NewHistoryStore(db),
		}, db.Close, nil
	case "jsonl", "":
		dir, err := jsonfile.Open(cfg.Data.Dir)
		if err != nil {
			return engine.Stores{}, nil, fmt.Errorf("open data directory: %w", err)
		}
		return engine.Stores{
			Settings: jsonfile.NewSettingsStore(dir),
			Tasks:    jsonfile.NewTaskStore(dir),
			Ledger:   jsonfile.NewLedgerStore(dir),
			History:  jsonfile.NewHistoryStore(dir),
		}, func() error { return nil }, nil
	default:
		return engine.Stores{}, nil, fmt.Errorf("unknown storage backend %q (want jsonl or sqlite)", cfg.Data.Backend)
	}
}

// withEngine loads the config, opens the engine, runs fn and closes the
// backend afterwards.
func withEngine(fn func(e *engine.Engine, cfg daemon.Config) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	e, closeFn, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(e, cfg)
}
