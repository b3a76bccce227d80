package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stakedo/stakedo/internal/api"
	"github.com/stakedo/stakedo/internal/app/engine"
	"github.com/stakedo/stakedo/internal/app/sweep"
	"github.com/stakedo/stakedo/internal/daemon"
	"github.com/stakedo/stakedo/internal/domain"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the stakedo daemon",
	Long: `Run the stakedo daemon: the HTTP API plus the periodic sweep that
forfeits overdue tasks and rotates the audit history on Mondays.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	e, closeFn, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	return serve(cmd.Context(), e, cfg)
}

func serve(ctx context.Context, e *engine.Engine, cfg daemon.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper := sweep.New(e, domain.ClockFunc(time.Now), sweep.Config{
		Interval:     cfg.SweepInterval(),
		StartupDelay: cfg.SweepStartupDelay(),
	})
	go sweeper.Run(ctx)

	server := api.NewServer(e, cfg.History.DisplayLimit)
	if cfg.API.Metrics {
		server.EnableMetrics()
	}
	httpServer := &http.Server{
		Addr:    cfg.Addr(),
		Handler: server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[daemon] listening on %s (backend=%s)", cfg.Addr(), cfg.Data.Backend)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Printf("[daemon] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
