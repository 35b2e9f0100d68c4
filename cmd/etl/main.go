package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/farxc/contaazul-sync/internal/app"
	"github.com/farxc/contaazul-sync/internal/config"
	"github.com/farxc/contaazul-sync/internal/ingest"
	"github.com/farxc/contaazul-sync/internal/logger"
)

var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "etl",
		Short:         "Conta Azul to PostgreSQL sync",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("loglevel", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")

	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(importCRMCmd())
	rootCmd.AddCommand(delinquentsCmd())
	return rootCmd
}

// setup loads the configuration and opens storage. An invalid configuration
// (a missing access token included) ends the process here.
func setup(cmd *cobra.Command) *app.App {
	const component = "Main"

	cfg, err := config.Load()
	if level, _ := cmd.Flags().GetString("loglevel"); level != "" {
		cfg.Log.Level = level
	}
	appLogger := app.NewLogger(cfg.Log)
	if err != nil {
		appLogger.Fatal(component, "Invalid configuration: error=%v", err)
	}

	a, err := app.New(cmd.Context(), cfg, appLogger)
	if err != nil {
		appLogger.Fatal(component, "Startup failed: error=%v", err)
	}
	return a
}

// parseWindow overrides the default window with --from / --to dates.
func parseWindow(def ingest.Window, from, to string) (ingest.Window, error) {
	w := def
	if from != "" {
		t, err := time.ParseInLocation(time.DateOnly, from, time.Local)
		if err != nil {
			return w, fmt.Errorf("invalid --from date %q: %w", from, err)
		}
		w.From = t
	}
	if to != "" {
		t, err := time.ParseInLocation(time.DateOnly, to, time.Local)
		if err != nil {
			return w, fmt.Errorf("invalid --to date %q: %w", to, err)
		}
		w.To = t
	}
	return w, nil
}

func logReport(log *logger.Logger, rep ingest.Report, started time.Time) {
	const component = "Main"
	log.Info(component, "Application completed: succeeded=%d failed=%d duration=%.2f seconds",
		rep.Summary.Succeeded, rep.Summary.Failed, time.Since(started).Seconds())
}
