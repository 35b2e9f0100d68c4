// Package app wires configuration, storage and the sync pipeline shared by
// the etl and api binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/farxc/contaazul-sync/internal/config"
	"github.com/farxc/contaazul-sync/internal/contaazul"
	"github.com/farxc/contaazul-sync/internal/db"
	"github.com/farxc/contaazul-sync/internal/ingest"
	"github.com/farxc/contaazul-sync/internal/logger"
	"github.com/farxc/contaazul-sync/internal/metrics"
	"github.com/farxc/contaazul-sync/internal/store"
)

type App struct {
	Config  config.Config
	Log     *logger.Logger
	DB      *sqlx.DB
	Storage *store.Storage
}

// New opens the connection pool and creates every table before returning.
func New(ctx context.Context, cfg config.Config, log *logger.Logger) (*App, error) {
	const component = "App"

	database, err := db.New(cfg.DB.Addr, cfg.DB.MaxOpenConns, cfg.DB.MaxIdleConns, cfg.DB.MaxIdleTime)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	log.Info(component, "Database connection pool established")

	storage := store.NewStorage(database)
	if err := storage.Migrate(ctx); err != nil {
		database.Close()
		return nil, err
	}

	metrics.Register()
	return &App{Config: cfg, Log: log, DB: database, Storage: storage}, nil
}

// NewLogger builds the process logger from the log settings.
func NewLogger(cfg config.LogConfig) *logger.Logger {
	return logger.New(logger.Config{Level: cfg.Level, Format: cfg.Format, Color: cfg.Color})
}

func (a *App) Close() error {
	return a.DB.Close()
}

// NewRunner assembles fetcher, syncer and runner. trigger is recorded with
// every run the runner starts.
func (a *App) NewRunner(trigger string) *ingest.Runner {
	client := contaazul.NewClient(a.Config.API.BaseURL, a.Config.API.AccessToken, a.Config.API.Timeout)
	fetcher := contaazul.NewFetcher(client, contaazul.Options{
		MaxRetries:  a.Config.Sync.MaxRetries,
		MinNewItems: a.Config.Sync.MinNewItems,
		MaxPages:    a.Config.Sync.MaxPages,
	}, a.Log)

	syncer := ingest.NewSyncer(fetcher, a.Storage.Upserts, a.Storage.SyncRuns, a.Log)
	syncer.Trigger = trigger
	return ingest.NewRunner(syncer, a.Log)
}

// DefaultWindow is the configured lookback/lookahead around now.
func (a *App) DefaultWindow(now time.Time) ingest.Window {
	return ingest.DefaultWindow(now, a.Config.Sync.LookbackDays, a.Config.Sync.LookaheadDays)
}
