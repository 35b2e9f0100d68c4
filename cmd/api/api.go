package main

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/farxc/contaazul-sync/internal/config"
	"github.com/farxc/contaazul-sync/internal/ingest"
	"github.com/farxc/contaazul-sync/internal/logger"
	"github.com/farxc/contaazul-sync/internal/metrics"
	"github.com/farxc/contaazul-sync/internal/store"
)

// syncRunner runs entity syncs; *ingest.Runner implements it.
type syncRunner interface {
	Run(ctx context.Context, names []string, w ingest.Window) ingest.Report
}

type application struct {
	config config.Config
	store  *store.Storage
	runner syncRunner
	window func(now time.Time) ingest.Window
	log    *logger.Logger

	// ctx bounds background syncs; canceled on shutdown.
	ctx     context.Context
	syncMu  sync.Mutex
	syncing bool
	syncWG  sync.WaitGroup
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// Set a timeout value on the request context (ctx), that will signal
	// through ctx.Done() that the request has timed out and further
	// processing should be stopped.
	r.Use(middleware.Timeout(60 * time.Second))

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)
		r.Route("/customers", func(r chi.Router) {
			r.Get("/", app.handleListCustomers)
			r.Get("/delinquent", app.handleGetTopDelinquent)
			r.Get("/{cnpj}", app.handleGetCustomerSummary)
			r.Get("/{cnpj}/receivables", app.handleGetCustomerReceivables)
		})
		r.Route("/receivables", func(r chi.Router) {
			r.Get("/search", app.handleSearchReceivables)
			r.Get("/{id}", app.handleGetReceivable)
		})
		r.Route("/sync", func(r chi.Router) {
			r.Post("/", app.handleStartSync)
			r.Get("/history", app.handleGetSyncHistory)
		})
	})

	return r
}

func (app *application) run(ctx context.Context, mux http.Handler) error {
	const component = "Server"

	srv := &http.Server{
		Addr:         app.config.Addr,
		Handler:      mux,
		WriteTimeout: time.Second * 120,
		ReadTimeout:  time.Second * 40,
		IdleTimeout:  time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		app.log.Info(component, "Server started: addr=%s", app.config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.log.Info(component, "Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	app.syncWG.Wait()
	return err
}
