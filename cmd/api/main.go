package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/farxc/contaazul-sync/internal/app"
	"github.com/farxc/contaazul-sync/internal/config"
	"github.com/farxc/contaazul-sync/internal/store"
)

func main() {
	const component = "Main"

	cfg, err := config.Load()
	appLogger := app.NewLogger(cfg.Log)
	if err != nil {
		appLogger.Fatal(component, "Invalid configuration: error=%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal(component, "Startup failed: error=%v", err)
	}
	defer a.Close()

	api := &application{
		config: cfg,
		store:  a.Storage,
		runner: a.NewRunner(store.TriggerTypeAPI),
		window: a.DefaultWindow,
		log:    appLogger,
		ctx:    ctx,
	}

	if err := api.run(ctx, api.mount()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appLogger.Error(component, "Server stopped: error=%v", err)
		os.Exit(1)
	}
}
