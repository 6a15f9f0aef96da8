package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kawahiro39/online-status-trygreen/app/onlinestatus"
	"github.com/kawahiro39/online-status-trygreen/core/config"
	"github.com/kawahiro39/online-status-trygreen/core/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg onlinestatus.Config
	config.MustLoad(&cfg) // panic on error

	log := onlinestatus.NewLogger(cfg)

	// Connects to NATS here when NATS_URL is set
	app, err := onlinestatus.NewApp(cfg, onlinestatus.WithLogger(log))
	if err != nil {
		log.Error("Failed to initialize application", logger.Component("app"), logger.Error(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		log.Error("Application stopped with error", logger.Component("app"), logger.Error(err))
		os.Exit(1)
	}
}
