// Command flowtask-devserver runs an in-memory FlowTask backend for local
// development and end-to-end tests of the client.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/flowtask/flowtask/internal/devserver"
	"github.com/flowtask/flowtask/internal/infrastructure/config"
	"github.com/flowtask/flowtask/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadDevServer(ctx)
	if err != nil {
		log := logger.Init(logger.Options{Level: "error", Fallback: zerolog.ErrorLevel})
		log.Fatal().Err(err).Msg("load configuration")
	}

	log := logger.Init(logger.Options{
		Level:    cfg.LogLevel,
		Fallback: zerolog.InfoLevel,
		Pretty:   cfg.Env != "production",
		Output:   os.Stdout,
	})

	if err := devserver.Run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("devserver stopped")
	}
}
