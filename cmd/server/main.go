package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ariondjunior/tapajos/internal/infrastructure/config"
	"github.com/ariondjunior/tapajos/internal/infrastructure/logger"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	log.Logger = logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "tapajos",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = log.Logger.WithContext(ctx)

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := migrateDB(ctx, cfg, os.Args[2:]); err != nil {
			log.Error().Err(err).Msg("migration failed")
			stop()
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		stop()
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
