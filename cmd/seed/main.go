package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/logx"
	"storefront/internal/repository/slot"
	"storefront/internal/seed"
)

func main() {
	var sessionID string
	flag.StringVar(&sessionID, "session", "", "Client session id to seed (a UUID)")
	flag.Parse()

	if _, err := uuid.Parse(sessionID); err != nil {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger := logx.Component(logx.New(cfg.Env), "seed")
	if cfg.Storage.Driver == config.DriverMemory {
		logger.Fatal().Msg("seeding needs a durable STORAGE_DRIVER (postgres or redis)")
	}

	ctx := context.Background()
	storage, err := slot.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open storage")
	}
	defer storage.Close()

	gateway := catalog.NewGateway(catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout, logger))
	if err := seed.Apply(ctx, slot.WithPrefix(storage.Repository, sessionID), gateway, logger); err != nil {
		logger.Fatal().Err(err).Msg("seed apply")
	}

	logger.Info().Str("session_id", sessionID).Msg("seed applied")
}
