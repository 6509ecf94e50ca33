package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logx"
	"storefront/internal/migrate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger := logx.Component(logx.New(cfg.Env), "migrate")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	version, err := migrate.ApplyVersion(ctx, pool)
	if err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}

	logger.Info().Uint("version", version).Msg("migrations applied")
}
