package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"storefront/internal/catalog"
	"storefront/internal/clock"
	"storefront/internal/config"
	"storefront/internal/httpserver"
	"storefront/internal/listing"
	"storefront/internal/logx"
	"storefront/internal/repository/slot"
	"storefront/internal/search"
	"storefront/internal/service/auth"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger := logx.New(cfg.Env)

	ctx := context.Background()
	storage, err := slot.Open(ctx, cfg, logx.Component(logger, "storage"))
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("open storage")
	}
	defer storage.Close()

	clk := clock.Real{}
	client := catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout, logx.Component(logger, "catalog"))
	gateway := catalog.NewGateway(client)
	backend := auth.NewMockBackend(auth.BackendConfig{
		Code:        cfg.OTP.Code,
		Expiry:      cfg.OTP.Expiry,
		MaxAttempts: cfg.OTP.MaxAttempts,
	}, clk, logx.Component(logger, "otp"))

	sessions := httpserver.NewSessionManager(storage.Repository, backend, clk, httpserver.SessionConfig{
		Auth:        auth.Config{OtpExpiry: cfg.OTP.Expiry, ResendCooldown: cfg.OTP.ResendCooldown},
		List:        listing.Config{PageSize: cfg.List.PageSize, MaxItems: cfg.List.MaxProducts},
		LoadTimeout: cfg.Catalog.Timeout,
		IdleTimeout: cfg.Session.IdleTimeout,
		MaxSessions: cfg.Session.MaxOpen,
	}, logx.Component(logger, "session"))

	srv, err := httpserver.New(cfg.HTTPAddr, logx.Component(logger, "http"), httpserver.Deps{
		Catalog:        gateway,
		Suggestions:    search.NewEngine(gateway),
		Sessions:       sessions,
		Ready:          storage.Ping,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("init server")
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Str("storage", cfg.Storage.Driver).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		logger.Error().Err(err).Msg("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	} else {
		logger.Info().Msg("server stopped")
	}
}
