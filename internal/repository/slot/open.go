package slot

import (
	"context"

	"github.com/rs/zerolog"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/migrate"
)

// Store is an opened Repository together with its health check and cleanup.
type Store struct {
	Repository
	// Ping is nil for the memory driver.
	Ping  func(ctx context.Context) error
	Close func()
}

// Open connects the storage driver selected in cfg. The postgres driver is
// migrated before use.
func Open(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pool, err := db.Connect(ctx, cfg.DBConnString, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		if err := migrate.Apply(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &Store{Repository: NewPostgres(pool, logger), Ping: pool.Ping, Close: pool.Close}, nil
	case config.DriverRedis:
		client, err := db.ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return &Store{
			Repository: NewRedis(client, cfg.Redis.KeyPrefix+":"),
			Ping:       func(ctx context.Context) error { return client.Ping(ctx).Err() },
			Close:      func() { _ = client.Close() },
		}, nil
	default:
		return &Store{Repository: NewMemory(), Close: func() {}}, nil
	}
}
