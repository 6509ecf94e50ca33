package slot

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"storefront/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgres stores slots in the storage_slots table.
func NewPostgres(pool *pgxpool.Pool, logger zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Load(ctx context.Context, key string) ([]byte, error) {
	const q = `
SELECT payload
FROM storage_slots
WHERE key = $1
`
	var payload []byte
	if err := r.pool.QueryRow(ctx, q, key).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return payload, nil
}

func (r *postgresRepo) Save(ctx context.Context, key string, payload []byte) error {
	const q = `
INSERT INTO storage_slots (key, payload, updated_at)
VALUES ($1, $2::jsonb, now())
ON CONFLICT (key) DO UPDATE
SET payload = EXCLUDED.payload,
    updated_at = now()
`
	if _, err := r.pool.Exec(ctx, q, key, string(payload)); err != nil {
		r.logger.Error().Err(err).Str("key", key).Msg("save slot")
		return err
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, key string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM storage_slots WHERE key = $1`, key)
	return err
}
