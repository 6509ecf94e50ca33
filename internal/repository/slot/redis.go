package slot

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"storefront/internal/domain"
)

type redisRepo struct {
	client *redis.Client
	prefix string
}

// NewRedis stores each slot as a plain string key under prefix.
func NewRedis(client *redis.Client, prefix string) Repository {
	return &redisRepo{client: client, prefix: prefix}
}

func (r *redisRepo) Load(ctx context.Context, key string) ([]byte, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (r *redisRepo) Save(ctx context.Context, key string, payload []byte) error {
	return r.client.Set(ctx, r.prefix+key, payload, 0).Err()
}

func (r *redisRepo) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
