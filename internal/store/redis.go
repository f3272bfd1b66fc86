package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"tfashion-storefront/internal/config"
	"tfashion-storefront/internal/domain"
)

const redisKeyPrefix = "tfashion"

type redisStore struct {
	client *redis.Client
}

// NewRedis connects to Redis and verifies it with a ping. Keys never expire.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &redisStore{client: client}, nil
}

func redisKey(scope, key string) string {
	return fmt.Sprintf("%s:%s:%s", redisKeyPrefix, scope, key)
}

func (r *redisStore) Get(ctx context.Context, scope, key string) ([]byte, error) {
	v, err := r.client.Get(ctx, redisKey(scope, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (r *redisStore) Put(ctx context.Context, scope, key string, value []byte) error {
	return r.client.Set(ctx, redisKey(scope, key), value, 0).Err()
}

func (r *redisStore) Delete(ctx context.Context, scope, key string) error {
	return r.client.Del(ctx, redisKey(scope, key)).Err()
}

func (r *redisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisStore) Close() error {
	return r.client.Close()
}
