package store

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"tfashion-storefront/internal/config"
)

// Well-known keys. Each manager owns exactly one key per client scope.
const (
	CartKey    = "happy-shop-cart"
	SessionKey = "happy_shop_user"
)

// Store is durable key-value storage of JSON blobs, partitioned by client scope.
// Get returns domain.ErrNotFound for absent keys. Delete of an absent key succeeds.
type Store interface {
	Get(ctx context.Context, scope, key string) ([]byte, error)
	Put(ctx context.Context, scope, key string, value []byte) error
	Delete(ctx context.Context, scope, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Open builds the backend selected by cfg.Store.Driver.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	logger.Info("opening store", zap.String("driver", driver))
	switch driver {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		return NewSQLite(ctx, cfg.Store.SQLitePath)
	case "postgres":
		return NewPostgresDSN(ctx, cfg.DBConnString)
	case "redis":
		return NewRedis(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
