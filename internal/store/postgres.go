package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"tfashion-storefront/internal/db"
	"tfashion-storefront/internal/domain"
)

type postgresStore struct {
	pool  *pgxpool.Pool
	owned bool
}

// NewPostgres returns a Store over the kv_store table created by the embedded migrations.
// The caller keeps ownership of pool.
func NewPostgres(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

// NewPostgresDSN connects its own pool; Close releases it.
func NewPostgresDSN(ctx context.Context, dsn string) (Store, error) {
	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &postgresStore{pool: pool, owned: true}, nil
}

func (s *postgresStore) Get(ctx context.Context, scope, key string) ([]byte, error) {
	const q = `
SELECT value
FROM kv_store
WHERE scope = $1 AND key = $2
`
	var value []byte
	if err := s.pool.QueryRow(ctx, q, scope, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return value, nil
}

func (s *postgresStore) Put(ctx context.Context, scope, key string, value []byte) error {
	const q = `
INSERT INTO kv_store (scope, key, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (scope, key) DO UPDATE
SET value = EXCLUDED.value,
    updated_at = now()
`
	_, err := s.pool.Exec(ctx, q, scope, key, value)
	return err
}

func (s *postgresStore) Delete(ctx context.Context, scope, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM kv_store WHERE scope = $1 AND key = $2`, scope, key)
	return err
}

func (s *postgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *postgresStore) Close() error {
	if s.owned {
		s.pool.Close()
	}
	return nil
}
