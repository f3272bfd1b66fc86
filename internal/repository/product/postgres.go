package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"tfashion-storefront/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) List(ctx context.Context, category string) ([]domain.Product, error) {
	const q = `
SELECT id::text, key, name, price_cents, currency, image, category, created_at
FROM products
WHERE $1 = '' OR lower(category) = lower($1)
ORDER BY created_at, key
`
	rows, err := r.pool.Query(ctx, q, category)
	if err != nil {
		r.logger.Error("product repo: list", zap.String("category", category), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Key, &p.Name, &p.PriceCents, &p.Currency, &p.Image, &p.Category, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("product repo: list rows", zap.String("category", category), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("product repo: list", zap.String("category", category), zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, idOrKey string) (*domain.Product, error) {
	const q = `
SELECT id::text, key, name, price_cents, currency, image, category, created_at
FROM products
WHERE id::text = $1 OR key = $1
LIMIT 1
`
	var p domain.Product
	err := r.pool.QueryRow(ctx, q, idOrKey).Scan(&p.ID, &p.Key, &p.Name, &p.PriceCents, &p.Currency, &p.Image, &p.Category, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("product repo: get", zap.String("id", idOrKey), zap.Error(err))
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (id, key, name, price_cents, currency, image, category)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7)
ON CONFLICT (key) DO UPDATE SET
    name = EXCLUDED.name,
    price_cents = EXCLUDED.price_cents,
    currency = EXCLUDED.currency,
    image = EXCLUDED.image,
    category = EXCLUDED.category
RETURNING id::text, created_at
`
	if product.Currency == "" {
		product.Currency = domain.Currency
	}
	res := product
	err := r.pool.QueryRow(ctx, q,
		product.ID,
		product.Key,
		product.Name,
		product.PriceCents,
		product.Currency,
		product.Image,
		product.Category,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Error("product repo: upsert", zap.String("key", product.Key), zap.Error(err))
		return nil, err
	}
	if product.ID != "" && res.ID != product.ID {
		return nil, fmt.Errorf("product repo: id mismatch for key=%s existing_id=%s import_id=%s", product.Key, res.ID, product.ID)
	}
	r.logger.Info("product repo: upserted", zap.String("key", res.Key), zap.String("id", res.ID))
	return &res, nil
}
