package product

import (
	"context"

	"tfashion-storefront/internal/domain"
)

// Repository stores the shop catalog. GetByID accepts a product id or its key.
type Repository interface {
	List(ctx context.Context, category string) ([]domain.Product, error)
	GetByID(ctx context.Context, idOrKey string) (*domain.Product, error)
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}
