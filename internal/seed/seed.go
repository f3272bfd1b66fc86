package seed

import (
	"context"
	"fmt"

	"tfashion-storefront/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// Products is the shop's ready-made range. Prices are in minor units.
var Products = []domain.Product{
	{Key: "savannah-tote", Name: "Savannah Tote – Canvas", PriceCents: 1480000, Category: "Women", Image: "/assets/cat-bags.jpg"},
	{Key: "nairobi-commuter-backpack", Name: "Nairobi Commuter Backpack", PriceCents: 2850000, Category: "Men", Image: "/assets/cat-men.jpg"},
	{Key: "market-day-carry-all", Name: "Market Day Carry-All", PriceCents: 1250000, Category: "Women", Image: "/assets/cat-women.jpg"},
	{Key: "mini-explorer-pack", Name: "Mini Explorer Pack", PriceCents: 850000, Category: "Kids", Image: "/assets/cat-children.jpg"},
	{Key: "weekend-duffle", Name: "Weekend Duffle", PriceCents: 3200000, Category: "Men", Image: "/assets/cat-bags.jpg"},
	{Key: "laptop-sleeve", Name: "Laptop Sleeve", PriceCents: 450000, Category: "Women", Image: "/assets/pattern-1.jpg"},
}

// Apply upserts the seed catalog. It is idempotent.
func Apply(ctx context.Context, repo ProductWriter) (int, error) {
	for i, p := range Products {
		p.Currency = domain.Currency
		if _, err := repo.Upsert(ctx, p); err != nil {
			return i, fmt.Errorf("upsert product %s: %w", p.Key, err)
		}
	}
	return len(Products), nil
}
