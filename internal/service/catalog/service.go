package catalog

import (
	"context"
	"strings"

	"tfashion-storefront/internal/domain"
	productrepo "tfashion-storefront/internal/repository/product"
)

// Categories are the shop filters; "All" lists everything.
var Categories = []string{"All", "Women", "Men", "Kids"}

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, category string) ([]domain.Product, error) {
	category = strings.TrimSpace(category)
	if strings.EqualFold(category, "all") {
		category = ""
	}
	products, err := s.repo.List(ctx, category)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, strings.TrimSpace(id))
}

// GetByID lets the cart add catalog products.
func (s *Service) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return s.Get(ctx, id)
}
