package product

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"tfashion-storefront/internal/domain"
)

type memoryRepo struct {
	mu    sync.RWMutex
	byKey map[string]domain.Product
	now   func() time.Time
}

// NewMemory returns a process-local catalog.
func NewMemory() Repository {
	return &memoryRepo{byKey: make(map[string]domain.Product), now: time.Now}
}

func (r *memoryRepo) List(_ context.Context, category string) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Product, 0, len(r.byKey))
	for _, p := range r.byKey {
		if category == "" || strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

func (r *memoryRepo) GetByID(_ context.Context, idOrKey string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.byKey[idOrKey]; ok {
		return &p, nil
	}
	for _, p := range r.byKey {
		if p.ID == idOrKey {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) Upsert(_ context.Context, product domain.Product) (*domain.Product, error) {
	if product.Currency == "" {
		product.Currency = domain.Currency
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byKey[product.Key]; ok {
		if product.ID != "" && product.ID != existing.ID {
			return nil, fmt.Errorf("product repo: id mismatch for key=%s existing_id=%s import_id=%s", product.Key, existing.ID, product.ID)
		}
		product.ID = existing.ID
		product.CreatedAt = existing.CreatedAt
	} else {
		if product.ID == "" {
			product.ID = uuid.NewString()
		}
		product.CreatedAt = r.now().UTC()
	}
	r.byKey[product.Key] = product
	return &product, nil
}
