package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"tfashion-storefront/internal/domain"
	"tfashion-storefront/internal/notify"
	"tfashion-storefront/internal/store"
	"tfashion-storefront/internal/task"
)

const maxPatternScale = 200

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// View is the read model of a scope's cart.
type View struct {
	Items  []domain.CartItem `json:"items"`
	Total  int64             `json:"total"`
	Count  int               `json:"count"`
	IsOpen bool              `json:"isOpen"`
}

type Service struct {
	store    store.Store
	products productRepo
	notices  *notify.Emitter
	logger   *zap.Logger
	locks    *task.Locks

	mu   sync.Mutex
	open map[string]bool
}

func New(st store.Store, products productRepo, sink notify.Sink, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    st,
		products: products,
		notices:  notify.NewEmitter(sink, "cart"),
		logger:   logger,
		locks:    task.NewLocks(),
		open:     make(map[string]bool),
	}
}

// Load reads the persisted cart of scope. Absent or unparseable data yields an empty cart;
// stored lines are normalized to positive quantities and unique ids.
func (s *Service) Load(ctx context.Context, scope string) (Cart, error) {
	raw, err := s.store.Get(ctx, scope, store.CartKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Cart{}, nil
		}
		return Cart{}, fmt.Errorf("load cart: %w", err)
	}
	var items []domain.CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		s.logger.Warn("discarding unreadable cart", zap.String("scope", scope), zap.Error(err))
		return Cart{}, nil
	}
	c := Cart{Items: items}
	if c.normalize() {
		s.logger.Warn("normalized stored cart", zap.String("scope", scope))
	}
	return c, nil
}

func (s *Service) save(ctx context.Context, scope string, c Cart) error {
	items := c.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.store.Put(ctx, scope, store.CartKey, raw); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// mutate runs fn against the scope's cart under the scope lock and persists the result.
func (s *Service) mutate(ctx context.Context, scope string, fn func(c *Cart)) (View, error) {
	unlock := s.locks.Lock(scope)
	defer unlock()

	c, err := s.Load(ctx, scope)
	if err != nil {
		return View{}, err
	}
	fn(&c)
	if err := s.save(ctx, scope, c); err != nil {
		return View{}, err
	}
	return s.view(scope, c), nil
}

func (s *Service) view(scope string, c Cart) View {
	items := c.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	return View{Items: items, Total: c.Total(), Count: c.Count(), IsOpen: s.IsOpen(scope)}
}

func (s *Service) Get(ctx context.Context, scope string) (View, error) {
	unlock := s.locks.Lock(scope)
	defer unlock()
	c, err := s.Load(ctx, scope)
	if err != nil {
		return View{}, err
	}
	return s.view(scope, c), nil
}

// Add puts a candidate in the cart and opens the cart popover.
func (s *Service) Add(ctx context.Context, scope string, in domain.CartItemInput) (View, notify.Notice, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	if err := validate(in); err != nil {
		return View{}, notify.Notice{}, err
	}
	var merged bool
	v, err := s.mutate(ctx, scope, func(c *Cart) {
		merged = c.Add(in)
	})
	if err != nil {
		return View{}, notify.Notice{}, err
	}
	s.SetOpen(scope, true)
	v.IsOpen = true
	n := notify.Successf("Added to cart")
	if merged {
		n = notify.Successf("Item quantity updated in cart")
	}
	return v, s.notices.Emit(ctx, scope, "add", n), nil
}

// AddProduct adds a catalog product as a line item.
func (s *Service) AddProduct(ctx context.Context, scope, productID string) (View, notify.Notice, error) {
	if s.products == nil {
		return View{}, notify.Notice{}, errors.New("product catalog unavailable")
	}
	p, err := s.products.GetByID(ctx, strings.TrimSpace(productID))
	if err != nil {
		return View{}, notify.Notice{}, err
	}
	return s.Add(ctx, scope, p.CartItem())
}

// Remove deletes a line item. Unknown ids are a no-op.
func (s *Service) Remove(ctx context.Context, scope, id string) (View, notify.Notice, error) {
	v, err := s.mutate(ctx, scope, func(c *Cart) {
		c.Remove(id)
	})
	if err != nil {
		return View{}, notify.Notice{}, err
	}
	return v, s.notices.Emit(ctx, scope, "remove", notify.Infof("Item removed from cart")), nil
}

// SetQuantity changes a line item's quantity by delta, clamped at 1.
func (s *Service) SetQuantity(ctx context.Context, scope, id string, delta int) (View, error) {
	return s.mutate(ctx, scope, func(c *Cart) {
		c.SetQuantity(id, delta)
	})
}

func (s *Service) Clear(ctx context.Context, scope string) (View, error) {
	return s.mutate(ctx, scope, func(c *Cart) {
		c.Clear()
	})
}

// Deduct removes the lines a checkout paid for. Items added after the payment
// snapshot was taken stay in the cart.
func (s *Service) Deduct(ctx context.Context, scope string, paid []domain.CartItem) (View, error) {
	return s.mutate(ctx, scope, func(c *Cart) {
		c.Deduct(paid)
	})
}

func (s *Service) SetOpen(scope string, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if open {
		s.open[scope] = true
		return
	}
	delete(s.open, scope)
}

func (s *Service) IsOpen(scope string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open[scope]
}

func validate(in domain.CartItemInput) error {
	switch {
	case in.ID == "":
		return fmt.Errorf("%w: id required", domain.ErrValidation)
	case in.Name == "":
		return fmt.Errorf("%w: name required", domain.ErrValidation)
	case in.Price < 0:
		return fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	case in.Length < 0:
		return fmt.Errorf("%w: length must be at least 1", domain.ErrValidation)
	case in.PatternScale != nil && (*in.PatternScale < 0 || *in.PatternScale > maxPatternScale):
		return fmt.Errorf("%w: patternScale must be between 0 and %d", domain.ErrValidation, maxPatternScale)
	}
	return nil
}
