package design

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"tfashion-storefront/internal/domain"
	"tfashion-storefront/internal/notify"
	"tfashion-storefront/internal/service/cart"
	"tfashion-storefront/internal/task"
)

type cartAdder interface {
	Add(ctx context.Context, scope string, in domain.CartItemInput) (cart.View, notify.Notice, error)
}

// Service holds the live builders of every scope.
type Service struct {
	gen    Generator
	carts  cartAdder
	logger *zap.Logger
	now    func() time.Time

	// base parents every generation job so Close can stop them all.
	base   context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	builders map[string]*Builder
}

func New(gen Generator, carts cartAdder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	base, cancel := context.WithCancel(context.Background())
	return &Service{
		gen:      gen,
		carts:    carts,
		logger:   logger,
		now:      time.Now,
		base:     base,
		cancel:   cancel,
		builders: make(map[string]*Builder),
	}
}

func key(scope, id string) string {
	return scope + "/" + id
}

// Start opens a new builder in the input state.
func (s *Service) Start(scope string, variant Variant) Snapshot {
	b := newBuilder(uuid.NewString(), variant, s.now())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.builders[key(scope, b.id)] = b
	return b.snapshot()
}

func (s *Service) Get(scope, id string) (Snapshot, error) {
	return s.update(scope, id, func(*Builder) error { return nil })
}

// update runs fn on the builder under the service lock.
func (s *Service) update(scope, id string, fn func(b *Builder) error) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.builders[key(scope, id)]
	if !ok {
		return Snapshot{}, domain.ErrNotFound
	}
	b.touched = s.now()
	if err := fn(b); err != nil {
		return b.snapshot(), err
	}
	return b.snapshot(), nil
}

func (s *Service) SetPrompt(scope, id, prompt string) (Snapshot, error) {
	return s.update(scope, id, func(b *Builder) error { return b.setPrompt(prompt) })
}

// Describe records the studio's style, moods and use case.
func (s *Service) Describe(scope, id, style string, moods []string, useCase string) (Snapshot, error) {
	return s.update(scope, id, func(b *Builder) error { return b.describe(style, moods, useCase) })
}

func (s *Service) Customize(scope, id string) (Snapshot, error) {
	return s.update(scope, id, (*Builder).customize)
}

func (s *Service) Back(scope, id string) (Snapshot, error) {
	return s.update(scope, id, (*Builder).back)
}

func (s *Service) SelectFabric(scope, id, fabric string) (Snapshot, error) {
	return s.update(scope, id, func(b *Builder) error { return b.selectFabric(fabric) })
}

func (s *Service) SetScale(scope, id string, scale int) (Snapshot, error) {
	return s.update(scope, id, func(b *Builder) error { return b.setScale(scale) })
}

func (s *Service) Refine(scope, id string) (Snapshot, error) {
	return s.update(scope, id, (*Builder).refine)
}

func (s *Service) IncLength(scope, id string) (Snapshot, error) {
	return s.update(scope, id, func(b *Builder) error { return b.changeLength(1) })
}

func (s *Service) DecLength(scope, id string) (Snapshot, error) {
	return s.update(scope, id, func(b *Builder) error { return b.changeLength(-1) })
}

func (s *Service) SelectCandidate(scope, id string, index int) (Snapshot, error) {
	return s.update(scope, id, func(b *Builder) error { return b.selectCandidate(index) })
}

// Reset discards the draft and cancels any pending generation.
func (s *Service) Reset(scope, id string) (Snapshot, error) {
	return s.update(scope, id, func(b *Builder) error {
		b.cancelJob()
		b.clear()
		return nil
	})
}

// Generate starts pattern generation from customizing.
func (s *Service) Generate(scope, id string) (Snapshot, error) {
	return s.update(scope, id, func(b *Builder) error {
		if err := b.require(StateCustomizing); err != nil {
			return err
		}
		s.startJob(scope, b)
		return nil
	})
}

// Retry restarts a failed generation with the same draft.
func (s *Service) Retry(scope, id string) (Snapshot, error) {
	return s.update(scope, id, func(b *Builder) error {
		if err := b.require(StateFailed); err != nil {
			return err
		}
		s.startJob(scope, b)
		return nil
	})
}

// startJob must be called with s.mu held.
func (s *Service) startJob(scope string, b *Builder) {
	b.cancelJob()
	b.state = StateGenerating
	b.failure = ""
	b.pattern = nil
	token := b.generation
	req := GenerateRequest{Variant: b.variant, Draft: b.draft}
	job := task.Start(s.base, func(ctx context.Context) (Pattern, error) {
		return s.gen.Generate(ctx, req)
	})
	b.job = job
	settled := make(chan struct{})
	b.settled = settled

	go func() {
		defer close(settled)
		res := <-job.Done()
		s.finish(scope, b, token, res)
	}()
}

func (s *Service) finish(scope string, b *Builder, token uint64, res task.Result[Pattern]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.generation != token || b.state != StateGenerating {
		return
	}
	b.job = nil
	if res.Err != nil {
		b.state = StateFailed
		b.failure = "We couldn't generate your pattern. Please try again."
		s.logger.Warn("pattern generation failed", zap.String("scope", scope), zap.String("builder", b.id), zap.Error(res.Err))
		return
	}
	p := res.Value
	b.pattern = &p
	b.state = StateResult
}

// Await blocks until the builder is no longer generating, or ctx is done.
func (s *Service) Await(ctx context.Context, scope, id string) (Snapshot, error) {
	for {
		s.mu.Lock()
		b, ok := s.builders[key(scope, id)]
		if !ok {
			s.mu.Unlock()
			return Snapshot{}, domain.ErrNotFound
		}
		if b.state != StateGenerating {
			snap := b.snapshot()
			s.mu.Unlock()
			return snap, nil
		}
		settled := b.settled
		s.mu.Unlock()

		select {
		case <-settled:
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		}
	}
}

// AddToCart turns the result into a cart line item and starts the builder over.
func (s *Service) AddToCart(ctx context.Context, scope, id string) (Snapshot, cart.View, notify.Notice, error) {
	var item domain.CartItemInput
	_, err := s.update(scope, id, func(b *Builder) error {
		if err := b.require(StateResult); err != nil {
			return err
		}
		scale := b.draft.PatternScale
		item = domain.CartItemInput{
			ID:           uuid.NewString(),
			Name:         ItemName,
			Price:        UnitPrice,
			FabricType:   string(b.draft.FabricType),
			Length:       b.draft.Length,
			PatternScale: &scale,
		}
		if b.pattern != nil {
			item.Image = b.pattern.Image
		}
		return nil
	})
	if err != nil {
		return Snapshot{}, cart.View{}, notify.Notice{}, err
	}

	view, notice, err := s.carts.Add(ctx, scope, item)
	if err != nil {
		return Snapshot{}, cart.View{}, notify.Notice{}, fmt.Errorf("add design to cart: %w", err)
	}

	snap, err := s.update(scope, id, func(b *Builder) error {
		b.cancelJob()
		b.clear()
		return nil
	})
	if errors.Is(err, domain.ErrNotFound) {
		// Discarded while the cart write was in flight; the item is already added.
		err = nil
	}
	return snap, view, notice, err
}

// Discard drops the builder and cancels its pending generation.
func (s *Service) Discard(scope, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(scope, id)
	b, ok := s.builders[k]
	if !ok {
		return domain.ErrNotFound
	}
	b.cancelJob()
	delete(s.builders, k)
	return nil
}

// Sweep discards builders untouched for longer than maxIdle and reports how many.
func (s *Service) Sweep(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, b := range s.builders {
		if b.touched.Before(cutoff) {
			b.cancelJob()
			delete(s.builders, k)
			n++
		}
	}
	return n
}

// Close cancels every pending generation.
func (s *Service) Close() {
	s.cancel()
}
