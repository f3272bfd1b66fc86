package design

import (
	"context"
	"time"

	"tfashion-storefront/internal/domain"
	"tfashion-storefront/internal/task"
)

// Pattern is a generated fabric print. Candidates holds alternative renders the
// customer can switch between; Image is the selected one.
type Pattern struct {
	Image      string   `json:"image"`
	Candidates []string `json:"candidates,omitempty"`
}

type GenerateRequest struct {
	Variant Variant
	Draft   domain.Draft
}

// Generator turns a draft into a pattern. Implementations must return promptly
// once ctx is cancelled.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (Pattern, error)
}

// MockGenerator waits for a fixed delay and returns stock artwork.
type MockGenerator struct {
	delay time.Duration
}

func NewMockGenerator(delay time.Duration) *MockGenerator {
	return &MockGenerator{delay: delay}
}

var studioPatterns = []string{
	"/assets/pattern-1.jpg",
	"/assets/pattern-2.jpg",
	"/assets/pattern-3.jpg",
	"/assets/pattern-4.jpg",
	"/assets/pattern-5.jpg",
	"/assets/pattern-6.jpg",
}

func (g *MockGenerator) Generate(ctx context.Context, req GenerateRequest) (Pattern, error) {
	if err := task.Sleep(ctx, g.delay); err != nil {
		return Pattern{}, err
	}
	if req.Variant == VariantStudio {
		candidates := make([]string, len(studioPatterns))
		copy(candidates, studioPatterns)
		return Pattern{Image: candidates[0], Candidates: candidates}, nil
	}
	return Pattern{Image: studioPatterns[1]}, nil
}
