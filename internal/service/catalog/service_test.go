package catalog

import (
	"context"
	"errors"
	"testing"

	"tfashion-storefront/internal/domain"
	productrepo "tfashion-storefront/internal/repository/product"
	"tfashion-storefront/internal/seed"
)

func TestListFilters(t *testing.T) {
	repo := productrepo.NewMemory()
	if _, err := seed.Apply(context.Background(), repo); err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc := New(repo)
	cases := map[string]int{"": 6, "All": 6, "women": 3, "Men": 2, "Kids": 1, "Pets": 0}
	for category, want := range cases {
		got, err := svc.List(context.Background(), category)
		if err != nil {
			t.Fatalf("%s: %v", category, err)
		}
		if got == nil || len(got) != want {
			t.Fatalf("%s: expected %d products, got %d", category, want, len(got))
		}
	}
}

func TestGet(t *testing.T) {
	repo := productrepo.NewMemory()
	_, _ = seed.Apply(context.Background(), repo)
	svc := New(repo)
	p, err := svc.Get(context.Background(), " weekend-duffle ")
	if err != nil || p.Name != "Weekend Duffle" {
		t.Fatalf("unexpected %+v, %v", p, err)
	}
	if _, err := svc.GetByID(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
