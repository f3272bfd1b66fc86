package product

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"tfashion-storefront/internal/domain"
	"tfashion-storefront/internal/migrate"
)

func exerciseRepo(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()

	tote, err := repo.Upsert(ctx, domain.Product{Key: "savannah-tote", Name: "Savannah Tote - Canvas", PriceCents: 1480000, Category: "Women"})
	if err != nil {
		t.Fatalf("Upsert insert: %v", err)
	}
	if tote.ID == "" || tote.Currency != domain.Currency {
		t.Fatalf("unexpected inserted product %+v", tote)
	}
	if _, err := repo.Upsert(ctx, domain.Product{Key: "weekend-duffle", Name: "Weekend Duffle", PriceCents: 3200000, Category: "Men"}); err != nil {
		t.Fatalf("Upsert second: %v", err)
	}

	updated, err := repo.Upsert(ctx, domain.Product{Key: "savannah-tote", Name: "Savannah Tote", PriceCents: 1500000, Category: "Women", Image: "/tote.jpg"})
	if err != nil {
		t.Fatalf("Upsert update: %v", err)
	}
	if updated.ID != tote.ID || updated.PriceCents != 1500000 {
		t.Fatalf("expected same id with new price, got %+v", updated)
	}

	all, err := repo.List(ctx, "")
	if err != nil || len(all) != 2 {
		t.Fatalf("List all: %d, %v", len(all), err)
	}
	women, err := repo.List(ctx, "women")
	if err != nil || len(women) != 1 || women[0].Key != "savannah-tote" {
		t.Fatalf("List women: %+v, %v", women, err)
	}

	byID, err := repo.GetByID(ctx, tote.ID)
	if err != nil || byID.Image != "/tote.jpg" {
		t.Fatalf("GetByID: %+v, %v", byID, err)
	}
	byKey, err := repo.GetByID(ctx, "weekend-duffle")
	if err != nil || byKey.Name != "Weekend Duffle" {
		t.Fatalf("GetByID key: %+v, %v", byKey, err)
	}
	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemory(t *testing.T) {
	exerciseRepo(t, NewMemory())
}

func TestMemoryIDMismatch(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()
	if _, err := repo.Upsert(ctx, domain.Product{Key: "k", Name: "K"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if _, err := repo.Upsert(ctx, domain.Product{ID: "other", Key: "k", Name: "K"}); err == nil {
		t.Fatalf("expected id mismatch error")
	}
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer pool.Close()
	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE products`); err != nil {
		t.Fatalf("truncate products: %v", err)
	}
	exerciseRepo(t, NewPostgres(pool, nil))
}
