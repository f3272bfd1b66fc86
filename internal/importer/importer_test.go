package importer

import (
	"context"
	"strings"
	"testing"

	"tfashion-storefront/internal/domain"
)

type stubProductRepo struct {
	items []domain.Product
}

func (s *stubProductRepo) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	s.items = append(s.items, p)
	return &p, nil
}

func TestCSVImporter_Run(t *testing.T) {
	csvData := `id,key,name,price,currency,image,category
00000000-0000-0000-0000-000000000001,savannah-tote,Savannah Tote,"14,800",kes,/assets/cat-bags.jpg,Women
,laptop-sleeve,Laptop Sleeve,4500.5,,/assets/pattern-1.jpg,Women
,,,,,,
`
	repo := &stubProductRepo{}
	count, err := NewCSVImporter(strings.NewReader(csvData), repo).Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 2 || len(repo.items) != 2 {
		t.Fatalf("expected 2 products imported, got %d/%d", count, len(repo.items))
	}
	first := repo.items[0]
	if first.ID != "00000000-0000-0000-0000-000000000001" || first.PriceCents != 1480000 || first.Currency != "KES" || first.Category != "Women" {
		t.Fatalf("unexpected first product %+v", first)
	}
	second := repo.items[1]
	if second.PriceCents != 450050 || second.Currency != "KES" || second.ID != "" {
		t.Fatalf("unexpected second product %+v", second)
	}
}

func TestCSVImporter_PriceCentsColumn(t *testing.T) {
	csvData := "key,name,price_cents\nweekend-duffle,Weekend Duffle,3200000\n"
	repo := &stubProductRepo{}
	if _, err := NewCSVImporter(strings.NewReader(csvData), repo).Run(context.Background()); err != nil {
		t.Fatalf("import run: %v", err)
	}
	if repo.items[0].PriceCents != 3200000 {
		t.Fatalf("unexpected price %d", repo.items[0].PriceCents)
	}
}

func TestCSVImporter_Errors(t *testing.T) {
	cases := map[string]string{
		"no key column": "name,price\nA,1\n",
		"missing name":  "key,name,price\na,,1\n",
		"bad id":        "id,key,name,price\nnope,a,A,1\n",
		"bad price":     "key,name,price\na,A,abc\n",
		"zero price":    "key,name,price\na,A,0\n",
		"missing price": "key,name\na,A\n",
		"too precise":   "key,name,price\na,A,1.234\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := NewCSVImporter(strings.NewReader(data), &stubProductRepo{}).Run(context.Background()); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
