package cart

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"tfashion-storefront/internal/domain"
	"tfashion-storefront/internal/store"
)

type stubProductRepo struct {
	product *domain.Product
	err     error
	lastID  string
}

func (s *stubProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	s.lastID = id
	return s.product, s.err
}

type failingStore struct {
	store.Store
	putErr error
}

func (f *failingStore) Put(context.Context, string, string, []byte) error {
	return f.putErr
}

func intPtr(v int) *int {
	return &v
}

func newTestService(t *testing.T) (*Service, store.Store) {
	t.Helper()
	st := store.NewMemory()
	return New(st, nil, nil, zap.NewNop()), st
}

func TestAddSameIDMergesQuantity(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	in := domain.CartItemInput{ID: "x", Name: "Custom Fabric Design", Price: 1200}

	v, n, err := svc.Add(ctx, "s1", in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Message != "Added to cart" {
		t.Fatalf("unexpected notice %q", n.Message)
	}
	if v.Count != 1 || v.Total != 1200 || !v.IsOpen {
		t.Fatalf("unexpected view %+v", v)
	}

	v, n, err = svc.Add(ctx, "s1", in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Message != "Item quantity updated in cart" {
		t.Fatalf("unexpected notice %q", n.Message)
	}
	if len(v.Items) != 1 || v.Items[0].Quantity != 2 || v.Count != 2 {
		t.Fatalf("expected one line with quantity 2, got %+v", v.Items)
	}
}

func TestSetQuantityNeverBelowOne(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, _, err := svc.Add(ctx, "s1", domain.CartItemInput{ID: "a", Name: "Tote", Price: 500}); err != nil {
		t.Fatalf("add: %v", err)
	}
	for _, delta := range []int{-1, -5, 3, -10, 0, 2, -1} {
		v, err := svc.SetQuantity(ctx, "s1", "a", delta)
		if err != nil {
			t.Fatalf("set quantity: %v", err)
		}
		if v.Items[0].Quantity < 1 {
			t.Fatalf("quantity dropped below 1 after delta %d: %d", delta, v.Items[0].Quantity)
		}
	}
	v, _ := svc.Get(ctx, "s1")
	if v.Items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", v.Items[0].Quantity)
	}
}

func TestTotalAndCount(t *testing.T) {
	c := Cart{}
	c.Add(domain.CartItemInput{ID: "a", Name: "A", Price: 1480000})
	c.Add(domain.CartItemInput{ID: "b", Name: "B", Price: 450000})
	c.Add(domain.CartItemInput{ID: "b", Name: "B", Price: 450000})
	c.SetQuantity("a", 2)
	want := int64(1480000*3 + 450000*2)
	for i := 0; i < 3; i++ {
		if got := c.Total(); got != want {
			t.Fatalf("read %d: total %d, want %d", i, got, want)
		}
	}
	if c.Count() != 5 {
		t.Fatalf("expected count 5, got %d", c.Count())
	}
}

func TestRemove(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, _, _ = svc.Add(ctx, "s1", domain.CartItemInput{ID: "a", Name: "A", Price: 1})
	_, _, _ = svc.Add(ctx, "s1", domain.CartItemInput{ID: "b", Name: "B", Price: 2})

	v, n, err := svc.Remove(ctx, "s1", "a")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if n.Message != "Item removed from cart" {
		t.Fatalf("unexpected notice %q", n.Message)
	}
	if len(v.Items) != 1 || v.Items[0].ID != "b" {
		t.Fatalf("unexpected items %+v", v.Items)
	}

	v, _, err = svc.Remove(ctx, "s1", "missing")
	if err != nil || len(v.Items) != 1 {
		t.Fatalf("expected no-op for unknown id, got %+v, %v", v.Items, err)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	first := New(st, nil, nil, nil)
	_, _, _ = first.Add(ctx, "s1", domain.CartItemInput{ID: "x", Name: "Custom Fabric Design", Image: "/img.png", Price: 120000, FabricType: "Silk", Length: 3, PatternScale: intPtr(75)})
	_, _, _ = first.Add(ctx, "s1", domain.CartItemInput{ID: "y", Name: "Laptop Sleeve", Price: 450000})
	_, _ = first.SetQuantity(ctx, "s1", "y", 4)
	before, _ := first.Get(ctx, "s1")

	second := New(st, nil, nil, nil)
	after, err := second.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(before.Items, after.Items) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", before.Items, after.Items)
	}
	if after.IsOpen {
		t.Fatalf("popover state must not survive a reload")
	}
}

func TestCorruptStorageRecovers(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	if err := st.Put(ctx, "s1", store.CartKey, []byte("{not json")); err != nil {
		t.Fatalf("put: %v", err)
	}
	core, logs := observer.New(zap.WarnLevel)
	svc := New(st, nil, nil, zap.New(core))

	v, err := svc.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if len(v.Items) != 0 || v.Count != 0 {
		t.Fatalf("expected empty cart, got %+v", v)
	}
	if logs.FilterMessage("discarding unreadable cart").Len() != 1 {
		t.Fatalf("expected a warning to be logged")
	}

	if _, _, err := svc.Add(ctx, "s1", domain.CartItemInput{ID: "a", Name: "A", Price: 1}); err != nil {
		t.Fatalf("add after corruption: %v", err)
	}
	raw, _ := st.Get(ctx, "s1", store.CartKey)
	if string(raw) == "{not json" {
		t.Fatalf("corrupt blob should be overwritten")
	}
}

func TestClearPersistsEmptyArray(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	_, _, _ = svc.Add(ctx, "s1", domain.CartItemInput{ID: "a", Name: "A", Price: 1})
	v, err := svc.Clear(ctx, "s1")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(v.Items) != 0 || v.Total != 0 {
		t.Fatalf("expected empty view, got %+v", v)
	}
	raw, _ := st.Get(ctx, "s1", store.CartKey)
	if string(raw) != "[]" {
		t.Fatalf("expected [] persisted, got %s", raw)
	}
}

func TestScopesAreIsolated(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, _, _ = svc.Add(ctx, "s1", domain.CartItemInput{ID: "a", Name: "A", Price: 10})
	v, _ := svc.Get(ctx, "s2")
	if len(v.Items) != 0 || v.IsOpen {
		t.Fatalf("scope s2 observed s1 state: %+v", v)
	}
}

func TestAddValidation(t *testing.T) {
	svc, _ := newTestService(t)
	cases := map[string]domain.CartItemInput{
		"missing id":    {Name: "A", Price: 1},
		"missing name":  {ID: "a", Name: "  ", Price: 1},
		"negative":      {ID: "a", Name: "A", Price: -1},
		"bad length":    {ID: "a", Name: "A", Price: 1, Length: -2},
		"scale too big": {ID: "a", Name: "A", Price: 1, PatternScale: intPtr(201)},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := svc.Add(context.Background(), "s1", in)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestAddPropagatesStoreError(t *testing.T) {
	boom := errors.New("disk full")
	svc := New(&failingStore{Store: store.NewMemory(), putErr: boom}, nil, nil, nil)
	_, _, err := svc.Add(context.Background(), "s1", domain.CartItemInput{ID: "a", Name: "A", Price: 1})
	if !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
	if svc.IsOpen("s1") {
		t.Fatalf("failed add must not open the popover")
	}
}

func TestAddOpensPopover(t *testing.T) {
	svc, _ := newTestService(t)
	v, _, err := svc.Add(context.Background(), "s1", domain.CartItemInput{ID: "a", Name: "A", Price: 1})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !v.IsOpen || !svc.IsOpen("s1") {
		t.Fatalf("expected popover open after add, got %+v", v)
	}
}

func TestLoadNormalizesStoredItems(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	raw := `[{"id":"a","name":"A","price":100,"quantity":0},` +
		`{"id":"b","name":"B","price":50,"quantity":2},` +
		`{"id":"a","name":"A","price":100,"quantity":3}]`
	if err := st.Put(ctx, "s1", store.CartKey, []byte(raw)); err != nil {
		t.Fatalf("put: %v", err)
	}
	core, logs := observer.New(zap.WarnLevel)
	svc := New(st, nil, nil, zap.New(core))

	v, err := svc.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(v.Items) != 2 || v.Items[0].ID != "a" || v.Items[1].ID != "b" {
		t.Fatalf("expected merged lines a, b; got %+v", v.Items)
	}
	if v.Items[0].Quantity != 4 || v.Count != 6 || v.Total != 500 {
		t.Fatalf("unexpected totals %+v", v)
	}
	if logs.FilterMessage("normalized stored cart").Len() != 1 {
		t.Fatalf("expected a warning to be logged")
	}
}

func TestDeductKeepsUnpaidLines(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, _, _ = svc.Add(ctx, "s1", domain.CartItemInput{ID: "a", Name: "A", Price: 100})
	paid, _ := svc.Get(ctx, "s1")

	_, _, _ = svc.Add(ctx, "s1", domain.CartItemInput{ID: "a", Name: "A", Price: 100})
	_, _, _ = svc.Add(ctx, "s1", domain.CartItemInput{ID: "b", Name: "B", Price: 50})

	v, err := svc.Deduct(ctx, "s1", paid.Items)
	if err != nil {
		t.Fatalf("deduct: %v", err)
	}
	want := map[string]int{"a": 1, "b": 1}
	if len(v.Items) != len(want) {
		t.Fatalf("unexpected items %+v", v.Items)
	}
	for _, item := range v.Items {
		if want[item.ID] != item.Quantity {
			t.Fatalf("item %s: got quantity %d", item.ID, item.Quantity)
		}
	}

	v, _ = svc.Deduct(ctx, "s1", v.Items)
	if len(v.Items) != 0 || v.Count != 0 {
		t.Fatalf("expected empty cart, got %+v", v)
	}
}

func TestAddProduct(t *testing.T) {
	repo := &stubProductRepo{product: &domain.Product{ID: "p1", Name: "Weekend Duffle", PriceCents: 3200000, Image: "/duffle.jpg"}}
	svc := New(store.NewMemory(), repo, nil, nil)
	v, _, err := svc.AddProduct(context.Background(), "s1", " p1 ")
	if err != nil {
		t.Fatalf("add product: %v", err)
	}
	if repo.lastID != "p1" {
		t.Fatalf("expected trimmed id, got %q", repo.lastID)
	}
	if v.Total != 3200000 || v.Items[0].Name != "Weekend Duffle" {
		t.Fatalf("unexpected view %+v", v)
	}

	repo.err = domain.ErrNotFound
	if _, _, err := svc.AddProduct(context.Background(), "s1", "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetOpen(t *testing.T) {
	svc, _ := newTestService(t)
	svc.SetOpen("s1", true)
	if !svc.IsOpen("s1") {
		t.Fatalf("expected open")
	}
	svc.SetOpen("s1", false)
	if svc.IsOpen("s1") {
		t.Fatalf("expected closed")
	}
}
