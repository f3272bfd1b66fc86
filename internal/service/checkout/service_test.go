package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tfashion-storefront/internal/domain"
	"tfashion-storefront/internal/service/cart"
	"tfashion-storefront/internal/service/session"
	"tfashion-storefront/internal/store"
)

type stubPublisher struct {
	mu     sync.Mutex
	orders []domain.PlacedOrder
	ctxErr error
	err    error
}

func (p *stubPublisher) PublishOrderPlaced(ctx context.Context, o domain.PlacedOrder) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders = append(p.orders, o)
	p.ctxErr = ctx.Err()
	return p.err
}

func (p *stubPublisher) Close() error { return nil }

func (p *stubPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.orders)
}

type stubProcessor struct {
	err     error
	started chan struct{}
	release chan struct{}
	charged func()
	charges []Charge
}

func (p *stubProcessor) Process(ctx context.Context, c Charge) (Receipt, error) {
	p.charges = append(p.charges, c)
	if p.started != nil {
		close(p.started)
	}
	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
			return Receipt{}, ctx.Err()
		}
	}
	if p.err != nil {
		return Receipt{}, p.err
	}
	if p.charged != nil {
		p.charged()
	}
	return Receipt{Reference: "PAY-1"}, nil
}

type fixture struct {
	carts     *cart.Service
	sessions  *session.Service
	publisher *stubPublisher
	payments  *stubProcessor
	svc       *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewMemory()
	f := &fixture{
		carts:     cart.New(st, nil, nil, nil),
		sessions:  session.New(st, nil, nil),
		publisher: &stubPublisher{},
		payments:  &stubProcessor{},
	}
	f.svc = New(f.carts, f.sessions, f.payments, f.publisher, nil, nil)
	f.svc.newRef = func() string { return "TF-TEST" }
	return f
}

func (f *fixture) addItem(t *testing.T, scope string) {
	t.Helper()
	if _, _, err := f.carts.Add(context.Background(), scope, domain.CartItemInput{ID: "x", Name: "Custom Fabric Design", Price: 1200}); err != nil {
		t.Fatalf("add item: %v", err)
	}
}

func (f *fixture) login(t *testing.T, scope string) {
	t.Helper()
	if _, err := f.sessions.Login(context.Background(), scope, domain.User{ID: "1", Name: "John Doe", Email: "john@example.com"}); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func validRequest() Request {
	return Request{
		Details: Details{Name: "Amina", Phone: "0712345678", Location: "Kileleshwa", City: "Nairobi"},
		Channel: "mpesa",
	}
}

func TestEnterGates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	gate, err := f.svc.Enter(ctx, "s1")
	if err != nil || gate.View != ViewEmptyCart {
		t.Fatalf("expected empty cart view, got %+v, %v", gate, err)
	}

	f.addItem(t, "s1")
	gate, _ = f.svc.Enter(ctx, "s1")
	if gate.View != ViewAuthRequired {
		t.Fatalf("expected auth prompt, got %s", gate.View)
	}

	f.login(t, "s1")
	gate, _ = f.svc.Enter(ctx, "s1")
	if gate.View != ViewForm || gate.Total != 1200 || gate.DeliveryFee != 0 || len(gate.Channels) != 3 {
		t.Fatalf("unexpected form gate %+v", gate)
	}
}

func TestDeclineAuth(t *testing.T) {
	f := newFixture(t)
	r, err := f.svc.DeclineAuth(context.Background(), "s1")
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if r.To != "/" || r.Notice == nil || r.Notice.Message != "Please sign in to complete your checkout." {
		t.Fatalf("unexpected redirect %+v", r)
	}
	f.login(t, "s1")
	r, _ = f.svc.DeclineAuth(context.Background(), "s1")
	if r.To != "/checkout" || r.Notice != nil {
		t.Fatalf("signed-in customer should stay, got %+v", r)
	}
}

func TestSubmitRequiresAllDetails(t *testing.T) {
	f := newFixture(t)
	f.addItem(t, "s1")
	f.login(t, "s1")
	ctx := context.Background()

	blanks := []func(*Request){
		func(r *Request) { r.Name = "" },
		func(r *Request) { r.Phone = "  " },
		func(r *Request) { r.Location = "" },
		func(r *Request) { r.City = "\t" },
	}
	for i, blank := range blanks {
		req := validRequest()
		blank(&req)
		if _, err := f.svc.Submit(ctx, "s1", req); !errors.Is(err, ErrIncompleteDetails) {
			t.Fatalf("case %d: expected ErrIncompleteDetails, got %v", i, err)
		}
		v, _ := f.carts.Get(ctx, "s1")
		if v.Count != 1 {
			t.Fatalf("case %d: cart changed on invalid submit", i)
		}
	}
	if len(f.payments.charges) != 0 || f.publisher.count() != 0 {
		t.Fatalf("invalid submit must not charge or publish")
	}
}

func TestSubmitPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Submit(ctx, "s1", validRequest()); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	f.addItem(t, "s1")
	if _, err := f.svc.Submit(ctx, "s1", validRequest()); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	f.login(t, "s1")
	req := validRequest()
	req.Channel = "barter"
	if _, err := f.svc.Submit(ctx, "s1", req); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for channel, got %v", err)
	}
}

func TestSubmitSuccess(t *testing.T) {
	f := newFixture(t)
	f.addItem(t, "s1")
	f.login(t, "s1")
	ctx := context.Background()

	res, err := f.svc.Submit(ctx, "s1", validRequest())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.OrderRef != "TF-TEST" || res.Redirect != OrderTrackingPath || res.Total != 1200 {
		t.Fatalf("unexpected result %+v", res)
	}
	v, _ := f.carts.Get(ctx, "s1")
	if v.Count != 0 {
		t.Fatalf("cart not cleared: %+v", v)
	}
	if f.publisher.count() != 1 {
		t.Fatalf("expected one published order")
	}
	o := f.publisher.orders[0]
	if o.PaymentChannel != "mobileMoney" || o.UserID != "1" || o.City != "Nairobi" || len(o.Items) != 1 {
		t.Fatalf("unexpected order %+v", o)
	}
	if f.payments.charges[0].Amount != 1200 || f.payments.charges[0].Currency != "KES" {
		t.Fatalf("unexpected charge %+v", f.payments.charges[0])
	}
}

func TestPaymentFailureKeepsCart(t *testing.T) {
	f := newFixture(t)
	f.payments.err = errors.New("insufficient funds")
	f.addItem(t, "s1")
	f.login(t, "s1")
	if _, err := f.svc.Submit(context.Background(), "s1", validRequest()); !errors.Is(err, ErrPaymentFailed) {
		t.Fatalf("expected ErrPaymentFailed, got %v", err)
	}
	v, _ := f.carts.Get(context.Background(), "s1")
	if v.Count != 1 || f.publisher.count() != 0 {
		t.Fatalf("failed payment must leave cart and skip publish")
	}
}

func TestPublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")
	f.addItem(t, "s1")
	f.login(t, "s1")
	if _, err := f.svc.Submit(context.Background(), "s1", validRequest()); err != nil {
		t.Fatalf("expected success despite publish failure, got %v", err)
	}
}

func TestDuplicateSubmitRejected(t *testing.T) {
	f := newFixture(t)
	f.payments.started = make(chan struct{})
	f.payments.release = make(chan struct{})
	f.addItem(t, "s1")
	f.login(t, "s1")
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Submit(ctx, "s1", validRequest())
		done <- err
	}()
	select {
	case <-f.payments.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("first submit never reached payment")
	}
	if !f.svc.Processing("s1") {
		t.Fatalf("expected processing")
	}
	if _, err := f.svc.Submit(ctx, "s1", validRequest()); !errors.Is(err, ErrInProgress) {
		t.Fatalf("expected ErrInProgress, got %v", err)
	}
	close(f.payments.release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if f.publisher.count() != 1 || len(f.payments.charges) != 1 {
		t.Fatalf("expected exactly one charge and publish")
	}
	if _, err := f.svc.Submit(ctx, "s1", validRequest()); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("resubmit after success should see empty cart, got %v", err)
	}
}

func TestSubmitKeepsItemsAddedDuringPayment(t *testing.T) {
	f := newFixture(t)
	f.payments.started = make(chan struct{})
	f.payments.release = make(chan struct{})
	f.addItem(t, "s1")
	f.login(t, "s1")
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Submit(ctx, "s1", validRequest())
		done <- err
	}()
	select {
	case <-f.payments.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("submit never reached payment")
	}
	if _, _, err := f.carts.Add(ctx, "s1", domain.CartItemInput{ID: "y", Name: "Weekend Duffle", Price: 5000}); err != nil {
		t.Fatalf("add during payment: %v", err)
	}
	close(f.payments.release)
	if err := <-done; err != nil {
		t.Fatalf("submit: %v", err)
	}

	if f.payments.charges[0].Amount != 1200 {
		t.Fatalf("expected charge of 1200, got %d", f.payments.charges[0].Amount)
	}
	if o := f.publisher.orders[0]; len(o.Items) != 1 || o.Items[0].ID != "x" {
		t.Fatalf("order should carry only the paid line, got %+v", o.Items)
	}
	v, _ := f.carts.Get(ctx, "s1")
	if len(v.Items) != 1 || v.Items[0].ID != "y" || v.Total != 5000 {
		t.Fatalf("unpaid item should stay in the cart, got %+v", v)
	}
}

func TestSubmitCancelledDuringPayment(t *testing.T) {
	f := newFixture(t)
	f.payments.started = make(chan struct{})
	f.payments.release = make(chan struct{})
	f.addItem(t, "s1")
	f.login(t, "s1")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Submit(ctx, "s1", validRequest())
		done <- err
	}()
	<-f.payments.started
	cancel()
	err := <-done
	if !errors.Is(err, context.Canceled) || !errors.Is(err, ErrPaymentFailed) {
		t.Fatalf("expected cancellation wrapped in ErrPaymentFailed, got %v", err)
	}
	v, _ := f.carts.Get(context.Background(), "s1")
	if v.Count != 1 || f.publisher.count() != 0 {
		t.Fatalf("cancelled payment must leave cart and skip publish")
	}
}

func TestSubmitCompletesAfterChargeDespiteCancel(t *testing.T) {
	f := newFixture(t)
	f.addItem(t, "s1")
	f.login(t, "s1")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.payments.charged = cancel

	if _, err := f.svc.Submit(ctx, "s1", validRequest()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	v, _ := f.carts.Get(context.Background(), "s1")
	if v.Count != 0 {
		t.Fatalf("paid cart should be emptied, got %+v", v)
	}
	if f.publisher.count() != 1 || f.publisher.ctxErr != nil {
		t.Fatalf("order should publish on a live context, got err %v", f.publisher.ctxErr)
	}
}

func TestParseChannel(t *testing.T) {
	cases := map[string]Channel{
		"mpesa":         ChannelMobileMoney,
		"mobileMoney":   ChannelMobileMoney,
		"card":          ChannelCard,
		"paypal":        ChannelDigitalWallet,
		"digitalWallet": ChannelDigitalWallet,
	}
	for in, want := range cases {
		got, err := ParseChannel(in)
		if err != nil || got != want {
			t.Fatalf("%s: got %v, %v", in, got, err)
		}
	}
}

func TestMockProcessor(t *testing.T) {
	r, err := NewMockProcessor(0).Process(context.Background(), Charge{Amount: 1})
	if err != nil || r.Reference == "" {
		t.Fatalf("unexpected %+v, %v", r, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMockProcessor(time.Hour).Process(ctx, Charge{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
