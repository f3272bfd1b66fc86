package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"tfashion-storefront/internal/domain"
	"tfashion-storefront/internal/events"
	"tfashion-storefront/internal/notify"
	"tfashion-storefront/internal/service/cart"
	"tfashion-storefront/internal/task"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrAuthRequired      = errors.New("sign in required")
	ErrIncompleteDetails = fmt.Errorf("%w: delivery details incomplete", domain.ErrValidation)
	ErrInProgress        = errors.New("checkout already in progress")
	ErrPaymentFailed     = errors.New("payment failed")
)

// OrderTrackingPath is where a successful checkout lands.
const OrderTrackingPath = "/order-tracking"

type cartManager interface {
	Get(ctx context.Context, scope string) (cart.View, error)
	Deduct(ctx context.Context, scope string, paid []domain.CartItem) (cart.View, error)
}

type sessionReader interface {
	Current(ctx context.Context, scope string) (*domain.User, error)
}

// GateView is what the checkout page shows on entry.
type GateView string

const (
	ViewEmptyCart    GateView = "empty_cart"
	ViewAuthRequired GateView = "auth_required"
	ViewForm         GateView = "form"
)

type Gate struct {
	View        GateView          `json:"view"`
	Items       []domain.CartItem `json:"items"`
	Subtotal    int64             `json:"subtotal"`
	DeliveryFee int64             `json:"deliveryFee"`
	Total       int64             `json:"total"`
	Count       int               `json:"count"`
	Currency    string            `json:"currency"`
	Channels    []Channel         `json:"channels"`
	Processing  bool              `json:"processing"`
}

type Details struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	City     string `json:"city"`
}

func (d Details) trimmed() Details {
	return Details{
		Name:     strings.TrimSpace(d.Name),
		Phone:    strings.TrimSpace(d.Phone),
		Location: strings.TrimSpace(d.Location),
		City:     strings.TrimSpace(d.City),
	}
}

func (d Details) complete() bool {
	return d.Name != "" && d.Phone != "" && d.Location != "" && d.City != ""
}

type Request struct {
	Details
	Channel string `json:"paymentChannel"`
}

type Result struct {
	OrderRef string `json:"orderRef"`
	Redirect string `json:"redirect"`
	Total    int64  `json:"total"`
	Currency string `json:"currency"`
}

type Redirect struct {
	To     string         `json:"to"`
	Notice *notify.Notice `json:"notice,omitempty"`
}

type Service struct {
	carts     cartManager
	sessions  sessionReader
	payments  PaymentProcessor
	publisher events.Publisher
	guard     *task.Guard
	notices   *notify.Emitter
	logger    *zap.Logger
	now       func() time.Time
	newRef    func() string
}

func New(carts cartManager, sessions sessionReader, payments PaymentProcessor, publisher events.Publisher, sink notify.Sink, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{
		carts:     carts,
		sessions:  sessions,
		payments:  payments,
		publisher: publisher,
		guard:     task.NewGuard(),
		notices:   notify.NewEmitter(sink, "checkout"),
		logger:    logger,
		now:       time.Now,
		newRef:    newOrderRef,
	}
}

func newOrderRef() string {
	return "TF-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// Enter decides what the checkout page shows. The empty-cart view wins over the
// sign-in prompt.
func (s *Service) Enter(ctx context.Context, scope string) (Gate, error) {
	view, err := s.carts.Get(ctx, scope)
	if err != nil {
		return Gate{}, err
	}
	gate := Gate{
		View:       ViewForm,
		Items:      view.Items,
		Subtotal:   view.Total,
		Total:      view.Total,
		Count:      view.Count,
		Currency:   domain.Currency,
		Channels:   Channels,
		Processing: s.guard.Busy(scope),
	}
	if view.Count == 0 {
		gate.View = ViewEmptyCart
		return gate, nil
	}
	user, err := s.sessions.Current(ctx, scope)
	if err != nil {
		return Gate{}, err
	}
	if user == nil {
		gate.View = ViewAuthRequired
	}
	return gate, nil
}

// DeclineAuth handles the sign-in prompt being closed. Without a session the
// customer is sent home.
func (s *Service) DeclineAuth(ctx context.Context, scope string) (Redirect, error) {
	user, err := s.sessions.Current(ctx, scope)
	if err != nil {
		return Redirect{}, err
	}
	if user != nil {
		return Redirect{To: "/checkout"}, nil
	}
	n := s.notices.Emit(ctx, scope, "decline-auth", notify.Infof("Please sign in to complete your checkout."))
	return Redirect{To: "/", Notice: &n}, nil
}

// Submit places the order: it charges the cart total and, on success, empties the
// cart and announces the order.
func (s *Service) Submit(ctx context.Context, scope string, req Request) (Result, error) {
	view, user, err := s.preconditions(ctx, scope)
	if err != nil {
		return Result{}, err
	}
	details := req.Details.trimmed()
	if !details.complete() {
		s.notices.Emit(ctx, scope, "submit", notify.Errorf("Please fill in all delivery details"))
		return Result{}, ErrIncompleteDetails
	}
	channel, err := ParseChannel(req.Channel)
	if err != nil {
		return Result{}, err
	}

	release, err := s.guard.Acquire(scope)
	if err != nil {
		return Result{}, ErrInProgress
	}
	defer release()

	// The cart may have changed while another submission held the guard.
	if view, user, err = s.preconditions(ctx, scope); err != nil {
		return Result{}, err
	}

	ref := s.newRef()
	receipt, err := s.payments.Process(ctx, Charge{
		OrderRef: ref,
		Amount:   view.Total,
		Currency: domain.Currency,
		Channel:  channel,
		Phone:    details.Phone,
	})
	if err != nil {
		s.logger.Warn("payment declined", zap.String("scope", scope), zap.String("order_ref", ref), zap.Error(err))
		return Result{}, fmt.Errorf("%w: %w", ErrPaymentFailed, err)
	}

	// The charge went through; the order completes even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	if _, err := s.carts.Deduct(ctx, scope, view.Items); err != nil {
		s.logger.Error("deduct paid items", zap.String("scope", scope), zap.String("order_ref", ref), zap.Error(err))
		return Result{}, err
	}

	order := domain.PlacedOrder{
		Ref:            ref,
		Scope:          scope,
		UserID:         user.ID,
		Items:          view.Items,
		Total:          view.Total,
		Currency:       domain.Currency,
		PaymentChannel: string(channel),
		Name:           details.Name,
		Phone:          details.Phone,
		Location:       details.Location,
		City:           details.City,
		PlacedAt:       s.now().UTC(),
	}
	if err := s.publisher.PublishOrderPlaced(ctx, order); err != nil {
		s.logger.Error("publish order placed", zap.String("order_ref", ref), zap.Error(err))
	}
	s.logger.Info("order placed",
		zap.String("scope", scope),
		zap.String("order_ref", ref),
		zap.String("payment_ref", receipt.Reference),
		zap.Int64("total", view.Total),
	)
	return Result{OrderRef: ref, Redirect: OrderTrackingPath, Total: view.Total, Currency: domain.Currency}, nil
}

// Processing reports whether scope has a submission in flight.
func (s *Service) Processing(scope string) bool {
	return s.guard.Busy(scope)
}

func (s *Service) preconditions(ctx context.Context, scope string) (cart.View, *domain.User, error) {
	view, err := s.carts.Get(ctx, scope)
	if err != nil {
		return cart.View{}, nil, err
	}
	if view.Count == 0 {
		return cart.View{}, nil, ErrEmptyCart
	}
	user, err := s.sessions.Current(ctx, scope)
	if err != nil {
		return cart.View{}, nil, err
	}
	if user == nil {
		return cart.View{}, nil, ErrAuthRequired
	}
	return view, user, nil
}
