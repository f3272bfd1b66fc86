package httpserver

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
	"tfashion-storefront/internal/domain"
	"tfashion-storefront/internal/notify"
	"tfashion-storefront/internal/service/auth"
	"tfashion-storefront/internal/service/cart"
	"tfashion-storefront/internal/service/checkout"
	"tfashion-storefront/internal/service/design"
	"tfashion-storefront/internal/service/tracking"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type cartService interface {
	Get(ctx context.Context, scope string) (cart.View, error)
	Add(ctx context.Context, scope string, in domain.CartItemInput) (cart.View, notify.Notice, error)
	AddProduct(ctx context.Context, scope, productID string) (cart.View, notify.Notice, error)
	Remove(ctx context.Context, scope, id string) (cart.View, notify.Notice, error)
	SetQuantity(ctx context.Context, scope, id string, delta int) (cart.View, error)
	Clear(ctx context.Context, scope string) (cart.View, error)
	SetOpen(scope string, open bool)
}

type sessionService interface {
	Current(ctx context.Context, scope string) (*domain.User, error)
	Login(ctx context.Context, scope string, user domain.User) (notify.Notice, error)
	Logout(ctx context.Context, scope string) (notify.Notice, error)
	UpdateUser(ctx context.Context, scope string, patch domain.UserPatch) (*domain.User, error)
}

type authService interface {
	Login(ctx context.Context, scope string, in auth.LoginInput) (domain.User, []notify.Notice, error)
	Register(ctx context.Context, scope string, in auth.RegisterInput) (domain.User, []notify.Notice, error)
	SocialLogin(ctx context.Context, scope string, provider auth.Provider) (domain.User, []notify.Notice, error)
	RequestPasswordReset(ctx context.Context, scope string, in auth.ResetInput) (notify.Notice, error)
}

type designService interface {
	Start(scope string, variant design.Variant) design.Snapshot
	Get(scope, id string) (design.Snapshot, error)
	SetPrompt(scope, id, prompt string) (design.Snapshot, error)
	Describe(scope, id, style string, moods []string, useCase string) (design.Snapshot, error)
	Customize(scope, id string) (design.Snapshot, error)
	Back(scope, id string) (design.Snapshot, error)
	SelectFabric(scope, id, fabric string) (design.Snapshot, error)
	SetScale(scope, id string, scale int) (design.Snapshot, error)
	Refine(scope, id string) (design.Snapshot, error)
	IncLength(scope, id string) (design.Snapshot, error)
	DecLength(scope, id string) (design.Snapshot, error)
	SelectCandidate(scope, id string, index int) (design.Snapshot, error)
	Reset(scope, id string) (design.Snapshot, error)
	Generate(scope, id string) (design.Snapshot, error)
	Retry(scope, id string) (design.Snapshot, error)
	Await(ctx context.Context, scope, id string) (design.Snapshot, error)
	AddToCart(ctx context.Context, scope, id string) (design.Snapshot, cart.View, notify.Notice, error)
	Discard(scope, id string) error
}

type checkoutService interface {
	Enter(ctx context.Context, scope string) (checkout.Gate, error)
	DeclineAuth(ctx context.Context, scope string) (checkout.Redirect, error)
	Submit(ctx context.Context, scope string, req checkout.Request) (checkout.Result, error)
}

type trackingService interface {
	Status() tracking.Status
	Refresh(ctx context.Context) (tracking.Status, error)
	Lookup(id string) (domain.Order, error)
	Progress(ctx context.Context, emit func(tracking.Tick) error) error
}

type catalogService interface {
	List(ctx context.Context, category string) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
}

// Deps holds the services the router dispatches to. Notices is optional; without
// it the notice history is empty.
type Deps struct {
	Store    pinger
	Carts    cartService
	Sessions sessionService
	Auth     authService
	Designs  designService
	Checkout checkoutService
	Tracking trackingService
	Catalog  catalogService
	Notices  notify.History
}

// Options tunes the transport concerns of the router.
type Options struct {
	CORSOrigins  []string
	SessionKey   []byte
	CookieName   string
	SecureCookie bool
}

func (d Deps) validate() error {
	switch {
	case d.Carts == nil:
		return fmt.Errorf("httpserver: cart service is required")
	case d.Sessions == nil:
		return fmt.Errorf("httpserver: session service is required")
	case d.Auth == nil:
		return fmt.Errorf("httpserver: auth service is required")
	case d.Designs == nil:
		return fmt.Errorf("httpserver: design service is required")
	case d.Checkout == nil:
		return fmt.Errorf("httpserver: checkout service is required")
	case d.Tracking == nil:
		return fmt.Errorf("httpserver: tracking service is required")
	case d.Catalog == nil:
		return fmt.Errorf("httpserver: catalog service is required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, deps Deps, opts Options) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	cookies, err := newCookieStore(logger, opts)
	if err != nil {
		return nil, err
	}
	cookieName := opts.CookieName
	if cookieName == "" {
		cookieName = defaultCookieName
	}

	router := gin.New()
	router.Use(cors.New(corsConfig(opts.CORSOrigins)), loggerMiddleware(logger), gin.Recovery())

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Store))

	h := &handler{deps: deps, logger: logger}
	api := router.Group("/api", scopeMiddleware(cookies, cookieName))

	api.GET("/cart", h.getCart)
	api.DELETE("/cart", h.clearCart)
	api.PUT("/cart/open", h.setCartOpen)
	api.POST("/cart/items", h.addCartItem)
	api.PATCH("/cart/items/:id", h.setCartQuantity)
	api.DELETE("/cart/items/:id", h.removeCartItem)
	api.POST("/cart/products/:id", h.addProductToCart)

	api.GET("/session", h.getSession)
	api.PUT("/session", h.putSession)
	api.DELETE("/session", h.logout)
	api.PATCH("/session/user", h.updateUser)
	api.POST("/session/login", h.login)
	api.POST("/session/register", h.register)
	api.POST("/session/social", h.socialLogin)
	api.POST("/session/password-reset", h.passwordReset)

	api.GET("/fabrics", h.listFabrics)
	api.POST("/designs", h.startDesign)
	api.GET("/designs/:id", h.getDesign)
	api.DELETE("/designs/:id", h.discardDesign)
	api.POST("/designs/:id/:action", h.designAction)

	api.GET("/checkout", h.enterCheckout)
	api.POST("/checkout", h.submitCheckout)
	api.POST("/checkout/decline-auth", h.declineAuth)

	api.GET("/orders/current", h.currentOrder)
	api.POST("/orders/current/refresh", h.refreshOrder)
	api.GET("/orders/:id", h.getOrder)
	api.GET("/orders/:id/live", h.orderLive)

	api.GET("/products", h.listProducts)
	api.GET("/products/:id", h.getProduct)
	api.GET("/routes", h.resolveRoute)

	api.GET("/notices", h.listNotices)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = append(cfg.AllowHeaders, scopeHeader)
	cfg.ExposeHeaders = []string{scopeHeader}
	cfg.MaxAge = 12 * time.Hour
	return cfg
}

func newCookieStore(logger *zap.Logger, opts Options) (*sessions.CookieStore, error) {
	key := opts.SessionKey
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate session key: %w", err)
		}
		logger.Warn("no session key configured, client scopes will not survive a restart")
	}
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	return store, nil
}
