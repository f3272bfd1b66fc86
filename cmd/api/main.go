package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"tfashion-storefront/internal/config"
	"tfashion-storefront/internal/db"
	"tfashion-storefront/internal/events"
	"tfashion-storefront/internal/httpserver"
	"tfashion-storefront/internal/logging"
	"tfashion-storefront/internal/notify"
	productrepo "tfashion-storefront/internal/repository/product"
	"tfashion-storefront/internal/seed"
	"tfashion-storefront/internal/service/auth"
	cartsvc "tfashion-storefront/internal/service/cart"
	"tfashion-storefront/internal/service/catalog"
	"tfashion-storefront/internal/service/checkout"
	"tfashion-storefront/internal/service/design"
	"tfashion-storefront/internal/service/session"
	"tfashion-storefront/internal/service/tracking"
	"tfashion-storefront/internal/store"
)

const (
	designSweepInterval = 5 * time.Minute
	designMaxIdle       = 30 * time.Minute
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New("api", cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	st, products, closeBackends, err := openBackends(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open storage", zap.Error(err))
	}
	defer closeBackends()

	sink, err := notify.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open audit sink", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sink.Close(closeCtx); err != nil {
			logger.Warn("close audit sink", zap.Error(err))
		}
	}()

	publisher, err := events.Open(cfg, logger)
	if err != nil {
		logger.Fatal("open event publisher", zap.Error(err))
	}
	defer publisher.Close()

	catalogService := catalog.New(products)
	cartService := cartsvc.New(st, catalogService, sink, logger)
	sessionService := session.New(st, sink, logger)
	authService := auth.NewService(auth.NewMock(cfg.Delays.Auth), sessionService, sink)
	designService := design.New(design.NewMockGenerator(cfg.Delays.Generate), cartService, logger)
	defer designService.Close()
	checkoutService := checkout.New(cartService, sessionService, checkout.NewMockProcessor(cfg.Delays.Checkout), publisher, sink, logger)
	trackingService := tracking.New(cfg.Delays.Refresh, cfg.Delays.Progress)
	history, _ := sink.(notify.History)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		Store:    st,
		Carts:    cartService,
		Sessions: sessionService,
		Auth:     authService,
		Designs:  designService,
		Checkout: checkoutService,
		Tracking: trackingService,
		Catalog:  catalogService,
		Notices:  history,
	}, httpserver.Options{
		CORSOrigins:  cfg.CORS.AllowedOrigins,
		SessionKey:   []byte(cfg.Session.Key),
		CookieName:   cfg.Session.CookieName,
		SecureCookie: cfg.Session.Secure,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweepDesigns(sweepCtx, designService, logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}

// openBackends opens the scope store and the product catalog. On Postgres both
// share one pool; otherwise the catalog is in memory and seeded with the default bags.
func openBackends(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.Store, productrepo.Repository, func(), error) {
	if strings.EqualFold(strings.TrimSpace(cfg.Store.Driver), "postgres") {
		logger.Info("opening store", zap.String("driver", "postgres"))
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect db: %w", err)
		}
		return store.NewPostgres(pool), productrepo.NewPostgres(pool, logger), pool.Close, nil
	}

	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open store: %w", err)
	}
	repo := productrepo.NewMemory()
	n, err := seed.Apply(ctx, repo)
	if err != nil {
		_ = st.Close()
		return nil, nil, nil, fmt.Errorf("seed catalog: %w", err)
	}
	logger.Info("seeded in-memory catalog", zap.Int("products", n))
	return st, repo, func() { _ = st.Close() }, nil
}

func sweepDesigns(ctx context.Context, svc *design.Service, logger *zap.Logger) {
	ticker := time.NewTicker(designSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := svc.Sweep(designMaxIdle); n > 0 {
				logger.Info("discarded idle designs", zap.Int("count", n))
			}
		}
	}
}
