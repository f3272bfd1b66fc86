package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"tfashion-storefront/internal/config"
	"tfashion-storefront/internal/db"
	"tfashion-storefront/internal/logging"
	productrepo "tfashion-storefront/internal/repository/product"
	"tfashion-storefront/internal/seed"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New("seed", cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	n, err := seed.Apply(ctx, productrepo.NewPostgres(pool, logger))
	if err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}

	logger.Info("seed applied", zap.Int("products", n))
}
