// Command rosterctl maintains the roster from the command line: backups,
// restores, reset and statistics.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"primefit-service/internal/app"
	"primefit-service/internal/config"
	xerrors "primefit-service/internal/pkg/errors"
	customersvc "primefit-service/internal/service/customer"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	root := newRootCmd(func(ctx context.Context) (*customersvc.CustomerService, func(), error) {
		return openService(ctx, config.Load(), logger)
	})
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openService loads the configured roster.
func openService(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) (*customersvc.CustomerService, func(), error) {
	redisClient, err := app.ConnectRedis(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	closeRedis := func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}

	storage, closeStorage, err := app.OpenStorage(ctx, cfg, redisClient, logger)
	if err != nil {
		closeRedis()
		return nil, nil, err
	}

	roster := customersvc.NewRoster(storage, logger, customersvc.RosterConfig{
		KeyPrefix: cfg.StorageKeyPrefix,
		Admin:     cfg.Admin,
	})
	roster.Initialize(ctx)
	if roster.Degraded() {
		closeStorage()
		closeRedis()
		return nil, nil, fmt.Errorf("%w: roster storage is unreachable", xerrors.ErrPersistenceUnavailable)
	}

	return customersvc.NewCustomerService(roster, logger), func() {
		closeStorage()
		closeRedis()
	}, nil
}
