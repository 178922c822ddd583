// Command server runs the stock ledger and storefront sync API.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"storesync/internal/domain/catalogs/warehouse"
	"storesync/internal/domain/ledger"
	"storesync/internal/domain/orders"
	syncdomain "storesync/internal/domain/sync"
	"storesync/internal/domain/webhooks"
	v1 "storesync/internal/infrastructure/http/v1"
	"storesync/internal/infrastructure/http/v1/middleware"
	"storesync/internal/infrastructure/storage/postgres"
	"storesync/internal/infrastructure/storage/postgres/catalog_repo"
	"storesync/internal/infrastructure/storage/postgres/ledger_repo"
	"storesync/internal/infrastructure/storage/postgres/order_repo"
	"storesync/internal/infrastructure/storage/postgres/webhook_repo"
	"storesync/internal/infrastructure/storage/redisdedup"
	"storesync/pkg/logger"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "production") == "development",
	})
	if err != nil {
		panic(err)
	}

	ctx := logger.WithLogger(context.Background(), log)

	if err := run(ctx, log); err != nil {
		logger.Fatal(ctx, "server failed", "error", err)
	}
}

func run(ctx context.Context, log *logger.Logger) error {
	dsn := mustEnv(ctx, "DATABASE_URL")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		return err
	}
	defer pool.Close()

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				postgres.LogPoolStats(ctx, pool.Pool)
			}
		}
	}()

	txManager := postgres.NewTxManager(pool)

	// Repositories.
	ledgerRepo := ledger_repo.NewLedgerRepo(txManager)
	productRepo := catalog_repo.NewProductRepo(txManager)
	warehouseRepo := catalog_repo.NewWarehouseRepo(txManager)
	customerRepo := catalog_repo.NewCustomerRepo(txManager)
	storeRepo := catalog_repo.NewStoreRepo(txManager)
	orderRepo := order_repo.NewOrderRepo(txManager)

	// Domain services.
	resolver := warehouse.NewResolver(warehouseRepo)
	stockService := ledger.NewService(ledgerRepo, productRepo, resolver, txManager)
	orderService := orders.NewService(
		orderRepo, customerRepo, productRepo, storeRepo,
		resolver, stockService, txManager,
	)

	// Webhook pipeline. Redis backs delivery dedup when configured,
	// otherwise the database provides the same atomic reservation.
	var dedupStore webhooks.DeliveryStore
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		redisStore, err := redisdedup.New(ctx, redisdedup.Config{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		})
		if err != nil {
			return err
		}
		defer redisStore.Close()
		dedupStore = redisStore
		logger.Info(ctx, "webhook dedup backed by redis", "addr", addr)
	} else {
		dedupStore = webhook_repo.NewDeliveryRepo(txManager)
		logger.Info(ctx, "webhook dedup backed by postgres")
	}

	archiveRepo, err := webhook_repo.NewArchiveRepo(txManager)
	if err != nil {
		return err
	}

	syncFilter, err := webhooks.NewSyncFilter()
	if err != nil {
		return err
	}

	reconciler := syncdomain.NewReconciler(
		productRepo, storeRepo, orderService, stockService, resolver, txManager,
	)
	gateway := webhooks.NewGateway(storeRepo, dedupStore, reconciler, syncFilter, archiveRepo)

	validator := middleware.NewTokenValidator(mustEnv(ctx, "JWT_SECRET"))

	router := v1.NewRouter(v1.RouterConfig{
		Logger:       log,
		JWTValidator: validator,
		Pool:         pool,
		Stock:        stockService,
		Orders:       orderService,
		Gateway:      gateway,
		Stores:       storeRepo,
	})

	srv := &http.Server{
		Addr:              ":" + getEnv("PORT", "8080"),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info(ctx, "shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info(ctx, "server stopped")
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnv(ctx context.Context, key string) string {
	v := os.Getenv(key)
	if v == "" {
		logger.Fatal(ctx, "required environment variable is not set", "key", key)
	}
	return v
}
