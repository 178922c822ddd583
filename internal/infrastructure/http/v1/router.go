// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"storesync/internal/domain/catalogs/store"
	"storesync/internal/domain/ledger"
	"storesync/internal/domain/orders"
	"storesync/internal/domain/webhooks"
	"storesync/internal/infrastructure/http/v1/handlers"
	"storesync/internal/infrastructure/http/v1/middleware"
	"storesync/internal/infrastructure/storage/postgres"
	"storesync/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Logger       *logger.Logger
	JWTValidator middleware.JWTValidator

	Pool *postgres.Pool

	Stock   *ledger.Service
	Orders  *orders.Service
	Gateway *webhooks.Gateway
	Stores  store.Repository
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters).
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	base := handlers.NewBaseHandler()

	// Health endpoints, no auth.
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	// Webhook endpoints authenticate by HMAC signature, not by JWT; the
	// gateway establishes branch scope from the store itself.
	webhookHandler := handlers.NewWebhookHandler(base, cfg.Gateway)
	router.POST("/webhooks/:platform/:storeID", webhookHandler.Receive)

	// API v1, JWT protected. The token's branch claim scopes every call.
	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTValidator))
	{
		stockHandler := handlers.NewStockHandler(base, cfg.Stock, cfg.Stores)
		stock := api.Group("/stock")
		{
			stock.POST("/update", stockHandler.Update)
			stock.POST("/bulk-update", stockHandler.BulkUpdate)
			stock.GET("/balance", stockHandler.Balance)
			stock.GET("/movements", stockHandler.Movements)
		}

		orderHandler := handlers.NewOrderHandler(base, cfg.Orders)
		ordersGroup := api.Group("/orders")
		{
			ordersGroup.POST("", orderHandler.Create)
			ordersGroup.GET("/:id", orderHandler.Get)
			ordersGroup.POST("/:id/status", orderHandler.TransitionStatus)
		}
	}

	return router
}
