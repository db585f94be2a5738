// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"mise/internal/domain/auth"
	"mise/internal/domain/catalogs/location"
	"mise/internal/domain/catalogs/product"
	"mise/internal/domain/documents/goodsreceipt"
	"mise/internal/domain/documents/order"
	"mise/internal/domain/documents/stockcount"
	"mise/internal/domain/documents/waste"
	"mise/internal/domain/ledger"
	"mise/internal/infrastructure/http/v1/handlers"
	"mise/internal/infrastructure/http/v1/middleware"
	"mise/internal/infrastructure/storage/postgres"
	"mise/pkg/logger"
)

// RouterConfig holds the wired services the API serves.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger

	// TokenValidator validates bearer tokens for protected routes.
	TokenValidator middleware.TokenValidator

	AuthService     *auth.Service
	LocationService *location.Service
	ProductService  *product.Service

	StockCountService   *stockcount.Service
	OrderService        *order.Service
	WasteService        *waste.Service
	GoodsReceiptService *goodsreceipt.Service

	LedgerService *ledger.Service

	AuditService *postgres.AuditService
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	base := handlers.NewBaseHandler()

	v1 := router.Group("/api/v1")
	{
		// Public auth endpoints
		if cfg.AuthService != nil {
			authHandler := handlers.NewAuthHandler(base, cfg.AuthService)
			authGroup := v1.Group("/auth")
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.TokenValidator))

		registerCatalogRoutes(protected, base, cfg)
		registerDocumentRoutes(protected, base, cfg)
		registerLedgerRoutes(protected, base, cfg)

		if cfg.AuditService != nil {
			h := handlers.NewAuditHandler(base, cfg.AuditService)
			protected.GET("/audit/:entityType/:id", h.EntityHistory)
		}
	}

	return router
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	catalogs := rg.Group("/catalog")

	if cfg.LocationService != nil {
		h := handlers.NewLocationHandler(base, cfg.LocationService)
		g := catalogs.Group("/locations")
		g.GET("", h.List)
		g.POST("", h.Create)
		g.GET("/:id", h.Get)
		g.PUT("/:id", h.Update)
		g.POST("/:id/deletion-mark", h.SetDeletionMark)
	}

	if cfg.ProductService != nil {
		h := handlers.NewProductHandler(base, cfg.ProductService)
		g := catalogs.Group("/products")
		g.GET("", h.List)
		g.POST("", h.Create)
		g.GET("/barcode/:barcode", h.GetByBarcode)
		g.GET("/:id", h.Get)
		g.PUT("/:id", h.Update)
		g.POST("/:id/deletion-mark", h.SetDeletionMark)
	}
}

func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	docs := rg.Group("/document")

	if cfg.StockCountService != nil {
		h := handlers.NewStockCountHandler(base, cfg.StockCountService)
		g := docs.Group("/stock-counts")
		g.GET("", h.List)
		g.POST("", h.Create)
		g.GET("/:id", h.Get)
		g.POST("/:id/lines", h.AddLine)
		g.POST("/:id/record-count", h.RecordCount)
		g.POST("/:id/submit", h.SubmitForReview)
		g.POST("/:id/post", h.Post)
	}

	if cfg.OrderService != nil {
		h := handlers.NewOrderHandler(base, cfg.OrderService)
		g := docs.Group("/orders")
		g.GET("", h.List)
		g.POST("", h.Create)
		g.GET("/:id", h.Get)
		g.POST("/:id/items", h.AddItem)
		g.POST("/:id/items/status", h.SetItemStatus)
		g.POST("/:id/post", h.Post)
		g.POST("/:id/void", h.Void)
	}

	if cfg.WasteService != nil {
		h := handlers.NewWasteHandler(base, cfg.WasteService)
		g := docs.Group("/waste-records")
		g.GET("", h.List)
		g.POST("", h.Create)
		g.GET("/:id", h.Get)
		g.POST("/:id/lines", h.AddLine)
		g.POST("/:id/approve", h.Approve)
		g.POST("/:id/post", h.Post)
	}

	if cfg.GoodsReceiptService != nil {
		h := handlers.NewGoodsReceiptHandler(base, cfg.GoodsReceiptService)
		g := docs.Group("/goods-receipts")
		g.GET("", h.List)
		g.POST("", h.Create)
		g.GET("/:id", h.Get)
		g.POST("/:id/lines", h.AddLine)
		g.POST("/:id/post", h.Post)
	}
}

func registerLedgerRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.LedgerService == nil {
		return
	}
	h := handlers.NewLedgerHandler(base, cfg.LedgerService)
	g := rg.Group("/stock")
	g.GET("/on-hand", h.OnHand)
	g.GET("/history", h.History)
}
