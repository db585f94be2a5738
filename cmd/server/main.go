// Package main is the entry point for the mise API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mise/internal/core/actor"
	"mise/internal/core/id"
	"mise/internal/core/security"
	"mise/internal/core/workflow"
	"mise/internal/domain"
	"mise/internal/domain/auth"
	"mise/internal/domain/catalogs/location"
	"mise/internal/domain/catalogs/product"
	"mise/internal/domain/documents/goodsreceipt"
	"mise/internal/domain/documents/order"
	"mise/internal/domain/documents/stockcount"
	"mise/internal/domain/documents/waste"
	"mise/internal/domain/ledger"
	"mise/internal/domain/posting"
	"mise/internal/infrastructure/config"
	v1 "mise/internal/infrastructure/http/v1"
	"mise/internal/infrastructure/numerator"
	"mise/internal/infrastructure/storage/postgres"
	"mise/internal/infrastructure/storage/postgres/auth_repo"
	"mise/internal/infrastructure/storage/postgres/catalog_repo"
	"mise/internal/infrastructure/storage/postgres/document_repo"
	"mise/internal/infrastructure/storage/postgres/ledger_repo"
	"mise/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: !cfg.IsProduction(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting mise server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	if cfg.DBMaxConns > 0 {
		poolCfg.MaxConns = cfg.DBMaxConns
	}
	if cfg.DBMinConns > 0 {
		poolCfg.MinConns = cfg.DBMinConns
	}
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Auth ---
	jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecret)
	jwtConfig.AccessTokenTTL = cfg.JWTTTL()
	jwtService := auth.NewJWTService(jwtConfig)

	userRepo := auth_repo.NewUserRepo(txManager)
	authService := auth.NewService(userRepo, txManager, jwtService, auth.DefaultServiceConfig())

	// --- Catalogs ---
	locationRepo := catalog_repo.NewLocationRepo(txManager)
	locationService := location.NewService(locationRepo, txManager)

	productRepo := catalog_repo.NewProductRepo(txManager)
	productService := product.NewService(productRepo, txManager)

	// --- Ledger and posting ---
	ledgerRepo := ledger_repo.NewLedgerRepo(txManager)
	ledgerService := ledger.NewService(ledgerRepo)
	postingEngine := posting.NewEngine(ledgerService, txManager)

	numeratorService := numerator.New(pool)

	var flags security.FeatureFlagProvider = security.NewInMemoryFlags()
	if cfg.FEFOFlagPolicy != "" {
		flags, err = security.NewCELFlags(map[string]string{
			security.FlagLotAllocationFEFO: cfg.FEFOFlagPolicy,
		}, flags)
		if err != nil {
			log.Fatalw("invalid FEFO flag policy", "error", err)
		}
	}

	// --- Documents ---
	stockCountRepo := document_repo.NewStockCountRepo(txManager)
	stockCountService := stockcount.NewService(stockCountRepo, postingEngine, ledgerService, numeratorService, txManager)

	orderRepo := document_repo.NewOrderRepo(txManager)
	orderService := order.NewService(orderRepo, postingEngine, ledgerService, numeratorService, txManager, flags)

	wasteRepo := document_repo.NewWasteRepo(txManager)
	wasteService := waste.NewService(wasteRepo, postingEngine, numeratorService, txManager)

	receiptRepo := document_repo.NewGoodsReceiptRepo(txManager)
	receiptService := goodsreceipt.NewService(receiptRepo, postingEngine, numeratorService, txManager)

	// --- Audit trail on posting events ---
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}
	registerAuditHooks(auditService, stockCountService, orderService, wasteService, receiptService)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:                pool,
		Logger:              log,
		TokenValidator:      jwtService,
		AuthService:         authService,
		LocationService:     locationService,
		ProductService:      productService,
		StockCountService:   stockCountService,
		OrderService:        orderService,
		WasteService:        wasteService,
		GoodsReceiptService: receiptService,
		LedgerService:       ledgerService,
		AuditService:        auditService,
	})

	// --- HTTP server ---
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// registerAuditHooks writes an audit row after each successful posting
// transition. The hooks run after the posting transaction has committed;
// a failed audit write is logged and does not undo the posting.
func registerAuditHooks(
	audit *postgres.AuditService,
	stockCounts *stockcount.Service,
	orders *order.Service,
	wastes *waste.Service,
	receipts *goodsreceipt.Service,
) {
	logTransition := func(entityType string, action postgres.AuditAction) func(context.Context, id.ID, workflow.Status, string) error {
		return func(ctx context.Context, entityID id.ID, status workflow.Status, number string) error {
			act, ok := actor.FromContext(ctx)
			if !ok {
				return nil
			}
			return audit.LogChange(ctx, act, entityType, entityID, action, map[string]any{
				"status": status,
				"number": number,
			})
		}
	}

	scPosted := logTransition("doc.stock_count", postgres.AuditActionPost)
	stockCounts.Hooks().On(domain.AfterPost, func(ctx context.Context, doc *stockcount.StockCount) error {
		return scPosted(ctx, doc.ID, doc.Status, doc.Number)
	})

	orderPosted := logTransition("doc.order", postgres.AuditActionPost)
	orders.Hooks().On(domain.AfterPost, func(ctx context.Context, doc *order.Order) error {
		return orderPosted(ctx, doc.ID, doc.Status, doc.Number)
	})
	orderVoided := logTransition("doc.order", postgres.AuditActionVoid)
	orders.Hooks().On(domain.AfterVoid, func(ctx context.Context, doc *order.Order) error {
		return orderVoided(ctx, doc.ID, doc.Status, doc.Number)
	})

	wastePosted := logTransition("doc.waste_record", postgres.AuditActionPost)
	wastes.Hooks().On(domain.AfterPost, func(ctx context.Context, doc *waste.WasteRecord) error {
		return wastePosted(ctx, doc.ID, doc.Status, doc.Number)
	})

	receiptPosted := logTransition("doc.goods_receipt", postgres.AuditActionPost)
	receipts.Hooks().On(domain.AfterPost, func(ctx context.Context, doc *goodsreceipt.GoodsReceipt) error {
		return receiptPosted(ctx, doc.ID, doc.Status, doc.Number)
	})
}
