package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appsync "github.com/agentcommerce/backend/internal/application/sync"
	"github.com/agentcommerce/backend/internal/domain/shared"
	"github.com/agentcommerce/backend/internal/infrastructure/cache"
	"github.com/agentcommerce/backend/internal/infrastructure/config"
	"github.com/agentcommerce/backend/internal/infrastructure/ecommerce"
	"github.com/agentcommerce/backend/internal/infrastructure/logger"
	"github.com/agentcommerce/backend/internal/infrastructure/persistence"
	"github.com/agentcommerce/backend/internal/infrastructure/storage"
	"github.com/agentcommerce/backend/internal/infrastructure/telemetry"
	"github.com/agentcommerce/backend/internal/interfaces/http/handler"
	"github.com/agentcommerce/backend/internal/interfaces/http/middleware"
	"github.com/agentcommerce/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting commerce sync backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize OpenTelemetry metrics (no-op provider when disabled)
	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.ExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	var syncMetrics appsync.Metrics
	if meterProvider.IsEnabled() {
		sm, err := telemetry.NewSyncMetrics(telemetry.SyncMetricsConfig{
			Meter:  meterProvider.Meter("sync"),
			Logger: log,
		})
		if err != nil {
			log.Fatal("Failed to initialize sync metrics", zap.Error(err))
		}
		syncMetrics = sm
	}

	// Database pool and query metrics
	if _, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DBMetricsConfig{
		Enabled:            cfg.Telemetry.DBMetricsEnabled,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
	}, log); err != nil {
		log.Warn("Failed to register database metrics", zap.Error(err))
	}

	// Initialize repositories
	integrationRepo := persistence.NewGormIntegrationRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	syncLogRepo := persistence.NewGormSyncLogRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Webhook deduplication store (Redis when enabled, in-memory otherwise)
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	idempotencyStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// Raw payload archive (S3-compatible when enabled)
	var payloadArchive appsync.PayloadArchive
	if cfg.Storage.Enabled {
		archive, err := storage.NewS3PayloadArchive(&cfg.Storage)
		if err != nil {
			log.Fatal("Failed to initialize payload archive", zap.Error(err))
		}
		payloadArchive = archive
		log.Info("Payload archive enabled",
			zap.String("endpoint", cfg.Storage.Endpoint),
			zap.String("bucket", cfg.Storage.Bucket),
		)
	} else {
		payloadArchive = storage.NewNoopPayloadArchive()
	}

	// Register platform adapters
	registry := ecommerce.NewRegistry()

	shopifyAdapter, err := ecommerce.NewShopifyAdapter(ecommerce.ShopifyConfig{
		APIVersion: cfg.Shopify.APIVersion,
		Timeout:    cfg.Shopify.Timeout,
		MaxRetries: cfg.Shopify.MaxRetries,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize Shopify adapter", zap.Error(err))
	}
	registry.Register(shopifyAdapter)

	wooAdapter, err := ecommerce.NewWooCommerceAdapter(ecommerce.WooCommerceConfig{
		Timeout:    cfg.WooCommerce.Timeout,
		MaxRetries: cfg.WooCommerce.MaxRetries,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize WooCommerce adapter", zap.Error(err))
	}
	registry.Register(wooAdapter)

	// Initialize application services
	reconciler := appsync.NewEntityReconciler(txScope, syncLogRepo, syncMetrics, log, appsync.ReconcilerConfig{
		ReplaceOrderItemsOnUpdate: cfg.Sync.ReplaceOrderItemsOnUpdate,
	})

	webhookService := appsync.NewWebhookService(registry, integrationRepo, syncLogRepo, reconciler, log,
		appsync.WithIdempotencyStore(idempotencyStore, shared.IdempotencyConfig{
			TTL:     cfg.Sync.DedupTTL,
			Enabled: true,
		}),
		appsync.WithPayloadArchive(payloadArchive),
		appsync.WithMetrics(syncMetrics),
	)

	orchestrator := appsync.NewSyncOrchestrator(registry, integrationRepo, productRepo, syncLogRepo, reconciler, syncMetrics, log, appsync.OrchestratorConfig{
		PageSize:      cfg.Sync.PageSize,
		MaxPages:      cfg.Sync.MaxPages,
		PushBatchSize: cfg.Sync.PushBatchSize,
	})

	// Initialize HTTP handlers
	webhookHandler := handler.NewWebhookHandler(webhookService, cfg.HTTP.MaxBodySize, log)
	syncHandler := handler.NewSyncHandler(orchestrator, syncLogRepo)
	systemHandler := handler.NewSystemHandler(db)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. Metrics - Record HTTP metrics (if enabled)
	// 8. RateLimit - Apply rate limiting (if enabled)
	// 9. Organization - Resolve the tenant organization
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// HTTP metrics (if enabled)
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			ServiceName:   cfg.Telemetry.ServiceName,
			Enabled:       true,
		}))
	}

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Organization resolution for API routes. Webhook intake is exempt:
	// platforms authenticate with HMAC signatures, not org headers.
	engine.Use(middleware.OrganizationMiddleware())

	// Health check endpoints (outside API versioning)
	engine.GET("/healthz", systemHandler.Healthz)
	engine.GET("/readyz", systemHandler.Readyz)

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(webhookHandler).
		Register(syncHandler)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
