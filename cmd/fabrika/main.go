package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/fabrika-mes/fabrika/internal/app"
	"github.com/fabrika-mes/fabrika/internal/auth"
	"github.com/fabrika-mes/fabrika/internal/masterdata/bom"
	"github.com/fabrika-mes/fabrika/internal/masterdata/customers"
	"github.com/fabrika-mes/fabrika/internal/masterdata/materials"
	"github.com/fabrika-mes/fabrika/internal/masterdata/products"
	"github.com/fabrika-mes/fabrika/internal/masterdata/suppliers"
	"github.com/fabrika-mes/fabrika/internal/observability"
	"github.com/fabrika-mes/fabrika/internal/platform/cache"
	"github.com/fabrika-mes/fabrika/internal/platform/db"
	"github.com/fabrika-mes/fabrika/internal/production"
	"github.com/fabrika-mes/fabrika/internal/purchasing"
	"github.com/fabrika-mes/fabrika/internal/sales"
	"github.com/fabrika-mes/fabrika/internal/shared"
	"github.com/fabrika-mes/fabrika/internal/stock"
	"github.com/fabrika-mes/fabrika/jobs"
	"github.com/fabrika-mes/fabrika/migrations"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := db.Migrate(cfg.PGDSN, migrations.FS); err != nil {
		logger.Error("apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, summary cache disabled", slog.Any("error", err))
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	guard := auth.NewMiddleware(tokens)
	authService := auth.NewService(auth.NewRepository(pool), tokens)
	authHandler := auth.NewHandler(logger, authService, guard)

	summaryCache := stock.NewSummaryCache(redisClient, cfg.SummaryCacheTTL)
	stockService := stock.NewService(stock.NewRepository(pool), auditLogger, summaryCache)
	stockHandler := stock.NewHandler(logger, stockService, guard)

	purchasingService := purchasing.NewService(purchasing.NewRepository(pool), auditLogger)
	purchasingHandler := purchasing.NewHandler(logger, purchasingService, guard)

	salesService := sales.NewService(sales.NewRepository(pool), auditLogger)
	salesHandler := sales.NewHandler(logger, salesService, guard)

	productionService := production.NewService(production.NewRepository(pool), auditLogger)
	productionHandler := production.NewHandler(logger, productionService, guard)

	materialsHandler := materials.NewHandler(logger, materials.NewService(materials.NewRepository(pool)), guard)
	productsHandler := products.NewHandler(logger, products.NewService(products.NewRepository(pool)), guard)
	suppliersHandler := suppliers.NewHandler(logger, suppliers.NewService(suppliers.NewRepository(pool)), guard)
	customersHandler := customers.NewHandler(logger, customers.NewService(customers.NewRepository(pool)), guard)
	bomHandler := bom.NewHandler(logger, bom.NewService(bom.NewRepository(pool)), guard)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Pool:              pool,
		Guard:             guard,
		AuthHandler:       authHandler,
		StockHandler:      stockHandler,
		PurchasingHandler: purchasingHandler,
		SalesHandler:      salesHandler,
		ProductionHandler: productionHandler,
		MaterialsHandler:  materialsHandler,
		ProductsHandler:   productsHandler,
		SuppliersHandler:  suppliersHandler,
		CustomersHandler:  customersHandler,
		BOMHandler:        bomHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
