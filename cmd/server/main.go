package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/adapter/handler"
	"github.com/rl1809/storefront/internal/adapter/pubsub"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/config"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/logger"
	"github.com/rl1809/storefront/internal/metrics"
	"github.com/rl1809/storefront/internal/port"
	"github.com/rl1809/storefront/internal/sequence"
)

const serviceName = "storefront"

// store is the composed persistence surface the services need. Both the
// in-memory store and the MySQL store satisfy it.
type store interface {
	port.CatalogRepository
	port.OrderRepository
	port.UserRepository
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(serviceName)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := logger.Init(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	}); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	zlog := logger.Get()
	defer zlog.Sync()

	metrics.Init(cfg.Metrics.Prefix)

	seq := sequence.New()

	// Persistence: MySQL when a DSN is configured, in-memory otherwise.
	var (
		repo store
		db   *sql.DB
	)
	if cfg.MySQL.DSN != "" {
		db, err = sql.Open("mysql", cfg.MySQL.DSN)
		if err != nil {
			zlog.Fatal("failed to connect mysql", zap.Error(err))
		}
		db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.PingContext(ctx); err != nil {
			zlog.Fatal("failed to ping mysql", zap.Error(err))
		}

		mysqlStore := storage.NewMySQLStore(db)
		if err := mysqlStore.EnsureSchema(ctx); err != nil {
			zlog.Fatal("failed to ensure schema", zap.Error(err))
		}

		floors, err := mysqlStore.SequenceFloors(ctx)
		if err != nil {
			zlog.Fatal("failed to read sequence floors", zap.Error(err))
		}
		seq.SeedUserID(floors.UserID)
		seq.SeedOrderID(floors.OrderID)
		seq.SeedProductSeq(floors.ProductSeq)

		repo = mysqlStore
		zlog.Info("using mysql store")
	} else {
		repo = storage.NewMemoryStore()
		zlog.Info("using in-memory store")
	}

	// Events: always fan out on the in-process bus, and to Redis when
	// configured.
	bus := pubsub.NewBus()
	publishers := []port.EventPublisher{bus}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			zlog.Fatal("failed to connect redis", zap.Error(err))
		}
		publishers = append(publishers, pubsub.NewRedisPublisher(rdb, cfg.Redis.EventChannel))
		zlog.Info("publishing events to redis", zap.String("channel", cfg.Redis.EventChannel))
	}
	events := pubsub.Fanout(publishers)

	// Core services
	catalogService := service.NewCatalogService(repo, repo, seq, events, zlog)
	cartService := service.NewCartService(repo)
	orderService := service.NewOrderService(repo, repo, cartService, seq, service.PricingConfig{
		FreeShippingThreshold: cfg.Pricing.FreeShippingThreshold,
		DeliveryFee:           cfg.Pricing.DeliveryFee,
	}, events, zlog)
	reportService := service.NewReportService(repo, repo)
	userService := service.NewUserService(repo, seq, events, zlog)

	if cfg.Server.SeedDemo {
		if err := seedDemoData(ctx, catalogService); err != nil {
			zlog.Warn("failed to seed demo data", zap.Error(err))
		}
	}

	// HTTP server
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(logger.Middleware())
	e.Use(metrics.Middleware)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	httpHandler := handler.NewHTTPHandler(catalogService, cartService,
		orderService, reportService, userService, zlog)
	httpHandler.Register(e)

	go func() {
		zlog.Info("HTTP server listening", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zlog.Error("HTTP shutdown error", zap.Error(err))
	}
	zlog.Info("HTTP server stopped")

	bus.Close()

	if rdb != nil {
		rdb.Close()
	}
	if db != nil {
		db.Close()
	}
	zlog.Info("connections closed")
}

// seedDemoData loads a small produce catalog for local development.
func seedDemoData(ctx context.Context, catalog *service.CatalogService) error {
	categories := []domain.Category{
		{ID: "CAT01", Name: "Vegetables", Description: "Fresh vegetables"},
		{ID: "CAT02", Name: "Fruits", Description: "Seasonal fruits"},
	}
	for _, c := range categories {
		if _, err := catalog.CreateCategory(ctx, c); err != nil {
			return err
		}
	}

	products := []service.ProductInput{
		{Name: "Carrot", Description: "Organic carrots", Price: decimal.NewFromInt(1200),
			PriceUnit: "kg", Stock: 150, IsOrganic: true, CategoryID: "CAT01"},
		{Name: "Tomato", Description: "Vine tomatoes", Price: decimal.NewFromInt(2500),
			PriceUnit: "kg", Stock: 80, CategoryID: "CAT01"},
		{Name: "Apple", Description: "Red apples", Price: decimal.NewFromInt(4000),
			PriceUnit: "kg", Stock: 60, CategoryID: "CAT02"},
	}
	for _, p := range products {
		if _, err := catalog.CreateProduct(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
