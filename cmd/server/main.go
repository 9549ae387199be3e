package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pos/backend/internal/domain/tenant"
	"github.com/pos/backend/internal/infrastructure/config"
	"github.com/pos/backend/internal/infrastructure/logger"
	"github.com/pos/backend/internal/infrastructure/persistence"
	"github.com/pos/backend/internal/infrastructure/telemetry"
	"github.com/pos/backend/internal/interfaces/http/handler"
	"github.com/pos/backend/internal/interfaces/http/middleware"
	"github.com/pos/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync(log) }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()

	tracer, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tracer.Shutdown(shutdownCtx)
	}()

	openOpts := persistence.OpenOptions{
		Pool:       &cfg.Database,
		GormLogger: logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level)),
		Tracing:    cfg.Telemetry.Enabled,
	}
	opener := func(uri string) (*gorm.DB, error) {
		return persistence.Open(uri, openOpts)
	}

	defaultDB, err := opener(cfg.Database.DSN())
	if err != nil {
		return err
	}
	defaultHandle := &persistence.Handle{
		Subdomain: cfg.Tenant.DefaultSubdomain,
		DB:        defaultDB,
	}

	descriptors := make([]tenant.Descriptor, 0, len(cfg.Tenant.Stores))
	for _, s := range cfg.Tenant.Stores {
		descriptors = append(descriptors, tenant.Descriptor{
			Subdomain:     s.Subdomain,
			ConnectionURI: s.ConnectionURI,
			StoreName:     s.StoreName,
			IsActive:      s.Active,
		})
	}
	registry := tenant.NewRegistry(descriptors)

	pool := persistence.NewPoolManager(registry, defaultHandle, opener,
		cfg.Database.AcquireTimeout, log)
	defer pool.Close()

	resolver := tenant.NewResolver(
		cfg.Tenant.DefaultSubdomain,
		cfg.Tenant.DevOriginMarker,
		cfg.Tenant.StoreCodes,
	)

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = redisClient.Close() }()
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(log))
	engine.Use(middleware.CORS())

	r := router.NewRouter(engine, middleware.StoreResolver(resolver, pool, log))
	r.RegisterSystem(handler.NewSystemHandler(log, pool))
	r.Register(handler.NewOrderHandler(log, redisClient))
	r.Register(handler.NewReceiptHandler(log))
	r.Register(handler.NewProductHandler(log))
	r.Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.App.Env),
			zap.Int("stores", len(cfg.Tenant.Stores)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
