package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	inventoryapp "github.com/dealership/backend/internal/application/inventory"
	appshared "github.com/dealership/backend/internal/application/shared"
	tradeapp "github.com/dealership/backend/internal/application/trade"
	"github.com/dealership/backend/internal/infrastructure/cache"
	"github.com/dealership/backend/internal/infrastructure/config"
	"github.com/dealership/backend/internal/infrastructure/lock"
	"github.com/dealership/backend/internal/infrastructure/logger"
	"github.com/dealership/backend/internal/infrastructure/persistence"
	"github.com/dealership/backend/internal/infrastructure/telemetry"
	"github.com/dealership/backend/internal/interfaces/http/handler"
	"github.com/dealership/backend/internal/interfaces/http/middleware"
	"github.com/dealership/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// The OTLP log bridge needs a logger of its own, so the final logger is
	// built once the provider exists.
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize log export", zap.Error(err))
	}
	log := bootLog
	if loggerProvider.IsEnabled() {
		otelCore := telemetry.NewZapOTELCore(loggerProvider, logger.ParseLevel(cfg.Log.Level))
		if log, err = logger.New(logCfg, otelCore); err != nil {
			bootLog.Fatal("Failed to initialize logger", zap.Error(err))
		}
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting dealership backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilingEndpoint,
		ApplicationName: cfg.Telemetry.ServiceName,
		ProfileMemory:   true,
		ProfileRuntime:  true,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && tracerProvider.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	dbOpts := []persistence.Option{
		persistence.WithLogger(log, logger.MapGormLogLevel(cfg.Log.SQLLevel)),
		persistence.WithSlowQueryThreshold(cfg.Telemetry.DBSlowQueryThresh),
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbOpts = append(dbOpts, persistence.WithTracing(telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		}, log)))
	}
	db, err := persistence.NewDatabase(&cfg.Database, dbOpts...)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err), zap.String("addr", cfg.Redis.Addr()))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing redis", zap.Error(err))
			}
		}()
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}
	locker := newLocker(cfg, redisClient, log)
	idempotency := cache.NewIdempotencyStore(redisClient, log)
	defer func() {
		_ = idempotency.Close()
	}()

	scope := persistence.NewGormTransactionScope(db.DB)
	stockItemService := inventoryapp.NewStockItemService(scope, cfg.Quota.BudgetBytes, log)
	settlementService := tradeapp.NewSettlementService(scope, locker, idempotency, tradeapp.SettlementConfig{
		LockTTL:        cfg.Settlement.LockTTL,
		IdempotencyTTL: cfg.Settlement.IdempotencyTTL,
	}, log)
	saleService := tradeapp.NewSaleService(scope, log)
	tradeInService := tradeapp.NewTradeInService(scope, log)

	if meterProvider.IsEnabled() {
		businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:  meterProvider.Meter("dealership.business"),
			Logger: log,
		})
		if err != nil {
			log.Warn("Failed to create business metrics", zap.Error(err))
		} else {
			stockItemService.SetBusinessMetrics(businessMetrics)
			settlementService.SetBusinessMetrics(businessMetrics)
		}
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters: the request id must exist before logging and tracing
	// read it, and recovery must wrap everything after it.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer rateLimiter.Stop()
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		Enabled:     tracerProvider.IsEnabled(),
		ServiceName: cfg.Telemetry.ServiceName,
	}))
	engine.Use(middleware.SpanAttributes())
	if meterProvider.IsEnabled() {
		engine.Use(middleware.HTTPMetrics(meterProvider.Meter("dealership.http")))
	}
	engine.Use(middleware.ProfilingWithConfig(middleware.ProfilingConfig{
		Enabled:   profiler.IsEnabled(),
		SkipPaths: []string{"/health"},
	}))

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, db)
	engine.GET("/health", systemHandler.Health)

	router.NewRouter(engine, router.WithAPIVersion("v1")).RegisterAll(router.Handlers{
		StockItems: handler.NewStockItemHandler(stockItemService, settlementService),
		Sales:      handler.NewSaleHandler(saleService),
		TradeIns:   handler.NewTradeInHandler(tradeInService),
		Vehicles:   handler.NewVehicleHandler(settlementService),
		System:     systemHandler,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	shutdownTelemetry(shutdownCtx, log, tracerProvider, meterProvider, loggerProvider, profiler)

	log.Info("Server exited gracefully")
}

// newLocker picks the settlement lock. Without redis the lock is
// per process and row locks serialise settlements across instances.
func newLocker(cfg *config.Config, client *redis.Client, log *zap.Logger) appshared.Locker {
	if client != nil && cfg.Settlement.RedisLockEnabled {
		log.Info("Using redis settlement lock", zap.Duration("ttl", cfg.Settlement.LockTTL))
		return lock.NewRedisLocker(client)
	}
	log.Info("Using in-process settlement lock")
	return lock.NewLocalLocker()
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

func shutdownTelemetry(ctx context.Context, log *zap.Logger, tp, mp, lp shutdowner, profiler *telemetry.Profiler) {
	for name, p := range map[string]shutdowner{"tracer": tp, "meter": mp, "logger": lp} {
		if err := p.Shutdown(ctx); err != nil {
			log.Error("Error shutting down telemetry provider", zap.String("provider", name), zap.Error(err))
		}
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
}
