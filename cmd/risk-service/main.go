// Package main is the entry point for the Risk Service
// Risk Service scores tourist safety risk and analyzes alert patterns
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/safetrail/safetrail/internal/common/config"
	"github.com/safetrail/safetrail/internal/common/database"
	apperrors "github.com/safetrail/safetrail/internal/common/errors"
	"github.com/safetrail/safetrail/internal/common/events"
	"github.com/safetrail/safetrail/internal/common/logger"
	"github.com/safetrail/safetrail/internal/common/tracing"
	"github.com/safetrail/safetrail/internal/health"
	"github.com/safetrail/safetrail/internal/metrics"
	"github.com/safetrail/safetrail/internal/middleware"
	"github.com/safetrail/safetrail/internal/safety"
	"github.com/safetrail/safetrail/internal/server"
)

var (
	Version    = safety.DefaultVersion
	BuildTime  = "unknown"
	CommitHash = "unknown"
)

func main() {
	cfg, err := config.Load(safety.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.WithService(logger.New(cfg.Environment, cfg.LogLevel), safety.ServiceName)
	defer log.Sync()

	log.Info("Starting Risk Service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("commit", CommitHash),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("Risk Service failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	shutdownTracer, err := tracing.Init(ctx, tracing.Config{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.TracingEndpoint,
		ServiceName: safety.ServiceName,
		Environment: cfg.Environment,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	registry, err := cfg.Registry()
	if err != nil {
		return fmt.Errorf("failed to build risk registry: %w", err)
	}

	// Redis is optional; without it the rate limiter fails open
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("Redis unavailable, continuing without it", zap.Error(err))
		}
	}

	bus := events.NewMemoryBus()
	bus.SubscribeAll(eventLogger(log))

	svc := safety.NewService(registry, log,
		safety.WithEventBus(bus),
		safety.WithVersion(Version),
		safety.WithDefaultTimeRangeDays(cfg.DefaultTimeRangeDays),
	)

	healthService := health.NewHealthService(safety.ServiceName, log)
	healthService.SetVersion(Version)
	healthService.RegisterCheck(health.NewRegistryChecker(registry))
	if redisClient != nil {
		healthService.RegisterCheck(health.NewRedisChecker(redisClient, false))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(cfg, log, svc, healthService, redisClient)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	gs := server.New(server.Config{
		Server:          httpServer,
		Logger:          log,
		ShutdownTimeout: 30 * time.Second,
	})
	gs.AddShutdownable(server.CloseTracer(shutdownTracer))
	if redisClient != nil {
		gs.AddShutdownable(server.CloseRedis(redisClient))
	}
	gs.AddShutdownFunc("event_bus", func(context.Context) error {
		_ = bus.Publish(context.Background(), events.NewEvent(events.EventSystemShutdown, safety.ServiceName, nil))
		return bus.Close()
	})

	_ = bus.Publish(ctx, events.NewEvent(events.EventSystemStartup, safety.ServiceName, map[string]interface{}{
		"version": Version,
		"port":    cfg.Port,
		"zones":   len(registry.Zones()),
	}))

	return gs.ListenAndServe(ctx)
}

// newRouter assembles the middleware chain and every route of the service
func newRouter(cfg *config.Config, log *zap.Logger, svc *safety.Service, healthService *health.HealthService, redisClient *redis.Client) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(log))
	router.Use(otelgin.Middleware(safety.ServiceName))
	router.Use(logger.GinMiddleware(log))
	router.Use(metrics.Middleware(safety.ServiceName))
	router.Use(middleware.CORSWithOrigins(cfg.GetCORSOrigins()...))

	if cfg.EnableRateLimit {
		rl := middleware.DefaultRateLimitConfig()
		if cfg.RateLimitRequests > 0 {
			rl.Requests = cfg.RateLimitRequests
		}
		if cfg.RateLimitWindow > 0 {
			rl.Window = time.Duration(cfg.RateLimitWindow) * time.Second
		}
		router.Use(middleware.DistributedRateLimit(redisClient, rl, log))
	}

	router.GET("/metrics", metrics.Handler())
	healthService.RegisterStandardRoutes(router, "")
	safety.NewHandler(svc, log).RegisterRoutes(router)
	router.NoRoute(func(c *gin.Context) {
		apperrors.HandleError(c, apperrors.NotFound("Route "+c.Request.URL.Path))
	})

	return router
}

// eventLogger writes every domain event to the service log
func eventLogger(log *zap.Logger) events.EventHandler {
	log = logger.WithComponent(log, "events")
	return func(_ context.Context, event events.Event) error {
		log.Debug("Domain event",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
			zap.String("request_id", event.RequestID),
			zap.String("trace_id", event.TraceID),
			zap.Any("payload", event.Payload),
		)
		return nil
	}
}
