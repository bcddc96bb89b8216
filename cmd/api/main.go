// Command api runs the DevFlow moderation API server.
//
// It serves the ranked moderator content feed over HTTP, backed by
// PostgreSQL for content storage and optionally Redis for count caching
// and distributed rate limiting.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/devflow-collective/devflow/internal/api"
	"github.com/devflow-collective/devflow/internal/auth"
	"github.com/devflow-collective/devflow/internal/config"
	"github.com/devflow-collective/devflow/internal/content"
	"github.com/devflow-collective/devflow/internal/dashboard"
	"github.com/devflow-collective/devflow/internal/health"
	"github.com/devflow-collective/devflow/internal/middleware"
	"github.com/devflow-collective/devflow/internal/ranking"
	"github.com/devflow-collective/devflow/internal/tracing"
)

const serviceName = "devflow-api"

// routerDeps holds everything the HTTP router needs. Split out from
// main so tests can assemble a router over in-memory dependencies.
type routerDeps struct {
	dashboard       *dashboard.Service
	jwtService      *auth.JWTService
	limitStore      middleware.RateLimitStore
	moderationLimit middleware.RateLimitConfig
	metrics         *middleware.Metrics
	healthConfig    api.HealthHandlersConfig
	registry        *prometheus.Registry
	logger          *slog.Logger
}

// buildRouter assembles the route mux. Per-route middleware (auth, role
// check, rate limit) is applied here; the cross-cutting chain (request
// ID, tracing, logging, metrics, CORS) wraps the whole mux in
// buildHandler.
func buildRouter(deps routerDeps) *http.ServeMux {
	healthHandlers := api.NewHealthHandlers(deps.healthConfig)
	moderationHandlers := api.NewModerationHandlers(deps.dashboard, deps.logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandlers.Health)
	mux.HandleFunc("/ready", healthHandlers.Ready)
	if deps.registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(deps.registry, promhttp.HandlerOpts{}))
	}

	// Moderation feed: authenticated moderators only, per-user rate limit.
	var moderation http.Handler = http.HandlerFunc(moderationHandlers.GetContent)
	moderation = middleware.RequireModerator()(moderation)
	if deps.limitStore != nil {
		moderation = middleware.RateLimiterWithMetrics(deps.limitStore, deps.moderationLimit, middleware.UserKeyFunc(), deps.metrics, "/moderation/content")(moderation)
	}
	moderation = middleware.Authenticate(deps.jwtService)(moderation)
	mux.Handle("/moderation/content", moderation)

	return mux
}

// buildHandler wraps the router in the cross-cutting middleware chain.
// Outermost first: request ID, tracing, logging, HTTP metrics, CORS,
// then the optional global rate limiter.
func buildHandler(mux *http.ServeMux, logger *slog.Logger, metrics *middleware.Metrics, corsOrigins []string, globalLimiter func(http.Handler) http.Handler) http.Handler {
	var handler http.Handler = mux
	if globalLimiter != nil {
		handler = globalLimiter(handler)
	}
	handler = middleware.CORS(middleware.DefaultCORSConfig(corsOrigins))(handler)
	if metrics != nil {
		handler = middleware.HTTPMetrics(metrics)(handler)
	}
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Tracing(serviceName)(handler)
	handler = middleware.RequestID(handler)
	return handler
}

func main() {
	configPath := flag.String("config", "", "path to optional YAML config file")
	showHelp := flag.Bool("help", false, "show usage information")
	flag.Parse()

	if *showHelp {
		fmt.Println("DevFlow moderation API server")
		fmt.Println()
		fmt.Println("Usage: api [flags]")
		fmt.Println()
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Required environment: DATABASE_URL, JWT_SECRET")
		fmt.Println("Optional environment: REDIS_URL, DEVFLOW_PORT, DEVFLOW_ENV, and DEVFLOW_* overrides")
		return
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	summaryAttrs := make([]any, 0)
	for k, v := range cfg.LogSummary() {
		summaryAttrs = append(summaryAttrs, k, v)
	}
	logger.Info("configuration loaded", summaryAttrs...)

	// Tracing
	provider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  serviceName,
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		ExporterType: cfg.TracingExporter,
		OTLPEndpoint: cfg.TracingEndpoint,
		SamplingRate: cfg.TracingSamplingRate,
		InsecureMode: cfg.TracingInsecure,
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shut down tracing provider", "error", err)
		}
	}()

	// Database
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		// Not fatal: the pool reconnects and /ready reports the outage.
		logger.Warn("database unreachable at startup", "error", err)
	}
	cancelPing()

	// Redis (optional)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(opt)
		defer redisClient.Close()
	}

	// Metrics
	registry := prometheus.NewRegistry()
	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(registry); err != nil {
		logger.Error("failed to register HTTP metrics", "error", err)
		os.Exit(1)
	}
	dashboardMetrics := dashboard.NewMetrics()
	if err := dashboardMetrics.Register(registry); err != nil {
		logger.Error("failed to register dashboard metrics", "error", err)
		os.Exit(1)
	}

	// Scoring weights, with optional calibration file overrides
	weights, err := ranking.LoadCalibration(cfg.CalibrationPath)
	if err != nil {
		logger.Warn("calibration load failed, using default weights", "error", err)
	}

	// Dashboard service over Postgres repositories
	var counts *dashboard.CountCache
	if redisClient != nil {
		counts = dashboard.NewCountCache(redisClient, time.Duration(cfg.CountCacheTTLSeconds)*time.Second, logger)
	}
	dashboardService := dashboard.NewService(dashboard.ServiceConfig{
		Questions: content.NewPostgresQuestionRepository(db),
		Answers:   content.NewPostgresAnswerRepository(db),
		Weights:   weights,
		Logger:    logger,
		Metrics:   dashboardMetrics,
		Counts:    counts,
		FetchCap:  cfg.FetchCap,
	})

	// JWT auth, with rotation support when a previous secret is configured
	var jwtService *auth.JWTService
	if cfg.JWTPreviousSecret != "" {
		jwtService = auth.NewJWTServiceWithRotation(cfg.JWTSecret, cfg.JWTPreviousSecret)
	} else {
		jwtService = auth.NewJWTService(cfg.JWTSecret)
	}

	// Rate limiting: Redis-backed when available, in-memory otherwise
	var limitStore middleware.RateLimitStore
	if redisClient != nil {
		limitStore = middleware.NewRedisRateLimitStore(redisClient, logger, httpMetrics)
	} else {
		memStore := middleware.NewInMemoryRateLimitStore()
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				memStore.Cleanup()
			}
		}()
		limitStore = memStore
	}
	moderationLimit := middleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimitModerationRPM,
		WindowDuration:    time.Minute,
	}
	globalLimit := middleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimitGlobalRPM,
		WindowDuration:    time.Minute,
	}

	healthConfig := api.HealthHandlersConfig{
		DBChecker: health.NewDBChecker(db),
	}
	if redisClient != nil {
		healthConfig.RedisChecker = health.NewRedisChecker(redisClient)
	}

	mux := buildRouter(routerDeps{
		dashboard:       dashboardService,
		jwtService:      jwtService,
		limitStore:      limitStore,
		moderationLimit: moderationLimit,
		metrics:         httpMetrics,
		healthConfig:    healthConfig,
		registry:        registry,
		logger:          logger,
	})
	handler := buildHandler(mux, logger, httpMetrics, cfg.CORSAllowedOrigins,
		middleware.RateLimiterWithMetrics(limitStore, globalLimit, middleware.IPKeyFunc(), httpMetrics, "global"))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	logger.Info("server stopped")
}
