package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/mentorhub/booking-api/config"
	"github.com/mentorhub/booking-api/internal/handlers"
	"github.com/mentorhub/booking-api/internal/middleware"
	"github.com/mentorhub/booking-api/internal/services"
	"github.com/mentorhub/booking-api/internal/store"
	"github.com/mentorhub/booking-api/internal/upstream"
	"github.com/mentorhub/booking-api/pkg/circuitbreaker"
	"github.com/mentorhub/booking-api/pkg/httpclient"
	"github.com/mentorhub/booking-api/pkg/jwt"
	"github.com/mentorhub/booking-api/pkg/logger"
	"github.com/mentorhub/booking-api/pkg/metrics"
	"github.com/mentorhub/booking-api/pkg/profiling"
	"github.com/mentorhub/booking-api/pkg/tracing"
)

// registerDialogRoutes registers the booking dialog and reschedule endpoints.
// Everything here is session-protected: dialogs belong to signed-in users.
func registerDialogRoutes(
	router *gin.Engine,
	cfg *config.Config,
	dialogRateLimiter, submitRateLimiter *middleware.RateLimiter,
	dialogHandler *handlers.DialogHandler,
	rescheduleHandler *handlers.RescheduleHandler,
	tokenManager *jwt.TokenManager,
) {
	v1 := router.Group("/api/v1")
	v1.Use(middleware.UserSessionMiddleware(tokenManager, cfg.Session.CookieDomain, cfg.Session.CookieSecure))
	v1.Use(middleware.BodySizeLimitMiddleware(64 * 1024))

	v1.POST("/dialogs", dialogRateLimiter.Middleware(), dialogHandler.Open)
	v1.GET("/dialogs/:id", dialogRateLimiter.Middleware(), dialogHandler.Get)
	v1.PUT("/dialogs/:id/session-type", dialogRateLimiter.Middleware(), dialogHandler.SelectSessionType)
	v1.PUT("/dialogs/:id/schedule", dialogRateLimiter.Middleware(), dialogHandler.SetSchedule)
	v1.PUT("/dialogs/:id/contact", dialogRateLimiter.Middleware(), dialogHandler.SetContact)
	v1.POST("/dialogs/:id/advance", dialogRateLimiter.Middleware(), dialogHandler.Advance)
	v1.POST("/dialogs/:id/retreat", dialogRateLimiter.Middleware(), dialogHandler.Retreat)
	v1.POST("/dialogs/:id/reload", dialogRateLimiter.Middleware(), dialogHandler.Reload)
	v1.POST("/dialogs/:id/confirm", submitRateLimiter.Middleware(), dialogHandler.Confirm)
	v1.DELETE("/dialogs/:id", dialogRateLimiter.Middleware(), dialogHandler.Close)

	v1.GET("/mentors/:id/availability", dialogRateLimiter.Middleware(), rescheduleHandler.MentorAvailability)
	v1.POST("/bookings/:id/reschedule", submitRateLimiter.Middleware(), rescheduleHandler.Reschedule)
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting MentorHub booking API",
		zap.String("version", cfg.Observability.ServiceVersion),
		zap.String("environment", cfg.Server.AppEnv),
	)

	// Initialize distributed tracing
	tracerShutdown, err := tracing.InitTracer(
		cfg.Observability.ServiceName,
		cfg.Observability.ServiceNamespace,
		cfg.Observability.ServiceVersion,
		cfg.Observability.ServiceInstanceID,
		cfg.Server.AppEnv,
		cfg.Observability.ExporterEndpoint,
	)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	// Initialize metrics and background runtime gauges
	metrics.Init()
	metrics.RecordInfrastructureMetrics()

	// Initialize continuous profiling
	profilerStop, err := profiling.InitProfiler(
		cfg.Profiling,
		cfg.Observability.ServiceName,
		cfg.Observability.ServiceNamespace,
		cfg.Observability.ServiceVersion,
		cfg.Observability.ServiceInstanceID,
		cfg.Server.AppEnv,
	)
	if err != nil {
		logger.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer profilerStop()

	// Marketplace API client. All durable state lives behind it; this service
	// only holds open dialogs in memory.
	httpClient := httpclient.NewClientWithTimeout(time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second)
	marketplace := upstream.NewHTTPClient(
		cfg.Upstream.BaseURL,
		cfg.Upstream.APIToken,
		httpClient,
		time.Duration(cfg.Upstream.CatalogTTLSeconds)*time.Second,
	)

	// Session token validation
	tokenManager := jwt.NewTokenManager(cfg.Session.JWTSecret, cfg.Session.JWTIssuer, cfg.Session.TTLHours)

	// Dialog store: abandoned dialogs expire after the configured idle TTL
	dialogs := store.NewDialogStore(time.Duration(cfg.Booking.DialogTTLMinutes) * time.Minute)

	// Initialize services
	flowService := services.NewBookingFlowService(marketplace, dialogs, cfg)
	rescheduleService := services.NewRescheduleService(marketplace, cfg)

	// Initialize handlers
	dialogHandler := handlers.NewDialogHandler(flowService)
	rescheduleHandler := handlers.NewRescheduleHandler(rescheduleService)
	healthHandler := handlers.NewHealthHandler(func() bool {
		return circuitbreaker.IsCircuitOpen(marketplace.Breaker())
	})

	// Set up Gin router
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName))
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// CORS: only the first-party web app, plus localhost in development
	allowedOrigins := cfg.Server.AllowedOrigins
	if cfg.IsDevelopment() {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "traceparent", "tracestate"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true, // session cookies
		MaxAge:           12 * time.Hour,
	}))

	// Rate limiters: submissions are throttled much harder than dialog
	// navigation since each one is a write against the marketplace.
	generalRateLimiter := middleware.NewRateLimiter(100, 200) // 100 req/sec, burst of 200
	dialogRateLimiter := middleware.NewRateLimiter(20, 40)    // 20 req/sec, burst of 40
	submitRateLimiter := middleware.NewRateLimiter(1, 5)      // 1 req/sec, burst of 5

	// Operational endpoints (not versioned)
	api := router.Group("/api")
	api.GET("/healthcheck", generalRateLimiter.Middleware(), healthHandler.Healthcheck)
	api.GET("/metrics", generalRateLimiter.Middleware(), gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	// Booking dialog and reschedule endpoints
	registerDialogRoutes(router, cfg, dialogRateLimiter, submitRateLimiter, dialogHandler, rescheduleHandler, tokenManager)

	// Bind to all interfaces for container networking; isolation is enforced
	// at the orchestration layer.
	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
