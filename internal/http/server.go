// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/pdvsync/internal/config"
	"github.com/allisson/pdvsync/internal/connectivity"
	fiscalHTTP "github.com/allisson/pdvsync/internal/fiscal/http"
	"github.com/allisson/pdvsync/internal/metrics"
	syncHTTP "github.com/allisson/pdvsync/internal/sync/http"
)

// readinessTimeout bounds the cache ping of the readiness check.
const readinessTimeout = 2 * time.Second

// ConnectivityState reports the remote store view published on the connectivity bus.
type ConnectivityState interface {
	State() connectivity.State
}

// ServerOption configures optional Server collaborators.
type ServerOption func(*Server)

// WithConnectivity adds the remote store state to the readiness report.
func WithConnectivity(state ConnectivityState) ServerOption {
	return func(s *Server) {
		s.connectivity = state
	}
}

// Server represents the HTTP server. Readiness depends only on the local cache: the
// terminal keeps serving while the remote store is offline.
type Server struct {
	db           *sql.DB
	server       *http.Server
	router       *gin.Engine
	logger       *slog.Logger
	connectivity ConnectivityState
	limiter      *ipRateLimiter
}

// NewServer creates a new HTTP server. db is the local cache database.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
	opts ...ServerOption,
) *Server {
	s := &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			ReadHeaderTimeout: 15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetupRouter configures the Gin router with all routes and middleware.
func (s *Server) SetupRouter(
	cfg *config.Config,
	recordHandler *syncHTTP.RecordHandler,
	syncHandler *syncHTTP.SyncHandler,
	queueHandler *fiscalHTTP.QueueHandler,
	logHandler *fiscalHTTP.LogHandler,
	metricsProvider *metrics.Provider,
) {
	gin.SetMode(cfg.GetGinMode())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if cfg.MetricsEnabled && metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")

	collections := v1.Group("/collections/:collection")
	{
		collections.GET("", recordHandler.ListHandler)
		collections.POST("", recordHandler.CreateHandler)
		collections.GET("/changes", recordHandler.ChangesHandler)
		collections.GET("/:id", recordHandler.GetHandler)
		collections.PUT("/:id", recordHandler.UpdateHandler)
		collections.DELETE("/:id", recordHandler.DeleteHandler)
	}

	syncGroup := v1.Group("/sync")
	{
		syncGroup.GET("/status", syncHandler.StatusHandler)
		syncGroup.POST("/pull", syncHandler.PullHandler)
		syncGroup.POST("/push", syncHandler.PushHandler)
		syncGroup.POST("/drain", syncHandler.DrainHandler)
		syncGroup.PUT("/session", syncHandler.SessionHandler)
	}

	fiscal := v1.Group("/fiscal")
	{
		fiscal.GET("/queue", queueHandler.ListHandler)
		fiscal.GET("/queue/status", queueHandler.StatusHandler)
		fiscal.GET("/queue/:orderId", queueHandler.GetHandler)
		fiscal.GET("/orders/:orderId/eligibility", queueHandler.EligibilityHandler)
		fiscal.GET("/logs", logHandler.ListHandler)
		fiscal.GET("/logs/:orderId", logHandler.ListByOrderHandler)

		// Mutations reach the fiscal gateway and are rate limited per client IP.
		mutations := fiscal.Group("/queue/:orderId")
		if cfg.RateLimitEnabled {
			s.limiter = newIPRateLimiter(cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger)
			mutations.Use(s.limiter.Middleware())
		}
		mutations.POST("", queueHandler.SendHandler)
		mutations.DELETE("", queueHandler.RemoveHandler)
		mutations.POST("/process", queueHandler.ProcessHandler)
		mutations.POST("/poll", queueHandler.PollHandler)
		mutations.POST("/reprocess", queueHandler.ReprocessHandler)
		mutations.POST("/cancel", queueHandler.CancelHandler)
		mutations.POST("/cancel-document", queueHandler.CancelDocumentHandler)
	}

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router is not configured")
	}
	s.server.Handler = s.router

	if s.limiter != nil {
		go s.limiter.cleanupStale(ctx, 5*time.Minute)
	}

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports that the process is alive.
// GET /health
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the local cache answers. The remote store state is
// included for information and never makes the terminal unready.
// GET /ready
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{}
	ready := true

	if s.db == nil {
		components["database"] = "error"
		ready = false
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Warn("cache ping failed", slog.Any("error", err))
			components["database"] = "error"
			ready = false
		} else {
			components["database"] = "ok"
		}
	}

	if s.connectivity != nil {
		state := s.connectivity.State()
		switch {
		case !state.Online:
			components["remote"] = "offline"
		case !state.Authenticated:
			components["remote"] = "signed_out"
		default:
			components["remote"] = "online"
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}
