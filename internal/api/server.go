// Package api exposes the application operations over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourusername/tick-replay/internal/config"
	"github.com/yourusername/tick-replay/internal/models"
	"github.com/yourusername/tick-replay/internal/service"
)

// Server is the HTTP API over the backtest service. Run endpoints are rate
// limited since a backtest replays up to a million records per request.
type Server struct {
	svc      *service.BacktestService
	defaults config.BacktestConfig
	logger   *logrus.Logger
	router   *gin.Engine
	addr     string
	http     *http.Server
}

// NewServer builds the API server and registers all routes.
func NewServer(cfg config.ServerConfig, defaults config.BacktestConfig, svc *service.BacktestService, logger *logrus.Logger) (*Server, error) {
	if svc == nil {
		return nil, errors.New("backtest service is required")
	}
	if logger == nil {
		logger = logrus.New()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	s := &Server{
		svc:      svc,
		defaults: defaults,
		logger:   logger,
		router:   router,
		addr:     fmt.Sprintf(":%d", cfg.Port),
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.RunRatePerSecond), cfg.RunRateBurst)
	s.registerRoutes(limiter)
	return s, nil
}

func (s *Server) registerRoutes(limiter *rate.Limiter) {
	api := s.router.Group("/api/v1")
	api.GET("/data/info", s.handleDataInfo)
	api.GET("/strategies", s.handleStrategies)
	api.GET("/strategies/:id/capability", s.handleCapability)
	api.GET("/ticks", s.handleTicks)
	api.GET("/bars/preview", s.handleBarPreview)
	api.POST("/backtest/validate", s.handleValidate)
	api.POST("/backtest/run", rateLimit(limiter), s.handleRun)
	api.POST("/backtest/batch", rateLimit(limiter), s.handleBatch)
}

// Router returns the underlying handler, used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start serves requests until Shutdown is called.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.WithField("addr", s.addr).Info("API server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("Request handled")
	}
}

func rateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
				"kind":  "rate_limited",
			})
			return
		}
		c.Next()
	}
}

// respondError maps the failure taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	app := models.ClassifyError(err)
	status := http.StatusInternalServerError
	switch app.Kind {
	case models.KindValidation:
		status = http.StatusBadRequest
	case models.KindDataUnavailable:
		status = http.StatusServiceUnavailable
	case models.KindStrategy:
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": app.Message, "kind": app.Kind})
}
