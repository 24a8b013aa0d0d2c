// Package http assembles the gin route tree and the HTTP server lifecycle.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fraudlens/fraudlens/internal/config"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/logging"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/prometheus"
	"github.com/fraudlens/fraudlens/internal/interfaces/http/handlers"
	"github.com/fraudlens/fraudlens/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies for the
// complete route tree.
type RouterConfig struct {
	ClaimHandler  *handlers.ClaimHandler
	HealthHandler *handlers.HealthHandler

	Auth      config.AuthConfig
	Logger    logging.Logger
	Metrics   *prometheus.AppMetrics
	Collector prometheus.MetricsCollector

	Mode        string
	MaxBodySize int64
}

// NewRouter builds the gin engine: public probes and metrics, then the
// key-protected API group.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.RequestLogger(cfg.Logger, cfg.Metrics))

	if cfg.MaxBodySize > 0 {
		r.MaxMultipartMemory = cfg.MaxBodySize
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.Collector != nil {
		r.GET("/metrics", gin.WrapH(cfg.Collector.Handler()))
	}

	api := r.Group("/api/v1")
	api.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys, cfg.Metrics))
	if cfg.Auth.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.Auth.RateLimitRPS, cfg.Auth.RateLimitBurst)
		api.Use(middleware.RateLimit(limiter))
	}

	if cfg.ClaimHandler != nil {
		claims := api.Group("/claims")
		claims.POST("/analyze", cfg.ClaimHandler.Analyze)
		claims.GET("/stats", cfg.ClaimHandler.Stats)
		claims.POST("/:id/feedback", cfg.ClaimHandler.Feedback)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": "COMMON_005", "message": "route not found"})
	})

	return r
}
