package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/logging"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/prometheus"
)

// RequestLogger logs every request and records the HTTP metrics.  The route
// template, not the raw path, is used as the metrics label to keep
// cardinality bounded.
func RequestLogger(logger logging.Logger, metrics *prometheus.AppMetrics) gin.HandlerFunc {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = prometheus.NewNopAppMetrics()
	}
	logger = logger.Named("http")

	return func(c *gin.Context) {
		start := time.Now()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		active := metrics.HTTPActiveRequests.WithLabelValues(c.Request.Method, route)
		active.Inc()

		c.Next()

		elapsed := time.Since(start)
		active.Dec()

		status := c.Writer.Status()
		statusLabel := strconv.Itoa(status)

		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, statusLabel).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(elapsed.Seconds())

		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", status),
			logging.Duration("duration", elapsed),
			logging.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logging.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			logger.Error("request failed", fields...)
		case status >= 400:
			logger.Warn("request rejected", fields...)
		default:
			logger.Info("request served", fields...)
		}
	}
}
