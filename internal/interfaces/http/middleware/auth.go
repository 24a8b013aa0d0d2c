// Package middleware provides the gin middleware chain for the API server.
package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/prometheus"
)

// APIKeyHeader is the header clients authenticate with.
const APIKeyHeader = "X-API-Key"

// APIKeyAuth rejects requests whose X-API-Key header does not match one of
// the configured keys.  An empty key set disables authentication; this is
// intended for local development only.
func APIKeyAuth(keys []string, metrics *prometheus.AppMetrics) gin.HandlerFunc {
	if metrics == nil {
		metrics = prometheus.NewNopAppMetrics()
	}
	keySet := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k != "" {
			keySet[k] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		if len(keySet) == 0 {
			c.Next()
			return
		}

		provided := c.GetHeader(APIKeyHeader)
		if provided == "" {
			metrics.AuthAttemptsTotal.WithLabelValues("missing").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "COMMON_003",
				"message": "missing API key",
			})
			return
		}
		if !matchKey(keySet, provided) {
			metrics.AuthAttemptsTotal.WithLabelValues("invalid").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "COMMON_003",
				"message": "invalid API key",
			})
			return
		}

		metrics.AuthAttemptsTotal.WithLabelValues("ok").Inc()
		c.Next()
	}
}

// matchKey compares in constant time against each configured key.
func matchKey(keySet map[string]struct{}, provided string) bool {
	matched := false
	for key := range keySet {
		if len(key) == len(provided) &&
			subtle.ConstantTimeCompare([]byte(key), []byte(provided)) == 1 {
			matched = true
		}
	}
	return matched
}
