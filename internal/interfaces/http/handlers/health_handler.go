package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker is implemented by infrastructure clients that can verify
// their backing service.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// namedChecker pairs a checker with its report name.
type namedChecker struct {
	name    string
	checker HealthChecker
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	checkers []namedChecker
	timeout  time.Duration
}

// NewHealthHandler builds the handler with no dependencies registered.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{timeout: 5 * time.Second}
}

// Register adds a dependency to the readiness report.
func (h *HealthHandler) Register(name string, checker HealthChecker) {
	if checker != nil {
		h.checkers = append(h.checkers, namedChecker{name: name, checker: checker})
	}
}

// Liveness handles GET /healthz.  It only proves the process is serving.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz.  It pings every registered dependency and
// reports 503 if any is unavailable.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	checks := make(map[string]string, len(h.checkers))
	healthy := true
	for _, nc := range h.checkers {
		if err := nc.checker.HealthCheck(ctx); err != nil {
			checks[nc.name] = err.Error()
			healthy = false
		} else {
			checks[nc.name] = "ok"
		}
	}

	status := http.StatusOK
	overall := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}
	c.JSON(status, gin.H{"status": overall, "checks": checks})
}
