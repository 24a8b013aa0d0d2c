package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraudlens/fraudlens/internal/application/analysis"
	"github.com/fraudlens/fraudlens/internal/config"
	"github.com/fraudlens/fraudlens/internal/domain/claim"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/logging"
	"github.com/fraudlens/fraudlens/internal/intelligence/anomaly"
	"github.com/fraudlens/fraudlens/internal/interfaces/http/handlers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticRepo struct{}

func (staticRepo) Snapshot(context.Context) ([]claim.HistoricalRecord, error) { return nil, nil }
func (staticRepo) Save(context.Context, *claim.ClaimRecord) error             { return nil }
func (staticRepo) Stats(context.Context) (*claim.Stats, error) {
	return &claim.Stats{TotalClaims: 1}, nil
}
func (staticRepo) RecordFeedback(context.Context, uuid.UUID, bool) error { return nil }

func newTestRouter(t *testing.T, apiKeys []string) http.Handler {
	t.Helper()

	pipeline, err := analysis.NewPipeline(analysis.PipelineParams{
		Repo:   staticRepo{},
		Engine: anomaly.NewFeatureEngine(anomaly.EngineParams{}, nil),
		Scorer: anomaly.NewScorerWithModel(nil, logging.NewNopLogger()),
	})
	require.NoError(t, err)
	stats, err := analysis.NewStatsService(staticRepo{}, nil, nil, nil)
	require.NoError(t, err)

	return NewRouter(RouterConfig{
		ClaimHandler: handlers.NewClaimHandler(handlers.ClaimHandlerParams{
			Pipeline: pipeline,
			Stats:    stats,
		}),
		HealthHandler: handlers.NewHealthHandler(),
		Auth:          config.AuthConfig{APIKeys: apiKeys},
		Mode:          gin.TestMode,
	})
}

func get(r http.Handler, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRouterHealthIsPublic(t *testing.T) {
	r := newTestRouter(t, []string{"secret"})

	assert.Equal(t, http.StatusOK, get(r, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, get(r, "/readyz", "").Code)
}

func TestRouterAPIRequiresKey(t *testing.T) {
	r := newTestRouter(t, []string{"secret"})

	assert.Equal(t, http.StatusUnauthorized, get(r, "/api/v1/claims/stats", "").Code)
	assert.Equal(t, http.StatusOK, get(r, "/api/v1/claims/stats", "secret").Code)
}

func TestRouterUnknownRoute(t *testing.T) {
	r := newTestRouter(t, nil)

	rec := get(r, "/api/v2/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "route not found")
}

func TestServerLifecycle(t *testing.T) {
	r := newTestRouter(t, nil)
	srv := NewServer(config.ServerConfig{Port: 0}, r, logging.NewNopLogger())

	require.NoError(t, srv.Stop(context.Background()))
}
