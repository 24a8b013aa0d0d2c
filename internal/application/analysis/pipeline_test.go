package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraudlens/fraudlens/internal/domain/claim"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/logging"
	"github.com/fraudlens/fraudlens/internal/intelligence/anomaly"
)

// ─────────────────────────────────────────────────────────────────────────────
// Mocks
// ─────────────────────────────────────────────────────────────────────────────

type mockRepo struct {
	snapshotFn func(ctx context.Context) ([]claim.HistoricalRecord, error)
	saveFn     func(ctx context.Context, rec *claim.ClaimRecord) error
	statsFn    func(ctx context.Context) (*claim.Stats, error)
	feedbackFn func(ctx context.Context, id uuid.UUID, isFraud bool) error

	snapshotCalls int
	saved         []*claim.ClaimRecord
}

func (m *mockRepo) Snapshot(ctx context.Context) ([]claim.HistoricalRecord, error) {
	m.snapshotCalls++
	if m.snapshotFn != nil {
		return m.snapshotFn(ctx)
	}
	return nil, nil
}

func (m *mockRepo) Save(ctx context.Context, rec *claim.ClaimRecord) error {
	m.saved = append(m.saved, rec)
	if m.saveFn != nil {
		return m.saveFn(ctx, rec)
	}
	return nil
}

func (m *mockRepo) Stats(ctx context.Context) (*claim.Stats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx)
	}
	return &claim.Stats{}, nil
}

func (m *mockRepo) RecordFeedback(ctx context.Context, id uuid.UUID, isFraud bool) error {
	if m.feedbackFn != nil {
		return m.feedbackFn(ctx, id, isFraud)
	}
	return nil
}

type mockPublisher struct {
	analyzed []*claim.Verdict
	flagged  []*claim.Verdict
	fail     bool
}

func (m *mockPublisher) ClaimAnalyzed(_ context.Context, v *claim.Verdict) error {
	m.analyzed = append(m.analyzed, v)
	if m.fail {
		return errors.New("broker down")
	}
	return nil
}

func (m *mockPublisher) ClaimFlagged(_ context.Context, v *claim.Verdict) error {
	m.flagged = append(m.flagged, v)
	if m.fail {
		return errors.New("broker down")
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func f64Ptr(f float64) *float64 { return &f }
func strPtr(s string) *string   { return &s }

func fallbackScorer(t *testing.T) *anomaly.Scorer {
	t.Helper()
	return anomaly.NewScorerWithModel(nil, logging.NewNopLogger())
}

// zeroModelScorer loads an autoencoder whose reconstruction is always the
// zero vector over an identity scaler, so the raw score for input {c, f} is
// (c²+f²)/2.
func zeroModelScorer(t *testing.T) *anomaly.Scorer {
	t.Helper()
	artifact := anomaly.ModelArtifact{
		Version: 1,
		Scaler:  anomaly.StandardScaler{Mean: []float64{0, 0}, Std: []float64{1, 1}},
		Layers: []anomaly.DenseLayer{
			{
				Weights:    [][]float64{{0, 0}, {0, 0}},
				Biases:     []float64{0, 0},
				Activation: "linear",
			},
		},
	}
	data, err := json.Marshal(artifact)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	model, err := anomaly.LoadAutoencoder(path)
	require.NoError(t, err)
	return anomaly.NewScorerWithModel(model, logging.NewNopLogger())
}

func newTestPipeline(t *testing.T, repo *mockRepo, scorer *anomaly.Scorer, pub claim.EventPublisher) *Pipeline {
	t.Helper()
	p, err := NewPipeline(PipelineParams{
		Repo:      repo,
		Engine:    anomaly.NewFeatureEngine(anomaly.EngineParams{}, nil),
		Scorer:    scorer,
		Publisher: pub,
		Logger:    logging.NewNopLogger(),
	})
	require.NoError(t, err)
	return p
}

func corpusOf(costs ...float64) []claim.HistoricalRecord {
	var out []claim.HistoricalRecord
	for i := range costs {
		out = append(out, claim.HistoricalRecord{
			Doctor:    strPtr("smith"),
			Diagnosis: strPtr("flu"),
			Cost:      &costs[i],
		})
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Gate tests
// ─────────────────────────────────────────────────────────────────────────────

func TestAnalyzeEmptyText(t *testing.T) {
	repo := &mockRepo{}
	p := newTestPipeline(t, repo, fallbackScorer(t), nil)

	for _, text := range []string{"", "   ", "\n\t"} {
		v, err := p.Analyze(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, claim.StatusLowQuality, v.Status)
		assert.Equal(t, []string{claim.IssueLowQuality}, v.Issues)
		assert.Nil(t, v.Features)
		assert.Nil(t, v.RiskScore)
		assert.Nil(t, v.Prediction)
		assert.NotEqual(t, uuid.Nil, v.ClaimID)
	}
	assert.Zero(t, repo.snapshotCalls)
	assert.Empty(t, repo.saved)
}

func TestAnalyzeIncomplete(t *testing.T) {
	repo := &mockRepo{}
	p := newTestPipeline(t, repo, fallbackScorer(t), nil)

	v, err := p.Analyze(context.Background(), "Diagnosis: Flu")
	require.NoError(t, err)

	assert.Equal(t, claim.StatusIncomplete, v.Status)
	assert.Equal(t, []string{claim.IssueMissingDoctor, claim.IssueMissingCost}, v.Issues)
	assert.Nil(t, v.Features)
	assert.Nil(t, v.RiskScore)
	assert.Nil(t, v.Prediction)
	assert.Zero(t, repo.snapshotCalls, "incomplete claims never read the corpus")
	assert.Empty(t, repo.saved)
}

func TestAnalyzeIncompleteIssueOrder(t *testing.T) {
	p := newTestPipeline(t, &mockRepo{}, fallbackScorer(t), nil)

	v, err := p.Analyze(context.Background(), "some text with no claim fields at all")
	require.NoError(t, err)
	assert.Equal(t, claim.StatusIncomplete, v.Status)
	assert.Equal(t,
		[]string{claim.IssueMissingDoctor, claim.IssueMissingDiagnosis, claim.IssueMissingCost},
		v.Issues)
}

// ─────────────────────────────────────────────────────────────────────────────
// Complete path
// ─────────────────────────────────────────────────────────────────────────────

const completeClaim = "Dr. Smith Diagnosis: Flu Cost: $100.00"

func TestAnalyzeCompleteFallback(t *testing.T) {
	repo := &mockRepo{
		snapshotFn: func(context.Context) ([]claim.HistoricalRecord, error) {
			return corpusOf(100, 110, 120, 130, 140, 150, 160, 170, 180, 190), nil
		},
	}
	p := newTestPipeline(t, repo, fallbackScorer(t), nil)

	v, err := p.Analyze(context.Background(), completeClaim)
	require.NoError(t, err)

	assert.Equal(t, claim.StatusComplete, v.Status)
	assert.Empty(t, v.Issues)
	require.NotNil(t, v.Features)
	assert.Equal(t, 100.0, v.Features.Cost)
	assert.Equal(t, 10, v.Features.DoctorFrequency)
	require.NotNil(t, v.RiskScore)
	assert.GreaterOrEqual(t, *v.RiskScore, 0.0)
	assert.LessOrEqual(t, *v.RiskScore, 1.0)
	// fallback sentinel routes through the outlier feature
	expected := clamp01((v.Features.CostOutlierScore + 1) / 2)
	assert.Equal(t, expected, *v.RiskScore)
	require.NotNil(t, v.Prediction)

	require.Len(t, repo.saved, 1)
	assert.Equal(t, v.ClaimID, repo.saved[0].ID)
	assert.Equal(t, *v.RiskScore, repo.saved[0].RiskScore)
}

func TestAnalyzeCompleteWithModel(t *testing.T) {
	repo := &mockRepo{}
	p := newTestPipeline(t, repo, zeroModelScorer(t), nil)

	// raw = (100² + 0²) / 2, far beyond saturation → risk clamps to 1
	v, err := p.Analyze(context.Background(), completeClaim)
	require.NoError(t, err)

	assert.Equal(t, claim.StatusComplete, v.Status)
	require.NotNil(t, v.RiskScore)
	assert.Equal(t, 1.0, *v.RiskScore)
	require.NotNil(t, v.Prediction)
	assert.Equal(t, claim.PredictionHighRisk, *v.Prediction)
}

func TestAnalyzeColdStart(t *testing.T) {
	// empty corpus: all derived features 0, fallback risk (0+1)/2 = 0.5
	p := newTestPipeline(t, &mockRepo{}, fallbackScorer(t), nil)

	v, err := p.Analyze(context.Background(), completeClaim)
	require.NoError(t, err)

	assert.Equal(t, claim.StatusComplete, v.Status)
	require.NotNil(t, v.RiskScore)
	assert.Equal(t, 0.5, *v.RiskScore)
	assert.Equal(t, claim.PredictionLowRisk, *v.Prediction)
}

func TestAnalyzeSnapshotFailure(t *testing.T) {
	repo := &mockRepo{
		snapshotFn: func(context.Context) ([]claim.HistoricalRecord, error) {
			return nil, errors.New("db down")
		},
	}
	p := newTestPipeline(t, repo, fallbackScorer(t), nil)

	v, err := p.Analyze(context.Background(), completeClaim)
	require.NoError(t, err)
	assert.Equal(t, claim.StatusComplete, v.Status)
	assert.Equal(t, 0.5, *v.RiskScore)
}

func TestAnalyzeSaveFailureDoesNotFailVerdict(t *testing.T) {
	repo := &mockRepo{
		saveFn: func(context.Context, *claim.ClaimRecord) error {
			return errors.New("insert failed")
		},
	}
	p := newTestPipeline(t, repo, fallbackScorer(t), nil)

	v, err := p.Analyze(context.Background(), completeClaim)
	require.NoError(t, err)
	assert.Equal(t, claim.StatusComplete, v.Status)
	require.NotNil(t, v.RiskScore)
}

func TestAnalyzePublishesEvents(t *testing.T) {
	pub := &mockPublisher{}
	p := newTestPipeline(t, &mockRepo{}, zeroModelScorer(t), pub)

	v, err := p.Analyze(context.Background(), completeClaim)
	require.NoError(t, err)
	require.True(t, v.HighRisk())

	require.Len(t, pub.analyzed, 1)
	require.Len(t, pub.flagged, 1)
	assert.Equal(t, v.ClaimID, pub.flagged[0].ClaimID)
}

func TestAnalyzeLowRiskNotFlagged(t *testing.T) {
	pub := &mockPublisher{}
	p := newTestPipeline(t, &mockRepo{}, fallbackScorer(t), pub)

	v, err := p.Analyze(context.Background(), completeClaim)
	require.NoError(t, err)
	require.False(t, v.HighRisk())

	assert.Len(t, pub.analyzed, 1)
	assert.Empty(t, pub.flagged)
}

func TestAnalyzePublishFailureIsSwallowed(t *testing.T) {
	pub := &mockPublisher{fail: true}
	p := newTestPipeline(t, &mockRepo{}, zeroModelScorer(t), pub)

	v, err := p.Analyze(context.Background(), completeClaim)
	require.NoError(t, err)
	assert.Equal(t, claim.StatusComplete, v.Status)
}

func TestAnalyzeIdempotent(t *testing.T) {
	corpus := corpusOf(100, 120, 140, 160, 180, 200, 220, 240)
	repo := &mockRepo{
		snapshotFn: func(context.Context) ([]claim.HistoricalRecord, error) {
			return corpus, nil
		},
	}
	p := newTestPipeline(t, repo, fallbackScorer(t), nil)

	a, err := p.Analyze(context.Background(), completeClaim)
	require.NoError(t, err)
	b, err := p.Analyze(context.Background(), completeClaim)
	require.NoError(t, err)

	assert.Equal(t, a.Entities, b.Entities)
	assert.Equal(t, a.Features, b.Features)
	assert.Equal(t, *a.RiskScore, *b.RiskScore)
	assert.Equal(t, *a.Prediction, *b.Prediction)
	assert.Equal(t, a.Status, b.Status)
}

// ─────────────────────────────────────────────────────────────────────────────
// Risk normalization
// ─────────────────────────────────────────────────────────────────────────────

func TestNormalizeRiskFallback(t *testing.T) {
	p := newTestPipeline(t, &mockRepo{}, fallbackScorer(t), nil)

	tests := []struct {
		outlier float64
		want    float64
	}{
		{1.0, 1.0},
		{-1.0, 0.0},
		{0.0, 0.5},
		{0.5, 0.75},
		{-3.0, 0.0}, // clamps below
		{3.0, 1.0},  // clamps above
	}
	for _, tt := range tests {
		got := p.normalizeRisk(anomaly.FallbackSentinel, claim.FeatureVector{CostOutlierScore: tt.outlier})
		assert.Equal(t, tt.want, got, "outlier %g", tt.outlier)
	}
}

func TestNormalizeRiskReconstruction(t *testing.T) {
	p := newTestPipeline(t, &mockRepo{}, fallbackScorer(t), nil)

	assert.Equal(t, 0.4, p.normalizeRisk(0.8, claim.FeatureVector{}))
	assert.Equal(t, 1.0, p.normalizeRisk(2.0, claim.FeatureVector{}))
	assert.Equal(t, 1.0, p.normalizeRisk(1e9, claim.FeatureVector{}))
	assert.Equal(t, 0.05, p.normalizeRisk(0.1, claim.FeatureVector{}))
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-0.5))
	assert.Equal(t, 1.0, clamp01(1.5))
	assert.Equal(t, 0.42, clamp01(0.42))
}

func TestNewPipelineValidation(t *testing.T) {
	engine := anomaly.NewFeatureEngine(anomaly.EngineParams{}, nil)
	scorer := fallbackScorer(t)

	_, err := NewPipeline(PipelineParams{Engine: engine, Scorer: scorer})
	require.Error(t, err)

	_, err = NewPipeline(PipelineParams{Repo: &mockRepo{}, Scorer: scorer})
	require.Error(t, err)

	_, err = NewPipeline(PipelineParams{Repo: &mockRepo{}, Engine: engine})
	require.Error(t, err)
}
