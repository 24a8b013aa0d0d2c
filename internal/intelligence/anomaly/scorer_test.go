package anomaly

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraudlens/fraudlens/internal/domain/claim"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/logging"
)

func TestNewScorerMissingArtifact(t *testing.T) {
	s, err := NewScorer(filepath.Join(t.TempDir(), "absent.json"), logging.NewNopLogger())
	require.NoError(t, err)
	assert.False(t, s.ModelLoaded())
}

func TestNewScorerLoadsArtifact(t *testing.T) {
	path := writeArtifact(t, identityArtifact())
	s, err := NewScorer(path, logging.NewNopLogger())
	require.NoError(t, err)
	assert.True(t, s.ModelLoaded())
}

func TestNewScorerCorruptArtifactFails(t *testing.T) {
	artifact := identityArtifact()
	artifact.Layers = nil
	path := writeArtifact(t, artifact)

	_, err := NewScorer(path, logging.NewNopLogger())
	require.Error(t, err)
}

func TestScoreFallbackSentinel(t *testing.T) {
	s := NewScorerWithModel(nil, nil)

	got := s.Score(claim.FeatureVector{Cost: 99999, DoctorFrequency: 1, CostOutlierScore: -0.8})
	assert.Equal(t, FallbackSentinel, got)
}

func TestScoreModelLoaded(t *testing.T) {
	model, err := LoadAutoencoder(writeArtifact(t, identityArtifact()))
	require.NoError(t, err)
	s := NewScorerWithModel(model, nil)

	// perfect reconstruction on the identity model
	assert.InDelta(t, 0.0, s.Score(claim.FeatureVector{Cost: 300, DoctorFrequency: 10}), 1e-12)
}

func TestScoreIsDeterministic(t *testing.T) {
	artifact := identityArtifact()
	artifact.Layers[0].Weights = [][]float64{{0.8, 0.1}, {0.1, 0.8}}

	model, err := LoadAutoencoder(writeArtifact(t, artifact))
	require.NoError(t, err)
	s := NewScorerWithModel(model, nil)

	fv := claim.FeatureVector{Cost: 777, DoctorFrequency: 3}
	assert.Equal(t, s.Score(fv), s.Score(fv))
}
