package anomaly

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// identityArtifact reconstructs its input perfectly: a single linear layer
// with identity weights.
func identityArtifact() ModelArtifact {
	return ModelArtifact{
		Version: 1,
		Scaler: StandardScaler{
			Mean: []float64{300, 10},
			Std:  []float64{100, 5},
		},
		Layers: []DenseLayer{
			{
				Weights:    [][]float64{{1, 0}, {0, 1}},
				Biases:     []float64{0, 0},
				Activation: "linear",
			},
		},
	}
}

func writeArtifact(t *testing.T, artifact ModelArtifact) string {
	t.Helper()
	data, err := json.Marshal(artifact)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "autoencoder.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadAutoencoderMissingFile(t *testing.T) {
	model, err := LoadAutoencoder(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Nil(t, model)
}

func TestLoadAutoencoderEmptyPath(t *testing.T) {
	model, err := LoadAutoencoder("")
	require.NoError(t, err)
	assert.Nil(t, model)
}

func TestLoadAutoencoderCorruptJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadAutoencoder(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestLoadAutoencoderInvalidShapes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ModelArtifact)
	}{
		{"wrong scaler width", func(a *ModelArtifact) { a.Scaler.Mean = []float64{1} }},
		{"zero std", func(a *ModelArtifact) { a.Scaler.Std = []float64{1, 0} }},
		{"no layers", func(a *ModelArtifact) { a.Layers = nil }},
		{"bias mismatch", func(a *ModelArtifact) { a.Layers[0].Biases = []float64{0} }},
		{"row width mismatch", func(a *ModelArtifact) { a.Layers[0].Weights[0] = []float64{1} }},
		{"unknown activation", func(a *ModelArtifact) { a.Layers[0].Activation = "tanh" }},
		{"wrong output width", func(a *ModelArtifact) {
			a.Layers[0].Weights = [][]float64{{1, 0}}
			a.Layers[0].Biases = []float64{0}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artifact := identityArtifact()
			tt.mutate(&artifact)
			_, err := LoadAutoencoder(writeArtifact(t, artifact))
			require.Error(t, err)
		})
	}
}

func TestReconstructionErrorPerfectModel(t *testing.T) {
	model, err := LoadAutoencoder(writeArtifact(t, identityArtifact()))
	require.NoError(t, err)
	require.NotNil(t, model)

	assert.InDelta(t, 0.0, model.ReconstructionError(300, 10), 1e-12)
	assert.InDelta(t, 0.0, model.ReconstructionError(500, 20), 1e-12)
}

func TestReconstructionErrorZeroModel(t *testing.T) {
	artifact := identityArtifact()
	artifact.Layers[0].Weights = [][]float64{{0, 0}, {0, 0}}

	model, err := LoadAutoencoder(writeArtifact(t, artifact))
	require.NoError(t, err)

	// input scales to {1, 2}; reconstruction is {0, 0}; MSE = (1+4)/2
	got := model.ReconstructionError(400, 20)
	assert.InDelta(t, 2.5, got, 1e-12)
}

func TestReconstructionErrorNonNegative(t *testing.T) {
	artifact := identityArtifact()
	artifact.Layers = []DenseLayer{
		{
			Weights:    [][]float64{{0.5, -0.3}, {0.2, 0.9}, {-0.7, 0.1}},
			Biases:     []float64{0.1, -0.2, 0.3},
			Activation: "relu",
		},
		{
			Weights:    [][]float64{{1, 0, 0.5}, {0, 1, -0.5}},
			Biases:     []float64{0, 0},
			Activation: "linear",
		},
	}

	model, err := LoadAutoencoder(writeArtifact(t, artifact))
	require.NoError(t, err)

	for _, in := range [][2]float64{{0, 0}, {300, 10}, {1e6, 500}, {-100, 3}} {
		assert.GreaterOrEqual(t, model.ReconstructionError(in[0], in[1]), 0.0)
	}
}

func TestReluActivation(t *testing.T) {
	layer := DenseLayer{
		Weights:    [][]float64{{1, 0}, {0, 1}},
		Biases:     []float64{-10, 10},
		Activation: "relu",
	}
	out := layer.apply([]float64{1, 1})
	assert.Equal(t, []float64{0, 11}, out)
}
