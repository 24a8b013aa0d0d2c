package anomaly

import (
	"encoding/json"
	"fmt"
	"os"
)

// ModelArtifact is the on-disk form of the offline-trained anomaly model: the
// 2-feature scaler fitted on the training corpus plus the autoencoder's dense
// layers.  The trainer exports this file; the service only ever reads it.
type ModelArtifact struct {
	Version int            `json:"version"`
	Scaler  StandardScaler `json:"scaler"`
	Layers  []DenseLayer   `json:"layers"`
}

// DenseLayer is one fully-connected layer.  Weights is row-major with one row
// per output unit, so output[i] = activation(dot(Weights[i], input) + Biases[i]).
type DenseLayer struct {
	Weights    [][]float64 `json:"weights"`
	Biases     []float64   `json:"biases"`
	Activation string      `json:"activation"` // "relu" | "linear"
}

// autoencoderInputDim is the feature width the model consumes:
// {cost, doctor_frequency}.
const autoencoderInputDim = 2

// Autoencoder is a loaded, validated model ready for inference.  It is
// immutable after construction and safe for concurrent use.
type Autoencoder struct {
	scaler StandardScaler
	layers []DenseLayer
}

// LoadAutoencoder reads and validates a model artifact.  A missing file
// returns (nil, nil): artifact absence is a supported deployment state, not
// an error.  A present but malformed artifact is an error.
func LoadAutoencoder(path string) (*Autoencoder, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("anomaly: failed to read model artifact %q: %w", path, err)
	}

	var artifact ModelArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("anomaly: failed to parse model artifact %q: %w", path, err)
	}
	if err := artifact.validate(); err != nil {
		return nil, fmt.Errorf("anomaly: invalid model artifact %q: %w", path, err)
	}

	return &Autoencoder{scaler: artifact.Scaler, layers: artifact.Layers}, nil
}

func (a *ModelArtifact) validate() error {
	if len(a.Scaler.Mean) != autoencoderInputDim || len(a.Scaler.Std) != autoencoderInputDim {
		return fmt.Errorf("scaler width %d/%d, want %d", len(a.Scaler.Mean), len(a.Scaler.Std), autoencoderInputDim)
	}
	for _, s := range a.Scaler.Std {
		if s == 0 {
			return fmt.Errorf("scaler std contains zero")
		}
	}
	if len(a.Layers) == 0 {
		return fmt.Errorf("no layers")
	}

	width := autoencoderInputDim
	for i, layer := range a.Layers {
		if len(layer.Weights) == 0 {
			return fmt.Errorf("layer %d has no weights", i)
		}
		if len(layer.Weights) != len(layer.Biases) {
			return fmt.Errorf("layer %d has %d weight rows but %d biases", i, len(layer.Weights), len(layer.Biases))
		}
		for j, row := range layer.Weights {
			if len(row) != width {
				return fmt.Errorf("layer %d row %d has width %d, want %d", i, j, len(row), width)
			}
		}
		switch layer.Activation {
		case "relu", "linear":
		default:
			return fmt.Errorf("layer %d has unknown activation %q", i, layer.Activation)
		}
		width = len(layer.Weights)
	}
	if width != autoencoderInputDim {
		return fmt.Errorf("output width %d, want %d", width, autoencoderInputDim)
	}
	return nil
}

// ReconstructionError scales the raw feature pair, runs the forward pass, and
// returns the mean squared error between the scaled input and its
// reconstruction.  The result is always >= 0.
func (a *Autoencoder) ReconstructionError(cost, doctorFrequency float64) float64 {
	scaled := a.scaler.Transform([]float64{cost, doctorFrequency})

	out := scaled
	for _, layer := range a.layers {
		out = layer.apply(out)
	}

	mse := 0.0
	for i := range scaled {
		d := scaled[i] - out[i]
		mse += d * d
	}
	return mse / float64(len(scaled))
}

func (l *DenseLayer) apply(in []float64) []float64 {
	out := make([]float64, len(l.Weights))
	for i, row := range l.Weights {
		sum := l.Biases[i]
		for j, w := range row {
			sum += w * in[j]
		}
		if l.Activation == "relu" && sum < 0 {
			sum = 0
		}
		out[i] = sum
	}
	return out
}
