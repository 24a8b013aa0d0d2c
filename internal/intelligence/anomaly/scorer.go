package anomaly

import (
	"github.com/fraudlens/fraudlens/internal/domain/claim"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/logging"
)

// FallbackSentinel is the raw score emitted when no model is loaded.  The
// pipeline recognises it and derives the risk score from the cost-outlier
// feature instead.
const FallbackSentinel = 0.0

// Scorer turns a feature vector into a raw anomaly score.  Its state is fixed
// at construction: either a model artifact was loaded and every call runs the
// autoencoder, or no artifact exists and every call returns the fallback
// sentinel.  A Scorer is immutable and safe for concurrent use.
type Scorer struct {
	model  *Autoencoder
	logger logging.Logger
}

// NewScorer loads the artifact at artifactPath once and fixes the scorer's
// mode.  A missing artifact selects the heuristic fallback; a present but
// corrupt artifact is a construction error so a bad deployment fails loudly
// instead of silently scoring everything 0.
func NewScorer(artifactPath string, logger logging.Logger) (*Scorer, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	model, err := LoadAutoencoder(artifactPath)
	if err != nil {
		return nil, err
	}
	if model == nil {
		logger.Warn("anomaly model artifact not found, scoring falls back to cost-outlier heuristic",
			logging.String("artifact_path", artifactPath))
	} else {
		logger.Info("anomaly model artifact loaded", logging.String("artifact_path", artifactPath))
	}

	return &Scorer{model: model, logger: logger}, nil
}

// NewScorerWithModel wraps an already loaded model.  model may be nil to
// force fallback mode; used by tests and the CLI.
func NewScorerWithModel(model *Autoencoder, logger logging.Logger) *Scorer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Scorer{model: model, logger: logger}
}

// ModelLoaded reports whether the scorer runs the autoencoder.
func (s *Scorer) ModelLoaded() bool { return s.model != nil }

// Score returns the raw anomaly score for fv: the autoencoder's mean squared
// reconstruction error when a model is loaded, FallbackSentinel otherwise.
func (s *Scorer) Score(fv claim.FeatureVector) float64 {
	if s.model == nil {
		return FallbackSentinel
	}
	return s.model.ReconstructionError(fv.Cost, float64(fv.DoctorFrequency))
}
