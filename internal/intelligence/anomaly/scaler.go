// Package anomaly implements the statistical feature computation and anomaly
// scoring stages of the claim analysis pipeline: standardization, an
// isolation-forest cost-outlier feature, and a reconstruction-error scorer
// backed by a small autoencoder artifact trained offline.
package anomaly

import "math"

// StandardScaler centers and scales features to zero mean and unit variance.
// Variance is the population variance (divide by n, not n-1).  A feature with
// zero variance scales by 1 so constant columns pass through centered, the
// same convention the offline trainer uses.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitScaler computes per-column mean and standard deviation over samples.
// Every sample must have the same width.  Returns nil when samples is empty.
func FitScaler(samples [][]float64) *StandardScaler {
	if len(samples) == 0 {
		return nil
	}
	width := len(samples[0])
	s := &StandardScaler{
		Mean: make([]float64, width),
		Std:  make([]float64, width),
	}

	for _, row := range samples {
		for j, v := range row {
			s.Mean[j] += v
		}
	}
	n := float64(len(samples))
	for j := range s.Mean {
		s.Mean[j] /= n
	}

	for _, row := range samples {
		for j, v := range row {
			d := v - s.Mean[j]
			s.Std[j] += d * d
		}
	}
	for j := range s.Std {
		s.Std[j] = math.Sqrt(s.Std[j] / n)
		if s.Std[j] == 0 {
			s.Std[j] = 1
		}
	}

	return s
}

// Transform standardizes one sample.  The sample width must match the fitted
// width.
func (s *StandardScaler) Transform(sample []float64) []float64 {
	out := make([]float64, len(sample))
	for j, v := range sample {
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out
}

// TransformAll standardizes every sample.
func (s *StandardScaler) TransformAll(samples [][]float64) [][]float64 {
	out := make([][]float64, len(samples))
	for i, row := range samples {
		out[i] = s.Transform(row)
	}
	return out
}
