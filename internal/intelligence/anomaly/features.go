package anomaly

import (
	"github.com/fraudlens/fraudlens/internal/domain/claim"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/logging"
)

// FeatureEngine derives the numeric feature vector for a claim from its
// extracted entities and a snapshot of the historical corpus.  The engine is
// stateless between calls: the cost-outlier model is refitted on every
// snapshot so the feature always reflects the corpus the caller supplied.
type FeatureEngine struct {
	contamination float64
	seed          int64
	minHistory    int
	logger        logging.Logger
}

// EngineParams configures a FeatureEngine.
type EngineParams struct {
	// Contamination is the expected anomaly proportion for the outlier model.
	Contamination float64
	// Seed makes the forest deterministic across runs.
	Seed int64
	// MinHistory is the minimum number of historical cost observations
	// required to fit the outlier model.  Below it the feature is 0.
	MinHistory int
}

// NewFeatureEngine constructs a FeatureEngine.  Zero params fall back to the
// trained-model conventions: contamination 0.1, seed 42, two observations.
func NewFeatureEngine(params EngineParams, logger logging.Logger) *FeatureEngine {
	if params.Contamination == 0 {
		params.Contamination = 0.1
	}
	if params.Seed == 0 {
		params.Seed = 42
	}
	if params.MinHistory < 2 {
		params.MinHistory = 2
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &FeatureEngine{
		contamination: params.Contamination,
		seed:          params.Seed,
		minHistory:    params.MinHistory,
		logger:        logger,
	}
}

// Compute derives the feature vector.  With a nil or empty corpus every
// derived feature is 0 and cost defaults to 0 when absent; the zero default
// flows only into the features, never back into the entities.
func (e *FeatureEngine) Compute(entities claim.Entities, corpus []claim.HistoricalRecord) claim.FeatureVector {
	var fv claim.FeatureVector

	if entities.Cost != nil {
		fv.Cost = *entities.Cost
	}

	if len(corpus) == 0 {
		return fv
	}

	fv.DoctorFrequency = countMatches(corpus, entities.Doctor, func(r claim.HistoricalRecord) *string { return r.Doctor })
	fv.DiagnosisFrequency = countMatches(corpus, entities.Diagnosis, func(r claim.HistoricalRecord) *string { return r.Diagnosis })
	fv.CostOutlierScore = e.costOutlierScore(fv.Cost, corpus)

	return fv
}

// countMatches counts corpus records whose field exactly equals value.
// Equality is case-sensitive string comparison; both sides carry the same
// upstream normalization, so no folding happens here.
func countMatches(corpus []claim.HistoricalRecord, value *string, field func(claim.HistoricalRecord) *string) int {
	if value == nil {
		return 0
	}
	count := 0
	for _, rec := range corpus {
		if f := field(rec); f != nil && *f == *value {
			count++
		}
	}
	return count
}

// costOutlierScore standardizes the historical costs, fits the isolation
// forest on them, and evaluates the decision function at the standardized
// current cost.  Returns 0 when too few historical costs exist.
func (e *FeatureEngine) costOutlierScore(cost float64, corpus []claim.HistoricalRecord) float64 {
	var costs []float64
	for _, rec := range corpus {
		if rec.Cost != nil {
			costs = append(costs, *rec.Cost)
		}
	}
	if len(costs) < e.minHistory {
		return 0
	}

	samples := make([][]float64, len(costs))
	for i, c := range costs {
		samples[i] = []float64{c}
	}
	scaler := FitScaler(samples)

	scaled := make([]float64, len(costs))
	for i, c := range costs {
		scaled[i] = scaler.Transform([]float64{c})[0]
	}

	forest, err := FitIsolationForest(scaled, e.contamination, e.seed)
	if err != nil {
		e.logger.Warn("cost outlier model fit failed", logging.Err(err), logging.Int("history", len(costs)))
		return 0
	}

	return forest.DecisionFunction(scaler.Transform([]float64{cost})[0])
}
