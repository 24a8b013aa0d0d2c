// Package analysis orchestrates the claim analysis pipeline: normalization,
// extraction, the validation gate, feature computation, anomaly scoring, and
// risk classification.  Persistence, archival, and event publishing are
// collaborators behind domain interfaces and are strictly best effort: a
// scored claim always yields a verdict even when every side effect fails.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fraudlens/fraudlens/internal/domain/claim"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/logging"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/prometheus"
	"github.com/fraudlens/fraudlens/internal/intelligence/anomaly"
	"github.com/fraudlens/fraudlens/internal/intelligence/claimextract"
)

// riskSaturation divides the raw reconstruction error before clamping to
// [0, 1].  It is an empirically chosen saturation point for the error scale,
// not a probability calibration; tune it together with the model artifact.
const riskSaturation = 2.0

// DefaultHighRiskThreshold classifies a claim as high risk when its
// normalized risk score strictly exceeds this value.
const DefaultHighRiskThreshold = 0.5

// Pipeline runs the full analysis for one claim document.  It is safe for
// concurrent use; per-call state lives on the stack.
type Pipeline struct {
	repo      claim.Repository
	engine    *anomaly.FeatureEngine
	scorer    *anomaly.Scorer
	publisher claim.EventPublisher
	logger    logging.Logger
	metrics   *prometheus.AppMetrics
	threshold float64
	now       func() time.Time
}

// PipelineParams carries the pipeline's collaborators.  Repo, Engine, and
// Scorer are required; Publisher is optional and skipped when nil.
type PipelineParams struct {
	Repo              claim.Repository
	Engine            *anomaly.FeatureEngine
	Scorer            *anomaly.Scorer
	Publisher         claim.EventPublisher
	Logger            logging.Logger
	Metrics           *prometheus.AppMetrics
	HighRiskThreshold float64
}

// NewPipeline constructs a Pipeline.
func NewPipeline(params PipelineParams) (*Pipeline, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("analysis: Repo is required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("analysis: Engine is required")
	}
	if params.Scorer == nil {
		return nil, fmt.Errorf("analysis: Scorer is required")
	}
	if params.Logger == nil {
		params.Logger = logging.NewNopLogger()
	}
	if params.Metrics == nil {
		params.Metrics = prometheus.NewNopAppMetrics()
	}
	if params.HighRiskThreshold == 0 {
		params.HighRiskThreshold = DefaultHighRiskThreshold
	}

	return &Pipeline{
		repo:      params.Repo,
		engine:    params.Engine,
		scorer:    params.Scorer,
		publisher: params.Publisher,
		logger:    params.Logger.Named("pipeline"),
		metrics:   params.Metrics,
		threshold: params.HighRiskThreshold,
		now:       time.Now,
	}, nil
}

// Analyze runs the pipeline over the raw text extracted from one claim
// document and returns the verdict.  Analyze never returns an error for a
// low-quality or incomplete claim; those are terminal verdict states, not
// failures.
func (p *Pipeline) Analyze(ctx context.Context, rawText string) (*claim.Verdict, error) {
	start := p.now()
	verdict := &claim.Verdict{
		ClaimID:    uuid.New(),
		AnalyzedAt: start,
	}

	// Gate 1: no usable text at all.
	if strings.TrimSpace(rawText) == "" {
		verdict.Status = claim.StatusLowQuality
		verdict.Issues = []string{claim.IssueLowQuality}
		p.observe(verdict, start)
		return verdict, nil
	}

	normalized := claimextract.Normalize(rawText)
	verdict.Entities = claimextract.Extract(normalized)

	// Gate 2: required fields missing; no scoring happens.
	if !verdict.Entities.Complete() {
		verdict.Status = claim.StatusIncomplete
		verdict.Issues = verdict.Entities.MissingIssues()
		p.observe(verdict, start)
		return verdict, nil
	}

	// Snapshot failures degrade to cold-start features rather than failing
	// the claim; the verdict notes nothing, the log does.
	corpus, err := p.repo.Snapshot(ctx)
	if err != nil {
		p.logger.Warn("historical snapshot unavailable, using cold-start features",
			logging.String("claim_id", verdict.ClaimID.String()), logging.Err(err))
		corpus = nil
	}

	features := p.engine.Compute(verdict.Entities, corpus)
	verdict.Features = &features

	raw := p.scorer.Score(features)
	risk := p.normalizeRisk(raw, features)
	verdict.RiskScore = &risk

	prediction := claim.PredictionLowRisk
	if risk > p.threshold {
		prediction = claim.PredictionHighRisk
	}
	verdict.Prediction = &prediction
	verdict.Status = claim.StatusComplete

	p.persist(ctx, verdict)
	p.publish(ctx, verdict)
	p.observe(verdict, start)

	return verdict, nil
}

// normalizeRisk maps a raw anomaly score onto the [0, 1] risk scale.  The
// fallback sentinel routes through the cost-outlier feature: the ensemble
// convention (more negative = more anomalous) is inverted so higher means
// riskier.  Real reconstruction errors divide by the saturation constant.
func (p *Pipeline) normalizeRisk(raw float64, features claim.FeatureVector) float64 {
	if raw == anomaly.FallbackSentinel {
		p.metrics.ScorerFallbacksTotal.WithLabelValues("sentinel").Inc()
		return clamp01((features.CostOutlierScore + 1) / 2)
	}
	return clamp01(raw / riskSaturation)
}

// persist appends the scored claim.  Failures are logged and never surface
// into the verdict.
func (p *Pipeline) persist(ctx context.Context, v *claim.Verdict) {
	if err := p.repo.Save(ctx, claim.NewClaimRecord(v)); err != nil {
		p.logger.Error("failed to persist scored claim",
			logging.String("claim_id", v.ClaimID.String()), logging.Err(err))
	}
}

// publish emits lifecycle events, best effort.
func (p *Pipeline) publish(ctx context.Context, v *claim.Verdict) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.ClaimAnalyzed(ctx, v); err != nil {
		p.logger.Warn("failed to publish analyzed event",
			logging.String("claim_id", v.ClaimID.String()), logging.Err(err))
	}
	if v.HighRisk() {
		if err := p.publisher.ClaimFlagged(ctx, v); err != nil {
			p.logger.Warn("failed to publish flagged event",
				logging.String("claim_id", v.ClaimID.String()), logging.Err(err))
		}
	}
}

func (p *Pipeline) observe(v *claim.Verdict, start time.Time) {
	prediction := "none"
	if v.Prediction != nil {
		prediction = string(*v.Prediction)
	}
	p.metrics.ClaimsAnalyzedTotal.WithLabelValues(string(v.Status), prediction).Inc()
	p.metrics.AnalysisDuration.WithLabelValues(string(v.Status)).Observe(time.Since(start).Seconds())
	if v.RiskScore != nil {
		p.metrics.RiskScoreDistribution.WithLabelValues(prediction).Observe(*v.RiskScore)
	}
	if v.HighRisk() {
		source := "model"
		if !p.scorer.ModelLoaded() {
			source = "heuristic"
		}
		p.metrics.HighRiskClaimsTotal.WithLabelValues(source).Inc()
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
