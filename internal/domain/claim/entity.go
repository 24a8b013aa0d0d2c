// Package claim implements the claim bounded context: the entities extracted
// from claim documents, the analysis verdict, and the validation rules that
// decide whether a claim can be scored at all.  Infrastructure concerns
// (persistence, transport) are handled by separate repository and adapter
// layers.
package claim

import (
	"time"

	"github.com/google/uuid"
)

// ─────────────────────────────────────────────────────────────────────────────
// Validation status and prediction enums
// ─────────────────────────────────────────────────────────────────────────────

// Status is the terminal validation state assigned to every analyzed claim.
// The states are ordered: an empty document is LowQuality before field
// presence is ever considered, and a claim missing any required field is
// Incomplete before any scoring happens.
type Status string

const (
	// StatusLowQuality marks documents that yielded no usable text.
	StatusLowQuality Status = "low_quality"
	// StatusIncomplete marks claims with at least one required field missing.
	StatusIncomplete Status = "incomplete"
	// StatusComplete marks claims that passed validation and were scored.
	StatusComplete Status = "complete"
)

// Prediction is the binary risk classification of a scored claim.
type Prediction string

const (
	PredictionHighRisk Prediction = "high_risk"
	PredictionLowRisk  Prediction = "low_risk"
)

// Issue messages reported to callers.  The wording is part of the API
// contract; downstream consumers match on these strings.
const (
	IssueLowQuality       = "Unable to extract text - low quality or empty file"
	IssueMissingDoctor    = "Missing Doctor Name"
	IssueMissingDiagnosis = "Missing Diagnosis"
	IssueMissingCost      = "Missing Cost"
)

// ─────────────────────────────────────────────────────────────────────────────
// Entities
// ─────────────────────────────────────────────────────────────────────────────

// Entities holds the fields extracted from a claim document.  Absent fields
// are nil, never empty strings or zero values, so that "not found" is
// distinguishable from a legitimately empty capture.
type Entities struct {
	Doctor    *string  `json:"doctor_name"`
	Diagnosis *string  `json:"diagnosis"`
	Cost      *float64 `json:"claim_cost"`
}

// Complete reports whether every required field was extracted.
func (e Entities) Complete() bool {
	return e.Doctor != nil && e.Diagnosis != nil && e.Cost != nil
}

// MissingIssues returns the issue messages for absent fields in the fixed
// doctor, diagnosis, cost order.  Returns nil when the claim is complete.
func (e Entities) MissingIssues() []string {
	var issues []string
	if e.Doctor == nil {
		issues = append(issues, IssueMissingDoctor)
	}
	if e.Diagnosis == nil {
		issues = append(issues, IssueMissingDiagnosis)
	}
	if e.Cost == nil {
		issues = append(issues, IssueMissingCost)
	}
	return issues
}

// ─────────────────────────────────────────────────────────────────────────────
// Features and verdict
// ─────────────────────────────────────────────────────────────────────────────

// FeatureVector is the numeric feature set computed for a complete claim.
type FeatureVector struct {
	Cost               float64 `json:"claim_cost"`
	DoctorFrequency    int     `json:"doctor_frequency"`
	DiagnosisFrequency int     `json:"diagnosis_frequency"`
	CostOutlierScore   float64 `json:"cost_outlier_score"`
}

// Verdict is the full result of analyzing one claim document.  Features,
// RiskScore, and Prediction are nil unless Status is StatusComplete.
type Verdict struct {
	ClaimID    uuid.UUID      `json:"claim_id"`
	Entities   Entities       `json:"entities"`
	Features   *FeatureVector `json:"features,omitempty"`
	RiskScore  *float64       `json:"risk_score,omitempty"`
	Prediction *Prediction    `json:"prediction,omitempty"`
	Status     Status         `json:"status"`
	Issues     []string       `json:"issues,omitempty"`
	AnalyzedAt time.Time      `json:"analyzed_at"`
}

// HighRisk reports whether the verdict classified the claim as high risk.
func (v *Verdict) HighRisk() bool {
	return v.Prediction != nil && *v.Prediction == PredictionHighRisk
}

// ─────────────────────────────────────────────────────────────────────────────
// Persistence records
// ─────────────────────────────────────────────────────────────────────────────

// HistoricalRecord is one row of the historical corpus used for frequency
// and outlier features.  Fields mirror Entities: nil means the value was
// never extracted for that claim.
type HistoricalRecord struct {
	Doctor    *string
	Diagnosis *string
	Cost      *float64
}

// ClaimRecord is the persisted form of a scored claim.
type ClaimRecord struct {
	ID         uuid.UUID
	Doctor     *string
	Diagnosis  *string
	Cost       *float64
	RiskScore  float64
	Prediction Prediction
	IsFraud    *bool
	CreatedAt  time.Time
}

// NewClaimRecord builds a ClaimRecord from a complete verdict.  The caller
// must only pass verdicts with StatusComplete; others carry no score.
func NewClaimRecord(v *Verdict) *ClaimRecord {
	rec := &ClaimRecord{
		ID:        v.ClaimID,
		Doctor:    v.Entities.Doctor,
		Diagnosis: v.Entities.Diagnosis,
		Cost:      v.Entities.Cost,
		CreatedAt: v.AnalyzedAt,
	}
	if v.RiskScore != nil {
		rec.RiskScore = *v.RiskScore
	}
	if v.Prediction != nil {
		rec.Prediction = *v.Prediction
	}
	return rec
}

// ─────────────────────────────────────────────────────────────────────────────
// Aggregate statistics
// ─────────────────────────────────────────────────────────────────────────────

// NameCount pairs a doctor or diagnosis value with its occurrence count.
type NameCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Stats summarises the analyzed-claim corpus.  HighRiskClaims counts claims
// whose stored risk score exceeds HighRiskStatsThreshold.
type Stats struct {
	TotalClaims    int64       `json:"total_claims"`
	HighRiskClaims int64       `json:"high_risk_claims"`
	LowRiskClaims  int64       `json:"low_risk_claims"`
	AverageRisk    float64     `json:"average_risk_score"`
	TopDoctors     []NameCount `json:"top_doctors"`
	TopDiagnoses   []NameCount `json:"top_diagnoses"`
}

// HighRiskStatsThreshold is the risk-score cutoff used by the stats report.
// It is deliberately stricter than the classification threshold so the
// report surfaces only the strongest signals.
const HighRiskStatsThreshold = 0.6

// TopListLimit caps the TopDoctors and TopDiagnoses lists.
const TopListLimit = 5
