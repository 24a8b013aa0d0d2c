// Package kafka publishes and consumes claim lifecycle events.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/fraudlens/fraudlens/internal/domain/claim"
)

// Topic constants.
const (
	TopicClaimAnalyzed = "claim.analyzed"
	TopicClaimFlagged  = "claim.flagged"
)

const (
	eventSource   = "fraudlens"
	schemaVersion = "1.0"
)

// EventEnvelope standardizes event messages across topics.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	SchemaVersion string          `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
}

// ClaimAnalyzedPayload is emitted for every claim that reaches a verdict.
type ClaimAnalyzedPayload struct {
	ClaimID    string   `json:"claim_id"`
	Status     string   `json:"status"`
	RiskScore  *float64 `json:"risk_score,omitempty"`
	Prediction *string  `json:"prediction,omitempty"`
	Issues     []string `json:"issues,omitempty"`
	AnalyzedAt string   `json:"analyzed_at"`
}

// ClaimFlaggedPayload is emitted only for high-risk claims so downstream
// review queues do not need to filter the full stream.
type ClaimFlaggedPayload struct {
	ClaimID    string   `json:"claim_id"`
	Doctor     *string  `json:"doctor,omitempty"`
	Diagnosis  *string  `json:"diagnosis,omitempty"`
	Cost       *float64 `json:"cost,omitempty"`
	RiskScore  float64  `json:"risk_score"`
	AnalyzedAt string   `json:"analyzed_at"`
}

// NewEnvelope wraps a payload in the standard envelope.
func NewEnvelope(eventType string, payload interface{}) (*EventEnvelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Source:        eventSource,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: schemaVersion,
		Payload:       raw,
	}, nil
}

func analyzedPayload(v *claim.Verdict) ClaimAnalyzedPayload {
	p := ClaimAnalyzedPayload{
		ClaimID:    v.ClaimID.String(),
		Status:     string(v.Status),
		RiskScore:  v.RiskScore,
		Issues:     v.Issues,
		AnalyzedAt: v.AnalyzedAt.UTC().Format(time.RFC3339),
	}
	if v.Prediction != nil {
		s := string(*v.Prediction)
		p.Prediction = &s
	}
	return p
}

func flaggedPayload(v *claim.Verdict) ClaimFlaggedPayload {
	p := ClaimFlaggedPayload{
		ClaimID:    v.ClaimID.String(),
		Doctor:     v.Entities.Doctor,
		Diagnosis:  v.Entities.Diagnosis,
		Cost:       v.Entities.Cost,
		AnalyzedAt: v.AnalyzedAt.UTC().Format(time.RFC3339),
	}
	if v.RiskScore != nil {
		p.RiskScore = *v.RiskScore
	}
	return p
}
