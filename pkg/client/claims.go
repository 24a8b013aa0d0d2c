package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Entities are the fields extracted from a claim document.  Absent fields
// are nil.
type Entities struct {
	DoctorName *string  `json:"doctor_name"`
	Diagnosis  *string  `json:"diagnosis"`
	ClaimCost  *float64 `json:"claim_cost"`
}

// Features are the numeric inputs to the risk model.
type Features struct {
	ClaimCost          float64 `json:"claim_cost"`
	DoctorFrequency    int     `json:"doctor_frequency"`
	DiagnosisFrequency int     `json:"diagnosis_frequency"`
	CostOutlierScore   float64 `json:"cost_outlier_score"`
}

// AnalyzeResult is the verdict for one analyzed claim document.
type AnalyzeResult struct {
	ClaimID     string    `json:"claim_id"`
	Entities    Entities  `json:"entities"`
	Features    *Features `json:"features,omitempty"`
	RiskScore   *float64  `json:"risk_score,omitempty"`
	Prediction  *string   `json:"prediction,omitempty"`
	Status      string    `json:"status"`
	Issues      []string  `json:"issues,omitempty"`
	AnalyzedAt  time.Time `json:"analyzed_at"`
	DocumentKey string    `json:"document_key,omitempty"`
}

// HighRisk reports whether the claim was classified high risk.
func (r *AnalyzeResult) HighRisk() bool {
	return r.Prediction != nil && *r.Prediction == "high_risk"
}

// NameCount pairs a doctor or diagnosis with its occurrence count.
type NameCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Stats is the aggregate claim report.
type Stats struct {
	TotalClaims    int64       `json:"total_claims"`
	HighRiskClaims int64       `json:"high_risk_claims"`
	LowRiskClaims  int64       `json:"low_risk_claims"`
	AverageRisk    float64     `json:"average_risk_score"`
	TopDoctors     []NameCount `json:"top_doctors"`
	TopDiagnoses   []NameCount `json:"top_diagnoses"`
}

// AnalyzeFile uploads the document at path for analysis.
func (c *Client) AnalyzeFile(ctx context.Context, path string) (*AnalyzeResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("client: failed to open %s: %w", path, err)
	}
	defer f.Close()
	return c.AnalyzeDocument(ctx, filepath.Base(path), f)
}

// AnalyzeDocument uploads a document supplied as a reader.  filename selects
// the server-side extraction strategy via its extension.
func (c *Client) AnalyzeDocument(ctx context.Context, filename string, r io.Reader) (*AnalyzeResult, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("client: failed to build upload: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, fmt.Errorf("client: failed to read document: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("client: failed to build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/claims/analyze", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var result AnalyzeResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Stats fetches the aggregate claim report.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/v1/claims/stats", nil)
	if err != nil {
		return nil, err
	}

	var stats Stats
	if err := c.do(req, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SubmitFeedback records an adjuster's fraud label for an analyzed claim.
func (c *Client) SubmitFeedback(ctx context.Context, claimID string, isFraud bool) error {
	payload := fmt.Sprintf(`{"is_fraud": %t}`, isFraud)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/claims/"+claimID+"/feedback",
		bytes.NewBufferString(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}
