package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("", "key")
	require.Error(t, err)

	_, err = NewClient("ftp://example.com", "key")
	require.Error(t, err)

	c, err := NewClient("http://localhost:8080/", "key")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.baseURL)
}

func TestAnalyzeDocument(t *testing.T) {
	var gotKey, gotFilename string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/claims/analyze", r.URL.Path)
		gotKey = r.Header.Get(APIKeyHeader)

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename
		gotBody, err = io.ReadAll(file)
		require.NoError(t, err)

		risk := 0.9
		pred := "high_risk"
		json.NewEncoder(w).Encode(AnalyzeResult{
			ClaimID:    "11111111-1111-1111-1111-111111111111",
			Status:     "complete",
			RiskScore:  &risk,
			Prediction: &pred,
		})
	}))
	defer server.Close()

	c, err := NewClient(server.URL, "secret")
	require.NoError(t, err)

	result, err := c.AnalyzeDocument(context.Background(), "claim.txt",
		strings.NewReader("Dr. Smith Cost: $100"))
	require.NoError(t, err)

	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "claim.txt", gotFilename)
	assert.Equal(t, "Dr. Smith Cost: $100", string(gotBody))
	assert.Equal(t, "complete", result.Status)
	assert.True(t, result.HighRisk())
}

func TestStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/claims/stats", r.URL.Path)
		json.NewEncoder(w).Encode(Stats{
			TotalClaims:  3,
			AverageRisk:  0.5,
			TopDiagnoses: []NameCount{{Name: "flu", Count: 2}},
		})
	}))
	defer server.Close()

	c, err := NewClient(server.URL, "")
	require.NoError(t, err)

	stats, err := c.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalClaims)
	assert.Equal(t, "flu", stats.TopDiagnoses[0].Name)
}

func TestSubmitFeedback(t *testing.T) {
	var gotPath, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c, err := NewClient(server.URL, "")
	require.NoError(t, err)

	require.NoError(t, c.SubmitFeedback(context.Background(), "abc-123", true))
	assert.Equal(t, "/api/v1/claims/abc-123/feedback", gotPath)
	assert.JSONEq(t, `{"is_fraud": true}`, gotBody)
}

func TestAPIErrorDecoding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code":"CLM_001","message":"claim not found"}`))
	}))
	defer server.Close()

	c, err := NewClient(server.URL, "")
	require.NoError(t, err)

	err = c.SubmitFeedback(context.Background(), "missing", false)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
	assert.Equal(t, "CLM_001", apiErr.Code)
	assert.Equal(t, "claim not found", apiErr.Message)
}

func TestAPIErrorNonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream timeout"))
	}))
	defer server.Close()

	c, err := NewClient(server.URL, "")
	require.NoError(t, err)

	_, err = c.Stats(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream timeout", apiErr.Message)
}

func TestOptions(t *testing.T) {
	hc := &http.Client{}
	c, err := NewClient("http://localhost", "k",
		WithHTTPClient(hc),
		WithTimeout(5*time.Second),
		WithUserAgent("custom/1.0"))
	require.NoError(t, err)

	assert.Same(t, hc, c.httpClient)
	assert.Equal(t, 5*time.Second, hc.Timeout)
	assert.Equal(t, "custom/1.0", c.userAgent)
}
