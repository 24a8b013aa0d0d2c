package handlers

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fraudlens/fraudlens/internal/application/analysis"
	"github.com/fraudlens/fraudlens/internal/domain/claim"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/logging"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/prometheus"
	"github.com/fraudlens/fraudlens/internal/ingestion"
)

// ClaimHandler serves the claim analysis endpoints.
type ClaimHandler struct {
	pipeline  *analysis.Pipeline
	stats     *analysis.StatsService
	validator *ingestion.Validator
	extractor ingestion.TextExtractor
	archive   claim.DocumentArchive
	logger    logging.Logger
	metrics   *prometheus.AppMetrics
}

// ClaimHandlerParams collects the handler's dependencies.  Archive is
// optional; without one documents are analyzed but not retained.
type ClaimHandlerParams struct {
	Pipeline  *analysis.Pipeline
	Stats     *analysis.StatsService
	Validator *ingestion.Validator
	Extractor ingestion.TextExtractor
	Archive   claim.DocumentArchive
	Logger    logging.Logger
	Metrics   *prometheus.AppMetrics
}

// NewClaimHandler wires the handler.
func NewClaimHandler(params ClaimHandlerParams) *ClaimHandler {
	logger := params.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	metrics := params.Metrics
	if metrics == nil {
		metrics = prometheus.NewNopAppMetrics()
	}
	return &ClaimHandler{
		pipeline:  params.Pipeline,
		stats:     params.Stats,
		validator: params.Validator,
		extractor: params.Extractor,
		archive:   params.Archive,
		logger:    logger.Named("claims"),
		metrics:   metrics,
	}
}

// AnalyzeResponse is the analyze endpoint body: the verdict plus the storage
// key of the archived document when archiving succeeded.
type AnalyzeResponse struct {
	*claim.Verdict
	DocumentKey string `json:"document_key,omitempty"`
}

// Analyze handles POST /api/v1/claims/analyze.  It accepts a multipart
// upload under the "file" field, extracts its text, and runs the analysis
// pipeline.  Unreadable documents still produce a verdict; only malformed
// requests and rejected uploads are 4xx.
func (h *ClaimHandler) Analyze(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondValidationError(c, "multipart field 'file' is required")
		return
	}

	if h.validator != nil {
		if reason, err := h.validator.ValidateUpload(fileHeader.Filename, fileHeader.Size); err != nil {
			h.metrics.RejectedUploadsTotal.WithLabelValues(reason).Inc()
			respondValidationError(c, err.Error())
			return
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondValidationError(c, "failed to read uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondValidationError(c, "failed to read uploaded file")
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	h.metrics.DocumentsIngestedTotal.WithLabelValues(ext).Inc()
	h.metrics.DocumentBytesIngested.WithLabelValues(ext).Add(float64(len(data)))

	text := h.extractText(c.Request.Context(), fileHeader.Filename, ext, data)

	verdict, err := h.pipeline.Analyze(c.Request.Context(), text)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := AnalyzeResponse{Verdict: verdict}
	if h.archive != nil {
		key, err := h.archive.Store(c.Request.Context(), verdict.ClaimID, fileHeader.Filename, data)
		if err != nil {
			h.logger.Warn("failed to archive claim document",
				logging.String("claim_id", verdict.ClaimID.String()),
				logging.Err(err))
		} else {
			resp.DocumentKey = key
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ClaimHandler) extractText(ctx context.Context, filename, ext string, data []byte) string {
	if h.extractor == nil {
		return string(data)
	}
	start := time.Now()
	text := h.extractor.Extract(ctx, filename, data)
	h.metrics.ExtractionDuration.WithLabelValues(ext).Observe(time.Since(start).Seconds())
	return text
}

// Stats handles GET /api/v1/claims/stats.
func (h *ClaimHandler) Stats(c *gin.Context) {
	stats, err := h.stats.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// FeedbackRequest is the feedback endpoint body.
type FeedbackRequest struct {
	IsFraud *bool `json:"is_fraud" binding:"required"`
}

// Feedback handles POST /api/v1/claims/:id/feedback.
func (h *ClaimHandler) Feedback(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondValidationError(c, "claim id must be a UUID")
		return
	}

	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsFraud == nil {
		respondValidationError(c, "body field 'is_fraud' is required")
		return
	}

	if err := h.stats.RecordFeedback(c.Request.Context(), id, *req.IsFraud); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"claim_id": id.String(), "recorded": true})
}
