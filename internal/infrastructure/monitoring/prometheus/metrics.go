package prometheus

// AppMetrics holds every application metric the platform records.  A single
// instance is constructed at startup and threaded through the HTTP layer,
// the analysis pipeline, and the infrastructure adapters.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Auth layer
	AuthAttemptsTotal CounterVec

	// Claim analysis
	ClaimsAnalyzedTotal   CounterVec
	AnalysisDuration      HistogramVec
	ExtractionDuration    HistogramVec
	RiskScoreDistribution HistogramVec
	HighRiskClaimsTotal   CounterVec
	ScorerFallbacksTotal  CounterVec
	FeedbackTotal         CounterVec

	// Ingestion
	DocumentsIngestedTotal CounterVec
	DocumentBytesIngested  CounterVec
	RejectedUploadsTotal   CounterVec

	// Infrastructure
	DBQueryDuration       HistogramVec
	CacheHitsTotal        CounterVec
	CacheMissesTotal      CounterVec
	EventsPublishedTotal  CounterVec
	EventPublishFailures  CounterVec
	WorkerMessagesTotal   CounterVec
	WorkerProcessDuration HistogramVec
	ArchiveUploadsTotal   CounterVec
	ArchiveUploadDuration HistogramVec
}

// Default bucket layouts.
var (
	DefaultHTTPDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultDBDurationBuckets   = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
	RiskScoreBuckets           = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
)

// NewAppMetrics registers every application metric against collector and
// returns the populated AppMetrics.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method", "path")

	// Auth
	m.AuthAttemptsTotal = collector.RegisterCounter("auth_attempts_total", "API key authentication attempts", "result")

	// Claim analysis
	m.ClaimsAnalyzedTotal = collector.RegisterCounter("claims_analyzed_total", "Claims processed by the analysis pipeline", "status", "prediction")
	m.AnalysisDuration = collector.RegisterHistogram("claim_analysis_duration_seconds", "End-to-end claim analysis duration", DefaultHTTPDurationBuckets, "status")
	m.ExtractionDuration = collector.RegisterHistogram("claim_extraction_duration_seconds", "Document text extraction duration", DefaultHTTPDurationBuckets, "kind")
	m.RiskScoreDistribution = collector.RegisterHistogram("claim_risk_score", "Distribution of normalized risk scores", RiskScoreBuckets, "prediction")
	m.HighRiskClaimsTotal = collector.RegisterCounter("high_risk_claims_total", "Claims classified as high risk", "source")
	m.ScorerFallbacksTotal = collector.RegisterCounter("scorer_fallbacks_total", "Anomaly scorings served by the heuristic fallback", "reason")
	m.FeedbackTotal = collector.RegisterCounter("claim_feedback_total", "Adjuster feedback submissions", "label")

	// Ingestion
	m.DocumentsIngestedTotal = collector.RegisterCounter("documents_ingested_total", "Accepted document uploads", "extension")
	m.DocumentBytesIngested = collector.RegisterCounter("document_bytes_ingested_total", "Total bytes of accepted documents", "extension")
	m.RejectedUploadsTotal = collector.RegisterCounter("rejected_uploads_total", "Rejected document uploads", "reason")

	// Infrastructure
	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Database query duration", DefaultDBDurationBuckets, "query")
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.EventsPublishedTotal = collector.RegisterCounter("events_published_total", "Events published to the message broker", "topic")
	m.EventPublishFailures = collector.RegisterCounter("event_publish_failures_total", "Failed event publishes", "topic")
	m.WorkerMessagesTotal = collector.RegisterCounter("worker_messages_total", "Messages handled by background workers", "topic", "status")
	m.WorkerProcessDuration = collector.RegisterHistogram("worker_process_duration_seconds", "Worker message handling duration", DefaultHTTPDurationBuckets, "topic")
	m.ArchiveUploadsTotal = collector.RegisterCounter("archive_uploads_total", "Documents archived to object storage", "status")
	m.ArchiveUploadDuration = collector.RegisterHistogram("archive_upload_duration_seconds", "Object storage upload duration", DefaultHTTPDurationBuckets, "status")

	return m
}

// NewNopAppMetrics returns an AppMetrics whose every metric is a no-op.
// Intended for tests and for components constructed before the collector.
func NewNopAppMetrics() *AppMetrics {
	return &AppMetrics{
		HTTPRequestsTotal:      noopCounterVec{},
		HTTPRequestDuration:    noopHistogramVec{},
		HTTPActiveRequests:     noopGaugeVec{},
		AuthAttemptsTotal:      noopCounterVec{},
		ClaimsAnalyzedTotal:    noopCounterVec{},
		AnalysisDuration:       noopHistogramVec{},
		ExtractionDuration:     noopHistogramVec{},
		RiskScoreDistribution:  noopHistogramVec{},
		HighRiskClaimsTotal:    noopCounterVec{},
		ScorerFallbacksTotal:   noopCounterVec{},
		FeedbackTotal:          noopCounterVec{},
		DocumentsIngestedTotal: noopCounterVec{},
		DocumentBytesIngested:  noopCounterVec{},
		RejectedUploadsTotal:   noopCounterVec{},
		DBQueryDuration:        noopHistogramVec{},
		CacheHitsTotal:         noopCounterVec{},
		CacheMissesTotal:       noopCounterVec{},
		EventsPublishedTotal:   noopCounterVec{},
		EventPublishFailures:   noopCounterVec{},
		WorkerMessagesTotal:    noopCounterVec{},
		WorkerProcessDuration:  noopHistogramVec{},
		ArchiveUploadsTotal:    noopCounterVec{},
		ArchiveUploadDuration:  noopHistogramVec{},
	}
}
