// Package config provides configuration loading, defaults, and validation for
// the FraudLens platform.
package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort      = 8080
	DefaultServerMode      = "release"
	DefaultMaxBodySize     = 32 << 20 // 32 MiB
	DefaultShutdownTimeout = 15 * time.Second

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "fraudlens"
	DefaultDBMaxConns = 25

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisDB        = 0
	DefaultRedisTTL       = 5 * time.Minute
	DefaultRedisKeyPrefix = "fraudlens:"

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "fraudlens-workers"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "claim-documents"

	DefaultHighRiskThreshold = 0.5
	DefaultContamination     = 0.1
	DefaultMinHistory        = 2

	DefaultMaxUploadSize  = 16 << 20 // 16 MiB
	DefaultOCRCommand     = "tesseract"
	DefaultPDFTextCommand = "pdftotext"
	DefaultExtractTimeout = 30 * time.Second

	DefaultWorkerConcurrency = 4

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// DefaultAllowedExtensions lists the document types the ingestion layer
// accepts, each lowercase with a leading dot.
func DefaultAllowedExtensions() []string {
	return []string{".pdf", ".png", ".jpg", ".jpeg", ".tiff", ".bmp"}
}

// ApplyDefaults fills every zero-value field in cfg with the platform default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = "migrations"
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = DefaultRedisTTL
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}
	if cfg.Kafka.WriteTimeout == 0 {
		cfg.Kafka.WriteTimeout = 10 * time.Second
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}
	if cfg.MinIO.PresignExpiry == 0 {
		cfg.MinIO.PresignExpiry = 15 * time.Minute
	}

	// ── Model ─────────────────────────────────────────────────────────────────
	if cfg.Model.HighRiskThreshold == 0 {
		cfg.Model.HighRiskThreshold = DefaultHighRiskThreshold
	}
	if cfg.Model.Contamination == 0 {
		cfg.Model.Contamination = DefaultContamination
	}
	if cfg.Model.MinHistory == 0 {
		cfg.Model.MinHistory = DefaultMinHistory
	}

	// ── Ingestion ─────────────────────────────────────────────────────────────
	if len(cfg.Ingestion.AllowedExtensions) == 0 {
		cfg.Ingestion.AllowedExtensions = DefaultAllowedExtensions()
	}
	if cfg.Ingestion.MaxUploadSize == 0 {
		cfg.Ingestion.MaxUploadSize = DefaultMaxUploadSize
	}
	if cfg.Ingestion.OCRCommand == "" {
		cfg.Ingestion.OCRCommand = DefaultOCRCommand
	}
	if cfg.Ingestion.PDFTextCommand == "" {
		cfg.Ingestion.PDFTextCommand = DefaultPDFTextCommand
	}
	if cfg.Ingestion.ExtractTimeout == 0 {
		cfg.Ingestion.ExtractTimeout = DefaultExtractTimeout
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = 3
	}
	if cfg.Worker.RetryBackoff == 0 {
		cfg.Worker.RetryBackoff = 2 * time.Second
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
}
