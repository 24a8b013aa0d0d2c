// Package config defines all configuration structures for the FraudLens
// platform.  No I/O or parsing logic lives here, only plain data types and
// validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds Apache Kafka producer/consumer parameters.
type KafkaConfig struct {
	Brokers         []string      `mapstructure:"brokers"`
	GroupID         string        `mapstructure:"group_id"`
	AutoOffsetReset string        `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ProducerRetries int           `mapstructure:"producer_retries"`
	BatchSize       int           `mapstructure:"batch_size"`
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters.
type MinIOConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	Bucket        string        `mapstructure:"bucket"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// AuthConfig holds API-key authentication parameters for the REST surface.
type AuthConfig struct {
	// APIKeys is the set of accepted keys for the X-API-Key header.  An
	// empty list disables authentication; intended for local development only.
	APIKeys []string `mapstructure:"api_keys"`
	// RateLimitRPS is the per-client sustained request rate.  Zero disables
	// rate limiting.
	RateLimitRPS float64 `mapstructure:"rate_limit_rps"`
	// RateLimitBurst is the per-client burst allowance.
	RateLimitBurst int `mapstructure:"rate_limit_burst"`
}

// ModelConfig holds anomaly-model loading and scoring parameters.
type ModelConfig struct {
	// ArtifactPath points to the JSON model artifact produced by the offline
	// trainer.  When the file is missing or unreadable the scorer falls back
	// to the heuristic cost-outlier path.
	ArtifactPath string `mapstructure:"artifact_path"`
	// HighRiskThreshold is the risk-score cutoff above which a claim is
	// classified as high risk.
	HighRiskThreshold float64 `mapstructure:"high_risk_threshold"`
	// Contamination is the expected anomaly proportion used when fitting the
	// cost-outlier model over historical claims.
	Contamination float64 `mapstructure:"contamination"`
	// MinHistory is the minimum number of historical cost observations
	// required before the outlier model is fitted.
	MinHistory int `mapstructure:"min_history"`
}

// IngestionConfig holds document-upload and text-extraction parameters.
type IngestionConfig struct {
	// AllowedExtensions is the lowercase allowlist of upload file extensions,
	// each including the leading dot.
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
	// MaxUploadSize caps the accepted document size in bytes.
	MaxUploadSize int64 `mapstructure:"max_upload_size"`
	// OCRCommand is the external binary invoked for image OCR.  Empty
	// disables OCR; image uploads then yield empty text.
	OCRCommand string `mapstructure:"ocr_command"`
	// PDFTextCommand is the external binary invoked for PDF text extraction.
	PDFTextCommand string `mapstructure:"pdf_text_command"`
	// ExtractTimeout bounds a single external extraction invocation.
	ExtractTimeout time.Duration `mapstructure:"extract_timeout"`
}

// WorkerConfig holds background-worker execution parameters.
type WorkerConfig struct {
	Concurrency    int           `mapstructure:"concurrency"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"`
	CommitInterval time.Duration `mapstructure:"commit_interval"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
	Output string `mapstructure:"output"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the entire platform.
// Every infrastructure component and application service reads its settings
// from the relevant sub-struct.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Model     ModelConfig     `mapstructure:"model"`
	Ingestion IngestionConfig `mapstructure:"ingestion"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Log       LogConfig       `mapstructure:"log"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	// Database
	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.User == "" {
		return fmt.Errorf("config: database.user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("config: database.max_conns must be >= 1, got %d", c.Database.MaxConns)
	}

	// Redis
	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
	}

	// Kafka
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}
	if c.Kafka.GroupID == "" {
		return fmt.Errorf("config: kafka.group_id is required")
	}

	// MinIO
	if c.MinIO.Endpoint == "" {
		return fmt.Errorf("config: minio.endpoint is required")
	}
	if c.MinIO.Bucket == "" {
		return fmt.Errorf("config: minio.bucket is required")
	}

	// Model
	if c.Model.HighRiskThreshold <= 0 || c.Model.HighRiskThreshold >= 1 {
		return fmt.Errorf("config: model.high_risk_threshold %g is out of range (0, 1)", c.Model.HighRiskThreshold)
	}
	if c.Model.Contamination <= 0 || c.Model.Contamination > 0.5 {
		return fmt.Errorf("config: model.contamination %g is out of range (0, 0.5]", c.Model.Contamination)
	}
	if c.Model.MinHistory < 2 {
		return fmt.Errorf("config: model.min_history must be >= 2, got %d", c.Model.MinHistory)
	}

	// Ingestion
	if len(c.Ingestion.AllowedExtensions) == 0 {
		return fmt.Errorf("config: ingestion.allowed_extensions must not be empty")
	}
	if c.Ingestion.MaxUploadSize < 1 {
		return fmt.Errorf("config: ingestion.max_upload_size must be >= 1, got %d", c.Ingestion.MaxUploadSize)
	}

	// Worker
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be >= 1, got %d", c.Worker.Concurrency)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

// DSN renders the PostgreSQL connection string for database/sql.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}
