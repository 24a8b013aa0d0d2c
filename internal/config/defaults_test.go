package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaultsNil(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}

func TestApplyDefaultsFillsZeroValues(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultServerMode, cfg.Server.Mode)
	assert.Equal(t, DefaultDBHost, cfg.Database.Host)
	assert.Equal(t, DefaultDBName, cfg.Database.DBName)
	assert.Equal(t, DefaultRedisAddr, cfg.Redis.Addr)
	assert.Equal(t, []string{DefaultKafkaBroker}, cfg.Kafka.Brokers)
	assert.Equal(t, DefaultMinIOBucket, cfg.MinIO.Bucket)
	assert.Equal(t, DefaultHighRiskThreshold, cfg.Model.HighRiskThreshold)
	assert.Equal(t, DefaultContamination, cfg.Model.Contamination)
	assert.Equal(t, DefaultAllowedExtensions(), cfg.Ingestion.AllowedExtensions)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultLogFormat, cfg.Log.Format)
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9090
	cfg.Model.HighRiskThreshold = 0.7
	cfg.Ingestion.AllowedExtensions = []string{".pdf"}
	ApplyDefaults(cfg)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 0.7, cfg.Model.HighRiskThreshold)
	assert.Equal(t, []string{".pdf"}, cfg.Ingestion.AllowedExtensions)
}
