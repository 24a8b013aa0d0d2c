package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalYAML = `
database:
  user: fraudlens
`

func TestLoadMinimalFile(t *testing.T) {
	path := writeTempConfig(t, minimalYAML)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, "fraudlens", cfg.Database.User)
	assert.Equal(t, DefaultAllowedExtensions(), cfg.Ingestion.AllowedExtensions)
}

func TestLoadOverrides(t *testing.T) {
	path := writeTempConfig(t, `
server:
  port: 9191
  mode: test
database:
  user: fraudlens
  host: pg.internal
model:
  high_risk_threshold: 0.65
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "test", cfg.Server.Mode)
	assert.Equal(t, "pg.internal", cfg.Database.Host)
	assert.Equal(t, 0.65, cfg.Model.HighRiskThreshold)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadInvalidConfig(t *testing.T) {
	path := writeTempConfig(t, `
database:
  user: fraudlens
log:
  level: chatty
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FRAUDLENS_DATABASE_USER", "envuser")
	t.Setenv("FRAUDLENS_SERVER_PORT", "7070")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "envuser", cfg.Database.User)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestMustLoadPanicsOnError(t *testing.T) {
	assert.Panics(t, func() {
		MustLoad(filepath.Join(t.TempDir(), "missing.yaml"))
	})
}
