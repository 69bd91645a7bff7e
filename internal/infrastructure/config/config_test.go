package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	path := writeConfig(t, "logging:\n  level: debug\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "bakery.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "bakery", cfg.Metrics.Namespace)
	assert.Equal(t, "default", cfg.Production.TenantID)
	assert.Equal(t, "BATCH", cfg.Production.BatchPrefix)
	assert.Equal(t, DefaultProductionSteps, cfg.Production.DefaultSteps)
	assert.Zero(t, cfg.Production.ShelfLife())
}

func TestLoadConfig_FileValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	path := writeConfig(t, `
database:
  type: sqlite
  path: /tmp/bakery-test.db
production:
  tenant_id: north-bakery
  batch_prefix: NB
  shelf_life_days: 3
  release_on_hold: true
  default_steps:
    - Mix
    - Bake
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/bakery-test.db", cfg.Database.Path)
	assert.Equal(t, "north-bakery", cfg.Production.TenantID)
	assert.Equal(t, "NB", cfg.Production.BatchPrefix)
	assert.Equal(t, []string{"Mix", "Bake"}, cfg.Production.DefaultSteps)
	assert.Equal(t, 72*time.Hour, cfg.Production.ShelfLife())
	assert.True(t, cfg.Production.ReleaseOnHold)
}

func TestLoadConfig_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("BAKERY_PRODUCTION_BATCH_PREFIX", "ENV")
	t.Setenv("BAKERY_LOGGING_LEVEL", "warn")
	t.Setenv("BAKERY_METRICS_ENABLED", "true")
	path := writeConfig(t, "production:\n  batch_prefix: FILE\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "ENV", cfg.Production.BatchPrefix)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadConfig_DatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgresql://bakery:secret@db:5432/bakery")
	path := writeConfig(t, "database:\n  type: postgres\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgresql://bakery:secret@db:5432/bakery", cfg.Database.URL)
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	tests := []struct {
		name string
		body string
	}{
		{"unknown database", "database:\n  type: oracle\n"},
		{"batch prefix with dash", "production:\n  batch_prefix: BAD-PREFIX\n"},
		{"negative shelf life", "production:\n  shelf_life_days: -1\n"},
		{"unknown log level", "logging:\n  level: chatty\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.ErrorContains(t, err, "invalid configuration")
		})
	}
}

func TestLoadConfigOrDefault_FallsBack(t *testing.T) {
	cfg := LoadConfigOrDefault(filepath.Join(t.TempDir(), "broken.yaml"))
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "BATCH", cfg.Production.BatchPrefix)
}

func TestValidateConfig_NamesFieldsByKey(t *testing.T) {
	cfg := &Config{}
	SetDefaults(cfg)
	cfg.Production.BatchPrefix = "BAD-PREFIX"

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "production.batch_prefix failed 'alphanum'")
}
