package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	// Point the home directory somewhere empty so no real config leaks in.
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "us-east-1", cfg.AWS.DefaultRegion)
	assert.Equal(t, "eastus", cfg.Azure.DefaultRegion)
	assert.Equal(t, 4, cfg.Checks.Concurrency)
	assert.Zero(t, cfg.Checks.Thresholds.IdleCPUPercent, "thresholds default to zero (keep check defaults)")
}

func TestLoad_ReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
logging:
  level: debug
  format: json
aws:
  default_profile: prod
  default_region: eu-west-1
azure:
  subscription_id: 00000000-0000-0000-0000-000000000000
checks:
  concurrency: 8
  thresholds:
    idle_cpu_percent: 10
    snapshot_max_age_days: 180
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "prod", cfg.AWS.DefaultProfile)
	assert.Equal(t, "eu-west-1", cfg.AWS.DefaultRegion)
	assert.Equal(t, "00000000-0000-0000-0000-000000000000", cfg.Azure.SubscriptionID)
	assert.Equal(t, "eastus", cfg.Azure.DefaultRegion, "unset keys keep defaults")
	assert.Equal(t, 8, cfg.Checks.Concurrency)
	assert.Equal(t, 10.0, cfg.Checks.Thresholds.IdleCPUPercent)
	assert.Equal(t, 180, cfg.Checks.Thresholds.SnapshotMaxAgeDays)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("COSTSCOPE_AWS_DEFAULT_REGION", "ap-southeast-2")
	t.Setenv("COSTSCOPE_LOGGING_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "ap-southeast-2", cfg.AWS.DefaultRegion)
	assert.Equal(t, "warn", cfg.Logging.Level)
}
