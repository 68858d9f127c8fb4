package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marine-obs/plet-harvester/internal/plet"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, plet.DefaultBaseURL, cfg.PLET.BaseURL)
	assert.Equal(t, plet.DefaultSiteURL, cfg.PLET.SiteURL)
	assert.Equal(t, ".cache", cfg.Harvest.OutDir)
	assert.Equal(t, "logs", cfg.Harvest.LogsDir)
	assert.False(t, cfg.Harvest.Overwrite)
	assert.Equal(t, 5000, cfg.Regions.MaxWKTChars)
	assert.True(t, cfg.Regions.Simplify)
	assert.Equal(t, "local", cfg.Storage.Provider)
	assert.Equal(t, "harvest_runs", cfg.DB.RunsTable)

	retry := cfg.RetryConfig()
	assert.Equal(t, 3, retry.Retries)
	assert.Equal(t, 60*time.Second, retry.Backoff)
	assert.Equal(t, 600*time.Second, retry.Timeout)
	assert.Equal(t, plet.DefaultRetryConfig(), retry)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  max_retries: 5
  backoff_base_seconds: 0.5
harvest:
  out_dir: /data/plet
  start_date: "2010-01-01"
  end_date: "2021-01-01"
  datasets:
    - "ds one"
regions:
  ids: ["1", "7"]
`), 0o640))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.HTTP.MaxRetries)
	assert.Equal(t, "/data/plet", cfg.Harvest.OutDir)
	assert.Equal(t, []string{"ds one"}, cfg.Harvest.Datasets)
	assert.Equal(t, []string{"1", "7"}, cfg.Regions.IDs)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryConfig().Backoff)

	start, end, err := cfg.Window()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base, err := Load("")
	require.NoError(t, err)

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero retries", func(c *Config) { c.HTTP.MaxRetries = 0 }, "max_retries"},
		{"zero timeout", func(c *Config) { c.HTTP.TimeoutSeconds = 0 }, "timeout_seconds"},
		{"zero backoff", func(c *Config) { c.HTTP.BackoffBaseSeconds = 0 }, "backoff_base_seconds"},
		{"no out dir", func(c *Config) { c.Harvest.OutDir = "" }, "out_dir"},
		{"bad server port", func(c *Config) { c.Server.Enabled = true; c.Server.Port = 0 }, "server.port"},
		{"unknown provider", func(c *Config) { c.Storage.Provider = "s3" }, "storage provider"},
		{"gcs without bucket", func(c *Config) { c.Storage.Provider = "gcs" }, "gcs_bucket"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestWindowRejectsBadDates(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Harvest.StartDate = "01/01/2010"
	cfg.Harvest.EndDate = "2021-01-01"
	_, _, err = cfg.Window()
	require.Error(t, err)

	cfg.Harvest.StartDate = "2010-01-01"
	cfg.Harvest.EndDate = ""
	_, _, err = cfg.Window()
	require.Error(t, err)
}
