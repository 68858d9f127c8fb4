// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/marine-obs/plet-harvester/internal/plet"
)

// Config captures all harvester configuration knobs loaded via Viper.
type Config struct {
	PLET    PLETConfig    `mapstructure:"plet"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Harvest HarvestConfig `mapstructure:"harvest"`
	Regions RegionsConfig `mapstructure:"regions"`
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	DB      DBConfig      `mapstructure:"db"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// PLETConfig points at the remote query service.
type PLETConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	SiteURL   string `mapstructure:"site_url"`
	UserAgent string `mapstructure:"user_agent"`
}

// HTTPConfig controls fetch retry behavior.
type HTTPConfig struct {
	TimeoutSeconds     int     `mapstructure:"timeout_seconds"`
	MaxRetries         int     `mapstructure:"max_retries"`
	BackoffBaseSeconds float64 `mapstructure:"backoff_base_seconds"`
}

// HarvestConfig governs the batch run.
type HarvestConfig struct {
	OutDir    string   `mapstructure:"out_dir"`
	LogsDir   string   `mapstructure:"logs_dir"`
	Overwrite bool     `mapstructure:"overwrite"`
	StartDate string   `mapstructure:"start_date"`
	EndDate   string   `mapstructure:"end_date"`
	Datasets  []string `mapstructure:"datasets"`
}

// RegionsConfig points at the OSPAR WFS feature service.
type RegionsConfig struct {
	WFSURL      string   `mapstructure:"wfs_url"`
	MaxWKTChars int      `mapstructure:"max_wkt_chars"`
	Simplify    bool     `mapstructure:"simplify"`
	IDs         []string `mapstructure:"ids"`
}

// ServerConfig controls the optional status HTTP server.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// StorageConfig selects the export upload target.
type StorageConfig struct {
	Provider  string `mapstructure:"provider"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	LocalDir  string `mapstructure:"local_dir"`
	Prefix    string `mapstructure:"prefix"`
}

// DBConfig controls the optional Postgres run-history store.
type DBConfig struct {
	DSN          string `mapstructure:"dsn"`
	RunsTable    string `mapstructure:"runs_table"`
	OutcomeTable string `mapstructure:"outcome_table"`
}

// PubSubConfig holds metadata for outcome event publishing.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PLET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("plet.base_url", plet.DefaultBaseURL)
	v.SetDefault("plet.site_url", plet.DefaultSiteURL)
	v.SetDefault("plet.user_agent", "plet-harvester/0.1")
	retry := plet.DefaultRetryConfig()
	v.SetDefault("http.timeout_seconds", int(retry.Timeout/time.Second))
	v.SetDefault("http.max_retries", retry.Retries)
	v.SetDefault("http.backoff_base_seconds", retry.Backoff.Seconds())
	v.SetDefault("harvest.out_dir", ".cache")
	v.SetDefault("harvest.logs_dir", "logs")
	v.SetDefault("harvest.overwrite", false)
	v.SetDefault("regions.wfs_url", defaultWFSURL)
	v.SetDefault("regions.max_wkt_chars", 5000)
	v.SetDefault("regions.simplify", true)
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.local_dir", "exports")
	v.SetDefault("storage.prefix", "plet")
	v.SetDefault("db.runs_table", "harvest_runs")
	v.SetDefault("db.outcome_table", "harvest_outcomes")
	v.SetDefault("logging.development", true)
}

const defaultWFSURL = "https://odims.ospar.org/geoserver/odims/wfs" +
	"?service=WFS&version=2.0.0&request=GetFeature" +
	"&typeName=ospar_comp_au_2023_01_001" +
	"&outputFormat=application/json"

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.HTTP.MaxRetries < 1 {
		return fmt.Errorf("http.max_retries must be >= 1")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.BackoffBaseSeconds <= 0 {
		return fmt.Errorf("http.backoff_base_seconds must be > 0")
	}
	if c.Harvest.OutDir == "" {
		return fmt.Errorf("harvest.out_dir must be set")
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0 when the server is enabled")
	}
	switch c.Storage.Provider {
	case "local", "gcs", "":
	default:
		return fmt.Errorf("unknown storage provider: %s", c.Storage.Provider)
	}
	if c.Storage.Provider == "gcs" && c.Storage.GCSBucket == "" {
		return fmt.Errorf("storage.gcs_bucket must be set when storage.provider is gcs")
	}
	return nil
}

// RetryConfig converts the HTTP section into the fetch client's bounds.
func (c Config) RetryConfig() plet.RetryConfig {
	return plet.RetryConfig{
		Retries: c.HTTP.MaxRetries,
		Backoff: time.Duration(c.HTTP.BackoffBaseSeconds * float64(time.Second)),
		Timeout: time.Duration(c.HTTP.TimeoutSeconds) * time.Second,
	}
}

// Window parses the configured harvest date range.
func (c Config) Window() (time.Time, time.Time, error) {
	start, err := time.Parse(plet.DateFormat, c.Harvest.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse harvest.start_date: %w", err)
	}
	end, err := time.Parse(plet.DateFormat, c.Harvest.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse harvest.end_date: %w", err)
	}
	return start, end, nil
}
