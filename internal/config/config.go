// Package config defines the snapshot builder configuration and its loader.
package config

import (
	"fmt"
	"runtime"
	"time"
)

// Competition is one ASA league and the first season it has G+ data for.
type Competition struct {
	Name      string `koanf:"name"`
	StartYear int    `koanf:"start_year"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// BaseURL is the root of the ASA v1 API.
	BaseURL string `koanf:"base_url"`

	// RequestDelayMS is the fixed pause between consecutive upstream calls.
	RequestDelayMS int `koanf:"request_delay_ms"`
	// RequestTimeoutMS bounds a single HTTP request.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`
	// MaxRetries is the number of extra attempts after a failed request.
	MaxRetries int `koanf:"max_retries"`
	// RetryBackoffMS is the fixed wait before each retry.
	RetryBackoffMS int `koanf:"retry_backoff_ms"`
	// LookupChunkSize caps the number of ids per identity request.
	LookupChunkSize int `koanf:"lookup_chunk_size"`

	// OutDir receives one sub-directory of snapshot files per competition.
	OutDir string `koanf:"out_dir"`
	// DBPath is the SQLite run registry.
	DBPath string `koanf:"db_path"`
	// Format is the snapshot file format: csv, json or parquet.
	Format string `koanf:"format"`

	// Workers bounds the leaderboard sweep pool.
	Workers int `koanf:"workers"`
	// TopN is the leaderboard depth per ranking.
	TopN int `koanf:"top_n"`
	// QualifyFraction is the share of the season's max games a player
	// needs; 0 disables qualification.
	QualifyFraction float64 `koanf:"qualify_fraction"`

	// ExcludedActionTypes are dropped before zone aggregation.
	ExcludedActionTypes []string `koanf:"excluded_action_types"`
	// ZoneMirror selects the transposition variant: team or league.
	ZoneMirror string `koanf:"zone_mirror"`
	// ZoneGameStates splits team zone pulls by truncated game state.
	ZoneGameStates bool `koanf:"zone_game_states"`

	// Competitions lists the leagues to pull.
	Competitions []Competition `koanf:"competitions"`

	// RedisAddr enables snapshot publishing when set.
	RedisAddr string `koanf:"redis_addr"`
	// RedisTTLHours is the expiry of published snapshot keys.
	RedisTTLHours int `koanf:"redis_ttl_hours"`

	// MetricsFile enables a Prometheus textfile dump at the end of a run.
	MetricsFile string `koanf:"metrics_file"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		BaseURL:             "https://app.americansocceranalysis.com/api/v1",
		RequestDelayMS:      500,
		RequestTimeoutMS:    30_000,
		MaxRetries:          3,
		RetryBackoffMS:      2_000,
		LookupChunkSize:     100,
		OutDir:              "data",
		DBPath:              "data/gplus.db",
		Format:              "csv",
		Workers:             runtime.NumCPU(),
		TopN:                10,
		QualifyFraction:     0.25,
		ExcludedActionTypes: []string{"Fouling"},
		ZoneMirror:          "team",
		Competitions: []Competition{
			{Name: "mls", StartYear: 2013},
			{Name: "nwsl", StartYear: 2013},
			{Name: "uslc", StartYear: 2017},
			{Name: "usl1", StartYear: 2019},
			{Name: "mlsnp", StartYear: 2022},
			{Name: "usls", StartYear: 2024},
		},
		RedisTTLHours: 168,
	}
}

// RequestDelay returns RequestDelayMS as a duration.
func (c *Config) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelayMS) * time.Millisecond
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// RetryBackoff returns RetryBackoffMS as a duration.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMS) * time.Millisecond
}

// RedisTTL returns RedisTTLHours as a duration.
func (c *Config) RedisTTL() time.Duration {
	return time.Duration(c.RedisTTLHours) * time.Hour
}

// Competition returns the named competition, if configured.
func (c *Config) Competition(name string) (Competition, bool) {
	for _, comp := range c.Competitions {
		if comp.Name == name {
			return comp, true
		}
	}
	return Competition{}, false
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base_url must not be empty", ErrInvalidConfig)
	case c.OutDir == "":
		return fmt.Errorf("%w: out_dir must not be empty", ErrInvalidConfig)
	case c.RequestDelayMS < 0 || c.RetryBackoffMS < 0 || c.MaxRetries < 0:
		return fmt.Errorf("%w: delays and retries must not be negative", ErrInvalidConfig)
	case c.LookupChunkSize <= 0:
		return fmt.Errorf("%w: lookup_chunk_size must be positive", ErrInvalidConfig)
	case c.TopN <= 0:
		return fmt.Errorf("%w: top_n must be positive", ErrInvalidConfig)
	case c.QualifyFraction < 0 || c.QualifyFraction > 1:
		return fmt.Errorf("%w: qualify_fraction must be within [0, 1]", ErrInvalidConfig)
	case c.ZoneMirror != "team" && c.ZoneMirror != "league":
		return fmt.Errorf("%w: zone_mirror must be team or league, got %q", ErrInvalidConfig, c.ZoneMirror)
	case c.Format != "csv" && c.Format != "json" && c.Format != "parquet":
		return fmt.Errorf("%w: format must be csv, json or parquet, got %q", ErrInvalidConfig, c.Format)
	case len(c.Competitions) == 0:
		return fmt.Errorf("%w: at least one competition is required", ErrInvalidConfig)
	}
	for _, comp := range c.Competitions {
		if comp.Name == "" || comp.StartYear <= 0 {
			return fmt.Errorf("%w: competition needs a name and start_year: %+v", ErrInvalidConfig, comp)
		}
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	return nil
}
