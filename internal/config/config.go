// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New(ctx) builds a Config holding every default.
// - Load layers a YAML file and TITLERACE_* environment variables over New.
// - Validate is the single place that rejects unusable settings.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
)

// Scorer kinds understood by the scoring package.
const (
	ScorerKindLogistic = "logistic"
	ScorerKindTree     = "tree"
	ScorerKindRemote   = "remote"
)

// EnsembleSize is the number of scorers the ensemble averages.
const EnsembleSize = 3

// ScorerConfig configures one scoring collaborator.
type ScorerConfig struct {
	// Name identifies the scorer in logs, metrics and per-scorer probabilities.
	Name string `koanf:"name"`

	// Kind selects the implementation: logistic, tree or remote.
	Kind string `koanf:"kind"`

	// Path is the model file for logistic and tree scorers.
	Path string `koanf:"path"`

	// Endpoint is the model server URL for remote scorers.
	Endpoint string `koanf:"endpoint"`

	// TimeoutMS bounds a remote predict call.
	TimeoutMS int `koanf:"timeout_ms"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// SourceDSN is the Postgres DSN holding the game and other_stats tables.
	// Empty runs on a small generated league with built-in linear scorers,
	// ignoring Scorers.
	SourceDSN string `koanf:"source_dsn"`

	// StoreDSN is the Postgres DSN for persisted predictions. Empty keeps
	// results in memory.
	StoreDSN string `koanf:"store_dsn"`

	// RedisURL enables the read-through cache in front of the store.
	RedisURL string `koanf:"redis_url"`

	// CacheTTLSeconds bounds how long cached reads live.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	// SeasonType and MinSeasonID filter raw game rows.
	SeasonType  string `koanf:"season_type"`
	MinSeasonID int    `koanf:"min_season_id"`

	// RecentWindow is the number of trailing games behind the form features.
	RecentWindow int `koanf:"recent_window"`

	// WorkerCount bounds per-group fan-out in the pipeline.
	WorkerCount int `koanf:"worker_count"`

	// ChampionsFile is an optional YAML file merged over the built-in champions.
	ChampionsFile string `koanf:"champions_file"`

	// ArtifactDir receives scaler.json and metadata.json after a run.
	ArtifactDir string `koanf:"artifact_dir"`

	// ScalerPath loads a previously fitted scaler instead of fitting one.
	ScalerPath string `koanf:"scaler_path"`

	// RefreshIntervalSeconds re-runs the pipeline periodically. Zero disables
	// the schedule; POST /refresh still works.
	RefreshIntervalSeconds int `koanf:"refresh_interval_seconds"`

	// RefreshQueueSize bounds pending refresh requests.
	RefreshQueueSize int `koanf:"refresh_queue_size"`

	// Scorers configures the three ensemble members.
	Scorers []ScorerConfig `koanf:"scorers"`
}

// New creates a Config with defaults. Context is accepted first to satisfy the
// project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		CacheTTLSeconds:  300,
		SeasonType:       "Regular Season",
		MinSeasonID:      22003,
		RecentWindow:     20,
		WorkerCount:      runtime.NumCPU() * 2,
		ArtifactDir:      "models",
		RefreshQueueSize: 4,
		Scorers: []ScorerConfig{
			{Name: "xgboost", Kind: ScorerKindTree, Path: "models/xgboost.json"},
			{Name: "lightgbm", Kind: ScorerKindTree, Path: "models/lightgbm.json"},
			{Name: "catboost", Kind: ScorerKindTree, Path: "models/catboost.json"},
		},
	}
}

// Validate reports the first unusable setting wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.RecentWindow <= 0 {
		return fmt.Errorf("%w: recent_window must be positive, got %d", ErrInvalidConfig, c.RecentWindow)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	}
	if c.RefreshIntervalSeconds < 0 {
		return fmt.Errorf("%w: refresh_interval_seconds must not be negative", ErrInvalidConfig)
	}
	if c.RefreshQueueSize <= 0 {
		return fmt.Errorf("%w: refresh_queue_size must be positive, got %d", ErrInvalidConfig, c.RefreshQueueSize)
	}
	if len(c.Scorers) != EnsembleSize {
		return fmt.Errorf("%w: exactly %d scorers required, got %d", ErrInvalidConfig, EnsembleSize, len(c.Scorers))
	}
	seen := make(map[string]struct{}, len(c.Scorers))
	for i, s := range c.Scorers {
		if s.Name == "" {
			return fmt.Errorf("%w: scorers[%d] has no name", ErrInvalidConfig, i)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("%w: duplicate scorer name %q", ErrInvalidConfig, s.Name)
		}
		seen[s.Name] = struct{}{}

		switch s.Kind {
		case ScorerKindLogistic, ScorerKindTree:
			if s.Path == "" {
				return fmt.Errorf("%w: scorer %q needs a path", ErrInvalidConfig, s.Name)
			}
		case ScorerKindRemote:
			if s.Endpoint == "" {
				return fmt.Errorf("%w: scorer %q needs an endpoint", ErrInvalidConfig, s.Name)
			}
		default:
			return fmt.Errorf("%w: scorer %q has unknown kind %q", ErrInvalidConfig, s.Name, s.Kind)
		}
	}
	return nil
}
