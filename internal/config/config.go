// Package config defines process configuration and how it is loaded.
package config

import (
	"runtime"
	"time"

	"github.com/okian/drought/internal/domain/analysis"
	"github.com/okian/drought/internal/domain/model"
	"github.com/okian/drought/internal/domain/season"
	"github.com/okian/drought/internal/domain/spi"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required_if=Serve true"`

	// Serve keeps the process running with the HTTP API after the batch.
	Serve bool `koanf:"serve"`

	// InputDir holds the *_totals.csv files.
	InputDir string `koanf:"input_dir" validate:"required"`

	// OutputDir receives the result tables.
	OutputDir string `koanf:"output_dir" validate:"required"`

	// ParamsFile optionally seeds the parameter store with earlier fits.
	ParamsFile string `koanf:"params_file"`

	// Timescales are the accumulation windows in months.
	Timescales []int `koanf:"timescales" validate:"min=1,dive,min=1,max=72"`

	// ThresholdStart, ThresholdStop and ThresholdStep build the SPI ladder
	// events are segmented at.
	ThresholdStart float64 `koanf:"threshold_start"`
	ThresholdStop  float64 `koanf:"threshold_stop"`
	ThresholdStep  float64 `koanf:"threshold_step" validate:"gt=0"`

	// WorkerCount sets the number of analysis workers.
	WorkerCount int `koanf:"worker_count" validate:"min=1"`

	// QueueSize bounds the job queue.
	QueueSize int `koanf:"queue_size" validate:"min=1"`

	// ShardCount configures the number of shards in the parameter store.
	ShardCount int `koanf:"shard_count" validate:"min=1"`

	// DurationUnit reports event durations in steps or days.
	DurationUnit string `koanf:"duration_unit" validate:"oneof=steps days"`

	// Precision is the number of decimals sums are rounded to; negative
	// disables rounding.
	Precision int `koanf:"precision" validate:"min=-1,max=12"`

	// Direction selects drought (value <= threshold) or wet
	// (value >= threshold) events.
	Direction string `koanf:"direction" validate:"oneof=drought wet"`

	// SeasonAnchor picks the event date that is bucketed into a season.
	SeasonAnchor string `koanf:"season_anchor" validate:"oneof=onset relief"`

	// SeasonExcludeWinter keeps winter out of the modal-season contest.
	SeasonExcludeWinter bool `koanf:"season_exclude_winter"`

	// ObservationMonths fixes the cumulative-percentage window. Zero derives
	// it from each location's record count.
	ObservationMonths int `koanf:"observation_months" validate:"min=0"`

	// Schedule is a cron expression for re-running the batch in serve mode.
	Schedule string `koanf:"schedule" validate:"omitempty,schedule"`

	// RateLimit caps API requests per second; zero disables limiting.
	RateLimit float64 `koanf:"rate_limit" validate:"min=0"`
	RateBurst int     `koanf:"rate_burst" validate:"min=1"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		InputDir:            "data",
		OutputDir:           "out",
		Timescales:          append([]int(nil), analysis.DefaultTimescales...),
		ThresholdStart:      0,
		ThresholdStop:       -5,
		ThresholdStep:       0.1,
		WorkerCount:         runtime.NumCPU(),
		QueueSize:           1024,
		ShardCount:          8,
		DurationUnit:        model.Steps.String(),
		Precision:           2,
		Direction:           model.Drought.String(),
		SeasonAnchor:        season.Relief.String(),
		SeasonExcludeWinter: true,
		RateBurst:           20,
		ShutdownTimeout:     10 * time.Second,
	}
}

// Thresholds expands the configured ladder.
func (c *Config) Thresholds() ([]float64, error) {
	return spi.Thresholds(c.ThresholdStart, c.ThresholdStop, c.ThresholdStep)
}

// Unit returns the configured duration unit.
func (c *Config) Unit() model.Unit {
	if c.DurationUnit == model.Days.String() {
		return model.Days
	}
	return model.Steps
}

// EventDirection returns the configured event direction.
func (c *Config) EventDirection() model.Direction {
	if c.Direction == model.Wet.String() {
		return model.Wet
	}
	return model.Drought
}

// SeasonPolicy returns the configured seasonal aggregation policy.
func (c *Config) SeasonPolicy() season.Policy {
	p := season.Policy{Anchor: season.Onset, ExcludeWinter: c.SeasonExcludeWinter}
	if c.SeasonAnchor == season.Relief.String() {
		p.Anchor = season.Relief
	}
	return p
}
