// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package config loads YAML configuration for a reactor, its predictor, and
// a scripted set of listeners and period changes (see cmd/vsyncsim).
// Durations are strings, in the format accepted by time.ParseDuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joeycumines/go-vsync"
	"github.com/joeycumines/go-vsync/predictor"
	"github.com/joeycumines/logiface"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by all validation errors.
var ErrInvalid = errors.New("config: invalid")

type (
	// Config is the top level configuration.
	Config struct {
		Reactor       ReactorConfig   `yaml:"reactor"`
		Predictor     PredictorConfig `yaml:"predictor"`
		Listeners     []Listener      `yaml:"listeners"`
		PeriodChanges []PeriodChange  `yaml:"period_changes"`
		// LogLevel is one of the syslog keywords, e.g. "info", "debug".
		LogLevel string `yaml:"log_level"`
	}

	ReactorConfig struct {
		// Period is the initial (ideal) vsync period, e.g. "16.666666ms".
		Period       time.Duration `yaml:"period"`
		PendingLimit int           `yaml:"pending_limit"`
	}

	PredictorConfig struct {
		HistorySize             int `yaml:"history_size"`
		MinSamples              int `yaml:"min_samples"`
		OutlierTolerancePercent int `yaml:"outlier_tolerance_percent"`
	}

	// Listener is a listener to register on startup.
	Listener struct {
		Name  string        `yaml:"name"`
		Phase time.Duration `yaml:"phase"`
	}

	// PeriodChange requests a new period, After the given delay from
	// startup.
	PeriodChange struct {
		After  time.Duration `yaml:"after"`
		Period time.Duration `yaml:"period"`
	}
)

// Default returns the default configuration, a 60Hz display.
func Default() *Config {
	return &Config{
		Reactor: ReactorConfig{
			Period:       16_666_667 * time.Nanosecond,
			PendingLimit: vsync.DefaultPendingLimit,
		},
		Predictor: PredictorConfig{
			HistorySize:             20,
			MinSamples:              6,
			OutlierTolerancePercent: 25,
		},
		LogLevel: logiface.LevelInformational.String(),
	}
}

// Load reads and parses the YAML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML, applies defaults for unset values, then validates the
// result.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	applyDefaults(&c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func applyDefaults(c *Config) {
	d := Default()
	if c.Reactor.Period == 0 {
		c.Reactor.Period = d.Reactor.Period
	}
	if c.Reactor.PendingLimit == 0 {
		c.Reactor.PendingLimit = d.Reactor.PendingLimit
	}
	if c.Predictor.HistorySize == 0 {
		c.Predictor.HistorySize = d.Predictor.HistorySize
	}
	if c.Predictor.MinSamples == 0 {
		c.Predictor.MinSamples = d.Predictor.MinSamples
	}
	if c.Predictor.OutlierTolerancePercent == 0 {
		c.Predictor.OutlierTolerancePercent = d.Predictor.OutlierTolerancePercent
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

// Validate checks the configuration is usable. All errors wrap ErrInvalid.
func (c *Config) Validate() error {
	if c.Reactor.Period <= 0 {
		return fmt.Errorf("%w: reactor.period must be positive", ErrInvalid)
	}
	if c.Reactor.PendingLimit <= 0 {
		return fmt.Errorf("%w: reactor.pending_limit must be positive", ErrInvalid)
	}
	if c.Predictor.HistorySize < 2 {
		return fmt.Errorf("%w: predictor.history_size must be at least 2", ErrInvalid)
	}
	if c.Predictor.MinSamples < 2 || c.Predictor.MinSamples > c.Predictor.HistorySize {
		return fmt.Errorf("%w: predictor.min_samples must be in [2, history_size]", ErrInvalid)
	}
	if c.Predictor.OutlierTolerancePercent <= 0 || c.Predictor.OutlierTolerancePercent >= 50 {
		return fmt.Errorf("%w: predictor.outlier_tolerance_percent must be in (0, 50)", ErrInvalid)
	}
	if len(c.Listeners) > vsync.MaxListeners {
		return fmt.Errorf("%w: at most %d listeners", ErrInvalid, vsync.MaxListeners)
	}
	names := make(map[string]struct{}, len(c.Listeners))
	for i, l := range c.Listeners {
		if l.Name == "" {
			return fmt.Errorf("%w: listeners[%d].name is required", ErrInvalid, i)
		}
		if _, ok := names[l.Name]; ok {
			return fmt.Errorf("%w: listeners[%d].name %q is duplicated", ErrInvalid, i, l.Name)
		}
		names[l.Name] = struct{}{}
		if l.Phase >= c.Reactor.Period {
			return fmt.Errorf("%w: listeners[%d].phase must be less than reactor.period", ErrInvalid, i)
		}
	}
	for i, p := range c.PeriodChanges {
		if p.After < 0 {
			return fmt.Errorf("%w: period_changes[%d].after must not be negative", ErrInvalid, i)
		}
		if p.Period <= 0 {
			return fmt.Errorf("%w: period_changes[%d].period must be positive", ErrInvalid, i)
		}
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (logiface.Level, error) {
	for level := logiface.LevelDisabled; level <= logiface.LevelTrace; level++ {
		if level.String() == c.LogLevel {
			return level, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown log_level %q", ErrInvalid, c.LogLevel)
}

// PredictorConfig returns the predictor tuning, for predictor.New.
func (c *Config) PredictorConfig() *predictor.Config {
	return &predictor.Config{
		HistorySize:             c.Predictor.HistorySize,
		MinSamples:              c.Predictor.MinSamples,
		OutlierTolerancePercent: c.Predictor.OutlierTolerancePercent,
	}
}
