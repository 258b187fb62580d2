package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type EngineCfg struct {
	PeriodMs            int     `yaml:"period_ms" json:"period_ms"`                         // Duty-cycle period in milliseconds (default: 100)
	HysteresisPercent   float64 `yaml:"hysteresis_percent" json:"hysteresis_percent"`       // Gap between suspend and resume thresholds (default: 5)
	NoiseFloorPercent   float64 `yaml:"noise_floor_percent" json:"noise_floor_percent"`     // Minimum per-process CPU to be a global-mode candidate (default: 0.5)
	DefaultLimitPercent int     `yaml:"default_limit_percent" json:"default_limit_percent"` // Limit applied at startup, clamped to [1,100] (default: 100)
	DefaultMode         string  `yaml:"default_mode" json:"default_mode"`                   // "targeted" or "global" (default: targeted)
}

type PrometheusCfg struct {
	Port int `yaml:"port" json:"port"`
}

type APICfg struct {
	Port           int     `yaml:"port" json:"port"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps" json:"rate_limit_rps"`     // Requests per second per client (default: 10)
	RateLimitBurst int     `yaml:"rate_limit_burst" json:"rate_limit_burst"` // Burst size per client (default: 20)
}

type LoggingCfg struct {
	RotationDays int `yaml:"rotation_days" json:"rotation_days"` // Days to keep logs before rotation
}

type Config struct {
	Engine       EngineCfg     `yaml:"engine" json:"engine"`
	Prometheus   PrometheusCfg `yaml:"prometheus" json:"prometheus"`
	API          APICfg        `yaml:"api" json:"api"`
	Logging      LoggingCfg    `yaml:"logging" json:"logging"`
	DatabasePath string        `yaml:"database_path" json:"database_path"` // Path to SQLite database for action history (empty disables history)
	LockPath     string        `yaml:"lock_path" json:"lock_path"`         // Lock file guarding against a second daemon instance
}

var (
	errInvalidPeriod     = errors.New("engine period_ms must be positive")
	errInvalidHysteresis = errors.New("engine hysteresis_percent cannot be negative")
	errInvalidMode       = errors.New(`engine default_mode must be "targeted" or "global"`)
)

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := decode(f)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateAndDefault(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader) (*Config, error) {
	cfg := &Config{}
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

// Default returns a configuration with every default applied, for running
// without a config file.
func Default() *Config {
	cfg := &Config{}
	// validateAndDefault cannot fail on a zero config
	_ = cfg.validateAndDefault()
	return cfg
}

func (c *Config) validateAndDefault() error {
	if c.Engine.PeriodMs < 0 {
		return errInvalidPeriod
	}
	if c.Engine.PeriodMs == 0 {
		c.Engine.PeriodMs = 100 // Default: 100ms duty-cycle period
	}

	if c.Engine.HysteresisPercent < 0 {
		return errInvalidHysteresis
	}
	if c.Engine.HysteresisPercent == 0 {
		c.Engine.HysteresisPercent = 5.0 // Default: 5 points below the limit before resuming
	}

	if c.Engine.NoiseFloorPercent <= 0 {
		c.Engine.NoiseFloorPercent = 0.5 // Default: ignore processes below 0.5% CPU
	}

	if c.Engine.DefaultLimitPercent <= 0 {
		c.Engine.DefaultLimitPercent = 100 // Default: no limit until the operator sets one
	}
	if c.Engine.DefaultLimitPercent > 100 {
		c.Engine.DefaultLimitPercent = 100
	}

	switch strings.ToLower(c.Engine.DefaultMode) {
	case "":
		c.Engine.DefaultMode = "targeted"
	case "targeted", "global":
		c.Engine.DefaultMode = strings.ToLower(c.Engine.DefaultMode)
	default:
		return fmt.Errorf("%w: %q", errInvalidMode, c.Engine.DefaultMode)
	}

	if c.Prometheus.Port == 0 {
		c.Prometheus.Port = 9091
	}

	if c.API.Port == 0 {
		c.API.Port = 8787
	}
	if c.API.RateLimitRPS <= 0 {
		c.API.RateLimitRPS = 10
	}
	if c.API.RateLimitBurst <= 0 {
		c.API.RateLimitBurst = 20
	}

	// Set defaults for logging
	if c.Logging.RotationDays <= 0 {
		c.Logging.RotationDays = 30 // Default: keep logs for 30 days
	}

	// Set default database path
	if c.DatabasePath == "" {
		c.DatabasePath = "/var/lib/cpu-limiter/actions.db"
	}

	if c.LockPath == "" {
		c.LockPath = "/var/run/cpu-limiter.lock"
	}

	return nil
}

func (c *Config) Period() time.Duration {
	return time.Duration(c.Engine.PeriodMs) * time.Millisecond
}

func (c *Config) PrometheusAddress() string {
	return fmt.Sprintf(":%d", c.Prometheus.Port)
}

func (c *Config) APIAddress() string {
	return fmt.Sprintf(":%d", c.API.Port)
}
