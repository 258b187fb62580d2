package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// TestLoadAppliesDefaults verifies an empty file yields the documented
// defaults
func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Engine.PeriodMs != 100 {
		t.Errorf("period_ms = %d, want 100", cfg.Engine.PeriodMs)
	}
	if cfg.Engine.HysteresisPercent != 5.0 {
		t.Errorf("hysteresis = %v, want 5", cfg.Engine.HysteresisPercent)
	}
	if cfg.Engine.NoiseFloorPercent != 0.5 {
		t.Errorf("noise floor = %v, want 0.5", cfg.Engine.NoiseFloorPercent)
	}
	if cfg.Engine.DefaultLimitPercent != 100 {
		t.Errorf("default limit = %d, want 100", cfg.Engine.DefaultLimitPercent)
	}
	if cfg.Engine.DefaultMode != "targeted" {
		t.Errorf("default mode = %q, want targeted", cfg.Engine.DefaultMode)
	}
	if cfg.Prometheus.Port != 9091 {
		t.Errorf("prometheus port = %d, want 9091", cfg.Prometheus.Port)
	}
	if cfg.API.Port != 8787 {
		t.Errorf("api port = %d, want 8787", cfg.API.Port)
	}
	if cfg.Logging.RotationDays != 30 {
		t.Errorf("rotation days = %d, want 30", cfg.Logging.RotationDays)
	}
	if cfg.DatabasePath != "/var/lib/cpu-limiter/actions.db" {
		t.Errorf("database path = %q", cfg.DatabasePath)
	}
	if cfg.Period() != 100*time.Millisecond {
		t.Errorf("Period() = %v, want 100ms", cfg.Period())
	}
}

// TestLoadFullConfig verifies explicit values survive validation
func TestLoadFullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
engine:
  period_ms: 50
  hysteresis_percent: 3
  default_limit_percent: 40
  default_mode: global
prometheus:
  port: 9200
api:
  port: 8000
  rate_limit_rps: 5
  rate_limit_burst: 10
database_path: /tmp/actions.db
lock_path: /tmp/limiter.lock
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Engine.PeriodMs != 50 || cfg.Engine.HysteresisPercent != 3 {
		t.Errorf("engine config = %+v", cfg.Engine)
	}
	if cfg.Engine.DefaultMode != "global" || cfg.Engine.DefaultLimitPercent != 40 {
		t.Errorf("engine defaults = %+v", cfg.Engine)
	}
	if cfg.PrometheusAddress() != ":9200" {
		t.Errorf("PrometheusAddress = %q", cfg.PrometheusAddress())
	}
	if cfg.APIAddress() != ":8000" {
		t.Errorf("APIAddress = %q", cfg.APIAddress())
	}
	if cfg.DatabasePath != "/tmp/actions.db" || cfg.LockPath != "/tmp/limiter.lock" {
		t.Errorf("paths = %q %q", cfg.DatabasePath, cfg.LockPath)
	}
}

// TestLoadClampsDefaultLimit verifies out-of-range startup limits are pulled
// into [1,100]
func TestLoadClampsDefaultLimit(t *testing.T) {
	cfg, err := Load(writeConfig(t, "engine:\n  default_limit_percent: 250\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.DefaultLimitPercent != 100 {
		t.Errorf("default limit = %d, want 100", cfg.Engine.DefaultLimitPercent)
	}
}

// TestLoadRejectsBadValues covers the validation sentinels
func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{"negative period", "engine:\n  period_ms: -5\n", errInvalidPeriod},
		{"negative hysteresis", "engine:\n  hysteresis_percent: -1\n", errInvalidHysteresis},
		{"unknown mode", "engine:\n  default_mode: fair-share\n", errInvalidMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Load: got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestLoadMissingFile verifies the not-found error is recognizable
func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load on missing file: got %v, want ErrNotExist", err)
	}
}

// TestDefault verifies the no-file constructor matches Load on empty input
func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Engine.PeriodMs != 100 || cfg.Prometheus.Port != 9091 || cfg.API.Port != 8787 {
		t.Errorf("Default() = %+v", cfg)
	}
}
