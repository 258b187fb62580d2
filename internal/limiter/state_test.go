package limiter

import (
	"testing"

	"cpu-limiter/internal/proc"
)

func newStateOnlyLimiter() *Limiter {
	return New(proc.NewFakeSignaller(), &proc.FakeSampler{}, Options{})
}

// TestInitialState verifies the inert startup record
func TestInitialState(t *testing.T) {
	l := newStateOnlyLimiter()

	cfg := l.GetConfig()
	if cfg.Enabled {
		t.Error("limiter should start disabled")
	}
	if cfg.Mode != ModeTargeted {
		t.Errorf("expected targeted mode, got %v", cfg.Mode)
	}
	if cfg.LimitPercent != 100 {
		t.Errorf("expected limit 100, got %d", cfg.LimitPercent)
	}
	if cfg.TargetPID != 0 {
		t.Errorf("expected no target, got %d", cfg.TargetPID)
	}

	st := l.GetStatus()
	if st.Limiting || len(st.PausedPIDs) != 0 || st.PauseCount != 0 {
		t.Errorf("expected empty status, got %+v", st)
	}
}

// TestSetLimitClamps verifies limit clamping to [1,100]
func TestSetLimitClamps(t *testing.T) {
	tests := []struct {
		name  string
		input int
		want  int
	}{
		{"below range", -10, 1},
		{"zero", 0, 1},
		{"lower bound", 1, 1},
		{"in range", 42, 42},
		{"upper bound", 100, 100},
		{"above range", 250, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newStateOnlyLimiter()
			l.SetLimit(tt.input)
			if got := l.GetConfig().LimitPercent; got != tt.want {
				t.Errorf("SetLimit(%d): got %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

// TestSetGlobalClamps verifies the global entry point clamps the same way
func TestSetGlobalClamps(t *testing.T) {
	l := newStateOnlyLimiter()

	l.SetGlobal(150)
	cfg := l.GetConfig()
	if cfg.Mode != ModeGlobal {
		t.Errorf("expected global mode, got %v", cfg.Mode)
	}
	if cfg.LimitPercent != 100 {
		t.Errorf("SetGlobal(150): got limit %d, want 100", cfg.LimitPercent)
	}

	l.SetGlobal(0)
	if got := l.GetConfig().LimitPercent; got != 1 {
		t.Errorf("SetGlobal(0): got limit %d, want 1", got)
	}
}

// TestSetTargetForcesTargetedMode verifies mode transitions through setters
func TestSetTargetForcesTargetedMode(t *testing.T) {
	l := newStateOnlyLimiter()

	l.SetTarget(1234)
	cfg := l.GetConfig()
	if cfg.TargetPID != 1234 || cfg.Mode != ModeTargeted {
		t.Errorf("after SetTarget: %+v", cfg)
	}

	l.SetGlobal(80)
	cfg = l.GetConfig()
	if cfg.Mode != ModeGlobal || cfg.LimitPercent != 80 {
		t.Errorf("after SetGlobal: %+v", cfg)
	}
	if cfg.TargetPID != 1234 {
		t.Errorf("SetGlobal must not clear the target, got %d", cfg.TargetPID)
	}

	l.SetTarget(5678)
	cfg = l.GetConfig()
	if cfg.TargetPID != 5678 || cfg.Mode != ModeTargeted {
		t.Errorf("after second SetTarget: %+v", cfg)
	}
}

// TestToggleKeepsModeAndTarget verifies enabling never rewrites selection
func TestToggleKeepsModeAndTarget(t *testing.T) {
	l := newStateOnlyLimiter()
	l.SetTarget(42)
	l.SetLimit(30)

	l.Toggle(true)
	cfg := l.GetConfig()
	if !cfg.Enabled || cfg.TargetPID != 42 || cfg.LimitPercent != 30 || cfg.Mode != ModeTargeted {
		t.Errorf("after Toggle(true): %+v", cfg)
	}

	l.Toggle(false)
	cfg = l.GetConfig()
	if cfg.Enabled || cfg.TargetPID != 42 {
		t.Errorf("after Toggle(false): %+v", cfg)
	}
}

// TestToggleOffResumesTargetSynchronously verifies the disable safety net
func TestToggleOffResumesTargetSynchronously(t *testing.T) {
	sig := proc.NewFakeSignaller()
	l := New(sig, &proc.FakeSampler{}, Options{})

	l.SetTarget(42)
	l.Toggle(false)

	_, resumes := sig.Counts()
	if resumes != 1 {
		t.Errorf("expected one synchronous resume on disable, got %d", resumes)
	}
}

// TestStatusSnapshotIsACopy verifies callers cannot mutate engine state
func TestStatusSnapshotIsACopy(t *testing.T) {
	l := newStateOnlyLimiter()
	l.publish([]int{10, 20}, true)

	st := l.GetStatus()
	st.PausedPIDs[0] = 999

	again := l.GetStatus()
	if again.PausedPIDs[0] != 10 {
		t.Errorf("status snapshot shares memory with engine state: %+v", again)
	}
	if again.PauseCount != 1 {
		t.Errorf("expected pause count 1, got %d", again.PauseCount)
	}
}

// TestModeString covers the two labels used in metrics and the database
func TestModeString(t *testing.T) {
	if ModeTargeted.String() != "targeted" || ModeGlobal.String() != "global" {
		t.Errorf("unexpected mode strings: %q %q", ModeTargeted, ModeGlobal)
	}
}
