package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"cpu-limiter/internal/limiter"
)

// TestMetricsInit verifies that Init() is idempotent and registers metrics
func TestMetricsInit(t *testing.T) {
	// Call Init multiple times - should be idempotent via sync.Once
	Init()
	Init()
	Init()

	// Verify metrics are non-nil (successfully created)
	if PausesTotal == nil {
		t.Error("PausesTotal should be initialized")
	}
	if ResumesTotal == nil {
		t.Error("ResumesTotal should be initialized")
	}
	if ReleasesTotal == nil {
		t.Error("ReleasesTotal should be initialized")
	}
	if PausedProcesses == nil {
		t.Error("PausedProcesses should be initialized")
	}
	if LimitPercent == nil {
		t.Error("LimitPercent should be initialized")
	}
	if LimiterEnabled == nil {
		t.Error("LimiterEnabled should be initialized")
	}
	if LimiterMode == nil {
		t.Error("LimiterMode should be initialized")
	}
	if ErrorsTotal == nil {
		t.Error("ErrorsTotal should be initialized")
	}
	if SystemCPUPercent == nil {
		t.Error("SystemCPUPercent should be initialized")
	}
	if SampleDuration == nil {
		t.Error("SampleDuration should be initialized")
	}
	if HTTPRequestDuration == nil {
		t.Error("HTTPRequestDuration should be initialized")
	}
	if HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal should be initialized")
	}

	// Test metrics are registered by gathering from default registry
	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	expectedMetrics := []string{
		"cpulimiter_pauses_total",
		"cpulimiter_resumes_total",
		"cpulimiter_releases_total",
		"cpulimiter_paused_processes",
		"cpulimiter_limit_percent",
		"cpulimiter_enabled",
		"cpulimiter_mode",
		"cpulimiter_daemon_errors_total",
		"cpulimiter_system_cpu_percent",
		"cpulimiter_memory_used_bytes",
		"cpulimiter_memory_total_bytes",
		"cpulimiter_sample_duration_seconds",
	}

	foundMetrics := make(map[string]bool)
	for _, mf := range mfs {
		foundMetrics[*mf.Name] = true
	}

	for _, expected := range expectedMetrics {
		if !foundMetrics[expected] {
			t.Errorf("Expected metric %s not found in registry", expected)
		}
	}
}

// TestActionRecorderCounts verifies engine actions land on the right counters
func TestActionRecorderCounts(t *testing.T) {
	Init()

	pausesBefore := testutil.ToFloat64(PausesTotal)
	resumesBefore := testutil.ToFloat64(ResumesTotal)
	releasesBefore := testutil.ToFloat64(ReleasesTotal)

	rec := ActionRecorder{}
	rec.Record(limiter.Action{Action: limiter.ActionSuspend, PID: 1})
	rec.Record(limiter.Action{Action: limiter.ActionSuspend, PID: 2})
	rec.Record(limiter.Action{Action: limiter.ActionResume, PID: 1})
	rec.Record(limiter.Action{Action: limiter.ActionRelease, PID: 2})

	if got := testutil.ToFloat64(PausesTotal) - pausesBefore; got != 2 {
		t.Errorf("pauses counter advanced by %v, want 2", got)
	}
	if got := testutil.ToFloat64(ResumesTotal) - resumesBefore; got != 1 {
		t.Errorf("resumes counter advanced by %v, want 1", got)
	}
	if got := testutil.ToFloat64(ReleasesTotal) - releasesBefore; got != 1 {
		t.Errorf("releases counter advanced by %v, want 1", got)
	}
}

// TestSetMode verifies the mode gauge keeps exactly one active label
func TestSetMode(t *testing.T) {
	Init()

	SetMode(limiter.ModeGlobal)
	if v := testutil.ToFloat64(LimiterMode.WithLabelValues("global")); v != 1 {
		t.Errorf("global label = %v, want 1", v)
	}
	if v := testutil.ToFloat64(LimiterMode.WithLabelValues("targeted")); v != 0 {
		t.Errorf("targeted label = %v, want 0 after switch", v)
	}

	SetMode(limiter.ModeTargeted)
	if v := testutil.ToFloat64(LimiterMode.WithLabelValues("targeted")); v != 1 {
		t.Errorf("targeted label = %v, want 1", v)
	}
}

// TestHelperFunctions verifies that helper functions create valid metrics
func TestHelperFunctions(t *testing.T) {
	t.Run("NewDurationHistogram", func(t *testing.T) {
		h := NewDurationHistogram("test_duration", "Test duration metric")
		if h == nil {
			t.Error("NewDurationHistogram returned nil")
		}
	})

	t.Run("NewCounter", func(t *testing.T) {
		c := NewCounter("test_counter", "Test counter metric")
		if c == nil {
			t.Error("NewCounter returned nil")
		}
	})

	t.Run("NewCounterVec", func(t *testing.T) {
		cv := NewCounterVec("test_counter_vec", "Test counter vec metric", []string{"label"})
		if cv == nil {
			t.Error("NewCounterVec returned nil")
		}
	})

	t.Run("NewGauge", func(t *testing.T) {
		g := NewGauge("test_gauge", "Test gauge metric")
		if g == nil {
			t.Error("NewGauge returned nil")
		}
	})

	t.Run("NewGaugeVec", func(t *testing.T) {
		gv := NewGaugeVec("test_gauge_vec", "Test gauge vec metric", []string{"label"})
		if gv == nil {
			t.Error("NewGaugeVec returned nil")
		}
	})
}
