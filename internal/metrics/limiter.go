package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"cpu-limiter/internal/limiter"
)

// Limiter subsystem metrics
var (
	// PausesTotal tracks suspend signals issued by the engine
	PausesTotal prometheus.Counter

	// ResumesTotal tracks resume signals issued by the engine
	ResumesTotal prometheus.Counter

	// ReleasesTotal tracks cleanup resumes (mode switches, disable, stale targets)
	ReleasesTotal prometheus.Counter

	// PausedProcesses tracks how many processes the engine currently holds suspended
	PausedProcesses prometheus.Gauge

	// LimitPercent tracks the configured duty-cycle limit
	LimitPercent prometheus.Gauge

	// LimiterEnabled tracks the master on/off switch (1=on)
	LimiterEnabled prometheus.Gauge

	// LimiterMode tracks the active mode (1 on the active label)
	LimiterMode *prometheus.GaugeVec
)

// initLimiterMetrics initializes all limiter subsystem metrics
func initLimiterMetrics() {
	PausesTotal = NewCounter(
		"cpulimiter_pauses_total",
		"Total suspend signals issued by the limiter engine.",
	)

	ResumesTotal = NewCounter(
		"cpulimiter_resumes_total",
		"Total resume signals issued by the limiter engine.",
	)

	ReleasesTotal = NewCounter(
		"cpulimiter_releases_total",
		"Total cleanup resumes issued on mode switches, disable, and lost targets.",
	)

	PausedProcesses = NewGauge(
		"cpulimiter_paused_processes",
		"Number of processes currently held suspended by the engine.",
	)

	LimitPercent = NewGauge(
		"cpulimiter_limit_percent",
		"Configured duty-cycle limit percentage.",
	)

	LimiterEnabled = NewGauge(
		"cpulimiter_enabled",
		"Whether limiting is enabled (1) or disabled (0).",
	)

	LimiterMode = NewGaugeVec(
		"cpulimiter_mode",
		"Active limiter mode (1 on the active label).",
		[]string{"mode"},
	)
}

// registerLimiterMetrics registers all limiter metrics with Prometheus
func registerLimiterMetrics() {
	prometheus.MustRegister(PausesTotal)
	prometheus.MustRegister(ResumesTotal)
	prometheus.MustRegister(ReleasesTotal)
	prometheus.MustRegister(PausedProcesses)
	prometheus.MustRegister(LimitPercent)
	prometheus.MustRegister(LimiterEnabled)
	prometheus.MustRegister(LimiterMode)
}

// SetMode sets the active mode gauge, resetting the other label
func SetMode(mode limiter.Mode) {
	modeMutex.Lock()
	defer modeMutex.Unlock()
	LimiterMode.Reset()
	LimiterMode.WithLabelValues(mode.String()).Set(1)
}

// SetEnabled mirrors the master switch into the enabled gauge
func SetEnabled(enabled bool) {
	if enabled {
		LimiterEnabled.Set(1)
	} else {
		LimiterEnabled.Set(0)
	}
}

// SetLimitPercent mirrors the configured limit into its gauge
func SetLimitPercent(percent int) {
	LimitPercent.Set(float64(percent))
}

// ActionRecorder translates engine actions into metric updates.
type ActionRecorder struct{}

func (ActionRecorder) Record(a limiter.Action) {
	switch a.Action {
	case limiter.ActionSuspend:
		PausesTotal.Inc()
	case limiter.ActionResume:
		ResumesTotal.Inc()
	case limiter.ActionRelease:
		ReleasesTotal.Inc()
	}
}
