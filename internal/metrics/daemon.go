package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Daemon subsystem metrics
var (
	// ErrorsTotal tracks total errors encountered by the daemon
	ErrorsTotal prometheus.Counter

	// SystemCPUPercent tracks the last sampled total system CPU utilization
	SystemCPUPercent prometheus.Gauge

	// MemoryUsedBytes tracks system memory in use
	MemoryUsedBytes prometheus.Gauge

	// MemoryTotalBytes tracks total system memory
	MemoryTotalBytes prometheus.Gauge

	// SampleDuration tracks how long one monitor sampling pass takes
	SampleDuration prometheus.Histogram
)

// initDaemonMetrics initializes all daemon subsystem metrics
func initDaemonMetrics() {
	ErrorsTotal = NewCounter(
		"cpulimiter_daemon_errors_total",
		"Total number of errors encountered by the cpu-limiter daemon.",
	)

	SystemCPUPercent = NewGauge(
		"cpulimiter_system_cpu_percent",
		"Last sampled total system CPU utilization.",
	)

	MemoryUsedBytes = NewGauge(
		"cpulimiter_memory_used_bytes",
		"System memory currently in use.",
	)

	MemoryTotalBytes = NewGauge(
		"cpulimiter_memory_total_bytes",
		"Total system memory.",
	)

	SampleDuration = NewDurationHistogram(
		"cpulimiter_sample_duration_seconds",
		"Duration of one system sampling pass.",
	)
}

// registerDaemonMetrics registers all daemon metrics with Prometheus
func registerDaemonMetrics() {
	prometheus.MustRegister(ErrorsTotal)
	prometheus.MustRegister(SystemCPUPercent)
	prometheus.MustRegister(MemoryUsedBytes)
	prometheus.MustRegister(MemoryTotalBytes)
	prometheus.MustRegister(SampleDuration)
}
