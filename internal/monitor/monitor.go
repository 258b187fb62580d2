// Package monitor samples system-wide CPU and memory on a fixed interval
// and keeps a bounded history of CPU readings for display. It also mirrors
// the samples and the limiter's observed state into Prometheus gauges.
package monitor

import (
	"context"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/mem"

	"cpu-limiter/internal/limiter"
	"cpu-limiter/internal/metrics"
	"cpu-limiter/internal/proc"
)

const historySize = 300 // samples kept for the CPU history ring

// Stats is one snapshot of system state plus the recent CPU history.
type Stats struct {
	Timestamp     time.Time `json:"timestamp"`
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryUsed    uint64    `json:"memory_used"`
	MemoryTotal   uint64    `json:"memory_total"`
	CPUCount      int       `json:"cpu_count"`
	UptimeSeconds uint64    `json:"uptime_seconds"`
	CPUHistory    []float64 `json:"cpu_history"`
}

// Monitor runs one sampling goroutine for the daemon's lifetime.
type Monitor struct {
	mu      sync.Mutex
	sampler proc.Sampler
	lim     *limiter.Limiter
	logger  *log.Logger

	interval time.Duration
	started  time.Time
	latest   Stats
	history  []float64

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a monitor sampling through sampler every interval. lim may be
// nil; when set, the limiter's paused-process count is mirrored into its
// gauge alongside each sample.
func New(sampler proc.Sampler, lim *limiter.Limiter, interval time.Duration, logger *log.Logger) *Monitor {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Monitor{
		sampler:  sampler,
		lim:      lim,
		logger:   logger,
		interval: interval,
		started:  time.Now(),
		history:  make([]float64, 0, historySize),
	}
}

// Start launches the sampling goroutine. No-op if already running.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.run(ctx, m.done)
}

// Stop halts sampling and waits for the goroutine to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.sample()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

func (m *Monitor) sample() {
	start := time.Now()
	defer func() {
		metrics.SampleDuration.Observe(time.Since(start).Seconds())
	}()

	cpuPercent, err := m.sampler.SystemCPU()
	if err != nil {
		m.logger.Printf("ERROR: system cpu sample failed: %v", err)
		metrics.ErrorsTotal.Inc()
		return
	}

	var memUsed, memTotal uint64
	if vm, err := mem.VirtualMemory(); err == nil && vm != nil {
		memUsed, memTotal = vm.Used, vm.Total
	}

	m.mu.Lock()
	if len(m.history) >= historySize {
		m.history = m.history[1:]
	}
	m.history = append(m.history, cpuPercent)
	m.latest = Stats{
		Timestamp:     time.Now(),
		CPUPercent:    cpuPercent,
		MemoryUsed:    memUsed,
		MemoryTotal:   memTotal,
		CPUCount:      runtime.NumCPU(),
		UptimeSeconds: uint64(time.Since(m.started).Seconds()),
	}
	m.mu.Unlock()

	metrics.SystemCPUPercent.Set(cpuPercent)
	metrics.MemoryUsedBytes.Set(float64(memUsed))
	metrics.MemoryTotalBytes.Set(float64(memTotal))
	if m.lim != nil {
		st := m.lim.GetStatus()
		metrics.PausedProcesses.Set(float64(len(st.PausedPIDs)))
	}
}

// Snapshot returns the latest sample with a copy of the CPU history.
func (m *Monitor) Snapshot() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.latest
	st.UptimeSeconds = uint64(time.Since(m.started).Seconds())
	st.CPUHistory = append([]float64(nil), m.history...)
	return st
}
