// Package proc is the boundary between the limiter and the operating
// system: stop/continue signal delivery and CPU usage sampling. Both sides
// are interfaces so the engine can be driven by fakes in tests.
package proc

import "errors"

// ErrProcessGone reports that a signal could not be delivered because the
// target process no longer exists (or can never be signalled by us). This
// is the only failure the limiter engine distinguishes; it is always
// recoverable.
var ErrProcessGone = errors.New("process gone")

// ProcessInfo describes one live process for selection and display.
type ProcessInfo struct {
	PID        int     `json:"pid"`
	Name       string  `json:"name"`
	CPUPercent float64 `json:"cpu_percent"`
	MemoryRSS  uint64  `json:"memory_rss"`
}

// Signaller delivers stop/continue signals to processes.
type Signaller interface {
	// Suspend stops the process's scheduling without terminating it.
	Suspend(pid int) error
	// Resume continues a previously suspended process.
	Resume(pid int) error
	// Alive reports whether the process can currently be signalled.
	Alive(pid int) bool
}

// Sampler provides system-wide and per-process CPU usage.
type Sampler interface {
	// SystemCPU returns total system CPU utilization on a 0-100 scale.
	SystemCPU() (float64, error)
	// Snapshot enumerates live processes with their current CPU usage.
	Snapshot() ([]ProcessInfo, error)
}
