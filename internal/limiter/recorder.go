package limiter

import "time"

// Action labels for recorded engine events.
const (
	ActionSuspend = "SUSPEND"
	ActionResume  = "RESUME"
	ActionRelease = "RELEASE"
)

// Action describes one signal the engine delivered. CPUPercent carries the
// system utilization sample that triggered a global-mode action and is zero
// for targeted-mode duty-cycle pulses.
type Action struct {
	Time         time.Time
	Action       string
	PID          int
	Mode         Mode
	CPUPercent   float64
	LimitPercent int
}

// Recorder receives engine actions for metrics and history. Record is
// called from the engine goroutine between signal deliveries, so
// implementations should return quickly; anything slower than a local
// write belongs behind a buffer. Recording failures are the recorder's
// problem; the engine never sees them.
type Recorder interface {
	Record(a Action)
}

// MultiRecorder fans one action out to several recorders.
type MultiRecorder []Recorder

func (m MultiRecorder) Record(a Action) {
	for _, r := range m {
		r.Record(a)
	}
}
