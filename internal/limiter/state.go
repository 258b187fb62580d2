// Package limiter throttles CPU consumption of processes that do not
// cooperate, by duty-cycling SIGSTOP/SIGCONT delivery. A single background
// engine goroutine owns all signalling; callers steer it through the
// shared config and observe it through the shared status.
package limiter

import (
	"time"
)

// Mode selects what the engine throttles.
type Mode int

const (
	// ModeTargeted throttles one explicitly chosen process.
	ModeTargeted Mode = iota
	// ModeGlobal suspends the heaviest CPU consumers whenever total system
	// CPU exceeds the limit.
	ModeGlobal
)

func (m Mode) String() string {
	if m == ModeGlobal {
		return "global"
	}
	return "targeted"
}

// Config is the desired state written by callers and read by the engine
// once per duty-cycle period.
type Config struct {
	TargetPID    int  `json:"target_pid"` // 0 means no target
	LimitPercent int  `json:"limit_percent"`
	Mode         Mode `json:"mode"`
	Enabled      bool `json:"enabled"`
}

// Status is the observed state, written only by the engine.
type Status struct {
	TargetPID  int       `json:"target_pid"`
	Limiting   bool      `json:"limiting"` // at least one process currently suspended
	PausedPIDs []int     `json:"paused_pids"`
	PauseCount uint64    `json:"pause_count"` // suspend signals issued since engine start
	LastAction time.Time `json:"last_action"`
}

// SetTarget stores the pid to throttle and forces targeted mode. The
// previous target, if any, is resumed by the engine on its next iteration
// rather than here, so that only the engine goroutine touches OS process
// state while enabled.
func (l *Limiter) SetTarget(pid int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cfg.TargetPID = pid
	l.cfg.Mode = ModeTargeted
}

// SetGlobal switches to global mode with the given limit. The limit is
// clamped to [1,100] like SetLimit.
func (l *Limiter) SetGlobal(limitPercent int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cfg.Mode = ModeGlobal
	l.cfg.LimitPercent = clampPercent(limitPercent)
}

// SetLimit stores the limit percentage, clamped to [1,100].
func (l *Limiter) SetLimit(limitPercent int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cfg.LimitPercent = clampPercent(limitPercent)
}

// Toggle switches limiting on or off. Turning it off also issues a
// best-effort resume to the current target right here; the engine may be
// mid-sleep for most of a period before it notices and releases its holds.
func (l *Limiter) Toggle(enabled bool) {
	l.mu.Lock()
	l.cfg.Enabled = enabled
	target := l.cfg.TargetPID
	l.mu.Unlock()

	// Signal outside the lock; readers must not stall behind kill(2).
	if !enabled && target != 0 {
		_ = l.sig.Resume(target)
	}
}

// GetConfig returns a snapshot of the desired state.
func (l *Limiter) GetConfig() Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg
}

// GetStatus returns a snapshot of the observed state.
func (l *Limiter) GetStatus() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := l.status
	st.PausedPIDs = append([]int(nil), l.status.PausedPIDs...)
	return st
}

func clampPercent(v int) int {
	if v < 1 {
		return 1
	}
	if v > 100 {
		return 100
	}
	return v
}

// publish rewrites the observed state under the lock. paused lists every
// pid the engine currently holds suspended, in suspend order; suspended
// reports whether this update follows a suspend signal.
func (l *Limiter) publish(paused []int, suspended bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.status.TargetPID = l.cfg.TargetPID
	l.status.PausedPIDs = append([]int(nil), paused...)
	l.status.Limiting = len(paused) > 0
	l.status.LastAction = time.Now()
	if suspended {
		l.status.PauseCount++
	}
}
