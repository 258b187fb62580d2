package limiter

import (
	"context"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"cpu-limiter/internal/proc"
)

// Options tune the engine. The defaults match the behavior the daemon
// ships with; tests shrink the period to run the duty cycle in
// milliseconds.
type Options struct {
	Period     time.Duration // duty-cycle period (default 100ms)
	Hysteresis float64       // points below the limit before resuming in global mode (default 5)
	NoiseFloor float64       // minimum per-process CPU% to be a global-mode candidate (default 0.5)
	SelfPID    int           // never suspended in global mode (default os.Getpid())
	Logger     *log.Logger
	Recorder   Recorder // optional; receives suspend/resume/release events
}

const (
	defaultPeriod     = 100 * time.Millisecond
	defaultHysteresis = 5.0
	defaultNoiseFloor = 0.5
)

// Limiter owns the shared config/status records and the background engine
// goroutine. The zero value is not usable; construct with New.
type Limiter struct {
	mu     sync.Mutex
	cfg    Config
	status Status

	sig     proc.Signaller
	sampler proc.Sampler
	opts    Options
	logger  *log.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a limiter in its inert state: disabled, targeted mode, limit
// 100, no target. Control-surface calls before Start are plain state
// writes against this record.
func New(sig proc.Signaller, sampler proc.Sampler, opts Options) *Limiter {
	if opts.Period <= 0 {
		opts.Period = defaultPeriod
	}
	if opts.Hysteresis <= 0 {
		opts.Hysteresis = defaultHysteresis
	}
	if opts.NoiseFloor <= 0 {
		opts.NoiseFloor = defaultNoiseFloor
	}
	if opts.SelfPID == 0 {
		opts.SelfPID = os.Getpid()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Limiter{
		cfg:     Config{LimitPercent: 100, Mode: ModeTargeted},
		sig:     sig,
		sampler: sampler,
		opts:    opts,
		logger:  logger,
	}
}

// Start launches the engine goroutine. Calling Start on a running limiter
// is a no-op.
func (l *Limiter) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})
	go l.run(ctx, l.done)
}

// Stop cancels the engine and waits until it has released every process it
// holds suspended. Safe to call on a limiter that was never started.
func (l *Limiter) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// engine-local working set, owned by the run goroutine alone
type holdings struct {
	target    int          // pid currently signalled in targeted mode, 0 if none
	queue     []int        // global-mode suspensions in suspend order
	member    map[int]bool // O(1) duplicate check for queue
	suspended bool         // targeted pid is in its stop phase
}

func (l *Limiter) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	held := &holdings{member: make(map[int]bool)}

	// No suspended process may outlive the engine.
	defer l.releaseAll(held)

	for ctx.Err() == nil {
		cfg := l.GetConfig()

		switch {
		case !cfg.Enabled:
			l.releaseAll(held)
			l.sleep(ctx, l.opts.Period)
		case cfg.Mode == ModeTargeted:
			l.iterateTargeted(ctx, cfg, held)
		default:
			l.iterateGlobal(ctx, cfg, held)
		}
	}
}

// iterateTargeted performs one duty-cycle period against the configured
// target: continue, run for limit% of the period, stop, hold for the rest.
func (l *Limiter) iterateTargeted(ctx context.Context, cfg Config, held *holdings) {
	// A mode switch must not leave stale global suspensions behind.
	l.releaseQueue(held)

	if held.target != cfg.TargetPID {
		l.releaseTarget(held)
		held.target = cfg.TargetPID
		l.publish(nil, false)
	}

	if held.target == 0 {
		l.sleep(ctx, l.opts.Period)
		return
	}

	runTime := l.opts.Period * time.Duration(cfg.LimitPercent) / 100
	stopTime := l.opts.Period - runTime

	if err := l.sig.Resume(held.target); err != nil {
		l.dropTarget(held, err)
		return
	}
	if held.suspended {
		l.record(ActionResume, held.target, cfg, 0)
	}
	held.suspended = false
	l.publish(nil, false)
	if !l.sleep(ctx, runTime) {
		return
	}

	if stopTime <= 0 {
		return
	}
	if err := l.sig.Suspend(held.target); err != nil {
		l.dropTarget(held, err)
		return
	}
	held.suspended = true
	l.record(ActionSuspend, held.target, cfg, 0)
	l.publish([]int{held.target}, true)
	l.sleep(ctx, stopTime)
}

// iterateGlobal samples total CPU and paces suspensions: above the limit,
// freeze the heaviest eligible process; below limit-hysteresis, thaw the
// oldest frozen one.
func (l *Limiter) iterateGlobal(ctx context.Context, cfg Config, held *holdings) {
	// Symmetric with the targeted branch: drop the targeted hold first.
	l.releaseTarget(held)

	total, err := l.sampler.SystemCPU()
	if err != nil {
		l.logger.Printf("ERROR: system cpu sample failed: %v", err)
		l.sleep(ctx, l.opts.Period)
		return
	}

	limit := float64(cfg.LimitPercent)
	lower := limit - l.opts.Hysteresis
	if lower < 0 {
		lower = 0
	}

	switch {
	case total > limit:
		l.suspendHeaviest(cfg, held, total)
	case total < lower && len(held.queue) > 0:
		pid := held.queue[0]
		held.queue = held.queue[1:]
		delete(held.member, pid)
		if err := l.sig.Resume(pid); err != nil {
			l.logger.Printf("resume pid %d: %v", pid, err)
		}
		l.record(ActionResume, pid, cfg, total)
		l.publish(held.queue, false)
	}

	l.sleep(ctx, l.opts.Period)
}

// suspendHeaviest picks the highest-CPU process that is not us, not
// already held, and above the noise floor, and freezes it.
func (l *Limiter) suspendHeaviest(cfg Config, held *holdings, total float64) {
	procs, err := l.sampler.Snapshot()
	if err != nil {
		l.logger.Printf("ERROR: process snapshot failed: %v", err)
		return
	}

	candidates := procs[:0]
	for _, p := range procs {
		if p.PID == l.opts.SelfPID || held.member[p.PID] || p.CPUPercent <= l.opts.NoiseFloor {
			continue
		}
		candidates = append(candidates, p)
	}
	if len(candidates) == 0 {
		return
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CPUPercent > candidates[j].CPUPercent
	})

	pick := candidates[0]
	if err := l.sig.Suspend(pick.PID); err != nil {
		// Lost the race with process exit; try again next period.
		l.logger.Printf("suspend pid %d: %v", pick.PID, err)
		return
	}
	held.queue = append(held.queue, pick.PID)
	held.member[pick.PID] = true
	l.record(ActionSuspend, pick.PID, cfg, total)
	l.publish(held.queue, true)
}

// dropTarget clears a target whose signal failed. The identifier is stale;
// it must not be retried, and the loop restarts without sleeping out the
// period. The shared config is cleared as well when it still names the
// dead pid, otherwise the next iteration would re-adopt it and spin.
func (l *Limiter) dropTarget(held *holdings, err error) {
	l.logger.Printf("target pid %d lost: %v", held.target, err)
	l.record(ActionRelease, held.target, l.GetConfig(), 0)
	l.mu.Lock()
	if l.cfg.TargetPID == held.target {
		l.cfg.TargetPID = 0
	}
	l.mu.Unlock()
	held.target = 0
	held.suspended = false
	l.publish(nil, false)
}

// releaseTarget resumes the held targeted pid, if any.
func (l *Limiter) releaseTarget(held *holdings) {
	if held.target == 0 {
		return
	}
	_ = l.sig.Resume(held.target)
	l.record(ActionRelease, held.target, l.GetConfig(), 0)
	held.target = 0
	held.suspended = false
	l.publish(held.queue, false)
}

// releaseQueue resumes every global-mode suspension, oldest first.
func (l *Limiter) releaseQueue(held *holdings) {
	if len(held.queue) == 0 {
		return
	}
	cfg := l.GetConfig()
	for _, pid := range held.queue {
		_ = l.sig.Resume(pid)
		l.record(ActionRelease, pid, cfg, 0)
		delete(held.member, pid)
	}
	held.queue = held.queue[:0]
	l.publish(nil, false)
}

func (l *Limiter) releaseAll(held *holdings) {
	l.releaseTarget(held)
	l.releaseQueue(held)
}

// sleep waits d or until cancellation; it reports false on cancellation.
func (l *Limiter) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (l *Limiter) record(action string, pid int, cfg Config, cpuPercent float64) {
	if l.opts.Recorder == nil {
		return
	}
	l.opts.Recorder.Record(Action{
		Time:         time.Now(),
		Action:       action,
		PID:          pid,
		Mode:         cfg.Mode,
		CPUPercent:   cpuPercent,
		LimitPercent: cfg.LimitPercent,
	})
}
