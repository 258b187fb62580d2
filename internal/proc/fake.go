package proc

import "sync"

// FakeSignaller records signal deliveries for tests. Pids present in Gone
// behave as exited processes: every signal to them fails with
// ErrProcessGone.
type FakeSignaller struct {
	mu        sync.Mutex
	Gone      map[int]bool
	Suspended map[int]bool
	Suspends  []int
	Resumes   []int
}

func NewFakeSignaller() *FakeSignaller {
	return &FakeSignaller{
		Gone:      make(map[int]bool),
		Suspended: make(map[int]bool),
	}
}

func (f *FakeSignaller) Suspend(pid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Gone[pid] {
		return ErrProcessGone
	}
	f.Suspended[pid] = true
	f.Suspends = append(f.Suspends, pid)
	return nil
}

func (f *FakeSignaller) Resume(pid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Gone[pid] {
		return ErrProcessGone
	}
	delete(f.Suspended, pid)
	f.Resumes = append(f.Resumes, pid)
	return nil
}

func (f *FakeSignaller) Alive(pid int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.Gone[pid]
}

// MarkGone makes every later signal to pid fail.
func (f *FakeSignaller) MarkGone(pid int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Gone[pid] = true
}

// SuspendedPIDs returns the pids currently held suspended.
func (f *FakeSignaller) SuspendedPIDs() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	pids := make([]int, 0, len(f.Suspended))
	for pid := range f.Suspended {
		pids = append(pids, pid)
	}
	return pids
}

// SuspendOrder returns every suspend delivered so far, in order.
func (f *FakeSignaller) SuspendOrder() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.Suspends...)
}

// ResumeOrder returns every resume delivered so far, in order.
func (f *FakeSignaller) ResumeOrder() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.Resumes...)
}

// Counts returns how many suspend and resume signals were delivered.
func (f *FakeSignaller) Counts() (suspends, resumes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Suspends), len(f.Resumes)
}

// FakeSampler replays a scripted sequence of system CPU readings and a
// fixed process snapshot. The last CPU reading repeats once the script is
// exhausted.
type FakeSampler struct {
	mu        sync.Mutex
	CPUSeries []float64
	Procs     []ProcessInfo
	idx       int
}

func (f *FakeSampler) SystemCPU() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.CPUSeries) == 0 {
		return 0, nil
	}
	v := f.CPUSeries[f.idx]
	if f.idx < len(f.CPUSeries)-1 {
		f.idx++
	}
	return v, nil
}

func (f *FakeSampler) Snapshot() ([]ProcessInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ProcessInfo, len(f.Procs))
	copy(out, f.Procs)
	return out, nil
}

// SetProcs replaces the scripted process snapshot.
func (f *FakeSampler) SetProcs(procs []ProcessInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Procs = procs
}
