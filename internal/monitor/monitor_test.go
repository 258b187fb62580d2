package monitor

import (
	"io"
	"log"
	"testing"
	"time"

	"cpu-limiter/internal/metrics"
	"cpu-limiter/internal/proc"
)

func newTestMonitor(series []float64) *Monitor {
	metrics.Init()
	sampler := &proc.FakeSampler{CPUSeries: series}
	return New(sampler, nil, time.Second, log.New(io.Discard, "", 0))
}

// TestHistoryRingIsBounded verifies the CPU history never grows past its cap
func TestHistoryRingIsBounded(t *testing.T) {
	m := newTestMonitor([]float64{1, 2, 3})

	for i := 0; i < historySize+50; i++ {
		m.sample()
	}

	st := m.Snapshot()
	if len(st.CPUHistory) != historySize {
		t.Errorf("history length = %d, want %d", len(st.CPUHistory), historySize)
	}
	// The scripted series exhausts after three values and repeats the last one
	if st.CPUHistory[len(st.CPUHistory)-1] != 3 {
		t.Errorf("newest sample = %v, want 3", st.CPUHistory[len(st.CPUHistory)-1])
	}
}

// TestSnapshotReturnsCopy verifies callers cannot mutate internal state
func TestSnapshotReturnsCopy(t *testing.T) {
	m := newTestMonitor([]float64{42})
	m.sample()

	st := m.Snapshot()
	if st.CPUPercent != 42 {
		t.Fatalf("cpu percent = %v, want 42", st.CPUPercent)
	}
	if len(st.CPUHistory) != 1 {
		t.Fatalf("history length = %d, want 1", len(st.CPUHistory))
	}

	st.CPUHistory[0] = -1
	again := m.Snapshot()
	if again.CPUHistory[0] != 42 {
		t.Error("snapshot shares backing array with internal history")
	}
}

// TestStartStopJoins verifies the sampling goroutine can be cycled safely
func TestStartStopJoins(t *testing.T) {
	m := newTestMonitor([]float64{10, 20})
	m.Start()
	m.Start() // second call is a no-op

	// The first sample is taken synchronously on startup
	deadline := time.After(time.Second)
	for m.Snapshot().Timestamp.IsZero() {
		select {
		case <-deadline:
			t.Fatal("no sample recorded after Start")
		case <-time.After(5 * time.Millisecond):
		}
	}

	m.Stop()
	m.Stop() // idempotent
}
