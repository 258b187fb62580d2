//go:build !windows

package proc

import (
	"errors"
	"os/exec"
	"testing"
	"time"
)

// TestSuspendResumeLiveProcess exercises the real signaller against a
// short-lived child process
func TestSuspendResumeLiveProcess(t *testing.T) {
	cmd := exec.Command("sleep", "60")
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start helper process: %v", err)
	}
	defer func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}()

	sig := NewSignaller()
	pid := cmd.Process.Pid

	if !sig.Alive(pid) {
		t.Fatalf("child pid %d should be alive", pid)
	}
	if err := sig.Suspend(pid); err != nil {
		t.Fatalf("Suspend: %v", err)
	}
	// A stopped process is still signallable
	if !sig.Alive(pid) {
		t.Error("suspended process should still be alive")
	}
	if err := sig.Resume(pid); err != nil {
		t.Fatalf("Resume: %v", err)
	}
}

// TestSignalGoneProcess verifies exited pids map to ErrProcessGone
func TestSignalGoneProcess(t *testing.T) {
	cmd := exec.Command("sleep", "60")
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start helper process: %v", err)
	}
	pid := cmd.Process.Pid
	_ = cmd.Process.Kill()
	_ = cmd.Wait()
	// Give the kernel a beat to reap
	time.Sleep(10 * time.Millisecond)

	sig := NewSignaller()
	if err := sig.Suspend(pid); !errors.Is(err, ErrProcessGone) {
		t.Errorf("Suspend on exited pid: got %v, want ErrProcessGone", err)
	}
	if err := sig.Resume(pid); !errors.Is(err, ErrProcessGone) {
		t.Errorf("Resume on exited pid: got %v, want ErrProcessGone", err)
	}
	if sig.Alive(pid) {
		t.Error("exited pid reported alive")
	}
}

// TestFakeSignallerGonePids verifies the test double mirrors the contract
func TestFakeSignallerGonePids(t *testing.T) {
	f := NewFakeSignaller()
	f.MarkGone(7)

	if err := f.Suspend(7); !errors.Is(err, ErrProcessGone) {
		t.Errorf("fake Suspend on gone pid: got %v", err)
	}
	if err := f.Suspend(8); err != nil {
		t.Errorf("fake Suspend on live pid: got %v", err)
	}
	if got := f.SuspendedPIDs(); len(got) != 1 || got[0] != 8 {
		t.Errorf("SuspendedPIDs = %v, want [8]", got)
	}
}
