//go:build !windows

package proc

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// UnixSignaller delivers SIGSTOP/SIGCONT via kill(2).
type UnixSignaller struct{}

// NewSignaller returns the platform signaller.
func NewSignaller() *UnixSignaller {
	return &UnixSignaller{}
}

func (s *UnixSignaller) Suspend(pid int) error {
	return s.kill(pid, unix.SIGSTOP)
}

func (s *UnixSignaller) Resume(pid int) error {
	return s.kill(pid, unix.SIGCONT)
}

// Alive sends signal 0 to probe whether the process still exists
func (s *UnixSignaller) Alive(pid int) bool {
	return unix.Kill(pid, 0) == nil
}

func (s *UnixSignaller) kill(pid int, sig unix.Signal) error {
	err := unix.Kill(pid, sig)
	if err == nil {
		return nil
	}
	// ESRCH: the process exited between selection and delivery.
	// EPERM: a privileged process we may never signal; to the engine that
	// pid is equally unusable, so both collapse to ErrProcessGone.
	if errors.Is(err, unix.ESRCH) || errors.Is(err, unix.EPERM) {
		return fmt.Errorf("signal %v pid %d: %w", sig, pid, ErrProcessGone)
	}
	return fmt.Errorf("signal %v pid %d: %w", sig, pid, err)
}
