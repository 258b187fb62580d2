package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cpu-limiter/internal/config"
)

const (
	logDir  = "/var/log/cpu-limiter"
	logFile = "limiter.log"
)

// New creates a new logger with rotation support
func New() *log.Logger {
	return NewWithConfig(nil)
}

// NewWithConfig creates a new logger writing to stdout and the daemon log
// file, rotating the file when it is older than the configured retention.
func NewWithConfig(cfg *config.Config) *log.Logger {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		log.Printf("failed to ensure log directory %s: %v", logDir, err)
	}

	filePath := filepath.Join(logDir, logFile)

	rotateDays := 30 // default
	if cfg != nil && cfg.Logging.RotationDays > 0 {
		rotateDays = cfg.Logging.RotationDays
	}

	rotateIfNeeded(filePath, rotateDays)

	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("failed to open log file %s: %v", filePath, err)
		return log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds)
	}

	mw := io.MultiWriter(os.Stdout, f)
	return log.New(mw, "", log.LstdFlags|log.Lmicroseconds)
}

// rotateIfNeeded renames the current log file when its last write is older
// than rotationDays, then prunes rotated files past retention.
func rotateIfNeeded(logPath string, rotationDays int) {
	info, err := os.Stat(logPath)
	if err != nil {
		// Log file doesn't exist yet, nothing to rotate
		return
	}

	cutoff := time.Now().AddDate(0, 0, -rotationDays)
	if !info.ModTime().Before(cutoff) {
		return
	}

	timestamp := info.ModTime().Format("20060102-150405")
	if err := os.Rename(logPath, logPath+"."+timestamp); err != nil {
		log.Printf("failed to rotate log file: %v", err)
		return
	}

	pruneRotated(logPath, cutoff)
}

// pruneRotated removes rotated log files older than the cutoff.
func pruneRotated(logPath string, cutoff time.Time) {
	dir := filepath.Dir(logPath)
	base := filepath.Base(logPath)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), base+".") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			fullPath := filepath.Join(dir, entry.Name())
			if err := os.Remove(fullPath); err != nil {
				log.Printf("failed to remove old log file %s: %v", fullPath, err)
			}
		}
	}
}
