package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"cpu-limiter/internal/limiter"
)

// ActionDB manages the SQLite database recording every suspend/resume the
// engine performed.
type ActionDB struct {
	db *sql.DB
}

// ActionRecord represents a single limiter action
type ActionRecord struct {
	ID           int64
	Timestamp    time.Time
	Action       string // SUSPEND, RESUME, or RELEASE
	PID          int
	ProcessName  string
	Mode         string // targeted or global
	CPUPercent   float64
	LimitPercent int
	CreatedAt    time.Time
}

// NewActionDB creates a new database connection and initializes schema
func NewActionDB(dbPath string) (*ActionDB, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	// file: prefix with _loc=auto enables automatic DATETIME parsing
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_loc=auto")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	// A plain exec both probes the connection and creates the file
	if _, err = db.Exec("SELECT 1"); err != nil {
		return nil, fmt.Errorf("failed to initialize database (check permissions on %s): %w", dbPath, err)
	}

	// WAL: the query CLI reads while the daemon writes
	if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err = db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	adb := &ActionDB{db: db}
	if err = adb.initSchema(); err != nil {
		return nil, err
	}

	err = nil
	return adb, nil
}

// initSchema creates tables and indexes if they don't exist
func (d *ActionDB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS actions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		action TEXT NOT NULL,
		pid INTEGER NOT NULL,
		process_name TEXT,
		mode TEXT NOT NULL,
		cpu_percent REAL,
		limit_percent INTEGER,

		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_actions_timestamp ON actions(timestamp);
	CREATE INDEX IF NOT EXISTS idx_actions_action ON actions(action);
	CREATE INDEX IF NOT EXISTS idx_actions_pid ON actions(pid);
	CREATE INDEX IF NOT EXISTS idx_actions_mode ON actions(mode);

	-- Metadata table for schema versioning
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := d.db.Exec(schema)
	return err
}

// RecordAction inserts a limiter action into the database
func (d *ActionDB) RecordAction(a limiter.Action, processName string) error {
	_, err := d.db.Exec(`
		INSERT INTO actions (timestamp, action, pid, process_name, mode, cpu_percent, limit_percent)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.Time, a.Action, a.PID, processName, a.Mode.String(), a.CPUPercent, a.LimitPercent,
	)
	if err != nil {
		return fmt.Errorf("record action: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *ActionDB) Close() error {
	return d.db.Close()
}

// Recorder adapts the ActionDB to the engine's Recorder interface. In
// targeted mode the engine emits a suspend/resume pair every period; only
// the RELEASE bookends are stored for that mode so an active limit does
// not grow the database by ten rows a second. Global-mode actions and
// releases are stored in full.
type Recorder struct {
	db     *ActionDB
	logger *log.Logger
}

// NewRecorder wraps db; logger receives insert failures.
func NewRecorder(db *ActionDB, logger *log.Logger) *Recorder {
	if logger == nil {
		logger = log.Default()
	}
	return &Recorder{db: db, logger: logger}
}

func (r *Recorder) Record(a limiter.Action) {
	if a.Mode == limiter.ModeTargeted && a.Action != limiter.ActionRelease {
		return
	}
	if err := r.db.RecordAction(a, ""); err != nil {
		r.logger.Printf("ERROR: %v", err)
	}
}
