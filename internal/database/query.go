package database

import (
	"fmt"
	"time"
)

// ActionStats summarizes limiter activity over a period
type ActionStats struct {
	StartDate     time.Time      `json:"start_date"`
	EndDate       time.Time      `json:"end_date"`
	TotalSuspends int64          `json:"total_suspends"`
	TotalResumes  int64          `json:"total_resumes"`
	TotalReleases int64          `json:"total_releases"`
	ByMode        map[string]int `json:"by_mode"`
	ByPID         map[int]int    `json:"by_pid"`
}

const selectColumns = `
	SELECT id, timestamp, action, pid, process_name, mode,
	       cpu_percent, limit_percent, created_at
	FROM actions`

// GetRecentActions returns the N most recent actions
func (d *ActionDB) GetRecentActions(limit int) ([]ActionRecord, error) {
	rows, err := d.db.Query(selectColumns+`
		ORDER BY timestamp DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent actions: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// GetActionsByPID returns all actions against one process, newest first
func (d *ActionDB) GetActionsByPID(pid int) ([]ActionRecord, error) {
	rows, err := d.db.Query(selectColumns+`
		WHERE pid = ?
		ORDER BY timestamp DESC`, pid)
	if err != nil {
		return nil, fmt.Errorf("query actions by pid: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// GetActionsByAction returns all actions of one kind (SUSPEND, RESUME,
// RELEASE), newest first
func (d *ActionDB) GetActionsByAction(action string) ([]ActionRecord, error) {
	rows, err := d.db.Query(selectColumns+`
		WHERE action = ?
		ORDER BY timestamp DESC`, action)
	if err != nil {
		return nil, fmt.Errorf("query actions by action: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// GetActionStats returns aggregate statistics for the last N days
func (d *ActionDB) GetActionStats(days int) (*ActionStats, error) {
	stats := &ActionStats{
		StartDate: time.Now().AddDate(0, 0, -days),
		EndDate:   time.Now(),
		ByMode:    make(map[string]int),
		ByPID:     make(map[int]int),
	}

	err := d.db.QueryRow(`
		SELECT
			COUNT(CASE WHEN action = 'SUSPEND' THEN 1 END),
			COUNT(CASE WHEN action = 'RESUME' THEN 1 END),
			COUNT(CASE WHEN action = 'RELEASE' THEN 1 END)
		FROM actions
		WHERE timestamp >= ?`, stats.StartDate,
	).Scan(&stats.TotalSuspends, &stats.TotalResumes, &stats.TotalReleases)
	if err != nil {
		return nil, fmt.Errorf("query action totals: %w", err)
	}

	rows, err := d.db.Query(`
		SELECT mode, COUNT(*)
		FROM actions
		WHERE timestamp >= ?
		GROUP BY mode`, stats.StartDate)
	if err != nil {
		return nil, fmt.Errorf("query actions by mode: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var mode string
		var count int
		if err := rows.Scan(&mode, &count); err != nil {
			return nil, fmt.Errorf("scan mode row: %w", err)
		}
		stats.ByMode[mode] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mode rows: %w", err)
	}

	pidRows, err := d.db.Query(`
		SELECT pid, COUNT(*) AS n
		FROM actions
		WHERE timestamp >= ? AND action = 'SUSPEND'
		GROUP BY pid
		ORDER BY n DESC
		LIMIT 20`, stats.StartDate)
	if err != nil {
		return nil, fmt.Errorf("query actions by pid: %w", err)
	}
	defer pidRows.Close()
	for pidRows.Next() {
		var pid, count int
		if err := pidRows.Scan(&pid, &count); err != nil {
			return nil, fmt.Errorf("scan pid row: %w", err)
		}
		stats.ByPID[pid] = count
	}
	if err := pidRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pid rows: %w", err)
	}

	return stats, nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRecords(rows rowScanner) ([]ActionRecord, error) {
	var records []ActionRecord
	for rows.Next() {
		var r ActionRecord
		err := rows.Scan(
			&r.ID, &r.Timestamp, &r.Action, &r.PID, &r.ProcessName,
			&r.Mode, &r.CPUPercent, &r.LimitPercent, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan action row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate action rows: %w", err)
	}
	return records, nil
}
