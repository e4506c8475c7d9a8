package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Capture journal operations

// StartCapture records a new capture request and returns its row ID
func (db *DB) StartCapture(requestID, kind string) (int64, error) {
	var id int64
	err := db.ExecTx(func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			INSERT INTO capture_log (request_id, kind, status, started_at)
			VALUES (?, ?, 'running', ?)
		`, requestID, kind, time.Now())
		if err != nil {
			return fmt.Errorf("failed to insert capture log: %w", err)
		}

		id, err = result.LastInsertId()
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// CompleteCapture marks a capture as completed with its outcome
func (db *DB) CompleteCapture(id int64, outcome CaptureOutcome) error {
	return db.ExecTx(func(tx *sql.Tx) error {
		startedAt, err := captureStart(tx, id)
		if err != nil {
			return err
		}
		completedAt := time.Now()

		var filePath, fileBytes interface{}
		if outcome.FilePath != "" {
			filePath = outcome.FilePath
			fileBytes = outcome.FileBytes
		}

		_, err = tx.Exec(`
			UPDATE capture_log
			SET status = 'completed',
				source = ?,
				app_name = ?,
				width = ?,
				height = ?,
				scale_factor = ?,
				file_path = ?,
				file_bytes = ?,
				text_length = ?,
				completed_at = ?,
				duration_ms = ?
			WHERE id = ?
		`, outcome.Source, outcome.AppName, outcome.Width, outcome.Height, outcome.ScaleFactor,
			filePath, fileBytes, outcome.TextLength,
			completedAt, completedAt.Sub(startedAt).Milliseconds(), id)
		return err
	})
}

// FailCapture marks a capture as failed
func (db *DB) FailCapture(id int64, errorKind, errorMessage string) error {
	return db.ExecTx(func(tx *sql.Tx) error {
		startedAt, err := captureStart(tx, id)
		if err != nil {
			return err
		}
		completedAt := time.Now()

		_, err = tx.Exec(`
			UPDATE capture_log
			SET status = 'failed',
				error_kind = ?,
				error_message = ?,
				completed_at = ?,
				duration_ms = ?
			WHERE id = ?
		`, errorKind, errorMessage, completedAt, completedAt.Sub(startedAt).Milliseconds(), id)
		return err
	})
}

func captureStart(tx *sql.Tx, id int64) (time.Time, error) {
	var startedAt time.Time
	err := tx.QueryRow(`SELECT started_at FROM capture_log WHERE id = ?`, id).Scan(&startedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get capture start time: %w", err)
	}
	return startedAt, nil
}

// MarkEvicted stamps the rows whose artifacts were removed by the retention
// sweep. It returns the number of rows updated.
func (db *DB) MarkEvicted(paths []string) (int64, error) {
	if len(paths) == 0 {
		return 0, nil
	}

	var updated int64
	err := db.ExecTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			UPDATE capture_log
			SET evicted_at = ?
			WHERE file_path = ? AND evicted_at IS NULL
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		now := time.Now()
		for _, path := range paths {
			result, err := stmt.Exec(now, path)
			if err != nil {
				return fmt.Errorf("failed to mark %s evicted: %w", path, err)
			}
			n, err := result.RowsAffected()
			if err != nil {
				return err
			}
			updated += n
		}
		return nil
	})
	return updated, err
}

const captureColumns = `
	id, request_id, kind, status,
	source, app_name, width, height, scale_factor, file_path, file_bytes, text_length,
	error_kind, error_message,
	started_at, completed_at, duration_ms, evicted_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCapture(row rowScanner) (*CaptureRecord, error) {
	r := &CaptureRecord{}
	err := row.Scan(
		&r.ID, &r.RequestID, &r.Kind, &r.Status,
		&r.Source, &r.AppName, &r.Width, &r.Height, &r.ScaleFactor, &r.FilePath, &r.FileBytes, &r.TextLength,
		&r.ErrorKind, &r.ErrorMessage,
		&r.StartedAt, &r.CompletedAt, &r.DurationMs, &r.EvictedAt,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetCaptureByRequestID retrieves a capture by its request ID
func (db *DB) GetCaptureByRequestID(requestID string) (*CaptureRecord, error) {
	row := db.conn.QueryRow(`SELECT `+captureColumns+` FROM capture_log WHERE request_id = ?`, requestID)
	return scanCapture(row)
}

// RecentCaptures returns the most recent captures, newest first
func (db *DB) RecentCaptures(limit int) ([]*CaptureRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.conn.Query(`
		SELECT `+captureColumns+`
		FROM capture_log
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*CaptureRecord{}
	for rows.Next() {
		r, err := scanCapture(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetCaptureStats summarizes the journal
func (db *DB) GetCaptureStats() (*CaptureStats, error) {
	stats := &CaptureStats{ByError: make(map[string]int64)}

	err := db.conn.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(status = 'completed'), 0),
			COALESCE(SUM(status = 'failed'), 0),
			COALESCE(SUM(status = 'running'), 0),
			COALESCE(SUM(status = 'completed' AND file_path IS NOT NULL AND evicted_at IS NULL), 0)
		FROM capture_log
	`).Scan(&stats.Total, &stats.Completed, &stats.Failed, &stats.Running, &stats.Retained)
	if err != nil {
		return nil, err
	}

	rows, err := db.conn.Query(`
		SELECT error_kind, COUNT(*)
		FROM capture_log
		WHERE status = 'failed' AND error_kind IS NOT NULL
		GROUP BY error_kind
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var count int64
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		stats.ByError[kind] = count
	}
	return stats, rows.Err()
}
