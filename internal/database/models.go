package database

import (
	"time"
)

// Capture statuses stored in capture_log.status.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// CaptureRecord is one row of capture_log.
type CaptureRecord struct {
	ID        int64  `db:"id"`
	RequestID string `db:"request_id"`
	Kind      string `db:"kind"`
	Status    string `db:"status"`

	// Result
	Source      *string  `db:"source"`
	AppName     *string  `db:"app_name"`
	Width       *int     `db:"width"`
	Height      *int     `db:"height"`
	ScaleFactor *float64 `db:"scale_factor"`
	FilePath    *string  `db:"file_path"`
	FileBytes   *int64   `db:"file_bytes"`
	TextLength  *int     `db:"text_length"`

	// Failure
	ErrorKind    *string `db:"error_kind"`
	ErrorMessage *string `db:"error_message"`

	// Timing
	StartedAt   time.Time  `db:"started_at"`
	CompletedAt *time.Time `db:"completed_at"`
	DurationMs  *int64     `db:"duration_ms"`
	EvictedAt   *time.Time `db:"evicted_at"`
}

// CaptureOutcome is what a successful capture reports back to the journal.
type CaptureOutcome struct {
	Source      string
	AppName     *string
	Width       int
	Height      int
	ScaleFactor float64
	FilePath    string // empty for text captures
	FileBytes   int64
	TextLength  int
}

// CaptureStats summarizes the journal.
type CaptureStats struct {
	Total     int64
	Completed int64
	Failed    int64
	Running   int64
	Retained  int64 // completed image captures not yet evicted
	ByError   map[string]int64
}
