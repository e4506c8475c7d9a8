package database

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "journal", "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func TestDatabaseInitialization(t *testing.T) {
	db := openTestDB(t)

	version, err := db.GetVersion()
	if err != nil {
		t.Fatalf("Failed to get version: %v", err)
	}
	if version != LatestVersion() {
		t.Errorf("Expected version %d, got %d", LatestVersion(), version)
	}

	if _, err := os.Stat(db.Path()); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	// Running again is a no-op.
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}
}

func TestCaptureLifecycle(t *testing.T) {
	db := openTestDB(t)

	id, err := db.StartCapture("req-image", "image")
	if err != nil {
		t.Fatalf("StartCapture: %v", err)
	}

	app := "Editor"
	err = db.CompleteCapture(id, CaptureOutcome{
		Source:      "window",
		AppName:     &app,
		Width:       1280,
		Height:      800,
		ScaleFactor: 0.5,
		FilePath:    "/cache/captures/capture-1.png",
		FileBytes:   4096,
	})
	if err != nil {
		t.Fatalf("CompleteCapture: %v", err)
	}

	rec, err := db.GetCaptureByRequestID("req-image")
	if err != nil {
		t.Fatalf("GetCaptureByRequestID: %v", err)
	}
	if rec.Status != StatusCompleted || rec.Kind != "image" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.ScaleFactor == nil || *rec.ScaleFactor != 0.5 {
		t.Errorf("scale factor not stored: %v", rec.ScaleFactor)
	}
	if rec.AppName == nil || *rec.AppName != "Editor" {
		t.Errorf("app name not stored: %v", rec.AppName)
	}
	if rec.CompletedAt == nil || rec.DurationMs == nil {
		t.Error("completion time not recorded")
	}
	if rec.EvictedAt != nil {
		t.Error("fresh capture should not be evicted")
	}
}

func TestFailCapture(t *testing.T) {
	db := openTestDB(t)

	id, err := db.StartCapture("req-fail", "text")
	if err != nil {
		t.Fatal(err)
	}
	if err := db.FailCapture(id, "tool_disabled", "Screen capture tool disabled in settings."); err != nil {
		t.Fatalf("FailCapture: %v", err)
	}

	rec, err := db.GetCaptureByRequestID("req-fail")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != StatusFailed || rec.ErrorKind == nil || *rec.ErrorKind != "tool_disabled" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.FilePath != nil {
		t.Error("failed capture must not reference a file")
	}
}

func TestUnknownCapture(t *testing.T) {
	db := openTestDB(t)

	if err := db.FailCapture(999, "clock_error", "x"); err == nil {
		t.Error("expected error for unknown capture id")
	}
	if _, err := db.GetCaptureByRequestID("missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("got %v, want sql.ErrNoRows", err)
	}
}

func TestDuplicateRequestID(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.StartCapture("dup", "image"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.StartCapture("dup", "image"); err == nil {
		t.Error("expected unique constraint violation")
	}
}

func TestMarkEvictedAndStats(t *testing.T) {
	db := openTestDB(t)

	paths := []string{"/c/capture-1.png", "/c/capture-2.png", "/c/capture-3.png"}
	for i, p := range paths {
		id, err := db.StartCapture(p, "image")
		if err != nil {
			t.Fatal(err)
		}
		if err := db.CompleteCapture(id, CaptureOutcome{Source: "screen", Width: 10, Height: 10, ScaleFactor: 1, FilePath: p, FileBytes: int64(i)}); err != nil {
			t.Fatal(err)
		}
	}
	textID, _ := db.StartCapture("text-1", "text")
	if err := db.CompleteCapture(textID, CaptureOutcome{Source: "window", Width: 10, Height: 10, ScaleFactor: 1, TextLength: 42}); err != nil {
		t.Fatal(err)
	}
	failID, _ := db.StartCapture("fail-1", "image")
	if err := db.FailCapture(failID, "empty_region", "Capture region is empty."); err != nil {
		t.Fatal(err)
	}

	n, err := db.MarkEvicted([]string{paths[0], paths[1], "/c/unknown.png"})
	if err != nil {
		t.Fatalf("MarkEvicted: %v", err)
	}
	if n != 2 {
		t.Errorf("marked %d rows, want 2", n)
	}
	// Already evicted rows are not stamped twice.
	if n, _ := db.MarkEvicted([]string{paths[0]}); n != 0 {
		t.Errorf("re-marked %d rows", n)
	}

	stats, err := db.GetCaptureStats()
	if err != nil {
		t.Fatalf("GetCaptureStats: %v", err)
	}
	if stats.Total != 5 || stats.Completed != 4 || stats.Failed != 1 || stats.Retained != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.ByError["empty_region"] != 1 {
		t.Errorf("ByError = %v", stats.ByError)
	}
}

func TestRecentCaptures(t *testing.T) {
	db := openTestDB(t)

	for _, id := range []string{"a", "b", "c"} {
		if _, err := db.StartCapture(id, "image"); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := db.RecentCaptures(2)
	if err != nil {
		t.Fatalf("RecentCaptures: %v", err)
	}
	if len(recent) != 2 || recent[0].RequestID != "c" || recent[1].RequestID != "b" {
		t.Errorf("unexpected order: %v, %v", recent[0].RequestID, recent[1].RequestID)
	}
	for _, r := range recent {
		if r.Status != StatusRunning {
			t.Errorf("status = %s", r.Status)
		}
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	stats, err := db.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats["schema_version"] != int64(LatestVersion()) {
		t.Errorf("schema_version rows = %d", stats["schema_version"])
	}
}

func TestMigrateDownAndUp(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.StartCapture("req-keep", "image"); err != nil {
		t.Fatal(err)
	}

	if err := db.MigrateDown(2); err != nil {
		t.Fatalf("MigrateDown(2): %v", err)
	}
	version, err := db.GetVersion()
	if err != nil {
		t.Fatal(err)
	}
	if version != 2 {
		t.Errorf("version = %d, want 2", version)
	}
	if _, err := db.conn.Exec(`SELECT evicted_at FROM capture_log`); err == nil {
		t.Error("evicted_at should be gone after reverting migration 3")
	}
	stats, err := db.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats["capture_log"] != 1 {
		t.Errorf("capture_log rows = %d, want 1", stats["capture_log"])
	}

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	if version, _ := db.GetVersion(); version != LatestVersion() {
		t.Errorf("version after reapply = %d", version)
	}
	if _, err := db.GetCaptureByRequestID("req-keep"); err != nil {
		t.Errorf("capture lost across migrations: %v", err)
	}
}

func TestMigrateDownToZero(t *testing.T) {
	db := openTestDB(t)
	if err := db.MigrateDown(0); err != nil {
		t.Fatalf("MigrateDown(0): %v", err)
	}
	if version, err := db.GetVersion(); err != nil || version != 0 {
		t.Errorf("version = %d, err = %v; want 0", version, err)
	}
	stats, _ := db.GetStats()
	if len(stats) != 0 {
		t.Errorf("tables left behind: %v", stats)
	}
}

func TestReset(t *testing.T) {
	db := openTestDB(t)
	for _, id := range []string{"a", "b"} {
		if _, err := db.StartCapture(id, "text"); err != nil {
			t.Fatal(err)
		}
	}

	if err := db.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	stats, err := db.GetCaptureStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 0 {
		t.Errorf("Total = %d after reset", stats.Total)
	}
	if version, _ := db.GetVersion(); version != LatestVersion() {
		t.Errorf("version = %d after reset", version)
	}
}
