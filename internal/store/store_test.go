package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"jordanella.com/overlay-capture/internal/errs"
)

// steppedClock returns start, start+1ms, start+2ms, ...
func steppedClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(time.Millisecond)
		return now
	}
}

func pngNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".png" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func TestPersistWritesTimestampedFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache", "captures")
	start := time.UnixMilli(1700000000000)
	s := New(Options{Dir: dir, Clock: steppedClock(start)})

	path, err := s.Persist([]byte("png-bytes"))
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if filepath.Base(path) != "capture-1700000000000.png" {
		t.Errorf("unexpected name %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "png-bytes" {
		t.Errorf("read back %q, %v", data, err)
	}
}

func TestRetentionKeepsNewest(t *testing.T) {
	for _, n := range []int{1, 9, 10, 11, 25} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			dir := t.TempDir()
			start := time.UnixMilli(1700000000000)
			s := New(Options{Dir: dir, Clock: steppedClock(start)})

			var written []string
			for i := 0; i < n; i++ {
				path, err := s.Persist([]byte{byte(i)})
				if err != nil {
					t.Fatalf("Persist %d: %v", i, err)
				}
				written = append(written, filepath.Base(path))
			}

			want := written
			if len(want) > MaxCaptureFiles {
				want = want[len(want)-MaxCaptureFiles:]
			}
			got := pngNames(t, dir)
			if len(got) != len(want) {
				t.Fatalf("%d files remain, want %d", len(got), len(want))
			}
			sort.Strings(want)
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("file %d = %s, want %s", i, got[i], want[i])
				}
			}
		})
	}
}

func TestSaveReportsEvictions(t *testing.T) {
	dir := t.TempDir()
	s := New(Options{Dir: dir, MaxFiles: 2, Clock: steppedClock(time.UnixMilli(1000))})

	first, _ := s.Save([]byte("a"))
	if _, err := s.Save([]byte("b")); err != nil {
		t.Fatal(err)
	}
	third, err := s.Save([]byte("c"))
	if err != nil {
		t.Fatal(err)
	}
	if len(third.Evicted) != 1 || third.Evicted[0] != first.Path {
		t.Errorf("evicted %v, want [%s]", third.Evicted, first.Path)
	}
	if third.Size != 1 {
		t.Errorf("Size = %d", third.Size)
	}
}

func TestSameMillisecondDoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	fixed := time.UnixMilli(1700000000000)
	s := New(Options{Dir: dir, Clock: func() time.Time { return fixed }})

	p1, err := s.Persist([]byte("one"))
	if err != nil {
		t.Fatal(err)
	}
	p2, err := s.Persist([]byte("two"))
	if err != nil {
		t.Fatal(err)
	}
	if p1 == p2 {
		t.Fatalf("both captures written to %s", p1)
	}
	if filepath.Base(p2) != "capture-1700000000000-1.png" {
		t.Errorf("unexpected collision name %s", p2)
	}
	if data, _ := os.ReadFile(p1); string(data) != "one" {
		t.Errorf("first capture overwritten: %q", data)
	}
}

func TestSameMillisecondEvictsInWriteOrder(t *testing.T) {
	dir := t.TempDir()
	fixed := time.UnixMilli(1700000000000)
	s := New(Options{Dir: dir, MaxFiles: 2, Clock: func() time.Time { return fixed }})

	var paths []string
	for _, payload := range []string{"one", "two", "three"} {
		p, err := s.Persist([]byte(payload))
		if err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}

	want := []string{"capture-1700000000000-1.png", "capture-1700000000000-2.png"}
	got := pngNames(t, dir)
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("retained %v, want %v", got, want)
	}
	if _, err := os.Stat(paths[0]); !os.IsNotExist(err) {
		t.Errorf("oldest capture %s should be evicted, stat err = %v", paths[0], err)
	}
}

func TestPersistNeverReturnsEvictedPath(t *testing.T) {
	dir := t.TempDir()
	fixed := time.UnixMilli(1700000000000)
	s := New(Options{Dir: dir, MaxFiles: 1, Clock: func() time.Time { return fixed }})

	for i := 0; i < 3; i++ {
		saved, err := s.Save([]byte{byte(i)})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(saved.Path); err != nil {
			t.Fatalf("save %d returned %s which no longer exists: %v", i, saved.Path, err)
		}
		for _, evicted := range saved.Evicted {
			if evicted == saved.Path {
				t.Fatalf("save %d evicted its own file", i)
			}
		}
	}
	if got := pngNames(t, dir); len(got) != 1 || got[0] != "capture-1700000000000-2.png" {
		t.Errorf("retained %v", got)
	}
}

func TestNameKeyOrdering(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"capture-1700000000000.png", "capture-1700000000000-1.png", true},
		{"capture-1700000000000-1.png", "capture-1700000000000.png", false},
		{"capture-1700000000000-2.png", "capture-1700000000000-10.png", true},
		{"capture-999.png", "capture-1000.png", true},
		{"notes.png", "other.png", true},
	}
	for _, tt := range tests {
		if got := olderName(tt.a, tt.b); got != tt.want {
			t.Errorf("olderName(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestClockBeforeEpoch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "captures")
	s := New(Options{Dir: dir, Clock: func() time.Time { return time.Unix(-10, 0) }})

	_, err := s.Persist([]byte("x"))
	if !errors.Is(err, errs.ErrClockError) {
		t.Fatalf("got %v, want ClockError", err)
	}
	if names := pngNames(t, dir); len(names) != 0 {
		t.Errorf("files written despite clock error: %v", names)
	}
}

func TestUnwritableDirectory(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	s := New(Options{Dir: filepath.Join(blocker, "captures")})

	_, err := s.Persist([]byte("x"))
	if !errors.Is(err, errs.ErrStorageUnavailable) {
		t.Fatalf("got %v, want StorageUnavailable", err)
	}
	if msg := errs.Message(err); !strings.HasPrefix(msg, "Failed to create capture dir: ") {
		t.Errorf("message = %q", msg)
	}
}

func TestEmptyDir(t *testing.T) {
	if _, err := New(Options{}).Persist([]byte("x")); !errors.Is(err, errs.ErrStorageUnavailable) {
		t.Fatalf("got %v", err)
	}
}

func TestPruneIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	base := time.Unix(1700000000, 0)
	for i, name := range []string{"a.png", "b.PNG", "c.png", "notes.txt"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
		mt := base.Add(time.Duration(i) * time.Second)
		if err := os.Chtimes(path, mt, mt); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "old.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	removed := Prune(dir, 1, nil)
	if len(removed) != 2 || filepath.Base(removed[0]) != "a.png" || filepath.Base(removed[1]) != "b.PNG" {
		t.Errorf("removed %v", removed)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Errorf("non-png file touched: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "old.png")); err != nil {
		t.Errorf("directory touched: %v", err)
	}
}

func TestPruneMissingDirectory(t *testing.T) {
	if removed := Prune(filepath.Join(t.TempDir(), "absent"), 10, nil); removed != nil {
		t.Errorf("removed %v", removed)
	}
}

func TestListNewestFirst(t *testing.T) {
	dir := t.TempDir()
	s := New(Options{Dir: dir, Clock: steppedClock(time.UnixMilli(5000))})

	if entries, err := s.List(); err != nil || len(entries) != 0 {
		t.Fatalf("empty store: %v, %v", entries, err)
	}

	for i := 0; i < 3; i++ {
		if _, err := s.Persist([]byte("x")); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 || filepath.Base(entries[0].Path) != "capture-5002.png" {
		t.Errorf("unexpected listing: %+v", entries)
	}
}
