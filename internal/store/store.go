// Package store persists encoded captures under the cache directory and keeps
// only the most recent ones.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"jordanella.com/overlay-capture/internal/errs"
	"jordanella.com/overlay-capture/internal/logging"
)

// MaxCaptureFiles is the retention cap applied after every write.
const MaxCaptureFiles = 10

const (
	filePrefix = "capture-"
	fileExt    = ".png"

	// maxNameAttempts bounds the suffix search when two captures share a
	// millisecond.
	maxNameAttempts = 100
)

// Options configure a Store.
type Options struct {
	Dir      string
	MaxFiles int
	Clock    func() time.Time
	Logger   *logging.Logger
}

// Store writes capture artifacts and evicts the oldest beyond MaxFiles.
// Concurrent Persist calls are safe; eviction between them is best-effort.
type Store struct {
	dir      string
	maxFiles int
	clock    func() time.Time
	logger   *logging.Logger
}

// Saved describes one completed persist.
type Saved struct {
	Path    string
	Size    int
	Evicted []string
}

// Entry is one artifact file on disk.
type Entry struct {
	Path    string
	Size    int64
	ModTime time.Time
}

func New(opts Options) *Store {
	maxFiles := opts.MaxFiles
	if maxFiles <= 0 {
		maxFiles = MaxCaptureFiles
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Store{
		dir:      opts.Dir,
		maxFiles: maxFiles,
		clock:    clock,
		logger:   logger.Named("store"),
	}
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) MaxFiles() int {
	return s.maxFiles
}

// Persist writes data to a new artifact file and applies the retention cap.
func (s *Store) Persist(data []byte) (string, error) {
	saved, err := s.Save(data)
	if err != nil {
		return "", err
	}
	return saved.Path, nil
}

// Save is Persist that also reports which files the retention sweep removed.
func (s *Store) Save(data []byte) (Saved, error) {
	if strings.TrimSpace(s.dir) == "" {
		return Saved{}, errs.New(errs.KindStorageUnavailable, "Failed to resolve cache dir.")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Saved{}, errs.Wrap(errs.KindStorageUnavailable, "Failed to create capture dir", err)
	}

	now := s.clock()
	if now.Before(time.Unix(0, 0)) {
		return Saved{}, errs.Newf(errs.KindClockError, "Failed to generate timestamp: clock reads %s.", now.Format(time.RFC3339))
	}

	f, path, err := s.create(now.UnixMilli())
	if err != nil {
		return Saved{}, err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		s.discard(path)
		return Saved{}, errs.Wrap(errs.KindStorageUnavailable, "Failed to write capture", err)
	}
	if err := f.Close(); err != nil {
		s.discard(path)
		return Saved{}, errs.Wrap(errs.KindStorageUnavailable, "Failed to write capture", err)
	}

	// mtime mirrors the timestamp in the name so eviction follows capture
	// order on filesystems with coarse timestamps.
	if err := os.Chtimes(path, now, now); err != nil {
		s.logger.DebugWithContext("failed to stamp capture mtime", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
	}

	s.logger.DebugWithContext("capture persisted", map[string]interface{}{
		"path":  path,
		"bytes": len(data),
	})

	return Saved{
		Path:    path,
		Size:    len(data),
		Evicted: prune(s.dir, s.maxFiles, path, s.logger),
	}, nil
}

// create opens a fresh file for the given timestamp, never reusing an
// existing name. Suffixes continue past the highest one on disk for ms so a
// name freed by eviction is not handed to a newer capture.
func (s *Store) create(ms int64) (*os.File, string, error) {
	first := s.nextSeq(ms)
	for attempt := first; attempt < first+maxNameAttempts; attempt++ {
		name := fmt.Sprintf("%s%d%s", filePrefix, ms, fileExt)
		if attempt > 0 {
			name = fmt.Sprintf("%s%d-%d%s", filePrefix, ms, attempt, fileExt)
		}
		path := filepath.Join(s.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", errs.Wrap(errs.KindStorageUnavailable, "Failed to write capture", err)
		}
	}
	return nil, "", errs.Newf(errs.KindStorageUnavailable, "Failed to write capture: no free file name for timestamp %d.", ms)
}

// nextSeq returns the first suffix to try for ms: 0 when no capture with that
// timestamp exists, otherwise one past the highest suffix seen.
func (s *Store) nextSeq(ms int64) int {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0
	}
	next := 0
	for _, de := range dirEntries {
		fms, seq, ok := nameKey(de.Name())
		if ok && fms == ms && seq+1 > next {
			next = seq + 1
		}
	}
	return next
}

func (s *Store) discard(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.WarnWithContext("failed to remove partial capture", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
	}
}

// Prune applies the retention cap to the store's directory.
func (s *Store) Prune() []string {
	return Prune(s.dir, s.maxFiles, s.logger)
}

// List returns the artifacts currently on disk, newest first.
func (s *Store) List() ([]Entry, error) {
	entries, err := listArtifacts(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.KindStorageUnavailable, "Failed to read capture dir", err)
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// Prune deletes the oldest .png files in dir until at most keep remain and
// returns the paths it removed. Failures are logged and skipped.
func Prune(dir string, keep int, logger *logging.Logger) []string {
	return prune(dir, keep, "", logger)
}

// prune is Prune that never evicts the file at protect.
func prune(dir string, keep int, protect string, logger *logging.Logger) []string {
	if logger == nil {
		logger = logging.Discard()
	}
	if keep < 0 {
		keep = 0
	}

	entries, err := listArtifacts(dir)
	if err != nil {
		logger.WarnWithContext("failed to list captures for pruning", map[string]interface{}{
			"dir":   dir,
			"error": err.Error(),
		})
		return nil
	}
	excess := len(entries) - keep
	if excess <= 0 {
		return nil
	}

	var removed []string
	for _, e := range entries {
		if excess == 0 {
			break
		}
		if protect != "" && e.Path == protect {
			continue
		}
		excess--
		if err := os.Remove(e.Path); err != nil {
			logger.WarnWithContext("failed to evict capture", map[string]interface{}{
				"path":  e.Path,
				"error": err.Error(),
			})
			continue
		}
		removed = append(removed, e.Path)
	}
	return removed
}

// nameKey parses capture-<ms>.png and capture-<ms>-<n>.png into their write
// order. ok is false for any other name.
func nameKey(name string) (ms int64, seq int, ok bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.EqualFold(filepath.Ext(name), fileExt) {
		return 0, 0, false
	}
	stem := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), filepath.Ext(name))
	msPart, seqPart, hasSeq := strings.Cut(stem, "-")
	ms, err := strconv.ParseInt(msPart, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	if hasSeq {
		if seq, err = strconv.Atoi(seqPart); err != nil || seq <= 0 {
			return 0, 0, false
		}
	}
	return ms, seq, true
}

// olderName orders two names that share an mtime: capture names by
// (ms, suffix), anything else by name.
func olderName(a, b string) bool {
	ams, aseq, aok := nameKey(a)
	bms, bseq, bok := nameKey(b)
	if aok && bok {
		if ams != bms {
			return ams < bms
		}
		if aseq != bseq {
			return aseq < bseq
		}
	}
	return a < b
}

// listArtifacts returns dir's .png files ordered oldest first by mtime, then
// by write order encoded in the name.
func listArtifacts(dir string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.Type().IsRegular() || !strings.EqualFold(filepath.Ext(de.Name()), fileExt) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		entries = append(entries, Entry{
			Path:    filepath.Join(dir, de.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].ModTime.Equal(entries[j].ModTime) {
			return entries[i].ModTime.Before(entries[j].ModTime)
		}
		return olderName(filepath.Base(entries[i].Path), filepath.Base(entries[j].Path))
	})
	return entries, nil
}
