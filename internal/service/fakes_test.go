package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"jordanella.com/overlay-capture/internal/capture"
	"jordanella.com/overlay-capture/internal/database"
	"jordanella.com/overlay-capture/internal/imaging"
	"jordanella.com/overlay-capture/internal/ocr"
	"jordanella.com/overlay-capture/internal/store"
)

type fakeGate struct {
	enabled atomic.Bool
	calls   atomic.Int32
}

func newGate(enabled bool) *fakeGate {
	g := &fakeGate{}
	g.enabled.Store(enabled)
	return g
}

func (g *fakeGate) Enabled() bool {
	g.calls.Add(1)
	return g.enabled.Load()
}

type fakeProvider struct {
	caps  capture.Capabilities
	frame func() *capture.Frame
	err   error
	block chan struct{}

	windowCalls atomic.Int32
	screenCalls atomic.Int32
}

func (p *fakeProvider) Capabilities() capture.Capabilities { return p.caps }

func (p *fakeProvider) CaptureWindow(ctx context.Context) (*capture.Frame, error) {
	p.windowCalls.Add(1)
	return p.next()
}

func (p *fakeProvider) CaptureScreen(ctx context.Context) (*capture.Frame, error) {
	p.screenCalls.Add(1)
	return p.next()
}

func (p *fakeProvider) next() (*capture.Frame, error) {
	if p.block != nil {
		<-p.block
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.frame(), nil
}

func (p *fakeProvider) calls() int {
	return int(p.windowCalls.Load() + p.screenCalls.Load())
}

// bgraFrame builds a window frame whose every pixel is B=10 G=20 R=30 A=255.
func bgraFrame(region capture.Region, title string) func() *capture.Frame {
	return func() *capture.Frame {
		pix := make([]byte, region.Width*region.Height*imaging.BytesPerPixel)
		for i := 0; i < len(pix); i += 4 {
			pix[i], pix[i+1], pix[i+2], pix[i+3] = 10, 20, 30, 255
		}
		return &capture.Frame{
			Pixels: pix,
			Order:  imaging.OrderBGRA,
			Region: region,
			Title:  title,
			Source: capture.SourceWindow,
		}
	}
}

func rgbaScreenFrame(w, h int) func() *capture.Frame {
	return func() *capture.Frame {
		return &capture.Frame{
			Pixels: make([]byte, w*h*imaging.BytesPerPixel),
			Order:  imaging.OrderRGBA,
			Region: capture.Region{Width: w, Height: h},
			Source: capture.SourceScreen,
		}
	}
}

type fakeEngine struct {
	calls atomic.Int32
	out   string
}

func (e *fakeEngine) run(ctx context.Context, binary string, args []string, stdin []byte) ([]byte, error) {
	e.calls.Add(1)
	return []byte(e.out), nil
}

func newRecognizer(e *fakeEngine, maxDim int) ocr.Recognizer {
	return ocr.NewTesseract(ocr.Options{
		MaxDimension: maxDim,
		LookPath:     func(string) (string, error) { return "/usr/bin/tesseract", nil },
		Exec:         e.run,
	})
}

type journalEntry struct {
	requestID string
	kind      string
	status    string
	errorKind string
	outcome   database.CaptureOutcome
}

type fakeJournal struct {
	mu      sync.Mutex
	entries map[int64]*journalEntry
	evicted []string
	nextID  int64
}

func newJournal() *fakeJournal {
	return &fakeJournal{entries: make(map[int64]*journalEntry)}
}

func (j *fakeJournal) StartCapture(requestID, kind string) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.nextID++
	j.entries[j.nextID] = &journalEntry{requestID: requestID, kind: kind, status: database.StatusRunning}
	return j.nextID, nil
}

func (j *fakeJournal) CompleteCapture(id int64, outcome database.CaptureOutcome) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	e, ok := j.entries[id]
	if !ok {
		return fmt.Errorf("unknown capture %d", id)
	}
	e.status, e.outcome = database.StatusCompleted, outcome
	return nil
}

func (j *fakeJournal) FailCapture(id int64, errorKind, errorMessage string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	e, ok := j.entries[id]
	if !ok {
		return fmt.Errorf("unknown capture %d", id)
	}
	e.status, e.errorKind = database.StatusFailed, errorKind
	return nil
}

func (j *fakeJournal) MarkEvicted(paths []string) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.evicted = append(j.evicted, paths...)
	return int64(len(paths)), nil
}

func (j *fakeJournal) only(t *testing.T) *journalEntry {
	t.Helper()
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.entries) != 1 {
		t.Fatalf("journal has %d entries, want 1", len(j.entries))
	}
	for _, e := range j.entries {
		return e
	}
	return nil
}

func steppedClock() func() time.Time {
	var mu sync.Mutex
	next := time.UnixMilli(1700000000000)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(time.Millisecond)
		return now
	}
}

func newStore(dir string, maxFiles int) *store.Store {
	return store.New(store.Options{Dir: dir, MaxFiles: maxFiles, Clock: steppedClock()})
}
