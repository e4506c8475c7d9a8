package ocr

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"

	"jordanella.com/overlay-capture/internal/errs"
)

type fakeEngine struct {
	calls  int
	binary string
	args   []string
	stdin  []byte
	out    string
	err    error
}

func (f *fakeEngine) run(ctx context.Context, binary string, args []string, stdin []byte) ([]byte, error) {
	f.calls++
	f.binary, f.args, f.stdin = binary, args, stdin
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.out), nil
}

func found(string) (string, error) { return "/usr/bin/tesseract", nil }

func missing(string) (string, error) { return "", errors.New("executable file not found in $PATH") }

func TestRecognizeTrimsOutput(t *testing.T) {
	engine := &fakeEngine{out: "\n  Hello, overlay  \n\f"}
	r := NewTesseract(Options{Languages: []string{"eng", " deu "}, LookPath: found, Exec: engine.run})

	text, err := r.Recognize(context.Background(), make([]byte, 8*4*4), 8, 4)
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if text != "Hello, overlay" {
		t.Errorf("got %q", text)
	}
	if engine.binary != "/usr/bin/tesseract" {
		t.Errorf("binary = %s", engine.binary)
	}
	want := []string{"stdin", "stdout", "-l", "eng+deu"}
	if len(engine.args) != len(want) {
		t.Fatalf("args = %v, want %v", engine.args, want)
	}
	for i := range want {
		if engine.args[i] != want[i] {
			t.Fatalf("args = %v, want %v", engine.args, want)
		}
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(engine.stdin))
	if err != nil {
		t.Fatalf("engine input is not a PNG: %v", err)
	}
	if cfg.Width != 8 || cfg.Height != 4 {
		t.Errorf("engine input is %dx%d", cfg.Width, cfg.Height)
	}
}

func TestRegionTooLargeBeforeEngine(t *testing.T) {
	engine := &fakeEngine{out: "never"}
	lookups := 0
	r := NewTesseract(Options{
		LookPath: func(s string) (string, error) { lookups++; return found(s) },
		Exec:     engine.run,
	})

	_, err := r.Recognize(context.Background(), nil, 5000, 5000)
	if !errors.Is(err, errs.ErrRegionTooLarge) {
		t.Fatalf("got %v, want RegionTooLarge", err)
	}
	if engine.calls != 0 || lookups != 0 {
		t.Errorf("engine touched: calls=%d lookups=%d", engine.calls, lookups)
	}
}

func TestDimensionLimitIsInclusive(t *testing.T) {
	engine := &fakeEngine{}
	r := NewTesseract(Options{MaxDimension: 16, LookPath: found, Exec: engine.run})

	if _, err := r.Recognize(context.Background(), make([]byte, 16*1*4), 16, 1); err != nil {
		t.Fatalf("16px edge should be accepted: %v", err)
	}
	if _, err := r.Recognize(context.Background(), make([]byte, 17*4), 1, 17); !errors.Is(err, errs.ErrRegionTooLarge) {
		t.Fatalf("17px edge: got %v", err)
	}
}

func TestMissingBinary(t *testing.T) {
	engine := &fakeEngine{}
	r := NewTesseract(Options{LookPath: missing, Exec: engine.run})

	_, err := r.Recognize(context.Background(), make([]byte, 4), 1, 1)
	if !errors.Is(err, errs.ErrEngineUnavailable) {
		t.Fatalf("got %v, want EngineUnavailable", err)
	}
	if engine.calls != 0 {
		t.Error("engine should not run without a binary")
	}
	if !errors.Is(r.Available(), errs.ErrEngineUnavailable) {
		t.Error("Available should report the missing binary")
	}
}

func TestEngineFailure(t *testing.T) {
	engine := &fakeEngine{err: errors.New("exit status 1: Error opening data file")}
	r := NewTesseract(Options{LookPath: found, Exec: engine.run})

	_, err := r.Recognize(context.Background(), make([]byte, 4), 1, 1)
	if errs.KindOf(err) != errs.KindPlatformResource {
		t.Fatalf("got %v", err)
	}
}

func TestMalformedBuffer(t *testing.T) {
	engine := &fakeEngine{}
	r := NewTesseract(Options{LookPath: found, Exec: engine.run})

	if _, err := r.Recognize(context.Background(), make([]byte, 7), 2, 1); !errors.Is(err, errs.ErrEncodeFailure) {
		t.Fatalf("got %v, want EncodeFailure", err)
	}
	if engine.calls != 0 {
		t.Error("engine should not run on a malformed buffer")
	}
}

func TestDefaults(t *testing.T) {
	r := NewTesseract(Options{})
	if r.MaxDimension() != DefaultMaxDimension {
		t.Errorf("MaxDimension = %d", r.MaxDimension())
	}
	if langs := r.Languages(); len(langs) != 1 || langs[0] != "eng" {
		t.Errorf("Languages = %v", langs)
	}
}

func TestUnsupported(t *testing.T) {
	if _, err := (Unsupported{}).Recognize(context.Background(), nil, 1, 1); !errors.Is(err, errs.ErrUnsupportedPlatform) {
		t.Fatalf("got %v", err)
	}
}
