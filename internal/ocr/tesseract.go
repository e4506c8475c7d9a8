package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"jordanella.com/overlay-capture/internal/errs"
	"jordanella.com/overlay-capture/internal/imaging"
	"jordanella.com/overlay-capture/internal/logging"
)

// ExecFunc runs binary with args, feeding stdin, and returns its stdout.
type ExecFunc func(ctx context.Context, binary string, args []string, stdin []byte) ([]byte, error)

// Options configure the Tesseract recognizer.
type Options struct {
	Binary       string
	Languages    []string
	MaxDimension int
	LookPath     func(string) (string, error)
	Exec         ExecFunc
	Logger       *logging.Logger
}

// Tesseract recognizes text by piping a PNG through the tesseract CLI.
type Tesseract struct {
	binary    string
	languages []string
	maxDim    int
	lookPath  func(string) (string, error)
	exec      ExecFunc
	logger    *logging.Logger
}

// NewTesseract constructs a recognizer. The binary is resolved lazily on each
// call so installing tesseract does not require a restart.
func NewTesseract(opts Options) *Tesseract {
	binary := strings.TrimSpace(opts.Binary)
	if binary == "" {
		binary = "tesseract"
	}
	languages := make([]string, 0, len(opts.Languages))
	for _, lang := range opts.Languages {
		if trimmed := strings.TrimSpace(lang); trimmed != "" {
			languages = append(languages, trimmed)
		}
	}
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	maxDim := opts.MaxDimension
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	lookPath := opts.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	run := opts.Exec
	if run == nil {
		run = execTesseract
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Tesseract{
		binary:    binary,
		languages: languages,
		maxDim:    maxDim,
		lookPath:  lookPath,
		exec:      run,
		logger:    logger.Named("ocr"),
	}
}

func (t *Tesseract) MaxDimension() int {
	return t.maxDim
}

// Languages returns the tesseract language codes in use.
func (t *Tesseract) Languages() []string {
	return append([]string(nil), t.languages...)
}

// Available reports whether the engine binary can be found.
func (t *Tesseract) Available() error {
	if _, err := t.lookPath(t.binary); err != nil {
		return errs.Wrap(errs.KindEngineUnavailable, "Text recognition engine is unavailable. Install Tesseract OCR and expose it on PATH", err)
	}
	return nil
}

func (t *Tesseract) Recognize(ctx context.Context, pixels []byte, width, height int) (string, error) {
	if err := checkDimensions(width, height, t.maxDim); err != nil {
		return "", err
	}

	path, err := t.lookPath(t.binary)
	if err != nil {
		return "", errs.Wrap(errs.KindEngineUnavailable, "Text recognition engine is unavailable. Install Tesseract OCR and expose it on PATH", err)
	}

	img, err := imaging.ToCanonical(pixels, width, height, imaging.OrderRGBA)
	if err != nil {
		return "", err
	}
	input, err := imaging.Encode(img)
	if err != nil {
		return "", err
	}

	args := []string{"stdin", "stdout", "-l", strings.Join(t.languages, "+")}
	t.logger.DebugWithContext("running tesseract", map[string]interface{}{
		"binary": path,
		"width":  width,
		"height": height,
	})
	out, err := t.exec(ctx, path, args, input)
	if err != nil {
		return "", errs.Wrap(errs.KindPlatformResource, "Text recognition failed", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func execTesseract(ctx context.Context, binary string, args []string, stdin []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && stderr.Len() > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
