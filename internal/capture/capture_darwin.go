//go:build darwin

package capture

import (
	"context"
	"os"
	"time"

	"jordanella.com/overlay-capture/internal/errs"
	"jordanella.com/overlay-capture/internal/logging"
)

// screencaptureProvider shells out to the system screencapture tool. There is
// no foreground-window path on macOS.
type screencaptureProvider struct {
	logger *logging.Logger
	run    runFunc
	now    func() time.Time
	tmpDir string
}

func newPlatformProvider(logger *logging.Logger) Provider {
	return &screencaptureProvider{
		logger: logger,
		run:    runCommand,
		now:    time.Now,
		tmpDir: os.TempDir(),
	}
}

func (p *screencaptureProvider) Capabilities() Capabilities {
	return Capabilities{Screen: true}
}

func (p *screencaptureProvider) CaptureWindow(context.Context) (*Frame, error) {
	return nil, errs.New(errs.KindUnsupportedPlatform, "Window capture is not implemented for macOS yet.")
}

// CaptureScreen runs `screencapture -x -t png` into a temporary file.
func (p *screencaptureProvider) CaptureScreen(ctx context.Context) (*Frame, error) {
	path := tempScreenshotPath(p.tmpDir, p.now())
	data, err := shotViaTempFile(ctx, p.run, path, p.logger, "screencapture", "-x", "-t", "png")
	if err != nil {
		return nil, err
	}
	return frameFromPNG(data, SourceScreen)
}
