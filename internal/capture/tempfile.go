package capture

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"jordanella.com/overlay-capture/internal/errs"
	"jordanella.com/overlay-capture/internal/imaging"
	"jordanella.com/overlay-capture/internal/logging"
)

// runFunc runs an external screenshot command to completion.
type runFunc func(ctx context.Context, name string, args ...string) error

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		if len(out) > 0 {
			return fmt.Errorf("%w: %s", err, out)
		}
		return err
	}
	return nil
}

// tempScreenshotPath returns a timestamp-qualified file name in dir.
func tempScreenshotPath(dir string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("ai-copilot-screen-%d.png", now.UnixMilli()))
}

// shotViaTempFile has an external tool write a PNG to path and reads it back.
// The file is removed on every exit path; a failed removal is only logged.
func shotViaTempFile(ctx context.Context, run runFunc, path string, logger *logging.Logger, name string, args ...string) ([]byte, error) {
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.WarnWithContext("failed to remove temporary screenshot", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
		}
	}()

	if err := run(ctx, name, append(args, path)...); err != nil {
		return nil, errs.Wrap(errs.KindPlatformResource, "Failed to run "+name, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindPlatformResource, "Failed to read screenshot", err)
	}
	return data, nil
}

// frameFromPNG decodes an encoded screenshot into a canonical-order frame.
func frameFromPNG(data []byte, source Source) (*Frame, error) {
	img, err := imaging.Decode(data)
	if err != nil {
		return nil, errs.Wrap(errs.KindPlatformResource, "Failed to decode screenshot", err)
	}
	b := img.Bounds()
	frame := &Frame{
		Pixels: img.Pix,
		Order:  imaging.OrderRGBA,
		Region: Region{Width: b.Dx(), Height: b.Dy()},
		Source: source,
	}
	if err := frame.Check(); err != nil {
		return nil, err
	}
	return frame, nil
}
