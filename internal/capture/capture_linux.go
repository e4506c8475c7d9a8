//go:build linux

package capture

import (
	"context"

	"github.com/kbinani/screenshot"

	"jordanella.com/overlay-capture/internal/errs"
	"jordanella.com/overlay-capture/internal/imaging"
	"jordanella.com/overlay-capture/internal/logging"
)

// x11Provider captures the primary display through X11.
type x11Provider struct {
	logger *logging.Logger
}

func newPlatformProvider(logger *logging.Logger) Provider {
	return &x11Provider{logger: logger}
}

func (p *x11Provider) Capabilities() Capabilities {
	return Capabilities{Screen: true}
}

func (p *x11Provider) CaptureWindow(context.Context) (*Frame, error) {
	return nil, errs.New(errs.KindUnsupportedPlatform, "Window capture is not implemented for Linux yet.")
}

func (p *x11Provider) CaptureScreen(ctx context.Context) (*Frame, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return nil, errs.New(errs.KindPlatformResource, "No active display found.")
	}
	bounds := screenshot.GetDisplayBounds(0)
	region := Region{X: bounds.Min.X, Y: bounds.Min.Y, Width: bounds.Dx(), Height: bounds.Dy()}
	if err := region.Validate(); err != nil {
		return nil, err
	}

	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, errs.Wrap(errs.KindPlatformResource, "Screen capture failed", err)
	}
	p.logger.DebugWithContext("captured display", map[string]interface{}{
		"width":  region.Width,
		"height": region.Height,
	})

	pixels := img.Pix
	if img.Stride != region.Width*imaging.BytesPerPixel || img.Rect.Dx() != region.Width || img.Rect.Dy() != region.Height {
		pixels = packRows(img.Pix, img.Stride, region.Width, region.Height)
	}

	frame := &Frame{
		Pixels: pixels,
		Order:  imaging.OrderRGBA,
		Region: region,
		Source: SourceScreen,
	}
	if err := frame.Check(); err != nil {
		return nil, err
	}
	return frame, nil
}
