// Package capture acquires raw pixels of the active window or the whole screen
// from the host operating system.
//
// Exactly one Provider implementation is compiled in per GOOS. Providers
// return raw frames in their native channel order; normalization happens in
// the imaging package.
package capture

import (
	"context"
	"strings"

	"jordanella.com/overlay-capture/internal/errs"
	"jordanella.com/overlay-capture/internal/imaging"
	"jordanella.com/overlay-capture/internal/logging"
)

// Source identifies what a frame was captured from.
type Source string

const (
	SourceWindow Source = "window"
	SourceScreen Source = "screen"
)

// Frame is a raw capture: pixels in Order, sized exactly to Region.
type Frame struct {
	Pixels []byte
	Order  imaging.ChannelOrder
	Region Region
	// Title is the window title, empty when unknown or blank.
	Title  string
	Source Source
}

// Check verifies the pixel buffer matches the region.
func (f *Frame) Check() error {
	if err := f.Region.Validate(); err != nil {
		return err
	}
	if want := f.Region.Width * f.Region.Height * imaging.BytesPerPixel; len(f.Pixels) != want {
		return errs.Newf(errs.KindPlatformResource, "pixel buffer holds %d bytes, want %d", len(f.Pixels), want)
	}
	return nil
}

// Capabilities lists which capture variants a provider implements.
type Capabilities struct {
	Window bool
	Screen bool
}

// Provider captures frames from the host OS. Calls block until the platform
// primitive returns and are safe to issue concurrently.
type Provider interface {
	CaptureWindow(ctx context.Context) (*Frame, error)
	CaptureScreen(ctx context.Context) (*Frame, error)
	Capabilities() Capabilities
}

// Default returns the provider for the running OS.
func Default(logger *logging.Logger) Provider {
	if logger == nil {
		logger = logging.Discard()
	}
	return newPlatformProvider(logger.Named("capture"))
}

// normalizeTitle maps blank titles to the empty string and returns any
// other title unchanged.
func normalizeTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return ""
	}
	return title
}

// Unsupported reports UnsupportedPlatform for every capability.
type Unsupported struct{}

func (Unsupported) CaptureWindow(context.Context) (*Frame, error) {
	return nil, errs.ErrUnsupportedPlatform
}

func (Unsupported) CaptureScreen(context.Context) (*Frame, error) {
	return nil, errs.ErrUnsupportedPlatform
}

func (Unsupported) Capabilities() Capabilities {
	return Capabilities{}
}
