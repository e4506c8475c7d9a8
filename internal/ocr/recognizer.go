// Package ocr extracts text from captured frames with an on-device
// recognition engine.
package ocr

import (
	"context"

	"jordanella.com/overlay-capture/internal/errs"
)

// DefaultMaxDimension is the largest edge, in pixels, handed to an engine.
const DefaultMaxDimension = 4096

// Recognizer runs text recognition over a canonical RGBA pixel buffer.
type Recognizer interface {
	// Recognize returns the recognized text trimmed of surrounding
	// whitespace.
	Recognize(ctx context.Context, pixels []byte, width, height int) (string, error)
	MaxDimension() int
}

// checkDimensions rejects frames the engine cannot accept.
func checkDimensions(width, height, limit int) error {
	if width > limit || height > limit {
		return errs.Newf(errs.KindRegionTooLarge,
			"Capture region %dx%d exceeds the text recognition limit of %d pixels.", width, height, limit)
	}
	return nil
}

// Unsupported is used where no recognition engine exists.
type Unsupported struct{}

func (Unsupported) Recognize(context.Context, []byte, int, int) (string, error) {
	return "", errs.New(errs.KindUnsupportedPlatform, "Text recognition is not implemented for this OS yet.")
}

func (Unsupported) MaxDimension() int { return 0 }
