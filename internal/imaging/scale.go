package imaging

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// MaxImageDimension bounds the longer edge of every persisted capture.
const MaxImageDimension = 1280

// Downscale shrinks img so that its longer edge is at most maxDim, keeping the
// aspect ratio. It returns img itself and a factor of 1.0 when no scaling is
// needed. The returned factor is the exact ratio used, so callers can map
// coordinates back to the capture without re-deriving it from rounded sizes.
func Downscale(img *image.NRGBA, maxDim int) (*image.NRGBA, float64) {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	longest := max(width, height)
	if maxDim <= 0 || longest <= maxDim {
		return img, 1.0
	}

	scale := float64(maxDim) / float64(longest)
	w, h := TargetSize(width, height, scale)

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	// BiLinear is the triangle kernel; x/image/draw widens its support when
	// shrinking so every source pixel contributes.
	draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst, scale
}

// TargetSize applies scale to both edges, rounding to the nearest pixel and
// never returning a zero edge.
func TargetSize(width, height int, scale float64) (int, int) {
	w := int(math.Max(1, math.Round(float64(width)*scale)))
	h := int(math.Max(1, math.Round(float64(height)*scale)))
	return w, h
}
