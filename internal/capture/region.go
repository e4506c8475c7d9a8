package capture

import "jordanella.com/overlay-capture/internal/errs"

// Region is a screen-space rectangle. X and Y may be negative on
// multi-monitor layouts.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

// RegionFromBounds converts edge coordinates into a region, clamping inverted
// edges to a zero extent.
func RegionFromBounds(left, top, right, bottom int) Region {
	return Region{
		X:      left,
		Y:      top,
		Width:  max(0, right-left),
		Height: max(0, bottom-top),
	}
}

// Validate rejects zero-area regions.
func (r Region) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return errs.Newf(errs.KindEmptyRegion, "Capture region is empty (%dx%d).", r.Width, r.Height)
	}
	return nil
}

// Empty reports whether r covers no pixels.
func (r Region) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// packRows copies height rows of width pixels out of a strided buffer.
func packRows(pix []byte, stride, width, height int) []byte {
	rowLen := width * 4
	out := make([]byte, rowLen*height)
	for y := 0; y < height; y++ {
		start := y * stride
		if start+rowLen > len(pix) {
			break
		}
		copy(out[y*rowLen:], pix[start:start+rowLen])
	}
	return out
}
