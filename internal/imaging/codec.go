// Package imaging normalizes raw captured pixel buffers, bounds their size and
// encodes them as PNG.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"jordanella.com/overlay-capture/internal/errs"
)

// MIMETypePNG is the media type of every encoded artifact.
const MIMETypePNG = "image/png"

// BytesPerPixel is fixed for every raw buffer this package accepts.
const BytesPerPixel = 4

// ChannelOrder is the byte layout of a 4-byte pixel in a raw buffer.
type ChannelOrder int

const (
	// OrderRGBA is the canonical layout (image.NRGBA).
	OrderRGBA ChannelOrder = iota
	// OrderBGRA is produced by Windows GDI DIB sections.
	OrderBGRA
)

func (o ChannelOrder) String() string {
	switch o {
	case OrderRGBA:
		return "RGBA"
	case OrderBGRA:
		return "BGRA"
	default:
		return fmt.Sprintf("ChannelOrder(%d)", int(o))
	}
}

// Artifact is an encoded image ready to be persisted or returned.
type Artifact struct {
	Data        []byte
	MIMEType    string
	Width       int
	Height      int
	ScaleFactor float64
}

// ToCanonical copies a raw pixel buffer into an NRGBA image. The input buffer
// is never modified. BGRA pixels have their blue and red bytes swapped; green
// and alpha are copied as they are.
func ToCanonical(pixels []byte, width, height int, order ChannelOrder) (*image.NRGBA, error) {
	if err := checkBuffer(pixels, width, height); err != nil {
		return nil, err
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	switch order {
	case OrderRGBA:
		copy(img.Pix, pixels)
	case OrderBGRA:
		swapRedBlue(img.Pix, pixels)
	default:
		return nil, errs.Newf(errs.KindEncodeFailure, "unknown channel order %v", order)
	}
	return img, nil
}

// FromCanonical is the inverse of ToCanonical: it returns img's pixels laid
// out in the requested order.
func FromCanonical(img *image.NRGBA, order ChannelOrder) []byte {
	out := make([]byte, len(img.Pix))
	if order == OrderBGRA {
		swapRedBlue(out, img.Pix)
		return out
	}
	copy(out, img.Pix)
	return out
}

// swapRedBlue writes src into dst with bytes 0 and 2 of each pixel exchanged.
func swapRedBlue(dst, src []byte) {
	for i := 0; i+3 < len(src); i += BytesPerPixel {
		dst[i] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i]
		dst[i+3] = src[i+3]
	}
}

func checkBuffer(pixels []byte, width, height int) error {
	if width <= 0 || height <= 0 {
		return errs.Newf(errs.KindEncodeFailure, "invalid image dimensions %dx%d", width, height)
	}
	if len(pixels)%BytesPerPixel != 0 {
		return errs.Newf(errs.KindEncodeFailure, "buffer length %d is not a whole number of pixels", len(pixels))
	}
	if want := width * height * BytesPerPixel; len(pixels) != want {
		return errs.Newf(errs.KindEncodeFailure, "buffer length %d does not match %dx%d (want %d)", len(pixels), width, height, want)
	}
	return nil
}

// Encode writes img as PNG. Malformed images are rejected rather than padded
// or truncated.
func Encode(img *image.NRGBA) ([]byte, error) {
	if img == nil {
		return nil, errs.New(errs.KindEncodeFailure, "nil image")
	}
	b := img.Bounds()
	if img.Stride != b.Dx()*BytesPerPixel {
		return nil, errs.Newf(errs.KindEncodeFailure, "unexpected stride %d for width %d", img.Stride, b.Dx())
	}
	if err := checkBuffer(img.Pix, b.Dx(), b.Dy()); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errs.Wrap(errs.KindEncodeFailure, "PNG encode failed", err)
	}
	return buf.Bytes(), nil
}

// Decode reads a PNG (or any registered format) into a canonical image
// anchored at the origin.
func Decode(data []byte) (*image.NRGBA, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errs.Wrap(errs.KindEncodeFailure, "PNG load failed", err)
	}
	if n, ok := src.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n, nil
	}

	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst, nil
}
