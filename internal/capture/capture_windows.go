//go:build windows

package capture

import (
	"context"
	"unsafe"

	"golang.org/x/sys/windows"

	"jordanella.com/overlay-capture/internal/errs"
	"jordanella.com/overlay-capture/internal/imaging"
	"jordanella.com/overlay-capture/internal/logging"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	gdi32  = windows.NewLazySystemDLL("gdi32.dll")

	procGetForegroundWindow    = user32.NewProc("GetForegroundWindow")
	procGetWindowRect          = user32.NewProc("GetWindowRect")
	procGetWindowTextLengthW   = user32.NewProc("GetWindowTextLengthW")
	procGetWindowTextW         = user32.NewProc("GetWindowTextW")
	procGetSystemMetrics       = user32.NewProc("GetSystemMetrics")
	procGetDC                  = user32.NewProc("GetDC")
	procReleaseDC              = user32.NewProc("ReleaseDC")
	procCreateCompatibleDC     = gdi32.NewProc("CreateCompatibleDC")
	procCreateCompatibleBitmap = gdi32.NewProc("CreateCompatibleBitmap")
	procSelectObject           = gdi32.NewProc("SelectObject")
	procBitBlt                 = gdi32.NewProc("BitBlt")
	procDeleteDC               = gdi32.NewProc("DeleteDC")
	procDeleteObject           = gdi32.NewProc("DeleteObject")
	procGetDIBits              = gdi32.NewProc("GetDIBits")
)

const (
	srccopy      = 0x00CC0020
	captureBlt   = 0x40000000
	biRGB        = 0
	dibRGBColors = 0

	smXVirtualScreen  = 76
	smYVirtualScreen  = 77
	smCXVirtualScreen = 78
	smCYVirtualScreen = 79
)

type rect struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	Colors [1]uint32
}

// gdiProvider captures through GDI. Every call acquires its own device
// contexts and bitmap, so concurrent calls do not share state.
type gdiProvider struct {
	logger *logging.Logger
}

func newPlatformProvider(logger *logging.Logger) Provider {
	return &gdiProvider{logger: logger}
}

func (p *gdiProvider) Capabilities() Capabilities {
	return Capabilities{Window: true, Screen: true}
}

// CaptureWindow captures the foreground window's bounding rectangle.
func (p *gdiProvider) CaptureWindow(ctx context.Context) (*Frame, error) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return nil, errs.ErrNoActiveWindow
	}

	var r rect
	ret, _, err := procGetWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&r)))
	if ret == 0 {
		return nil, errs.Wrap(errs.KindPlatformResource, "Failed to read window bounds", err)
	}

	region := RegionFromBounds(int(r.Left), int(r.Top), int(r.Right), int(r.Bottom))
	if err := region.Validate(); err != nil {
		return nil, err
	}

	pixels, err := grabRegion(region)
	if err != nil {
		return nil, err
	}

	return &Frame{
		Pixels: pixels,
		Order:  imaging.OrderBGRA,
		Region: region,
		Title:  windowTitle(hwnd),
		Source: SourceWindow,
	}, nil
}

// CaptureScreen captures the virtual screen spanning every monitor.
func (p *gdiProvider) CaptureScreen(ctx context.Context) (*Frame, error) {
	region := Region{
		X:      systemMetric(smXVirtualScreen),
		Y:      systemMetric(smYVirtualScreen),
		Width:  systemMetric(smCXVirtualScreen),
		Height: systemMetric(smCYVirtualScreen),
	}
	if err := region.Validate(); err != nil {
		return nil, err
	}

	pixels, err := grabRegion(region)
	if err != nil {
		return nil, err
	}

	return &Frame{
		Pixels: pixels,
		Order:  imaging.OrderBGRA,
		Region: region,
		Source: SourceScreen,
	}, nil
}

func systemMetric(index int) int {
	v, _, _ := procGetSystemMetrics.Call(uintptr(index))
	return int(int32(v))
}

func windowTitle(hwnd uintptr) string {
	n, _, _ := procGetWindowTextLengthW.Call(hwnd)
	if n == 0 {
		return ""
	}
	buf := make([]uint16, int(n)+1)
	ret, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if ret == 0 {
		return ""
	}
	return normalizeTitle(windows.UTF16ToString(buf[:ret]))
}

// grabRegion blits region from the screen DC into an off-screen bitmap of
// exactly the same size and reads it back as top-down 32bpp BGRA.
func grabRegion(region Region) ([]byte, error) {
	hdcScreen, _, err := procGetDC.Call(0)
	if hdcScreen == 0 {
		return nil, errs.Wrap(errs.KindPlatformResource, "Failed to get screen DC", err)
	}
	defer procReleaseDC.Call(0, hdcScreen)

	hdcMem, _, err := procCreateCompatibleDC.Call(hdcScreen)
	if hdcMem == 0 {
		return nil, errs.Wrap(errs.KindPlatformResource, "Failed to create compatible DC", err)
	}
	defer procDeleteDC.Call(hdcMem)

	hBitmap, _, err := procCreateCompatibleBitmap.Call(hdcScreen, uintptr(region.Width), uintptr(region.Height))
	if hBitmap == 0 {
		return nil, errs.Wrap(errs.KindPlatformResource, "Failed to create compatible bitmap", err)
	}
	defer procDeleteObject.Call(hBitmap)

	old, _, _ := procSelectObject.Call(hdcMem, hBitmap)
	// The bitmap must be deselected before it can be deleted.
	defer procSelectObject.Call(hdcMem, old)

	ret, _, err := procBitBlt.Call(
		hdcMem,
		0, 0,
		uintptr(region.Width), uintptr(region.Height),
		hdcScreen,
		uintptr(region.X), uintptr(region.Y),
		srccopy|captureBlt,
	)
	if ret == 0 {
		return nil, errs.Wrap(errs.KindPlatformResource, "BitBlt failed", err)
	}

	var bi bitmapInfo
	bi.Header.Size = uint32(unsafe.Sizeof(bi.Header))
	bi.Header.Width = int32(region.Width)
	bi.Header.Height = -int32(region.Height) // top-down rows
	bi.Header.Planes = 1
	bi.Header.BitCount = 32
	bi.Header.Compression = biRGB

	buf := make([]byte, region.Width*region.Height*imaging.BytesPerPixel)
	ret, _, err = procGetDIBits.Call(
		hdcMem,
		hBitmap,
		0,
		uintptr(region.Height),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&bi)),
		dibRGBColors,
	)
	if ret == 0 {
		return nil, errs.Wrap(errs.KindPlatformResource, "GetDIBits failed", err)
	}
	if int(ret) != region.Height {
		return nil, errs.Newf(errs.KindPlatformResource, "GetDIBits copied %d of %d scan lines.", ret, region.Height)
	}
	return buf, nil
}
