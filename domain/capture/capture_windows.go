//go:build windows

package capture

// Windows screen capture using per-frame GDI resources. Each grab creates a
// temporary DIB, copies the source into it (BitBlt from the screen DC or
// PrintWindow from a window), converts BGRA to RGBA into a pooled
// *image.RGBA and frees the GDI objects.

import (
	"context"
	"fmt"
	"image"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Win32 constants
const (
	srccopy             = 0x00CC0020
	captureblt          = 0x40000000
	dibRGBColors        = 0
	biRgb               = 0
	pwRenderFullContent = 0x00000002

	smXVirtualScreen  = 76
	smYVirtualScreen  = 77
	smCXVirtualScreen = 78
	smCYVirtualScreen = 79
)

// Win32 DLL procs (lazy loaded)
var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	gdi32                  = windows.NewLazySystemDLL("gdi32.dll")
	procGetDC              = user32.NewProc("GetDC")
	procGetWindowDC        = user32.NewProc("GetWindowDC")
	procReleaseDC          = user32.NewProc("ReleaseDC")
	procGetWindowRect      = user32.NewProc("GetWindowRect")
	procPrintWindow        = user32.NewProc("PrintWindow")
	procIsWindow           = user32.NewProc("IsWindow")
	procGetSystemMetrics   = user32.NewProc("GetSystemMetrics")
	procCreateCompatibleDC = gdi32.NewProc("CreateCompatibleDC")
	procDeleteDC           = gdi32.NewProc("DeleteDC")
	procSelectObject       = gdi32.NewProc("SelectObject")
	procBitBlt             = gdi32.NewProc("BitBlt")
	procCreateDIBSection   = gdi32.NewProc("CreateDIBSection")
	procDeleteObject       = gdi32.NewProc("DeleteObject")
)

// BITMAPINFO structures (Win32 layout).
type bitmapInfoHeader struct {
	BiSize          uint32
	BiWidth         int32
	BiHeight        int32
	BiPlanes        uint16
	BiBitCount      uint16
	BiCompression   uint32
	BiSizeImage     uint32
	BiXPelsPerMeter int32
	BiYPelsPerMeter int32
	BiClrUsed       uint32
	BiClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	_      [4]byte // one RGBQUAD placeholder (unused for 32-bit)
}

type rect32 struct {
	Left, Top, Right, Bottom int32
}

// gdiGrabber copies screen pixels with BitBlt from the desktop DC.
type gdiGrabber struct{}

func newGDIGrabber() (Grabber, error) { return gdiGrabber{}, nil }

func (gdiGrabber) Name() string { return BackendGDI }

// virtualScreen returns the bounding rectangle of all monitors.
func virtualScreen() image.Rectangle {
	metric := func(i uintptr) int {
		v, _, _ := procGetSystemMetrics.Call(i)
		return int(int32(v))
	}
	x, y := metric(smXVirtualScreen), metric(smYVirtualScreen)
	return image.Rect(x, y, x+metric(smCXVirtualScreen), y+metric(smCYVirtualScreen))
}

// Grab reads r from the desktop. Parts of r beyond the virtual screen come
// back black; a rect entirely off screen is ErrEmptyRect.
func (gdiGrabber) Grab(_ context.Context, r image.Rectangle) (*image.RGBA, error) {
	if _, err := clip(r, virtualScreen(), "screen"); err != nil {
		return nil, err
	}
	screenDC, _, err := procGetDC.Call(0)
	if screenDC == 0 {
		return nil, fmt.Errorf("capture: GetDC failed: %w", err)
	}
	defer procReleaseDC.Call(0, screenDC)

	return withDIB(screenDC, r.Dx(), r.Dy(), func(memDC uintptr) error {
		ok, _, err := procBitBlt.Call(memDC, 0, 0, uintptr(r.Dx()), uintptr(r.Dy()), screenDC, uintptr(r.Min.X), uintptr(r.Min.Y), srccopy|captureblt)
		if ok == 0 {
			return fmt.Errorf("capture: BitBlt failed x=%d y=%d w=%d h=%d: %w", r.Min.X, r.Min.Y, r.Dx(), r.Dy(), err)
		}
		return nil
	})
}

// windowGrabber renders a single window with PrintWindow, which also works
// for windows covered by others. The requested rectangle is in screen
// coordinates and is cropped out of the rendered window.
type windowGrabber struct {
	hwnd uintptr
}

func newWindowGrabber(hwnd uintptr) (Grabber, error) {
	if hwnd == 0 {
		return nil, fmt.Errorf("capture: window backend requires a window handle")
	}
	return &windowGrabber{hwnd: hwnd}, nil
}

func (*windowGrabber) Name() string { return BackendWindow }

func (g *windowGrabber) Grab(_ context.Context, r image.Rectangle) (*image.RGBA, error) {
	if r.Empty() {
		return nil, ErrEmptyRect
	}
	if ok, _, _ := procIsWindow.Call(g.hwnd); ok == 0 {
		return nil, fmt.Errorf("capture: window %#x is gone", g.hwnd)
	}
	var wr rect32
	if ok, _, err := procGetWindowRect.Call(g.hwnd, uintptr(unsafe.Pointer(&wr))); ok == 0 {
		return nil, fmt.Errorf("capture: GetWindowRect failed: %w", err)
	}
	win := image.Rect(int(wr.Left), int(wr.Top), int(wr.Right), int(wr.Bottom))
	crop, err := clip(r, win, "window")
	if err != nil {
		return nil, err
	}

	winDC, _, err := procGetWindowDC.Call(g.hwnd)
	if winDC == 0 {
		return nil, fmt.Errorf("capture: GetWindowDC failed: %w", err)
	}
	defer procReleaseDC.Call(g.hwnd, winDC)

	full, err := withDIB(winDC, win.Dx(), win.Dy(), func(memDC uintptr) error {
		ok, _, err := procPrintWindow.Call(g.hwnd, memDC, pwRenderFullContent)
		if ok == 0 {
			return fmt.Errorf("capture: PrintWindow failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	defer RecycleFrame(full)

	out := acquireFrame(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	off := crop.Min.Sub(win.Min)
	for y := 0; y < crop.Dy(); y++ {
		s := full.PixOffset(off.X, off.Y+y)
		copy(out.Pix[y*out.Stride:(y+1)*out.Stride], full.Pix[s:s+crop.Dx()*4])
	}
	return out, nil
}

// withDIB creates a top-down 32-bit DIB of w x h compatible with srcDC,
// selects it into a memory DC, lets fill draw into that DC and returns the
// pixels converted to RGBA.
func withDIB(srcDC uintptr, w, h int, fill func(memDC uintptr) error) (*image.RGBA, error) {
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyRect
	}
	memDC, _, err := procCreateCompatibleDC.Call(srcDC)
	if memDC == 0 {
		return nil, fmt.Errorf("capture: CreateCompatibleDC failed: %w", err)
	}
	defer procDeleteDC.Call(memDC)

	var bi bitmapInfo
	bi.Header.BiSize = uint32(unsafe.Sizeof(bi.Header))
	bi.Header.BiWidth = int32(w)
	bi.Header.BiHeight = -int32(h) // top-down
	bi.Header.BiPlanes = 1
	bi.Header.BiBitCount = 32
	bi.Header.BiCompression = biRgb
	bi.Header.BiSizeImage = uint32(w * h * 4)

	var bitsPtr unsafe.Pointer
	bmp, _, err := procCreateDIBSection.Call(memDC, uintptr(unsafe.Pointer(&bi)), dibRGBColors, uintptr(unsafe.Pointer(&bitsPtr)), 0, 0)
	if bmp == 0 {
		return nil, fmt.Errorf("capture: CreateDIBSection failed: %w", err)
	}
	defer procDeleteObject.Call(bmp)

	prev, _, err := procSelectObject.Call(memDC, bmp)
	if prev == 0 || prev == ^uintptr(0) { // failure or GDI_ERROR
		return nil, fmt.Errorf("capture: SelectObject failed: %w", err)
	}
	defer procSelectObject.Call(memDC, prev)

	if err := fill(memDC); err != nil {
		return nil, err
	}

	pixLen := w * h * 4
	src := unsafe.Slice((*byte)(bitsPtr), pixLen)
	dst := acquireFrame(image.Rect(0, 0, w, h))
	for i := 0; i < pixLen; i += 4 {
		// src alpha is undefined; force opaque
		dst.Pix[i+0] = src[i+2]
		dst.Pix[i+1] = src[i+1]
		dst.Pix[i+2] = src[i+0]
		dst.Pix[i+3] = 0xFF
	}
	return dst, nil
}
