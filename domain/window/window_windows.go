//go:build windows

package window

import (
	"fmt"
	"image"
	"strings"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	swRestore       = 9
	dpiPerMonitorV2 = ^uintptr(3) // DPI_AWARENESS_CONTEXT_PER_MONITOR_AWARE_V2
)

var (
	user32                            = windows.NewLazySystemDLL("user32.dll")
	procEnumWindows                   = user32.NewProc("EnumWindows")
	procGetWindowTextW                = user32.NewProc("GetWindowTextW")
	procGetWindowTextLengthW          = user32.NewProc("GetWindowTextLengthW")
	procIsWindowVisible               = user32.NewProc("IsWindowVisible")
	procGetWindowThreadProcessID      = user32.NewProc("GetWindowThreadProcessId")
	procGetForegroundWindow           = user32.NewProc("GetForegroundWindow")
	procSetForegroundWindow           = user32.NewProc("SetForegroundWindow")
	procBringWindowToTop              = user32.NewProc("BringWindowToTop")
	procShowWindow                    = user32.NewProc("ShowWindow")
	procIsIconic                      = user32.NewProc("IsIconic")
	procGetClientRect                 = user32.NewProc("GetClientRect")
	procClientToScreen                = user32.NewProc("ClientToScreen")
	procGetWindowRect                 = user32.NewProc("GetWindowRect")
	procSetProcessDpiAwarenessContext = user32.NewProc("SetProcessDpiAwarenessContext")
	procSetProcessDPIAware            = user32.NewProc("SetProcessDPIAware")
)

type rect32 struct {
	Left, Top, Right, Bottom int32
}

type point32 struct {
	X, Y int32
}

// EnumWindows callbacks are a scarce resource, so one callback is created
// for the process and fed through a mutex-guarded collector.
var (
	enumMu       sync.Mutex
	enumFound    []Info
	enumCallback = syscall.NewCallback(func(hwnd uintptr, _ uintptr) uintptr {
		if vis, _, _ := procIsWindowVisible.Call(hwnd); vis == 0 {
			return 1
		}
		title := windowText(hwnd)
		if title == "" {
			return 1
		}
		var pid uint32
		procGetWindowThreadProcessID.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
		enumFound = append(enumFound, Info{Handle: hwnd, Title: title, PID: int(pid)})
		return 1
	})
)

func list() ([]Info, error) {
	enumMu.Lock()
	defer enumMu.Unlock()
	enumFound = nil
	if r, _, err := procEnumWindows.Call(enumCallback, 0); r == 0 {
		return nil, fmt.Errorf("window: EnumWindows: %w", err)
	}
	out := enumFound
	enumFound = nil
	return out, nil
}

func windowText(hwnd uintptr) string {
	n, _, _ := procGetWindowTextLengthW.Call(hwnd)
	if n == 0 {
		return ""
	}
	buf := make([]uint16, n+1)
	procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return strings.TrimSpace(windows.UTF16ToString(buf))
}

// EnableDPIAwareness opts the process into per-monitor DPI awareness so
// window rectangles and captures use physical pixels.
func EnableDPIAwareness() error {
	if err := procSetProcessDpiAwarenessContext.Find(); err == nil {
		if r, _, err := procSetProcessDpiAwarenessContext.Call(dpiPerMonitorV2); r == 0 {
			return fmt.Errorf("window: SetProcessDpiAwarenessContext: %w", err)
		}
		return nil
	}
	if r, _, err := procSetProcessDPIAware.Call(); r == 0 {
		return fmt.Errorf("window: SetProcessDPIAware: %w", err)
	}
	return nil
}

// Foreground returns the current foreground window.
func Foreground() (*Window, error) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return nil, ErrNotFound
	}
	var pid uint32
	procGetWindowThreadProcessID.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	return &Window{Info: Info{Handle: hwnd, Title: windowText(hwnd), PID: int(pid)}}, nil
}

// IsActive reports whether w is the foreground window.
func (w *Window) IsActive() bool {
	hwnd, _, _ := procGetForegroundWindow.Call()
	return hwnd != 0 && hwnd == w.Handle
}

// IsMinimized reports whether w is iconic.
func (w *Window) IsMinimized() bool {
	r, _, _ := procIsIconic.Call(w.Handle)
	return r != 0
}

// Restore un-minimises w.
func (w *Window) Restore() error {
	procShowWindow.Call(w.Handle, swRestore)
	return nil
}

// Activate makes w the foreground window.
func (w *Window) Activate() error {
	procBringWindowToTop.Call(w.Handle)
	if r, _, err := procSetForegroundWindow.Call(w.Handle); r == 0 {
		return fmt.Errorf("SetForegroundWindow: %w", err)
	}
	return nil
}

// ClientRect returns the client area of w in screen coordinates.
func (w *Window) ClientRect() (image.Rectangle, error) {
	var rc rect32
	if r, _, err := procGetClientRect.Call(w.Handle, uintptr(unsafe.Pointer(&rc))); r == 0 {
		return image.Rectangle{}, fmt.Errorf("window: GetClientRect: %w", err)
	}
	var origin point32
	if r, _, err := procClientToScreen.Call(w.Handle, uintptr(unsafe.Pointer(&origin))); r == 0 {
		return image.Rectangle{}, fmt.Errorf("window: ClientToScreen: %w", err)
	}
	x, y := int(origin.X), int(origin.Y)
	return image.Rect(x, y, x+int(rc.Right-rc.Left), y+int(rc.Bottom-rc.Top)), nil
}

// Rect returns the outer window rectangle in screen coordinates.
func (w *Window) Rect() (image.Rectangle, error) {
	var rc rect32
	if r, _, err := procGetWindowRect.Call(w.Handle, uintptr(unsafe.Pointer(&rc))); r == 0 {
		return image.Rectangle{}, fmt.Errorf("window: GetWindowRect: %w", err)
	}
	return image.Rect(int(rc.Left), int(rc.Top), int(rc.Right), int(rc.Bottom)), nil
}
