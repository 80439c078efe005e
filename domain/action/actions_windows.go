//go:build windows

package action

import (
	"fmt"
	"time"

	"golang.org/x/sys/windows"
)

const (
	mouseeventfLeftDown   = 0x0002
	mouseeventfLeftUp     = 0x0004
	mouseeventfRightDown  = 0x0008
	mouseeventfRightUp    = 0x0010
	mouseeventfMiddleDown = 0x0020
	mouseeventfMiddleUp   = 0x0040
	keyeventfKeyUp        = 0x0002

	clickHold = 30 * time.Millisecond
	keyHold   = 40 * time.Millisecond
)

var (
	user32           = windows.NewLazySystemDLL("user32.dll")
	procMouseEvent   = user32.NewProc("mouse_event")
	procKeybdEvent   = user32.NewProc("keybd_event")
	procSetCursorPos = user32.NewProc("SetCursorPos")
)

// MoveCursor moves the OS mouse pointer to (x, y).
func MoveCursor(x, y int) error {
	if r, _, err := procSetCursorPos.Call(uintptr(x), uintptr(y)); r == 0 {
		return fmt.Errorf("action: SetCursorPos(%d,%d): %w", x, y, err)
	}
	return nil
}

// Click moves to (x, y) and presses then releases button.
func Click(x, y int, button Button) error {
	if err := MoveCursor(x, y); err != nil {
		return err
	}
	down, up := uintptr(mouseeventfLeftDown), uintptr(mouseeventfLeftUp)
	switch button {
	case ButtonRight:
		down, up = mouseeventfRightDown, mouseeventfRightUp
	case ButtonMiddle:
		down, up = mouseeventfMiddleDown, mouseeventfMiddleUp
	}
	_, _, _ = procMouseEvent.Call(down, 0, 0, 0, 0)
	time.Sleep(clickHold)
	_, _, _ = procMouseEvent.Call(up, 0, 0, 0, 0)
	return nil
}

// PressKey sends a key down followed by a key up for the virtual-key code.
func PressKey(vk byte) error {
	_, _, _ = procKeybdEvent.Call(uintptr(vk), 0, 0, 0)
	// small sleep to emulate human press duration
	time.Sleep(keyHold)
	_, _, _ = procKeybdEvent.Call(uintptr(vk), 0, keyeventfKeyUp, 0)
	return nil
}
