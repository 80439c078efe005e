//go:build !windows

package action

// MoveCursor is unavailable outside Windows.
func MoveCursor(x, y int) error { return ErrUnsupported }

// Click is unavailable outside Windows.
func Click(x, y int, button Button) error { return ErrUnsupported }

// PressKey is unavailable outside Windows.
func PressKey(vk byte) error { return ErrUnsupported }
