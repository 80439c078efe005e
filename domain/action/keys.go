// Package action injects mouse and keyboard input.
package action

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnsupported is returned on platforms without input injection.
var ErrUnsupported = errors.New("action: not supported on this platform")

// Button is a mouse button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
)

func (b Button) String() string {
	switch b {
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	default:
		return "left"
	}
}

// ParseButton maps "left", "right" or "middle" (any case) to a Button.
func ParseButton(s string) (Button, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "left", "l":
		return ButtonLeft, nil
	case "right", "r":
		return ButtonRight, nil
	case "middle", "m":
		return ButtonMiddle, nil
	}
	return ButtonLeft, fmt.Errorf("action: unknown mouse button %q", s)
}

var namedKeys = map[string]byte{
	"BACKSPACE": 0x08,
	"TAB":       0x09,
	"ENTER":     0x0D,
	"RETURN":    0x0D,
	"SHIFT":     0x10,
	"CTRL":      0x11,
	"CONTROL":   0x11,
	"ALT":       0x12,
	"PAUSE":     0x13,
	"CAPSLOCK":  0x14,
	"ESC":       0x1B,
	"ESCAPE":    0x1B,
	"SPACE":     0x20,
	"PAGEUP":    0x21,
	"PAGEDOWN":  0x22,
	"END":       0x23,
	"HOME":      0x24,
	"LEFT":      0x25,
	"UP":        0x26,
	"RIGHT":     0x27,
	"DOWN":      0x28,
	"INSERT":    0x2D,
	"DELETE":    0x2E,
	"DEL":       0x2E,
}

// ParseVK converts a key token (e.g. "F3", "R", "7", "ENTER") into a Windows
// virtual-key code. F1..F24, letters, digits and the common named keys are
// recognized.
func ParseVK(key string) (byte, error) {
	k := strings.ToUpper(strings.TrimSpace(key))
	if vk, ok := namedKeys[k]; ok {
		return vk, nil
	}
	if len(k) >= 2 && len(k) <= 3 && k[0] == 'F' {
		if n, err := strconv.Atoi(k[1:]); err == nil && n >= 1 && n <= 24 {
			return byte(0x70 + (n - 1)), nil // VK_F1=0x70
		}
	}
	if len(k) == 1 {
		c := k[0]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			return c, nil // ASCII matches the VK codes
		}
	}
	return 0, fmt.Errorf("action: unknown key %q", key)
}
