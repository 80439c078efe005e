//go:build !windows

package window

import "image"

func list() ([]Info, error) { return nil, ErrUnsupported }

// EnableDPIAwareness is a no-op outside Windows.
func EnableDPIAwareness() error { return ErrUnsupported }

// Foreground is unavailable outside Windows.
func Foreground() (*Window, error) { return nil, ErrUnsupported }

func (w *Window) IsActive() bool    { return false }
func (w *Window) IsMinimized() bool { return false }
func (w *Window) Restore() error    { return ErrUnsupported }
func (w *Window) Activate() error   { return ErrUnsupported }

func (w *Window) ClientRect() (image.Rectangle, error) { return image.Rectangle{}, ErrUnsupported }

func (w *Window) Rect() (image.Rectangle, error) { return image.Rectangle{}, ErrUnsupported }
