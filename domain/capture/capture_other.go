//go:build !windows

package capture

func newGDIGrabber() (Grabber, error) { return nil, ErrUnsupported }

func newWindowGrabber(uintptr) (Grabber, error) { return nil, ErrUnsupported }
