package capture

import (
	"context"
	"image"

	kscreenshot "github.com/kbinani/screenshot"
	"github.com/vova616/screenshot"
)

// screenshotGrabber captures through github.com/vova616/screenshot.
type screenshotGrabber struct{}

func (screenshotGrabber) Name() string { return BackendScreenshot }

func (screenshotGrabber) Grab(_ context.Context, rect image.Rectangle) (*image.RGBA, error) {
	if rect.Empty() {
		return nil, ErrEmptyRect
	}
	img, err := screenshot.CaptureRect(rect)
	if err != nil {
		return nil, err
	}
	return toRGBA(img), nil
}

// displayGrabber captures through github.com/kbinani/screenshot, which
// understands multi-monitor virtual desktops.
type displayGrabber struct{}

func (displayGrabber) Name() string { return BackendDisplay }

func (displayGrabber) Grab(_ context.Context, rect image.Rectangle) (*image.RGBA, error) {
	if rect.Empty() {
		return nil, ErrEmptyRect
	}
	img, err := kscreenshot.CaptureRect(rect)
	if err != nil {
		return nil, err
	}
	return toRGBA(img), nil
}

// DisplayBounds lists the bounds of each active display.
func DisplayBounds() []image.Rectangle {
	n := kscreenshot.NumActiveDisplays()
	out := make([]image.Rectangle, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, kscreenshot.GetDisplayBounds(i))
	}
	return out
}
