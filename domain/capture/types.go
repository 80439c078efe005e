package capture

import (
	"context"
	"errors"
	"image"
	"time"
)

// Capture backends selectable through configuration.
const (
	BackendGDI        = "gdi"
	BackendWindow     = "window"
	BackendScreenshot = "screenshot"
	BackendDisplay    = "display"
)

var (
	// ErrEmptyRect is returned when asked to grab a rectangle without area.
	ErrEmptyRect = errors.New("capture: empty rectangle")
	// ErrNoFrame is returned when a backend reports success without pixels.
	ErrNoFrame = errors.New("capture: no frame")
	// ErrUnsupported is returned by backends unavailable on this platform.
	ErrUnsupported = errors.New("capture: backend not supported on this platform")
)

// Grabber copies a screen rectangle into a newly owned RGBA image whose
// bounds start at the origin.
type Grabber interface {
	Name() string
	Grab(ctx context.Context, rect image.Rectangle) (*image.RGBA, error)
}

// ScaleSpec is a single template scale factor (e.g. 0.8, 1.0, 1.2).
type ScaleSpec struct {
	Factor float64
}

// MatchOptions configures normalized cross-correlation template matching.
type MatchOptions struct {
	Threshold float64 // Minimum score for a positive match (default 0.80)
	Stride    int     // Coarse stride for scanning (default 1)
	Refine    bool    // If true and Stride>1, do a refinement pass around best window
	Color     bool    // Correlate R, G and B jointly instead of luminance

	// Scales: explicit factors to try. If empty, factors are generated from
	// MinScale..MaxScale using ScaleStep, and a single 1.0 scale is used
	// when those are unset. StopOnScore disables when set to 0.
	Scales      []ScaleSpec
	MinScale    float64
	MaxScale    float64
	ScaleStep   float64
	StopOnScore float64
}

func (o MatchOptions) threshold() float64 {
	if o.Threshold <= 0 {
		return 0.80
	}
	return o.Threshold
}

// MatchResult is the best window found. X and Y are the top-left corner of
// the window relative to the frame origin; W and H are the template size at
// the winning scale. Score is -1 when no window could be evaluated.
type MatchResult struct {
	X, Y            int
	W, H            int
	Score           float64
	Scale           float64
	Found           bool
	Duration        time.Duration
	ScalesEvaluated int
}

// Center returns the centre of the matched window relative to the frame
// origin, using integer division like the template size.
func (r MatchResult) Center() image.Point {
	return image.Pt(r.X+r.W/2, r.Y+r.H/2)
}
