package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"
)

// GrabberOptions carries backend specific parameters.
type GrabberOptions struct {
	// Handle is the target window for the "window" backend.
	Handle uintptr
}

// NewGrabber returns the grabber registered under backend.
func NewGrabber(backend string, opts GrabberOptions) (Grabber, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendGDI:
		return newGDIGrabber()
	case BackendWindow:
		return newWindowGrabber(opts.Handle)
	case BackendScreenshot:
		return screenshotGrabber{}, nil
	case BackendDisplay:
		return displayGrabber{}, nil
	default:
		return nil, fmt.Errorf("capture: unknown backend %q", backend)
	}
}

// retryGrabber repeats failed grabs a fixed number of times.
type retryGrabber struct {
	inner   Grabber
	retries int
	delay   time.Duration
	logger  *slog.Logger
}

// WithRetry wraps g so that a failed grab (an error or a nil image) is
// attempted again up to retries more times, pausing delay in between.
func WithRetry(g Grabber, retries int, delay time.Duration, logger *slog.Logger) Grabber {
	if g == nil || retries <= 0 {
		return g
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &retryGrabber{inner: g, retries: retries, delay: delay, logger: logger}
}

func (r *retryGrabber) Name() string { return r.inner.Name() }

func (r *retryGrabber) Grab(ctx context.Context, rect image.Rectangle) (*image.RGBA, error) {
	var lastErr error
	for attempt := 0; attempt <= r.retries; attempt++ {
		if attempt > 0 {
			r.logger.Debug("capture retry", "backend", r.inner.Name(), "attempt", attempt, "error", lastErr)
			if r.delay > 0 {
				t := time.NewTimer(r.delay)
				select {
				case <-ctx.Done():
					t.Stop()
					return nil, ctx.Err()
				case <-t.C:
				}
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := r.inner.Grab(ctx, rect)
		if err == nil && img == nil {
			err = ErrNoFrame
		}
		if err == nil {
			return img, nil
		}
		if errors.Is(err, ErrEmptyRect) || errors.Is(err, ErrUnsupported) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("capture: %s: %w", r.inner.Name(), lastErr)
}

// clip intersects r with bounds, the area a backend can actually read. It
// returns ErrEmptyRect when r is empty or lies entirely outside bounds.
func clip(r, bounds image.Rectangle, what string) (image.Rectangle, error) {
	if r.Empty() {
		return image.Rectangle{}, ErrEmptyRect
	}
	crop := r.Intersect(bounds)
	if crop.Empty() {
		return image.Rectangle{}, fmt.Errorf("capture: rect %v outside %s %v: %w", r, what, bounds, ErrEmptyRect)
	}
	return crop, nil
}
