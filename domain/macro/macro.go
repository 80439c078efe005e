// Package macro drives the find-and-act loop against one target window:
// capture the template's region of the client area, match, map the hit
// back to screen coordinates and optionally click or press a key there.
package macro

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"
	"github.com/soocke/pixel-macro-go/domain/action"
	"github.com/soocke/pixel-macro-go/domain/capture"
	"github.com/soocke/pixel-macro-go/domain/roi"
	"github.com/soocke/pixel-macro-go/domain/template"
	"github.com/soocke/pixel-macro-go/domain/window"
)

// Target is the window a macro works against.
type Target interface {
	window.Target
	ClientRect() (image.Rectangle, error)
}

// Templates resolves template files.
type Templates interface {
	Get(path string) (*template.Template, error)
}

// Input groups the input-injection callbacks.
type Input struct {
	Click    func(x, y int, b action.Button) error
	PressKey func(vk byte) error
}

// Deps are the collaborators of a Macro. Templates and Input default to the
// file cache and the OS input functions.
type Deps struct {
	Target    Target
	Grabber   capture.Grabber
	Templates Templates
	Input     Input
	Logger    *slog.Logger
}

// Options tune matching and actions.
type Options struct {
	Match      capture.MatchOptions
	Settle     time.Duration
	NoActivate bool
	Button     action.Button
	PreDelay   time.Duration
	PostDelay  time.Duration
}

// CaptureOptions selects the region for Capture. A zero ROI captures the
// whole client area; a non-empty SavePath also writes the image there.
type CaptureOptions struct {
	ROI      roi.ROI
	SavePath string
}

// Result is the outcome of one search. Point is the match centre in screen
// coordinates and is only meaningful when Found is set.
type Result struct {
	Found    bool
	Point    image.Point
	Score    float64
	Match    capture.MatchResult
	Duration time.Duration
}

// Macro binds a target window, a frame grabber and a template cache.
type Macro struct {
	target    Target
	grabber   capture.Grabber
	templates Templates
	input     Input
	opts      Options
	logger    *slog.Logger
}

// New validates deps and brings the target to the foreground unless
// opts.NoActivate is set.
func New(ctx context.Context, deps Deps, opts Options) (*Macro, error) {
	if deps.Target == nil {
		return nil, errors.New("macro: no target window")
	}
	if deps.Grabber == nil {
		return nil, errors.New("macro: no frame grabber")
	}
	m := &Macro{
		target:    deps.Target,
		grabber:   deps.Grabber,
		templates: deps.Templates,
		input:     deps.Input,
		opts:      opts,
		logger:    deps.Logger,
	}
	if m.templates == nil {
		m.templates = template.NewCache()
	}
	if m.input.Click == nil {
		m.input.Click = action.Click
	}
	if m.input.PressKey == nil {
		m.input.PressKey = action.PressKey
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if !opts.NoActivate {
		if err := m.SwitchToWindow(ctx); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// SwitchToWindow restores and activates the target, then waits for it to
// settle.
func (m *Macro) SwitchToWindow(ctx context.Context) error {
	return window.SwitchTo(ctx, m.target, m.opts.Settle)
}

// grab captures region r of the client area and returns the frame together
// with its screen rectangle.
func (m *Macro) grab(ctx context.Context, r roi.ROI) (*image.RGBA, image.Rectangle, error) {
	client, err := m.target.ClientRect()
	if err != nil {
		return nil, image.Rectangle{}, clientRectError{fmt.Errorf("macro: client rect: %w", err)}
	}
	rect := roi.Apply(r, client)
	frame, err := m.grabber.Grab(ctx, rect)
	if err != nil {
		return nil, rect, err
	}
	return frame, rect, nil
}

// Capture grabs the requested region of the client area.
func (m *Macro) Capture(ctx context.Context, opts CaptureOptions) (*image.RGBA, error) {
	frame, rect, err := m.grab(ctx, opts.ROI)
	if err != nil {
		return nil, err
	}
	if opts.SavePath != "" {
		if err := imaging.Save(frame, opts.SavePath); err != nil {
			return nil, fmt.Errorf("macro: save capture: %w", err)
		}
		m.logger.Info("capture saved", "path", opts.SavePath, "rect", rect)
	}
	return frame, nil
}

// matchOptions returns the configured options with threshold applied when
// positive.
func (m *Macro) matchOptions(threshold float64) capture.MatchOptions {
	opts := m.opts.Match
	if threshold > 0 {
		opts.Threshold = threshold
	}
	return opts
}

// evaluate matches tpl against frame captured at rect.
func evaluate(frame *image.RGBA, rect image.Rectangle, tpl *template.Template, opts capture.MatchOptions) Result {
	res := capture.Match(frame, tpl.Pattern, opts)
	out := Result{Match: res, Score: res.Score, Duration: res.Duration}
	if res.W > frame.Rect.Dx() || res.H > frame.Rect.Dy() {
		// Template does not fit the capture: a plain miss.
		out.Score = 0
		return out
	}
	if !res.Found && (res.Score < 0 || res.ScalesEvaluated == 0) {
		// Nothing was correlated: no scale fit, or every window was flat.
		out.Score = 0
	}
	if res.Found {
		out.Found = true
		out.Point = rect.Min.Add(res.Center())
	}
	return out
}

// FindImage searches for the template at path inside the region encoded in
// its filename. A capture that fails even after retrying is logged and
// reported as a miss with score 0.
func (m *Macro) FindImage(ctx context.Context, path string, threshold float64) (Result, error) {
	start := time.Now()
	tpl, err := m.templates.Get(path)
	if err != nil {
		return Result{}, err
	}
	frame, rect, err := m.grab(ctx, tpl.ROI)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		if isClientErr(err) {
			return Result{}, err
		}
		m.logger.Error("capture failed", "template", path, "rect", rect, "error", err)
		return Result{}, nil
	}
	defer capture.RecycleFrame(frame)
	res := evaluate(frame, rect, tpl, m.matchOptions(threshold))
	res.Duration = time.Since(start)
	m.logger.Debug("find image", "template", path, "found", res.Found, "score", res.Score, "point", res.Point, "duration", res.Duration)
	return res, nil
}

// clientRectError marks failures to resolve the window client area, which
// are reported to the caller rather than treated as a miss.
type clientRectError struct{ err error }

func (e clientRectError) Error() string { return e.err.Error() }
func (e clientRectError) Unwrap() error { return e.err }

func isClientErr(err error) bool {
	var ce clientRectError
	return errors.As(err, &ce)
}

// Act waits pre, runs fn, then waits post. Cancelling ctx aborts the waits.
func Act(ctx context.Context, pre, post time.Duration, fn func() error) error {
	if err := sleep(ctx, pre); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	return sleep(ctx, post)
}

// ClickImage clicks the centre of the template when it is found.
func (m *Macro) ClickImage(ctx context.Context, path string, threshold float64) (Result, error) {
	res, err := m.FindImage(ctx, path, threshold)
	if err != nil || !res.Found {
		return res, err
	}
	err = Act(ctx, m.opts.PreDelay, m.opts.PostDelay, func() error {
		return m.input.Click(res.Point.X, res.Point.Y, m.opts.Button)
	})
	if err != nil {
		return res, fmt.Errorf("macro: click: %w", err)
	}
	m.logger.Info("clicked", "template", path, "point", res.Point, "button", m.opts.Button.String())
	return res, nil
}

// PressOnImage presses vk when the template is found.
func (m *Macro) PressOnImage(ctx context.Context, path string, threshold float64, vk byte) (Result, error) {
	res, err := m.FindImage(ctx, path, threshold)
	if err != nil || !res.Found {
		return res, err
	}
	err = Act(ctx, m.opts.PreDelay, m.opts.PostDelay, func() error {
		return m.input.PressKey(vk)
	})
	if err != nil {
		return res, fmt.Errorf("macro: press key: %w", err)
	}
	return res, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
