package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/soocke/pixel-macro-go/config"
	"github.com/soocke/pixel-macro-go/domain/action"
	"github.com/soocke/pixel-macro-go/domain/capture"
	"github.com/soocke/pixel-macro-go/domain/macro"
	"github.com/soocke/pixel-macro-go/domain/window"
	"github.com/soocke/pixel-macro-go/ui/model"
	"github.com/soocke/pixel-macro-go/ui/presenter"
	"github.com/soocke/pixel-macro-go/ui/view"
)

// MacroContainer holds the collaborators of a macro built from config.
type MacroContainer struct {
	Config  *config.Config
	Logger  *slog.Logger
	Window  *window.Window
	Grabber capture.Grabber
	Macro   *macro.Macro
}

// ResolveWindow locates the target window: by process name when configured,
// else by title, else the current foreground window.
func ResolveWindow(ctx context.Context, cfg *config.Config) (*window.Window, error) {
	switch {
	case cfg.Window.Process != "":
		return window.FindByProcess(ctx, cfg.Window.Process)
	case cfg.Window.Title != "":
		return window.Find(cfg.Window.Title)
	default:
		return window.Foreground()
	}
}

// MacroOptions maps config onto macro options.
func MacroOptions(cfg *config.Config) (macro.Options, error) {
	button, err := action.ParseButton(cfg.Action.Button)
	if err != nil {
		return macro.Options{}, err
	}
	return macro.Options{
		Match:      capture.OptionsFromConfig(cfg),
		Settle:     time.Duration(cfg.Window.SettleMs) * time.Millisecond,
		NoActivate: cfg.Window.NoActivate,
		Button:     button,
		PreDelay:   time.Duration(cfg.Action.PreDelayMs) * time.Millisecond,
		PostDelay:  time.Duration(cfg.Action.PostDelayMs) * time.Millisecond,
	}, nil
}

// BuildMacro resolves the target window, builds the grabber and returns a
// ready macro. The window is activated unless window.no_activate is set.
func BuildMacro(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*MacroContainer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &MacroContainer{Config: cfg, Logger: logger}
	if cfg.Window.DPIAware {
		if err := window.EnableDPIAwareness(); err != nil {
			logger.Warn("dpi awareness not enabled", "error", err)
		}
	}
	w, err := ResolveWindow(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("locate window: %w", err)
	}
	c.Window = w
	logger.Info("target window", "title", w.Title, "pid", w.PID, "handle", w.Handle)

	g, err := capture.NewGrabber(cfg.Capture.Backend, capture.GrabberOptions{Handle: w.Handle})
	if err != nil {
		return nil, err
	}
	c.Grabber = capture.WithRetry(g, cfg.Capture.Retries, time.Duration(cfg.Capture.RetryDelayMs)*time.Millisecond, logger)

	opts, err := MacroOptions(cfg)
	if err != nil {
		return nil, err
	}
	m, err := macro.New(ctx, macro.Deps{Target: w, Grabber: c.Grabber, Logger: logger}, opts)
	if err != nil {
		return nil, err
	}
	c.Macro = m
	return c, nil
}

// ROIToolContainer assembles the ROI tool model, presenter and view.
type ROIToolContainer struct {
	Config    *config.Config
	Logger    *slog.Logger
	Model     *model.ROISelector
	View      *view.ROIView
	Presenter *presenter.ROIPresenter
}

// BuildROITool constructs the ROI tool. No Tk calls happen here.
func BuildROITool(cfg *config.Config, logger *slog.Logger) *ROIToolContainer {
	if logger == nil {
		logger = slog.Default()
	}
	c := &ROIToolContainer{Config: cfg, Logger: logger}
	c.Model = model.NewROISelector(model.ROISelectorConfig{
		MinZoom:    cfg.ROITool.MinZoom,
		MaxZoom:    cfg.ROITool.MaxZoom,
		ZoomStep:   cfg.ROITool.ZoomStep,
		MaxDisplay: cfg.ROITool.MaxDisplay,
	})
	c.View = view.NewROIView(logger)
	c.Presenter = presenter.NewROIPresenter(c.Model, c.View, logger)
	return c
}
