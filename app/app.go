package app

import (
	"log/slog"

	"github.com/soocke/pixel-macro-go/config"
	"github.com/soocke/pixel-macro-go/ui/theme"
	"github.com/soocke/pixel-macro-go/ui/view"
)

const roiToolTitle = "ROI Tool"

// RunROITool opens the ROI tool window and blocks until it is closed. A
// non-empty path is loaded on start.
func RunROITool(cfg *config.Config, logger *slog.Logger, path string) error {
	c := BuildROITool(cfg, logger)
	p := c.Presenter

	theme.Init(cfg.ROITool.Dark)
	c.View.Build(roiToolTitle, cfg.ROITool.Width, cfg.ROITool.Height, view.ROIHandlers{
		Open:        p.Open,
		Reset:       p.Reset,
		Export:      func() { p.Export() },
		Resize:      p.Resize,
		PointerDown: p.PointerDown,
		PointerMove: p.PointerMove,
		PointerUp:   p.PointerUp,
		Wheel:       p.Wheel,
	})
	if path != "" {
		p.Load(path)
	} else {
		p.Refresh()
	}
	c.Logger.Info("roi tool started", "path", path)
	c.View.Run()
	c.Logger.Info("roi tool closed")
	return nil
}
