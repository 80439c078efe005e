package presenter

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
	"github.com/soocke/pixel-macro-go/domain/roi"
	"github.com/soocke/pixel-macro-go/ui/images"
	"github.com/soocke/pixel-macro-go/ui/model"
)

// selectionBorder is the outline width of the drawn selection in view pixels.
const selectionBorder = 2

// ROIView is the subset of the Tk view the presenter drives.
type ROIView interface {
	SetImage(img image.Image)
	SetStatus(text string)
	AskOpenPath() string
	AskSavePath(initial string) string
	ShowInfo(msg string)
	ShowWarning(msg string)
	ShowError(msg string)
}

// ROIPresenter connects the ROI selector model to its view.
type ROIPresenter struct {
	model  *model.ROISelector
	view   ROIView
	logger *slog.Logger

	save func(img image.Image, path string) error
	open func(path string) (image.Image, error)
}

func NewROIPresenter(m *model.ROISelector, v ROIView, logger *slog.Logger) *ROIPresenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ROIPresenter{
		model:  m,
		view:   v,
		logger: logger,
		save:   func(img image.Image, path string) error { return imaging.Save(img, path) },
		open:   func(p string) (image.Image, error) { return imaging.Open(p) },
	}
}

// Open asks for an image and loads it.
func (p *ROIPresenter) Open() {
	if p == nil || p.model == nil || p.view == nil {
		return
	}
	path := p.view.AskOpenPath()
	if path == "" {
		return
	}
	p.Load(path)
}

// Load loads path into the model and refreshes the view.
func (p *ROIPresenter) Load(path string) {
	if err := p.model.Load(path); err != nil {
		p.logger.Warn("roi tool: load failed", "path", path, "error", err)
		p.view.ShowError(model.StatusLoadError)
	} else {
		p.logger.Info("roi tool: image loaded", "path", path, "size", p.model.Display().Bounds().Size())
	}
	p.Refresh()
}

// Reset clears the selection.
func (p *ROIPresenter) Reset() {
	if p == nil || p.model == nil {
		return
	}
	p.model.Reset()
	p.Refresh()
}

// Export crops the selection and writes it under a name carrying the ROI.
// It returns the written path, or "" when nothing was written.
func (p *ROIPresenter) Export() string {
	if p == nil || p.model == nil || p.view == nil {
		return ""
	}
	img, r, err := p.model.Export()
	switch {
	case errors.Is(err, model.ErrNoImage), errors.Is(err, model.ErrNoSelection):
		p.view.ShowWarning("No ROI selected")
		return ""
	case errors.Is(err, roi.ErrInvalidROI):
		p.view.ShowError("Invalid ROI")
		return ""
	case err != nil:
		p.view.ShowError(err.Error())
		return ""
	}
	path := p.view.AskSavePath(p.model.Path())
	if path == "" {
		return ""
	}
	out := roi.EncodeName(path, r)
	if err := p.save(img, out); err != nil {
		p.logger.Error("roi tool: save failed", "path", out, "error", err)
		p.view.ShowError(fmt.Sprintf("Failed to save image: %v", err))
		return ""
	}
	if _, err := p.open(out); err != nil {
		p.logger.Error("roi tool: saved file unreadable", "path", out, "error", err)
		p.view.ShowError(fmt.Sprintf("Saved file is not readable: %v", err))
		return ""
	}
	p.logger.Info("roi tool: exported", "path", out, "roi", r.String())
	p.model.SetStatus("Saved: " + out)
	p.view.SetStatus(p.model.Status())
	p.view.ShowInfo(fmt.Sprintf("ROI saved:\n%s", out))
	return out
}

// Resize records the new size of the image area.
func (p *ROIPresenter) Resize(w, h int) {
	p.model.SetViewSize(w, h)
	p.Refresh()
}

func (p *ROIPresenter) PointerDown(b model.Button, x, y int) {
	p.model.PointerDown(b, x, y)
	p.Refresh()
}

func (p *ROIPresenter) PointerMove(x, y int) {
	p.model.PointerMove(x, y)
	p.Refresh()
}

func (p *ROIPresenter) PointerUp(b model.Button, x, y int) {
	p.model.PointerUp(b, x, y)
	p.Refresh()
}

// Wheel zooms with ctrl held; other wheel events are ignored.
func (p *ROIPresenter) Wheel(x, y, delta int, ctrl bool) {
	if p.model.Wheel(x, y, delta, ctrl) {
		p.Refresh()
	}
}

// Refresh renders the viewport with the selection overlay and updates the
// status line.
func (p *ROIPresenter) Refresh() {
	if p == nil || p.model == nil || p.view == nil {
		return
	}
	p.view.SetStatus(p.model.Status())
	if !p.model.HasImage() {
		p.view.SetImage(nil)
		return
	}
	offX, offY := p.model.Offset()
	w, h := p.model.ViewSize()
	if w <= 0 || h <= 0 {
		b := p.model.Display().Bounds()
		w = int(float64(b.Dx()) * p.model.Zoom())
		h = int(float64(b.Dy()) * p.model.Zoom())
	}
	frame := images.Render(p.model.Display(), p.model.Zoom(), offX, offY, w, h)
	if r, ok := p.model.SelectionView(); ok {
		images.DrawSelection(frame, r, selectionBorder)
	}
	p.view.SetImage(frame)
}
