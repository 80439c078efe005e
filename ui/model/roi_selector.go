package model

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/soocke/pixel-macro-go/domain/roi"
)

var (
	// ErrNoImage is returned by Export before an image is loaded.
	ErrNoImage = errors.New("roi tool: no image loaded")
	// ErrNoSelection is returned by Export before a region is selected.
	ErrNoSelection = errors.New("roi tool: no region selected")
)

// Status messages shown by the ROI tool.
const (
	StatusIdle      = "Drag to select ROI"
	StatusReset     = "ROI reset"
	StatusLoadError = "Cannot load image"
)

// Button identifies the pointer button of a press or release.
type Button int

const (
	ButtonLeft Button = iota + 1
	ButtonRight
)

// ROISelectorConfig bounds zooming and display scaling.
type ROISelectorConfig struct {
	MinZoom  float64
	MaxZoom  float64
	ZoomStep float64
	// MaxDisplay downscales images whose longest side exceeds it. Zero keeps
	// the original size.
	MaxDisplay int
}

type pointF struct{ X, Y float64 }

// rectF is a selection in display image coordinates.
type rectF struct{ X0, Y0, X1, Y1 float64 }

func normRect(a, b pointF) rectF {
	return rectF{math.Min(a.X, b.X), math.Min(a.Y, b.Y), math.Max(a.X, b.X), math.Max(a.Y, b.Y)}
}

// ROISelector holds the state of the ROI tool: the loaded image, the zoomed
// and panned viewport and the current selection. View coordinates are pixels
// of the on-screen image area; display coordinates are pixels of the
// (possibly downscaled) displayed image.
type ROISelector struct {
	cfg ROISelectorConfig

	path     string
	original image.Image
	display  *image.NRGBA
	scale    float64 // display size / original size

	zoom       float64
	offX, offY float64 // viewport origin in zoomed content pixels
	viewW      int
	viewH      int

	sel      *rectF
	dragging bool
	start    pointF
	panning  bool
	panLast  image.Point

	status string
}

// NewROISelector returns an empty selector.
func NewROISelector(cfg ROISelectorConfig) *ROISelector {
	if cfg.MinZoom <= 0 {
		cfg.MinZoom = 0.1
	}
	if cfg.MaxZoom < cfg.MinZoom {
		cfg.MaxZoom = 10
	}
	if cfg.ZoomStep <= 0 || cfg.ZoomStep >= 1 {
		cfg.ZoomStep = 0.1
	}
	return &ROISelector{cfg: cfg, zoom: 1, scale: 1, status: StatusIdle}
}

// Load decodes the image at path. On failure the previous image is dropped
// and the status reports the error.
func (s *ROISelector) Load(path string) error {
	img, err := imaging.Open(path)
	if err != nil {
		s.clear()
		s.status = StatusLoadError
		return fmt.Errorf("roi tool: load %s: %w", path, err)
	}
	s.SetImage(img, path)
	return nil
}

// SetImage installs an already decoded image.
func (s *ROISelector) SetImage(img image.Image, path string) {
	s.clear()
	if img == nil {
		s.status = StatusLoadError
		return
	}
	s.path = path
	s.original = img
	s.scale = 1
	b := img.Bounds()
	longest := max(b.Dx(), b.Dy())
	if s.cfg.MaxDisplay > 0 && longest > s.cfg.MaxDisplay {
		s.scale = float64(s.cfg.MaxDisplay) / float64(longest)
		w := int(float64(b.Dx()) * s.scale)
		h := int(float64(b.Dy()) * s.scale)
		s.display = imaging.Resize(img, max(w, 1), max(h, 1), imaging.Linear)
	} else {
		s.display = imaging.Clone(img)
	}
	s.status = StatusIdle
}

func (s *ROISelector) clear() {
	s.path = ""
	s.original = nil
	s.display = nil
	s.scale = 1
	s.zoom = 1
	s.offX, s.offY = 0, 0
	s.sel = nil
	s.dragging = false
	s.panning = false
}

// HasImage reports whether an image is loaded.
func (s *ROISelector) HasImage() bool { return s.display != nil }

// Path returns the path of the loaded image.
func (s *ROISelector) Path() string { return s.path }

// Status returns the current status line.
func (s *ROISelector) Status() string { return s.status }

// Zoom returns the current zoom factor.
func (s *ROISelector) Zoom() float64 { return s.zoom }

// ZoomPercent returns the zoom factor as a rounded percentage.
func (s *ROISelector) ZoomPercent() int { return int(math.Round(s.zoom * 100)) }

// Scale returns the display downscale factor (1 when not downscaled).
func (s *ROISelector) Scale() float64 { return s.scale }

// Display returns the displayed image.
func (s *ROISelector) Display() image.Image {
	if s.display == nil {
		return nil
	}
	return s.display
}

// Offset returns the viewport origin in zoomed content pixels.
func (s *ROISelector) Offset() (float64, float64) { return s.offX, s.offY }

// SetViewSize records the on-screen size of the image area.
func (s *ROISelector) SetViewSize(w, h int) {
	s.viewW, s.viewH = max(w, 0), max(h, 0)
	s.clampOffset()
}

// ViewSize returns the size recorded by SetViewSize.
func (s *ROISelector) ViewSize() (int, int) { return s.viewW, s.viewH }

func (s *ROISelector) displaySize() (float64, float64) {
	if s.display == nil {
		return 0, 0
	}
	b := s.display.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

// toDisplay maps a view pixel to display image coordinates.
func (s *ROISelector) toDisplay(vx, vy int) pointF {
	return pointF{(float64(vx) + s.offX) / s.zoom, (float64(vy) + s.offY) / s.zoom}
}

func (s *ROISelector) clampToImage(p pointF) pointF {
	w, h := s.displaySize()
	return pointF{math.Max(0, math.Min(p.X, w)), math.Max(0, math.Min(p.Y, h))}
}

func (s *ROISelector) clampOffset() {
	w, h := s.displaySize()
	if s.viewW > 0 {
		s.offX = math.Min(s.offX, math.Max(0, w*s.zoom-float64(s.viewW)))
	}
	if s.viewH > 0 {
		s.offY = math.Min(s.offY, math.Max(0, h*s.zoom-float64(s.viewH)))
	}
	s.offX = math.Max(0, s.offX)
	s.offY = math.Max(0, s.offY)
}

// PointerDown handles a button press at view coordinates.
func (s *ROISelector) PointerDown(b Button, vx, vy int) {
	if s.display == nil {
		return
	}
	switch b {
	case ButtonLeft:
		s.dragging = true
		s.start = s.clampToImage(s.toDisplay(vx, vy))
		r := normRect(s.start, s.start)
		s.sel = &r
	case ButtonRight:
		s.panning = true
		s.panLast = image.Pt(vx, vy)
	}
}

// PointerMove handles pointer motion at view coordinates.
func (s *ROISelector) PointerMove(vx, vy int) {
	switch {
	case s.panning:
		s.offX -= float64(vx - s.panLast.X)
		s.offY -= float64(vy - s.panLast.Y)
		s.panLast = image.Pt(vx, vy)
		s.clampOffset()
	case s.display != nil && s.dragging:
		end := s.clampToImage(s.toDisplay(vx, vy))
		r := normRect(s.start, end)
		s.sel = &r
		s.status = fmt.Sprintf("ROI: %v | Zoom: %d%%", s.OriginalROI(), s.ZoomPercent())
	case s.display != nil:
		p := s.toDisplay(vx, vy)
		w, h := s.displaySize()
		if p.X >= 0 && p.X <= w && p.Y >= 0 && p.Y <= h {
			s.status = fmt.Sprintf("Pos: [X: %d, Y: %d] | Zoom: %d%%", int(p.X/s.scale), int(p.Y/s.scale), s.ZoomPercent())
		}
	}
}

// PointerUp handles a button release.
func (s *ROISelector) PointerUp(b Button, vx, vy int) {
	switch {
	case b == ButtonLeft && s.dragging:
		s.PointerMove(vx, vy)
		s.dragging = false
		if s.sel != nil {
			s.status = fmt.Sprintf("Selected: %v | Zoom: %d%%", s.OriginalROI(), s.ZoomPercent())
		}
	case b == ButtonRight && s.panning:
		s.panning = false
	}
}

// Wheel zooms around the pointer when ctrl is held. delta > 0 zooms in. It
// reports whether the zoom changed; steps that would leave the configured
// range are ignored.
func (s *ROISelector) Wheel(vx, vy, delta int, ctrl bool) bool {
	if !ctrl || s.display == nil || delta == 0 {
		return false
	}
	factor := 1 - s.cfg.ZoomStep
	if delta > 0 {
		factor = 1 + s.cfg.ZoomStep
	}
	next := s.zoom * factor
	if next < s.cfg.MinZoom || next > s.cfg.MaxZoom {
		return false
	}
	anchor := s.toDisplay(vx, vy)
	s.zoom = next
	s.offX = anchor.X*next - float64(vx)
	s.offY = anchor.Y*next - float64(vy)
	s.clampOffset()
	if s.sel != nil {
		s.status = fmt.Sprintf("ROI: %v | Zoom: %d%%", s.OriginalROI(), s.ZoomPercent())
	} else {
		s.status = fmt.Sprintf("%s | Zoom: %d%%", StatusIdle, s.ZoomPercent())
	}
	return true
}

// Reset clears the selection.
func (s *ROISelector) Reset() {
	s.sel = nil
	s.dragging = false
	s.status = StatusReset
}

// HasSelection reports whether a region has been selected.
func (s *ROISelector) HasSelection() bool { return s.sel != nil }

// SelectionView returns the selection in view coordinates.
func (s *ROISelector) SelectionView() (image.Rectangle, bool) {
	if s.sel == nil {
		return image.Rectangle{}, false
	}
	r := s.sel
	return image.Rect(
		int(math.Round(r.X0*s.zoom-s.offX)), int(math.Round(r.Y0*s.zoom-s.offY)),
		int(math.Round(r.X1*s.zoom-s.offX)), int(math.Round(r.Y1*s.zoom-s.offY)),
	), true
}

// OriginalROI returns the selection in original image coordinates, or the
// zero ROI when nothing is selected.
func (s *ROISelector) OriginalROI() roi.ROI {
	if s.sel == nil {
		return roi.ROI{}
	}
	r := s.sel
	return roi.ROI{
		X: int(r.X0 / s.scale),
		Y: int(r.Y0 / s.scale),
		W: int((r.X1 - r.X0) / s.scale),
		H: int((r.Y1 - r.Y0) / s.scale),
	}
}

// Export crops the selection out of the original image.
func (s *ROISelector) Export() (image.Image, roi.ROI, error) {
	if s.original == nil {
		return nil, roi.ROI{}, ErrNoImage
	}
	if s.sel == nil {
		return nil, roi.ROI{}, ErrNoSelection
	}
	b := s.original.Bounds()
	r, err := roi.Clamp(s.OriginalROI(), b.Size())
	if err != nil {
		return nil, roi.ROI{}, err
	}
	return imaging.Crop(s.original, r.Rect().Add(b.Min)), r, nil
}

// SetStatus overrides the status line.
func (s *ROISelector) SetStatus(msg string) { s.status = msg }
