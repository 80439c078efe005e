package model

import (
	"errors"
	"image"
	"image/color"
	"math"
	"path/filepath"
	"testing"

	"github.com/soocke/pixel-macro-go/domain/roi"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x), uint8(y), 0, 255})
		}
	}
	return img
}

func drag(s *ROISelector, x0, y0, x1, y1 int) {
	s.PointerDown(ButtonLeft, x0, y0)
	s.PointerMove((x0+x1)/2, (y0+y1)/2)
	s.PointerMove(x1, y1)
	s.PointerUp(ButtonLeft, x1, y1)
}

func defaultSelector() *ROISelector {
	return NewROISelector(ROISelectorConfig{MinZoom: 0.1, MaxZoom: 10, ZoomStep: 0.1})
}

func TestROISelector_LoadFailureClearsState(t *testing.T) {
	s := defaultSelector()
	s.SetImage(gradient(10, 10), "a.png")
	if err := s.Load(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatalf("expected load error")
	}
	if s.HasImage() || s.Status() != StatusLoadError {
		t.Fatalf("expected cleared state, has=%v status=%q", s.HasImage(), s.Status())
	}
}

func TestROISelector_DragSelectsRegion(t *testing.T) {
	s := defaultSelector()
	s.SetImage(gradient(200, 100), "shot.png")
	if s.Status() != StatusIdle {
		t.Fatalf("unexpected initial status %q", s.Status())
	}
	drag(s, 10, 20, 60, 70)
	want := roi.ROI{X: 10, Y: 20, W: 50, H: 50}
	if got := s.OriginalROI(); got != want {
		t.Fatalf("roi %v want %v", got, want)
	}
	if s.Status() != "Selected: [X: 10, Y: 20, W: 50, H: 50] | Zoom: 100%" {
		t.Fatalf("unexpected status %q", s.Status())
	}
}

func TestROISelector_DragIsNormalisedAndClamped(t *testing.T) {
	s := defaultSelector()
	s.SetImage(gradient(200, 100), "")
	drag(s, 60, 70, 10, 20)
	if got := s.OriginalROI(); got != (roi.ROI{X: 10, Y: 20, W: 50, H: 50}) {
		t.Fatalf("reverse drag roi %v", got)
	}
	drag(s, 190, 90, 300, 300)
	if got := s.OriginalROI(); got != (roi.ROI{X: 190, Y: 90, W: 10, H: 10}) {
		t.Fatalf("clamped roi %v", got)
	}
	drag(s, 5, 5, -20, -20)
	if got := s.OriginalROI(); got != (roi.ROI{X: 0, Y: 0, W: 5, H: 5}) {
		t.Fatalf("negative clamp roi %v", got)
	}
}

func TestROISelector_DragStatusWhileMoving(t *testing.T) {
	s := defaultSelector()
	s.SetImage(gradient(100, 100), "")
	s.PointerDown(ButtonLeft, 1, 2)
	s.PointerMove(11, 22)
	if s.Status() != "ROI: [X: 1, Y: 2, W: 10, H: 20] | Zoom: 100%" {
		t.Fatalf("unexpected status %q", s.Status())
	}
}

func TestROISelector_HoverReportsPosition(t *testing.T) {
	s := defaultSelector()
	s.SetImage(gradient(100, 100), "")
	s.PointerMove(12, 7)
	if s.Status() != "Pos: [X: 12, Y: 7] | Zoom: 100%" {
		t.Fatalf("unexpected status %q", s.Status())
	}
	s.PointerMove(500, 7)
	if s.Status() != "Pos: [X: 12, Y: 7] | Zoom: 100%" {
		t.Fatalf("pointer outside the image must not update status, got %q", s.Status())
	}
}

func TestROISelector_Export(t *testing.T) {
	s := defaultSelector()
	if _, _, err := s.Export(); !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
	s.SetImage(gradient(200, 100), "")
	if _, _, err := s.Export(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	drag(s, 30, 40, 30, 40)
	if _, _, err := s.Export(); !errors.Is(err, roi.ErrInvalidROI) {
		t.Fatalf("expected ErrInvalidROI for empty selection, got %v", err)
	}
	drag(s, 30, 40, 70, 60)
	img, r, err := s.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if r != (roi.ROI{X: 30, Y: 40, W: 40, H: 20}) {
		t.Fatalf("unexpected roi %v", r)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 20 {
		t.Fatalf("unexpected crop size %v", img.Bounds())
	}
	r0, g0, _, _ := img.At(img.Bounds().Min.X, img.Bounds().Min.Y).RGBA()
	if r0>>8 != 30 || g0>>8 != 40 {
		t.Fatalf("crop starts at wrong pixel: r=%d g=%d", r0>>8, g0>>8)
	}
}

func TestROISelector_ResetClearsSelection(t *testing.T) {
	s := defaultSelector()
	s.SetImage(gradient(50, 50), "")
	drag(s, 1, 1, 10, 10)
	s.Reset()
	if s.HasSelection() || s.Status() != StatusReset {
		t.Fatalf("reset failed: has=%v status=%q", s.HasSelection(), s.Status())
	}
	if !s.OriginalROI().IsZero() {
		t.Fatalf("expected zero roi after reset")
	}
}

func TestROISelector_ZoomKeepsPointUnderCursor(t *testing.T) {
	s := defaultSelector()
	s.SetImage(gradient(200, 100), "")
	s.SetViewSize(100, 50)
	if s.Wheel(50, 25, 120, false) {
		t.Fatalf("wheel without ctrl must not zoom")
	}
	before := s.toDisplay(50, 25)
	if !s.Wheel(50, 25, 120, true) {
		t.Fatalf("expected zoom in")
	}
	if math.Abs(s.Zoom()-1.1) > 1e-9 {
		t.Fatalf("zoom %f want 1.1", s.Zoom())
	}
	after := s.toDisplay(50, 25)
	if math.Abs(before.X-after.X) > 1e-9 || math.Abs(before.Y-after.Y) > 1e-9 {
		t.Fatalf("anchor moved from %v to %v", before, after)
	}
	if s.Status() != "Drag to select ROI | Zoom: 110%" {
		t.Fatalf("unexpected status %q", s.Status())
	}
	if !s.Wheel(50, 25, -120, true) || math.Abs(s.Zoom()-0.99) > 1e-9 {
		t.Fatalf("expected zoom out to 0.99, got %f", s.Zoom())
	}
	if s.ZoomPercent() != 99 {
		t.Fatalf("zoom percent %d", s.ZoomPercent())
	}
}

func TestROISelector_ZoomLimits(t *testing.T) {
	s := NewROISelector(ROISelectorConfig{MinZoom: 0.85, MaxZoom: 1.2, ZoomStep: 0.1})
	s.SetImage(gradient(20, 20), "")
	if !s.Wheel(0, 0, 1, true) {
		t.Fatalf("first zoom in should apply")
	}
	if s.Wheel(0, 0, 1, true) {
		t.Fatalf("zoom beyond max must be ignored")
	}
	if math.Abs(s.Zoom()-1.1) > 1e-9 {
		t.Fatalf("zoom changed on ignored step: %f", s.Zoom())
	}
	s.Wheel(0, 0, -1, true) // 0.99
	s.Wheel(0, 0, -1, true) // 0.891
	if s.Wheel(0, 0, -1, true) {
		t.Fatalf("zoom below min must be ignored")
	}
}

func TestROISelector_ZoomedSelectionMapsToImage(t *testing.T) {
	s := NewROISelector(ROISelectorConfig{MinZoom: 0.1, MaxZoom: 10, ZoomStep: 0.5})
	s.SetImage(gradient(200, 100), "")
	s.Wheel(0, 0, 1, true) // 1.5 anchored at origin
	drag(s, 15, 30, 90, 75)
	if got := s.OriginalROI(); got != (roi.ROI{X: 10, Y: 20, W: 50, H: 30}) {
		t.Fatalf("zoomed roi %v", got)
	}
	if s.Status() != "Selected: [X: 10, Y: 20, W: 50, H: 30] | Zoom: 150%" {
		t.Fatalf("unexpected status %q", s.Status())
	}
	v, ok := s.SelectionView()
	if !ok || v != image.Rect(15, 30, 90, 75) {
		t.Fatalf("selection view %v", v)
	}
}

func TestROISelector_PanIsClamped(t *testing.T) {
	s := defaultSelector()
	s.SetImage(gradient(200, 100), "")
	s.SetViewSize(100, 50)
	s.PointerDown(ButtonRight, 50, 25)
	s.PointerMove(30, 15)
	if x, y := s.Offset(); x != 20 || y != 10 {
		t.Fatalf("offset (%v,%v) want (20,10)", x, y)
	}
	s.PointerMove(-500, -500)
	if x, y := s.Offset(); x != 100 || y != 50 {
		t.Fatalf("offset (%v,%v) want clamp (100,50)", x, y)
	}
	s.PointerUp(ButtonRight, 0, 0)
	s.PointerMove(1000, 1000)
	if x, y := s.Offset(); x != 100 || y != 50 {
		t.Fatalf("pan continued after release: (%v,%v)", x, y)
	}
	if s.HasSelection() {
		t.Fatalf("panning must not select")
	}
}

func TestROISelector_DisplayDownscale(t *testing.T) {
	s := NewROISelector(ROISelectorConfig{MaxDisplay: 100})
	s.SetImage(gradient(400, 200), "")
	if s.Scale() != 0.25 {
		t.Fatalf("scale %f want 0.25", s.Scale())
	}
	if b := s.Display().Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Fatalf("display size %v", b)
	}
	drag(s, 10, 10, 20, 30)
	if got := s.OriginalROI(); got != (roi.ROI{X: 40, Y: 40, W: 40, H: 80}) {
		t.Fatalf("original roi %v", got)
	}
	img, _, err := s.Export()
	if err != nil || img.Bounds().Dx() != 40 || img.Bounds().Dy() != 80 {
		t.Fatalf("export from original failed: %v", err)
	}
}
