package presenter

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/soocke/pixel-macro-go/ui/images"
	"github.com/soocke/pixel-macro-go/ui/model"
)

type mockROIView struct {
	img      image.Image
	images   int
	status   string
	openPath string
	savePath string
	saveSeed string
	infos    []string
	warnings []string
	errs     []string
}

func (v *mockROIView) SetImage(img image.Image)          { v.img = img; v.images++ }
func (v *mockROIView) SetStatus(text string)             { v.status = text }
func (v *mockROIView) AskOpenPath() string               { return v.openPath }
func (v *mockROIView) AskSavePath(initial string) string { v.saveSeed = initial; return v.savePath }
func (v *mockROIView) ShowInfo(msg string)               { v.infos = append(v.infos, msg) }
func (v *mockROIView) ShowWarning(msg string)            { v.warnings = append(v.warnings, msg) }
func (v *mockROIView) ShowError(msg string)              { v.errs = append(v.errs, msg) }

func writeImage(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x), uint8(y), 90, 255})
		}
	}
	path := filepath.Join(dir, "shot.png")
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("save fixture: %v", err)
	}
	return path
}

func newROIPresenter(v *mockROIView) *ROIPresenter {
	m := model.NewROISelector(model.ROISelectorConfig{MinZoom: 0.1, MaxZoom: 10, ZoomStep: 0.1})
	return NewROIPresenter(m, v, nil)
}

func TestROIPresenter_OpenRendersImage(t *testing.T) {
	dir := t.TempDir()
	v := &mockROIView{openPath: writeImage(t, dir, 60, 40)}
	p := newROIPresenter(v)
	p.Open()
	if v.img == nil || v.img.Bounds().Dx() != 60 || v.img.Bounds().Dy() != 40 {
		t.Fatalf("expected rendered 60x40 image, got %v", v.img)
	}
	if v.status != model.StatusIdle {
		t.Fatalf("unexpected status %q", v.status)
	}
}

func TestROIPresenter_OpenCancelledDoesNothing(t *testing.T) {
	v := &mockROIView{}
	p := newROIPresenter(v)
	p.Open()
	if v.images != 0 || len(v.errs) != 0 {
		t.Fatalf("cancelled open should not touch the view")
	}
}

func TestROIPresenter_OpenFailureShowsError(t *testing.T) {
	v := &mockROIView{openPath: filepath.Join(t.TempDir(), "nope.png")}
	p := newROIPresenter(v)
	p.Open()
	if len(v.errs) != 1 || v.errs[0] != model.StatusLoadError {
		t.Fatalf("expected load error, got %v", v.errs)
	}
	if v.img != nil || v.status != model.StatusLoadError {
		t.Fatalf("expected cleared view, img=%v status=%q", v.img, v.status)
	}
}

func TestROIPresenter_SelectionDrawnOnViewport(t *testing.T) {
	dir := t.TempDir()
	v := &mockROIView{openPath: writeImage(t, dir, 60, 40)}
	p := newROIPresenter(v)
	p.Open()
	p.PointerDown(model.ButtonLeft, 10, 10)
	p.PointerMove(30, 20)
	p.PointerUp(model.ButtonLeft, 30, 20)
	rgba, ok := v.img.(*image.RGBA)
	if !ok {
		t.Fatalf("expected *image.RGBA frame, got %T", v.img)
	}
	if rgba.RGBAAt(10, 10) != images.SelectionStroke {
		t.Fatalf("selection border missing at (10,10): %v", rgba.RGBAAt(10, 10))
	}
	if !strings.HasPrefix(v.status, "Selected: [X: 10, Y: 10, W: 20, H: 10]") {
		t.Fatalf("unexpected status %q", v.status)
	}
}

func TestROIPresenter_ExportWritesEncodedName(t *testing.T) {
	dir := t.TempDir()
	src := writeImage(t, dir, 60, 40)
	v := &mockROIView{openPath: src, savePath: filepath.Join(dir, "button.png")}
	p := newROIPresenter(v)
	p.Open()
	p.PointerDown(model.ButtonLeft, 5, 6)
	p.PointerUp(model.ButtonLeft, 25, 16)

	out := p.Export()
	want := filepath.Join(dir, "button_5_6_20_10.png")
	if out != want {
		t.Fatalf("exported to %q want %q", out, want)
	}
	if v.saveSeed != src {
		t.Fatalf("save dialog seeded with %q want %q", v.saveSeed, src)
	}
	img, err := imaging.Open(out)
	if err != nil {
		t.Fatalf("open exported: %v", err)
	}
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 10 {
		t.Fatalf("unexpected export size %v", img.Bounds())
	}
	if len(v.infos) != 1 || !strings.Contains(v.infos[0], want) {
		t.Fatalf("expected success message, got %v", v.infos)
	}
	if v.status != "Saved: "+want {
		t.Fatalf("unexpected status %q", v.status)
	}
}

func TestROIPresenter_ExportWithoutSelectionWarns(t *testing.T) {
	v := &mockROIView{}
	p := newROIPresenter(v)
	if p.Export() != "" || len(v.warnings) != 1 {
		t.Fatalf("expected warning without image, got %v", v.warnings)
	}
	v.openPath = writeImage(t, t.TempDir(), 20, 20)
	p.Open()
	p.Reset()
	if p.Export() != "" || len(v.warnings) != 2 {
		t.Fatalf("expected warning without selection, got %v", v.warnings)
	}
	if v.status != model.StatusReset {
		t.Fatalf("unexpected status %q", v.status)
	}
}

func TestROIPresenter_ExportEmptySelectionIsInvalid(t *testing.T) {
	v := &mockROIView{openPath: writeImage(t, t.TempDir(), 20, 20), savePath: "unused.png"}
	p := newROIPresenter(v)
	p.Open()
	p.PointerDown(model.ButtonLeft, 4, 4)
	p.PointerUp(model.ButtonLeft, 4, 4)
	if p.Export() != "" || len(v.errs) != 1 || v.errs[0] != "Invalid ROI" {
		t.Fatalf("expected invalid roi error, got %v", v.errs)
	}
}

func TestROIPresenter_ExportSaveFailure(t *testing.T) {
	dir := t.TempDir()
	v := &mockROIView{openPath: writeImage(t, dir, 20, 20), savePath: filepath.Join(dir, "x.png")}
	p := newROIPresenter(v)
	p.save = func(image.Image, string) error { return errors.New("disk full") }
	p.Open()
	p.PointerDown(model.ButtonLeft, 0, 0)
	p.PointerUp(model.ButtonLeft, 5, 5)
	if p.Export() != "" {
		t.Fatalf("expected no output on save failure")
	}
	if len(v.errs) != 1 || !strings.Contains(v.errs[0], "disk full") {
		t.Fatalf("expected save error, got %v", v.errs)
	}
}

func TestROIPresenter_ExportCancelledSaveDialog(t *testing.T) {
	v := &mockROIView{openPath: writeImage(t, t.TempDir(), 20, 20)}
	p := newROIPresenter(v)
	p.Open()
	p.PointerDown(model.ButtonLeft, 0, 0)
	p.PointerUp(model.ButtonLeft, 5, 5)
	if p.Export() != "" || len(v.errs)+len(v.infos) != 0 {
		t.Fatalf("cancelled save should be silent")
	}
}

func TestROIPresenter_WheelRerendersOnlyOnZoom(t *testing.T) {
	v := &mockROIView{openPath: writeImage(t, t.TempDir(), 40, 40)}
	p := newROIPresenter(v)
	p.Open()
	p.Resize(40, 40)
	n := v.images
	p.Wheel(20, 20, 120, false)
	if v.images != n {
		t.Fatalf("plain wheel should not re-render")
	}
	p.Wheel(20, 20, 120, true)
	if v.images != n+1 || v.status != "Drag to select ROI | Zoom: 110%" {
		t.Fatalf("ctrl wheel should re-render, images=%d status=%q", v.images, v.status)
	}
	if b := v.img.Bounds(); b.Dx() != 40 || b.Dy() != 40 {
		t.Fatalf("viewport should keep view size, got %v", b)
	}
}
