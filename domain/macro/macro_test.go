package macro

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/soocke/pixel-macro-go/domain/action"
	"github.com/soocke/pixel-macro-go/domain/capture"
	"github.com/soocke/pixel-macro-go/domain/roi"
	"github.com/soocke/pixel-macro-go/domain/template"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func noiseScreen(w, h int, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = byte(rng.Intn(256)), byte(rng.Intn(256)), byte(rng.Intn(256)), 255
	}
	return img
}

func cropScreen(src *image.RGBA, r image.Rectangle) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		copy(out.Pix[y*out.Stride:(y+1)*out.Stride], src.Pix[src.PixOffset(r.Min.X, r.Min.Y+y):src.PixOffset(r.Max.X, r.Min.Y+y)])
	}
	return out
}

type fakeTarget struct {
	client    image.Rectangle
	clientErr error
	active    bool
	activated int
}

func (f *fakeTarget) IsActive() bool    { return f.active }
func (f *fakeTarget) IsMinimized() bool { return false }
func (f *fakeTarget) Restore() error    { return nil }
func (f *fakeTarget) Activate() error {
	f.activated++
	f.active = true
	return nil
}
func (f *fakeTarget) ClientRect() (image.Rectangle, error) { return f.client, f.clientErr }

// screenGrabber crops a fixed screen image.
type screenGrabber struct {
	screen *image.RGBA
	rects  []image.Rectangle
	err    error
}

func (g *screenGrabber) Name() string { return "fake" }

func (g *screenGrabber) Grab(_ context.Context, r image.Rectangle) (*image.RGBA, error) {
	g.rects = append(g.rects, r)
	if g.err != nil {
		return nil, g.err
	}
	return cropScreen(g.screen, r), nil
}

type mapTemplates map[string]*template.Template

func (m mapTemplates) Get(path string) (*template.Template, error) {
	if t, ok := m[path]; ok {
		return t, nil
	}
	return nil, errors.New("no such template")
}

func newTemplate(path string, img *image.RGBA) *template.Template {
	return &template.Template{Path: path, ROI: roi.ParseName(path), Image: img, Size: img.Bounds().Size(), Pattern: capture.NewPattern(img)}
}

type recorder struct {
	clicks []image.Point
	button action.Button
	keys   []byte
}

func (r *recorder) input() Input {
	return Input{
		Click: func(x, y int, b action.Button) error {
			r.clicks = append(r.clicks, image.Pt(x, y))
			r.button = b
			return nil
		},
		PressKey: func(vk byte) error {
			r.keys = append(r.keys, vk)
			return nil
		},
	}
}

type fixture struct {
	screen  *image.RGBA
	target  *fakeTarget
	grabber *screenGrabber
	tpls    mapTemplates
	rec     *recorder
	m       *Macro
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	screen := noiseScreen(400, 300, 42)
	f := &fixture{
		screen:  screen,
		target:  &fakeTarget{client: image.Rect(100, 50, 300, 250)},
		grabber: &screenGrabber{screen: screen},
		tpls:    mapTemplates{},
		rec:     &recorder{},
	}
	// Template cut from screen (150,100) 10x8, searched in client ROI
	// (20,30,80,60) which is screen (120,80)-(200,140).
	f.tpls["btn_20_30_80_60.png"] = newTemplate("btn_20_30_80_60.png", cropScreen(screen, image.Rect(150, 100, 160, 108)))
	f.tpls["full.png"] = newTemplate("full.png", cropScreen(screen, image.Rect(250, 200, 262, 210)))
	f.tpls["huge_0_0_5_5.png"] = newTemplate("huge_0_0_5_5.png", cropScreen(screen, image.Rect(0, 0, 20, 20)))
	m, err := New(context.Background(), Deps{
		Target:    f.target,
		Grabber:   f.grabber,
		Templates: f.tpls,
		Input:     f.rec.input(),
		Logger:    quietLogger(),
	}, opts)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	f.m = m
	return f
}

func TestNew_ActivatesTarget(t *testing.T) {
	f := newFixture(t, Options{})
	if f.target.activated != 1 {
		t.Fatalf("expected one activation, got %d", f.target.activated)
	}
	g := newFixture(t, Options{NoActivate: true})
	if g.target.activated != 0 {
		t.Fatalf("NoActivate must skip activation")
	}
	if _, err := New(context.Background(), Deps{Grabber: g.grabber}, Options{}); err == nil {
		t.Fatalf("expected error without target")
	}
}

func TestFindImage_MapsCentreThroughROIAndClientOrigin(t *testing.T) {
	f := newFixture(t, Options{NoActivate: true})
	res, err := f.m.FindImage(context.Background(), "btn_20_30_80_60.png", 0.9)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !res.Found {
		t.Fatalf("expected match, got %+v", res)
	}
	if want := image.Pt(155, 104); res.Point != want {
		t.Fatalf("centre %v want %v", res.Point, want)
	}
	if got := f.grabber.rects[0]; got != image.Rect(120, 80, 200, 140) {
		t.Fatalf("captured rect %v", got)
	}
	if res.Score < 0.999 {
		t.Fatalf("expected score ~1, got %f", res.Score)
	}
}

func TestFindImage_ZeroROIUsesWholeClientArea(t *testing.T) {
	f := newFixture(t, Options{NoActivate: true})
	res, err := f.m.FindImage(context.Background(), "full.png", 0)
	if err != nil || !res.Found {
		t.Fatalf("expected match, res=%+v err=%v", res, err)
	}
	if f.grabber.rects[0] != f.target.client {
		t.Fatalf("expected client rect capture, got %v", f.grabber.rects[0])
	}
	if want := image.Pt(256, 205); res.Point != want {
		t.Fatalf("centre %v want %v", res.Point, want)
	}
}

func TestFindImage_TemplateLargerThanRegionIsMiss(t *testing.T) {
	f := newFixture(t, Options{NoActivate: true})
	res, err := f.m.FindImage(context.Background(), "huge_0_0_5_5.png", 0.8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Found || res.Score != 0 || res.Point != (image.Point{}) {
		t.Fatalf("expected plain miss, got %+v", res)
	}
}

func TestFindImage_NoScaleFitsIsMiss(t *testing.T) {
	f := newFixture(t, Options{NoActivate: true, Match: capture.MatchOptions{MinScale: 0.9, MaxScale: 1.1, ScaleStep: 0.1}})
	res, err := f.m.FindImage(context.Background(), "huge_0_0_5_5.png", 0.8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Found || res.Score != 0 {
		t.Fatalf("expected plain miss with score 0, got %+v", res)
	}
}

func TestFindImage_FlatRegionIsMiss(t *testing.T) {
	f := newFixture(t, Options{NoActivate: true})
	grey := color.RGBA{R: 10, G: 10, B: 10, A: 255}
	for y := 80; y < 140; y++ {
		for x := 120; x < 200; x++ {
			f.screen.SetRGBA(x, y, grey)
		}
	}
	res, err := f.m.FindImage(context.Background(), "btn_20_30_80_60.png", 0.8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Found || res.Score != 0 {
		t.Fatalf("expected plain miss with score 0, got %+v", res)
	}
}

func TestFindImage_CaptureFailureIsMiss(t *testing.T) {
	f := newFixture(t, Options{NoActivate: true})
	f.grabber.err = errors.New("device lost")
	res, err := f.m.FindImage(context.Background(), "full.png", 0.8)
	if err != nil {
		t.Fatalf("capture failure must not surface: %v", err)
	}
	if res.Found || res.Score != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestFindImage_Errors(t *testing.T) {
	f := newFixture(t, Options{NoActivate: true})
	if _, err := f.m.FindImage(context.Background(), "missing.png", 0.8); err == nil {
		t.Fatalf("expected template error")
	}
	boom := errors.New("window gone")
	f.target.clientErr = boom
	if _, err := f.m.FindImage(context.Background(), "full.png", 0.8); !errors.Is(err, boom) {
		t.Fatalf("expected client rect error, got %v", err)
	}
}

func TestClickImage(t *testing.T) {
	f := newFixture(t, Options{NoActivate: true, Button: action.ButtonRight, PreDelay: time.Millisecond})
	res, err := f.m.ClickImage(context.Background(), "btn_20_30_80_60.png", 0.9)
	if err != nil || !res.Found {
		t.Fatalf("click: res=%+v err=%v", res, err)
	}
	if len(f.rec.clicks) != 1 || f.rec.clicks[0] != image.Pt(155, 104) || f.rec.button != action.ButtonRight {
		t.Fatalf("unexpected clicks %v button %v", f.rec.clicks, f.rec.button)
	}

	f.grabber.screen = noiseScreen(400, 300, 7)
	if res, err := f.m.ClickImage(context.Background(), "btn_20_30_80_60.png", 0.9); err != nil || res.Found {
		t.Fatalf("expected miss, res=%+v err=%v", res, err)
	}
	if len(f.rec.clicks) != 1 {
		t.Fatalf("miss must not click")
	}
}

func TestPressOnImage(t *testing.T) {
	f := newFixture(t, Options{NoActivate: true})
	if _, err := f.m.PressOnImage(context.Background(), "full.png", 0.9, 0x72); err != nil {
		t.Fatal(err)
	}
	if len(f.rec.keys) != 1 || f.rec.keys[0] != 0x72 {
		t.Fatalf("unexpected keys %v", f.rec.keys)
	}
}

func TestAct_OrderAndCancellation(t *testing.T) {
	ran := false
	if err := Act(context.Background(), time.Millisecond, time.Millisecond, func() error { ran = true; return nil }); err != nil || !ran {
		t.Fatalf("act: ran=%v err=%v", ran, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ran = false
	if err := Act(ctx, time.Hour, 0, func() error { ran = true; return nil }); !errors.Is(err, context.Canceled) || ran {
		t.Fatalf("cancelled act: ran=%v err=%v", ran, err)
	}
}

func TestCapture_SavesImage(t *testing.T) {
	f := newFixture(t, Options{NoActivate: true})
	out := filepath.Join(t.TempDir(), "cap.png")
	img, err := f.m.Capture(context.Background(), CaptureOptions{ROI: roi.ROI{X: 10, Y: 10, W: 30, H: 20}, SavePath: out})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if img.Bounds().Dx() != 30 || img.Bounds().Dy() != 20 {
		t.Fatalf("unexpected size %v", img.Bounds())
	}
	saved, err := imaging.Open(out)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if saved.Bounds().Dx() != 30 || saved.Bounds().Dy() != 20 {
		t.Fatalf("unexpected saved size %v", saved.Bounds())
	}
}
