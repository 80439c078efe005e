package capture

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"
)

type fakeGrabber struct {
	fails int
	nils  int
	calls int
	err   error
}

func (f *fakeGrabber) Name() string { return "fake" }

func (f *fakeGrabber) Grab(_ context.Context, rect image.Rectangle) (*image.RGBA, error) {
	f.calls++
	if f.calls <= f.nils {
		return nil, nil
	}
	if f.calls <= f.nils+f.fails {
		if f.err != nil {
			return nil, f.err
		}
		return nil, errors.New("transient")
	}
	return image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy())), nil
}

func TestWithRetry_RecoversFromTransientFailure(t *testing.T) {
	f := &fakeGrabber{fails: 1}
	g := WithRetry(f, 1, 0, nil)
	img, err := g.Grab(context.Background(), image.Rect(0, 0, 4, 3))
	if err != nil || img == nil {
		t.Fatalf("expected frame after retry, err=%v", err)
	}
	if f.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", f.calls)
	}
}

func TestWithRetry_NilImageCountsAsFailure(t *testing.T) {
	f := &fakeGrabber{nils: 5}
	g := WithRetry(f, 2, time.Millisecond, nil)
	_, err := g.Grab(context.Background(), image.Rect(0, 0, 4, 3))
	if !errors.Is(err, ErrNoFrame) {
		t.Fatalf("expected ErrNoFrame, got %v", err)
	}
	if f.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", f.calls)
	}
}

func TestWithRetry_DoesNotRetryPermanentErrors(t *testing.T) {
	f := &fakeGrabber{fails: 5, err: ErrUnsupported}
	g := WithRetry(f, 3, 0, nil)
	if _, err := g.Grab(context.Background(), image.Rect(0, 0, 1, 1)); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if f.calls != 1 {
		t.Fatalf("expected a single call, got %d", f.calls)
	}
}

func TestWithRetry_HonoursContext(t *testing.T) {
	f := &fakeGrabber{fails: 5}
	g := WithRetry(f, 3, time.Hour, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := g.Grab(ctx, image.Rect(0, 0, 1, 1)); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestWithRetry_ZeroRetriesReturnsInner(t *testing.T) {
	f := &fakeGrabber{}
	if g := WithRetry(f, 0, 0, nil); g != Grabber(f) {
		t.Fatalf("expected the inner grabber back")
	}
}

func TestNewGrabber_PortableBackends(t *testing.T) {
	for _, name := range []string{BackendScreenshot, BackendDisplay} {
		g, err := NewGrabber(name, GrabberOptions{})
		if err != nil || g.Name() != name {
			t.Fatalf("backend %s: %v", name, err)
		}
	}
	if _, err := NewGrabber("bogus", GrabberOptions{}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
	g, err := NewGrabber(BackendScreenshot, GrabberOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Grab(context.Background(), image.Rectangle{}); !errors.Is(err, ErrEmptyRect) {
		t.Fatalf("expected ErrEmptyRect, got %v", err)
	}
}

func TestFramePool_ReusesBuffers(t *testing.T) {
	a := acquireFrame(image.Rect(0, 0, 8, 8))
	if len(a.Pix) != 8*8*4 || a.Stride != 32 {
		t.Fatalf("unexpected frame layout len=%d stride=%d", len(a.Pix), a.Stride)
	}
	RecycleFrame(a)
	b := acquireFrame(image.Rect(0, 0, 4, 4))
	if len(b.Pix) != 4*4*4 || b.Stride != 16 {
		t.Fatalf("unexpected recycled layout len=%d stride=%d", len(b.Pix), b.Stride)
	}
}

func TestClip(t *testing.T) {
	// Two monitors side by side, the left one at negative coordinates.
	screen := image.Rect(-1920, 0, 1920, 1080)
	got, err := clip(image.Rect(1900, 1000, 2000, 1100), screen, "screen")
	if err != nil || got != image.Rect(1900, 1000, 1920, 1080) {
		t.Fatalf("partial overlap: got %v, %v", got, err)
	}
	if got, err := clip(image.Rect(-100, 10, -50, 20), screen, "screen"); err != nil || got != image.Rect(-100, 10, -50, 20) {
		t.Fatalf("left monitor: got %v, %v", got, err)
	}
	for _, r := range []image.Rectangle{
		image.Rect(4000, 100, 4100, 200),
		image.Rect(0, -300, 50, -10),
		{},
	} {
		if _, err := clip(r, screen, "screen"); !errors.Is(err, ErrEmptyRect) {
			t.Fatalf("%v: expected ErrEmptyRect, got %v", r, err)
		}
	}
}
