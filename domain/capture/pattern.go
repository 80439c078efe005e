package capture

import (
	"image"
	"sync"

	"github.com/disintegration/imaging"
)

type prepKey struct {
	scale float64
	color bool
}

// Pattern is a template image together with its cached correlation
// precomputations, one per (scale, colour mode). A Pattern is safe for
// concurrent use.
type Pattern struct {
	src *image.RGBA

	mu    sync.RWMutex
	cache map[prepKey]*prepared
}

// NewPattern wraps img for matching. The image is copied into an RGBA
// buffer anchored at the origin.
func NewPattern(img image.Image) *Pattern {
	if img == nil {
		return nil
	}
	return &Pattern{src: toRGBA(img), cache: map[prepKey]*prepared{}}
}

// Image returns the template pixels.
func (p *Pattern) Image() *image.RGBA {
	if p == nil {
		return nil
	}
	return p.src
}

// Size returns the template dimensions at scale 1.
func (p *Pattern) Size() image.Point {
	if p == nil {
		return image.Point{}
	}
	return p.src.Rect.Size()
}

// at returns a cached or newly built precomputation for the given scale.
// Scaling uses bilinear interpolation on the source pixels. It returns nil
// when the scaled template would be smaller than 2x2.
func (p *Pattern) at(scale float64, color bool) *prepared {
	if p == nil || scale <= 0 {
		return nil
	}
	key := prepKey{scale: scale, color: color}
	p.mu.RLock()
	pc, ok := p.cache[key]
	p.mu.RUnlock()
	if ok {
		return pc
	}

	src := p.src
	if scale != 1.0 {
		w := int(float64(src.Rect.Dx()) * scale)
		h := int(float64(src.Rect.Dy()) * scale)
		if w < 2 || h < 2 {
			return nil
		}
		src = toRGBA(imaging.Resize(src, w, h, imaging.Linear))
	}
	pc = prepare(src, color)

	p.mu.Lock()
	// Keep the first entry if another goroutine raced us.
	if existing, ok := p.cache[key]; ok {
		pc = existing
	} else {
		p.cache[key] = pc
	}
	p.mu.Unlock()
	return pc
}
