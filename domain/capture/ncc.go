package capture

import (
	"image"
	"image/draw"
	"math"
	"time"
)

// planeSet stores per-channel pixel values of a frame together with their
// summed-area tables (integral images). The integrals allow O(1) window sum
// and variance queries. Integrals are (W+1)*(H+1) with a zero first row and
// column.
type planeSet struct {
	W, H       int
	planes     [][]int32
	integral   [][]int64
	integralSq [][]int64
}

// prepared caches pixel values and summary statistics for a template (or a
// scaled version of it).
type prepared struct {
	W, H   int
	planes [][]int32
	// opaque lists template pixel indices with alpha != 0. It is nil when
	// every pixel is opaque, which enables the integral fast path.
	opaque []int
	n      int64
	sumT   []int64
	sumT2  []int64
	// varT is sum over channels of n*sumT2 - sumT^2.
	varT float64
}

// luma returns the Rec.709 luminance of an 8-bit RGB triple.
func luma(r, g, b uint8) int32 {
	return (2126*int32(r) + 7152*int32(g) + 722*int32(b) + 5000) / 10000
}

// toRGBA returns img as *image.RGBA with bounds starting at the origin.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// splitPlanes converts img into one luminance plane or three RGB planes.
// Pixels with alpha==0 are reported through the returned mask.
func splitPlanes(img *image.RGBA, color bool) (planes [][]int32, transparent []bool) {
	b := img.Bounds()
	W, H := b.Dx(), b.Dy()
	count := 1
	if color {
		count = 3
	}
	planes = make([][]int32, count)
	for c := range planes {
		planes[c] = make([]int32, W*H)
	}
	for y := 0; y < H; y++ {
		row := img.Pix[(y)*img.Stride:]
		for x := 0; x < W; x++ {
			i := x * 4
			r, g, bb, a := row[i], row[i+1], row[i+2], row[i+3]
			off := y*W + x
			if a == 0 {
				if transparent == nil {
					transparent = make([]bool, W*H)
				}
				transparent[off] = true
			}
			if color {
				planes[0][off] = int32(r)
				planes[1][off] = int32(g)
				planes[2][off] = int32(bb)
				continue
			}
			planes[0][off] = luma(r, g, bb)
		}
	}
	return planes, transparent
}

// buildPlaneSet computes channel planes and their summed-area tables for a
// frame. Frame alpha is ignored.
func buildPlaneSet(frame *image.RGBA, color bool) *planeSet {
	if frame == nil {
		return nil
	}
	frame = toRGBA(frame)
	planes, _ := splitPlanes(frame, color)
	W, H := frame.Rect.Dx(), frame.Rect.Dy()
	ps := &planeSet{W: W, H: H, planes: planes}
	stride := W + 1
	for _, p := range planes {
		integ := make([]int64, stride*(H+1))
		integSq := make([]int64, stride*(H+1))
		for y := 0; y < H; y++ {
			var rowSum, rowSum2 int64
			for x := 0; x < W; x++ {
				v := int64(p[y*W+x])
				rowSum += v
				rowSum2 += v * v
				integ[(y+1)*stride+x+1] = integ[y*stride+x+1] + rowSum
				integSq[(y+1)*stride+x+1] = integSq[y*stride+x+1] + rowSum2
			}
		}
		ps.integral = append(ps.integral, integ)
		ps.integralSq = append(ps.integralSq, integSq)
	}
	return ps
}

// windowSum returns the sum over the w*h window at (x,y) from an integral
// image with row stride W+1.
func windowSum(I []int64, W, x, y, w, h int) int64 {
	s := W + 1
	return I[(y+h)*s+x+w] - I[y*s+x+w] - I[(y+h)*s+x] + I[y*s+x]
}

// prepare precomputes template statistics. It returns nil for empty or
// fully transparent templates.
func prepare(tmpl *image.RGBA, color bool) *prepared {
	if tmpl == nil {
		return nil
	}
	w, h := tmpl.Rect.Dx(), tmpl.Rect.Dy()
	if w == 0 || h == 0 {
		return nil
	}
	planes, transparent := splitPlanes(toRGBA(tmpl), color)
	pc := &prepared{W: w, H: h, planes: planes}
	if transparent != nil {
		for i, t := range transparent {
			if !t {
				pc.opaque = append(pc.opaque, i)
			}
		}
		if len(pc.opaque) == 0 {
			return nil
		}
		pc.n = int64(len(pc.opaque))
	} else {
		pc.n = int64(w * h)
	}
	pc.sumT = make([]int64, len(planes))
	pc.sumT2 = make([]int64, len(planes))
	for c, p := range planes {
		var s, s2 int64
		if pc.opaque == nil {
			for _, v := range p {
				s += int64(v)
				s2 += int64(v) * int64(v)
			}
		} else {
			for _, i := range pc.opaque {
				s += int64(p[i])
				s2 += int64(p[i]) * int64(p[i])
			}
		}
		pc.sumT[c], pc.sumT2[c] = s, s2
		pc.varT += float64(pc.n*s2 - s*s)
	}
	return pc
}

// matcher scores template windows against one frame.
type matcher struct {
	fp *planeSet
	tp *prepared
	// frameOff maps template pixel index to frame offset relative to the
	// window origin.
	frameOff []int
}

func newMatcher(fp *planeSet, tp *prepared) *matcher {
	m := &matcher{fp: fp, tp: tp}
	if tp.opaque != nil {
		m.frameOff = make([]int, len(tp.opaque))
		for k, i := range tp.opaque {
			m.frameOff[k] = (i/tp.W)*fp.W + i%tp.W
		}
	}
	return m
}

// scoreAt returns the TM_CCOEFF_NORMED score of the window at (x,y). ok is
// false when the frame window is flat.
func (m *matcher) scoreAt(x, y int) (score float64, ok bool) {
	fp, tp := m.fp, m.tp
	n := tp.n
	var numer, varI float64
	base := y*fp.W + x
	for c := range fp.planes {
		fv := fp.planes[c]
		tv := tp.planes[c]
		var sumI, sumI2, sumTI int64
		if tp.opaque == nil {
			sumI = windowSum(fp.integral[c], fp.W, x, y, tp.W, tp.H)
			sumI2 = windowSum(fp.integralSq[c], fp.W, x, y, tp.W, tp.H)
			for ty := 0; ty < tp.H; ty++ {
				frow := fv[base+ty*fp.W : base+ty*fp.W+tp.W]
				trow := tv[ty*tp.W : ty*tp.W+tp.W]
				for tx, t := range trow {
					sumTI += int64(frow[tx]) * int64(t)
				}
			}
		} else {
			for k, i := range tp.opaque {
				v := int64(fv[base+m.frameOff[k]])
				sumI += v
				sumI2 += v * v
				sumTI += v * int64(tv[i])
			}
		}
		numer += float64(n*sumTI - tp.sumT[c]*sumI)
		varI += float64(n*sumI2 - sumI*sumI)
	}
	if varI <= 0 {
		return 0, false
	}
	score = numer / math.Sqrt(tp.varT*varI)
	return math.Max(-1, math.Min(1, score)), true
}

// exactAt reports whether the window at (x,y) equals the template on every
// opaque pixel.
func (m *matcher) exactAt(x, y int) bool {
	fp, tp := m.fp, m.tp
	base := y*fp.W + x
	for c := range fp.planes {
		fv, tv := fp.planes[c], tp.planes[c]
		if tp.opaque == nil {
			for i, t := range tv {
				if fv[base+(i/tp.W)*fp.W+i%tp.W] != t {
					return false
				}
			}
			continue
		}
		for k, i := range tp.opaque {
			if fv[base+m.frameOff[k]] != tv[i] {
				return false
			}
		}
	}
	return true
}

// matchPrepared computes normalized cross-correlation between a prepared
// template and a frame plane set and returns the best window.
func matchPrepared(fp *planeSet, tp *prepared, opts MatchOptions) MatchResult {
	start := time.Now()
	res := MatchResult{Score: -1, Scale: 1}
	if fp == nil || tp == nil {
		return res
	}
	W, H := fp.W, fp.H
	w, h := tp.W, tp.H
	res.W, res.H = w, h
	if W < w || H < h {
		return res
	}
	m := newMatcher(fp, tp)

	// A flat template has no variance to correlate with; look for an exact
	// copy instead.
	if tp.varT <= 0 {
		res.Score = 0
		for y := 0; y <= H-h; y++ {
			for x := 0; x <= W-w; x++ {
				if m.exactAt(x, y) {
					res.X, res.Y, res.Score = x, y, 1
					res.Found = true
					res.Duration = time.Since(start)
					return res
				}
			}
		}
		res.Duration = time.Since(start)
		return res
	}

	stride := opts.Stride
	if stride <= 0 {
		stride = 1
	}
	bestX, bestY, bestScore := 0, 0, -1.0
	scan := func(minX, maxX, minY, maxY, step int) {
		for y := minY; y <= maxY; y += step {
			for x := minX; x <= maxX; x += step {
				s, ok := m.scoreAt(x, y)
				if ok && s > bestScore {
					bestScore, bestX, bestY = s, x, y
				}
			}
		}
	}
	scan(0, W-w, 0, H-h, stride)
	if opts.Refine && stride > 1 && bestScore > -1 {
		scan(max(0, bestX-stride), min(W-w, bestX+stride), max(0, bestY-stride), min(H-h, bestY+stride), 1)
	}
	res.X, res.Y, res.Score = bestX, bestY, bestScore
	res.Found = bestScore >= opts.threshold()
	res.Duration = time.Since(start)
	return res
}
