package images

import (
	"bytes"
	"image"
	"image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// EncodePNG encodes an image to PNG bytes. Errors are ignored and may return an empty slice.
func EncodePNG(img image.Image) []byte {
	if img == nil {
		return nil
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// Render draws the part of src visible through a viewW x viewH viewport
// at the given zoom, where (offX, offY) is the viewport origin in zoomed
// pixels. Areas outside the image stay transparent. Nearest-neighbour
// sampling keeps individual pixels visible at high zoom.
func Render(src image.Image, zoom, offX, offY float64, viewW, viewH int) *image.RGBA {
	if viewW < 1 {
		viewW = 1
	}
	if viewH < 1 {
		viewH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, viewW, viewH))
	if src == nil || zoom <= 0 {
		return dst
	}
	b := src.Bounds()
	// Maps source pixel space into viewport pixel space.
	m := f64.Aff3{
		zoom, 0, -offX - float64(b.Min.X)*zoom,
		0, zoom, -offY - float64(b.Min.Y)*zoom,
	}
	draw.NearestNeighbor.Transform(dst, m, src, b, draw.Src, nil)
	return dst
}
