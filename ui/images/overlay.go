package images

import (
	"image"
	"image/color"
	"image/draw"
)

var (
	// SelectionStroke outlines the selected region.
	SelectionStroke = color.RGBA{255, 0, 0, 255}
	// SelectionFill tints the selected region (premultiplied, alpha 50).
	SelectionFill = color.RGBA{50, 0, 0, 50}
)

// DrawSelection paints the selection r onto dst in place: a translucent
// fill and a border of the given width. r is clipped to dst.
func DrawSelection(dst *image.RGBA, r image.Rectangle, width int) {
	if dst == nil {
		return
	}
	r = r.Canon()
	clip := r.Intersect(dst.Bounds())
	if clip.Empty() {
		return
	}
	if width < 1 {
		width = 1
	}
	draw.Draw(dst, clip, image.NewUniform(SelectionFill), image.Point{}, draw.Over)
	stroke := image.NewUniform(SelectionStroke)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width),
		image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+width, r.Max.Y),
		image.Rect(r.Max.X-width, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		e = e.Intersect(r).Intersect(dst.Bounds())
		if !e.Empty() {
			draw.Draw(dst, e, stroke, image.Point{}, draw.Src)
		}
	}
}
