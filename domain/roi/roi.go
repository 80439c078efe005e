// Package roi implements the region-of-interest naming convention shared by
// the ROI tool and the macro runtime: a template exported from a screenshot
// carries the rectangle it was cut from in its filename, e.g.
// "ok_button_717_191_45_28.png" was cropped at x=717 y=191 w=45 h=28 of the
// window client area.
package roi

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrInvalidROI reports a rectangle that does not overlap the image it is
// applied to or has no area.
var ErrInvalidROI = errors.New("roi: invalid region")

// fieldSep separates the name and the four encoded integers.
const fieldSep = "_"

// defaultExt is used when a save path carries no extension.
const defaultExt = ".png"

// ROI is a rectangle relative to the window client area. The zero value
// means "no crop".
type ROI struct {
	X, Y, W, H int
}

// FromRect converts an image.Rectangle to an ROI.
func FromRect(r image.Rectangle) ROI {
	r = r.Canon()
	return ROI{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()}
}

// IsZero reports whether r is the "no crop" value.
func (r ROI) IsZero() bool { return r == ROI{} }

// Rect returns r as an image.Rectangle.
func (r ROI) Rect() image.Rectangle { return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H) }

func (r ROI) String() string {
	return fmt.Sprintf("[X: %d, Y: %d, W: %d, H: %d]", r.X, r.Y, r.W, r.H)
}

// ParseName extracts the ROI encoded in the last four underscore separated
// fields of the file stem. Names that do not carry four non-negative
// integers yield the zero ROI.
func ParseName(path string) ROI {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	fields := strings.Split(stem, fieldSep)
	if len(fields) < 4 {
		return ROI{}
	}
	var v [4]int
	for i, f := range fields[len(fields)-4:] {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return ROI{}
		}
		v[i] = n
	}
	return ROI{X: v[0], Y: v[1], W: v[2], H: v[3]}
}

// EncodeName inserts "_x_y_w_h" before the extension of savePath. A path
// without extension is given ".png".
func EncodeName(savePath string, r ROI) string {
	ext := filepath.Ext(savePath)
	stem := strings.TrimSuffix(savePath, ext)
	if ext == "" || ext == "." {
		ext = defaultExt
	}
	return fmt.Sprintf("%s_%d_%d_%d_%d%s", stem, r.X, r.Y, r.W, r.H, ext)
}

// Clamp fits r inside bounds (given as width and height from the origin).
// The origin must lie inside the image and the size must be positive;
// otherwise ErrInvalidROI is returned.
func Clamp(r ROI, bounds image.Point) (ROI, error) {
	if r.X >= bounds.X || r.Y >= bounds.Y || r.W <= 0 || r.H <= 0 {
		return ROI{}, fmt.Errorf("%w: %v in %dx%d", ErrInvalidROI, r, bounds.X, bounds.Y)
	}
	r.X = max(0, min(r.X, bounds.X-1))
	r.Y = max(0, min(r.Y, bounds.Y-1))
	r.W = min(r.W, bounds.X-r.X)
	r.H = min(r.H, bounds.Y-r.Y)
	return r, nil
}

// Apply returns the capture rectangle for r inside client, both in screen
// coordinates. The zero ROI selects the whole client area.
func Apply(r ROI, client image.Rectangle) image.Rectangle {
	if r.IsZero() {
		return client
	}
	return r.Rect().Add(client.Min)
}
