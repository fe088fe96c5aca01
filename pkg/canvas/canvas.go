// Package canvas holds the freehand drawing layer: an RGBA surface painted with
// round-capped strokes and stored as a PNG data URI.
package canvas

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultStrokeWidth is the pen width in pixels.
	DefaultStrokeWidth = 4

	DefaultWidth  = 1280
	DefaultHeight = 800
)

// Surface is a transparent raster the pen draws on.
type Surface struct {
	img *image.RGBA
}

// NewSurface creates a blank surface of the given size.
func NewSurface(width, height int) *Surface {
	return &Surface{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// FromImage creates a surface of the given size with src painted at the origin.
// Parts of src outside the surface are cropped.
func FromImage(src image.Image, width, height int) *Surface {
	s := NewSurface(width, height)
	if src != nil {
		draw.Draw(s.img, s.img.Bounds(), src, src.Bounds().Min, draw.Src)
	}
	return s
}

// Image returns the underlying raster.
func (s *Surface) Image() *image.RGBA {
	return s.img
}

// Clone returns an independent copy of the raster.
func (s *Surface) Clone() *image.RGBA {
	out := image.NewRGBA(s.img.Bounds())
	copy(out.Pix, s.img.Pix)
	return out
}

// Bounds returns the surface rectangle.
func (s *Surface) Bounds() image.Rectangle {
	return s.img.Bounds()
}

// Clear makes every pixel transparent.
func (s *Surface) Clear() {
	clear(s.img.Pix)
}

// Empty reports whether nothing has been painted.
func (s *Surface) Empty() bool {
	for i := 3; i < len(s.img.Pix); i += 4 {
		if s.img.Pix[i] != 0 {
			return false
		}
	}
	return true
}

// Stroke paints a polyline through points with round caps and joins.
// A single point paints a dot. width below 1 uses DefaultStrokeWidth.
func (s *Surface) Stroke(points []image.Point, c color.Color, width int) {
	if len(points) == 0 {
		return
	}
	if width < 1 {
		width = DefaultStrokeWidth
	}
	r := float64(width) / 2

	s.dot(points[0], r, c)
	for i := 1; i < len(points); i++ {
		s.segment(points[i-1], points[i], r, c)
	}
}

// segment stamps discs along a-b at sub-pixel spacing.
func (s *Surface) segment(a, b image.Point, r float64, c color.Color) {
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
	steps := int(math.Ceil(math.Hypot(dx, dy) * 2))
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		s.disc(float64(a.X)+dx*t, float64(a.Y)+dy*t, r, c)
	}
}

func (s *Surface) dot(p image.Point, r float64, c color.Color) {
	s.disc(float64(p.X), float64(p.Y), r, c)
}

func (s *Surface) disc(cx, cy, r float64, c color.Color) {
	bounds := s.img.Bounds()
	x0 := max(int(math.Floor(cx-r)), bounds.Min.X)
	x1 := min(int(math.Ceil(cx+r)), bounds.Max.X-1)
	y0 := max(int(math.Floor(cy-r)), bounds.Min.Y)
	y1 := min(int(math.Ceil(cy+r)), bounds.Max.Y-1)

	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			px, py := float64(x)+0.5-cx, float64(y)+0.5-cy
			if px*px+py*py <= r*r {
				s.img.Set(x, y, c)
			}
		}
	}
}

// ParseColor parses "#rgb" or "#rrggbb" into an opaque colour.
func ParseColor(s string) (color.RGBA, error) {
	hex, ok := strings.CutPrefix(strings.TrimSpace(s), "#")
	if !ok {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: missing #", s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
