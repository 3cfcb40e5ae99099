// Package raster turns strokes into the fixed-size bitmaps the classifiers
// consume.
package raster

import (
	"image"
	"image/color"
	"math"

	"sketchsynth/internal/state"

	"golang.org/x/image/vector"
)

// DefaultLineWidth is the pen width in raster pixels.
const DefaultLineWidth = 0.5

// Rasterizer draws polylines as thin white lines on a black square.
type Rasterizer struct {
	width, height int
	lineWidth     float64
	ras           *vector.Rasterizer
}

// New returns a rasterizer producing width x height images. Non-positive
// sizes panic.
func New(width, height int, lineWidth float64) *Rasterizer {
	if width <= 0 || height <= 0 {
		panic("raster: image size must be positive")
	}
	if lineWidth <= 0 {
		lineWidth = DefaultLineWidth
	}
	return &Rasterizer{
		width:     width,
		height:    height,
		lineWidth: lineWidth,
		ras:       vector.NewRasterizer(width, height),
	}
}

// Size returns the output dimensions.
func (r *Rasterizer) Size() (int, int) { return r.width, r.height }

// Draw crops strokes to box and scales them isotropically so the longer side
// of box spans the image. The shorter axis is left padded. An empty box
// yields a blank image.
func (r *Rasterizer) Draw(strokes [][]state.Point, box state.Box) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, r.width, r.height))
	side := math.Max(box.W, box.H)
	if side <= 0 || math.IsNaN(side) {
		return dst
	}
	sx := float64(r.width) / side
	sy := float64(r.height) / side

	r.ras.Reset(r.width, r.height)
	drawn := false
	for _, pts := range strokes {
		for i := 1; i < len(pts); i++ {
			a := [2]float64{(pts[i-1].X - box.X) * sx, (pts[i-1].Y - box.Y) * sy}
			b := [2]float64{(pts[i].X - box.X) * sx, (pts[i].Y - box.Y) * sy}
			drawn = r.segment(a, b) || drawn
		}
	}
	if drawn {
		r.ras.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{})
	}
	return dst
}

// segment adds the quad covering a->b at the pen width. Every quad is wound
// the same way, so overlapping segments accumulate instead of cancelling.
func (r *Rasterizer) segment(a, b [2]float64) bool {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l := math.Hypot(dx, dy)
	if l == 0 {
		return false
	}
	h := r.lineWidth / 2
	nx, ny := -dy/l*h, dx/l*h
	r.ras.MoveTo(float32(a[0]+nx), float32(a[1]+ny))
	r.ras.LineTo(float32(b[0]+nx), float32(b[1]+ny))
	r.ras.LineTo(float32(b[0]-nx), float32(b[1]-ny))
	r.ras.LineTo(float32(a[0]-nx), float32(a[1]-ny))
	r.ras.ClosePath()
	return true
}
