package state

import "math"

// Box is an axis-aligned region in canvas pixels: top-left corner plus size.
type Box struct {
	X, Y, W, H float64
}

// Empty reports whether the box has nothing to scale: both sides are zero.
func (b Box) Empty() bool { return b.W <= 0 && b.H <= 0 }

// Bounds scans every point of sets and returns their bounding box. The scan
// starts from a collapsed box at (width, height), so an empty input yields
// Box{width, height, 0, 0}.
func Bounds(width, height float64, sets ...[]Point) Box {
	minX, minY := width, height
	maxX, maxY := 0.0, 0.0
	for _, pts := range sets {
		for _, p := range pts {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
	}
	return Box{X: minX, Y: minY, W: math.Max(maxX-minX, 0), H: math.Max(maxY-minY, 0)}
}

// Placement is a box normalised to the canvas, with Y pointing up.
type Placement struct {
	CenterX, CenterY, Width, Height float64
}

// Normalize expresses b relative to a canvas of the given size.
func (b Box) Normalize(width, height float64) Placement {
	return Placement{
		CenterX: (b.X + 0.5*b.W) / width,
		CenterY: 1 - (b.Y+0.5*b.H)/height,
		Width:   b.W / width,
		Height:  b.H / height,
	}
}
