package ui

import (
	"math"

	"sketchsynth/internal/state"

	"fyne.io/fyne/v2"
)

// curveStep is the longest chord, in pixels, a curve piece may span before
// it is subdivided.
const curveStep = 4

// curve returns the Catmull-Rom spline through w from w[1] to w[2] as a
// polyline. w[0] and w[3] only shape the tangents.
func curve(w [4]state.Point) []fyne.Position {
	d := math.Hypot(w[2].X-w[1].X, w[2].Y-w[1].Y)
	n := max(int(math.Ceil(d/curveStep)), 1)
	out := make([]fyne.Position, 0, n+1)
	for k := 0; k <= n; k++ {
		t := float64(k) / float64(n)
		out = append(out, fyne.NewPos(
			float32(catmullRom(w[0].X, w[1].X, w[2].X, w[3].X, t)),
			float32(catmullRom(w[0].Y, w[1].Y, w[2].Y, w[3].Y, t)),
		))
	}
	return out
}

func catmullRom(p0, p1, p2, p3, t float64) float64 {
	t2, t3 := t*t, t*t*t
	return 0.5 * (2*p1 +
		(p2-p0)*t +
		(2*p0-5*p1+4*p2-p3)*t2 +
		(3*p1-p0-3*p2+p3)*t3)
}

// segmentWindow returns the 4-point window whose middle span runs from point
// i-1 to point i of r, repeating the last point past the end.
func segmentWindow(r state.RenderedStroke, i int) [4]state.Point {
	if i+1 < len(r.Points) {
		return r.Window(i + 1)
	}
	w := r.Window(i)
	return [4]state.Point{w[1], w[2], w[3], w[3]}
}
