// Package gesture holds the geometry that runs over finished strokes:
// Ramer-Douglas-Peucker simplification and ShortStraw corner detection.
package gesture

import "math"

// Vec is a 2D position in canvas pixels.
type Vec struct {
	X, Y float64
}

func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y} }

func (v Vec) Dot(o Vec) float64 { return v.X*o.X + v.Y*o.Y }

func (v Vec) Len() float64 { return math.Hypot(v.X, v.Y) }

// Dist returns the Euclidean distance between a and b.
func Dist(a, b Vec) float64 { return a.Sub(b).Len() }

// PathLength sums the distances between consecutive points.
func PathLength(pts []Vec) float64 {
	var d float64
	for i := 1; i < len(pts); i++ {
		d += Dist(pts[i-1], pts[i])
	}
	return d
}

// lineDist is the perpendicular distance from p to the line through a and b.
// A degenerate chord falls back to the distance from p to a.
func lineDist(p, a, b Vec) float64 {
	ab := b.Sub(a)
	l := ab.Len()
	if l == 0 {
		return Dist(p, a)
	}
	ap := p.Sub(a)
	return math.Abs(ab.X*ap.Y-ab.Y*ap.X) / l
}

// SimplifyIndices runs Ramer-Douglas-Peucker over pts and returns the indices
// of the retained points in ascending order. Endpoints are always kept.
// An epsilon of zero keeps every point. Negative epsilon panics.
func SimplifyIndices(pts []Vec, epsilon float64) []int {
	if epsilon < 0 || math.IsNaN(epsilon) {
		panic("gesture: negative simplification tolerance")
	}
	idx := make([]int, 0, len(pts))
	if len(pts) <= 2 || epsilon == 0 {
		for i := range pts {
			idx = append(idx, i)
		}
		return idx
	}
	idx = append(idx, 0)
	idx = rdp(pts, 0, len(pts)-1, epsilon, idx)
	return idx
}

// rdp appends the kept indices of the open interval (first, last] to idx.
func rdp(pts []Vec, first, last int, epsilon float64, idx []int) []int {
	worst, worstD := -1, 0.0
	for i := first + 1; i < last; i++ {
		// strict comparison keeps the lowest index on ties
		if d := lineDist(pts[i], pts[first], pts[last]); d > worstD {
			worst, worstD = i, d
		}
	}
	if worst < 0 || worstD <= epsilon {
		return append(idx, last)
	}
	idx = rdp(pts, first, worst, epsilon, idx)
	return rdp(pts, worst, last, epsilon, idx)
}

// Simplify returns the simplified polyline of pts.
func Simplify(pts []Vec, epsilon float64) []Vec {
	idx := SimplifyIndices(pts, epsilon)
	out := make([]Vec, len(idx))
	for i, j := range idx {
		out[i] = pts[j]
	}
	return out
}
