package state

import (
	"image/color"
	"math"
	"slices"

	"sketchsynth/internal/gesture"

	"github.com/google/uuid"
)

// Stroke is one pen-down to pen-up gesture. Points are appended while the
// pointer is down and evicted from the front as they fade out.
type Stroke struct {
	ID string

	points    []Point
	sketching bool
	// evicted counts points removed from the front over the stroke's life,
	// so indices captured earlier can be rebased.
	evicted int

	// outline holds the RDP vertex indices at finish time, when evicted
	// stood at outlineBase.
	outline     []int
	outlineBase int
	corners     gesture.Result
}

// NewStroke returns an empty stroke that is being drawn.
func NewStroke() *Stroke {
	return &Stroke{ID: uuid.NewString(), sketching: true}
}

// Len returns the number of points.
func (s *Stroke) Len() int { return len(s.points) }

// At returns the i-th point.
func (s *Stroke) At(i int) Point { return s.points[i] }

// Points returns a copy of the point sequence.
func (s *Stroke) Points() []Point { return slices.Clone(s.points) }

// IsSketching reports whether the pointer is still down on this stroke.
func (s *Stroke) IsSketching() bool { return s.sketching }

// Simplified returns the vertices of the RDP polyline computed when the
// stroke was finished that have not been evicted since.
func (s *Stroke) Simplified() []gesture.Vec {
	idx := s.outlineIndices()
	out := make([]gesture.Vec, len(idx))
	for i, j := range idx {
		out[i] = gesture.Vec{X: s.points[j].X, Y: s.points[j].Y}
	}
	return out
}

// outlineIndices rebases the outline onto the current points.
func (s *Stroke) outlineIndices() []int {
	shift := s.evicted - s.outlineBase
	out := make([]int, 0, len(s.outline))
	for _, i := range s.outline {
		if j := i - shift; j >= 0 && j < len(s.points) {
			out = append(out, j)
		}
	}
	return out
}

// Corners returns the corner analysis computed when the stroke was finished.
func (s *Stroke) Corners() gesture.Result { return s.corners }

// AddPoint appends a sample. A sample at exactly the previous position is
// dropped, timestamp included, and AddPoint reports false.
func (s *Stroke) AddPoint(x, y, t float64) bool {
	if n := len(s.points); n > 0 && s.points[n-1].X == x && s.points[n-1].Y == y {
		return false
	}
	s.points = append(s.points, Point{X: x, Y: y, T: t})
	return true
}

// RemoveFirstPoint evicts the oldest point together with its feature.
func (s *Stroke) RemoveFirstPoint() {
	if len(s.points) == 0 {
		return
	}
	s.points = slices.Delete(s.points, 0, 1)
	s.evicted++
}

// UpdateFeature stores f at index i if it beats the stored probability.
// Out-of-range indices are ignored; it reports whether f was stored.
func (s *Stroke) UpdateFeature(i int, f Feature) bool {
	if i < 0 || i >= len(s.points) {
		return false
	}
	if f.Probability > s.points[i].Feature.Probability {
		s.points[i].Feature = f
		return true
	}
	return false
}

// Fade returns how far the i-th point has faded at now, in [0, 1].
func (s *Stroke) Fade(i int, now, decay float64) float64 {
	return fade(s.points[i].T, now, decay)
}

func fade(t, now, decay float64) float64 {
	return math.Max(0, math.Min((now-t)*decay, 1))
}

// Advance evicts every leading point that has fully faded at now and returns
// how many were removed. Timestamps never decrease along a stroke, so the
// first point still visible stops the scan.
func (s *Stroke) Advance(now, decay float64) int {
	n := 0
	for len(s.points) > 0 && fade(s.points[0].T, now, decay) >= 1 {
		s.RemoveFirstPoint()
		n++
	}
	return n
}

// Finish marks the stroke as no longer drawn and runs simplification and
// corner detection over its points.
func (s *Stroke) Finish(epsilon float64, opts gesture.Options) {
	s.sketching = false
	v := Vecs(s.points)
	s.outline = gesture.SimplifyIndices(v, epsilon)
	s.outlineBase = s.evicted
	s.corners = gesture.Detect(v, opts)
}

// Clear drops every point.
func (s *Stroke) Clear() {
	s.evicted += len(s.points)
	s.points = nil
	s.outline = nil
	s.corners = gesture.Result{}
}

// Colours returns the display colour of every point at now: the line colour
// (or the point's feature colour when showFeatures is set) blended toward
// the background by the point's fade.
func (s *Stroke) Colours(now float64, p Palette, decay float64, showFeatures bool) []color.NRGBA {
	out := make([]color.NRGBA, len(s.points))
	for i, pt := range s.points {
		c := p.Line
		if showFeatures {
			c = p.FeatureColour(pt.Feature.Category)
		}
		out[i] = blend(c, p.Blend, fade(pt.T, now, decay))
	}
	return out
}

func blend(c, bg color.NRGBA, f float64) color.NRGBA {
	mix := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) - (float64(a)-float64(b))*f))
	}
	return color.NRGBA{R: mix(c.R, bg.R), G: mix(c.G, bg.G), B: mix(c.B, bg.B), A: 255}
}
