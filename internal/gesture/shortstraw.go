package gesture

import (
	"math"
	"slices"
	"sort"
)

// Options tunes the ShortStraw corner detector. The defaults are empirical.
type Options struct {
	// Spacing is the resampling interval as a fraction of the stroke's
	// total path length.
	Spacing float64
	// Window is the half-window w of a straw, in resampled points.
	Window int
	// Threshold scales the median straw; shorter straws are corner candidates.
	Threshold float64
	// MinSpacing is the minimum index distance between two accepted corners.
	MinSpacing int
	// LineRatio is the chord/path ratio above which a run counts as straight.
	LineRatio float64
	// AcuteAngle is the interior angle in degrees below which a corner is acute.
	AcuteAngle float64
}

// DefaultOptions returns the detector settings used by the sketch pipeline.
func DefaultOptions() Options {
	return Options{
		Spacing:    1.0 / 40,
		Window:     3,
		Threshold:  0.95,
		MinSpacing: 3,
		LineRatio:  0.95,
		AcuteAngle: 90,
	}
}

// angleTolerance absorbs rounding when an angle sits exactly on the threshold.
const angleTolerance = 1e-9

// Corner is a high-curvature vertex of a resampled stroke.
type Corner struct {
	Index int     // into Result.Resampled
	Point Vec     // Resampled[Index]
	Angle float64 // interior angle in degrees
	Acute bool
}

// Result is the outcome of running the detector over one stroke.
type Result struct {
	Resampled []Vec
	Corners   []Corner
}

// Acute counts the acute corners.
func (r Result) Acute() int {
	n := 0
	for _, c := range r.Corners {
		if c.Acute {
			n++
		}
	}
	return n
}

// Obtuse counts the obtuse corners.
func (r Result) Obtuse() int { return len(r.Corners) - r.Acute() }

// Coords returns the first resampled point, every corner and the last
// resampled point, in stroke order.
func (r Result) Coords() []Vec {
	if len(r.Resampled) == 0 {
		return nil
	}
	out := make([]Vec, 0, len(r.Corners)+2)
	out = append(out, r.Resampled[0])
	for _, c := range r.Corners {
		out = append(out, c.Point)
	}
	if len(r.Resampled) > 1 {
		out = append(out, r.Resampled[len(r.Resampled)-1])
	}
	return out
}

// Resample walks pts and emits points spaced interval apart along the path,
// interpolating linearly between the original samples. The last sample is
// always kept.
func Resample(pts []Vec, interval float64) []Vec {
	if len(pts) == 0 {
		return nil
	}
	out := []Vec{pts[0]}
	if interval <= 0 || len(pts) == 1 {
		return append(out, pts[1:]...)
	}
	prev := pts[0]
	acc := 0.0
	for i := 1; i < len(pts); {
		cur := pts[i]
		d := Dist(prev, cur)
		if d > 0 && acc+d >= interval {
			t := (interval - acc) / d
			q := Vec{prev.X + t*(cur.X-prev.X), prev.Y + t*(cur.Y-prev.Y)}
			out = append(out, q)
			prev, acc = q, 0
			continue
		}
		acc += d
		prev = cur
		i++
	}
	last := pts[len(pts)-1]
	switch {
	case out[len(out)-1] == last:
	case len(out) > 1 && Dist(out[len(out)-1], last) < interval*1e-6:
		// rounding left the final sample a hair short of the end
		out[len(out)-1] = last
	default:
		out = append(out, last)
	}
	return out
}

// Detect resamples pts and flags its corners. Strokes whose path is shorter
// than one resampling interval produce no corners.
func Detect(pts []Vec, opts Options) Result {
	if len(pts) < 2 {
		return Result{Resampled: slices.Clone(pts)}
	}
	length := PathLength(pts)
	interval := length * opts.Spacing
	if interval <= 0 || length < interval {
		return Result{Resampled: slices.Clone(pts)}
	}
	r := Result{Resampled: Resample(pts, interval)}

	w := opts.Window
	if w < 1 {
		w = 1
	}
	n := len(r.Resampled)
	if n < 2*w+1 {
		return r
	}

	straws := make([]float64, n)
	for i := w; i < n-w; i++ {
		straws[i] = Dist(r.Resampled[i-w], r.Resampled[i+w])
	}
	threshold := median(straws[w:n-w]) * opts.Threshold

	// one candidate per run of short straws: the run's minimum
	var candidates []int
	for i := w; i < n-w; i++ {
		if straws[i] >= threshold {
			continue
		}
		best := i
		for ; i < n-w && straws[i] < threshold; i++ {
			if straws[i] < straws[best] {
				best = i
			}
		}
		candidates = append(candidates, best)
	}

	// the shortest straws claim their neighbourhood first
	sort.SliceStable(candidates, func(a, b int) bool {
		return straws[candidates[a]] < straws[candidates[b]]
	})
	var accepted []int
	for _, c := range candidates {
		if slices.ContainsFunc(accepted, func(a int) bool { return absInt(a-c) < opts.MinSpacing }) {
			continue
		}
		accepted = append(accepted, c)
	}
	slices.Sort(accepted)
	accepted = dropCollinear(r.Resampled, accepted, opts.LineRatio)

	for _, c := range accepted {
		angle := interiorAngle(r.Resampled[c-w], r.Resampled[c], r.Resampled[c+w])
		r.Corners = append(r.Corners, Corner{
			Index: c,
			Point: r.Resampled[c],
			Angle: angle,
			Acute: angle < opts.AcuteAngle-angleTolerance,
		})
	}
	return r
}

// dropCollinear removes corners whose neighbouring corners (or the stroke
// ends) are joined by an essentially straight run.
func dropCollinear(pts []Vec, corners []int, ratio float64) []int {
	if ratio <= 0 || len(corners) == 0 {
		return corners
	}
	anchors := make([]int, 0, len(corners)+2)
	anchors = append(anchors, 0)
	anchors = append(anchors, corners...)
	anchors = append(anchors, len(pts)-1)
	for i := 1; i < len(anchors)-1; {
		if isLine(pts, anchors[i-1], anchors[i+1], ratio) {
			anchors = slices.Delete(anchors, i, i+1)
			continue
		}
		i++
	}
	return anchors[1 : len(anchors)-1]
}

func isLine(pts []Vec, a, b int, ratio float64) bool {
	path := PathLength(pts[a : b+1])
	if path == 0 {
		return true
	}
	return Dist(pts[a], pts[b])/path > ratio
}

// interiorAngle is the angle at b between the rays b->a and b->c, in degrees.
func interiorAngle(a, b, c Vec) float64 {
	u, v := a.Sub(b), c.Sub(b)
	lu, lv := u.Len(), v.Len()
	if lu == 0 || lv == 0 {
		return 180
	}
	cos := u.Dot(v) / (lu * lv)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

func median(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	s := slices.Clone(v)
	slices.Sort(s)
	m := len(s) / 2
	if len(s)%2 == 0 {
		return (s[m-1] + s[m]) / 2
	}
	return s[m]
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
