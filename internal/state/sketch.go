package state

import (
	"errors"
	"image/color"
	"math"
	"slices"

	"sketchsynth/internal/gesture"
)

// ErrNoActiveStroke is returned when a pointer sample arrives with the pen up.
var ErrNoActiveStroke = errors.New("state: no active stroke")

// Palette holds the rendering attributes carried with a sketch.
type Palette struct {
	Line     color.NRGBA
	Blend    color.NRGBA
	Features map[Category]color.NRGBA
	Width    float64
}

// DefaultPalette is black on white with the classic feature colours.
func DefaultPalette() Palette {
	return Palette{
		Line:  color.NRGBA{A: 255},
		Blend: color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		Features: map[Category]color.NRGBA{
			CategoryAcute:  {R: 255, A: 255},
			CategoryObtuse: {G: 255, A: 255},
			CategoryCurve:  {B: 255, A: 255},
			CategoryLine:   {R: 255, G: 255, A: 255},
			CategoryNone:   {A: 255},
		},
		Width: 6,
	}
}

// FeatureColour returns the colour for c, falling back to the line colour.
func (p Palette) FeatureColour(c Category) color.NRGBA {
	if col, ok := p.Features[c]; ok {
		return col
	}
	return p.Line
}

// Params configures a Sketch.
type Params struct {
	// Decay is the fade rate per millisecond; a point vanishes after 1/Decay ms.
	Decay float64
	// Epsilon is the RDP tolerance applied when a stroke is finished.
	Epsilon float64
	Corners gesture.Options
	Palette Palette
}

// DefaultParams returns the settings of the drawing interface.
func DefaultParams() Params {
	return Params{
		Decay:   0.0001,
		Epsilon: 2,
		Corners: gesture.DefaultOptions(),
		Palette: DefaultPalette(),
	}
}

// Sketch owns the strokes of one drawing session in drawing order.
type Sketch struct {
	width, height float64
	start         float64
	params        Params

	strokes []*Stroke
	active  *Stroke

	totalStrokeLength int
}

// NewSketch creates a sketch for a canvas of width x height started at start
// (ms). Non-positive canvas dimensions or a negative epsilon panic.
func NewSketch(width, height, start float64, p Params) *Sketch {
	mustCanvas(width, height)
	if p.Epsilon < 0 {
		panic("state: negative simplification tolerance")
	}
	if p.Decay < 0 {
		panic("state: negative decay")
	}
	return &Sketch{width: width, height: height, start: start, params: p}
}

func mustCanvas(width, height float64) {
	if !(width > 0 && height > 0) || math.IsInf(width, 0) || math.IsInf(height, 0) {
		panic("state: canvas dimensions must be positive")
	}
}

func (sk *Sketch) Width() float64  { return sk.width }
func (sk *Sketch) Height() float64 { return sk.height }
func (sk *Sketch) Params() Params  { return sk.params }

// Resize changes the canvas dimensions after a surface resize.
func (sk *Sketch) Resize(width, height float64) {
	mustCanvas(width, height)
	sk.width, sk.height = width, height
}

// Clamp pulls (x, y) onto the canvas. Pointer samples taken after the
// pointer leaves the surface land on its edge.
func (sk *Sketch) Clamp(x, y float64) (float64, float64) {
	return math.Max(0, math.Min(x, sk.width)), math.Max(0, math.Min(y, sk.height))
}

// Len returns the number of strokes.
func (sk *Sketch) Len() int { return len(sk.strokes) }

// Strokes returns the strokes in drawing order.
func (sk *Sketch) Strokes() []*Stroke { return slices.Clone(sk.strokes) }

// Active returns the stroke being drawn, or nil with the pen up.
func (sk *Sketch) Active() *Stroke { return sk.active }

// BeginStroke starts a new stroke on pen-down. A stroke still active is
// finished first.
func (sk *Sketch) BeginStroke() *Stroke {
	if sk.active != nil {
		sk.EndStroke()
	}
	s := NewStroke()
	sk.strokes = append(sk.strokes, s)
	sk.active = s
	Logger().Debug("stroke started", "stroke", s.ID, "strokes", len(sk.strokes))
	return s
}

// AddPoint appends a sample to the active stroke. It reports whether the
// sample was kept; duplicates return false with a nil error.
func (sk *Sketch) AddPoint(x, y, t float64) (bool, error) {
	if sk.active == nil {
		return false, ErrNoActiveStroke
	}
	return sk.active.AddPoint(x, y, t), nil
}

// EndStroke finishes the active stroke on pen-up and returns it, or nil if
// no stroke was active.
func (sk *Sketch) EndStroke() *Stroke {
	s := sk.active
	if s == nil {
		return nil
	}
	s.Finish(sk.params.Epsilon, sk.params.Corners)
	sk.active = nil
	Logger().Info("stroke finished",
		"stroke", s.ID,
		"points", s.Len(),
		"simplified", len(s.outline),
		"corners", len(s.corners.Corners))
	return s
}

// Advance evicts faded points at now, drops strokes that emptied and
// recomputes the total stroke length. It returns the evicted point count.
func (sk *Sketch) Advance(now float64) int {
	n := 0
	for _, s := range sk.strokes {
		n += s.Advance(now, sk.params.Decay)
	}
	sk.strokes = slices.DeleteFunc(sk.strokes, func(s *Stroke) bool {
		return s.Len() == 0 && s != sk.active
	})
	sk.updateTotalStrokeLength()
	if n > 0 {
		Logger().Debug("points evicted", "count", n, "strokes", len(sk.strokes))
	}
	return n
}

func (sk *Sketch) updateTotalStrokeLength() {
	sk.totalStrokeLength = 0
	for _, s := range sk.strokes {
		sk.totalStrokeLength += s.Len()
	}
}

// TotalStrokeLength recounts the points over all strokes.
func (sk *Sketch) TotalStrokeLength() int {
	sk.updateTotalStrokeLength()
	return sk.totalStrokeLength
}

// BoundingBox returns the box around strokes, or around every stroke when
// none are given.
func (sk *Sketch) BoundingBox(strokes ...*Stroke) Box {
	if len(strokes) == 0 {
		strokes = sk.strokes
	}
	sets := make([][]Point, 0, len(strokes))
	for _, s := range strokes {
		sets = append(sets, s.points)
	}
	return Bounds(sk.width, sk.height, sets...)
}

// Bounds returns the box around arbitrary point sets on this canvas.
func (sk *Sketch) Bounds(sets ...[]Point) Box {
	return Bounds(sk.width, sk.height, sets...)
}

// Normalize expresses b relative to the canvas.
func (sk *Sketch) Normalize(b Box) Placement {
	return b.Normalize(sk.width, sk.height)
}

// Slice is a window of recent points of one stroke.
type Slice struct {
	Stroke  *Stroke
	Points  []Point
	Indices []int // absolute indices into Stroke at capture time
	evicted int
}

// Empty reports whether the slice holds no points.
func (s Slice) Empty() bool { return len(s.Points) == 0 }

// CurrentSlice returns the last n points of the active stroke, or an empty
// slice with the pen up.
func (sk *Sketch) CurrentSlice(n int) Slice {
	s := sk.active
	if s == nil || !s.sketching || n <= 0 {
		return Slice{}
	}
	from := max(s.Len()-n, 0)
	sl := Slice{
		Stroke:  s,
		Points:  slices.Clone(s.points[from:]),
		Indices: make([]int, 0, s.Len()-from),
		evicted: s.evicted,
	}
	for i := from; i < s.Len(); i++ {
		sl.Indices = append(sl.Indices, i)
	}
	return sl
}

// ApplyFeature fuses a classifier verdict for sl back into its stroke. Points
// that were evicted since the slice was taken, and strokes no longer in the
// sketch, are skipped silently. It returns the number of points updated.
func (sk *Sketch) ApplyFeature(sl Slice, f Feature) int {
	if sl.Stroke == nil || !slices.Contains(sk.strokes, sl.Stroke) {
		return 0
	}
	shift := sl.Stroke.evicted - sl.evicted
	n := 0
	for _, i := range sl.Indices {
		if sl.Stroke.UpdateFeature(i-shift, f) {
			n++
		}
	}
	return n
}

// speedFrame is the reference canvas size speed is normalised to.
const speedFrame = 1000

// CurrentSpeed returns the drawing speed over the last limit points of the
// active stroke in pixels per millisecond. With scale set, distances are
// measured on a 1000x1000 frame. Strokes that are too short or not being
// drawn, and spans with no elapsed time, report 0.
func (sk *Sketch) CurrentSpeed(limit int, scale bool) float64 {
	s := sk.active
	if s == nil || !s.sketching || limit < 2 || s.Len() < limit {
		return 0
	}
	fx, fy := 1.0, 1.0
	if scale {
		fx, fy = speedFrame/sk.width, speedFrame/sk.height
	}
	pts := s.points[s.Len()-limit:]
	elapsed := pts[len(pts)-1].T - pts[0].T
	if elapsed <= 0 {
		return 0
	}
	var dist float64
	for i := 1; i < len(pts); i++ {
		dist += math.Hypot(fx*(pts[i].X-pts[i-1].X), fy*(pts[i].Y-pts[i-1].Y))
	}
	return dist / elapsed
}

// CornerSummary aggregates the corners of every finished stroke.
type CornerSummary struct {
	Acute, Obtuse int
	Coords        []gesture.Vec
}

// Corners sums the corner analysis of the finished strokes still on canvas.
func (sk *Sketch) Corners() CornerSummary {
	var cs CornerSummary
	for _, s := range sk.strokes {
		if s.sketching {
			continue
		}
		cs.Acute += s.corners.Acute()
		cs.Obtuse += s.corners.Obtuse()
		cs.Coords = append(cs.Coords, s.corners.Coords()...)
	}
	return cs
}

// RenderedStroke is a stroke ready for a drawing backend.
type RenderedStroke struct {
	ID      string
	Points  []Point
	Colours []color.NRGBA
	Width   float64
	// Corners are the detected corners of a finished stroke.
	Corners []gesture.Vec
}

// Window returns the four points ending at i, clamping indices below zero,
// for backends that draw a curve through each 4-point window.
func (r RenderedStroke) Window(i int) [4]Point {
	var w [4]Point
	for j := 0; j < 4; j++ {
		w[j] = r.Points[max(i-3+j, 0)]
	}
	return w
}

// RenderOptions selects how Render draws the strokes.
type RenderOptions struct {
	// Features colours each point by its feature category.
	Features bool
	// Simplified draws finished strokes through their RDP vertices only.
	Simplified bool
}

// Render returns every stroke with the faded colour of each point at now.
// It does not evict; call Advance for that.
func (sk *Sketch) Render(now float64, opts RenderOptions) []RenderedStroke {
	out := make([]RenderedStroke, 0, len(sk.strokes))
	for _, s := range sk.strokes {
		r := RenderedStroke{
			ID:      s.ID,
			Points:  s.Points(),
			Colours: s.Colours(now, sk.params.Palette, sk.params.Decay, opts.Features),
			Width:   sk.params.Palette.Width,
		}
		if !s.sketching {
			for _, c := range s.corners.Corners {
				r.Corners = append(r.Corners, c.Point)
			}
			if opts.Simplified && len(s.outline) > 0 {
				idx := s.outlineIndices()
				pts := make([]Point, len(idx))
				cols := make([]color.NRGBA, len(idx))
				for i, j := range idx {
					pts[i], cols[i] = r.Points[j], r.Colours[j]
				}
				r.Points, r.Colours = pts, cols
			}
		}
		out = append(out, r)
	}
	return out
}

// Clear empties the sketch and restarts it at start.
func (sk *Sketch) Clear(start float64) {
	for _, s := range sk.strokes {
		s.Clear()
	}
	sk.strokes = nil
	sk.active = nil
	sk.totalStrokeLength = 0
	sk.start = start
}

// Data is the export record of a sketch, laid out like the Quick, Draw!
// dataset: per stroke the x, y and time arrays.
type Data struct {
	CanvasWidth       float64        `json:"canvasWidth"`
	CanvasHeight      float64        `json:"canvasHeight"`
	NumberOfStrokes   int            `json:"numberOfStrokes"`
	TotalStrokeLength int            `json:"totalStrokeLength"`
	StartTime         float64        `json:"startTime"`
	Sketch            [][3][]float64 `json:"sketch"`
}

// Data snapshots the sketch for export.
func (sk *Sketch) Data() Data {
	d := Data{
		CanvasWidth:       sk.width,
		CanvasHeight:      sk.height,
		NumberOfStrokes:   len(sk.strokes),
		TotalStrokeLength: sk.TotalStrokeLength(),
		StartTime:         sk.start,
		Sketch:            make([][3][]float64, 0, len(sk.strokes)),
	}
	for _, s := range sk.strokes {
		n := s.Len()
		xyt := [3][]float64{make([]float64, 0, n), make([]float64, 0, n), make([]float64, 0, n)}
		for _, p := range s.points {
			xyt[0] = append(xyt[0], p.X)
			xyt[1] = append(xyt[1], p.Y)
			xyt[2] = append(xyt[2], p.T)
		}
		d.Sketch = append(d.Sketch, xyt)
	}
	return d
}
