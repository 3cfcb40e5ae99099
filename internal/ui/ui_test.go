package ui

import (
	"image/color"
	"testing"
	"time"

	"sketchsynth/internal/analysis"
	"sketchsynth/internal/gesture"
	"sketchsynth/internal/state"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession() *state.Session {
	now := time.Unix(0, 0)
	clock := state.NewClockFunc(func() time.Time {
		now = now.Add(10 * time.Millisecond)
		return now
	})
	return state.NewSession(state.NewSketch(400, 300, 0, state.DefaultParams()), clock)
}

func mouse(x, y float32, b desktop.MouseButton) *desktop.MouseEvent {
	return &desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)}, Button: b}
}

func drag(x, y float32) *fyne.DragEvent {
	return &fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)}}
}

func TestCurveEndpoints(t *testing.T) {
	w := [4]state.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 20, Y: 10}, {X: 30, Y: 30}}
	pts := curve(w)
	require.GreaterOrEqual(t, len(pts), 2)
	assert.InDelta(t, 10, pts[0].X, 1e-4)
	assert.InDelta(t, 0, pts[0].Y, 1e-4)
	assert.InDelta(t, 20, pts[len(pts)-1].X, 1e-4)
	assert.InDelta(t, 10, pts[len(pts)-1].Y, 1e-4)
}

func TestCurveStraightLine(t *testing.T) {
	w := [4]state.Point{{X: 0, Y: 5}, {X: 10, Y: 5}, {X: 20, Y: 5}, {X: 30, Y: 5}}
	pts := curve(w)
	assert.Len(t, pts, 4, "a 10 px span is cut into 4 px pieces")
	for _, p := range pts {
		assert.InDelta(t, 5, p.Y, 1e-4)
	}
	for i := 1; i < len(pts); i++ {
		assert.Greater(t, pts[i].X, pts[i-1].X)
	}
}

func TestCurveDegenerateSpan(t *testing.T) {
	p := state.Point{X: 3, Y: 4}
	assert.Len(t, curve([4]state.Point{p, p, p, p}), 2)
}

func TestSegmentWindow(t *testing.T) {
	r := state.RenderedStroke{Points: []state.Point{{X: 0}, {X: 1}, {X: 2}, {X: 3}}}
	w := segmentWindow(r, 1)
	assert.Equal(t, [4]float64{0, 0, 1, 2}, [4]float64{w[0].X, w[1].X, w[2].X, w[3].X})
	w = segmentWindow(r, 3)
	assert.Equal(t, [4]float64{1, 2, 3, 3}, [4]float64{w[0].X, w[1].X, w[2].X, w[3].X})
}

func TestSketchWidgetPointerEvents(t *testing.T) {
	test.NewTempApp(t)
	s := newSession()
	w := NewSketchWidget(s, color.White)

	w.Dragged(drag(5, 5))
	w.MouseDown(mouse(10, 10, desktop.MouseButtonSecondary))
	s.Do(func(sk *state.Sketch) { assert.Zero(t, sk.Len(), "no stroke without the primary button") })

	w.MouseDown(mouse(10, 10, desktop.MouseButtonPrimary))
	w.Dragged(drag(20, 15))
	w.Dragged(drag(20, 15))
	w.Dragged(drag(30, 20))
	s.Do(func(sk *state.Sketch) {
		require.NotNil(t, sk.Active())
		assert.Equal(t, 3, sk.Active().Len(), "the repeated sample is dropped")
	})

	w.MouseUp(mouse(30, 20, desktop.MouseButtonPrimary))
	w.DragEnd()
	s.Do(func(sk *state.Sketch) {
		assert.Nil(t, sk.Active())
		require.Equal(t, 1, sk.Len())
		assert.False(t, sk.Strokes()[0].IsSketching())
	})
}

func TestSketchWidgetDragEndLiftsPen(t *testing.T) {
	test.NewTempApp(t)
	s := newSession()
	w := NewSketchWidget(s, color.White)

	w.MouseDown(mouse(1, 1, desktop.MouseButtonPrimary))
	w.Dragged(drag(2, 2))
	w.DragEnd()
	s.Do(func(sk *state.Sketch) { assert.Nil(t, sk.Active()) })
}

func TestSketchWidgetDragOutsideStaysOnCanvas(t *testing.T) {
	test.NewTempApp(t)
	s := newSession()
	w := NewSketchWidget(s, color.White)
	w.Resize(fyne.NewSize(200, 200))

	w.MouseDown(mouse(100, 100, desktop.MouseButtonPrimary))
	w.Dragged(drag(-15, 50))
	w.Dragged(drag(250, 80))
	w.MouseUp(mouse(250, 80, desktop.MouseButtonPrimary))

	s.Do(func(sk *state.Sketch) {
		box := sk.BoundingBox()
		assert.Equal(t, state.Box{X: 0, Y: 50, W: 200, H: 50}, box)
		for _, p := range sk.Strokes()[0].Points() {
			assert.True(t, p.X >= 0 && p.X <= 200, "x %g", p.X)
			assert.True(t, p.Y >= 0 && p.Y <= 200, "y %g", p.Y)
		}
	})
}

func TestSketchWidgetResizesSketch(t *testing.T) {
	test.NewTempApp(t)
	s := newSession()
	w := NewSketchWidget(s, color.White)

	w.Resize(fyne.NewSize(640, 480))
	s.Do(func(sk *state.Sketch) {
		assert.Equal(t, 640.0, sk.Width())
		assert.Equal(t, 480.0, sk.Height())
	})

	w.Resize(fyne.NewSize(0, 0))
	s.Do(func(sk *state.Sketch) { assert.Equal(t, 640.0, sk.Width()) })
}

func TestSketchRendererDrawsFrame(t *testing.T) {
	test.NewTempApp(t)
	w := NewSketchWidget(newSession(), color.White)
	r := w.CreateRenderer()
	assert.Len(t, r.Objects(), 1, "background only")

	red := color.NRGBA{R: 255, A: 255}
	w.SetFrame([]state.RenderedStroke{{
		Points:  []state.Point{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 8, Y: 0}},
		Colours: []color.NRGBA{red, red, red},
		Width:   6,
	}})
	objects := r.Objects()
	require.Len(t, objects, 3)
	line, ok := objects[1].(*canvas.Line)
	require.True(t, ok)
	assert.Equal(t, float32(6), line.StrokeWidth)
	assert.Equal(t, color.Color(red), line.StrokeColor)
}

func TestSketchRendererCornerMarkers(t *testing.T) {
	test.NewTempApp(t)
	w := NewSketchWidget(newSession(), color.White)
	r := w.CreateRenderer()
	w.SetFrame([]state.RenderedStroke{{
		Points:  []state.Point{{X: 0, Y: 0}, {X: 4, Y: 0}},
		Colours: []color.NRGBA{{A: 255}, {A: 255}},
		Width:   6,
		Corners: []gesture.Vec{{X: 4, Y: 0}},
	}})
	assert.Len(t, r.Objects(), 2, "markers are off by default")

	w.SetShowCorners(true)
	objects := r.Objects()
	require.Len(t, objects, 3)
	m, ok := objects[2].(*canvas.Circle)
	require.True(t, ok)
	assert.Equal(t, fyne.NewPos(-1, -5), m.Position1)
	assert.Equal(t, fyne.NewPos(9, 5), m.Position2)
}

func TestFeatureText(t *testing.T) {
	f := analysis.Features{Noisy: 0.25, Feature: state.CategoryAcute, Strokes: 2, Preset: "pad"}
	text := featureText(f)
	assert.Contains(t, text, "noisy 0.25")
	assert.Contains(t, text, "feature Acute")
	assert.Contains(t, text, "strokes 2")
	assert.Contains(t, text, "preset pad")
}

type fakeDisplay struct {
	features, simplified []bool
}

func (d *fakeDisplay) SetShowFeatures(on bool) { d.features = append(d.features, on) }
func (d *fakeDisplay) SetSimplified(on bool)   { d.simplified = append(d.simplified, on) }
func (d *fakeDisplay) Simplified() bool        { return true }

func TestNewWindow(t *testing.T) {
	a := test.NewTempApp(t)
	s := newSession()
	d := &fakeDisplay{}
	w := NewWindow(a, s, d)
	require.NotNil(t, w.Sketch)

	w.SetFeatures(analysis.Features{Strokes: 1})
	assert.Contains(t, w.readout.Text, "strokes 1")

	s.PenDown(10, 10)
	s.PenMove(20, 20)
	s.PenUp()
	w.clear()
	s.Do(func(sk *state.Sketch) { assert.Zero(t, sk.Len()) })
	assert.Empty(t, d.features)
	assert.Empty(t, d.simplified)
}

func TestToolbarToggles(t *testing.T) {
	test.NewTempApp(t)
	var simplified, corners []bool
	tb := NewToolbar(Actions{
		Simplified:  func(on bool) { simplified = append(simplified, on) },
		ShowCorners: func(on bool) { corners = append(corners, on) },
	}, state.DefaultPalette(), true, widget.NewLabel(""))

	checks := map[string]*widget.Check{}
	var walk func(fyne.CanvasObject)
	walk = func(o fyne.CanvasObject) {
		switch v := o.(type) {
		case *widget.Check:
			checks[v.Text] = v
		case *fyne.Container:
			for _, c := range v.Objects {
				walk(c)
			}
		}
	}
	walk(tb)

	require.Contains(t, checks, "Outline")
	require.Contains(t, checks, "Corners")
	assert.True(t, checks["Outline"].Checked)
	assert.False(t, checks["Corners"].Checked)

	test.Tap(checks["Outline"])
	test.Tap(checks["Corners"])
	assert.Equal(t, []bool{false}, simplified)
	assert.Equal(t, []bool{true}, corners)
}
