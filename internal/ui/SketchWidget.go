package ui

import (
	"image/color"
	"sync"

	"sketchsynth/internal/gesture"
	"sketchsynth/internal/state"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// SketchWidget is the drawing surface. Pointer events go straight into the
// session; what it shows is the last frame handed to SetFrame.
type SketchWidget struct {
	widget.BaseWidget
	session    *state.Session
	background color.Color

	mu          sync.RWMutex
	frame       []state.RenderedStroke
	drawing     bool
	showCorners bool
}

// cornerColour marks detected corners.
var cornerColour = color.NRGBA{R: 255, A: 255}

var _ fyne.Widget = (*SketchWidget)(nil)
var _ fyne.Draggable = (*SketchWidget)(nil)
var _ desktop.Mouseable = (*SketchWidget)(nil)

func NewSketchWidget(s *state.Session, background color.Color) *SketchWidget {
	w := &SketchWidget{session: s, background: background}
	w.ExtendBaseWidget(w)
	return w
}

// SetFrame replaces the displayed strokes. It is safe to call from any
// goroutine.
func (w *SketchWidget) SetFrame(frame []state.RenderedStroke) {
	w.mu.Lock()
	w.frame = frame
	w.mu.Unlock()
	fyne.Do(w.Refresh)
}

func (w *SketchWidget) Frame() []state.RenderedStroke {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.frame
}

// SetShowCorners toggles the corner markers.
func (w *SketchWidget) SetShowCorners(on bool) {
	w.mu.Lock()
	w.showCorners = on
	w.mu.Unlock()
	w.Refresh()
}

func (w *SketchWidget) ShowCorners() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.showCorners
}

// Resize keeps the sketch canvas the size of the widget, so placement and
// speed are measured against what the user sees.
func (w *SketchWidget) Resize(size fyne.Size) {
	w.BaseWidget.Resize(size)
	if size.Width > 0 && size.Height > 0 {
		w.session.Do(func(sk *state.Sketch) {
			sk.Resize(float64(size.Width), float64(size.Height))
		})
	}
}

func (w *SketchWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	w.mu.Lock()
	w.drawing = true
	w.mu.Unlock()
	w.session.PenDown(float64(e.Position.X), float64(e.Position.Y))
}

func (w *SketchWidget) Dragged(e *fyne.DragEvent) {
	w.mu.RLock()
	drawing := w.drawing
	w.mu.RUnlock()
	if drawing {
		w.session.PenMove(float64(e.Position.X), float64(e.Position.Y))
	}
}

func (w *SketchWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		w.penUp()
	}
}

// DragEnd also lifts the pen: touch devices never send MouseUp.
func (w *SketchWidget) DragEnd() { w.penUp() }

func (w *SketchWidget) penUp() {
	w.mu.Lock()
	drawing := w.drawing
	w.drawing = false
	w.mu.Unlock()
	if drawing {
		w.session.PenUp()
	}
}

func (w *SketchWidget) MouseIn(*desktop.MouseEvent)    {}
func (w *SketchWidget) MouseOut()                      {}
func (w *SketchWidget) MouseMoved(*desktop.MouseEvent) {}

func (w *SketchWidget) CreateRenderer() fyne.WidgetRenderer {
	return &sketchRenderer{sketch: w, background: canvas.NewRectangle(w.background)}
}

type sketchRenderer struct {
	sketch     *SketchWidget
	background *canvas.Rectangle
}

// Objects draws each span of a stroke as a short Catmull-Rom curve in the
// colour of the point it ends at, then the corner markers on top.
func (r *sketchRenderer) Objects() []fyne.CanvasObject {
	objects := []fyne.CanvasObject{r.background}
	frame := r.sketch.Frame()
	for _, s := range frame {
		for i := 1; i < len(s.Points); i++ {
			pts := curve(segmentWindow(s, i))
			for k := 1; k < len(pts); k++ {
				line := canvas.NewLine(s.Colours[i])
				line.StrokeWidth = float32(s.Width)
				line.Position1 = pts[k-1]
				line.Position2 = pts[k]
				objects = append(objects, line)
			}
		}
	}
	if r.sketch.ShowCorners() {
		for _, s := range frame {
			for _, c := range s.Corners {
				objects = append(objects, cornerMarker(c, s.Width))
			}
		}
	}
	return objects
}

func cornerMarker(c gesture.Vec, width float64) *canvas.Circle {
	r := float32(width/2 + 2)
	m := canvas.NewCircle(color.Transparent)
	m.StrokeColor = cornerColour
	m.StrokeWidth = 2
	m.Position1 = fyne.NewPos(float32(c.X)-r, float32(c.Y)-r)
	m.Position2 = fyne.NewPos(float32(c.X)+r, float32(c.Y)+r)
	return m
}

func (r *sketchRenderer) Refresh()              { canvas.Refresh(r.sketch) }
func (r *sketchRenderer) Destroy()              {}
func (r *sketchRenderer) Layout(size fyne.Size) { r.background.Resize(size) }
func (r *sketchRenderer) MinSize() fyne.Size    { return fyne.NewSize(300, 300) }
