// Package ui is the desktop front end: a drawing surface feeding pointer
// events into a session and showing its decaying strokes.
package ui

import (
	"fmt"
	"io"

	"sketchsynth/internal/analysis"
	"sketchsynth/internal/export"
	"sketchsynth/internal/state"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// Window is the main window around one session.
type Window struct {
	fyne.Window
	Sketch *SketchWidget

	session *state.Session
	readout *widget.Label
}

// Display switches how the draw loop renders frames; *analysis.Runner
// implements it.
type Display interface {
	SetShowFeatures(bool)
	SetSimplified(bool)
	Simplified() bool
}

// NewWindow builds the window for s. The toolbar toggles go to d.
func NewWindow(a fyne.App, s *state.Session, d Display) *Window {
	var params state.Params
	var width, height float64
	s.Do(func(sk *state.Sketch) {
		params = sk.Params()
		width, height = sk.Width(), sk.Height()
	})

	w := &Window{
		Window:  a.NewWindow("SketchSynth"),
		Sketch:  NewSketchWidget(s, params.Palette.Blend),
		session: s,
		readout: widget.NewLabel("Draw to start"),
	}
	w.readout.Truncation = fyne.TextTruncateEllipsis

	toolbar := NewToolbar(Actions{
		Clear:        w.clear,
		ShowFeatures: d.SetShowFeatures,
		Simplified:   d.SetSimplified,
		ShowCorners:  w.Sketch.SetShowCorners,
		ExportJSON:   func() { w.save("sketch.json", export.WriteJSON) },
		ExportPDF:    func() { w.save("sketch.pdf", export.WritePDF) },
	}, params.Palette, d.Simplified(), w.readout)

	w.SetContent(container.NewBorder(toolbar, nil, nil, nil, w.Sketch))
	w.Resize(fyne.NewSize(float32(width), float32(height)))
	return w
}

// SetFrame shows a rendered frame; pass it as the runner's OnFrame.
func (w *Window) SetFrame(frame []state.RenderedStroke) { w.Sketch.SetFrame(frame) }

// SetFeatures updates the readout. It is safe to call from any goroutine.
func (w *Window) SetFeatures(f analysis.Features) {
	text := featureText(f)
	fyne.Do(func() { w.readout.SetText(text) })
}

func (w *Window) clear() {
	w.session.Reset()
	w.Sketch.SetFrame(nil)
	w.readout.SetText("Cleared")
}

func (w *Window) save(name string, write func(io.Writer, state.Data) error) {
	var data state.Data
	w.session.Do(func(sk *state.Sketch) { data = sk.Data() })

	d := dialog.NewFileSave(func(out fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		if out == nil {
			return
		}
		defer out.Close()
		if err := write(out, data); err != nil {
			state.Logger().Error("export failed", "uri", out.URI().String(), "error", err)
			dialog.ShowError(err, w)
			return
		}
		state.Logger().Info("sketch exported", "uri", out.URI().String(), "strokes", data.NumberOfStrokes)
		w.readout.SetText(fmt.Sprintf("Saved %d strokes to %s", data.NumberOfStrokes, out.URI().Name()))
	}, w)
	d.SetFileName(name)
	d.Show()
}
