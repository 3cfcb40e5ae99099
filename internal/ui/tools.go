package ui

import (
	"fmt"
	"image/color"

	"sketchsynth/internal/analysis"
	"sketchsynth/internal/state"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// colourSwatch is a small filled square with a border.
type colourSwatch struct {
	widget.BaseWidget
	Colour color.Color
}

func newColourSwatch(c color.Color) *colourSwatch {
	s := &colourSwatch{Colour: c}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colourSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Colour)
	rect.SetMinSize(fyne.NewSize(16, 16))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

// legend shows the colour of every feature category.
func legend(p state.Palette) fyne.CanvasObject {
	box := container.NewHBox()
	for _, c := range state.Categories {
		box.Add(newColourSwatch(p.FeatureColour(c)))
		box.Add(widget.NewLabel(c.String()))
	}
	return box
}

// Actions are the toolbar callbacks.
type Actions struct {
	Clear        func()
	ShowFeatures func(bool)
	Simplified   func(bool)
	ShowCorners  func(bool)
	ExportJSON   func()
	ExportPDF    func()
}

// toggle is a check box that forwards its state to fn when fn is set.
func toggle(label string, on bool, fn func(bool)) *widget.Check {
	c := widget.NewCheck(label, func(v bool) {
		if fn != nil {
			fn(v)
		}
	})
	c.Checked = on
	return c
}

// NewToolbar builds the toolbar: clear, export, the outline and corner
// toggles, the feature colour toggle with its legend, and the live feature
// readout. simplified is the initial state of the outline toggle.
func NewToolbar(a Actions, p state.Palette, simplified bool, readout *widget.Label) fyne.CanvasObject {
	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.DeleteIcon(), a.Clear),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), a.ExportJSON),
		widget.NewToolbarAction(theme.DocumentPrintIcon(), a.ExportPDF),
	)

	key := legend(p)
	key.Hide()
	show := widget.NewCheck("Show features", func(on bool) {
		if on {
			key.Show()
		} else {
			key.Hide()
		}
		if a.ShowFeatures != nil {
			a.ShowFeatures(on)
		}
	})

	return container.NewVBox(
		container.NewHBox(tb, widget.NewSeparator(),
			toggle("Outline", simplified, a.Simplified),
			toggle("Corners", false, a.ShowCorners),
			show, key, layout.NewSpacer()),
		readout,
	)
}

// featureText formats f for the readout label.
func featureText(f analysis.Features) string {
	s := fmt.Sprintf("noisy %.2f  thin %.2f  feature %s  speed %.2f  centre (%.2f, %.2f)  size %.2fx%.2f  strokes %d  points %d  corners %d (%d acute)",
		f.Noisy, f.Thin, f.Feature, f.Speed, f.CenterX, f.CenterY, f.Width, f.Height,
		f.Strokes, f.Length, f.Corners, f.Acute)
	if f.Preset != "" {
		s += "  preset " + f.Preset
	}
	return s
}
