// Package export writes a sketch out for offline analysis: the raw samples
// as JSON and a vector drawing as PDF.
package export

import (
	"fmt"
	"io"
	"os"

	"sketchsynth/internal/state"

	"github.com/jung-kurt/gofpdf"
)

// PDFLineWidth is the stroke width in points.
const PDFLineWidth = 2

// WritePDF draws every stroke of d as a black polyline on a single page the
// size of the canvas, one point per canvas pixel.
func WritePDF(w io.Writer, d state.Data) error {
	if !(d.CanvasWidth > 0 && d.CanvasHeight > 0) {
		return fmt.Errorf("export: canvas %gx%g has no area", d.CanvasWidth, d.CanvasHeight)
	}
	p := gofpdf.NewCustom(&gofpdf.InitType{
		// "P" keeps Size as given; "L" would swap the sides
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: d.CanvasWidth, Ht: d.CanvasHeight},
	})
	p.SetCreator("sketchsynth", true)
	p.SetTitle(fmt.Sprintf("Sketch with %d strokes", d.NumberOfStrokes), true)
	p.SetMargins(0, 0, 0)
	p.SetAutoPageBreak(false, 0)
	p.AddPage()
	p.SetDrawColor(0, 0, 0)
	p.SetLineWidth(PDFLineWidth)
	p.SetLineCapStyle("round")
	p.SetLineJoinStyle("round")

	for _, s := range d.Sketch {
		xs, ys := s[0], s[1]
		for i := 1; i < len(xs) && i < len(ys); i++ {
			p.Line(xs[i-1], ys[i-1], xs[i], ys[i])
		}
	}
	if err := p.Output(w); err != nil {
		return fmt.Errorf("export: pdf: %w", err)
	}
	return nil
}

// SavePDF writes d as a PDF file at path.
func SavePDF(path string, d state.Data) error {
	return save(path, func(w io.Writer) error { return WritePDF(w, d) })
}

func save(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	state.Logger().Info("sketch exported", "path", path)
	return nil
}
