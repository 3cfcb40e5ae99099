package raster

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// DefaultInputSize is the side of the square bitmap the classifiers take.
const DefaultInputSize = 28

// Bitmap is a single-channel image in the classifier's input layout:
// row-major, values in {0, 1}, batch of one.
type Bitmap struct {
	Width, Height int
	Data          []float32
}

// Shape returns the tensor shape [batch, height, width, channels].
func (b Bitmap) Shape() [4]int { return [4]int{1, b.Height, b.Width, 1} }

// At returns the value at (x, y).
func (b Bitmap) At(x, y int) float32 { return b.Data[y*b.Width+x] }

// Ink counts the set pixels.
func (b Bitmap) Ink() int {
	n := 0
	for _, v := range b.Data {
		if v > 0 {
			n++
		}
	}
	return n
}

// Rows returns the bitmap as nested [height][width][1] slices, the JSON
// layout of a single model instance.
func (b Bitmap) Rows() [][][1]float32 {
	rows := make([][][1]float32, b.Height)
	for y := range rows {
		rows[y] = make([][1]float32, b.Width)
		for x := range rows[y] {
			rows[y][x][0] = b.At(x, y)
		}
	}
	return rows
}

// Preprocess pads img to a square with background, resizes it bilinearly to
// size x size and thresholds it: any pixel with ink becomes 1, so strokes
// still fading out count fully until they disappear.
func Preprocess(img *image.Gray, size int) Bitmap {
	if size <= 0 {
		panic("raster: input size must be positive")
	}
	b := img.Bounds()
	side := max(b.Dx(), b.Dy())
	square := img
	if b.Dx() != b.Dy() {
		square = image.NewGray(image.Rect(0, 0, side, side))
		draw.Draw(square, b.Sub(b.Min), img, b.Min, draw.Src)
	}

	scaled := image.NewGray(image.Rect(0, 0, size, size))
	if side > 0 {
		draw.BiLinear.Scale(scaled, scaled.Bounds(), square, square.Bounds(), draw.Src, nil)
	}

	bm := Bitmap{Width: size, Height: size, Data: make([]float32, size*size)}
	for i, v := range scaled.Pix {
		bm.Data[i] = float32(math.Ceil(float64(v) / 255))
	}
	return bm
}
