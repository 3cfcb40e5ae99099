package state

import (
	"fmt"

	"sketchsynth/internal/gesture"
)

// Category is the geometric feature a point has been classified as.
type Category int

const (
	CategoryNone Category = iota
	CategoryLine
	CategoryCurve
	CategoryAcute
	CategoryObtuse
)

// Categories lists the classifier output order. None is not a classifier
// output; it marks a point with no evidence yet.
var Categories = []Category{CategoryLine, CategoryCurve, CategoryAcute, CategoryObtuse}

var categoryNames = map[Category]string{
	CategoryNone:   "None",
	CategoryLine:   "Line",
	CategoryCurve:  "Curve",
	CategoryAcute:  "Acute",
	CategoryObtuse: "Obtuse",
}

func (c Category) String() string {
	if s, ok := categoryNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// ParseCategory maps a name such as "Curve" back to its Category.
func ParseCategory(s string) (Category, error) {
	for c, name := range categoryNames {
		if name == s {
			return c, nil
		}
	}
	return CategoryNone, fmt.Errorf("state: unknown category %q", s)
}

func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Category) UnmarshalText(b []byte) error {
	v, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Feature is a classifier verdict attached to a point.
type Feature struct {
	Probability float64  `json:"probability"`
	Category    Category `json:"category"`
}

// Point is one pointer sample. T is milliseconds since the sketch epoch.
type Point struct {
	X, Y, T float64
	Feature Feature
}

// Vec drops the time and feature of p.
func (p Point) Vec() gesture.Vec { return gesture.Vec{X: p.X, Y: p.Y} }

// Vecs converts a point sequence for the gesture package.
func Vecs(pts []Point) []gesture.Vec {
	out := make([]gesture.Vec, len(pts))
	for i, p := range pts {
		out[i] = p.Vec()
	}
	return out
}
