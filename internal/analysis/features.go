// Package analysis turns the live sketch into the feature vector that drives
// the synth, and schedules the draw and analysis loops around a session.
package analysis

import (
	"math"

	"sketchsynth/internal/state"
)

// Features is the per-tick description of the sketch.
type Features struct {
	Noisy   float64        `json:"noisy"`
	Thin    float64        `json:"thin"`
	Feature state.Category `json:"feature"`
	Speed   float64        `json:"speed"`
	CenterX float64        `json:"centerX"`
	CenterY float64        `json:"centerY"`
	Width   float64        `json:"width"`
	Height  float64        `json:"height"`
	Strokes int            `json:"strokes"`
	Length  int            `json:"length"`
	Acute   int            `json:"acute"`
	Corners int            `json:"corners"`
	Preset  string         `json:"preset,omitempty"`
	// CornerPoints are the end points and corners of every finished stroke,
	// in canvas pixels.
	CornerPoints [][2]float64 `json:"cornerPoints,omitempty"`
}

// Message is one addressed value, laid out like an OSC message.
type Message struct {
	Address string `json:"address"`
	Args    []any  `json:"args"`
}

// Messages splits f into one "/key" message per field.
func (f Features) Messages() []Message {
	msgs := []Message{
		{"/noisy", []any{f.Noisy}},
		{"/thin", []any{f.Thin}},
		{"/feature", []any{f.Feature.String()}},
		{"/speed", []any{f.Speed}},
		{"/centerX", []any{f.CenterX}},
		{"/centerY", []any{f.CenterY}},
		{"/width", []any{f.Width}},
		{"/height", []any{f.Height}},
		{"/strokes", []any{f.Strokes}},
		{"/length", []any{f.Length}},
		{"/acute", []any{f.Acute}},
		{"/corners", []any{f.Corners}},
	}
	if f.Preset != "" {
		msgs = append(msgs, Message{"/preset", []any{f.Preset}})
	}
	if len(f.CornerPoints) > 0 {
		args := make([]any, 0, 2*len(f.CornerPoints))
		for _, p := range f.CornerPoints {
			args = append(args, p[0], p[1])
		}
		msgs = append(msgs, Message{"/cornerPoints", args})
	}
	return msgs
}

// Preset is an annotated synth patch placed in the noisy/thin plane.
type Preset struct {
	ID    string  `json:"id" toml:"id"`
	Noisy float64 `json:"noisy" toml:"noisy"`
	Thin  float64 `json:"thin" toml:"thin"`
}

// ClosestPreset returns the ID of the preset nearest to (noisy, thin). The
// first preset wins a tie. It reports false when presets is empty.
func ClosestPreset(noisy, thin float64, presets []Preset) (string, bool) {
	best, bestDist := "", math.Inf(1)
	for _, p := range presets {
		d := math.Hypot(noisy-p.Noisy, thin-p.Thin)
		if d < bestDist {
			best, bestDist = p.ID, d
		}
	}
	return best, len(presets) > 0
}
