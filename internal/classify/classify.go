// Package classify is the boundary to the two image models: the sound model
// scoring a whole sketch and the feature model labelling the latest slice.
package classify

import (
	"context"
	"errors"

	"sketchsynth/internal/raster"
	"sketchsynth/internal/state"
)

// ErrUnavailable is returned when no model is configured or reachable.
var ErrUnavailable = errors.New("classify: model unavailable")

// Sound is the sound model's verdict on a sketch, both scores in [0, 1].
type Sound struct {
	Noisy float64 `json:"noisy"`
	Thin  float64 `json:"thin"`
}

// NeutralSound is reported when the sketch cannot be scored.
func NeutralSound() Sound { return Sound{Noisy: 0.5, Thin: 0.5} }

// NoFeature is reported when the slice cannot be labelled.
func NoFeature() state.Feature { return state.Feature{Category: state.CategoryNone} }

type SoundClassifier interface {
	PredictSound(ctx context.Context, bm raster.Bitmap) (Sound, error)
}

type FeatureClassifier interface {
	PredictFeature(ctx context.Context, bm raster.Bitmap) (state.Feature, error)
}

// BestFeature picks the most probable category from scores laid out in
// state.Categories order. Ties keep the earlier category; all-zero scores
// yield NoFeature.
func BestFeature(scores []float64) state.Feature {
	best := NoFeature()
	for i, p := range scores {
		if i >= len(state.Categories) {
			break
		}
		if p > best.Probability {
			best = state.Feature{Probability: p, Category: state.Categories[i]}
		}
	}
	return best
}

// SoundOrDefault runs c and falls back to NeutralSound on any failure.
func SoundOrDefault(ctx context.Context, c SoundClassifier, bm raster.Bitmap) Sound {
	if c == nil {
		return NeutralSound()
	}
	s, err := c.PredictSound(ctx, bm)
	if err != nil {
		warn(ctx, "sound", err)
		return NeutralSound()
	}
	return s
}

// FeatureOrDefault runs c and falls back to NoFeature on any failure.
func FeatureOrDefault(ctx context.Context, c FeatureClassifier, bm raster.Bitmap) state.Feature {
	if c == nil {
		return NoFeature()
	}
	f, err := c.PredictFeature(ctx, bm)
	if err != nil {
		warn(ctx, "feature", err)
		return NoFeature()
	}
	return f
}

func warn(ctx context.Context, model string, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		return
	case errors.Is(err, ErrUnavailable):
		state.Logger().DebugContext(ctx, "classifier unavailable", "model", model)
		return
	}
	state.Logger().WarnContext(ctx, "classifier failed, using neutral value",
		"model", model, "error", err)
}

// Unavailable is a classifier for setups without models. It always fails with
// ErrUnavailable.
type Unavailable struct{}

func (Unavailable) PredictSound(context.Context, raster.Bitmap) (Sound, error) {
	return Sound{}, ErrUnavailable
}

func (Unavailable) PredictFeature(context.Context, raster.Bitmap) (state.Feature, error) {
	return state.Feature{}, ErrUnavailable
}
