package analysis

import (
	"context"
	"sync"

	"sketchsynth/internal/classify"
	"sketchsynth/internal/raster"
	"sketchsynth/internal/state"
)

// Options configures an Analyser.
type Options struct {
	// SliceLen is the number of recent points the feature model sees.
	SliceLen int
	// SpeedLimit is the number of recent points speed is measured over.
	SpeedLimit int
	SpeedScale bool
	// RasterSize is the side of the intermediate drawing, InputSize the side
	// of the bitmap handed to the models.
	RasterSize int
	InputSize  int
	LineWidth  float64
	Presets    []Preset
}

func DefaultOptions() Options {
	return Options{
		SliceLen:   15,
		SpeedLimit: 3,
		SpeedScale: true,
		RasterSize: 100,
		InputSize:  raster.DefaultInputSize,
		LineWidth:  raster.DefaultLineWidth,
	}
}

// Analyser computes Features for a session.
type Analyser struct {
	session *state.Session
	sound   classify.SoundClassifier
	feature classify.FeatureClassifier
	opts    Options

	mu  sync.Mutex // guards ras
	ras *raster.Rasterizer
}

// NewAnalyser returns an analyser for s. Nil classifiers yield neutral values.
func NewAnalyser(s *state.Session, sound classify.SoundClassifier, feature classify.FeatureClassifier, opts Options) *Analyser {
	if opts.SliceLen <= 0 || opts.RasterSize <= 0 || opts.InputSize <= 0 {
		panic("analysis: slice length and raster sizes must be positive")
	}
	return &Analyser{
		session: s,
		sound:   sound,
		feature: feature,
		opts:    opts,
		ras:     raster.New(opts.RasterSize, opts.RasterSize, opts.LineWidth),
	}
}

// snapshot is the sketch state one analysis pass works on, taken under the
// session lock.
type snapshot struct {
	strokes  [][]state.Point
	box      state.Box
	slice    state.Slice
	sliceBox state.Box
	f        Features
}

// Analyse scores the current sketch and fuses the slice verdict back into the
// stroke it came from. The session is not locked while the models run, so
// the sketch may change underneath; fusion tolerates that.
func (a *Analyser) Analyse(ctx context.Context) Features {
	var snap snapshot
	a.session.Do(func(sk *state.Sketch) { snap = a.snapshot(sk) })

	f := snap.f
	sound := classify.NeutralSound()
	if !snap.box.Empty() {
		sound = classify.SoundOrDefault(ctx, a.sound, a.bitmap(snap.strokes, snap.box))
	}
	f.Noisy, f.Thin = sound.Noisy, sound.Thin

	feature := classify.NoFeature()
	if len(snap.slice.Points) > 1 && !snap.sliceBox.Empty() {
		feature = classify.FeatureOrDefault(ctx, a.feature,
			a.bitmap([][]state.Point{snap.slice.Points}, snap.sliceBox))
	}
	f.Feature = feature.Category

	if !snap.slice.Empty() && feature.Category != state.CategoryNone {
		var n int
		a.session.Do(func(sk *state.Sketch) { n = sk.ApplyFeature(snap.slice, feature) })
		state.Logger().Debug("feature fused",
			"feature", feature.Category, "probability", feature.Probability, "points", n)
	}

	if id, ok := ClosestPreset(f.Noisy, f.Thin, a.opts.Presets); ok {
		f.Preset = id
	}
	return f
}

func (a *Analyser) snapshot(sk *state.Sketch) snapshot {
	strokes := sk.Strokes()
	snap := snapshot{
		strokes: make([][]state.Point, 0, len(strokes)),
		box:     sk.BoundingBox(),
		slice:   sk.CurrentSlice(a.opts.SliceLen),
	}
	for _, s := range strokes {
		snap.strokes = append(snap.strokes, s.Points())
	}
	snap.sliceBox = sk.Bounds(snap.slice.Points)

	pl := sk.Normalize(snap.box)
	cs := sk.Corners()
	snap.f = Features{
		Speed:   sk.CurrentSpeed(a.opts.SpeedLimit, a.opts.SpeedScale),
		CenterX: pl.CenterX,
		CenterY: pl.CenterY,
		Width:   pl.Width,
		Height:  pl.Height,
		Strokes: sk.Len(),
		Length:  sk.TotalStrokeLength(),
		Acute:   cs.Acute,
		Corners: cs.Acute + cs.Obtuse,
	}
	for _, c := range cs.Coords {
		snap.f.CornerPoints = append(snap.f.CornerPoints, [2]float64{c.X, c.Y})
	}
	return snap
}

func (a *Analyser) bitmap(strokes [][]state.Point, box state.Box) raster.Bitmap {
	a.mu.Lock()
	img := a.ras.Draw(strokes, box)
	a.mu.Unlock()
	return raster.Preprocess(img, a.opts.InputSize)
}
