package config

import (
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sketchsynth/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sketchsynth.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	p := c.Params()
	assert.Equal(t, 0.0001, p.Decay)
	assert.Equal(t, 2.0, p.Epsilon)
	assert.Equal(t, 6.0, p.Palette.Width)
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, p.Palette.FeatureColour(state.CategoryAcute))
	assert.Equal(t, 3, p.Corners.Window)
	assert.Equal(t, 1.0/40, p.Corners.Spacing)
	assert.True(t, c.Sketch.Simplified)
	assert.Equal(t, time.Second/30, c.DrawInterval())

	ao := c.AnalysisOptions()
	assert.Equal(t, 15, ao.SliceLen)
	assert.Equal(t, 28, ao.InputSize)

	l, err := c.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, l)
}

func TestLoadEmptyPath(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
log_level = "debug"

[canvas]
width = 800
height = 600

[sketch]
decay = 0.001
line_colour = [10, 20, 30]

[sketch.features]
Curve = [1, 2, 3]

[analysis]
interval = "250ms"

[[analysis.presets]]
id = "pad"
noisy = 0.2
thin = 0.8

[classifier]
sound_url = "http://localhost:8501/v1/models/sound:predict"
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 800.0, c.Canvas.Width)
	assert.Equal(t, 0.001, c.Sketch.Decay)
	assert.Equal(t, 2.0, c.Sketch.Epsilon, "unset keys keep their default")
	assert.Equal(t, 250*time.Millisecond, c.Analysis.Interval.Duration)
	assert.Equal(t, "http://localhost:8501/v1/models/sound:predict", c.Classifier.SoundURL)
	assert.Equal(t, ":8080", c.Bridge.Addr)

	p := c.Params()
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, p.Palette.Line)
	assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 255}, p.Palette.FeatureColour(state.CategoryCurve))

	ao := c.AnalysisOptions()
	require.Len(t, ao.Presets, 1)
	assert.Equal(t, "pad", ao.Presets[0].ID)
	assert.Equal(t, 0.8, ao.Presets[0].Thin)

	l, err := c.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)
}

func TestLoadRejectsInvalid(t *testing.T) {
	for name, body := range map[string]string{
		"zero canvas":       "[canvas]\nwidth = 0\n",
		"negative epsilon":  "[sketch]\nepsilon = -1\n",
		"bad category":      "[sketch.features]\nSpiral = [0, 0, 0]\n",
		"zero interval":     "[analysis]\ninterval = \"0s\"\n",
		"short slice":       "[analysis]\nslice_length = 1\n",
		"short speed limit": "[analysis]\nspeed_limit = 1\n",
		"zero threshold":    "[corners]\nthreshold = 0.0\n",
		"large threshold":   "[corners]\nthreshold = 1.5\n",
		"zero min spacing":  "[corners]\nmin_spacing = 0\n",
		"line ratio":        "[corners]\nline_ratio = 2.0\n",
		"straight acute":    "[corners]\nacute_angle = 180.0\n",
		"unknown key":       "colour = \"red\"\n",
		"bad level":         "log_level = \"loud\"\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, body))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "[canvas\n"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.toml")
	c := Default()
	c.Bridge.Addr = ":9000"
	require.NoError(t, c.Write(path))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", back.Bridge.Addr)
	assert.Equal(t, c.Analysis.Interval, back.Analysis.Interval)
	assert.Equal(t, c.Sketch.Features, back.Sketch.Features)
}
