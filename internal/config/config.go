// Package config loads the TOML settings file.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"strings"
	"time"

	"sketchsynth/internal/analysis"
	"sketchsynth/internal/gesture"
	"sketchsynth/internal/state"

	"github.com/BurntSushi/toml"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Duration is a time.Duration written as "100ms" in TOML.
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Colour is an RGB colour written as [r, g, b].
type Colour [3]uint8

func (c Colour) NRGBA() color.NRGBA { return color.NRGBA{R: c[0], G: c[1], B: c[2], A: 255} }

type Canvas struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

type Sketch struct {
	Decay      float64 `toml:"decay"`
	LineWidth  float64 `toml:"line_width"`
	LineColour Colour  `toml:"line_colour"`
	Background Colour  `toml:"background"`
	// Features maps category names to their display colour.
	Features map[string]Colour `toml:"features"`
	Epsilon  float64           `toml:"epsilon"`
	// Simplified draws finished strokes through their RDP outline.
	Simplified bool `toml:"simplified"`
}

type Corners struct {
	Spacing    float64 `toml:"spacing"`
	Window     int     `toml:"window"`
	Threshold  float64 `toml:"threshold"`
	MinSpacing int     `toml:"min_spacing"`
	LineRatio  float64 `toml:"line_ratio"`
	AcuteAngle float64 `toml:"acute_angle"`
}

type Analysis struct {
	DrawRate   float64  `toml:"draw_rate"`
	Interval   Duration `toml:"interval"`
	SliceLen   int      `toml:"slice_length"`
	SpeedLimit int      `toml:"speed_limit"`
	SpeedScale bool     `toml:"speed_scale"`
	RasterSize int      `toml:"raster_size"`
	InputSize  int      `toml:"input_size"`
	RasterLine float64  `toml:"raster_line_width"`

	Presets []analysis.Preset `toml:"presets"`
}

type Classifier struct {
	SoundURL   string   `toml:"sound_url"`
	FeatureURL string   `toml:"feature_url"`
	Timeout    Duration `toml:"timeout"`
}

type Bridge struct {
	Addr string `toml:"addr"`
	MDNS bool   `toml:"mdns"`
}

type Config struct {
	LogLevel   string     `toml:"log_level"`
	Canvas     Canvas     `toml:"canvas"`
	Sketch     Sketch     `toml:"sketch"`
	Corners    Corners    `toml:"corners"`
	Analysis   Analysis   `toml:"analysis"`
	Classifier Classifier `toml:"classifier"`
	Bridge     Bridge     `toml:"bridge"`
}

// Default returns the stock settings of the drawing interface.
func Default() Config {
	co := gesture.DefaultOptions()
	ao := analysis.DefaultOptions()
	return Config{
		LogLevel: "info",
		Canvas:   Canvas{Width: 1024, Height: 768},
		Sketch: Sketch{
			Decay:      0.0001,
			LineWidth:  6,
			LineColour: Colour{0, 0, 0},
			Background: Colour{255, 255, 255},
			Features: map[string]Colour{
				"Acute":  {255, 0, 0},
				"Obtuse": {0, 255, 0},
				"Curve":  {0, 0, 255},
				"Line":   {255, 255, 0},
				"None":   {0, 0, 0},
			},
			Epsilon:    2,
			Simplified: true,
		},
		Corners: Corners{
			Spacing:    co.Spacing,
			Window:     co.Window,
			Threshold:  co.Threshold,
			MinSpacing: co.MinSpacing,
			LineRatio:  co.LineRatio,
			AcuteAngle: co.AcuteAngle,
		},
		Analysis: Analysis{
			DrawRate:   30,
			Interval:   Duration{100 * time.Millisecond},
			SliceLen:   ao.SliceLen,
			SpeedLimit: ao.SpeedLimit,
			SpeedScale: ao.SpeedScale,
			RasterSize: ao.RasterSize,
			InputSize:  ao.InputSize,
			RasterLine: ao.LineWidth,
		},
		Classifier: Classifier{Timeout: Duration{2 * time.Second}},
		Bridge:     Bridge{Addr: ":8080", MDNS: true},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%w: %s: unknown keys %s", ErrInvalid, path, strings.Join(keys, ", "))
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

// Write encodes c as TOML to path.
func (c Config) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return fmt.Errorf("config: encode %s: %w", path, err)
	}
	return f.Close()
}

func invalid(field string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalid, field, fmt.Sprintf(format, args...))
}

// Validate reports the first setting that would make the pipeline panic or
// stall.
func (c Config) Validate() error {
	switch {
	case !(c.Canvas.Width > 0 && c.Canvas.Height > 0):
		return invalid("canvas", "size %gx%g must be positive", c.Canvas.Width, c.Canvas.Height)
	case c.Sketch.Decay < 0:
		return invalid("sketch.decay", "%g is negative", c.Sketch.Decay)
	case c.Sketch.Epsilon < 0:
		return invalid("sketch.epsilon", "%g is negative", c.Sketch.Epsilon)
	case c.Sketch.LineWidth <= 0:
		return invalid("sketch.line_width", "%g must be positive", c.Sketch.LineWidth)
	case c.Corners.Spacing <= 0:
		return invalid("corners.spacing", "%g must be positive", c.Corners.Spacing)
	case c.Corners.Window < 1:
		return invalid("corners.window", "%d must be at least 1", c.Corners.Window)
	case !(c.Corners.Threshold > 0 && c.Corners.Threshold <= 1):
		return invalid("corners.threshold", "%g must be in (0, 1]", c.Corners.Threshold)
	case c.Corners.MinSpacing < 1:
		return invalid("corners.min_spacing", "%d must be at least 1", c.Corners.MinSpacing)
	case !(c.Corners.LineRatio >= 0 && c.Corners.LineRatio <= 1):
		return invalid("corners.line_ratio", "%g must be in [0, 1]", c.Corners.LineRatio)
	case !(c.Corners.AcuteAngle > 0 && c.Corners.AcuteAngle < 180):
		return invalid("corners.acute_angle", "%g must be in (0, 180)", c.Corners.AcuteAngle)
	case c.Analysis.DrawRate <= 0:
		return invalid("analysis.draw_rate", "%g must be positive", c.Analysis.DrawRate)
	case c.Analysis.Interval.Duration <= 0:
		return invalid("analysis.interval", "%s must be positive", c.Analysis.Interval)
	case c.Analysis.SpeedLimit < 2:
		return invalid("analysis.speed_limit", "%d must be at least 2", c.Analysis.SpeedLimit)
	case c.Analysis.SliceLen < 2:
		return invalid("analysis.slice_length", "%d must be at least 2", c.Analysis.SliceLen)
	case c.Analysis.RasterSize <= 0 || c.Analysis.InputSize <= 0:
		return invalid("analysis", "raster sizes %d and %d must be positive", c.Analysis.RasterSize, c.Analysis.InputSize)
	}
	for name := range c.Sketch.Features {
		if _, err := state.ParseCategory(name); err != nil {
			return invalid("sketch.features", "%v", err)
		}
	}
	if _, err := c.Level(); err != nil {
		return invalid("log_level", "%v", err)
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(c.LogLevel))
	return l, err
}

// Params returns the sketch settings.
func (c Config) Params() state.Params {
	p := state.DefaultParams()
	p.Decay = c.Sketch.Decay
	p.Epsilon = c.Sketch.Epsilon
	p.Corners = c.CornerOptions()
	p.Palette.Line = c.Sketch.LineColour.NRGBA()
	p.Palette.Blend = c.Sketch.Background.NRGBA()
	p.Palette.Width = c.Sketch.LineWidth
	for name, col := range c.Sketch.Features {
		if cat, err := state.ParseCategory(name); err == nil {
			p.Palette.Features[cat] = col.NRGBA()
		}
	}
	return p
}

func (c Config) CornerOptions() gesture.Options {
	return gesture.Options{
		Spacing:    c.Corners.Spacing,
		Window:     c.Corners.Window,
		Threshold:  c.Corners.Threshold,
		MinSpacing: c.Corners.MinSpacing,
		LineRatio:  c.Corners.LineRatio,
		AcuteAngle: c.Corners.AcuteAngle,
	}
}

func (c Config) AnalysisOptions() analysis.Options {
	return analysis.Options{
		SliceLen:   c.Analysis.SliceLen,
		SpeedLimit: c.Analysis.SpeedLimit,
		SpeedScale: c.Analysis.SpeedScale,
		RasterSize: c.Analysis.RasterSize,
		InputSize:  c.Analysis.InputSize,
		LineWidth:  c.Analysis.RasterLine,
		Presets:    c.Analysis.Presets,
	}
}

// DrawInterval converts the draw rate to a ticker period.
func (c Config) DrawInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.Analysis.DrawRate)
}
