package export

import (
	"context"
	"time"

	"sketchsynth/internal/state"
)

// Replay feeds the strokes of d into s with their original timing,
// so a recorded sketch drives the analysis as if drawn live. The session's
// canvas takes the recorded size first, so placement matches the recording.
func Replay(ctx context.Context, s *state.Session, d state.Data) error {
	state.Logger().Info("replaying sketch", "strokes", d.NumberOfStrokes,
		"width", d.CanvasWidth, "height", d.CanvasHeight)
	if d.CanvasWidth > 0 && d.CanvasHeight > 0 {
		s.Do(func(sk *state.Sketch) { sk.Resize(d.CanvasWidth, d.CanvasHeight) })
	}
	start := time.Now()
	for _, stroke := range d.Sketch {
		xs, ys, ts := stroke[0], stroke[1], stroke[2]
		n := min(len(xs), len(ys), len(ts))
		for i := 0; i < n; i++ {
			at := time.Duration((ts[i] - d.StartTime) * float64(time.Millisecond))
			if err := sleepUntil(ctx, start.Add(at)); err != nil {
				return nil
			}
			if i == 0 {
				s.PenDown(xs[i], ys[i])
			} else {
				s.PenMove(xs[i], ys[i])
			}
		}
		if n > 0 {
			s.PenUp()
		}
	}
	state.Logger().Info("replay finished")
	return nil
}

func sleepUntil(ctx context.Context, t time.Time) error {
	d := time.Until(t)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
