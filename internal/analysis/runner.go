package analysis

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"sketchsynth/internal/state"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultDrawInterval    = time.Second / 30
	DefaultAnalyseInterval = 100 * time.Millisecond
)

// Runner drives a session: a draw loop that evicts faded points and renders
// frames, and a slower analysis loop that publishes Features. An analysis
// pass never blocks the draw loop and at most one pass is in flight.
type Runner struct {
	Session  *state.Session
	Analyser *Analyser

	DrawInterval    time.Duration
	AnalyseInterval time.Duration

	// OnFrame receives every rendered frame. It runs on the draw loop.
	OnFrame func([]state.RenderedStroke)
	// Publish receives the result of each analysis pass.
	Publish func(Features)

	showFeatures atomic.Bool
	simplified   atomic.Bool
	busy         atomic.Bool
	skipped      atomic.Int64
	passes       sync.WaitGroup
}

// NewRunner returns a runner with the default intervals.
func NewRunner(s *state.Session, a *Analyser) *Runner {
	return &Runner{
		Session:         s,
		Analyser:        a,
		DrawInterval:    DefaultDrawInterval,
		AnalyseInterval: DefaultAnalyseInterval,
	}
}

// SetShowFeatures switches frames between plain and feature colours.
func (r *Runner) SetShowFeatures(on bool) { r.showFeatures.Store(on) }

func (r *Runner) ShowFeatures() bool { return r.showFeatures.Load() }

// SetSimplified switches finished strokes between their sampled points and
// their RDP outline.
func (r *Runner) SetSimplified(on bool) { r.simplified.Store(on) }

func (r *Runner) Simplified() bool { return r.simplified.Load() }

// Skipped returns how many analysis ticks found a pass still running.
func (r *Runner) Skipped() int64 { return r.skipped.Load() }

// Run blocks until ctx is done, then waits for an in-flight analysis pass.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.loop(ctx, r.DrawInterval, r.Frame) })
	if r.Analyser != nil {
		g.Go(func() error { return r.loop(ctx, r.AnalyseInterval, r.analyse) })
	}
	err := g.Wait()
	r.passes.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *Runner) loop(ctx context.Context, every time.Duration, tick func(context.Context)) error {
	if every <= 0 {
		return nil
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			tick(ctx)
		}
	}
}

// Frame advances the sketch to now and hands the rendered strokes to OnFrame.
func (r *Runner) Frame(context.Context) {
	now := r.Session.Now()
	opts := state.RenderOptions{
		Features:   r.showFeatures.Load(),
		Simplified: r.simplified.Load(),
	}
	var frame []state.RenderedStroke
	r.Session.Do(func(sk *state.Sketch) {
		sk.Advance(now)
		frame = sk.Render(now, opts)
	})
	if r.OnFrame != nil {
		r.OnFrame(frame)
	}
}

func (r *Runner) analyse(ctx context.Context) {
	if !r.busy.CompareAndSwap(false, true) {
		r.skipped.Add(1)
		return
	}
	r.passes.Add(1)
	go func() {
		defer r.passes.Done()
		defer r.busy.Store(false)
		f := r.Analyser.Analyse(ctx)
		if ctx.Err() != nil {
			return
		}
		if r.Publish != nil {
			r.Publish(f)
		}
	}()
}
