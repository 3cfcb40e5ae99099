package state

import (
	"sync"

	"github.com/google/uuid"
)

// Session is the single exclusive-access path to a live Sketch. Pointer
// events, the draw loop and classifier callbacks all mutate the sketch
// through Do, so eviction and fusion are never interleaved.
type Session struct {
	ID string

	mu     sync.Mutex
	sketch *Sketch
	clock  *Clock
}

// NewSession wraps sk, timing it with clock.
func NewSession(sk *Sketch, clock *Clock) *Session {
	if clock == nil {
		clock = NewClock()
	}
	s := &Session{ID: uuid.NewString(), sketch: sk, clock: clock}
	Logger().Info("session created", "session", s.ID,
		"width", sk.Width(), "height", sk.Height())
	return s
}

// Now returns the session time in milliseconds.
func (s *Session) Now() float64 { return s.clock.Millis() }

// Do runs fn with exclusive access to the sketch.
func (s *Session) Do(fn func(sk *Sketch)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.sketch)
}

// PenDown starts a stroke at (x, y). Positions off the canvas are clamped
// to its edge, here and in PenMove.
func (s *Session) PenDown(x, y float64) {
	t := s.Now()
	s.Do(func(sk *Sketch) {
		sk.BeginStroke()
		cx, cy := sk.Clamp(x, y)
		_, _ = sk.AddPoint(cx, cy, t)
	})
}

// PenMove adds a sample to the active stroke. Samples with the pen up are
// ignored.
func (s *Session) PenMove(x, y float64) {
	t := s.Now()
	s.Do(func(sk *Sketch) {
		cx, cy := sk.Clamp(x, y)
		_, _ = sk.AddPoint(cx, cy, t)
	})
}

// PenUp finishes the active stroke.
func (s *Session) PenUp() {
	s.Do(func(sk *Sketch) { sk.EndStroke() })
}

// Reset clears the sketch and restarts the clock.
func (s *Session) Reset() {
	s.Do(func(sk *Sketch) {
		s.clock.Reset()
		sk.Clear(0)
	})
	Logger().Info("session reset", "session", s.ID)
}
