package scroll

import "math"

// DefaultSpeedScale maps progress change per frame to speed; one scene of
// progress is about one viewport of page scroll.
const DefaultSpeedScale = 15

// Speed follows how fast progress is moving, in [0, 1]. A change sets a
// target the output eases toward; the target itself eases back to 0, so the
// value rises quickly and falls off after scrolling stops. Not safe for
// concurrent use; the render loop owns it.
type Speed struct {
	Scale float64 // speed per unit of progress change; 0 means DefaultSpeedScale

	last   float64
	primed bool
	target float64
	value  float64
}

// Update feeds the progress read this frame and dt seconds since the last
// frame, and returns the smoothed speed.
func (s *Speed) Update(progress, dt float64) float64 {
	scale := s.Scale
	if scale <= 0 {
		scale = DefaultSpeedScale
	}
	if !s.primed {
		s.last, s.primed = progress, true
	}
	if d := math.Abs(progress - s.last); d > 0 {
		s.target = math.Min(d*scale, 1)
	}
	s.last = progress

	if dt > 0 {
		k := 1 - math.Pow(0.001, dt)
		s.value += (s.target - s.value) * k * 0.3
		s.target -= s.target * k * 0.1
	}
	return s.value
}

// Value returns the last smoothed speed.
func (s *Speed) Value() float64 { return s.value }
