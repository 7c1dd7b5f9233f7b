// Package cursor turns raw pointer movement into the normalized position and
// decaying velocity that drive the trail simulation.
package cursor

import (
	"sync"

	"scroll-trail-renderer/internal/mathutil"
)

// Config tunes the tracker.
type Config struct {
	Sensitivity float64 // velocity per unit of normalized movement
	Decay       float64 // per-frame velocity multiplier, in (0, 1)
	MaxVelocity float64
	Epsilon     float64 // decayed velocities below this snap to 0
}

// DefaultConfig returns the tracker tuning used by the trail.
func DefaultConfig() Config {
	return Config{
		Sensitivity: 15,
		Decay:       0.93,
		MaxVelocity: 8,
		Epsilon:     1e-4,
	}
}

// State is a read-only snapshot handed to the simulation.
type State struct {
	Position mathutil.Vec2 // [0,1]², origin bottom-left
	Previous mathutil.Vec2
	Velocity float64
}

// Tracker accumulates pointer events from any goroutine; the render loop reads
// it once per frame through Advance. The last event wins.
type Tracker struct {
	cfg Config

	mu        sync.Mutex
	width     float64
	height    float64
	state     State
	lastFrame uint64
	advanced  bool
	closed    bool
}

// NewTracker starts with the cursor resting at the viewport centre.
func NewTracker(cfg Config, width, height int) *Tracker {
	center := mathutil.Vec2{0.5, 0.5}
	return &Tracker{
		cfg:    cfg,
		width:  float64(width),
		height: float64(height),
		state:  State{Position: center, Previous: center},
	}
}

// SetViewport updates the pixel size used for normalization.
func (t *Tracker) SetViewport(width, height int) {
	t.mu.Lock()
	t.width, t.height = float64(width), float64(height)
	t.mu.Unlock()
}

// OnPointerMove records a pointer position in viewport pixels (origin top
// left). It reports false when the event was ignored: the tracker is closed
// or has no viewport.
func (t *Tracker) OnPointerMove(x, y float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.width <= 0 || t.height <= 0 {
		return false
	}

	pos := mathutil.Vec2{
		mathutil.Clamp01(x / t.width),
		mathutil.Clamp01(1 - y/t.height),
	}
	t.state.Previous = t.state.Position
	t.state.Position = pos
	t.state.Velocity = min(pos.Dist(t.state.Previous)*t.cfg.Sensitivity, t.cfg.MaxVelocity)
	return true
}

// Advance applies the per-frame velocity decay for frame and returns the
// resulting state. Decay happens at most once per frame number: calling
// Advance again for the same (or an older) frame returns the snapshot
// unchanged.
func (t *Tracker) Advance(frame uint64) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.advanced && frame <= t.lastFrame {
		return t.state
	}
	t.advanced = true
	t.lastFrame = frame

	t.state.Velocity *= t.cfg.Decay
	if t.state.Velocity < t.cfg.Epsilon {
		t.state.Velocity = 0
	}
	return t.state
}

// Snapshot returns the current state without decaying it.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Close stops the tracker from accepting input.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
}
