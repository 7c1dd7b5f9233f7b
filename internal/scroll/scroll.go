// Package scroll maps page scroll to the scene progress value read by the
// compositor.
package scroll

import (
	"fmt"
	"math"
	"sync"

	"github.com/charmbracelet/harmonica"

	"scroll-trail-renderer/internal/mathutil"
)

// Source publishes the current progress in [0, sceneCount-1]. The compositor
// reads it once per frame and applies no smoothing of its own.
type Source interface {
	Progress() float64
}

// Ticker is a Source that eases toward its target once per frame.
type Ticker interface {
	Source
	Tick()
}

// Fixed is a constant progress value.
type Fixed float64

func (f Fixed) Progress() float64 { return float64(f) }

// Smoothing selects how a Mapper approaches its target.
type Smoothing string

const (
	SmoothingNone   Smoothing = "none"
	SmoothingLerp   Smoothing = "lerp"
	SmoothingSpring Smoothing = "spring"
)

// Window is the span of overall scroll fraction over which one scene
// transition plays out.
type Window struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Config configures a Mapper.
type Config struct {
	SceneCount int
	Windows    []Window // one per transition; nil spreads them evenly
	Smoothing  Smoothing
	LerpFactor float64 // fraction of the remaining distance covered per frame
	FPS        int
	Frequency  float64 // spring angular frequency
	Damping    float64 // spring damping ratio
}

// DefaultConfig returns a spring-smoothed mapper config for n scenes.
func DefaultConfig(n int) Config {
	return Config{
		SceneCount: n,
		Smoothing:  SmoothingSpring,
		LerpFactor: 0.12,
		FPS:        60,
		Frequency:  6,
		Damping:    1,
	}
}

// EvenWindows splits [0, 1] into n equal transition windows.
func EvenWindows(n int) []Window {
	ws := make([]Window, n)
	for i := range ws {
		ws[i] = Window{Start: float64(i) / float64(n), End: float64(i+1) / float64(n)}
	}
	return ws
}

// snapDistance ends lerp and spring motion once this close to the target.
const snapDistance = 1e-3

// Mapper converts scroll events into progress. Publish and Set may be called
// from any goroutine; Tick belongs to the render loop.
type Mapper struct {
	cfg    Config
	spring harmonica.Spring
	max    float64

	mu       sync.Mutex
	target   float64
	current  float64
	velocity float64
}

// NewMapper validates cfg and returns a mapper resting at progress 0.
func NewMapper(cfg Config) (*Mapper, error) {
	if cfg.SceneCount < 1 {
		return nil, fmt.Errorf("scroll: scene count %d: need at least one scene", cfg.SceneCount)
	}
	if cfg.Windows == nil {
		cfg.Windows = EvenWindows(cfg.SceneCount - 1)
	}
	if len(cfg.Windows) != cfg.SceneCount-1 {
		return nil, fmt.Errorf("scroll: %d windows for %d scenes: want one per transition",
			len(cfg.Windows), cfg.SceneCount)
	}
	for i, w := range cfg.Windows {
		if !(w.End > w.Start) {
			return nil, fmt.Errorf("scroll: window %d [%v, %v] is empty", i, w.Start, w.End)
		}
	}
	if cfg.Smoothing == "" {
		cfg.Smoothing = SmoothingNone
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 60
	}

	m := &Mapper{cfg: cfg, max: float64(cfg.SceneCount - 1)}
	if cfg.Smoothing == SmoothingSpring {
		m.spring = harmonica.NewSpring(harmonica.FPS(cfg.FPS), cfg.Frequency, cfg.Damping)
	}
	return m, nil
}

// Target maps an overall scroll fraction to unsmoothed progress: the sum of
// each transition window's completed fraction.
func (m *Mapper) Target(fraction float64) float64 {
	if math.IsNaN(fraction) {
		return 0
	}
	p := 0.0
	for _, w := range m.cfg.Windows {
		p += mathutil.Clamp01((fraction - w.Start) / (w.End - w.Start))
	}
	return p
}

// Publish records a scroll event as a fraction of the scrollable height.
func (m *Mapper) Publish(fraction float64) {
	m.Set(m.Target(fraction))
}

// Set publishes an already-normalized progress value.
func (m *Mapper) Set(progress float64) {
	if math.IsNaN(progress) {
		return
	}
	m.mu.Lock()
	m.target = mathutil.Clamp(progress, 0, m.max)
	if m.cfg.Smoothing == SmoothingNone {
		m.current = m.target
	}
	m.mu.Unlock()
}

// Tick advances smoothing by one frame.
func (m *Mapper) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.cfg.Smoothing {
	case SmoothingLerp:
		m.current += (m.target - m.current) * m.cfg.LerpFactor
	case SmoothingSpring:
		m.current, m.velocity = m.spring.Update(m.current, m.velocity, m.target)
	default:
		m.current = m.target
	}
	if math.Abs(m.target-m.current) < snapDistance && math.Abs(m.velocity) < snapDistance {
		m.current = m.target
		m.velocity = 0
	}
}

// Progress returns the smoothed progress, clamped to [0, sceneCount-1].
func (m *Mapper) Progress() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return mathutil.Clamp(m.current, 0, m.max)
}
