package shader

import (
	"math"

	"scroll-trail-renderer/internal/mathutil"
	"scroll-trail-renderer/internal/raster"
)

// Glitch schedules short bursts of band displacement and channel split.
// Each range is [min, max]; per-burst values are picked from a hash of the
// burst number, so the schedule is a pure function of time.
type Glitch struct {
	Delay    [2]float64 // seconds of calm before a burst
	Duration [2]float64 // seconds
	Strength [2]float64
	Bands    float64 // horizontal bands across the frame
	Rate     float64 // displacement reshuffles per second during a burst
}

// DefaultGlitch matches the page's post-processing glitch.
func DefaultGlitch() Glitch {
	return Glitch{
		Delay:    [2]float64{1.5, 3.5},
		Duration: [2]float64{0.6, 1.0},
		Strength: [2]float64{0.3, 1.0},
		Bands:    24,
		Rate:     20,
	}
}

// Burst returns the glitch strength at time t and a seed that changes Rate
// times per second. Strength is 0 between bursts.
//
// Time is cut into slots of Delay[1]+Duration[1] seconds holding one burst
// each, which starts after that slot's delay.
func (g Glitch) Burst(t float64) (strength, seed float64) {
	slot := g.Delay[1] + g.Duration[1]
	if !(t >= 0) || !(slot > 0) {
		return 0, 0
	}
	k := math.Floor(t / slot)
	off := t - k*slot
	delay := mathutil.Mix(g.Delay[0], g.Delay[1], hash2(k, 1))
	dur := mathutil.Mix(g.Duration[0], g.Duration[1], hash2(k, 2))
	if off < delay || off >= delay+dur {
		return 0, 0
	}
	strength = mathutil.Mix(g.Strength[0], g.Strength[1], hash2(k, 3))
	return strength, k*1000 + math.Floor(off*g.Rate)
}

// Displace samples src with the band offsets and channel split of a burst
// of the given strength.
func (g Glitch) Displace(src *raster.Buffer, u, v, strength, seed float64) raster.Color {
	bands := g.Bands
	if bands <= 0 {
		bands = 1
	}
	band := math.Floor(v * bands)
	du := 0.0
	if hash2(band, seed) < strength*0.6 {
		du = (hash2(band, seed+17) - 0.5) * 0.2 * strength
	}
	split := 0.01 * strength * hash2(seed, 5)
	return raster.Color{
		src.Sample(u+du+split, v)[0],
		src.Sample(u+du, v)[1],
		src.Sample(u+du-split, v)[2],
		1,
	}
}

// GlitchPass runs the glitch over Src at Time as a standalone program.
type GlitchPass struct {
	Src    *raster.Buffer
	Glitch Glitch
	Time   float64
}

func (p GlitchPass) Inputs() []*raster.Buffer { return []*raster.Buffer{p.Src} }

func (p GlitchPass) Shade(u, v float64) raster.Color {
	s, seed := p.Glitch.Burst(p.Time)
	if s == 0 {
		return p.Src.Sample(u, v)
	}
	return p.Glitch.Displace(p.Src, u, v, s, seed)
}
