package shader

import (
	"math"

	"scroll-trail-renderer/internal/mathutil"
	"scroll-trail-renderer/internal/raster"
)

// TrailParams tunes the feedback simulation. All fields are independent.
type TrailParams struct {
	Decay              float64 // trail persistence per step, in (0, 1)
	Diffusion          float64 // neighbour tap offset multiplier
	DiffusionRetain    float64 // weight of the spread neighbours, in (0, 1)
	LightningWidth     float64 // core beam half-width in UV units
	LightningIntensity float64
	Drift              float64 // ambient UV wander amplitude
	DistortionStrength float64
	DistortionRadius   float64
	ColorMix           float64
	Color1             mathutil.Vec3
	Color2             mathutil.Vec3
	GlowScale          float64 // multiplier on the lightning + glow contribution
	MaxIntensity       float64 // per-channel clamp of the accumulated trail
	VelocityEpsilon    float64 // below this the lightning term is skipped
}

// DefaultTrailParams is the "sharp" tuning.
func DefaultTrailParams() TrailParams {
	return TrailParams{
		Decay:              0.80,
		Diffusion:          3.7,
		DiffusionRetain:    0.96,
		LightningWidth:     0.09,
		LightningIntensity: 2.6,
		Drift:              0.03,
		DistortionStrength: 0.2,
		DistortionRadius:   0.1,
		ColorMix:           0.5,
		Color1:             mathutil.Vec3{0xaa / 255.0, 0xaa / 255.0, 0xaa / 255.0},
		Color2:             mathutil.Vec3{0, 0, 0},
		GlowScale:          10.5,
		MaxIntensity:       3.0,
		VelocityEpsilon:    1e-4,
	}
}

// TrailUniforms are the per-frame inputs of one simulation step.
type TrailUniforms struct {
	Mouse     mathutil.Vec2
	PrevMouse mathutil.Vec2
	Velocity  float64
	Time      float64
}

// Minimum cursor segment length for the lightning bolt.
const minSegment = 0.001

// Diffusion taps: four axis neighbours then four diagonals.
var (
	diffusionTaps = [8][2]float64{
		{1, 0}, {-1, 0}, {0, 1}, {0, -1},
		{1, 1}, {-1, -1}, {1, -1}, {-1, 1},
	}
	diffusionWeights = [8]float64{0.15, 0.15, 0.15, 0.15, 0.1, 0.1, 0.1, 0.1}
)

// TrailStep is the feedback simulation program. It reads Prev (last frame's
// trail) and produces the next trail value; it must never target Prev.
type TrailStep struct {
	Prev     *raster.Buffer
	Params   TrailParams
	Uniforms TrailUniforms
}

func (s TrailStep) Inputs() []*raster.Buffer { return []*raster.Buffer{s.Prev} }

func (s TrailStep) Shade(u, v float64) raster.Color {
	p := &s.Params
	un := &s.Uniforms
	t := un.Time
	uv := mathutil.Vec2{u, v}

	// Drift and cursor-local distortion of the lookup
	su, sv := u, v
	if p.Drift != 0 {
		bx, by := u*2+t*0.3, v*2+t*0.3
		su += FBM(bx, by) * p.Drift
		sv += FBM(bx+100, by+100) * p.Drift
	}
	distToMouse := uv.Dist(un.Mouse)
	if k := p.DistortionStrength * mathutil.Smoothstep(p.DistortionRadius, 0, distToMouse) * un.Velocity; k != 0 {
		bx, by := u*10+t*2, v*10+t*2
		su += FBM(bx, by) * k
		sv += FBM(bx+50, by+50) * k
	}

	trail := s.Prev.Sample(su, sv).Scale(p.Decay)

	// Spread bright regions outward without smoothing away the peak
	tx := 1.5 * p.Diffusion / float64(s.Prev.Width)
	ty := 1.5 * p.Diffusion / float64(s.Prev.Height)
	var neighbor raster.Color
	for i, tap := range diffusionTaps {
		neighbor = neighbor.Add(s.Prev.Sample(su+tap[0]*tx, sv+tap[1]*ty).Scale(diffusionWeights[i]))
	}
	trail = trail.Max(neighbor.Scale(p.DiffusionRetain))

	energy := s.lightning(uv, t) + mathutil.Smoothstep(0.06, 0, distToMouse)*un.Velocity*0.8

	if energy > 0 {
		colorVar := FBM(u*3+t*0.5, v*3+t*0.5) * 0.3
		tint := mathutil.MixVec3(p.Color1, p.Color2, p.ColorMix+colorVar)
		k := energy * p.GlowScale
		trail[0] += tint[0] * k
		trail[1] += tint[1] * k
		trail[2] += tint[2] * k
	}

	maxI := p.MaxIntensity
	return raster.Color{
		mathutil.Clamp(trail[0], 0, maxI),
		mathutil.Clamp(trail[1], 0, maxI),
		mathutil.Clamp(trail[2], 0, maxI),
		1,
	}
}

// lightning is the bolt along the previous->current cursor segment. Zero
// velocity or a zero-length segment contributes nothing.
func (s TrailStep) lightning(uv mathutil.Vec2, t float64) float64 {
	p := &s.Params
	un := &s.Uniforms
	if un.Velocity <= p.VelocityEpsilon {
		return 0
	}
	dir := un.Mouse.Sub(un.PrevMouse)
	segLen := dir.Len()
	if segLen <= minSegment {
		return 0
	}

	// Project uv onto the segment
	proj := mathutil.Clamp01(uv.Sub(un.PrevMouse).Dot(dir) / dir.Dot(dir))
	distToPath := uv.Dist(un.PrevMouse.Add(dir.Scale(proj)))

	// Every term below vanishes this far from the path, noise included.
	if distToPath > p.LightningWidth*1.5+0.06 {
		return 0
	}

	n1 := FBM(uv[0]*30+t*3, uv[1]*30+t*3)
	n2 := FBM(uv[0]*50-t*4, uv[1]*50-t*4)

	bolt := mathutil.Smoothstep(p.LightningWidth*0.8, 0, distToPath+n1*0.015)
	bolt *= mathutil.Smoothstep(0, 0.2, proj) * mathutil.Smoothstep(1, 0.8, proj)

	branches := mathutil.Smoothstep(p.LightningWidth*1.5, 0, distToPath+n2*0.03)
	branches *= mathutil.Step(0.7, math.Abs(n1)) * 0.6
	bolt += branches

	bolt *= mathutil.Smoothstep(0, 0.02, segLen) * un.Velocity * p.LightningIntensity

	core := mathutil.Smoothstep(p.LightningWidth*0.3, 0, distToPath)
	return bolt + core*un.Velocity*p.LightningIntensity*0.5
}
