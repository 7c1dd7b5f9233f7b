package shader

import (
	"math"

	"scroll-trail-renderer/internal/mathutil"
	"scroll-trail-renderer/internal/raster"
)

// Wipe boundary shape. The boundary is base + cos(πx)*wipeCurve +
// (x-0.5)*wipeTilt + noise*wipeNoise, blended over ±wipeHalfWidth.
const (
	wipeCurve     = 0.2
	wipeTilt      = 0.1
	wipeNoise     = 0.05
	wipeHalfWidth = 0.25

	// Extremes of the shape term, so the base can start fully below the
	// viewport and end fully above it.
	wipeShapeMax = wipeCurve + wipeTilt/2 + wipeNoise
	wipeShapeMin = -wipeCurve - wipeTilt/2

	blurSamples = 8
)

var (
	icyTint      = mathutil.Vec3{0.85, 0.95, 1.0}
	icyHighlight = mathutil.Vec3{0.7, 0.85, 1.0}
	edgeGlow     = mathutil.Vec3{0.8, 0.9, 1.0}
)

// DefaultCrossfadeStrength is the motion-blur spread used between scenes.
const DefaultCrossfadeStrength = 0.7

// Crossfade blends two scene targets. Progress 0 shows Prev, 1 shows Next;
// both ends are undistorted single samples. Prev and Next may be the same
// buffer.
type Crossfade struct {
	Prev     *raster.Buffer
	Next     *raster.Buffer
	Progress float64
	Strength float64
	Time     float64
}

func (c Crossfade) Inputs() []*raster.Buffer { return []*raster.Buffer{c.Prev, c.Next} }

func (c Crossfade) Shade(u, v float64) raster.Color {
	p := mathutil.Clamp01(c.Progress)
	w := p * (1 - p)
	if w == 0 {
		if p >= 1 {
			return c.Next.Sample(u, v)
		}
		return c.Prev.Sample(u, v)
	}
	t := c.Time

	// Icy distortion, strongest mid-transition
	ice := ValueFBM(u*8+t*0.1, v*8+t*0.1)
	iceDistort := (ice - 0.5) * 0.015 * w * 4
	du := u + iceDistort
	dv := v + iceDistort*0.5

	// Motion blur with chromatic aberration
	blur := w * c.Strength * 0.3
	chroma := w * 0.008
	var col1, col2 raster.Color
	for i := 0; i < blurSamples; i++ {
		f := float64(i) / blurSamples
		offset := (f - 0.5) * blur
		hOffset := offset * 0.15
		amount := chroma * (1 + f)
		col1 = col1.Add(chromatic(c.Prev, du+hOffset, dv+offset-p*0.15, amount))
		col2 = col2.Add(chromatic(c.Next, du+hOffset, dv+offset-(1-p)*0.15, amount))
	}
	col1 = col1.Scale(1.0 / blurSamples)
	col2 = col2.Scale(1.0 / blurSamples)

	tintStrength := w * 1.5
	highlight := ice * ice * ice * w * 0.3
	col1 = frost(col1, tintStrength, highlight)
	col2 = frost(col2, tintStrength, highlight)

	// Curved, tilted, noisy wipe
	shape := math.Cos(u*math.Pi)*wipeCurve + (u-0.5)*wipeTilt + ValueFBM(u*20, t*0.5)*wipeNoise
	base := mathutil.Mix(-(wipeHalfWidth + wipeShapeMax), 1+wipeHalfWidth-wipeShapeMin, p)
	pos := base + shape
	wipe := mathutil.Smoothstep(pos-wipeHalfWidth, pos+wipeHalfWidth, v)

	out := col2.Lerp(col1, wipe)

	glow := math.Exp(-math.Abs(v-pos)*2) * w * 2
	banding := math.Sin(v*100+t) * 0.01 * w
	out[0] += edgeGlow[0]*glow + banding*0.5
	out[1] += edgeGlow[1]*glow + banding*0.7
	out[2] += edgeGlow[2]*glow + banding
	return out
}

func chromatic(tex *raster.Buffer, u, v, amount float64) raster.Color {
	center := tex.Sample(u, v)
	return raster.Color{
		tex.Sample(u+amount, v)[0],
		center[1],
		tex.Sample(u-amount, v)[2],
		center[3],
	}
}

func frost(c raster.Color, tint, highlight float64) raster.Color {
	for k := 0; k < 3; k++ {
		c[k] = mathutil.Mix(c[k], c[k]*icyTint[k], tint) + icyHighlight[k]*highlight
	}
	return c
}
