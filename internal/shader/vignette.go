package shader

import (
	"scroll-trail-renderer/internal/mathutil"
	"scroll-trail-renderer/internal/raster"
)

// Vignette is an animated, noise-warped edge darkening tinted with Color.
// Output is straight (not premultiplied) colour with coverage in alpha.
type Vignette struct {
	Color      mathutil.Vec3
	Intensity  float64
	Smoothness float64
	Time       float64
}

// DefaultVignette is a dark cyan edge glow.
func DefaultVignette() Vignette {
	return Vignette{
		Color:      mathutil.Vec3{0, 139.0 / 255, 139.0 / 255},
		Intensity:  0.8,
		Smoothness: 0.4,
	}
}

func (g Vignette) Inputs() []*raster.Buffer { return nil }

func (g Vignette) Shade(u, v float64) raster.Color {
	t := g.Time
	cx := 0.5 + Simplex2(t*0.3, 0)*0.05
	cy := 0.5 + Simplex2(0, t*0.3+100)*0.05

	dist := (mathutil.Vec2{u, v}).Dist(mathutil.Vec2{cx, cy}) + Simplex2(u*2+t*0.2, v*2+t*0.2)*0.1
	smooth := Simplex2(t*0.15, t*0.1) * 0.1
	vig := mathutil.Smoothstep(0.2, 0.5+g.Smoothness+smooth, dist)

	shade := (1 + Simplex2(u*3+t*0.1, v*3+t*0.1)*0.15) * vig * g.Intensity
	alpha := mathutil.Clamp01(vig * g.Intensity)
	return raster.Color{g.Color[0] * shade, g.Color[1] * shade, g.Color[2] * shade, alpha}
}
