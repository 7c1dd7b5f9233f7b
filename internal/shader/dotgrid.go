package shader

import (
	"math"

	"scroll-trail-renderer/internal/mathutil"
	"scroll-trail-renderer/internal/raster"
)

// DotGrid is a faint pixel grid with flickering dots that open up from the
// edges inward as scroll speed rises. Output is straight colour with
// coverage in alpha; alpha 0 means the pixel is untouched.
type DotGrid struct {
	Spacing     float64 // grid cell size in pixels
	LineWidth   float64 // pixels
	BaseRadius  float64 // dots start this far (in UV) from the centre at rest
	ScrollBoost float64 // radius added per unit of scroll speed
	BaseSize    float64 // dot radius in cell units
	Color       mathutil.Vec3
	GridColor   mathutil.Vec3
	GridOpacity float64
}

// DefaultDotGrid is red dots on a dark grey 10px grid.
func DefaultDotGrid() DotGrid {
	return DotGrid{
		Spacing:     10,
		LineWidth:   1,
		BaseRadius:  0.25,
		ScrollBoost: 1.2,
		BaseSize:    0.4,
		Color:       mathutil.Vec3{1, 0, 0},
		GridColor:   mathutil.Vec3{0.2, 0.2, 0.2},
		GridOpacity: 0.2,
	}
}

// At shades uv (origin bottom-left) of a w×h frame at time t.
func (d DotGrid) At(u, v float64, w, h int, t, scrollSpeed float64) raster.Color {
	spacing := d.Spacing
	if spacing <= 0 {
		return raster.Color{}
	}
	px, py := u*float64(w), v*float64(h)

	gx, gy := math.Mod(px, spacing), math.Mod(py, spacing)
	gridLine := mathutil.Clamp01(mathutil.Step(gx, d.LineWidth) + mathutil.Step(gy, d.LineWidth))
	gridAlpha := d.GridOpacity * gridLine

	radial := (mathutil.Vec2{u, v}).Dist(mathutil.Vec2{0.5, 0.5})
	radius := d.BaseRadius + scrollSpeed*d.ScrollBoost
	fade := mathutil.Smoothstep(radius, radius+0.4, radial)
	if fade < 0.01 {
		if gridLine < 0.01 {
			return raster.Color{}
		}
		return raster.Color{d.GridColor[0], d.GridColor[1], d.GridColor[2], gridAlpha}
	}

	cx, cy := math.Floor(px/spacing), math.Floor(py/spacing)
	dist := (mathutil.Vec2{px/spacing - cx - 0.5, py/spacing - cy - 0.5}).Len()

	phase := hash2(cx, cy) * 2 * math.Pi
	wave := math.Sin(radial*10 - t*0.5 + phase)
	flicker := math.Sin(t*(0.5+hash2(cx*1.3, cy*1.3)*1.5)+phase)*0.3 + 0.7

	size := mathutil.Clamp(d.BaseSize*fade*flicker*(wave*0.3+0.7), 0.05, 0.4)
	opacity := mathutil.Clamp(fade*flicker*(0.4+wave*0.3), 0, 0.9)
	dot := (1 - mathutil.Smoothstep(size-0.05, size, dist)) * opacity

	alpha := math.Max(gridAlpha, dot)
	if alpha < 0.01 {
		return raster.Color{}
	}
	c := mathutil.MixVec3(d.GridColor, d.Color, dot)
	return raster.Color{c[0], c[1], c[2], alpha}
}
