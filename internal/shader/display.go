package shader

import "scroll-trail-renderer/internal/raster"

// Display resolves the trail buffer for the additive overlay: a faint 4×4
// bloom mixed in, then scaled down by Gain. Output RGB is premultiplied by
// alpha so the surface can add it directly.
type Display struct {
	Src      *raster.Buffer
	BloomMix float64
	Gain     float64
}

// DefaultDisplay returns the resolve used by the overlay layer.
func DefaultDisplay(src *raster.Buffer) Display {
	return Display{Src: src, BloomMix: 0.01, Gain: 0.05}
}

func (d Display) Inputs() []*raster.Buffer { return []*raster.Buffer{d.Src} }

func (d Display) Shade(u, v float64) raster.Color {
	c := d.Src.Sample(u, v)
	if d.BloomMix != 0 {
		tx := 1.0 / float64(d.Src.Width)
		ty := 1.0 / float64(d.Src.Height)
		var bloom raster.Color
		for x := -1.5; x <= 1.5; x++ {
			for y := -1.5; y <= 1.5; y++ {
				bloom = bloom.Add(d.Src.Sample(u+x*tx, v+y*ty).Scale(0.06))
			}
		}
		c = c.Lerp(bloom, d.BloomMix)
	}
	a := c[3]
	if a < 0 {
		a = 0
	} else if a > 1 {
		a = 1
	}
	k := d.Gain * a
	return raster.Color{c[0] * k, c[1] * k, c[2] * k, a}
}
