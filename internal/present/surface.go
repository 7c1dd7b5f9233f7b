// Package present turns the float scene and overlay layers into an 8-bit
// frame for display or encoding.
package present

import (
	"image"
	"runtime"

	"golang.org/x/sync/errgroup"

	"scroll-trail-renderer/internal/mathutil"
	"scroll-trail-renderer/internal/raster"
	"scroll-trail-renderer/internal/shader"
)

// Surface composes the presentation layers. The zero value adds the overlay
// to the scene and clamps.
type Surface struct {
	Tonemap  bool
	Exposure float64 // applied before tonemapping; 0 means 1
	Glitch   *shader.Glitch
	DotGrid  *shader.DotGrid
	Vignette *shader.Vignette
}

// Uniforms are the per-frame inputs of Compose.
type Uniforms struct {
	Time        float64 // seconds
	ScrollSpeed float64 // [0, 1], drives the dot grid
}

// Compose writes the frame into dst, allocating a new w×h image when dst is
// nil or a different size. Either layer may be nil: a missing scene layer is
// black and a missing overlay adds nothing. Rows come out top-down with
// alpha 255.
//
// Passes in order: scene layer (glitched during a burst), overlay added,
// dot grid and vignette mixed by their alpha, exposure, tonemap.
func (s *Surface) Compose(dst *image.NRGBA, w, h int, sceneLayer, overlay *raster.Buffer, in Uniforms) *image.NRGBA {
	if dst == nil || dst.Bounds().Dx() != w || dst.Bounds().Dy() != h {
		dst = image.NewNRGBA(image.Rect(0, 0, w, h))
	}
	if w <= 0 || h <= 0 {
		return dst
	}

	exposure := s.Exposure
	if exposure <= 0 {
		exposure = 1
	}
	t := in.Time
	var vig *shader.Vignette
	if s.Vignette != nil {
		v := *s.Vignette
		v.Time = t
		vig = &v
	}
	var burst, seed float64
	if s.Glitch != nil && sceneLayer != nil {
		burst, seed = s.Glitch.Burst(t)
	}

	workers := runtime.GOMAXPROCS(0)
	band := max(h/(workers*2), 1)
	var g errgroup.Group
	g.SetLimit(workers)
	for y0 := 0; y0 < h; y0 += band {
		y1 := min(y0+band, h)
		g.Go(func() error {
			for y := y0; y < y1; y++ {
				by := h - 1 - y // buffers are bottom-up
				v := (float64(by) + 0.5) / float64(h)
				row := dst.Pix[y*dst.Stride:]
				for x := 0; x < w; x++ {
					u := (float64(x) + 0.5) / float64(w)
					var c raster.Color
					if burst > 0 {
						c = s.Glitch.Displace(sceneLayer, u, v, burst, seed)
					} else {
						c = layer(sceneLayer, x, by, u, v, w, h)
					}
					if overlay != nil {
						o := layer(overlay, x, by, u, v, w, h)
						c[0] += o[0]
						c[1] += o[1]
						c[2] += o[2]
					}
					if s.DotGrid != nil {
						c = over(c, s.DotGrid.At(u, v, w, h, t, in.ScrollSpeed))
					}
					if vig != nil {
						c = over(c, vig.Shade(u, v))
					}
					p := row[x*4 : x*4+4 : x*4+4]
					for k := 0; k < 3; k++ {
						ch := c[k] * exposure
						if s.Tonemap {
							ch = raster.ACESTonemap(max(ch, 0))
						}
						p[k] = to8(ch)
					}
					p[3] = 255
				}
			}
			return nil
		})
	}
	g.Wait()
	return dst
}

// over mixes straight-alpha colour top onto c.
func over(c, top raster.Color) raster.Color {
	a := mathutil.Clamp01(top[3])
	if a == 0 {
		return c
	}
	for k := 0; k < 3; k++ {
		c[k] = mathutil.Mix(c[k], top[k], a)
	}
	return c
}

// layer reads texel (x, y) when the buffer matches the frame size and
// resamples otherwise.
func layer(b *raster.Buffer, x, y int, u, v float64, w, h int) raster.Color {
	if b == nil {
		return raster.Color{}
	}
	if b.Width == w && b.Height == h {
		return b.At(x, y)
	}
	return b.Sample(u, v)
}

func to8(v float64) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
