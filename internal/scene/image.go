package scene

import (
	"fmt"
	"image"
	"math"
	"sync"

	"golang.org/x/image/draw"

	"scroll-trail-renderer/internal/raster"
	"scroll-trail-renderer/internal/texture"
)

// Image draws a backdrop texture scaled to cover the target, cropping the
// overflowing axis symmetrically. The camera is ignored.
type Image struct {
	Resolver texture.Resolver
	Name     string

	mu     sync.Mutex
	src    *image.NRGBA
	scaled *image.NRGBA
}

func (s *Image) Render(dst *raster.Buffer, _ Camera, _ float64) error {
	if s.Resolver == nil {
		return fmt.Errorf("scene: image %q: no resolver: %w", s.Name, ErrMissingTexture)
	}
	src := s.Resolver.Resolve(s.Name)
	if src == nil {
		return fmt.Errorf("scene: image %q: %w", s.Name, ErrMissingTexture)
	}

	scaled := s.cover(src, dst.Width, dst.Height)
	for y := 0; y < dst.Height; y++ {
		// Buffer rows are bottom-up, image rows top-down.
		row := scaled.Pix[(dst.Height-1-y)*scaled.Stride:]
		for x := 0; x < dst.Width; x++ {
			p := row[x*4 : x*4+4 : x*4+4]
			dst.Set(x, y, raster.Color{
				float64(p[0]) / 255,
				float64(p[1]) / 255,
				float64(p[2]) / 255,
				float64(p[3]) / 255,
			})
		}
	}
	return nil
}

// cover returns src scaled to w×h, reusing the last result while neither the
// source nor the size changes.
func (s *Image) cover(src *image.NRGBA, w, h int) *image.NRGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.src == src && s.scaled != nil && s.scaled.Bounds().Dx() == w && s.scaled.Bounds().Dy() == h {
		return s.scaled
	}

	sb := src.Bounds()
	sw, sh := float64(sb.Dx()), float64(sb.Dy())
	scale := math.Max(float64(w)/sw, float64(h)/sh)
	cw := min(int(math.Round(float64(w)/scale)), sb.Dx())
	ch := min(int(math.Round(float64(h)/scale)), sb.Dy())
	x0 := sb.Min.X + (sb.Dx()-cw)/2
	y0 := sb.Min.Y + (sb.Dy()-ch)/2
	crop := image.Rect(x0, y0, x0+max(cw, 1), y0+max(ch, 1))

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(out, out.Bounds(), src, crop, draw.Src, nil)

	s.src = src
	s.scaled = out
	return out
}
