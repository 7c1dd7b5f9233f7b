package raster

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Program is a fragment program: a pure function of texel-centre UV and the
// buffers it samples. Shade is called concurrently from several goroutines.
type Program interface {
	Shade(u, v float64) Color
	Inputs() []*Buffer
}

// ProgramFunc adapts a closure without inputs to Program.
type ProgramFunc func(u, v float64) Color

func (f ProgramFunc) Shade(u, v float64) Color { return f(u, v) }
func (f ProgramFunc) Inputs() []*Buffer        { return nil }

// Run evaluates p at every texel centre of dst. Rows are shaded in bands in
// parallel; Run returns once every band is written, so dst is complete and
// safe to sample when it returns nil.
func (d *Device) Run(ctx context.Context, dst *Buffer, p Program) error {
	if dst == nil || dst.Pix == nil {
		return ErrReleased
	}
	for _, in := range p.Inputs() {
		if in == nil {
			continue
		}
		if in == dst {
			return ErrFeedbackHazard
		}
		if in.Pix == nil {
			return ErrReleased
		}
	}

	w, h := dst.Width, dst.Height
	fw, fh := float64(w), float64(h)
	band := h / (d.workers * 4)
	if band < 1 {
		band = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for y0 := 0; y0 < h; y0 += band {
		y1 := min(y0+band, h)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pix := dst.Pix
			for y := y0; y < y1; y++ {
				v := (float64(y) + 0.5) / fh
				row := y * w * 4
				for x := 0; x < w; x++ {
					c := p.Shade((float64(x)+0.5)/fw, v)
					i := row + x*4
					pix[i] = float32(c[0])
					pix[i+1] = float32(c[1])
					pix[i+2] = float32(c[2])
					pix[i+3] = float32(c[3])
				}
			}
			return nil
		})
	}
	return g.Wait()
}
