package raster

import "math"

// Sample reconstructs the colour at (u, v) with clamp-to-edge addressing.
// Linear buffers are bilinearly filtered around texel centres, so sampling at
// a texel centre returns that texel.
func (b *Buffer) Sample(u, v float64) Color {
	b.mustLive()
	if u != u {
		u = 0
	}
	if v != v {
		v = 0
	}
	w, h := b.Width, b.Height

	if b.Filter == FilterNearest {
		x := clampInt(int(math.Floor(clampCoord(u)*float64(w))), 0, w-1)
		y := clampInt(int(math.Floor(clampCoord(v)*float64(h))), 0, h-1)
		return b.At(x, y)
	}

	fx := clampCoord(u)*float64(w) - 0.5
	fy := clampCoord(v)*float64(h) - 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	dx := fx - float64(x0)
	dy := fy - float64(y0)
	x1 := clampInt(x0+1, 0, w-1)
	y1 := clampInt(y0+1, 0, h-1)
	x0 = clampInt(x0, 0, w-1)
	y0 = clampInt(y0, 0, h-1)

	pix := b.Pix
	i00 := (y0*w + x0) * 4
	i10 := (y0*w + x1) * 4
	i01 := (y1*w + x0) * 4
	i11 := (y1*w + x1) * 4

	w00 := (1 - dx) * (1 - dy)
	w10 := dx * (1 - dy)
	w01 := (1 - dx) * dy
	w11 := dx * dy

	var c Color
	for k := 0; k < 4; k++ {
		c[k] = float64(pix[i00+k])*w00 + float64(pix[i10+k])*w10 +
			float64(pix[i01+k])*w01 + float64(pix[i11+k])*w11
	}
	return c
}

// clampCoord keeps huge coordinates from overflowing the int conversion.
func clampCoord(t float64) float64 {
	if t < -1 {
		return -1
	}
	if t > 2 {
		return 2
	}
	return t
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
