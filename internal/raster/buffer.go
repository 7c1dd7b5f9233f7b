package raster

import "math"

// Format is the pixel format of an offscreen buffer.
type Format int

// FormatRGBA32F is 4-channel float32. Values are never clamped by storage, so
// feedback accumulation can exceed 1.
const FormatRGBA32F Format = iota

// Filter selects how Sample reconstructs between texels.
type Filter int

const (
	FilterLinear Filter = iota
	FilterNearest
)

// Color is a linear RGBA value in extended range.
type Color [4]float64

func (a Color) Add(b Color) Color {
	return Color{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]}
}

func (c Color) Scale(s float64) Color {
	return Color{c[0] * s, c[1] * s, c[2] * s, c[3] * s}
}

// Max is the component-wise maximum.
func (a Color) Max(b Color) Color {
	return Color{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2]), math.Max(a[3], b[3])}
}

// Lerp returns a + (b-a)*t per component; t = 0 yields a exactly.
func (a Color) Lerp(b Color, t float64) Color {
	return Color{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
		a[3] + (b[3]-a[3])*t,
	}
}

// Luminance is the Rec. 709 luma of the RGB channels.
func (c Color) Luminance() float64 {
	return 0.2126*c[0] + 0.7152*c[1] + 0.0722*c[2]
}

// Buffer is an offscreen float surface. Rows are stored bottom-up: row 0 is
// v = 0, matching GL texture coordinates.
type Buffer struct {
	Width  int
	Height int
	Format Format
	Filter Filter
	Pix    []float32 // RGBA interleaved, len = W*H*4; nil once released

	id uint64
}

// ID identifies the allocation. IDs are never reused by a device.
func (b *Buffer) ID() uint64 { return b.id }

// Released reports whether the buffer's storage has been returned.
func (b *Buffer) Released() bool { return b.Pix == nil }

// Clear fills every texel with c.
func (b *Buffer) Clear(c Color) {
	b.mustLive()
	if c == (Color{}) {
		clear(b.Pix)
		return
	}
	r, g, bl, a := float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])
	for i := 0; i < len(b.Pix); i += 4 {
		b.Pix[i] = r
		b.Pix[i+1] = g
		b.Pix[i+2] = bl
		b.Pix[i+3] = a
	}
}

// At returns the texel at (x, y). Coordinates must be in range.
func (b *Buffer) At(x, y int) Color {
	i := (y*b.Width + x) * 4
	p := b.Pix[i : i+4 : i+4]
	return Color{float64(p[0]), float64(p[1]), float64(p[2]), float64(p[3])}
}

// Set stores c at (x, y).
func (b *Buffer) Set(x, y int, c Color) {
	i := (y*b.Width + x) * 4
	p := b.Pix[i : i+4 : i+4]
	p[0] = float32(c[0])
	p[1] = float32(c[1])
	p[2] = float32(c[2])
	p[3] = float32(c[3])
}

// MaxLuminance returns the brightest texel's luminance.
func (b *Buffer) MaxLuminance() float64 {
	b.mustLive()
	best := 0.0
	for i := 0; i < len(b.Pix); i += 4 {
		l := 0.2126*float64(b.Pix[i]) + 0.7152*float64(b.Pix[i+1]) + 0.0722*float64(b.Pix[i+2])
		if l > best {
			best = l
		}
	}
	return best
}

// IsZero reports whether every texel is exactly transparent black.
func (b *Buffer) IsZero() bool {
	b.mustLive()
	for _, v := range b.Pix {
		if v != 0 {
			return false
		}
	}
	return true
}

func (b *Buffer) bytes() int64 {
	return int64(b.Width) * int64(b.Height) * 16
}

func (b *Buffer) mustLive() {
	if b.Pix == nil {
		panic("raster: use of released buffer")
	}
}
