package raster

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestDeviceAlloc(t *testing.T) {
	tests := []struct {
		name    string
		limits  Limits
		w, h    int
		wantErr error
	}{
		{"ok", Limits{}, 64, 32, nil},
		{"zero width", Limits{}, 0, 32, ErrInvalidSize},
		{"negative height", Limits{}, 8, -1, ErrInvalidSize},
		{"over max dimension", Limits{MaxDimension: 128}, 129, 8, ErrAllocation},
		{"over byte budget", Limits{MaxBytes: 16 * 10}, 4, 4, ErrAllocation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDevice(tt.limits)
			b, err := d.Alloc(tt.w, tt.h, FilterLinear)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Alloc() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if b != nil {
					t.Error("Alloc() returned a buffer alongside an error")
				}
				if s := d.Stats(); s.Live != 0 {
					t.Errorf("Live = %d after failed alloc, want 0", s.Live)
				}
				return
			}
			if !b.IsZero() {
				t.Error("new buffer is not zero-cleared")
			}
			if b.Width != tt.w || b.Height != tt.h || b.Format != FormatRGBA32F {
				t.Errorf("buffer = %dx%d format %v", b.Width, b.Height, b.Format)
			}
		})
	}
}

func TestDeviceReleaseAccounting(t *testing.T) {
	d := NewDevice(Limits{})
	pair, err := d.AllocPair(8, 8, FilterLinear)
	if err != nil {
		t.Fatal(err)
	}
	if s := d.Stats(); s.Live != 2 || s.Allocs != 2 || s.LiveBytes != 2*8*8*16 {
		t.Fatalf("Stats after AllocPair = %+v", s)
	}

	d.Release(pair[0])
	d.Release(pair[0]) // idempotent
	d.Release(nil)
	if s := d.Stats(); s.Live != 1 || s.Releases != 1 {
		t.Fatalf("Stats after release = %+v", s)
	}
	if !pair[0].Released() {
		t.Error("Released() = false after Release")
	}
}

func TestAllocPairRollsBack(t *testing.T) {
	d := NewDevice(Limits{MaxBytes: 8 * 8 * 16})
	if _, err := d.AllocPair(8, 8, FilterLinear); !errors.Is(err, ErrAllocation) {
		t.Fatalf("AllocPair() error = %v, want ErrAllocation", err)
	}
	if s := d.Stats(); s.Live != 0 || s.LiveBytes != 0 {
		t.Errorf("Stats after failed pair = %+v, want nothing live", s)
	}
}

func TestSampleReleasedPanics(t *testing.T) {
	d := NewDevice(Limits{})
	b, _ := d.Alloc(2, 2, FilterLinear)
	d.Release(b)
	defer func() {
		if recover() == nil {
			t.Error("Sample on released buffer did not panic")
		}
	}()
	b.Sample(0.5, 0.5)
}

type copyProgram struct{ src *Buffer }

func (p copyProgram) Shade(u, v float64) Color { return p.src.Sample(u, v) }
func (p copyProgram) Inputs() []*Buffer        { return []*Buffer{p.src} }

func TestRunCopiesTexelsExactly(t *testing.T) {
	d := NewDevice(Limits{})
	src, _ := d.Alloc(7, 5, FilterLinear)
	dst, _ := d.Alloc(7, 5, FilterLinear)
	for y := 0; y < 5; y++ {
		for x := 0; x < 7; x++ {
			src.Set(x, y, Color{float64(x) * 0.1, float64(y) * 0.2, 1.5, 1})
		}
	}

	if err := d.Run(context.Background(), dst, copyProgram{src}); err != nil {
		t.Fatal(err)
	}
	for i := range src.Pix {
		if math.Abs(float64(src.Pix[i]-dst.Pix[i])) > 1e-6 {
			t.Fatalf("Pix[%d] = %v, want %v", i, dst.Pix[i], src.Pix[i])
		}
	}
}

func TestRunErrors(t *testing.T) {
	d := NewDevice(Limits{})
	a, _ := d.Alloc(4, 4, FilterLinear)
	b, _ := d.Alloc(4, 4, FilterLinear)

	if err := d.Run(context.Background(), a, copyProgram{a}); !errors.Is(err, ErrFeedbackHazard) {
		t.Errorf("self-read error = %v, want ErrFeedbackHazard", err)
	}

	d.Release(b)
	if err := d.Run(context.Background(), a, copyProgram{b}); !errors.Is(err, ErrReleased) {
		t.Errorf("released input error = %v, want ErrReleased", err)
	}
	if err := d.Run(context.Background(), b, ProgramFunc(func(u, v float64) Color { return Color{} })); !errors.Is(err, ErrReleased) {
		t.Errorf("released target error = %v, want ErrReleased", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Run(ctx, a, ProgramFunc(func(u, v float64) Color { return Color{1, 1, 1, 1} })); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled run error = %v, want context.Canceled", err)
	}
}

func TestSampleClampToEdge(t *testing.T) {
	d := NewDevice(Limits{})
	b, _ := d.Alloc(2, 1, FilterLinear)
	b.Set(0, 0, Color{1, 0, 0, 1})
	b.Set(1, 0, Color{0, 0, 1, 1})

	if got := b.Sample(-3, 0.5); got != (Color{1, 0, 0, 1}) {
		t.Errorf("Sample(-3) = %v, want left texel", got)
	}
	if got := b.Sample(7, 0.5); got != (Color{0, 0, 1, 1}) {
		t.Errorf("Sample(7) = %v, want right texel", got)
	}
	mid := b.Sample(0.5, 0.5)
	if math.Abs(mid[0]-0.5) > 1e-9 || math.Abs(mid[2]-0.5) > 1e-9 {
		t.Errorf("Sample(0.5) = %v, want even blend", mid)
	}

	b.Filter = FilterNearest
	if got := b.Sample(0.49, 0.5); got != (Color{1, 0, 0, 1}) {
		t.Errorf("nearest Sample(0.49) = %v, want left texel", got)
	}
}

func TestClearAndMaxLuminance(t *testing.T) {
	d := NewDevice(Limits{})
	b, _ := d.Alloc(3, 3, FilterLinear)
	b.Clear(Color{2, 2, 2, 1})
	if got := b.MaxLuminance(); math.Abs(got-2) > 1e-6 {
		t.Errorf("MaxLuminance = %v, want 2", got)
	}
	b.Clear(Color{})
	if !b.IsZero() {
		t.Error("Clear(zero) left non-zero texels")
	}
}
