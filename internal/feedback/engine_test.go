package feedback

import (
	"context"
	"errors"
	"math"
	"testing"

	"scroll-trail-renderer/internal/cursor"
	"scroll-trail-renderer/internal/mathutil"
	"scroll-trail-renderer/internal/raster"
	"scroll-trail-renderer/internal/shader"
)

func newEngine(t *testing.T, w, h int, p shader.TrailParams) (*Engine, *raster.Device) {
	t.Helper()
	dev := raster.NewDevice(raster.Limits{})
	e, err := New(dev, w, h, p)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { e.Close() })
	return e, dev
}

var rest = cursor.State{Position: mathutil.Vec2{0.5, 0.5}, Previous: mathutil.Vec2{0.5, 0.5}}

func TestStepPingPong(t *testing.T) {
	e, _ := newEngine(t, 8, 8, shader.DefaultTrailParams())
	ctx := context.Background()

	if e.Read() != 0 {
		t.Fatalf("initial read index = %d, want 0", e.Read())
	}
	var last *raster.Buffer
	for i := 0; i < 4; i++ {
		before := e.Current()
		out, err := e.Step(ctx, rest, FrameTime{Time: float64(i) / 60, Delta: 1.0 / 60})
		if err != nil {
			t.Fatal(err)
		}
		if out == before {
			t.Fatalf("step %d wrote the buffer it read", i)
		}
		if out != e.Current() {
			t.Fatalf("step %d: Current() is not the written buffer", i)
		}
		if last != nil && out == last {
			t.Fatalf("step %d returned the same buffer twice in a row", i)
		}
		if want := (i + 1) % 2; e.Read() != want {
			t.Errorf("after step %d read index = %d, want %d", i, e.Read(), want)
		}
		last = out
	}
}

func TestDoubleStepIsDecaySquared(t *testing.T) {
	p := shader.DefaultTrailParams()
	p.Drift = 0
	p.Diffusion = 0
	p.Decay = 0.98
	e, _ := newEngine(t, 16, 16, p)
	e.Current().Clear(raster.Color{0.5, 0.5, 0.5, 1})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := e.Step(ctx, rest, FrameTime{Time: float64(i)}); err != nil {
			t.Fatal(err)
		}
	}
	want := 0.5 * p.Decay * p.Decay
	out := e.Current()
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if got := out.At(x, y)[0]; math.Abs(got-want) > 1e-5 {
				t.Fatalf("At(%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

// In a uniform region the spread term equals the sample itself, so each
// resting step scales by max(decay, retain).
func TestDoubleStepEffectiveRate(t *testing.T) {
	tests := []struct {
		name   string
		decay  float64
		retain float64
		want   float64
	}{
		{"default tuning", 0.80, 0.96, 0.5 * 0.96 * 0.96},
		{"no retain", 0.80, 0, 0.5 * 0.80 * 0.80},
		{"decay above retain", 0.98, 0.96, 0.5 * 0.98 * 0.98},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := shader.DefaultTrailParams()
			p.Drift = 0
			p.Decay = tt.decay
			p.DiffusionRetain = tt.retain
			e, _ := newEngine(t, 16, 16, p)
			e.Current().Clear(raster.Color{0.5, 0.5, 0.5, 1})

			ctx := context.Background()
			for i := 0; i < 2; i++ {
				if _, err := e.Step(ctx, rest, FrameTime{Time: float64(i)}); err != nil {
					t.Fatal(err)
				}
			}
			out := e.Current()
			for y := 0; y < 16; y++ {
				for x := 0; x < 16; x++ {
					if got := out.At(x, y)[0]; math.Abs(got-tt.want) > 1e-5 {
						t.Fatalf("At(%d,%d) = %v, want %v", x, y, got, tt.want)
					}
				}
			}
		})
	}
}

func TestZeroVelocityLuminanceDecays(t *testing.T) {
	e, _ := newEngine(t, 16, 16, shader.DefaultTrailParams())
	seed := e.Current()
	for y := 4; y < 9; y++ {
		for x := 3; x < 12; x++ {
			seed.Set(x, y, raster.Color{2, 2, 2, 1})
		}
	}

	ctx := context.Background()
	prev := seed.MaxLuminance()
	for i := 0; i < 220; i++ {
		out, err := e.Step(ctx, rest, FrameTime{Time: float64(i) / 60})
		if err != nil {
			t.Fatal(err)
		}
		lum := out.MaxLuminance()
		if lum > prev*(1+1e-6) {
			t.Fatalf("step %d: max luminance rose from %v to %v", i, prev, lum)
		}
		prev = lum
	}
	if prev > 1e-3 {
		t.Errorf("max luminance after 220 still steps = %v, want < 1e-3", prev)
	}
}

// A cursor sweep lays down a trail; once the pointer stops, velocity decays to
// zero and the trail fades out.
func TestSweepThenRestFades(t *testing.T) {
	const size = 24
	e, _ := newEngine(t, size, size, shader.DefaultTrailParams())
	tr := cursor.NewTracker(cursor.DefaultConfig(), size*10, size*10)
	defer tr.Close()

	ctx := context.Background()
	frame := uint64(0)
	step := func() *raster.Buffer {
		t.Helper()
		frame++
		out, err := e.Step(ctx, tr.Advance(frame), FrameTime{Time: float64(frame) / 60, Delta: 1.0 / 60})
		if err != nil {
			t.Fatal(err)
		}
		return out
	}

	for i := 0; i < 30; i++ {
		tr.OnPointerMove(float64(20+i*6), float64(120+i*2))
		step()
	}
	if lum := e.Current().MaxLuminance(); lum <= 0 {
		t.Fatal("sweep left no trail")
	}

	// Wait for the velocity to snap to zero.
	for i := 0; tr.Snapshot().Velocity != 0; i++ {
		if i > 300 {
			t.Fatalf("velocity still %v after %d rest frames", tr.Snapshot().Velocity, i)
		}
		step()
	}

	prev := e.Current().MaxLuminance()
	for i := 0; i < 250; i++ {
		lum := step().MaxLuminance()
		if lum > prev*(1+1e-6) {
			t.Fatalf("rest step %d: max luminance rose from %v to %v", i, prev, lum)
		}
		prev = lum
	}
	if prev > 1e-3 {
		t.Errorf("max luminance after rest = %v, want < 1e-3", prev)
	}
}

func TestResizeClearsAndAccounts(t *testing.T) {
	e, dev := newEngine(t, 8, 6, shader.DefaultTrailParams())
	ctx := context.Background()
	moving := cursor.State{Position: mathutil.Vec2{0.6, 0.5}, Previous: mathutil.Vec2{0.4, 0.5}, Velocity: 3}
	for i := 0; i < 3; i++ {
		if _, err := e.Step(ctx, moving, FrameTime{Time: 1}); err != nil {
			t.Fatal(err)
		}
	}
	before := dev.Stats()

	sizes := [][2]int{{16, 12}, {8, 6}, {16, 12}}
	for _, sz := range sizes {
		if err := e.Resize(sz[0], sz[1]); err != nil {
			t.Fatal(err)
		}
		if w, h := e.Size(); w != sz[0] || h != sz[1] {
			t.Errorf("Size() = %dx%d, want %dx%d", w, h, sz[0], sz[1])
		}
		if e.Read() != 0 {
			t.Errorf("read index after resize = %d, want 0", e.Read())
		}
		if !e.bufs[0].IsZero() || !e.bufs[1].IsZero() {
			t.Error("resized buffers not zero-cleared")
		}
	}

	after := dev.Stats()
	if after.Live != before.Live {
		t.Errorf("Live = %d after resizes, want %d", after.Live, before.Live)
	}
	if got := after.Allocs - before.Allocs; got != 2*len(sizes) {
		t.Errorf("allocs during resizes = %d, want %d", got, 2*len(sizes))
	}
	if got := after.Releases - before.Releases; got != 2*len(sizes) {
		t.Errorf("releases during resizes = %d, want %d", got, 2*len(sizes))
	}
}

func TestResizeFailureThenRecover(t *testing.T) {
	dev := raster.NewDevice(raster.Limits{MaxDimension: 32})
	e, err := New(dev, 8, 8, shader.DefaultTrailParams())
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if err := e.Resize(64, 64); !errors.Is(err, raster.ErrAllocation) {
		t.Fatalf("Resize(64,64) error = %v, want ErrAllocation", err)
	}
	if _, err := e.Step(context.Background(), rest, FrameTime{}); !errors.Is(err, raster.ErrReleased) {
		t.Errorf("Step after failed resize error = %v, want ErrReleased", err)
	}
	if err := e.Resize(16, 16); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Step(context.Background(), rest, FrameTime{}); err != nil {
		t.Errorf("Step after recovery: %v", err)
	}
}

func TestStepCancelledDoesNotSwap(t *testing.T) {
	e, _ := newEngine(t, 8, 8, shader.DefaultTrailParams())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Step(ctx, rest, FrameTime{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Step() error = %v, want context.Canceled", err)
	}
	if e.Read() != 0 {
		t.Error("cancelled step swapped buffers")
	}
}

func TestClose(t *testing.T) {
	e, dev := newEngine(t, 8, 8, shader.DefaultTrailParams())
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if s := dev.Stats(); s.Live != 0 {
		t.Errorf("Live = %d after Close, want 0", s.Live)
	}
	if _, err := e.Step(context.Background(), rest, FrameTime{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Step after Close error = %v, want ErrClosed", err)
	}
	if err := e.Resize(4, 4); !errors.Is(err, ErrClosed) {
		t.Errorf("Resize after Close error = %v, want ErrClosed", err)
	}
	if e.Current() != nil {
		t.Error("Current() after Close should be nil")
	}
}
