// Package loop drives one presented frame per display refresh: cursor,
// trail, overlay resolve, scene composite, present, always in that order.
package loop

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"scroll-trail-renderer/internal/compositor"
	"scroll-trail-renderer/internal/cursor"
	"scroll-trail-renderer/internal/feedback"
	"scroll-trail-renderer/internal/logging"
	"scroll-trail-renderer/internal/present"
	"scroll-trail-renderer/internal/raster"
	"scroll-trail-renderer/internal/scene"
	"scroll-trail-renderer/internal/scroll"
	"scroll-trail-renderer/internal/shader"
)

// ErrClosed is returned by Tick and Resize after Close.
var ErrClosed = errors.New("loop: driver closed")

// Overlay tunes the display resolve of the trail.
type Overlay struct {
	Gain     float64
	BloomMix float64
}

// Options configures a Driver. Zero-valued tuning fields take defaults.
type Options struct {
	Width, Height int
	Slots         []scene.Slot
	Progress      scroll.Source // nil means progress 0

	Cursor     cursor.Config
	Trail      shader.TrailParams
	TrailScale float64 // trail resolution relative to the viewport; 0 means 1
	Overlay    Overlay
	Compositor compositor.Params
	Surface    present.Surface
	SpeedScale float64 // scroll speed per unit of progress change; 0 means scroll.DefaultSpeedScale
}

// DefaultOptions returns options for a w×h viewport with the default tuning.
func DefaultOptions(w, h int, slots []scene.Slot) Options {
	return Options{
		Width:      w,
		Height:     h,
		Slots:      slots,
		Cursor:     cursor.DefaultConfig(),
		Trail:      shader.DefaultTrailParams(),
		TrailScale: 1,
		Overlay:    Overlay{Gain: 0.05, BloomMix: 0.01},
		Compositor: compositor.DefaultParams(),
	}
}

// Layers reports which presentation layers are live.
type Layers struct {
	Scene   bool
	Overlay bool
}

// Frame is the record of one tick. Image is reused by the next Tick.
type Frame struct {
	Number uint64
	Time   float64 // seconds
	Pair   compositor.Pair
	Cursor cursor.State
	Speed  float64 // smoothed scroll speed in [0, 1]
	Layers Layers
	Image  *image.NRGBA
}

// Driver owns every GPU-side resource of the pipeline. Tick, and Close must
// be called from one render goroutine; Resize and Layers may be called from
// any goroutine.
type Driver struct {
	dev     *raster.Device
	opts    Options
	tracker *cursor.Tracker
	surface present.Surface

	w, h     int
	trail    *feedback.Engine
	overlay  *raster.Buffer
	comp     *compositor.Compositor
	sceneBuf *raster.Buffer
	img      *image.NRGBA

	frame    uint64
	lastTime float64
	speed    scroll.Speed

	mu      sync.Mutex
	pending *[2]int
	layers  Layers
	closed  bool
}

// New allocates both layers at the configured viewport size. A layer whose
// allocation fails is disabled and logged; New fails only when neither
// layer could be built.
func New(dev *raster.Device, opts Options) (*Driver, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("loop: viewport %dx%d: %w", opts.Width, opts.Height, raster.ErrInvalidSize)
	}
	if len(opts.Slots) == 0 {
		return nil, fmt.Errorf("loop: %w", compositor.ErrNoScenes)
	}
	if opts.TrailScale <= 0 {
		opts.TrailScale = 1
	}
	if opts.Cursor == (cursor.Config{}) {
		opts.Cursor = cursor.DefaultConfig()
	}
	if opts.Trail == (shader.TrailParams{}) {
		opts.Trail = shader.DefaultTrailParams()
	}
	if opts.Overlay == (Overlay{}) {
		opts.Overlay = Overlay{Gain: 0.05, BloomMix: 0.01}
	}
	if opts.Compositor == (compositor.Params{}) {
		opts.Compositor = compositor.DefaultParams()
	}
	if opts.Progress == nil {
		opts.Progress = scroll.Fixed(0)
	}

	d := &Driver{
		dev:     dev,
		opts:    opts,
		tracker: cursor.NewTracker(opts.Cursor, opts.Width, opts.Height),
		surface: opts.Surface,
		w:       opts.Width,
		h:       opts.Height,
		speed:   scroll.Speed{Scale: opts.SpeedScale},
	}
	sceneErr, overlayErr := d.build(opts.Width, opts.Height)
	if sceneErr != nil && overlayErr != nil {
		d.tracker.Close()
		return nil, fmt.Errorf("loop: no layer could be allocated: %w", errors.Join(sceneErr, overlayErr))
	}
	return d, nil
}

// Tracker returns the cursor tracker fed by the host's pointer events.
func (d *Driver) Tracker() *cursor.Tracker { return d.tracker }

// Size returns the viewport size in effect for the last tick.
func (d *Driver) Size() (w, h int) { return d.w, d.h }

// Layers reports which layers are currently live.
func (d *Driver) Layers() Layers {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.layers
}

// Resize queues a viewport change. It is applied at the start of the next
// Tick, before any pass of that frame runs. Later calls replace earlier ones.
func (d *Driver) Resize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("loop: resize to %dx%d: %w", w, h, raster.ErrInvalidSize)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.pending = &[2]int{w, h}
	return nil
}

// Tick renders and presents one frame at time now since start.
func (d *Driver) Tick(ctx context.Context, now time.Duration) (Frame, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return Frame{}, ErrClosed
	}
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()

	if pending != nil && (pending[0] != d.w || pending[1] != d.h) {
		d.applyResize(pending[0], pending[1])
	}

	d.frame++
	t := now.Seconds()
	delta := math.Max(t-d.lastTime, 0)
	d.lastTime = t

	f := Frame{Number: d.frame, Time: t}
	f.Cursor = d.tracker.Advance(d.frame)

	var overlay *raster.Buffer
	if d.trail != nil {
		ok, err := d.stepOverlay(ctx, f.Cursor, feedback.FrameTime{Time: t, Delta: delta})
		if err != nil {
			return f, err
		}
		if ok {
			overlay = d.overlay
		}
	}

	if ticker, ok := d.opts.Progress.(scroll.Ticker); ok {
		ticker.Tick()
	}
	progress := d.opts.Progress.Progress()
	f.Speed = d.speed.Update(progress, delta)

	var sceneLayer *raster.Buffer
	if d.comp != nil {
		pair, err := d.comp.Composite(ctx, d.sceneBuf, progress, t)
		f.Pair = pair
		switch {
		case err == nil:
			sceneLayer = d.sceneBuf
		case ctx.Err() != nil:
			return f, err
		default:
			logging.Logger().Warn("loop: scene layer skipped", "frame", d.frame, "err", err)
		}
	} else {
		f.Pair = compositor.Bracket(progress, len(d.opts.Slots))
	}

	d.img = d.surface.Compose(d.img, d.w, d.h, sceneLayer, overlay, present.Uniforms{Time: t, ScrollSpeed: f.Speed})
	f.Image = d.img
	f.Layers = d.Layers()
	return f, nil
}

// stepOverlay runs the trail step and resolves it into the overlay buffer.
// ok is false when the overlay should be skipped this frame.
func (d *Driver) stepOverlay(ctx context.Context, st cursor.State, ft feedback.FrameTime) (ok bool, err error) {
	trail, err := d.trail.Step(ctx, st, ft)
	if err == nil {
		err = d.dev.Run(ctx, d.overlay, shader.Display{
			Src:      trail,
			BloomMix: d.opts.Overlay.BloomMix,
			Gain:     d.opts.Overlay.Gain,
		})
	}
	switch {
	case err == nil:
		return true, nil
	case ctx.Err() != nil:
		return false, err
	default:
		logging.Logger().Warn("loop: overlay skipped", "frame", d.frame, "err", err)
		return false, nil
	}
}

func (d *Driver) applyResize(w, h int) {
	logging.Logger().Info("loop: resizing", "from_width", d.w, "from_height", d.h, "width", w, "height", h)
	d.w, d.h = w, h
	d.tracker.SetViewport(w, h)
	d.build(w, h)
}

// build (re)allocates both layers at w×h, disabling any that fail.
func (d *Driver) build(w, h int) (sceneErr, overlayErr error) {
	if sceneErr = d.buildScene(w, h); sceneErr != nil {
		logging.Logger().Warn("loop: scene layer disabled", "err", sceneErr)
		d.dropScene()
	}
	if overlayErr = d.buildOverlay(w, h); overlayErr != nil {
		logging.Logger().Warn("loop: overlay layer disabled", "err", overlayErr)
		d.dropOverlay()
	}

	d.mu.Lock()
	d.layers = Layers{Scene: sceneErr == nil, Overlay: overlayErr == nil}
	d.mu.Unlock()
	return sceneErr, overlayErr
}

func (d *Driver) buildScene(w, h int) error {
	if d.comp == nil {
		c, err := compositor.New(d.dev, d.opts.Slots, w, h, d.opts.Compositor)
		if err != nil {
			return err
		}
		d.comp = c
	} else if err := d.comp.Resize(w, h); err != nil {
		return err
	}

	d.dev.Release(d.sceneBuf)
	d.sceneBuf = nil
	b, err := d.dev.Alloc(w, h, raster.FilterLinear)
	if err != nil {
		return fmt.Errorf("loop: allocate scene layer: %w", err)
	}
	d.sceneBuf = b
	return nil
}

func (d *Driver) buildOverlay(w, h int) error {
	tw := max(int(math.Round(float64(w)*d.opts.TrailScale)), 1)
	th := max(int(math.Round(float64(h)*d.opts.TrailScale)), 1)
	if d.trail == nil {
		e, err := feedback.New(d.dev, tw, th, d.opts.Trail)
		if err != nil {
			return err
		}
		d.trail = e
	} else if err := d.trail.Resize(tw, th); err != nil {
		return err
	}

	d.dev.Release(d.overlay)
	d.overlay = nil
	b, err := d.dev.Alloc(w, h, raster.FilterLinear)
	if err != nil {
		return fmt.Errorf("loop: allocate overlay layer: %w", err)
	}
	d.overlay = b
	return nil
}

func (d *Driver) dropScene() error {
	var err error
	if d.comp != nil {
		err = d.comp.Close()
		d.comp = nil
	}
	d.dev.Release(d.sceneBuf)
	d.sceneBuf = nil
	return err
}

func (d *Driver) dropOverlay() error {
	var err error
	if d.trail != nil {
		err = d.trail.Close()
		d.trail = nil
	}
	d.dev.Release(d.overlay)
	d.overlay = nil
	return err
}

// Close releases every buffer and stops the tracker. Closing twice is a
// no-op.
func (d *Driver) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.pending = nil
	d.layers = Layers{}
	d.mu.Unlock()

	d.tracker.Close()
	err := errors.Join(d.dropOverlay(), d.dropScene())
	logging.Logger().Info("loop: closed", "frames", d.frame)
	return err
}
