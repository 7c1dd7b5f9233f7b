// Package feedback runs the persistent trail simulation over a ping-pong
// pair of offscreen buffers.
package feedback

import (
	"context"
	"errors"
	"fmt"

	"scroll-trail-renderer/internal/cursor"
	"scroll-trail-renderer/internal/logging"
	"scroll-trail-renderer/internal/raster"
	"scroll-trail-renderer/internal/shader"
)

// ErrClosed is returned by operations on a closed engine.
var ErrClosed = errors.New("feedback: engine closed")

// FrameTime is the clock handed to one step, in seconds.
type FrameTime struct {
	Time  float64
	Delta float64
}

// Engine owns the two trail buffers. Each step reads the buffer produced by
// the previous step and writes the other, then swaps. Engine is driven by a
// single render goroutine and is not safe for concurrent use.
type Engine struct {
	dev    *raster.Device
	params shader.TrailParams

	bufs   [2]*raster.Buffer
	read   int
	steps  uint64
	closed bool
}

// New allocates a zero-cleared w×h pair.
func New(dev *raster.Device, w, h int, params shader.TrailParams) (*Engine, error) {
	bufs, err := dev.AllocPair(w, h, raster.FilterLinear)
	if err != nil {
		return nil, fmt.Errorf("feedback: allocate trail buffers: %w", err)
	}
	logging.Logger().Info("feedback: trail allocated", "width", w, "height", h)
	return &Engine{dev: dev, params: params, bufs: bufs}, nil
}

// Step advances the simulation by one frame and returns the buffer holding
// the new trail. The returned buffer is only valid until the next Step.
func (e *Engine) Step(ctx context.Context, st cursor.State, ft FrameTime) (*raster.Buffer, error) {
	if e.closed {
		return nil, ErrClosed
	}
	src, dst := e.bufs[e.read], e.bufs[1-e.read]
	if src == nil || dst == nil {
		return nil, fmt.Errorf("feedback: step: %w", raster.ErrReleased)
	}

	prog := shader.TrailStep{
		Prev:   src,
		Params: e.params,
		Uniforms: shader.TrailUniforms{
			Mouse:     st.Position,
			PrevMouse: st.Previous,
			Velocity:  st.Velocity,
			Time:      ft.Time,
		},
	}
	if err := e.dev.Run(ctx, dst, prog); err != nil {
		return nil, fmt.Errorf("feedback: step %d: %w", e.steps, err)
	}

	e.read = 1 - e.read
	e.steps++
	return dst, nil
}

// Current returns the most recent trail, or nil if the buffers are gone.
func (e *Engine) Current() *raster.Buffer {
	if e.closed {
		return nil
	}
	return e.bufs[e.read]
}

// Read returns the index of the buffer the next step samples.
func (e *Engine) Read() int { return e.read }

// Size returns the trail resolution.
func (e *Engine) Size() (w, h int) {
	if b := e.bufs[0]; b != nil {
		return b.Width, b.Height
	}
	return 0, 0
}

// Params returns the simulation parameters.
func (e *Engine) Params() shader.TrailParams { return e.params }

// SetParams replaces the simulation parameters from the next step on.
func (e *Engine) SetParams(p shader.TrailParams) { e.params = p }

// Resize releases both buffers and allocates a zero-cleared pair at the new
// size. The trail restarts from black. On failure the engine holds no
// buffers and every Step fails until a later Resize succeeds.
func (e *Engine) Resize(w, h int) error {
	if e.closed {
		return ErrClosed
	}
	e.release()

	bufs, err := e.dev.AllocPair(w, h, raster.FilterLinear)
	if err != nil {
		return fmt.Errorf("feedback: resize to %dx%d: %w", w, h, err)
	}
	e.bufs = bufs
	logging.Logger().Info("feedback: trail resized", "width", w, "height", h)
	return nil
}

// Close releases both buffers. Closing twice is a no-op.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.release()
	e.closed = true
	return nil
}

func (e *Engine) release() {
	e.dev.Release(e.bufs[0])
	e.dev.Release(e.bufs[1])
	e.bufs = [2]*raster.Buffer{}
	e.read = 0
}
