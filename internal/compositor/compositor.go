// Package compositor renders the two scenes bracketing the current progress
// into their own targets and cross-fades them into the scene layer.
package compositor

import (
	"context"
	"errors"
	"fmt"
	"math"

	"scroll-trail-renderer/internal/logging"
	"scroll-trail-renderer/internal/raster"
	"scroll-trail-renderer/internal/scene"
	"scroll-trail-renderer/internal/shader"
)

// ErrNoScenes is returned by New for an empty slot list.
var ErrNoScenes = errors.New("compositor: no scenes registered")

// Pair is the bracketed scene pair for one progress value.
type Pair struct {
	Index int
	Next  int
	Blend float64
}

// Bracket splits progress into the current scene, the next scene and the
// blend between them. NaN is treated as 0, out-of-range values clamp, and the
// last scene pairs with itself at blend 0.
func Bracket(progress float64, n int) Pair {
	if n <= 0 {
		return Pair{}
	}
	if math.IsNaN(progress) {
		progress = 0
	}
	last := float64(n - 1)
	progress = math.Max(0, math.Min(progress, last))

	index := int(math.Floor(progress))
	next := min(index+1, n-1)
	blend := progress - float64(index)
	if index == next {
		blend = 0
	}
	return Pair{Index: index, Next: next, Blend: blend}
}

// Params tunes the cross-fade.
type Params struct {
	Strength float64
}

// DefaultParams returns the cross-fade tuning used between scenes.
func DefaultParams() Params {
	return Params{Strength: shader.DefaultCrossfadeStrength}
}

// Compositor owns two viewport-sized targets and the registered scenes.
// Composite, Resize and Close belong to the render goroutine.
type Compositor struct {
	dev     *raster.Device
	slots   []scene.Slot
	params  Params
	targets [2]*raster.Buffer
}

// New copies slots and allocates both targets at w×h.
func New(dev *raster.Device, slots []scene.Slot, w, h int, params Params) (*Compositor, error) {
	if len(slots) == 0 {
		return nil, ErrNoScenes
	}
	for i, s := range slots {
		if s.Scene == nil {
			return nil, fmt.Errorf("compositor: slot %d (%q) has no scene", i, s.Name)
		}
	}

	targets, err := dev.AllocPair(w, h, raster.FilterLinear)
	if err != nil {
		return nil, fmt.Errorf("compositor: allocate scene targets: %w", err)
	}
	logging.Logger().Info("compositor: targets allocated", "scenes", len(slots), "width", w, "height", h)
	return &Compositor{
		dev:     dev,
		slots:   append([]scene.Slot(nil), slots...),
		params:  params,
		targets: targets,
	}, nil
}

// Len returns the number of registered scenes.
func (c *Compositor) Len() int { return len(c.slots) }

// Slot returns the i-th registered scene.
func (c *Compositor) Slot(i int) scene.Slot { return c.slots[i] }

// Composite renders the scenes bracketing progress and writes their
// cross-fade into dst, which must not be one of the compositor's targets.
// A scene whose Render fails leaves its slot background for this frame.
func (c *Compositor) Composite(ctx context.Context, dst *raster.Buffer, progress, t float64) (Pair, error) {
	pair := Bracket(progress, len(c.slots))
	a, b := c.targets[0], c.targets[1]
	if a == nil || b == nil {
		return pair, fmt.Errorf("compositor: composite: %w", raster.ErrReleased)
	}

	c.render(a, pair.Index, t)
	next := a
	if pair.Next != pair.Index {
		c.render(b, pair.Next, t)
		next = b
	}

	prog := shader.Crossfade{
		Prev:     a,
		Next:     next,
		Progress: pair.Blend,
		Strength: c.params.Strength,
		Time:     t,
	}
	if err := c.dev.Run(ctx, dst, prog); err != nil {
		return pair, fmt.Errorf("compositor: crossfade %d->%d: %w", pair.Index, pair.Next, err)
	}
	logging.Logger().Debug("compositor: composited", "index", pair.Index, "next", pair.Next, "blend", pair.Blend)
	return pair, nil
}

func (c *Compositor) render(dst *raster.Buffer, i int, t float64) {
	s := c.slots[i]
	dst.Clear(s.Background)
	if err := s.Scene.Render(dst, s.Camera, t); err != nil {
		logging.Logger().Warn("compositor: scene render failed", "scene", s.Name, "index", i, "err", err)
		dst.Clear(s.Background)
	}
}

// Resize reallocates both targets. On failure the compositor holds no
// targets and Composite fails until a later Resize succeeds.
func (c *Compositor) Resize(w, h int) error {
	c.release()
	targets, err := c.dev.AllocPair(w, h, raster.FilterLinear)
	if err != nil {
		return fmt.Errorf("compositor: resize to %dx%d: %w", w, h, err)
	}
	c.targets = targets
	logging.Logger().Info("compositor: targets resized", "width", w, "height", h)
	return nil
}

// Close releases both targets.
func (c *Compositor) Close() error {
	c.release()
	return nil
}

func (c *Compositor) release() {
	c.dev.Release(c.targets[0])
	c.dev.Release(c.targets[1])
	c.targets = [2]*raster.Buffer{}
}
