package config

import (
	"fmt"
	"strconv"
	"strings"

	"scroll-trail-renderer/internal/compositor"
	"scroll-trail-renderer/internal/cursor"
	"scroll-trail-renderer/internal/loop"
	"scroll-trail-renderer/internal/mathutil"
	"scroll-trail-renderer/internal/present"
	"scroll-trail-renderer/internal/raster"
	"scroll-trail-renderer/internal/scene"
	"scroll-trail-renderer/internal/scroll"
	"scroll-trail-renderer/internal/shader"
	"scroll-trail-renderer/internal/texture"
)

// Trail profiles.
const (
	ProfileSharp = "sharp"
	ProfileSoft  = "soft"
)

// Profile returns the trail tuning for a named profile.
func Profile(name string) (shader.TrailParams, error) {
	p := shader.DefaultTrailParams()
	switch name {
	case ProfileSharp, "":
	case ProfileSoft:
		p.GlowScale = 5.0
		p.Color2 = mathutil.Vec3{0x1a / 255.0, 0x3d / 255.0, 0x7c / 255.0}
	default:
		return p, fmt.Errorf("config: unknown trail profile %q", name)
	}
	return p, nil
}

// ParseHex parses "#rrggbb" (or "rrggbb", or "#rgb") into linear [0,1] RGB.
func ParseHex(s string) (mathutil.Vec3, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return mathutil.Vec3{}, fmt.Errorf("config: colour %q: want #rrggbb", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return mathutil.Vec3{}, fmt.Errorf("config: colour %q: %w", s, err)
	}
	return mathutil.Vec3{
		float64(v>>16&0xff) / 255,
		float64(v>>8&0xff) / 255,
		float64(v&0xff) / 255,
	}, nil
}

func set(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

// TrailParams resolves the profile and applies per-field overrides.
func (c *Config) TrailParams() (shader.TrailParams, error) {
	t := c.Trail
	p, err := Profile(t.Profile)
	if err != nil {
		return p, err
	}
	set(&p.Decay, t.Decay)
	set(&p.Diffusion, t.Diffusion)
	set(&p.DiffusionRetain, t.DiffusionRetain)
	set(&p.LightningWidth, t.LightningWidth)
	set(&p.LightningIntensity, t.LightningIntensity)
	set(&p.Drift, t.Drift)
	set(&p.DistortionStrength, t.DistortionStrength)
	set(&p.DistortionRadius, t.DistortionRadius)
	set(&p.ColorMix, t.ColorMix)
	set(&p.GlowScale, t.GlowScale)
	set(&p.MaxIntensity, t.MaxIntensity)
	if t.Color1 != "" {
		if p.Color1, err = ParseHex(t.Color1); err != nil {
			return p, err
		}
	}
	if t.Color2 != "" {
		if p.Color2, err = ParseHex(t.Color2); err != nil {
			return p, err
		}
	}

	if !(p.Decay > 0 && p.Decay < 1) {
		return p, fmt.Errorf("config: trail.decay %v: must be in (0, 1)", p.Decay)
	}
	if !(p.DiffusionRetain >= 0 && p.DiffusionRetain < 1) {
		return p, fmt.Errorf("config: trail.diffusion_retain %v: must be in [0, 1)", p.DiffusionRetain)
	}
	return p, nil
}

// CursorConfig returns the tracker tuning.
func (c *Config) CursorConfig() (cursor.Config, error) {
	cc := cursor.DefaultConfig()
	set(&cc.Sensitivity, c.Cursor.Sensitivity)
	set(&cc.Decay, c.Cursor.Decay)
	set(&cc.MaxVelocity, c.Cursor.MaxVelocity)

	if !(cc.Decay > 0 && cc.Decay < 1) {
		return cc, fmt.Errorf("config: cursor.decay %v: must be in (0, 1)", cc.Decay)
	}
	if !(cc.Sensitivity > 0) {
		return cc, fmt.Errorf("config: cursor.sensitivity %v: must be positive", cc.Sensitivity)
	}
	if !(cc.MaxVelocity > 0) {
		return cc, fmt.Errorf("config: cursor.max_velocity %v: must be positive", cc.MaxVelocity)
	}
	return cc, nil
}

// MapperConfig returns the scroll mapper config for n scenes.
func (c *Config) MapperConfig(n int) (scroll.Config, error) {
	mc := scroll.DefaultConfig(n)
	switch s := scroll.Smoothing(c.Scroll.Smoothing); s {
	case "":
	case scroll.SmoothingNone, scroll.SmoothingLerp, scroll.SmoothingSpring:
		mc.Smoothing = s
	default:
		return mc, fmt.Errorf("config: unknown scroll smoothing %q", c.Scroll.Smoothing)
	}
	mc.Windows = c.Scroll.Windows
	return mc, nil
}

// Options assembles the render loop options. resolver serves image scenes.
func (c *Config) Options(resolver texture.Resolver) (loop.Options, error) {
	slots, err := c.Slots(resolver)
	if err != nil {
		return loop.Options{}, err
	}
	trail, err := c.TrailParams()
	if err != nil {
		return loop.Options{}, err
	}

	opts := loop.DefaultOptions(c.Viewport.Width, c.Viewport.Height, slots)
	opts.Trail = trail
	opts.TrailScale = c.Trail.ResolutionScale
	opts.Cursor, err = c.CursorConfig()
	if err != nil {
		return loop.Options{}, err
	}
	set(&opts.Overlay.Gain, c.Overlay.Gain)
	set(&opts.Overlay.BloomMix, c.Overlay.BloomMix)
	opts.Compositor = compositor.DefaultParams()
	set(&opts.Compositor.Strength, c.Crossfade.Strength)
	opts.Surface = present.Surface{Tonemap: c.Output.Tonemap, Exposure: c.Output.Exposure}
	if c.Output.Vignette {
		v := shader.DefaultVignette()
		opts.Surface.Vignette = &v
	}
	if c.Output.Glitch {
		g := shader.DefaultGlitch()
		opts.Surface.Glitch = &g
	}
	if c.Output.DotGrid {
		g := shader.DefaultDotGrid()
		opts.Surface.DotGrid = &g
	}
	opts.SpeedScale = c.Output.SpeedScale
	return opts, nil
}

// SceneConfig describes one registered scene.
type SceneConfig struct {
	Name       string       `json:"name"`
	Kind       string       `json:"kind"` // solid, cube, torus, plane, image
	Color      string       `json:"color"`
	Background string       `json:"background"`
	Texture    string       `json:"texture"`
	Size       float64      `json:"size"`
	Spin       [3]float64   `json:"spin"`
	Camera     CameraConfig `json:"camera"`
}

type CameraConfig struct {
	Position *[3]float64 `json:"position"`
	Yaw      float64     `json:"yaw"`   // degrees
	Pitch    float64     `json:"pitch"` // degrees
	FOV      float64     `json:"fov"`   // degrees
}

// DefaultScenes is a three-scene sequence needing no assets.
func DefaultScenes() []SceneConfig {
	return []SceneConfig{
		{Name: "cube", Kind: "cube", Color: "#d9d2c5", Background: "#0b0f1a", Spin: [3]float64{0.3, 0.6, 0}},
		{Name: "torus", Kind: "torus", Color: "#4f8fd6", Background: "#05070d", Spin: [3]float64{0.5, 0.2, 0}},
		{Name: "plane", Kind: "plane", Color: "#9ab07a", Background: "#101418", Spin: [3]float64{0, 0.25, 0},
			Camera: CameraConfig{Position: &[3]float64{0, 1.6, 3.2}, Pitch: -25}},
	}
}

func colour(s string, fallback mathutil.Vec3) (raster.Color, error) {
	v := fallback
	if s != "" {
		var err error
		if v, err = ParseHex(s); err != nil {
			return raster.Color{}, err
		}
	}
	return raster.Color{v[0], v[1], v[2], 1}, nil
}

// Slots builds the configured scenes in registration order.
func (c *Config) Slots(resolver texture.Resolver) ([]scene.Slot, error) {
	slots := make([]scene.Slot, 0, len(c.Scenes))
	for i, sc := range c.Scenes {
		name := sc.Name
		if name == "" {
			name = fmt.Sprintf("scene%d", i)
		}
		bg, err := colour(sc.Background, mathutil.Vec3{})
		if err != nil {
			return nil, fmt.Errorf("config: scene %q background: %w", name, err)
		}
		col, err := colour(sc.Color, mathutil.Vec3{0.8, 0.8, 0.8})
		if err != nil {
			return nil, fmt.Errorf("config: scene %q color: %w", name, err)
		}
		size := sc.Size
		if size <= 0 {
			size = 1.4
		}

		var s scene.Scene
		switch sc.Kind {
		case "solid":
			s = scene.Solid{Color: col}
		case "cube", "":
			s = newMesh(scene.Cube(size), col, sc.Spin)
		case "torus":
			s = newMesh(scene.Torus(size*0.7, size*0.25, 32), col, sc.Spin)
		case "plane":
			s = newMesh(scene.Plane(size*2), col, sc.Spin)
		case "image":
			if sc.Texture == "" {
				return nil, fmt.Errorf("config: scene %q: image scene needs a texture", name)
			}
			s = &scene.Image{Resolver: resolver, Name: sc.Texture}
		default:
			return nil, fmt.Errorf("config: scene %q: unknown kind %q", name, sc.Kind)
		}

		cam := scene.DefaultCamera()
		if p := sc.Camera.Position; p != nil {
			cam.Position = mathutil.Vec3(*p)
		}
		cam.Yaw = mathutil.Deg2Rad(sc.Camera.Yaw)
		cam.Pitch = mathutil.Deg2Rad(sc.Camera.Pitch)
		if sc.Camera.FOV > 0 {
			cam.FOV = sc.Camera.FOV
		}

		slots = append(slots, scene.Slot{Name: name, Scene: s, Camera: cam, Background: bg})
	}
	return slots, nil
}

func newMesh(g scene.Geometry, col raster.Color, spin [3]float64) *scene.Mesh {
	m := scene.NewMesh(g, col)
	m.Spin = mathutil.Vec3(spin)
	return m
}
