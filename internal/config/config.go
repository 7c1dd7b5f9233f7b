// Package config loads the renderer configuration from JSON and resolves it
// against CLI flags and built-in defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"scroll-trail-renderer/internal/scroll"
)

// Config holds every tunable of the pipeline. Pointer fields distinguish an
// explicit zero from "not set".
type Config struct {
	Viewport  Viewport      `json:"viewport"`
	Trail     Trail         `json:"trail"`
	Crossfade Crossfade     `json:"crossfade"`
	Cursor    Cursor        `json:"cursor"`
	Scroll    Scroll        `json:"scroll"`
	Overlay   Overlay       `json:"overlay"`
	Scenes    []SceneConfig `json:"scenes"`
	Output    Output        `json:"output"`

	// Paths
	AssetsDir string `json:"assets_dir"`
	Script    string `json:"script"`

	dir string // directory of the loaded file
}

type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Trail struct {
	Profile            string   `json:"profile"`
	Decay              *float64 `json:"decay"`
	Diffusion          *float64 `json:"diffusion"`
	DiffusionRetain    *float64 `json:"diffusion_retain"`
	LightningWidth     *float64 `json:"lightning_width"`
	LightningIntensity *float64 `json:"lightning_intensity"`
	Drift              *float64 `json:"drift"`
	DistortionStrength *float64 `json:"distortion_strength"`
	DistortionRadius   *float64 `json:"distortion_radius"`
	ColorMix           *float64 `json:"color_mix"`
	Color1             string   `json:"color1"`
	Color2             string   `json:"color2"`
	GlowScale          *float64 `json:"glow_scale"`
	MaxIntensity       *float64 `json:"max_intensity"`
	ResolutionScale    float64  `json:"resolution_scale"`
}

type Crossfade struct {
	Strength *float64 `json:"strength"`
}

type Cursor struct {
	Sensitivity *float64 `json:"sensitivity"`
	Decay       *float64 `json:"decay"`
	MaxVelocity *float64 `json:"max_velocity"`
}

type Scroll struct {
	Smoothing string          `json:"smoothing"`
	Windows   []scroll.Window `json:"windows"`
}

type Overlay struct {
	Gain     *float64 `json:"gain"`
	BloomMix *float64 `json:"bloom_mix"`
}

type Output struct {
	Dir         string  `json:"dir"`
	Supersample int     `json:"supersample"`
	Animated    bool    `json:"animated"`
	Workers     int     `json:"workers"`
	Tonemap     bool    `json:"tonemap"`
	Exposure    float64 `json:"exposure"`
	Vignette    bool    `json:"vignette"`
	Glitch      bool    `json:"glitch"`
	DotGrid     bool    `json:"dot_grid"`
	SpeedScale  float64 `json:"scroll_speed_scale"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	OutputDir string
	AssetsDir string
	Script    string
	Profile   string
	Width     int
	Height    int
	Workers   int
	Animated  bool
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.OutputDir != "" {
		c.Output.Dir = flags.OutputDir
	}
	if flags.AssetsDir != "" {
		c.AssetsDir = flags.AssetsDir
	}
	if flags.Script != "" {
		c.Script = flags.Script
	}
	if flags.Profile != "" {
		c.Trail.Profile = flags.Profile
	}
	if flags.Width > 0 {
		c.Viewport.Width = flags.Width
	}
	if flags.Height > 0 {
		c.Viewport.Height = flags.Height
	}
	if flags.Workers > 0 {
		c.Output.Workers = flags.Workers
	}
	if flags.Animated {
		c.Output.Animated = true
	}

	// Paths in the file are relative to the file
	c.AssetsDir = c.rel(c.AssetsDir)
	c.Script = c.rel(c.Script)

	if c.Viewport.Width <= 0 {
		c.Viewport.Width = 800
	}
	if c.Viewport.Height <= 0 {
		c.Viewport.Height = 600
	}
	if c.Trail.Profile == "" {
		c.Trail.Profile = ProfileSharp
	}
	if c.Trail.ResolutionScale <= 0 {
		c.Trail.ResolutionScale = 1
	}
	if c.Scroll.Smoothing == "" {
		c.Scroll.Smoothing = string(scroll.SmoothingSpring)
	}
	if len(c.Scenes) == 0 {
		c.Scenes = DefaultScenes()
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "renders"
	}
	if c.Output.Supersample <= 0 {
		c.Output.Supersample = 1
	}
	if c.Output.Workers <= 0 {
		c.Output.Workers = runtime.NumCPU()
	}
	if c.Output.Exposure <= 0 {
		c.Output.Exposure = 1
	}
}

func (c *Config) rel(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}
