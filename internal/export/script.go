package export

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"scroll-trail-renderer/internal/mathutil"
)

// CursorKey places the pointer at a frame, as fractions of the viewport with
// the origin at the top left. Positions between keys are interpolated.
type CursorKey struct {
	Frame int     `json:"frame"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// ScrollKey sets the scene progress at a frame.
type ScrollKey struct {
	Frame    int     `json:"frame"`
	Progress float64 `json:"progress"`
}

// Script is a scripted timeline for an offline render.
type Script struct {
	Frames int         `json:"frames"`
	FPS    int         `json:"fps"`
	Cursor []CursorKey `json:"cursor"`
	Scroll []ScrollKey `json:"scroll"`
}

// LoadScript reads a JSON script.
func LoadScript(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("export: read script %s: %w", path, err)
	}
	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("export: parse script %s: %w", path, err)
	}
	s.sort()
	return s, s.Validate()
}

// DefaultScript sweeps the cursor across the viewport, lets the trail fade,
// then scrolls through every scene and back part of the way.
func DefaultScript(sceneCount int) Script {
	last := float64(max(sceneCount-1, 0))
	return Script{
		Frames: 240,
		FPS:    60,
		Cursor: []CursorKey{
			{Frame: 10, X: 0.1, Y: 0.6},
			{Frame: 40, X: 0.9, Y: 0.4},
			{Frame: 150, X: 0.9, Y: 0.4},
			{Frame: 175, X: 0.3, Y: 0.8},
		},
		Scroll: []ScrollKey{
			{Frame: 60, Progress: 0},
			{Frame: 120, Progress: min(1, last)},
			{Frame: 180, Progress: last},
			{Frame: 220, Progress: min(0.3, last)},
		},
	}
}

// Validate reports whether the script can be rendered.
func (s Script) Validate() error {
	if s.Frames <= 0 {
		return fmt.Errorf("export: script has %d frames", s.Frames)
	}
	if s.FPS <= 0 {
		return fmt.Errorf("export: script fps %d", s.FPS)
	}
	return nil
}

func (s *Script) sort() {
	sort.SliceStable(s.Cursor, func(i, j int) bool { return s.Cursor[i].Frame < s.Cursor[j].Frame })
	sort.SliceStable(s.Scroll, func(i, j int) bool { return s.Scroll[i].Frame < s.Scroll[j].Frame })
}

// CursorAt returns the pointer position at frame. ok is false before the
// first key, when the pointer has not entered the viewport yet.
func (s Script) CursorAt(frame int) (x, y float64, ok bool) {
	keys := s.Cursor
	if len(keys) == 0 || frame < keys[0].Frame {
		return 0, 0, false
	}
	for i := 1; i < len(keys); i++ {
		a, b := keys[i-1], keys[i]
		if frame <= b.Frame {
			t := lerpT(a.Frame, b.Frame, frame)
			return mathutil.Mix(a.X, b.X, t), mathutil.Mix(a.Y, b.Y, t), true
		}
	}
	k := keys[len(keys)-1]
	return k.X, k.Y, true
}

// ProgressAt returns the scene progress at frame, holding the first and last
// keys beyond the ends.
func (s Script) ProgressAt(frame int) float64 {
	keys := s.Scroll
	if len(keys) == 0 {
		return 0
	}
	if frame <= keys[0].Frame {
		return keys[0].Progress
	}
	for i := 1; i < len(keys); i++ {
		a, b := keys[i-1], keys[i]
		if frame <= b.Frame {
			return mathutil.Mix(a.Progress, b.Progress, lerpT(a.Frame, b.Frame, frame))
		}
	}
	return keys[len(keys)-1].Progress
}

func lerpT(f0, f1, f int) float64 {
	if f1 <= f0 {
		return 1
	}
	return float64(f-f0) / float64(f1-f0)
}
