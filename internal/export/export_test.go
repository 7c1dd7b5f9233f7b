package export

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/webp"

	"scroll-trail-renderer/internal/loop"
	"scroll-trail-renderer/internal/raster"
	"scroll-trail-renderer/internal/scene"
	"scroll-trail-renderer/internal/scroll"
)

func TestScriptInterpolation(t *testing.T) {
	s := Script{
		Frames: 100,
		FPS:    30,
		Cursor: []CursorKey{{Frame: 10, X: 0, Y: 1}, {Frame: 20, X: 1, Y: 0}},
		Scroll: []ScrollKey{{Frame: 0, Progress: 0}, {Frame: 50, Progress: 2}},
	}

	if _, _, ok := s.CursorAt(5); ok {
		t.Error("cursor before first key should be absent")
	}
	x, y, ok := s.CursorAt(15)
	if !ok || math.Abs(x-0.5) > 1e-12 || math.Abs(y-0.5) > 1e-12 {
		t.Errorf("CursorAt(15) = %v, %v, %v", x, y, ok)
	}
	if x, _, _ := s.CursorAt(80); x != 1 {
		t.Errorf("CursorAt(80) x = %v, want hold at 1", x)
	}

	tests := []struct {
		frame int
		want  float64
	}{
		{-3, 0},
		{25, 1},
		{50, 2},
		{99, 2},
	}
	for _, tt := range tests {
		if got := s.ProgressAt(tt.frame); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("ProgressAt(%d) = %v, want %v", tt.frame, got, tt.want)
		}
	}
}

func TestDefaultScript(t *testing.T) {
	s := DefaultScript(3)
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}
	if got := s.ProgressAt(180); got != 2 {
		t.Errorf("ProgressAt(180) = %v, want last scene", got)
	}
	if got := DefaultScript(1).ProgressAt(200); got != 0 {
		t.Errorf("single-scene progress = %v, want 0", got)
	}
}

func TestLoadScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.json")
	data := `{"frames": 12, "fps": 24, "scroll": [{"frame": 10, "progress": 1}, {"frame": 2, "progress": 0}]}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadScript(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Scroll[0].Frame != 2 {
		t.Errorf("keys not sorted: %+v", s.Scroll)
	}

	if err := os.WriteFile(path, []byte(`{"frames": 0, "fps": 24}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadScript(path); err == nil {
		t.Error("expected error for empty script")
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	slots := []scene.Slot{
		{Name: "a", Scene: scene.Solid{Color: raster.Color{1, 0, 0, 1}}},
		{Name: "b", Scene: scene.NewMesh(scene.Cube(1), raster.Color{0, 1, 0, 1}), Camera: scene.DefaultCamera()},
	}
	script := Script{
		Frames: 6,
		FPS:    30,
		Cursor: []CursorKey{{Frame: 0, X: 0.2, Y: 0.5}, {Frame: 3, X: 0.8, Y: 0.5}},
		Scroll: []ScrollKey{{Frame: 0, Progress: 0}, {Frame: 5, Progress: 1}},
	}
	cfg := Config{
		OutputDir:   dir,
		Options:     loop.DefaultOptions(16, 12, slots),
		Scroll:      scroll.Config{Smoothing: scroll.SmoothingNone},
		Supersample: 2,
		Workers:     2,
		Animated:    true,
	}

	results, err := Run(context.Background(), cfg, script)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 6 {
		t.Fatalf("len(results) = %d, want 6", len(results))
	}
	for i, r := range results {
		if !r.Success || r.Frame != i {
			t.Errorf("result %d = %+v", i, r)
		}
	}
	if p := results[5].Pair; p.Index != 1 || p.Blend != 0 {
		t.Errorf("last pair = %+v, want terminal scene", p)
	}
	if math.Abs(results[2].Pair.Blend-0.4) > 1e-9 {
		t.Errorf("frame 2 blend = %v, want 0.4", results[2].Pair.Blend)
	}

	f, err := os.Open(filepath.Join(dir, "frames", "00003.webp"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := webp.Decode(f)
	if err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 12 {
		t.Errorf("frame bounds = %v, want 16x12", b)
	}

	data, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		t.Fatal(err)
	}
	var entries []ManifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 6 || entries[4].Image != "frames/00004.webp" {
		t.Errorf("manifest = %+v", entries)
	}

	if fi, err := os.Stat(filepath.Join(dir, "animation.webp")); err != nil || fi.Size() == 0 {
		t.Errorf("animation.webp missing or empty: %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := Config{
		OutputDir: t.TempDir(),
		Options:   loop.DefaultOptions(8, 8, []scene.Slot{{Scene: scene.Solid{}}}),
	}
	if _, err := Run(ctx, cfg, Script{Frames: 3, FPS: 30}); err == nil {
		t.Error("expected error from cancelled run")
	}
}
