// Package export renders a scripted timeline offline and writes the frames
// as WebP images with a manifest.
package export

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HugoSmits86/nativewebp"

	"scroll-trail-renderer/internal/compositor"
	"scroll-trail-renderer/internal/cursor"
	"scroll-trail-renderer/internal/logging"
	"scroll-trail-renderer/internal/loop"
	"scroll-trail-renderer/internal/postprocess"
	"scroll-trail-renderer/internal/raster"
	"scroll-trail-renderer/internal/scroll"
)

// Config holds all shared resources for an export run.
type Config struct {
	OutputDir   string
	Device      *raster.Device
	Options     loop.Options // Width and Height are the output frame size
	Scroll      scroll.Config
	Supersample int
	Workers     int
	Animated    bool
}

// Result holds the outcome of encoding one frame.
type Result struct {
	Frame   int
	File    string // relative to the output dir
	Pair    compositor.Pair
	Cursor  cursor.State
	Success bool
	Error   string
}

type job struct {
	index int
	img   *image.NRGBA
}

// Run ticks the pipeline once per script frame, in order, and encodes the
// presented frames on a worker pool. It writes frames/NNNNN.webp,
// manifest.json and, when cfg.Animated is set, animation.webp.
//
// The returned error covers setup and rendering; per-frame encode failures
// are reported in the results.
func Run(ctx context.Context, cfg Config, script Script) ([]Result, error) {
	if err := script.Validate(); err != nil {
		return nil, err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	ss := max(cfg.Supersample, 1)
	outW, outH := cfg.Options.Width, cfg.Options.Height
	dev := cfg.Device
	if dev == nil {
		dev = raster.NewDevice(raster.Limits{})
	}

	mcfg := cfg.Scroll
	mcfg.SceneCount = len(cfg.Options.Slots)
	mapper, err := scroll.NewMapper(mcfg)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	opts := cfg.Options
	opts.Width, opts.Height = outW*ss, outH*ss
	opts.Progress = mapper
	driver, err := loop.New(dev, opts)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	defer driver.Close()

	if err := os.MkdirAll(filepath.Join(cfg.OutputDir, "frames"), 0755); err != nil {
		return nil, fmt.Errorf("export: create output dir: %w", err)
	}

	total := script.Frames
	results := make([]Result, total)
	var animFrames []image.Image
	if cfg.Animated {
		animFrames = make([]image.Image, total)
	}
	var encoded atomic.Int64
	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if p := encoded.Load(); p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					logging.Logger().Info("export: progress", "done", p, "total", total, "fps", rate)
				}
			}
		}
	}()

	// Worker pool
	jobs := make(chan job, cfg.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				img := j.img
				if ss > 1 {
					img = postprocess.Downsample(img, outW, outH)
				}
				if cfg.Animated {
					animFrames[j.index] = img
				}
				encodeFrame(cfg.OutputDir, img, &results[j.index])
				encoded.Add(1)
			}
		}()
	}

	// Frames are ticked strictly in order on this goroutine
	frameDur := time.Second / time.Duration(script.FPS)
	var lastX, lastY float64
	var moved bool
	var runErr error
	for i := 0; i < total; i++ {
		if x, y, ok := script.CursorAt(i); ok && (!moved || x != lastX || y != lastY) {
			driver.Tracker().OnPointerMove(x*float64(opts.Width), y*float64(opts.Height))
			lastX, lastY, moved = x, y, true
		}
		mapper.Set(script.ProgressAt(i))

		f, err := driver.Tick(ctx, time.Duration(i)*frameDur)
		if err != nil {
			runErr = fmt.Errorf("export: frame %d: %w", i, err)
			break
		}
		results[i] = Result{
			Frame:  i,
			File:   fmt.Sprintf("frames/%05d.webp", i),
			Pair:   f.Pair,
			Cursor: f.Cursor,
		}
		// The driver reuses its image on the next tick
		img := image.NewNRGBA(f.Image.Rect)
		copy(img.Pix, f.Image.Pix)
		jobs <- job{index: i, img: img}
	}
	close(jobs)
	wg.Wait()
	close(done)

	if runErr != nil {
		return results, runErr
	}

	if err := WriteManifest(filepath.Join(cfg.OutputDir, "manifest.json"), results); err != nil {
		return results, fmt.Errorf("export: write manifest: %w", err)
	}
	if cfg.Animated {
		if err := writeAnimation(filepath.Join(cfg.OutputDir, "animation.webp"), animFrames, script.FPS); err != nil {
			return results, err
		}
	}
	logging.Logger().Info("export: done", "frames", total, "elapsed", time.Since(start))
	return results, nil
}

func encodeFrame(dir string, img *image.NRGBA, r *Result) {
	f, err := os.Create(filepath.Join(dir, r.File))
	if err != nil {
		r.Error = err.Error()
		return
	}
	defer f.Close()

	if err := nativewebp.Encode(f, img, nil); err != nil {
		r.Error = fmt.Sprintf("WebP encode: %v", err)
		return
	}
	r.Success = true
}

func writeAnimation(path string, frames []image.Image, fps int) error {
	durations := make([]uint, len(frames))
	disposals := make([]uint, len(frames))
	for i := range durations {
		durations[i] = uint(1000 / fps)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create animation: %w", err)
	}
	defer f.Close()

	ani := &nativewebp.Animation{
		Images:          frames,
		Durations:       durations,
		Disposals:       disposals,
		LoopCount:       0,
		BackgroundColor: 0xff000000,
	}
	if err := nativewebp.EncodeAll(f, ani, nil); err != nil {
		return fmt.Errorf("export: encode animation: %w", err)
	}
	return nil
}
