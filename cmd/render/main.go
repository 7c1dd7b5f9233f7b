package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"scroll-trail-renderer/internal/config"
	"scroll-trail-renderer/internal/export"
	"scroll-trail-renderer/internal/logging"
	"scroll-trail-renderer/internal/raster"
	"scroll-trail-renderer/internal/texture"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	scriptFile := flag.String("script", "", "Path to a timeline script (default: built-in sweep)")
	frames := flag.Int("frames", 0, "Render only the first N frames of the script")
	width := flag.Int("width", 0, "Output width (default: 800)")
	height := flag.Int("height", 0, "Output height (default: 600)")
	profile := flag.String("profile", "", "Trail profile: sharp or soft")
	workers := flag.Int("workers", 0, "Number of encoder goroutines (default: NumCPU)")
	assetsDir := flag.String("assets", "", "Directory searched for image scene textures")
	outputDir := flag.String("output", "", "Output directory (default: renders)")
	animated := flag.Bool("animated", false, "Also write animation.webp")
	verbose := flag.Bool("v", false, "Verbose logging")

	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		OutputDir: *outputDir,
		AssetsDir: *assetsDir,
		Script:    *scriptFile,
		Profile:   *profile,
		Width:     *width,
		Height:    *height,
		Workers:   *workers,
		Animated:  *animated,
	})

	texIndex := texture.BuildIndex(cfg.AssetsDir)
	texCache := texture.NewCache(texIndex)
	if cfg.AssetsDir != "" {
		fmt.Printf("Textures: %d indexed\n", texIndex.Len())
	}

	opts, err := cfg.Options(texCache)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	scrollCfg, err := cfg.MapperConfig(len(opts.Slots))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	script := export.DefaultScript(len(opts.Slots))
	if cfg.Script != "" {
		script, err = export.LoadScript(cfg.Script)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading script: %v\n", err)
			os.Exit(1)
		}
	}
	if *frames > 0 && *frames < script.Frames {
		script.Frames = *frames
	}

	fmt.Printf("Scroll trail renderer → WebP (%s trail)\n", cfg.Trail.Profile)
	fmt.Printf("Scenes: %d, Frames: %d @ %d fps, Size: %dx%d, Workers: %d\n",
		len(opts.Slots), script.Frames, script.FPS, cfg.Viewport.Width, cfg.Viewport.Height, cfg.Output.Workers)
	fmt.Printf("Output: %s\n", cfg.Output.Dir)
	fmt.Println("------------------------------------------------------------")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	results, err := export.Run(ctx, export.Config{
		OutputDir:   cfg.Output.Dir,
		Device:      raster.NewDevice(raster.Limits{}),
		Options:     opts,
		Scroll:      scrollCfg,
		Supersample: cfg.Output.Supersample,
		Workers:     cfg.Output.Workers,
		Animated:    cfg.Output.Animated,
	}, script)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Count results
	success := 0
	var failed []export.Result
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failed = append(failed, r)
		}
	}
	fmt.Printf("Encoded: %d/%d\n", success, len(results))

	if len(failed) > 0 {
		fmt.Printf("\nFailed (%d):\n", len(failed))
		for _, r := range failed[:min(len(failed), 20)] {
			fmt.Printf("  frame %d: %s\n", r.Frame, r.Error)
		}
		os.Exit(1)
	}
}
