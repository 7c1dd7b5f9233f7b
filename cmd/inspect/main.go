package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/HugoSmits86/nativewebp"

	"scroll-trail-renderer/internal/config"
	"scroll-trail-renderer/internal/loop"
	"scroll-trail-renderer/internal/raster"
	"scroll-trail-renderer/internal/scroll"
	"scroll-trail-renderer/internal/texture"
)

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	progress := flag.Float64("progress", 0, "Scene progress to inspect")
	frames := flag.Int("frames", 30, "Frames to run, with a cursor sweep across the middle")
	out := flag.String("out", "", "Write the last frame to this .webp file")
	textures := flag.Bool("textures", false, "List the indexed textures and exit")
	flag.Parse()

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.Resolve(config.Flags{})

	index := texture.BuildIndex(cfg.AssetsDir)
	if *textures {
		listTextures(cfg.AssetsDir, index)
		return
	}

	opts, err := cfg.Options(texture.NewCache(index))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	opts.Progress = scroll.Fixed(*progress)

	dev := raster.NewDevice(raster.Limits{})
	d, err := loop.New(dev, opts)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer d.Close()

	fmt.Printf("Viewport: %dx%d, Scenes: %d\n", opts.Width, opts.Height, len(opts.Slots))
	for i, s := range opts.Slots {
		fmt.Printf("  Scene[%d]: %s (%T)\n", i, s.Name, s.Scene)
	}
	l := d.Layers()
	fmt.Printf("Layers: scene=%v overlay=%v\n", l.Scene, l.Overlay)

	start := time.Now()
	var f loop.Frame
	for i := 0; i < *frames; i++ {
		x := float64(opts.Width) * (0.1 + 0.8*float64(i)/float64(max(*frames-1, 1)))
		d.Tracker().OnPointerMove(x, float64(opts.Height)/2)
		f, err = d.Tick(context.Background(), time.Duration(i)*time.Second/60)
		if err != nil {
			fmt.Printf("Error: frame %d: %v\n", i, err)
			os.Exit(1)
		}
	}
	elapsed := time.Since(start)

	if f.Image == nil {
		fmt.Println("No frames rendered.")
		return
	}

	// Mean and peak brightness of the presented frame
	var sum float64
	var peak uint8
	px := f.Image.Pix
	for i := 0; i < len(px); i += 4 {
		lum := (uint32(px[i])*2126 + uint32(px[i+1])*7152 + uint32(px[i+2])*722) / 10000
		sum += float64(lum)
		peak = max(peak, uint8(lum))
	}
	n := float64(len(px) / 4)

	fmt.Printf("Frames: %d in %.2fs (%.1f fps)\n", f.Number, elapsed.Seconds(), float64(f.Number)/elapsed.Seconds())
	fmt.Printf("Pair: %d -> %d, blend %.3f\n", f.Pair.Index, f.Pair.Next, f.Pair.Blend)
	fmt.Printf("Cursor: (%.3f, %.3f) velocity %.4f\n", f.Cursor.Position[0], f.Cursor.Position[1], f.Cursor.Velocity)
	fmt.Printf("Brightness: mean %.1f, peak %d\n", sum/n, peak)
	s := dev.Stats()
	fmt.Printf("Buffers: live=%d allocs=%d releases=%d bytes=%d\n", s.Live, s.Allocs, s.Releases, s.LiveBytes)

	if *out != "" {
		file, err := os.Create(*out)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		defer file.Close()
		if err := nativewebp.Encode(file, f.Image, nil); err != nil {
			fmt.Printf("Error: WebP encode: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", *out)
	}
}

func listTextures(dir string, index *texture.Index) {
	if dir == "" {
		fmt.Println("No assets directory configured.")
		return
	}
	fmt.Printf("Textures in %s: %d\n", dir, index.Len())
	var paths []string
	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() && texture.Supported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	sort.Strings(paths)
	for _, p := range paths {
		img, err := texture.LoadTexture(p)
		if err != nil {
			fmt.Printf("  ERR %s: %v\n", p, err)
			continue
		}
		b := img.Bounds()
		fmt.Printf("  %s  %dx%d\n", p, b.Dx(), b.Dy())
	}
}
