package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"scroll-trail-renderer/internal/config"
	"scroll-trail-renderer/internal/logging"
	"scroll-trail-renderer/internal/loop"
	"scroll-trail-renderer/internal/mathutil"
	"scroll-trail-renderer/internal/raster"
	"scroll-trail-renderer/internal/scroll"
	"scroll-trail-renderer/internal/texture"
)

// wheelStep is the scroll fraction covered by one wheel notch.
const wheelStep = 0.02

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	profile := flag.String("profile", "", "Trail profile: sharp or soft")
	assetsDir := flag.String("assets", "", "Directory searched for image scene textures")
	width := flag.Int("width", 0, "Window width (default: 800)")
	height := flag.Int("height", 0, "Window height (default: 600)")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.Resolve(config.Flags{
		AssetsDir: *assetsDir,
		Profile:   *profile,
		Width:     *width,
		Height:    *height,
	})

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	opts, err := cfg.Options(texture.NewCache(texture.BuildIndex(cfg.AssetsDir)))
	if err != nil {
		return err
	}
	mcfg, err := cfg.MapperConfig(len(opts.Slots))
	if err != nil {
		return err
	}
	mapper, err := scroll.NewMapper(mcfg)
	if err != nil {
		return err
	}
	opts.Progress = mapper

	driver, err := loop.New(raster.NewDevice(raster.Limits{}), opts)
	if err != nil {
		return err
	}
	defer driver.Close()

	g := &viewer{
		driver: driver,
		mapper: mapper,
		start:  time.Now(),
		w:      opts.Width,
		h:      opts.Height,
	}
	ebiten.SetWindowTitle("scroll trail")
	ebiten.SetWindowSize(opts.Width, opts.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

// viewer hosts the render loop in an ebiten window: one Tick per Update, the
// presented frame copied to the screen in Draw.
type viewer struct {
	driver *loop.Driver
	mapper *scroll.Mapper
	start  time.Time

	w, h   int
	scroll float64
	lastX  int
	lastY  int
	frame  loop.Frame
	screen *ebiten.Image
}

func (g *viewer) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		g.driver.Close()
		return ebiten.Termination
	}

	if x, y := ebiten.CursorPosition(); x != g.lastX || y != g.lastY {
		g.lastX, g.lastY = x, y
		g.driver.Tracker().OnPointerMove(float64(x), float64(y))
	}
	if _, dy := ebiten.Wheel(); dy != 0 {
		g.scroll = mathutil.Clamp01(g.scroll - dy*wheelStep)
		g.mapper.Publish(g.scroll)
	}

	f, err := g.driver.Tick(context.Background(), time.Since(g.start))
	if err != nil {
		if errors.Is(err, loop.ErrClosed) {
			return ebiten.Termination
		}
		return err
	}
	g.frame = f
	return nil
}

func (g *viewer) Draw(screen *ebiten.Image) {
	img := g.frame.Image
	if img == nil {
		return
	}
	b := img.Bounds()
	if g.screen == nil || g.screen.Bounds().Dx() != b.Dx() || g.screen.Bounds().Dy() != b.Dy() {
		if g.screen != nil {
			g.screen.Deallocate()
		}
		g.screen = ebiten.NewImage(b.Dx(), b.Dy())
	}
	// Presented frames are opaque, so NRGBA and premultiplied RGBA agree.
	g.screen.WritePixels(img.Pix)
	screen.DrawImage(g.screen, nil)
}

func (g *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth > 0 && outsideHeight > 0 && (outsideWidth != g.w || outsideHeight != g.h) {
		if err := g.driver.Resize(outsideWidth, outsideHeight); err == nil {
			g.w, g.h = outsideWidth, outsideHeight
			logging.Logger().Debug("view: resize queued", "width", outsideWidth, "height", outsideHeight)
		}
	}
	return g.w, g.h
}
