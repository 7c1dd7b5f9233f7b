package present

import (
	"image"
	"testing"

	"scroll-trail-renderer/internal/raster"
	"scroll-trail-renderer/internal/shader"
)

func alloc(t *testing.T, dev *raster.Device, w, h int, c raster.Color) *raster.Buffer {
	t.Helper()
	b, err := dev.Alloc(w, h, raster.FilterLinear)
	if err != nil {
		t.Fatal(err)
	}
	b.Clear(c)
	return b
}

func TestComposeNilLayers(t *testing.T) {
	var s Surface
	img := s.Compose(nil, 4, 3, nil, nil, Uniforms{})
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Fatalf("bounds = %v", b)
	}
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 || img.Pix[i+1] != 0 || img.Pix[i+2] != 0 || img.Pix[i+3] != 255 {
			t.Fatalf("pixel %d = %v, want opaque black", i/4, img.Pix[i:i+4])
		}
	}
}

func TestComposeAddsOverlay(t *testing.T) {
	dev := raster.NewDevice(raster.Limits{})
	sc := alloc(t, dev, 4, 4, raster.Color{0.2, 0.2, 0.2, 1})
	ov := alloc(t, dev, 4, 4, raster.Color{0.3, 0, 0.9, 1})

	var s Surface
	img := s.Compose(nil, 4, 4, sc, ov, Uniforms{})
	got := img.NRGBAAt(1, 1)
	if got.R != 128 || got.G != 51 || got.B != 255 || got.A != 255 {
		t.Errorf("pixel = %v, want {128 51 255 255}", got)
	}
}

func TestComposeFlipsRows(t *testing.T) {
	dev := raster.NewDevice(raster.Limits{})
	sc := alloc(t, dev, 2, 3, raster.Color{})
	sc.Set(0, 0, raster.Color{1, 0, 0, 1}) // bottom-left

	var s Surface
	img := s.Compose(nil, 2, 3, sc, nil, Uniforms{})
	if got := img.NRGBAAt(0, 2); got.R != 255 {
		t.Errorf("bottom-left = %v, want red", got)
	}
	if got := img.NRGBAAt(0, 0); got.R != 0 {
		t.Errorf("top-left = %v, want black", got)
	}
}

func TestComposeResamplesMismatchedLayer(t *testing.T) {
	dev := raster.NewDevice(raster.Limits{})
	ov := alloc(t, dev, 2, 2, raster.Color{0.6, 0.6, 0.6, 1})
	var s Surface
	img := s.Compose(nil, 8, 8, nil, ov, Uniforms{})
	if got := img.NRGBAAt(5, 6); got.R != 153 {
		t.Errorf("pixel = %v, want 153 grey", got)
	}
}

func TestComposeReusesDst(t *testing.T) {
	var s Surface
	dst := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	if s.Compose(dst, 4, 4, nil, nil, Uniforms{}) != dst {
		t.Error("matching dst was not reused")
	}
	if s.Compose(dst, 5, 4, nil, nil, Uniforms{}) == dst {
		t.Error("mismatched dst was reused")
	}
}

func TestComposeTonemap(t *testing.T) {
	dev := raster.NewDevice(raster.Limits{})
	sc := alloc(t, dev, 2, 2, raster.Color{0.5, 4, 0, 1})

	plain := (&Surface{}).Compose(nil, 2, 2, sc, nil, Uniforms{}).NRGBAAt(0, 0)
	mapped := (&Surface{Tonemap: true}).Compose(nil, 2, 2, sc, nil, Uniforms{}).NRGBAAt(0, 0)

	if plain.G != 255 {
		t.Errorf("untonemapped G = %d, want clamp to 255", plain.G)
	}
	if mapped.R == plain.R {
		t.Errorf("tonemap left R unchanged at %d", mapped.R)
	}
	if mapped.B != 0 {
		t.Errorf("tonemapped black B = %d, want 0", mapped.B)
	}
}

func TestComposeVignetteDarkensCorners(t *testing.T) {
	dev := raster.NewDevice(raster.Limits{})
	sc := alloc(t, dev, 32, 32, raster.Color{1, 1, 1, 1})
	v := shader.DefaultVignette()
	s := Surface{Vignette: &v}

	img := s.Compose(nil, 32, 32, sc, nil, Uniforms{Time: 1})
	centre := img.NRGBAAt(16, 16)
	corner := img.NRGBAAt(0, 0)
	if centre.R < 250 {
		t.Errorf("centre = %v, want nearly untouched white", centre)
	}
	if corner.R >= centre.R {
		t.Errorf("corner R %d not darker than centre %d", corner.R, centre.R)
	}
}

// columnRamp fills each column with its own grey level.
func columnRamp(t *testing.T, dev *raster.Device, w, h int) *raster.Buffer {
	t.Helper()
	b := alloc(t, dev, w, h, raster.Color{})
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := float64(x) / float64(w-1)
			b.Set(x, y, raster.Color{g, g, g, 1})
		}
	}
	return b
}

func TestComposeGlitchOnlyDuringBurst(t *testing.T) {
	dev := raster.NewDevice(raster.Limits{})
	sc := columnRamp(t, dev, 64, 64)
	plain := (&Surface{}).Compose(nil, 64, 64, sc, nil, Uniforms{Time: 0.5})

	calm := shader.Glitch{Delay: [2]float64{10, 10}, Duration: [2]float64{1, 1}, Strength: [2]float64{1, 1}, Bands: 24, Rate: 20}
	img := (&Surface{Glitch: &calm}).Compose(nil, 64, 64, sc, nil, Uniforms{Time: 0.5})
	for i := range plain.Pix {
		if img.Pix[i] != plain.Pix[i] {
			t.Fatalf("byte %d changed outside a burst: %d vs %d", i, img.Pix[i], plain.Pix[i])
		}
	}

	always := shader.Glitch{Duration: [2]float64{1, 1}, Strength: [2]float64{1, 1}, Bands: 24, Rate: 20}
	img = (&Surface{Glitch: &always}).Compose(nil, 64, 64, sc, nil, Uniforms{Time: 0.5})
	changed := 0
	for i := range plain.Pix {
		if img.Pix[i] != plain.Pix[i] {
			changed++
		}
	}
	if changed == 0 {
		t.Error("burst left the frame untouched")
	}
}

func TestComposeDotGrid(t *testing.T) {
	g := shader.DefaultDotGrid()
	s := Surface{DotGrid: &g}

	img := s.Compose(nil, 100, 100, nil, nil, Uniforms{Time: 1})
	if got := img.NRGBAAt(50, 45); got.R != 10 || got.G != 10 || got.B != 10 {
		t.Errorf("grid line pixel = %v, want grey 10", got)
	}
	if got := img.NRGBAAt(45, 45); got.R != 0 || got.G != 0 || got.B != 0 {
		t.Errorf("cell interior near centre = %v, want black", got)
	}
}
