package raster

import "testing"

func TestRasterizeTriangleDepthTest(t *testing.T) {
	d := NewDevice(Limits{})
	dst, _ := d.Alloc(16, 16, FilterLinear)
	depth := NewDepthBuffer(16, 16)

	far := Color{1, 0, 0, 1}
	near := Color{0, 1, 0, 1}
	RasterizeTriangle(dst, depth, Vertex{0, 0, 0.5}, Vertex{16, 0, 0.5}, Vertex{0, 16, 0.5}, near)
	RasterizeTriangle(dst, depth, Vertex{0, 0, 0.2}, Vertex{16, 0, 0.2}, Vertex{0, 16, 0.2}, far)

	if got := dst.At(2, 2); got != near {
		t.Errorf("At(2,2) = %v, want nearer triangle colour %v", got, near)
	}
	if got := dst.At(15, 15); got != (Color{}) {
		t.Errorf("At(15,15) = %v, want untouched", got)
	}
}

func TestRasterizeTriangleDegenerate(t *testing.T) {
	d := NewDevice(Limits{})
	dst, _ := d.Alloc(8, 8, FilterLinear)
	depth := NewDepthBuffer(8, 8)
	RasterizeTriangle(dst, depth, Vertex{1, 1, 1}, Vertex{4, 4, 1}, Vertex{7, 7, 1}, Color{1, 1, 1, 1})
	if !dst.IsZero() {
		t.Error("collinear triangle wrote pixels")
	}
}
