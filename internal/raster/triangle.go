package raster

import "math"

// Vertex is a projected vertex: X, Y in pixels with the origin at the bottom
// left, Depth the reciprocal view distance (larger is nearer, 0 is infinity).
type Vertex struct {
	X, Y  float64
	Depth float64
}

// NewDepthBuffer returns a cleared depth buffer for a w×h target.
func NewDepthBuffer(w, h int) []float64 {
	return make([]float64, w*h)
}

// RasterizeTriangle fills a flat-coloured triangle into dst with a depth test
// against depth (len = W*H, cleared to 0). Winding does not matter.
//
// Hot path: no allocation in the inner loop.
func RasterizeTriangle(dst *Buffer, depth []float64, v0, v1, v2 Vertex, c Color) {
	w, h := dst.Width, dst.Height
	if len(depth) < w*h {
		return
	}

	x0, y0, z0 := v0.X, v0.Y, v0.Depth
	x1, y1, z1 := v1.X, v1.Y, v1.Depth
	x2, y2, z2 := v2.X, v2.Y, v2.Depth

	// Bounding box
	minX := int(math.Floor(math.Min(math.Min(x0, x1), x2)))
	maxX := int(math.Ceil(math.Max(math.Max(x0, x1), x2)))
	minY := int(math.Floor(math.Min(math.Min(y0, y1), y2)))
	maxY := int(math.Ceil(math.Max(math.Max(y0, y1), y2)))
	if minX < 0 {
		minX = 0
	}
	if maxX > w-1 {
		maxX = w - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY > h-1 {
		maxY = h - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup
	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	r, g, b, a := float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])
	pix := dst.Pix

	for py := minY; py <= maxY; py++ {
		cy := float64(py) + 0.5
		for px := minX; px <= maxX; px++ {
			cx := float64(px) + 0.5
			l0 := (dy12*(cx-x2) + dx21*(cy-y2)) * invDet
			l1 := (dy20*(cx-x2) + dx02*(cy-y2)) * invDet
			l2 := 1 - l0 - l1
			if l0 < 0 || l1 < 0 || l2 < 0 {
				continue
			}
			z := l0*z0 + l1*z1 + l2*z2
			di := py*w + px
			if z <= depth[di] {
				continue
			}
			depth[di] = z
			i := di * 4
			pix[i] = r
			pix[i+1] = g
			pix[i+2] = b
			pix[i+3] = a
		}
	}
}
