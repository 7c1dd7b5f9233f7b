package scene

import (
	"math"

	"scroll-trail-renderer/internal/mathutil"
)

// Geometry is an indexed triangle list in model space.
type Geometry struct {
	Vertices  []mathutil.Vec3
	Triangles [][3]int
}

// Cube returns an axis-aligned cube of the given edge length centred on the
// origin.
func Cube(size float64) Geometry {
	h := size / 2
	g := Geometry{}
	for i := 0; i < 8; i++ {
		x, y, z := -h, -h, -h
		if i&1 != 0 {
			x = h
		}
		if i&2 != 0 {
			y = h
		}
		if i&4 != 0 {
			z = h
		}
		g.Vertices = append(g.Vertices, mathutil.Vec3{x, y, z})
	}
	faces := [6][4]int{
		{0, 1, 3, 2}, // -Z
		{4, 6, 7, 5}, // +Z
		{0, 4, 5, 1}, // -Y
		{2, 3, 7, 6}, // +Y
		{0, 2, 6, 4}, // -X
		{1, 5, 7, 3}, // +X
	}
	for _, f := range faces {
		g.Triangles = append(g.Triangles, [3]int{f[0], f[1], f[2]}, [3]int{f[0], f[2], f[3]})
	}
	return g
}

// Torus returns a ring of major radius r1 and tube radius r2 around the Y
// axis. segments is clamped to at least 3.
func Torus(r1, r2 float64, segments int) Geometry {
	if segments < 3 {
		segments = 3
	}
	sides := max(segments/2, 3)
	g := Geometry{}
	for i := 0; i < segments; i++ {
		a := 2 * math.Pi * float64(i) / float64(segments)
		ca, sa := math.Cos(a), math.Sin(a)
		for j := 0; j < sides; j++ {
			b := 2 * math.Pi * float64(j) / float64(sides)
			r := r1 + r2*math.Cos(b)
			g.Vertices = append(g.Vertices, mathutil.Vec3{r * ca, r2 * math.Sin(b), r * sa})
		}
	}
	for i := 0; i < segments; i++ {
		in := (i + 1) % segments
		for j := 0; j < sides; j++ {
			jn := (j + 1) % sides
			a, b := i*sides+j, in*sides+j
			c, d := in*sides+jn, i*sides+jn
			g.Triangles = append(g.Triangles, [3]int{a, b, c}, [3]int{a, c, d})
		}
	}
	return g
}

// Plane returns a square in the XZ plane.
func Plane(size float64) Geometry {
	h := size / 2
	return Geometry{
		Vertices: []mathutil.Vec3{
			{-h, 0, -h}, {h, 0, -h}, {h, 0, h}, {-h, 0, h},
		},
		Triangles: [][3]int{{0, 1, 2}, {0, 2, 3}},
	}
}
