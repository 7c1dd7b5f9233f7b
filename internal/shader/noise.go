package shader

import "math"

// Simplex2 is 2-D simplex noise in roughly [-1, 1] (the Ashima Arts
// permutation-polynomial variant, no lookup tables).
func Simplex2(x, y float64) float64 {
	const (
		cx = 0.211324865405187  // (3-sqrt(3))/6
		cy = 0.366025403784439  // (sqrt(3)-1)/2
		cz = -0.577350269189626 // -1 + 2*cx
		cw = 0.024390243902439  // 1/41
	)

	// First corner
	s := (x + y) * cy
	ix := math.Floor(x + s)
	iy := math.Floor(y + s)
	t := (ix + iy) * cx
	x0 := x - ix + t
	y0 := y - iy + t

	// Other corners
	var i1x, i1y float64
	if x0 > y0 {
		i1x = 1
	} else {
		i1y = 1
	}
	x1 := x0 + cx - i1x
	y1 := y0 + cx - i1y
	x2 := x0 + cz
	y2 := y0 + cz

	// Permutations
	ix = mod289(ix)
	iy = mod289(iy)
	p0 := permute(permute(iy) + ix)
	p1 := permute(permute(iy+i1y) + ix + i1x)
	p2 := permute(permute(iy+1) + ix + 1)

	return 130 * (corner(p0, x0, y0) + corner(p1, x1, y1) + corner(p2, x2, y2))
}

// corner is one simplex corner's falloff-weighted gradient contribution.
func corner(p, x, y float64) float64 {
	m := 0.5 - (x*x + y*y)
	if m <= 0 {
		return 0
	}
	m *= m
	m *= m

	gx := 2*fract(p*0.024390243902439) - 1
	h := math.Abs(gx) - 0.5
	a := gx - math.Floor(gx+0.5)
	m *= 1.79284291400159 - 0.85373472095314*(a*a+h*h)
	return m * (a*x + h*y)
}

func mod289(x float64) float64 {
	return x - math.Floor(x*(1.0/289.0))*289.0
}

func permute(x float64) float64 {
	return mod289((x*34.0 + 1.0) * x)
}

// FBM sums five octaves of simplex noise; |FBM| < 1.
func FBM(x, y float64) float64 {
	value := 0.0
	amplitude := 0.5
	frequency := 1.0
	for i := 0; i < 5; i++ {
		value += amplitude * Simplex2(x*frequency, y*frequency)
		frequency *= 2
		amplitude *= 0.5
	}
	return value
}

func hash2(x, y float64) float64 {
	return fract(math.Sin(x*127.1+y*311.7) * 43758.5453)
}

// ValueNoise is smooth value noise in [0, 1].
func ValueNoise(x, y float64) float64 {
	ix, iy := math.Floor(x), math.Floor(y)
	fx, fy := x-ix, y-iy
	fx = fx * fx * (3 - 2*fx)
	fy = fy * fy * (3 - 2*fy)

	a := hash2(ix, iy)
	b := hash2(ix+1, iy)
	c := hash2(ix, iy+1)
	d := hash2(ix+1, iy+1)
	ab := a + (b-a)*fx
	cd := c + (d-c)*fx
	return ab + (cd-ab)*fy
}

// ValueFBM sums five octaves of value noise; the result is in [0, 0.96875].
func ValueFBM(x, y float64) float64 {
	value := 0.0
	amplitude := 0.5
	for i := 0; i < 5; i++ {
		value += amplitude * ValueNoise(x, y)
		x *= 2
		y *= 2
		amplitude *= 0.5
	}
	return value
}

func fract(x float64) float64 {
	return x - math.Floor(x)
}
