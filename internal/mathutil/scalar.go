package mathutil

import "math"

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Clamp01 limits x to [0, 1].
func Clamp01(x float64) float64 {
	return Clamp(x, 0, 1)
}

// Mix is GLSL mix: a + (b-a)*t. t = 0 returns a exactly.
func Mix(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Smoothstep is GLSL smoothstep, including the reversed-edge form
// smoothstep(r, 0, d) used for falloffs. Equal edges act as a step.
func Smoothstep(edge0, edge1, x float64) float64 {
	if edge0 == edge1 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := Clamp01((x - edge0) / (edge1 - edge0))
	return t * t * (3 - 2*t)
}

// Step is GLSL step: 0 if x < edge, else 1.
func Step(edge, x float64) float64 {
	if x < edge {
		return 0
	}
	return 1
}

// Fract returns x - floor(x).
func Fract(x float64) float64 {
	return x - math.Floor(x)
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}
