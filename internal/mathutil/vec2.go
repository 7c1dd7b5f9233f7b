package mathutil

import "math"

// Vec2 is a 2-component vector, used for UV and normalized cursor coordinates.
type Vec2 [2]float64

func (a Vec2) Add(b Vec2) Vec2 {
	return Vec2{a[0] + b[0], a[1] + b[1]}
}

func (a Vec2) Sub(b Vec2) Vec2 {
	return Vec2{a[0] - b[0], a[1] - b[1]}
}

func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{v[0] * s, v[1] * s}
}

func (a Vec2) Dot(b Vec2) float64 {
	return a[0]*b[0] + a[1]*b[1]
}

func (v Vec2) Len() float64 {
	return math.Hypot(v[0], v[1])
}

// Dist returns |a - b|.
func (a Vec2) Dist(b Vec2) float64 {
	return math.Hypot(a[0]-b[0], a[1]-b[1])
}

// AddScalar adds s to both components (GLSL `v + s`).
func (v Vec2) AddScalar(s float64) Vec2 {
	return Vec2{v[0] + s, v[1] + s}
}
