// Package scene defines what the compositor renders: opaque scenes drawn
// into an offscreen target from a camera, plus a few reference scenes.
package scene

import (
	"errors"
	"math"

	"scroll-trail-renderer/internal/mathutil"
	"scroll-trail-renderer/internal/raster"
)

// ErrMissingTexture is returned by Image when its resolver has no texture.
var ErrMissingTexture = errors.New("scene: texture not found")

// Scene renders itself into dst. dst has already been cleared to the slot
// background. t is the frame time in seconds.
type Scene interface {
	Render(dst *raster.Buffer, cam Camera, t float64) error
}

// Slot is one registered scene with its own camera and clear colour.
type Slot struct {
	Name       string
	Scene      Scene
	Camera     Camera
	Background raster.Color
}

// Camera is a perspective camera looking down its local -Z axis.
type Camera struct {
	Position mathutil.Vec3
	Yaw      float64 // radians around +Y
	Pitch    float64 // radians around +X
	FOV      float64 // vertical field of view in degrees
}

const nearPlane = 0.05

// DefaultCamera sits on +Z looking at the origin.
func DefaultCamera() Camera {
	return Camera{Position: mathutil.Vec3{0, 0, 4}, FOV: 50}
}

// View returns the world-to-view rotation.
func (c Camera) View() mathutil.Mat3 {
	return mathutil.Mat3Mul(mathutil.RotY(c.Yaw), mathutil.RotX(c.Pitch)).Transpose()
}

// ToView transforms a world-space point into view space.
func (c Camera) ToView(p mathutil.Vec3) mathutil.Vec3 {
	return c.View().MulVec3(p.Sub(c.Position))
}

// Project maps a view-space point onto a w×h target with the origin at the
// bottom left. ok is false for points at or behind the near plane.
func (c Camera) Project(v mathutil.Vec3, w, h int) (vert raster.Vertex, ok bool) {
	z := -v[2]
	if z <= nearPlane {
		return raster.Vertex{}, false
	}
	fov := c.FOV
	if fov <= 0 || fov >= 180 {
		fov = 50
	}
	f := 1 / math.Tan(mathutil.Deg2Rad(fov)/2)
	aspect := float64(w) / float64(h)
	ndcX := v[0] * f / aspect / z
	ndcY := v[1] * f / z
	return raster.Vertex{
		X:     (ndcX*0.5 + 0.5) * float64(w),
		Y:     (ndcY*0.5 + 0.5) * float64(h),
		Depth: 1 / z,
	}, true
}

// Solid fills the target with one colour.
type Solid struct {
	Color raster.Color
}

func (s Solid) Render(dst *raster.Buffer, _ Camera, _ float64) error {
	dst.Clear(s.Color)
	return nil
}
