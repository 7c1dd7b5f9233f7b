package scene

import (
	"fmt"
	"sync"

	"scroll-trail-renderer/internal/mathutil"
	"scroll-trail-renderer/internal/raster"
)

// Mesh is a flat-shaded, software-rasterized model.
type Mesh struct {
	Geometry Geometry
	Color    raster.Color
	Spin     mathutil.Vec3 // radians per second around X, Y, Z
	Offset   mathutil.Vec3 // world position of the model origin
	Light    raster.LightConfig

	mu    sync.Mutex
	depth []float64
}

// NewMesh returns a mesh lit by the default light rig.
func NewMesh(g Geometry, c raster.Color) *Mesh {
	return &Mesh{Geometry: g, Color: c, Light: raster.DefaultLightConfig()}
}

// Render rasterizes every triangle in front of the camera. The depth scratch
// buffer is reused across frames and regrown on resize.
func (m *Mesh) Render(dst *raster.Buffer, cam Camera, t float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := dst.Width * dst.Height
	if len(m.depth) != n {
		m.depth = raster.NewDepthBuffer(dst.Width, dst.Height)
	} else {
		clear(m.depth)
	}

	model := mathutil.Mat3Mul(mathutil.RotY(m.Spin[1]*t),
		mathutil.Mat3Mul(mathutil.RotX(m.Spin[0]*t), mathutil.RotZ(m.Spin[2]*t)))

	view := make([]mathutil.Vec3, len(m.Geometry.Vertices))
	for i, p := range m.Geometry.Vertices {
		view[i] = cam.ToView(model.MulVec3(p).Add(m.Offset))
	}

	for ti, tri := range m.Geometry.Triangles {
		for _, vi := range tri {
			if vi < 0 || vi >= len(view) {
				return fmt.Errorf("scene: triangle %d references vertex %d of %d", ti, vi, len(view))
			}
		}
		a, b, c := view[tri[0]], view[tri[1]], view[tri[2]]
		normal := b.Sub(a).Cross(c.Sub(a)).Normalize()
		if normal == (mathutil.Vec3{}) {
			continue
		}

		va, okA := cam.Project(a, dst.Width, dst.Height)
		vb, okB := cam.Project(b, dst.Width, dst.Height)
		vc, okC := cam.Project(c, dst.Width, dst.Height)
		if !okA || !okB || !okC {
			continue
		}

		shade := m.Light.ComputeShade(normal)
		col := raster.Color{m.Color[0] * shade, m.Color[1] * shade, m.Color[2] * shade, m.Color[3]}
		raster.RasterizeTriangle(dst, m.depth, va, vb, vc, col)
	}
	return nil
}
