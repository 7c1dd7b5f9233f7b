package mathutil

import (
	"math"
	"testing"
)

func TestSmoothstep(t *testing.T) {
	tests := []struct {
		name            string
		edge0, edge1, x float64
		want            float64
	}{
		{"below", 0, 1, -1, 0},
		{"above", 0, 1, 2, 1},
		{"middle", 0, 1, 0.5, 0.5},
		{"reversed inside", 0.1, 0, 0, 1},
		{"reversed outside", 0.1, 0, 0.2, 0},
		{"equal edges below", 0.5, 0.5, 0.4, 0},
		{"equal edges above", 0.5, 0.5, 0.5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Smoothstep(tt.edge0, tt.edge1, tt.x); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Smoothstep(%v, %v, %v) = %v, want %v", tt.edge0, tt.edge1, tt.x, got, tt.want)
			}
		})
	}
}

func TestMixEndpointsExact(t *testing.T) {
	a, b := 0.3, 0.7
	if got := Mix(a, b, 0); got != a {
		t.Errorf("Mix(a, b, 0) = %v, want %v", got, a)
	}
	if got := Mix(a, b, 1); math.Abs(got-b) > 1e-15 {
		t.Errorf("Mix(a, b, 1) = %v, want %v", got, b)
	}
}

func TestRotationTransposeIsInverse(t *testing.T) {
	r := Mat3Mul(RotX(0.4), RotY(-1.1))
	v := Vec3{1, 2, 3}
	got := r.Transpose().MulVec3(r.MulVec3(v))
	for i := range v {
		if math.Abs(got[i]-v[i]) > 1e-12 {
			t.Fatalf("R^T R v = %v, want %v", got, v)
		}
	}
}

func TestVec2Dist(t *testing.T) {
	if got := (Vec2{0, 0}).Dist(Vec2{3, 4}); got != 5 {
		t.Errorf("Dist = %v, want 5", got)
	}
}
