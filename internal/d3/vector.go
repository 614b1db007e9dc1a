package d3

import (
	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
)

// float32 vector routines on top of ms3 shared by the qef and render packages.

// Elem returns a vector with all components set to f.
func Elem(f float32) ms3.Vec {
	return ms3.Vec{X: f, Y: f, Z: f}
}

// MinElem returns the element-wise minimum of a and b.
func MinElem(a, b ms3.Vec) ms3.Vec {
	return ms3.Vec{X: math32.Min(a.X, b.X), Y: math32.Min(a.Y, b.Y), Z: math32.Min(a.Z, b.Z)}
}

// MaxElem returns the element-wise maximum of a and b.
func MaxElem(a, b ms3.Vec) ms3.Vec {
	return ms3.Vec{X: math32.Max(a.X, b.X), Y: math32.Max(a.Y, b.Y), Z: math32.Max(a.Z, b.Z)}
}

// EqualWithin reports whether all components of a and b differ by at most tol.
func EqualWithin(a, b ms3.Vec, tol float32) bool {
	return math32.Abs(a.X-b.X) <= tol &&
		math32.Abs(a.Y-b.Y) <= tol &&
		math32.Abs(a.Z-b.Z) <= tol
}

// Clamp01 clamps each component of v to [0,1].
func Clamp01(v ms3.Vec) ms3.Vec {
	return ms3.ClampElem(v, ms3.Vec{}, Elem(1))
}

// InUnitCube reports whether v lies within [0,1]³, bounds inclusive.
func InUnitCube(v ms3.Vec) bool {
	return v.X >= 0 && v.Y >= 0 && v.Z >= 0 &&
		v.X <= 1 && v.Y <= 1 && v.Z <= 1
}

// IsFinite reports whether no component of v is NaN or infinite.
func IsFinite(v ms3.Vec) bool {
	return !(math32.IsNaN(v.X) || math32.IsInf(v.X, 0) ||
		math32.IsNaN(v.Y) || math32.IsInf(v.Y, 0) ||
		math32.IsNaN(v.Z) || math32.IsInf(v.Z, 0))
}

// FaceNormal returns the unit normal of triangle (a,b,c) following the right hand
// rule, (b-a)×(c-a). Degenerate triangles yield the zero vector.
func FaceNormal(a, b, c ms3.Vec) ms3.Vec {
	n := ms3.Cross(ms3.Sub(b, a), ms3.Sub(c, a))
	norm := ms3.Norm(n)
	if norm == 0 {
		return ms3.Vec{}
	}
	return ms3.Scale(1/norm, n)
}

// Component returns the i'th component of v, i in 0..2.
func Component(v ms3.Vec, i int) float32 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	case 2:
		return v.Z
	}
	panic("bad vector component index")
}
