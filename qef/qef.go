// Package qef solves quadratic error functions of the form
//
//	E(p) = Σ (nᵢ·p - dᵢ)²
//
// through their 3×3 normal equations AᵗA·p = Aᵗb using Cramer's rule
// with closed form determinants. It is the vertex placement kernel of
// dual contouring where each plane is Hermite data sampled on a cell edge.
package qef

import (
	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
)

// Epsilon is the float32 machine epsilon (2⁻²³). Systems whose normal
// matrix determinant magnitude is at or below Epsilon have no solution.
const Epsilon = 0x1p-23

// Plane is the constraint N·p = D on an unknown point p.
type Plane struct {
	N ms3.Vec
	D float32
}

// NewPlane returns the plane with normal n passing through point p.
func NewPlane(n, p ms3.Vec) Plane {
	return Plane{N: n, D: ms3.Dot(n, p)}
}

// Residual returns N·p - D, the signed distance of p to the plane when N is unit length.
func (pl Plane) Residual(p ms3.Vec) float32 {
	return ms3.Dot(pl.N, p) - pl.D
}

// QEF accumulates planes into the normal equations without storing them.
// The zero value is an empty QEF ready to use.
type QEF struct {
	ata [3][3]float32
	atb [3]float32
	n   int
}

// Add accumulates plane pl into the normal equations.
func (q *QEF) Add(pl Plane) {
	n := [3]float32{pl.N.X, pl.N.Y, pl.N.Z}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			q.ata[i][j] += n[i] * n[j]
		}
		q.atb[i] += n[i] * pl.D
	}
	q.n++
}

// AddWeighted accumulates plane pl scaled by w, that is the constraint (wN)·p = wD.
// Its contribution to the error function is weighted by w².
func (q *QEF) AddWeighted(pl Plane, w float32) {
	q.Add(Plane{N: ms3.Scale(w, pl.N), D: w * pl.D})
}

// Len returns the amount of planes accumulated.
func (q *QEF) Len() int { return q.n }

// Reset empties the QEF so it may be reused.
func (q *QEF) Reset() { *q = QEF{} }

// Solve returns the point minimizing the accumulated error. ok is false when
// the normal matrix is singular, which happens with fewer than three linearly
// independent plane normals. No fallback point is chosen on failure.
func (q *QEF) Solve() (p ms3.Vec, ok bool) {
	x, ok := solve3(q.ata, q.atb)
	if !ok {
		return ms3.Vec{}, false
	}
	return ms3.Vec{X: x[0], Y: x[1], Z: x[2]}, true
}

// Solve is shorthand for accumulating planes into a QEF and solving it.
func Solve(planes []Plane) (ms3.Vec, bool) {
	var q QEF
	for i := range planes {
		q.Add(planes[i])
	}
	return q.Solve()
}

// Det3 returns the determinant of the 3×3 matrix m by the rule of Sarrus.
func Det3(m [3][3]float32) float32 {
	return m[0][0]*m[1][1]*m[2][2] + m[0][1]*m[1][2]*m[2][0] + m[0][2]*m[1][0]*m[2][1] -
		m[0][2]*m[1][1]*m[2][0] - m[0][1]*m[1][0]*m[2][2] - m[0][0]*m[1][2]*m[2][1]
}

// solve3 solves m·x = b by Cramer's rule.
func solve3(m [3][3]float32, b [3]float32) (x [3]float32, ok bool) {
	det := Det3(m)
	if math32.Abs(det) <= Epsilon || math32.IsNaN(det) {
		return x, false
	}
	for i := 0; i < 3; i++ {
		mi := m
		for j := 0; j < 3; j++ {
			mi[j][i] = b[j] // Replace column i with b.
		}
		x[i] = Det3(mi) / det
	}
	return x, true
}
