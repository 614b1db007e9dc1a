package render

import (
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/hermite/internal/d3"
)

// Mesh is a triangle soup. Positions holds three vertices per triangle and Normals
// holds the triangle's flat normal once per vertex, so both always have equal length.
// Vertices are not shared between triangles.
type Mesh struct {
	Positions []ms3.Vec
	Normals   []ms3.Vec
}

// AppendTriangle appends triangle (a,b,c) and its flat normal. Degenerate
// triangles are appended with a zero normal.
func (m *Mesh) AppendTriangle(a, b, c ms3.Vec) {
	n := d3.FaceNormal(a, b, c)
	m.Positions = append(m.Positions, a, b, c)
	m.Normals = append(m.Normals, n, n, n)
}

// Append appends all triangles of other to m.
func (m *Mesh) Append(other Mesh) {
	m.Positions = append(m.Positions, other.Positions...)
	m.Normals = append(m.Normals, other.Normals...)
}

// Len returns the amount of triangles in the mesh.
func (m Mesh) Len() int { return len(m.Positions) / 3 }

// Triangle returns the i'th triangle of the mesh.
func (m Mesh) Triangle(i int) ms3.Triangle {
	return ms3.Triangle{m.Positions[3*i], m.Positions[3*i+1], m.Positions[3*i+2]}
}

// Normal returns the flat normal of the i'th triangle.
func (m Mesh) Normal(i int) ms3.Vec { return m.Normals[3*i] }

// Triangles returns the mesh triangles as a newly allocated slice.
func (m Mesh) Triangles() []ms3.Triangle {
	t := make([]ms3.Triangle, m.Len())
	for i := range t {
		t[i] = m.Triangle(i)
	}
	return t
}

// Flat returns positions and normals as float32 arrays holding 3 components
// per vertex. Both arrays have a length that is a multiple of 9.
func (m Mesh) Flat() (positions, normals []float32) {
	return flatten(m.Positions), flatten(m.Normals)
}

func flatten(v []ms3.Vec) []float32 {
	f := make([]float32, 0, 3*len(v))
	for _, p := range v {
		f = append(f, p.X, p.Y, p.Z)
	}
	return f
}

// ToBox maps mesh positions from the [0,1]³ model space into bb and
// returns the result as a new Mesh. Normals are recomputed for the new positions.
func (m Mesh) ToBox(bb ms3.Box) Mesh {
	size := bb.Size()
	result := Mesh{
		Positions: make([]ms3.Vec, 0, len(m.Positions)),
		Normals:   make([]ms3.Vec, 0, len(m.Normals)),
	}
	for i := 0; i < m.Len(); i++ {
		t := m.Triangle(i)
		for j := range t {
			t[j] = ms3.Add(bb.Min, ms3.MulElem(t[j], size))
		}
		result.AppendTriangle(t[0], t[1], t[2])
	}
	return result
}
