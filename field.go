package hermite

import (
	"fmt"

	"github.com/soypat/glgl/math/ms3"
)

// Field is Hermite data sampled on a uniform grid: a signed density per sample
// where values <= 0 are inside the surface, and the surface normal at each sample.
type Field struct {
	Density Grid[float32]
	Normals Grid[ms3.Vec]
}

// NewField validates that density and normals both hold w*h*d samples and returns
// the Field wrapping them. The slices are not copied; callers must not modify them
// while the Field is in use.
func NewField(density []float32, normals []ms3.Vec, w, h, d int) (*Field, error) {
	dg, err := NewGrid(density, w, h, d)
	if err != nil {
		return nil, fmt.Errorf("density: %w", err)
	}
	ng, err := NewGrid(normals, w, h, d)
	if err != nil {
		return nil, fmt.Errorf("normals: %w", err)
	}
	return &Field{Density: dg, Normals: ng}, nil
}

// Dims returns the grid dimensions W, H and D.
func (f *Field) Dims() V3i { return f.Density.Dims() }

// Inside reports whether sample (x,y,z) is inside the surface.
func (f *Field) Inside(x, y, z int) bool {
	return f.Density.At(x, y, z) <= 0
}

// HasCells reports whether the field is large enough to hold at least one cell,
// which requires 2 or more samples along every axis.
func (f *Field) HasCells() bool {
	d := f.Dims()
	return d[0] >= 2 && d[1] >= 2 && d[2] >= 2
}
