package hermite

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when grid data does not match its declared dimensions.
var ErrInvalidInput = errors.New("invalid input")

// Grid is a dense 3D array stored flat with linear index
//
//	x + y*W + z*W*H
//
// which is the layout density and normal generators must follow.
// Grids are read-only once constructed with NewGrid.
type Grid[T any] struct {
	data []T
	dims V3i
}

// NewGrid wraps data as a W×H×D grid. Dimensions may be smaller than 2, in which case
// the grid holds no cells, but len(data) must equal W*H*D.
func NewGrid[T any](data []T, w, h, d int) (Grid[T], error) {
	if w < 0 || h < 0 || d < 0 {
		return Grid[T]{}, fmt.Errorf("negative grid dimension %dx%dx%d: %w", w, h, d, ErrInvalidInput)
	}
	dims := V3i{w, h, d}
	if len(data) != dims.Prod() {
		return Grid[T]{}, fmt.Errorf("grid data length %d does not match %dx%dx%d=%d: %w", len(data), w, h, d, dims.Prod(), ErrInvalidInput)
	}
	return Grid[T]{data: data, dims: dims}, nil
}

// Dims returns the W, H and D dimensions of the grid.
func (g Grid[T]) Dims() V3i { return g.dims }

// Len returns the amount of samples in the grid.
func (g Grid[T]) Len() int { return len(g.data) }

// Contains reports whether (x,y,z) addresses a sample within the grid.
func (g Grid[T]) Contains(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < g.dims[0] && y < g.dims[1] && z < g.dims[2]
}

// Index returns the linear index of (x,y,z). It panics if the sample is out of bounds.
func (g Grid[T]) Index(x, y, z int) int {
	if !g.Contains(x, y, z) {
		panic(fmt.Sprintf("grid index (%d,%d,%d) out of bounds %v", x, y, z, g.dims))
	}
	return x + y*g.dims[0] + z*g.dims[0]*g.dims[1]
}

// At returns the sample at (x,y,z).
func (g Grid[T]) At(x, y, z int) T {
	return g.data[g.Index(x, y, z)]
}

// AtV returns the sample at integer position v.
func (g Grid[T]) AtV(v V3i) T {
	return g.At(v[0], v[1], v[2])
}

// Cells returns the amount of cells along each axis. A cell is addressed by
// its minimum corner sample so there is one less cell than samples per axis.
func (g Grid[T]) Cells() V3i {
	c := g.dims.SubScalar(1)
	for i := range c {
		if c[i] < 0 {
			c[i] = 0
		}
	}
	return c
}
