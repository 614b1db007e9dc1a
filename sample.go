package hermite

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
)

// GridBox returns the box spanning sample positions 0..dims-1 along each axis so that
// sampling with it places sample (x,y,z) at position (x,y,z).
func GridBox(dims V3i) ms3.Box {
	return ms3.Box{Max: dims.SubScalar(1).Vec()}
}

// Sample evaluates s on a w×h×d lattice spanning bb, sample (0,0,0) at bb.Min and
// sample (w-1,h-1,d-1) at bb.Max. Normals are the normalized SDF gradient
// approximated by central differences with a step of a quarter of the smallest
// lattice spacing. Samples with a vanishing gradient get a zero normal.
//
// userData is passed on to s.Evaluate. If nil a new VecPool is used.
func Sample(s SDF3, bb ms3.Box, w, h, d int, userData any) (*Field, error) {
	if w < 2 || h < 2 || d < 2 {
		return nil, errors.New("sampling requires at least 2 samples per axis")
	}
	size := bb.Size()
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return nil, errors.New("sampling box must have positive size")
	}
	if userData == nil {
		userData = &VecPool{}
	}
	spacing := ms3.DivElem(size, V3i{w - 1, h - 1, d - 1}.Vec())
	step := 0.25 * math32.Min(spacing.X, math32.Min(spacing.Y, spacing.Z))

	dims := V3i{w, h, d}
	density := make([]float32, dims.Prod())
	normals := make([]ms3.Vec, dims.Prod())
	slab := w * h
	pos := make([]ms3.Vec, slab)
	offset := make([]ms3.Vec, slab)
	dplus := make([]float32, slab)
	dminus := make([]float32, slab)
	axes := [3]ms3.Vec{{X: step}, {Y: step}, {Z: step}}
	for z := 0; z < d; z++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				ijk := V3i{x, y, z}.Vec()
				pos[x+y*w] = ms3.Add(bb.Min, ms3.MulElem(ijk, spacing))
			}
		}
		dz := density[z*slab : (z+1)*slab]
		err := s.Evaluate(pos, dz, userData)
		if err != nil {
			return nil, fmt.Errorf("evaluating slab z=%d: %w", z, err)
		}
		nz := normals[z*slab : (z+1)*slab]
		for iaxis, ax := range axes {
			for i := range pos {
				offset[i] = ms3.Add(pos[i], ax)
			}
			if err = s.Evaluate(offset, dplus, userData); err != nil {
				return nil, err
			}
			for i := range pos {
				offset[i] = ms3.Sub(pos[i], ax)
			}
			if err = s.Evaluate(offset, dminus, userData); err != nil {
				return nil, err
			}
			for i := range nz {
				g := dplus[i] - dminus[i]
				switch iaxis {
				case 0:
					nz[i].X = g
				case 1:
					nz[i].Y = g
				case 2:
					nz[i].Z = g
				}
			}
		}
		for i := range nz {
			norm := ms3.Norm(nz[i])
			if norm == 0 {
				continue
			}
			nz[i] = ms3.Scale(1/norm, nz[i])
		}
	}
	return NewField(density, normals, w, h, d)
}
