// Package sdfxfield adapts float64 signed distance functions from
// github.com/deadsy/sdfx and gonum's r3 package so they can be sampled
// into Hermite data with [hermite.Sample].
package sdfxfield

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/hermite"
	"gonum.org/v1/gonum/spatial/r3"
)

// FromSDFX returns a [hermite.SDF3] that evaluates s point by point.
func FromSDFX(s sdf.SDF3) (hermite.SDF3, error) {
	if s == nil {
		return nil, errors.New("nil sdfx SDF3")
	}
	bb := s.BoundingBox()
	box := ms3.Box{Min: vecFromV3(bb.Min), Max: vecFromV3(bb.Max)}
	if err := checkBounds(box); err != nil {
		return nil, err
	}
	return &sdfxSDF{s: s, bb: box}, nil
}

type sdfxSDF struct {
	s  sdf.SDF3
	bb ms3.Box
}

func (s *sdfxSDF) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	for i, p := range pos {
		dist[i] = float32(s.s.Evaluate(v3.Vec{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}))
	}
	return nil
}

func (s *sdfxSDF) Bounds() ms3.Box { return s.bb }

// R3SDF is a float64 SDF over gonum's r3 vectors, the form used by
// packages built on gonum's spatial types.
type R3SDF interface {
	Evaluate(p r3.Vec) float64
	Bounds() r3.Box
}

// FromR3 returns a [hermite.SDF3] that evaluates s point by point.
func FromR3(s R3SDF) (hermite.SDF3, error) {
	if s == nil {
		return nil, errors.New("nil r3 SDF")
	}
	bb := s.Bounds()
	box := ms3.Box{Min: vecFromR3(bb.Min), Max: vecFromR3(bb.Max)}
	if err := checkBounds(box); err != nil {
		return nil, err
	}
	return &r3SDF{s: s, bb: box}, nil
}

type r3SDF struct {
	s  R3SDF
	bb ms3.Box
}

func (s *r3SDF) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	for i, p := range pos {
		dist[i] = float32(s.s.Evaluate(r3.Vec{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}))
	}
	return nil
}

func (s *r3SDF) Bounds() ms3.Box { return s.bb }

func checkBounds(bb ms3.Box) error {
	sz := bb.Size()
	if math32.IsNaN(sz.X) || math32.IsNaN(sz.Y) || math32.IsNaN(sz.Z) {
		return errors.New("NaN SDF bounds")
	}
	if sz.X < 0 || sz.Y < 0 || sz.Z < 0 {
		return errors.New("inverted SDF bounds")
	}
	return nil
}

func vecFromV3(v v3.Vec) ms3.Vec {
	return ms3.Vec{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}

func vecFromR3(v r3.Vec) ms3.Vec {
	return ms3.Vec{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}
