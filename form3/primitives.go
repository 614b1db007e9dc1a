// Package form3 implements float32 signed distance primitives and operations
// that can be sampled into Hermite data with [hermite.Sample].
package form3

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/hermite"
)

type sphere struct {
	r float32
}

// NewSphere returns a sphere of radius r centered at the origin.
func NewSphere(r float32) (hermite.SDF3, error) {
	valid := r > 0
	if !valid {
		return nil, errors.New("zero or negative sphere radius")
	}
	return &sphere{r: r}, nil
}

func (s *sphere) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	r := s.r
	for i, p := range pos {
		dist[i] = ms3.Norm(p) - r
	}
	return nil
}

func (s *sphere) Bounds() ms3.Box {
	return ms3.Box{
		Min: ms3.Vec{X: -s.r, Y: -s.r, Z: -s.r},
		Max: ms3.Vec{X: s.r, Y: s.r, Z: s.r},
	}
}

// NewBox returns a box of dimensions x,y,z centered at the origin with
// edges rounded by round.
func NewBox(x, y, z, round float32) (hermite.SDF3, error) {
	if round < 0 || round > x/2 || round > y/2 || round > z/2 {
		return nil, errors.New("invalid box rounding value")
	} else if x <= 0 || y <= 0 || z <= 0 {
		return nil, errors.New("zero or negative box dimension")
	}
	return &box{dims: ms3.Vec{X: x, Y: y, Z: z}, round: round}, nil
}

type box struct {
	dims  ms3.Vec
	round float32
}

func (b *box) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	d := ms3.Scale(0.5, b.dims)
	r := b.round
	for i, p := range pos {
		q := ms3.AddScalar(r, ms3.Sub(ms3.AbsElem(p), d))
		dist[i] = ms3.Norm(ms3.MaxElem(q, ms3.Vec{})) + math32.Min(math32.Max(q.X, math32.Max(q.Y, q.Z)), 0.0) - r
	}
	return nil
}

func (b *box) Bounds() ms3.Box {
	return ms3.NewCenteredBox(ms3.Vec{}, b.dims)
}

// NewTorus returns a torus lying on the XY plane. greaterRadius is the distance
// from the center to the outer edge, ringRadius is the radius of the ring's cross section.
func NewTorus(greaterRadius, ringRadius float32) (hermite.SDF3, error) {
	if greaterRadius < 2*ringRadius {
		return nil, errors.New("too large torus ring radius")
	} else if greaterRadius <= 0 || ringRadius <= 0 {
		return nil, errors.New("invalid torus parameter")
	}
	return &torus{rRing: ringRadius, rGreater: greaterRadius}, nil
}

type torus struct {
	rRing, rGreater float32
}

func (t *torus) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	t1 := t.rGreater - t.rRing
	t2 := t.rRing
	for i, p := range pos {
		q1 := math32.Hypot(p.X, p.Y) - t1
		dist[i] = math32.Hypot(q1, p.Z) - t2
	}
	return nil
}

func (t *torus) Bounds() ms3.Box {
	R := t.rGreater
	return ms3.Box{
		Min: ms3.Vec{X: -R, Y: -R, Z: -t.rRing},
		Max: ms3.Vec{X: R, Y: R, Z: t.rRing},
	}
}

// NewHalfspace returns the region below the plane with unit normal n passing through point p.
// bounds is reported as the shape bounds since a half-space is unbounded.
func NewHalfspace(n, p ms3.Vec, bounds ms3.Box) (hermite.SDF3, error) {
	norm := ms3.Norm(n)
	if norm == 0 || math32.IsNaN(norm) {
		return nil, errors.New("invalid half-space normal")
	}
	size := bounds.Size()
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return nil, errors.New("half-space bounds must have positive size")
	}
	n = ms3.Scale(1/norm, n)
	return &halfspace{n: n, d: ms3.Dot(n, p), bb: bounds}, nil
}

type halfspace struct {
	n  ms3.Vec
	d  float32
	bb ms3.Box
}

func (h *halfspace) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	for i, p := range pos {
		dist[i] = ms3.Dot(h.n, p) - h.d
	}
	return nil
}

func (h *halfspace) Bounds() ms3.Box { return h.bb }
