package form3

import (
	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/hermite"
	"github.com/soypat/hermite/internal/d3"
)

// Union joins the shapes of two SDFs into one.
func Union(s1, s2 hermite.SDF3) hermite.SDF3 {
	if s1 == nil || s2 == nil {
		panic("nil argument to Union")
	}
	return &union{s1: s1, s2: s2}
}

type union struct {
	s1, s2 hermite.SDF3
}

func (u *union) Bounds() ms3.Box {
	b1, b2 := u.s1.Bounds(), u.s2.Bounds()
	return ms3.Box{Min: d3.MinElem(b1.Min, b2.Min), Max: d3.MaxElem(b1.Max, b2.Max)}
}

func (u *union) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	return evalBinary(u.s1, u.s2, pos, dist, userData, math32.Min)
}

// Difference is the SDF difference of a-b.
func Difference(a, b hermite.SDF3) hermite.SDF3 {
	if a == nil || b == nil {
		panic("nil argument to Difference")
	}
	return &diff{s1: a, s2: b}
}

type diff struct {
	s1, s2 hermite.SDF3
}

func (d *diff) Bounds() ms3.Box { return d.s1.Bounds() }

func (d *diff) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	return evalBinary(d.s1, d.s2, pos, dist, userData, func(a, b float32) float32 {
		return math32.Max(a, -b)
	})
}

// Intersection is the SDF intersection of a ^ b.
func Intersection(a, b hermite.SDF3) hermite.SDF3 {
	if a == nil || b == nil {
		panic("nil argument to Intersection")
	}
	return &intersect{s1: a, s2: b}
}

type intersect struct {
	s1, s2 hermite.SDF3
}

func (u *intersect) Bounds() ms3.Box {
	b1, b2 := u.s1.Bounds(), u.s2.Bounds()
	return ms3.Box{Min: d3.MaxElem(b1.Min, b2.Min), Max: d3.MinElem(b1.Max, b2.Max)}
}

func (u *intersect) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	return evalBinary(u.s1, u.s2, pos, dist, userData, math32.Max)
}

func evalBinary(s1, s2 hermite.SDF3, pos []ms3.Vec, dist []float32, userData any, op func(a, b float32) float32) error {
	vp, err := hermite.GetVecPool(userData)
	if err != nil {
		return err
	}
	d2 := vp.Float.Acquire(len(dist))
	defer vp.Float.Release(d2)
	err = s1.Evaluate(pos, dist, userData)
	if err != nil {
		return err
	}
	err = s2.Evaluate(pos, d2, userData)
	if err != nil {
		return err
	}
	for i := range dist {
		dist[i] = op(dist[i], d2[i])
	}
	return nil
}

// Translate moves the SDF s in space by the vector to.
func Translate(s hermite.SDF3, to ms3.Vec) hermite.SDF3 {
	if s == nil {
		panic("nil argument to Translate")
	}
	return &translate{s: s, p: to}
}

type translate struct {
	s hermite.SDF3
	p ms3.Vec
}

func (t *translate) Bounds() ms3.Box {
	b := t.s.Bounds()
	return ms3.Box{Min: ms3.Add(b.Min, t.p), Max: ms3.Add(b.Max, t.p)}
}

func (t *translate) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	vp, err := hermite.GetVecPool(userData)
	if err != nil {
		return err
	}
	transformed := vp.V3.Acquire(len(pos))
	defer vp.V3.Release(transformed)
	for i, p := range pos {
		transformed[i] = ms3.Sub(p, t.p)
	}
	return t.s.Evaluate(transformed, dist, userData)
}
