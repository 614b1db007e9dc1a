package render_test

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"runtime"
	"strconv"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/hermite"
	"github.com/soypat/hermite/form3"
	"github.com/soypat/hermite/internal/d3"
	"github.com/soypat/hermite/render"
)

// sphereField returns an n³ field of the sphere of radius r centered in the grid.
func sphereField(t testing.TB, n int, r float32) *hermite.Field {
	c := float32(n) / 2
	center := d3.Elem(c)
	density := make([]float32, n*n*n)
	normals := make([]ms3.Vec, n*n*n)
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				i := x + y*n + z*n*n
				rel := ms3.Sub(hermite.V3i{x, y, z}.Vec(), center)
				density[i] = ms3.Norm(rel) - r
				normals[i] = ms3.Unit(rel)
			}
		}
	}
	f, err := hermite.NewField(density, normals, n, n, n)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func axisField(t testing.TB, n, axis int) *hermite.Field {
	normal := ms3.Vec{}
	switch axis {
	case 0:
		normal.X = 1
	case 1:
		normal.Y = 1
	case 2:
		normal.Z = 1
	}
	density := make([]float32, n*n*n)
	normals := make([]ms3.Vec, n*n*n)
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				i := x + y*n + z*n*n
				density[i] = float32(hermite.V3i{x, y, z}[axis] - n/2)
				normals[i] = normal
			}
		}
	}
	f, err := hermite.NewField(density, normals, n, n, n)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestDualContourPlanes(t *testing.T) {
	const n = 8
	for axis := 0; axis < 3; axis++ {
		f := axisField(t, n, axis)
		m, err := render.DualContour(f, render.DefaultConfig())
		if err != nil {
			t.Fatal(err)
		}
		want := 2 * (n - 2) * (n - 2)
		if m.Len() != want {
			t.Fatalf("axis %d: got %d triangles. want %d", axis, m.Len(), want)
		}
		var wantN ms3.Vec
		switch axis {
		case 0:
			wantN.X = 1
		case 1:
			wantN.Y = 1
		case 2:
			wantN.Z = 1
		}
		for i, p := range m.Positions {
			if d3.Component(p, axis) != 0.5 {
				t.Fatalf("axis %d: vertex %v off plane", axis, p)
			}
			if !d3.EqualWithin(m.Normals[i], wantN, 1e-6) {
				t.Fatalf("axis %d: got normal %v. want %v", axis, m.Normals[i], wantN)
			}
		}
	}
}

func TestDualContourUniform(t *testing.T) {
	const n = 5
	for _, v := range []float32{-1, 0, 1} {
		density := make([]float32, n*n*n)
		for i := range density {
			density[i] = v
		}
		pos, norms, err := render.DualContourArrays(density, make([]ms3.Vec, n*n*n), n, n, n)
		if err != nil {
			t.Fatal(err)
		}
		if len(pos) != 0 || len(norms) != 0 {
			t.Errorf("uniform %g: got %d vertices. want none", v, len(pos))
		}
	}
}

func TestDualContourInvalid(t *testing.T) {
	_, _, err := render.DualContourArrays(make([]float32, 7), make([]ms3.Vec, 8), 2, 2, 2)
	if !errors.Is(err, hermite.ErrInvalidInput) {
		t.Errorf("short density: got %v. want ErrInvalidInput", err)
	}
	_, _, err = render.DualContourArrays(make([]float32, 8), make([]ms3.Vec, 4), 2, 2, 2)
	if !errors.Is(err, hermite.ErrInvalidInput) {
		t.Errorf("short normals: got %v. want ErrInvalidInput", err)
	}
	_, _, err = render.DualContourArrays(nil, nil, -1, 2, 2)
	if !errors.Is(err, hermite.ErrInvalidInput) {
		t.Errorf("negative dimension: got %v. want ErrInvalidInput", err)
	}
	for _, dims := range []hermite.V3i{{0, 0, 0}, {1, 4, 4}, {4, 1, 4}, {4, 4, 1}} {
		nt := dims.Prod()
		density := make([]float32, nt)
		for i := range density {
			density[i] = float32(i%2) - 0.5
		}
		pos, norms, err := render.DualContourArrays(density, make([]ms3.Vec, nt), dims[0], dims[1], dims[2])
		if err != nil || len(pos) != 0 || len(norms) != 0 {
			t.Errorf("dims %v: got %d vertices, err %v. want empty output", dims, len(pos), err)
		}
	}
	f := sphereField(t, 8, 2)
	_, err = render.DualContour(f, render.Config{Bias: -1})
	if err == nil {
		t.Error("expected error for negative bias")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = render.DualContourContext(ctx, f, render.Config{Workers: 4})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v. want context.Canceled", err)
	}
}

func TestDualContourSphere(t *testing.T) {
	n, r := 64, float32(16)
	if !testing.Short() {
		n, r = 128, 32
	}
	f := sphereField(t, n, r)
	m, err := render.DualContour(f, render.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() == 0 {
		t.Fatal("no triangles")
	}
	pos, norms := m.Flat()
	if len(pos) != len(norms) || len(pos)%9 != 0 {
		t.Fatalf("bad flat lengths %d %d", len(pos), len(norms))
	}
	center := d3.Elem(0.5)
	scale := float32(n)
	for _, p := range m.Positions {
		if !d3.InUnitCube(p) {
			t.Fatalf("vertex %v out of unit cube", p)
		}
		dist := ms3.Norm(ms3.Sub(p, center))*scale - r
		if math32.Abs(dist) > 1 {
			t.Fatalf("vertex %v is %g cells off the sphere", p, dist)
		}
	}
	// Every crossed grid edge makes a quad and a unit sphere patch crosses 1.5 edges on average.
	wantTriangles := 2 * 1.5 * 4 * math32.Pi * r * r
	if got := float32(m.Len()); got < 0.75*wantTriangles || got > 1.25*wantTriangles {
		t.Errorf("got %d triangles. want about %.0f", m.Len(), wantTriangles)
	}
	var area float32
	for i := 0; i < m.Len(); i++ {
		tri := m.Triangle(i)
		area += 0.5 * ms3.Norm(ms3.Cross(ms3.Sub(tri[1], tri[0]), ms3.Sub(tri[2], tri[0])))
	}
	area *= scale * scale
	if wantArea := 4 * math32.Pi * r * r; math32.Abs(area-wantArea) > 0.15*wantArea {
		t.Errorf("got surface area %g. want %g", area, wantArea)
	}
	outward := 0
	for i := 0; i < m.Len(); i++ {
		tri := m.Triangle(i)
		centroid := ms3.Scale(1.0/3, ms3.Add(tri[0], ms3.Add(tri[1], tri[2])))
		if ms3.Dot(m.Normal(i), ms3.Sub(centroid, center)) > 0 {
			outward++
		}
	}
	if outward < m.Len()*99/100 {
		t.Errorf("got %d/%d outward facing triangles", outward, m.Len())
	}
	// A closed soup uses every undirected edge an even amount of times.
	edges := make(map[[2]ms3.Vec]int)
	for i := 0; i < m.Len(); i++ {
		tri := m.Triangle(i)
		for j := range tri {
			edges[edgeKey(tri[j], tri[(j+1)%3])]++
		}
	}
	for e, count := range edges {
		if count%2 != 0 {
			t.Fatalf("edge %v used %d times, surface is not closed", e, count)
		}
	}
}

func edgeKey(a, b ms3.Vec) [2]ms3.Vec {
	if a.X < b.X || (a.X == b.X && (a.Y < b.Y || (a.Y == b.Y && a.Z < b.Z))) {
		return [2]ms3.Vec{a, b}
	}
	return [2]ms3.Vec{b, a}
}

func TestDualContourDeterministic(t *testing.T) {
	f := sphereField(t, 40, 13.3)
	want, err := render.DualContour(f, render.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	for _, workers := range []int{1, 2, 3, runtime.NumCPU() + 1} {
		got, err := render.DualContour(f, render.Config{Workers: workers})
		if err != nil {
			t.Fatal(err)
		}
		if got.Len() != want.Len() {
			t.Fatalf("workers=%d: got %d triangles. want %d", workers, got.Len(), want.Len())
		}
		for i := range want.Positions {
			if got.Positions[i] != want.Positions[i] || got.Normals[i] != want.Normals[i] {
				t.Fatalf("workers=%d: vertex %d differs", workers, i)
			}
		}
	}
}

func TestDualContourNearZero(t *testing.T) {
	const n = 12
	rng := rand.New(rand.NewSource(1))
	values := []float32{0, -0, 1e-38, -1e-38, 1e-45, -1e-45, 1, -1}
	density := make([]float32, n*n*n)
	normals := make([]ms3.Vec, n*n*n)
	for i := range density {
		density[i] = values[rng.Intn(len(values))]
		if rng.Intn(4) != 0 {
			normals[i] = ms3.Unit(ms3.Vec{X: rng.Float32() - 0.5, Y: rng.Float32() - 0.5, Z: rng.Float32() - 0.5})
		}
	}
	pos, norms, err := render.DualContourArrays(density, normals, n, n, n)
	if err != nil {
		t.Fatal(err)
	}
	if len(pos) == 0 || len(pos) != len(norms) || len(pos)%3 != 0 {
		t.Fatalf("bad output lengths %d %d", len(pos), len(norms))
	}
	for i := range pos {
		if !d3.IsFinite(pos[i]) || !d3.InUnitCube(pos[i]) {
			t.Fatalf("bad vertex %v", pos[i])
		}
		if !d3.IsFinite(norms[i]) {
			t.Fatalf("bad normal %v", norms[i])
		}
		if l := ms3.Norm(norms[i]); l != 0 && math32.Abs(l-1) > 1e-5 {
			t.Fatalf("normal %v is not unit or zero", norms[i])
		}
	}
}

func TestDualContourSampledBox(t *testing.T) {
	const n = 24
	box, err := form3.NewBox(10, 12, 8, 1)
	if err != nil {
		t.Fatal(err)
	}
	bb := box.Bounds()
	bb = ms3.NewCenteredBox(bb.Center(), ms3.AddScalar(4, bb.Size()))
	f, err := hermite.Sample(box, bb, n, n, n, nil)
	if err != nil {
		t.Fatal(err)
	}
	m, err := render.DualContour(f, render.Config{Workers: 2})
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() == 0 {
		t.Fatal("no triangles")
	}
	// Mapped back into the sampled region every vertex lies close to the box surface.
	mapped := m.ToBox(ms3.Box{Min: bb.Min, Max: ms3.Add(bb.Min, ms3.Scale(float32(n)/float32(n-1), bb.Size()))})
	tol := math32.Sqrt(3) * bb.Size().X / (n - 1)
	vp := &hermite.VecPool{}
	dist := make([]float32, len(mapped.Positions))
	err = box.Evaluate(mapped.Positions, dist, vp)
	if err != nil {
		t.Fatal(err)
	}
	for i, d := range dist {
		if math32.Abs(d) > tol {
			t.Fatalf("vertex %v at distance %g from box surface", mapped.Positions[i], d)
		}
	}
}

func TestRenderer(t *testing.T) {
	f := sphereField(t, 24, 7)
	m, err := render.DualContour(f, render.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	r, err := render.NewDualContourRenderer(f, render.Config{Workers: 2})
	if err != nil {
		t.Fatal(err)
	}
	_, err = r.ReadTriangles(nil)
	if err != io.ErrShortBuffer {
		t.Errorf("got %v. want io.ErrShortBuffer", err)
	}
	got, err := render.RenderAll(r)
	if err != nil {
		t.Fatal(err)
	}
	want := m.Triangles()
	if len(got) != len(want) {
		t.Fatalf("got %d triangles. want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("triangle %d: got %v. want %v", i, got[i], want[i])
		}
	}
	err = r.Reset(f, render.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	again, err := render.RenderAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != len(want) {
		t.Errorf("after reset got %d triangles. want %d", len(again), len(want))
	}
}

func BenchmarkDualContour(b *testing.B) {
	f := sphereField(b, 128, 32)
	for _, workers := range []int{1, runtime.NumCPU()} {
		cfg := render.Config{Workers: workers}
		b.Run("workers="+strconv.Itoa(workers), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_, err := render.DualContour(f, cfg)
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
