package render

import (
	"context"
	"errors"

	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/hermite"
	"github.com/soypat/hermite/internal/d3"
	"github.com/soypat/hermite/qef"
	"golang.org/x/sync/errgroup"
)

// DefaultBias is the weight of the mass point planes added to every cell's QEF.
const DefaultBias = 1.0

// Config controls dual contouring. The zero value is valid and equivalent to DefaultConfig.
type Config struct {
	// Bias weighs the three axis aligned planes through a cell's mass point
	// that regularize its QEF. Larger values pull vertices toward the mass point.
	// Zero selects DefaultBias. Negative values are invalid.
	Bias float32
	// Workers is the amount of goroutines each pass is split over.
	// Values below 2 run both passes on the calling goroutine.
	Workers int
}

// DefaultConfig returns the sequential configuration with DefaultBias.
func DefaultConfig() Config {
	return Config{Bias: DefaultBias, Workers: 1}
}

func (cfg Config) normalize() (Config, error) {
	if cfg.Bias < 0 || cfg.Bias != cfg.Bias {
		return cfg, errors.New("negative or NaN QEF bias")
	}
	if cfg.Bias == 0 {
		cfg.Bias = DefaultBias
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return cfg, nil
}

// Corner i of a cell is offset by (i>>2&1, i>>1&1, i&1) from the cell origin.
var cornerOffsets = [8]hermite.V3i{
	{0, 0, 0}, {0, 0, 1}, {0, 1, 0}, {0, 1, 1},
	{1, 0, 0}, {1, 0, 1}, {1, 1, 0}, {1, 1, 1},
}

// cellEdge joins corners c0 and c1 of a cell. c0 is the lower corner along axis.
type cellEdge struct {
	c0, c1 uint8
	axis   uint8
}

var cellEdges = [12]cellEdge{
	// Along X.
	{c0: 0, c1: 4, axis: 0}, {c0: 2, c1: 6, axis: 0}, {c0: 1, c1: 5, axis: 0}, {c0: 3, c1: 7, axis: 0},
	// Along Y.
	{c0: 0, c1: 2, axis: 1}, {c0: 4, c1: 6, axis: 1}, {c0: 1, c1: 3, axis: 1}, {c0: 5, c1: 7, axis: 1},
	// Along Z.
	{c0: 0, c1: 1, axis: 2}, {c0: 4, c1: 5, axis: 2}, {c0: 2, c1: 3, axis: 2}, {c0: 6, c1: 7, axis: 2},
}

// farEdge runs from corner start to corner 7, the maximal corner of a cell.
// The four cells sharing the edge are the cell itself and neighbors, in quad order.
type farEdge struct {
	start     uint8
	neighbors [3]hermite.V3i
	// flip inverts the winding test. The Y edge is parametrized
	// opposite to X and Z so its quads wind the other way.
	flip bool
}

var farEdges = [3]farEdge{
	{start: 3, neighbors: [3]hermite.V3i{{0, 0, 1}, {0, 1, 0}, {0, 1, 1}}},             // X.
	{start: 5, neighbors: [3]hermite.V3i{{0, 0, 1}, {1, 0, 0}, {1, 0, 1}}, flip: true}, // Y.
	{start: 6, neighbors: [3]hermite.V3i{{0, 1, 0}, {1, 0, 0}, {1, 1, 0}}},             // Z.
}

// VertexGrid holds one vertex per cell in [0,1]³ model space, parallel to the field it was
// placed from. It is written once by the vertex placement pass and read-only afterwards.
type VertexGrid = hermite.Grid[ms3.Vec]

const (
	allOutside = 0
	allInside  = 0xff
)

// DualContour extracts the zero isosurface of f as a triangle soup using dual contouring.
// Fields with fewer than 2 samples along any axis yield an empty mesh.
func DualContour(f *hermite.Field, cfg Config) (Mesh, error) {
	return DualContourContext(context.Background(), f, cfg)
}

// DualContourContext is DualContour with cancellation checked between grid slabs.
func DualContourContext(ctx context.Context, f *hermite.Field, cfg Config) (Mesh, error) {
	if f == nil {
		return Mesh{}, errors.New("nil field")
	}
	cfg, err := cfg.normalize()
	if err != nil {
		return Mesh{}, err
	}
	if !f.HasCells() {
		return Mesh{}, nil
	}
	verts, err := placeVertices(ctx, f, cfg)
	if err != nil {
		return Mesh{}, err
	}
	return extractFaces(ctx, f, verts, cfg.Workers)
}

// DualContourArrays runs dual contouring with DefaultConfig over flat density and
// normal arrays indexed by x + y*w + z*w*h. The returned slices have equal length,
// a multiple of 3, each consecutive triple being a triangle and its flat normal.
// Positions lie in [0,1]³ model space. Mismatched array lengths return an error
// wrapping [hermite.ErrInvalidInput].
func DualContourArrays(density []float32, normals []ms3.Vec, w, h, d int) (positions, norms []ms3.Vec, err error) {
	f, err := hermite.NewField(density, normals, w, h, d)
	if err != nil {
		return nil, nil, err
	}
	m, err := DualContour(f, DefaultConfig())
	if err != nil {
		return nil, nil, err
	}
	return m.Positions, m.Normals, nil
}

// PlaceVertices runs the vertex placement pass alone and returns the grid of
// cell vertices in [0,1]³ model space, parallel to f. Inactive cells and the
// last sample layer along each axis hold the zero vector.
func PlaceVertices(f *hermite.Field, cfg Config) (VertexGrid, error) {
	cfg, err := cfg.normalize()
	if err != nil {
		return VertexGrid{}, err
	}
	if !f.HasCells() {
		dims := f.Dims()
		return hermite.NewGrid(make([]ms3.Vec, dims.Prod()), dims[0], dims[1], dims[2])
	}
	return placeVertices(context.Background(), f, cfg)
}

// ExtractFaces runs the face extraction pass over vertices produced by PlaceVertices.
func ExtractFaces(f *hermite.Field, verts VertexGrid) (Mesh, error) {
	if verts.Dims() != f.Dims() {
		return Mesh{}, errors.New("vertex grid does not match field dimensions")
	}
	if !f.HasCells() {
		return Mesh{}, nil
	}
	return extractFaces(context.Background(), f, verts, 1)
}

func placeVertices(ctx context.Context, f *hermite.Field, cfg Config) (VertexGrid, error) {
	dims := f.Dims()
	cells := f.Density.Cells()
	fdims := dims.Vec()
	// Slabs write disjoint z ranges of buf.
	buf := make([]ms3.Vec, dims.Prod())
	err := forEachSlab(ctx, cells[2], cfg.Workers, func(_, z0, z1 int) error {
		var q qef.QEF
		for z := z0; z < z1; z++ {
			for y := 0; y < cells[1]; y++ {
				for x := 0; x < cells[0]; x++ {
					local, ok := cellVertex(f, x, y, z, cfg.Bias, &q)
					if !ok {
						continue
					}
					origin := hermite.V3i{x, y, z}.Vec()
					buf[f.Density.Index(x, y, z)] = ms3.DivElem(ms3.Add(origin, local), fdims)
				}
			}
		}
		return nil
	})
	if err != nil {
		return VertexGrid{}, err
	}
	// buf is not written past this point, ownership passes to the read-only grid.
	return hermite.NewGrid(buf, dims[0], dims[1], dims[2])
}

// cornerMask returns a bitmask with bit i set when corner i of cell (x,y,z) is inside.
func cornerMask(f *hermite.Field, x, y, z int) (mask uint8, vals [8]float32) {
	for i, c := range cornerOffsets {
		v := f.Density.At(x+c[0], y+c[1], z+c[2])
		vals[i] = v
		if v <= 0 {
			mask |= 1 << i
		}
	}
	return mask, vals
}

// cellVertex returns the vertex of cell (x,y,z) in local cell coordinates [0,1]³.
// ok is false for cells the surface does not cross. q is scratch space.
func cellVertex(f *hermite.Field, x, y, z int, bias float32, q *qef.QEF) (local ms3.Vec, ok bool) {
	mask, vals := cornerMask(f, x, y, z)
	if mask == allOutside || mask == allInside {
		return ms3.Vec{}, false
	}
	q.Reset()
	var mass ms3.Vec
	crossings := 0
	for _, e := range cellEdges {
		v0, v1 := vals[e.c0], vals[e.c1]
		if (v0 <= 0) == (v1 <= 0) {
			continue
		}
		// Signs differ so v0-v1 is never zero and t is within [0,1].
		t := v0 / (v0 - v1)
		c0 := cornerOffsets[e.c0]
		p := c0.Vec()
		switch e.axis {
		case 0:
			p.X = t
		case 1:
			p.Y = t
		case 2:
			p.Z = t
		}
		n := f.Normals.At(x+c0[0], y+c0[1], z+c0[2])
		q.Add(qef.NewPlane(n, p))
		mass = ms3.Add(mass, p)
		crossings++
	}
	if crossings == 0 {
		return ms3.Vec{}, false
	}
	mass = ms3.Scale(1/float32(crossings), mass)
	q.AddWeighted(qef.Plane{N: ms3.Vec{X: 1}, D: mass.X}, bias)
	q.AddWeighted(qef.Plane{N: ms3.Vec{Y: 1}, D: mass.Y}, bias)
	q.AddWeighted(qef.Plane{N: ms3.Vec{Z: 1}, D: mass.Z}, bias)
	local, ok = q.Solve()
	if !ok || !d3.IsFinite(local) {
		return d3.Elem(0.5), true
	}
	return d3.Clamp01(local), true
}

func extractFaces(ctx context.Context, f *hermite.Field, verts VertexGrid, workers int) (Mesh, error) {
	dims := f.Dims()
	// Faces read neighbor vertices one cell ahead on every axis.
	nx, ny, nz := dims[0]-2, dims[1]-2, dims[2]-2
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return Mesh{}, nil
	}
	slabs := slabCount(nz, workers)
	meshes := make([]Mesh, slabs)
	err := forEachSlab(ctx, nz, workers, func(slab, z0, z1 int) error {
		var m Mesh
		for z := z0; z < z1; z++ {
			for y := 0; y < ny; y++ {
				for x := 0; x < nx; x++ {
					appendCellFaces(&m, f, verts, x, y, z)
				}
			}
		}
		meshes[slab] = m
		return nil
	})
	if err != nil {
		return Mesh{}, err
	}
	if slabs == 1 {
		return meshes[0], nil
	}
	var total int
	for i := range meshes {
		total += len(meshes[i].Positions)
	}
	result := Mesh{
		Positions: make([]ms3.Vec, 0, total),
		Normals:   make([]ms3.Vec, 0, total),
	}
	for i := range meshes {
		result.Append(meshes[i])
	}
	return result, nil
}

func appendCellFaces(dst *Mesh, f *hermite.Field, verts VertexGrid, x, y, z int) {
	mask, _ := cornerMask(f, x, y, z)
	if mask == allOutside || mask == allInside {
		return
	}
	inside7 := mask&(1<<7) != 0
	v0 := verts.At(x, y, z)
	for _, fe := range farEdges {
		insideStart := mask&(1<<fe.start) != 0
		if insideStart == inside7 {
			continue
		}
		nb := fe.neighbors
		v1 := verts.At(x+nb[0][0], y+nb[0][1], z+nb[0][2])
		v2 := verts.At(x+nb[1][0], y+nb[1][1], z+nb[1][2])
		v3 := verts.At(x+nb[2][0], y+nb[2][1], z+nb[2][2])
		if insideStart == fe.flip {
			dst.AppendTriangle(v0, v1, v3)
			dst.AppendTriangle(v0, v3, v2)
		} else {
			dst.AppendTriangle(v0, v3, v1)
			dst.AppendTriangle(v0, v2, v3)
		}
	}
}

// slabCount returns the amount of z slabs n layers are split into for workers goroutines.
func slabCount(n, workers int) int {
	if workers <= 1 || n <= 1 {
		return 1
	}
	return min(n, 4*workers)
}

// slabBounds returns the z range [z0,z1) of slab i.
func slabBounds(i, n, slabs int) (z0, z1 int) {
	return i * n / slabs, (i + 1) * n / slabs
}

// forEachSlab calls fn over the slabCount contiguous z ranges covering [0,n). With more
// than one worker the ranges run concurrently and forEachSlab returns after all have finished.
func forEachSlab(ctx context.Context, n, workers int, fn func(slab, z0, z1 int) error) error {
	if n <= 0 {
		return nil
	}
	slabs := slabCount(n, workers)
	if slabs == 1 {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(0, 0, n)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < slabs; i++ {
		z0, z1 := slabBounds(i, n, slabs)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(i, z0, z1)
		})
	}
	return g.Wait()
}
