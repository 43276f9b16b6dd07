package interpolation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fvmesh/mesh"
	"github.com/notargets/fvmesh/types"
)

func buildMesh(t *testing.T, gm *mesh.GlobalMesh) *mesh.Mesh {
	meshes, err := mesh.BuildRanks(context.Background(), gm, make([]int, gm.NumElements()), 1, nil)
	require.NoError(t, err)
	return meshes[0]
}

func computeAll(t *testing.T, m *mesh.Mesh, cfg Config) *Report {
	e, err := NewEngine(m, cfg, nil)
	require.NoError(t, err)
	rpt, err := e.ComputeAll(context.Background())
	require.NoError(t, err)
	return rpt
}

func faceAt(t *testing.T, m *mesh.Mesh, p r3.Vec) int {
	for f := range m.Faces {
		if r3.Norm(r3.Sub(m.Faces[f].Centroid, p)) < 1.e-12 {
			return f
		}
	}
	t.Fatalf("no face centered at %v", p)
	return -1
}

func cellAt(t *testing.T, m *mesh.Mesh, p r3.Vec) int {
	for c := range m.Cells {
		if r3.Norm(r3.Sub(m.Cells[c].Centroid, p)) < 1.e-12 {
			return c
		}
	}
	t.Fatalf("no cell centered at %v", p)
	return -1
}

func linearField(p r3.Vec) float64 { return 2*p.X + 3*p.Y - p.Z }

func reconstruct(m *mesh.Mesh, wm types.WeightMap, field func(r3.Vec) float64) (v float64) {
	for _, sm := range wm.Members() {
		v += wm[sm] * field(m.MemberCentroid(sm))
	}
	return
}

func TestSolveGauss(t *testing.T) {
	{ // Zero leading pivot forces a row exchange
		data := []float64{
			0, 2, 1,
			1, 1, 1,
			2, 1, 0,
		}
		rhs := []float64{5, 4, 4}
		var want mat.VecDense
		require.NoError(t, want.SolveVec(mat.NewDense(3, 3, append([]float64{}, data...)), mat.NewVecDense(3, append([]float64{}, rhs...))))
		x := make([]float64, 3)
		require.NoError(t, SolveGauss(mat.NewDense(3, 3, data), rhs, x))
		for i := range x {
			assert.InDelta(t, want.AtVec(i), x[i], 1.e-12)
		}
		assert.InDeltaSlice(t, []float64{1, 2, 1}, x, 1.e-12)
	}
	{ // Singular
		a := mat.NewDense(2, 2, []float64{1, 2, 2, 4})
		err := SolveGauss(a, []float64{1, 2}, make([]float64, 2))
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrSingularSystem))
	}
	{ // Shape mismatch
		err := SolveGauss(mat.NewDense(2, 3, nil), []float64{1, 2}, make([]float64, 2))
		assert.True(t, errors.Is(err, types.ErrSingularSystem))
	}
}

func TestClassify(t *testing.T) {
	var (
		tol  = DefaultConfig()
		line = []r3.Vec{{}, {X: 1}, {X: 2}, {X: 3}}
		flat = []r3.Vec{{}, {X: 1}, {X: 2}, {Y: 1}, {X: 1, Y: 1}}
		cube = []r3.Vec{{}, {X: 1}, {Y: 1}, {X: 1, Y: 1}, {Z: 1}}
	)
	classify := func(pts []r3.Vec, dim int) types.Classification {
		return Classify(pts, dim, tol.AreaTolerance, tol.VolumeTolerance)
	}
	assert.Equal(t, types.Point, classify(line[:1], 3))
	assert.Equal(t, types.Line, classify(line[:2], 3))
	assert.Equal(t, types.Line, classify(line, 3))
	assert.Equal(t, types.Tri, classify(flat, 3))
	assert.Equal(t, types.Tetra, classify(cube, 3))
	assert.Equal(t, types.Tri, classify(cube, 2))
	// A point barely off the line stays LINE
	assert.Equal(t, types.Line, classify([]r3.Vec{{}, {X: 1}, {X: 2, Y: 1.e-3}}, 3))
}

func TestConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2, DefaultStencilSize(1))
	assert.Equal(t, 6, DefaultStencilSize(2))
	assert.Equal(t, 12, DefaultStencilSize(3))
	assert.Equal(t, 12, cfg.StencilCap(3, 18))
	assert.Equal(t, 5, cfg.StencilCap(3, 5))
	cfg.MaxStencilSize = 4
	assert.Equal(t, 4, cfg.StencilCap(3, 18))

	for _, bad := range []Config{
		{MaxStencilSize: -1},
		{AreaTolerance: -0.1},
		{Workers: -2},
		{Method: types.InterpolationMethod(9)},
	} {
		err := bad.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrConfiguration))
	}
}

func TestSingleTetPoint(t *testing.T) {
	m := buildMesh(t, mesh.SingleTet())
	rpt := computeAll(t, m, DefaultConfig())
	assert.Equal(t, 4, rpt.Counts[types.Point])
	for f, face := range m.Faces {
		assert.Equal(t, 1, rpt.StencilSizes[f])
		assert.Equal(t, types.WeightMap{types.CellMember(0): 1}, face.Weights)
	}
}

func TestLineOfCells(t *testing.T) {
	gm, err := mesh.NewBlock(mesh.BlockSpec{
		Shape: mesh.Hex,
		X:     []float64{0, 1, 1.5, 3, 3.5, 5},
		Y:     []float64{0, 1},
		Z:     []float64{0, 1},
	})
	require.NoError(t, err)
	m := buildMesh(t, gm)
	rpt := computeAll(t, m, DefaultConfig())
	var internal int
	for f, face := range m.Faces {
		assert.InDelta(t, 1, face.Weights.Sum(), 1.e-8)
		if !face.Neighbor.IsInternal() {
			continue
		}
		internal++
		assert.Equal(t, types.Line, rpt.Classes[f])
		assert.Equal(t, 2, rpt.StencilSizes[f])
		var (
			p, n   = types.CellMember(face.Parent), types.CellMember(face.Neighbor.Index)
			dp, dn = r3.Norm(r3.Sub(m.MemberCentroid(p), face.Centroid)), r3.Norm(r3.Sub(m.MemberCentroid(n), face.Centroid))
		)
		require.Len(t, face.Weights, 2)
		assert.InDelta(t, dn/(dp+dn), face.Weights[p], 1.e-12)
		assert.InDelta(t, dp/(dp+dn), face.Weights[n], 1.e-12)
		nearer := p
		if dn < dp {
			nearer = n
		}
		assert.Greater(t, face.Weights[nearer], 0.5)
	}
	assert.Equal(t, 4, internal)

	// The two point split agrees on internal faces
	weighted := make([]types.WeightMap, m.NumFaces())
	for f := range m.Faces {
		weighted[f] = m.Faces[f].Weights
	}
	computeAll(t, m, Config{Method: types.Simple})
	for f, face := range m.Faces {
		if face.Neighbor.IsInternal() {
			for sm, w := range weighted[f] {
				assert.InDelta(t, w, face.Weights[sm], 1.e-12)
			}
		} else {
			assert.Equal(t, types.WeightMap{types.CellMember(face.Parent): 1}, face.Weights)
		}
	}
}

func TestInteriorFaceTetra(t *testing.T) {
	gm, err := mesh.NewUniformBlock(mesh.Hex, 3, 3, 3, 3, 3, 3)
	require.NoError(t, err)
	m := buildMesh(t, gm)
	rpt := computeAll(t, m, DefaultConfig())
	require.NoError(t, CheckWeights(m, 1.e-8))

	f := faceAt(t, m, r3.Vec{X: 2, Y: 1.5, Z: 1.5})
	face := m.Faces[f]
	assert.Equal(t, types.Tetra, rpt.Classes[f])
	assert.Equal(t, 12, rpt.StencilSizes[f])
	assert.InDelta(t, 1, face.Weights.Sum(), 1.e-8)
	assert.InDelta(t, linearField(face.Centroid), reconstruct(m, face.Weights, linearField), 1.e-6)

	// Every barycentric stencil reproduces linear fields, inside or outside its hull
	for f, face := range m.Faces {
		if rpt.Classes[f] == types.Tetra {
			assert.InDelta(t, linearField(face.Centroid), reconstruct(m, face.Weights, linearField), 1.e-6,
				"face %d", f)
		}
	}
}

func TestSelectStencil(t *testing.T) {
	gm, err := mesh.NewUniformBlock(mesh.Hex, 3, 3, 3, 3, 3, 3)
	require.NoError(t, err)
	m := buildMesh(t, gm)
	f := faceAt(t, m, r3.Vec{X: 2, Y: 1.5, Z: 1.5})
	s := NewScratch()
	cands := Candidates(m, f, s)
	assert.Len(t, cands, 18)
	for i := 1; i < len(cands); i++ {
		assert.True(t, cands[i-1].Less(cands[i]))
	}

	// Octants are visited in order: the neighbor leads octant 0, the cell below it leads octant 1, and the
	// parent in octant 4 is never reached
	sel := SelectStencil(m, f, 2, s)
	face := m.Faces[f]
	below := cellAt(t, m, r3.Vec{X: 2.5, Y: 1.5, Z: 0.5})
	assert.Equal(t, 0, octant(r3.Sub(m.Cells[face.Neighbor.Index].Centroid, face.Centroid)))
	assert.Equal(t, 1, octant(r3.Sub(m.Cells[below].Centroid, face.Centroid)))
	assert.Equal(t, 4, octant(r3.Sub(m.Cells[face.Parent].Centroid, face.Centroid)))
	want := []types.StencilMember{types.CellMember(below), types.CellMember(face.Neighbor.Index)}
	types.SortMembers(want)
	assert.Equal(t, want, sel)

	Candidates(m, f, s)
	sel = SelectStencil(m, f, 12, s)
	require.Len(t, sel, 12)
	// Every octant contributes; octants on the +x side are visited first and take the surplus
	var (
		plus     int
		occupied = make(map[int]bool)
	)
	for _, sm := range sel {
		d := r3.Sub(m.MemberCentroid(sm), face.Centroid)
		occupied[octant(d)] = true
		if d.X > 0 {
			plus++
		}
	}
	assert.Len(t, occupied, 8)
	assert.Equal(t, 8, plus)
}

// On a one dimensional line the two point stencil is the parent and the neighbor
func TestSelectStencilLine(t *testing.T) {
	gm, err := mesh.NewBlock(mesh.BlockSpec{
		Shape:     mesh.Hex,
		X:         []float64{0, 1, 1.5, 3, 3.5, 5},
		Y:         []float64{0, 1},
		Z:         []float64{0, 1},
		Dimension: 1,
	})
	require.NoError(t, err)
	m := buildMesh(t, gm)
	require.Equal(t, 1, m.Dimension)
	var (
		s     = NewScratch()
		limit = DefaultConfig().StencilCap(m.Dimension, 100)
	)
	assert.Equal(t, 2, limit)
	for f, face := range m.Faces {
		if !face.Neighbor.IsInternal() {
			continue
		}
		Candidates(m, f, s)
		want := []types.StencilMember{types.CellMember(face.Parent), types.CellMember(face.Neighbor.Index)}
		types.SortMembers(want)
		assert.Equal(t, want, SelectStencil(m, f, limit, s), "face %d", f)
	}
	rpt := computeAll(t, m, DefaultConfig())
	for f, face := range m.Faces {
		if face.Neighbor.IsInternal() {
			assert.Equal(t, types.Line, rpt.Classes[f])
			assert.Equal(t, 2, rpt.StencilSizes[f])
		}
	}
}

func TestStencilCap(t *testing.T) {
	gm, err := mesh.NewUniformBlock(mesh.Tet, 2, 2, 2, 1, 1, 1)
	require.NoError(t, err)
	m := buildMesh(t, gm)
	cfg := DefaultConfig()
	cfg.MaxStencilSize = 5
	rpt := computeAll(t, m, cfg)
	for f := range m.Faces {
		assert.LessOrEqual(t, rpt.StencilSizes[f], 5)
		assert.LessOrEqual(t, len(m.Faces[f].Weights), 5)
	}
	require.NoError(t, CheckWeights(m, 1.e-8))
}

func TestIdempotent(t *testing.T) {
	gm, err := mesh.NewUniformBlock(mesh.Tet, 2, 2, 2, 1, 1, 1)
	require.NoError(t, err)
	m := buildMesh(t, gm)
	e, err := NewEngine(m, DefaultConfig(), nil)
	require.NoError(t, err)
	shared := NewScratch()
	for f := range m.Faces {
		a, err := e.ComputeFace(f, shared)
		require.NoError(t, err)
		b, err := e.ComputeFace(f, NewScratch())
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
	_, err = e.ComputeFace(m.NumFaces(), shared)
	assert.True(t, errors.Is(err, types.ErrTopology))
}

func TestDegenerateCombinations(t *testing.T) {
	m := buildMesh(t, mesh.SingleTet())
	e, err := NewEngine(m, DefaultConfig(), nil)
	require.NoError(t, err)
	s := NewScratch()
	s.selected = []types.StencilMember{types.CellMember(0), types.GhostMember(0), types.GhostMember(1)}
	s.centroids = []r3.Vec{{}, {X: 1}, {X: 2}}
	_, _, err = e.tri(0, r3.Vec{X: 0.5}, s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrGeometryDegeneracy))

	s.selected = append(s.selected, types.GhostMember(2))
	s.centroids = []r3.Vec{{}, {X: 1}, {Y: 1}, {X: 1, Y: 1}}
	_, err = e.tetra(0, r3.Vec{X: 0.5}, s)
	assert.True(t, errors.Is(err, types.ErrGeometryDegeneracy))

	// Coincident line members split evenly
	s.selected = s.selected[:2]
	s.centroids = []r3.Vec{{X: 1}, {X: 1}}
	wm, warnings := e.line(0, r3.Vec{}, s)
	assert.Equal(t, 1, warnings)
	assert.Equal(t, 0.5, wm[types.CellMember(0)])
}

func TestExtrapolatedLine(t *testing.T) {
	m := buildMesh(t, mesh.SingleTet())
	e, err := NewEngine(m, DefaultConfig(), nil)
	require.NoError(t, err)
	s := NewScratch()
	s.selected = []types.StencilMember{types.CellMember(0), types.GhostMember(0)}
	s.centroids = []r3.Vec{{X: 1}, {X: 2}}
	// Face outside the segment, nearest first
	wm, _ := e.line(0, r3.Vec{}, s)
	assert.InDelta(t, 2, wm[types.CellMember(0)], 1.e-12)
	assert.InDelta(t, -1, wm[types.GhostMember(0)], 1.e-12)
	assert.InDelta(t, 1, wm.Sum(), 1.e-12)
}

func TestInverseDistance(t *testing.T) {
	gm, err := mesh.NewUniformBlock(mesh.Hex, 3, 3, 3, 3, 3, 3)
	require.NoError(t, err)
	m := buildMesh(t, gm)
	rpt := computeAll(t, m, Config{Method: types.IDW})
	require.NoError(t, CheckWeights(m, 1.e-8))
	assert.Equal(t, m.NumFaces(), rpt.Counts[types.Unclassified])
	f := faceAt(t, m, r3.Vec{X: 2, Y: 1.5, Z: 1.5})
	face := m.Faces[f]
	assert.Len(t, face.Weights, 12)
	var (
		parent   = face.Weights[types.CellMember(face.Parent)]
		neighbor = face.Weights[types.CellMember(face.Neighbor.Index)]
	)
	assert.InDelta(t, parent, neighbor, 1.e-12)
	for _, w := range face.Weights {
		assert.LessOrEqual(t, w, parent+1.e-12)
		assert.Greater(t, w, 0.)
	}
}

func TestOperator(t *testing.T) {
	gm, err := mesh.NewUniformBlock(mesh.Hex, 4, 2, 2, 2, 1, 1)
	require.NoError(t, err)
	meshes, err := mesh.BuildRanks(context.Background(), gm, mesh.AxisAssignment(gm, 0, 2), 2, nil)
	require.NoError(t, err)
	for _, m := range meshes {
		_, err = NewOperator(m)
		assert.True(t, errors.Is(err, types.ErrTopology))

		rpt := computeAll(t, m, DefaultConfig())
		require.NoError(t, CheckWeights(m, 1.e-8))
		op, err := NewOperator(m)
		require.NoError(t, err)
		var nnz int
		usesGhost := false
		for _, face := range m.Faces {
			nnz += len(face.Weights)
			for sm := range face.Weights {
				usesGhost = usesGhost || sm.Kind == types.MemberGhost
			}
		}
		assert.True(t, usesGhost)
		assert.LessOrEqual(t, op.NNZ(), nnz)

		cells, ghosts := make([]float64, m.NumCells()), make([]float64, m.NumGhosts())
		for c := range cells {
			cells[c] = linearField(m.Cells[c].Centroid)
		}
		for g := range ghosts {
			ghosts[g] = linearField(m.Ghosts[g].Centroid)
		}
		values, err := op.Apply(cells, ghosts)
		require.NoError(t, err)
		for f, face := range m.Faces {
			assert.InDelta(t, reconstruct(m, face.Weights, linearField), values[f], 1.e-10)
			if rpt.Classes[f] == types.Tetra {
				assert.InDelta(t, linearField(face.Centroid), values[f], 1.e-6)
			}
		}
		_, err = op.Apply(cells[1:], ghosts)
		assert.Error(t, err)
	}
}

func TestNodeAverages(t *testing.T) {
	gm, err := mesh.NewUniformBlock(mesh.Tet, 2, 2, 2, 1, 1, 1)
	require.NoError(t, err)
	m := buildMesh(t, gm)
	_, err = NodeAverages(m)
	assert.True(t, errors.Is(err, types.ErrTopology))
	computeAll(t, m, DefaultConfig())
	avg, err := NodeAverages(m)
	require.NoError(t, err)
	require.Len(t, avg, m.NumNodes())
	for n, wm := range avg {
		assert.NotEmpty(t, m.Nodes[n].Faces)
		assert.InDelta(t, 1, wm.Sum(), 1.e-8, "node %d", n)
	}
}

func TestWorkersAgree(t *testing.T) {
	gm, err := mesh.NewUniformBlock(mesh.Tet, 2, 2, 2, 1, 1, 1)
	require.NoError(t, err)
	m := buildMesh(t, gm)
	computeAll(t, m, Config{Workers: 1})
	serial := make([]types.WeightMap, m.NumFaces())
	for f := range m.Faces {
		serial[f] = m.Faces[f].Weights
	}
	computeAll(t, m, Config{Workers: 7})
	for f := range m.Faces {
		assert.Equal(t, serial[f], m.Faces[f].Weights)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e, err := NewEngine(m, DefaultConfig(), nil)
	require.NoError(t, err)
	_, err = e.ComputeAll(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}
