package partition

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/fvmesh/mesh"
	"github.com/notargets/fvmesh/types"
)

func block(t *testing.T, shape mesh.ShapeType, nx, ny, nz int) *mesh.GlobalMesh {
	gm, err := mesh.NewUniformBlock(shape, nx, ny, nz, 1, 1, 1)
	require.NoError(t, err)
	return gm
}

func TestDualGraph(t *testing.T) {
	gm := block(t, mesh.Hex, 2, 2, 2)
	dg, err := NewDualGraph(gm.Elements)
	require.NoError(t, err)
	assert.Equal(t, 8, dg.NumVertices())
	assert.Equal(t, 12, dg.NumEdges())
	assert.Equal(t, []int{1, 2, 4}, dg.Neighbors(0))
	assert.Equal(t, []int{3, 5, 6}, dg.Neighbors(7))
	assert.Equal(t, 4., dg.EdgeWeight(0, 1))
	assert.Equal(t, 1, dg.Components())

	xadj, adjncy, vwgt, adjwgt := dg.CSR()
	assert.Len(t, xadj, 9)
	assert.Equal(t, int32(24), xadj[8])
	assert.Len(t, adjncy, 24)
	assert.Equal(t, []int32{1, 2, 4}, adjncy[0:3])
	assert.Equal(t, int32(8), vwgt[0])
	assert.Equal(t, int32(4), adjwgt[0])

	// The two diagonal cells of the bottom layer are not face neighbors
	sub := dg.Subgraph([]int{0, 3, 4, 7})
	assert.Equal(t, 2, sub.Components())
	assert.Equal(t, []int{2}, sub.Neighbors(0))

	tets := block(t, mesh.Tet, 1, 1, 1)
	dg, err = NewDualGraph(tets.Elements)
	require.NoError(t, err)
	assert.Equal(t, 6, dg.NumEdges())
	assert.Equal(t, 3., dg.EdgeWeight(0, 1))
}

func TestNonManifold(t *testing.T) {
	gm := mesh.SingleTet()
	e := gm.Elements[0]
	gm.Elements = append(gm.Elements, e, e)
	_, err := NewDualGraph(gm.Elements)
	assert.True(t, errors.Is(err, types.ErrTopology))
}

func TestPartitioners(t *testing.T) {
	meshes := []*mesh.GlobalMesh{
		block(t, mesh.Hex, 2, 2, 2),
		block(t, mesh.Hex, 7, 3, 2),
		block(t, mesh.Tet, 3, 2, 2),
		block(t, mesh.Hex, 1, 1, 5),
	}
	for _, name := range []string{"graph", "block"} {
		p, err := New(name)
		require.NoError(t, err)
		for mi, gm := range meshes {
			for nparts := 1; nparts <= 9; nparts++ {
				a1, err := p.Partition(gm.Elements, nparts)
				require.NoError(t, err)
				assert.True(t, IsBalanced(a1, nparts), "%s mesh %d nparts %d", name, mi, nparts)
				a2, err := p.Partition(gm.Elements, nparts)
				require.NoError(t, err)
				assert.Equal(t, a1, a2)
			}
		}
	}
	{
		p, err := New("graph")
		require.NoError(t, err)
		_, err = p.Partition(meshes[0].Elements, 0)
		assert.True(t, errors.Is(err, types.ErrConfiguration))
		// Parts past the cell count stay empty
		a, err := p.Partition(meshes[3].Elements, 7)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2, 3, 4}, a)
		_, err = p.Partition(nil, 1)
		assert.True(t, errors.Is(err, types.ErrConfiguration))
	}
	_, err := New("scotch")
	assert.True(t, errors.Is(err, types.ErrConfiguration))
	assert.Contains(t, Names(), "graph")
}

func TestGraphGrowingCut(t *testing.T) {
	// A 2x2x2 block splits into two slabs with four shared faces
	gm := block(t, mesh.Hex, 2, 2, 2)
	dg, err := NewDualGraph(gm.Elements)
	require.NoError(t, err)
	a, err := (&GraphGrowing{}).PartitionGraph(dg, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 0, 1, 1, 1, 1}, a)
	assert.Equal(t, 4, dg.EdgeCut(a))

	// Parts of a long bar stay contiguous
	gm = block(t, mesh.Hex, 12, 1, 1)
	dg, err = NewDualGraph(gm.Elements)
	require.NoError(t, err)
	a, err = (&GraphGrowing{}).PartitionGraph(dg, 4)
	require.NoError(t, err)
	assert.Equal(t, 3, dg.EdgeCut(a))
	an := Analyze(dg, a, 4)
	for _, ps := range an.Parts {
		assert.Equal(t, 1, ps.Components)
		assert.Equal(t, 3, ps.NumElements)
	}
}

func TestFixed(t *testing.T) {
	gm := block(t, mesh.Hex, 2, 1, 1)
	a, err := (&Fixed{Assignment: []int{1, 0}}).Partition(gm.Elements, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, a)
	_, err = (&Fixed{Assignment: []int{2, 0}}).Partition(gm.Elements, 2)
	assert.True(t, errors.Is(err, types.ErrConfiguration))
	_, err = (&Fixed{Assignment: []int{0}}).Partition(gm.Elements, 2)
	assert.True(t, errors.Is(err, types.ErrConfiguration))
}

func TestRebalance(t *testing.T) {
	gm := block(t, mesh.Hex, 4, 4, 1)
	dg, err := NewDualGraph(gm.Elements)
	require.NoError(t, err)
	{ // Everything on one part, two parts empty
		a, moved := Rebalance(dg, make([]int, 16), 3)
		assert.True(t, IsBalanced(a, 3))
		assert.Equal(t, 10, moved)
		b, _ := Rebalance(dg, make([]int, 16), 3)
		assert.Equal(t, a, b)
	}
	{ // Already balanced input is untouched
		in := []int{0, 0, 1, 1, 0, 0, 1, 1, 2, 2, 3, 3, 2, 2, 3, 3}
		a, moved := Rebalance(dg, in, 4)
		assert.Equal(t, 0, moved)
		assert.Equal(t, in, a)
	}
	{ // Lopsided halves: one cell moves across the interface
		in := []int{0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1}
		a, moved := Rebalance(dg, in, 2)
		assert.True(t, IsBalanced(a, 2))
		assert.Equal(t, 4, moved)
		for k := range in {
			if in[k] == 1 {
				assert.Equal(t, 1, a[k])
			}
		}
	}
	assert.False(t, IsBalanced([]int{0, 0, 0}, 2))
	assert.False(t, IsBalanced([]int{0, 1, 1}, 3))
	assert.True(t, IsBalanced([]int{1, 0}, 4))
}

func TestAnalyze(t *testing.T) {
	gm := block(t, mesh.Hex, 2, 2, 2)
	dg, err := NewDualGraph(gm.Elements)
	require.NoError(t, err)
	a := []int{0, 1, 0, 1, 0, 1, 0, 1}
	an := Analyze(dg, a, 2)
	assert.Equal(t, 4, an.CutEdges)
	assert.Equal(t, int64(16), an.CommVolume)
	assert.Equal(t, 0, an.CountImbalance)
	assert.InDelta(t, 0., an.LoadImbalance, 1.e-15)
	assert.Equal(t, map[[2]int]int{{0, 1}: 4}, an.Interfaces)
	assert.Equal(t, 4, an.Parts[0].NumNeighbors[1])
	assert.Equal(t, 4, an.Parts[1].ElementTypes[mesh.Hex])
	an.Log(nil)
}
