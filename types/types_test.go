package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypes(t *testing.T) {
	{ // Face keys are independent of winding and starting node
		k1, err := NewFaceKey([]int{7, 3, 5, 1})
		require.NoError(t, err)
		k2, err := NewFaceKey([]int{5, 1, 3, 7})
		require.NoError(t, err)
		assert.Equal(t, k1, k2)
		assert.Equal(t, FaceKey{1, 3, 5, 7}, k1)
		assert.Equal(t, 4, k1.Len())

		k3, err := NewFaceKey([]int{9, 2, 4})
		require.NoError(t, err)
		assert.Equal(t, FaceKey{2, 4, 9, -1}, k3)
		assert.Equal(t, []int{2, 4, 9}, k3.Nodes())
		assert.Equal(t, 3, k3.Len())
		assert.NotEqual(t, k1, k3)

		_, err = NewFaceKey([]int{1, 2})
		assert.Error(t, err)
		_, err = NewFaceKey([]int{1, 2, 3, 4, 5})
		assert.Error(t, err)
		_, err = NewFaceKey([]int{1, 2, 2})
		assert.Error(t, err)
	}
	{ // Stencil member ordering puts cells before ghosts
		members := []StencilMember{GhostMember(0), CellMember(3), GhostMember(2), CellMember(1)}
		SortMembers(members)
		assert.Equal(t, []StencilMember{CellMember(1), CellMember(3), GhostMember(0), GhostMember(2)}, members)
	}
	{
		wm := WeightMap{CellMember(0): 2, GhostMember(1): 6}
		assert.InDelta(t, 8., wm.Sum(), 1.e-15)
		assert.True(t, wm.Normalize())
		assert.InDelta(t, 0.25, wm[CellMember(0)], 1.e-15)
		assert.InDelta(t, 0.75, wm[GhostMember(1)], 1.e-15)
		assert.False(t, WeightMap{}.Normalize())
	}
	{
		nr := GhostRef(4)
		assert.True(t, nr.IsGhost())
		assert.False(t, nr.IsInternal())
		assert.Equal(t, "Ghost[4]", nr.String())
		assert.True(t, Unassigned().IsUnassigned())
		assert.True(t, BoundaryRef(0).IsBoundary())
	}
}

func TestInterpolationMethod(t *testing.T) {
	for label, want := range map[string]InterpolationMethod{
		"WTLI": WTLI, "idw": IDW, " Simple ": Simple, "": WTLI, "default": WTLI,
	} {
		m, err := NewInterpolationMethod(label)
		require.NoError(t, err, label)
		assert.Equal(t, want, m, label)
	}
	_, err := NewInterpolationMethod("spline")
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.Equal(t, "idw", IDW.String())
	assert.Equal(t, "TETRA", Tetra.String())
	assert.Equal(t, "UNCLASSIFIED", Unclassified.String())
}

func TestMeshError(t *testing.T) {
	err := fmt.Errorf("building rank: %w",
		NewTopologyError(2, []int{14}, []int{3, 4, 5}, "face has no resolvable neighbor"))
	assert.True(t, errors.Is(err, ErrTopology))
	assert.False(t, errors.Is(err, ErrConfiguration))
	assert.Equal(t, 2, RankOf(err))
	var me *MeshError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, []int{14}, me.CellIDs)
	assert.Contains(t, err.Error(), "[rank 2]")
	assert.Contains(t, err.Error(), "cells [14]")

	cause := errors.New("pivot 3 below threshold")
	se := &MeshError{Kind: ErrSingularSystem, Rank: -1, Face: 7, Err: cause}
	assert.True(t, errors.Is(se, cause))
	assert.True(t, errors.Is(se, ErrSingularSystem))
	assert.Equal(t, -1, RankOf(errors.New("plain")))
}
