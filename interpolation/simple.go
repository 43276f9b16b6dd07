package interpolation

import (
	"github.com/notargets/fvmesh/geometry3D"
	"github.com/notargets/fvmesh/types"
)

/*
simple splits a face between its parent and neighbor by inverse distance to the face centroid. Boundary faces take
the parent value.
*/
func (e *Engine) simple(f int, s *Scratch) (class types.Classification, wm types.WeightMap) {
	var (
		face   = e.mesh.Faces[f]
		parent = types.CellMember(face.Parent)
		other  types.StencilMember
	)
	s.selected = append(s.selected[:0], parent)
	switch face.Neighbor.Kind {
	case types.RefCell:
		other = types.CellMember(face.Neighbor.Index)
	case types.RefGhost:
		other = types.GhostMember(face.Neighbor.Index)
	default:
		return types.Point, types.WeightMap{parent: 1}
	}
	s.selected = append(s.selected, other)
	var (
		dp = geometry3D.Distance(e.mesh.MemberCentroid(parent), face.Centroid)
		dn = geometry3D.Distance(e.mesh.MemberCentroid(other), face.Centroid)
	)
	if dp+dn == 0 {
		return types.Line, types.WeightMap{parent: 0.5, other: 0.5}
	}
	return types.Line, types.WeightMap{parent: dn / (dp + dn), other: dp / (dp + dn)}
}
