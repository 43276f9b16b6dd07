package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fvmesh/geometry3D"
	"github.com/notargets/fvmesh/types"
)

// ComputeMetrics fills face centroids, areas and normals, then cell volumes and length scales
func (m *Mesh) ComputeMetrics() error {
	for f := range m.Faces {
		if err := m.faceMetrics(f); err != nil {
			return err
		}
	}
	for c := range m.Cells {
		if err := m.cellMetrics(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mesh) faceMetrics(f int) error {
	var (
		face = &m.Faces[f]
	)
	centroid, areaVec := geometry3D.PolygonAreaVector(m.FaceNodePositions(f))
	area := r3.Norm(areaVec)
	if area == 0 || math.IsNaN(area) {
		return types.NewTopologyError(m.Rank, []int{m.Cells[face.Parent].GlobalID}, m.FaceNodeGlobalIDs(f),
			"face has zero area")
	}
	face.Centroid = centroid
	face.Area = area
	face.Normal = r3.Scale(1./area, areaVec)
	return nil
}

/*
cellMetrics sums the pyramids formed by the cell centroid and each bounding face. Heights are signed along the normal
as seen from the cell, so an inverted cell produces a non positive volume.
*/
func (m *Mesh) cellMetrics(c int) error {
	var (
		cell   = &m.Cells[c]
		vol    float64
		minLen = math.MaxFloat64
	)
	for _, f := range cell.Faces {
		face := m.Faces[f]
		n := face.Normal
		if face.Parent != c {
			n = r3.Scale(-1, n)
		}
		h := r3.Dot(n, r3.Sub(face.Centroid, cell.Centroid))
		vol += face.Area * h / 3.
		minLen = math.Min(minLen, math.Abs(h))
	}
	if !(vol > 0) {
		nodes := make([]int, len(cell.Nodes))
		for i, n := range cell.Nodes {
			nodes[i] = m.Nodes[n].GlobalID
		}
		return types.NewTopologyError(m.Rank, []int{cell.GlobalID}, nodes,
			"cell volume %.6g is not positive, the cell is inverted or degenerate", vol)
	}
	cell.Volume = vol
	cell.LengthScale = minLen
	return nil
}
