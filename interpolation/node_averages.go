package interpolation

import (
	"github.com/notargets/fvmesh/geometry3D"
	"github.com/notargets/fvmesh/mesh"
	"github.com/notargets/fvmesh/types"
)

/*
NodeAverages derives a weight map for every local node by blending the weight maps of the faces using the node, each
face weighted by its inverse squared distance to the node. Face weights must already be computed.
*/
func NodeAverages(m *mesh.Mesh) (averages []types.WeightMap, err error) {
	averages = make([]types.WeightMap, m.NumNodes())
	for n, node := range m.Nodes {
		var (
			blend = make([]float64, len(node.Faces))
			total float64
		)
		wm := make(types.WeightMap)
		for i, f := range node.Faces {
			if m.Faces[f].Weights == nil {
				err = types.NewTopologyError(m.Rank, nil, []int{node.GlobalID}, "face %d has no interpolation weights", f)
				return
			}
			d := geometry3D.Distance(m.Faces[f].Centroid, node.Pos)
			blend[i] = 1 / (d * d)
			total += blend[i]
		}
		for i, f := range node.Faces {
			face := m.Faces[f].Weights
			for _, sm := range face.Members() {
				wm.Add(sm, blend[i]/total*face[sm])
			}
		}
		averages[n] = wm
	}
	return
}
