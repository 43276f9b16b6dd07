package interpolation

import (
	"errors"
	"math"

	"github.com/notargets/fvmesh/mesh"
	"github.com/notargets/fvmesh/types"
)

// CheckWeights verifies that every face has weights summing to one within tol over members present on the rank
func CheckWeights(m *mesh.Mesh, tol float64) (err error) {
	var errs []error
	for f, face := range m.Faces {
		if face.Weights == nil {
			errs = append(errs, types.NewWeightSumError(m.Rank, f, 0))
			continue
		}
		for sm := range face.Weights {
			if (sm.Kind == types.MemberCell && sm.Index >= m.NumCells()) ||
				(sm.Kind == types.MemberGhost && sm.Index >= m.NumGhosts()) || sm.Index < 0 {
				errs = append(errs, types.NewTopologyError(m.Rank, nil, m.FaceNodeGlobalIDs(f),
					"face %d weights reference missing %s", f, sm))
			}
		}
		if sum := face.Weights.Sum(); math.Abs(sum-1) >= tol {
			errs = append(errs, types.NewWeightSumError(m.Rank, f, sum))
		}
	}
	return errors.Join(errs...)
}
