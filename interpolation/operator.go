package interpolation

import (
	"fmt"

	"github.com/james-bowman/sparse"

	"github.com/notargets/fvmesh/mesh"
	"github.com/notargets/fvmesh/types"
)

/*
Operator is the face interpolation as a sparse matrix. Row f holds the weights of face f; columns are the local cells
followed by the ghosts.
*/
type Operator struct {
	M                   *sparse.CSR
	NumCells, NumGhosts int
}

func column(m *mesh.Mesh, sm types.StencilMember) int {
	if sm.Kind == types.MemberGhost {
		return m.NumCells() + sm.Index
	}
	return sm.Index
}

// NewOperator assembles the weights stored on the faces of m
func NewOperator(m *mesh.Mesh) (op *Operator, err error) {
	dok := sparse.NewDOK(m.NumFaces(), m.NumCells()+m.NumGhosts())
	for f, face := range m.Faces {
		if face.Weights == nil {
			err = types.NewTopologyError(m.Rank, []int{m.Cells[face.Parent].GlobalID}, m.FaceNodeGlobalIDs(f),
				"face %d has no interpolation weights", f)
			return
		}
		for _, sm := range face.Weights.Members() {
			dok.Set(f, column(m, sm), face.Weights[sm])
		}
	}
	op = &Operator{M: dok.ToCSR(), NumCells: m.NumCells(), NumGhosts: m.NumGhosts()}
	return
}

func (op *Operator) NNZ() int {
	return op.M.NNZ()
}

// Apply evaluates a field at every face centroid from its cell and ghost values
func (op *Operator) Apply(cellValues, ghostValues []float64) (faceValues []float64, err error) {
	if len(cellValues) != op.NumCells || len(ghostValues) != op.NumGhosts {
		err = fmt.Errorf("field sizes %d cells and %d ghosts, operator expects %d and %d",
			len(cellValues), len(ghostValues), op.NumCells, op.NumGhosts)
		return
	}
	var (
		raw = op.M.RawMatrix()
	)
	faceValues = make([]float64, raw.I)
	for f := 0; f < raw.I; f++ {
		var sum float64
		for k := raw.Indptr[f]; k < raw.Indptr[f+1]; k++ {
			j := raw.Ind[k]
			if j < op.NumCells {
				sum += raw.Data[k] * cellValues[j]
			} else {
				sum += raw.Data[k] * ghostValues[j-op.NumCells]
			}
		}
		faceValues[f] = sum
	}
	return
}
