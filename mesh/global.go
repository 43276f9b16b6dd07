package mesh

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fvmesh/geometry3D"
	"github.com/notargets/fvmesh/types"
)

// BoundaryRegion is a named set of boundary faces, each face given by its global node ids in any order
type BoundaryRegion struct {
	Name  string
	Faces [][]int
}

// GlobalMesh is the mesh as read on every rank before partitioning
type GlobalMesh struct {
	Nodes     []r3.Vec
	Elements  []Element
	Regions   []BoundaryRegion
	Dimension int // 1, 2 or 3, zero means 3
}

func (gm *GlobalMesh) NumElements() int { return len(gm.Elements) }

func (gm *GlobalMesh) Dim() int {
	if gm.Dimension == 0 {
		return 3
	}
	return gm.Dimension
}

// Validate checks the global tables before any partitioning work
func (gm *GlobalMesh) Validate() error {
	if len(gm.Elements) == 0 {
		return types.NewConfigurationError("mesh has no cells")
	}
	if d := gm.Dim(); d < 1 || d > 3 {
		return types.NewConfigurationError("mesh dimension %d outside [1,3]", gm.Dimension)
	}
	nn := len(gm.Nodes)
	for k, e := range gm.Elements {
		if int(e.Shape) >= len(faceTemplates) {
			return types.NewTopologyError(-1, []int{k}, nil, "unknown cell shape %d", e.Shape)
		}
		if len(e.Nodes) != e.Shape.NumNodes() {
			return types.NewTopologyError(-1, []int{k}, nil, "%s cell with %d nodes",
				e.Shape, len(e.Nodes))
		}
		for _, n := range e.Nodes {
			if n < 0 || n >= nn {
				return types.NewTopologyError(-1, []int{k}, []int{n}, "node id outside the node table")
			}
		}
	}
	return nil
}

func (gm *GlobalMesh) BoundingBox() *geometry3D.BoundingBox {
	return geometry3D.NewBoundingBox(gm.Nodes)
}

// ElementCentroid is the mean of the element's node positions
func (gm *GlobalMesh) ElementCentroid(k int) r3.Vec {
	var (
		e   = gm.Elements[k]
		pts = make([]r3.Vec, len(e.Nodes))
	)
	for i, n := range e.Nodes {
		pts[i] = gm.Nodes[n]
	}
	return geometry3D.Mean(pts)
}

// NodeCellIndex maps each global node id to the global elements that use it, in ascending order
type NodeCellIndex [][]int

func NewNodeCellIndex(gm *GlobalMesh) (nci NodeCellIndex) {
	nci = make(NodeCellIndex, len(gm.Nodes))
	for k, e := range gm.Elements {
		for _, n := range e.Nodes {
			cells := nci[n]
			// Elements are visited in order, a repeat can only be the last entry
			if len(cells) == 0 || cells[len(cells)-1] != k {
				nci[n] = append(cells, k)
			}
		}
	}
	return
}

// CellsTouching returns the sorted union of the elements using any of the nodes
func (nci NodeCellIndex) CellsTouching(nodes []int) (cells []int) {
	seen := make(map[int]struct{})
	for _, n := range nodes {
		for _, k := range nci[n] {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				cells = append(cells, k)
			}
		}
	}
	sort.Ints(cells)
	return
}
