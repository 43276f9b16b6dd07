package partition

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/notargets/fvmesh/mesh"
	"github.com/notargets/fvmesh/types"
)

/*
DualGraph has one vertex per cell and one edge per face shared by two cells. Neighbor lists are kept sorted so every
traversal is deterministic regardless of the graph's internal map ordering.
*/
type DualGraph struct {
	g         *simple.WeightedUndirectedGraph
	shapes    []mesh.ShapeType
	neighbors [][]int
}

// NewDualGraph connects elements sharing a face, the edge weight is the number of nodes on the shared face
func NewDualGraph(elements []mesh.Element) (dg *DualGraph, err error) {
	var (
		owner = make(map[types.FaceKey]int)
		sides = make(map[types.FaceKey]int)
	)
	dg = &DualGraph{
		g:         simple.NewWeightedUndirectedGraph(0, 0),
		shapes:    make([]mesh.ShapeType, len(elements)),
		neighbors: make([][]int, len(elements)),
	}
	for k, e := range elements {
		dg.shapes[k] = e.Shape
		dg.g.AddNode(simple.Node(k))
	}
	for k, e := range elements {
		for _, f := range e.Faces() {
			var key types.FaceKey
			if key, err = types.NewFaceKey(f); err != nil {
				return nil, types.NewTopologyError(-1, []int{k}, f, "%v", err)
			}
			sides[key]++
			first, exists := owner[key]
			switch {
			case !exists:
				owner[key] = k
			case sides[key] > 2:
				return nil, types.NewTopologyError(-1, []int{first, k}, key.Nodes(),
					"face shared by more than two cells")
			case first != k:
				dg.g.SetWeightedEdge(simple.WeightedEdge{
					F: simple.Node(first), T: simple.Node(k), W: float64(key.Len()),
				})
			}
		}
	}
	for k := range elements {
		dg.neighbors[k] = sortedIDs(dg.g.From(int64(k)))
	}
	return
}

func sortedIDs(it graph.Nodes) (ids []int) {
	for it.Next() {
		ids = append(ids, int(it.Node().ID()))
	}
	sort.Ints(ids)
	return
}

func (dg *DualGraph) NumVertices() int { return len(dg.neighbors) }

func (dg *DualGraph) Neighbors(k int) []int { return dg.neighbors[k] }

func (dg *DualGraph) Shape(k int) mesh.ShapeType { return dg.shapes[k] }

func (dg *DualGraph) EdgeWeight(a, b int) float64 {
	w, _ := dg.g.Weight(int64(a), int64(b))
	return w
}

func (dg *DualGraph) NumEdges() int { return dg.g.Edges().Len() }

// EdgeCut counts faces whose two cells are in different parts
func (dg *DualGraph) EdgeCut(assignment []int) (cut int) {
	for k, nbrs := range dg.neighbors {
		for _, j := range nbrs {
			if j > k && assignment[j] != assignment[k] {
				cut++
			}
		}
	}
	return
}

/*
Subgraph is the dual graph induced by members, the cells assigned to one partition. Vertex i of the result is
members[i].
*/
func (dg *DualGraph) Subgraph(members []int) (sub *DualGraph) {
	var (
		local = make(map[int]int, len(members))
	)
	sub = &DualGraph{
		g:         simple.NewWeightedUndirectedGraph(0, 0),
		shapes:    make([]mesh.ShapeType, len(members)),
		neighbors: make([][]int, len(members)),
	}
	for i, k := range members {
		local[k] = i
		sub.shapes[i] = dg.shapes[k]
		sub.g.AddNode(simple.Node(i))
	}
	for i, k := range members {
		for _, j := range dg.neighbors[k] {
			if lj, ok := local[j]; ok && lj > i {
				sub.g.SetWeightedEdge(simple.WeightedEdge{
					F: simple.Node(i), T: simple.Node(lj), W: dg.EdgeWeight(k, j),
				})
			}
		}
	}
	for i := range members {
		sub.neighbors[i] = sortedIDs(sub.g.From(int64(i)))
	}
	return
}

// Components counts the connected pieces of the graph
func (dg *DualGraph) Components() int {
	return len(topo.ConnectedComponents(dg.g))
}

/*
CSR returns the graph in the compressed adjacency form used by METIS, with vertex weights from the compute cost model
and edge weights from the communication cost model.
*/
func (dg *DualGraph) CSR() (xadj, adjncy, vwgt, adjwgt []int32) {
	var (
		ne = dg.NumVertices()
	)
	xadj = make([]int32, ne+1)
	vwgt = make([]int32, ne)
	for k := 0; k < ne; k++ {
		vwgt[k] = ComputeCost(dg.shapes[k])
		for _, j := range dg.neighbors[k] {
			adjncy = append(adjncy, int32(j))
			adjwgt = append(adjwgt, CommCost(int(dg.EdgeWeight(k, j))))
		}
		xadj[k+1] = int32(len(adjncy))
	}
	return
}

// ComputeCost reflects the relative work per cell shape
func ComputeCost(shape mesh.ShapeType) int32 {
	return map[mesh.ShapeType]int32{
		mesh.Tet:     1,
		mesh.Pyramid: 5,
		mesh.Prism:   6,
		mesh.Hex:     8,
	}[shape]
}

// CommCost is proportional to the data crossing a face, the number of face nodes for linear cells
func CommCost(faceNodes int) int32 {
	return int32(faceNodes)
}
