package mesh

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fvmesh/geometry3D"
	"github.com/notargets/fvmesh/types"
)

// Node is a mesh vertex known to the local rank
type Node struct {
	Pos      r3.Vec
	GlobalID int
	Cells    []int // local cells using this node, ascending
	Ghosts   []int // ghosts using this node, ascending
	Faces    []int // local faces using this node, ascending
}

// Cell is a locally owned control volume
type Cell struct {
	Shape          ShapeType
	GlobalID       int
	Nodes          []int // local node indices in canonical shape order
	Faces          []int // local face indices in creation order
	NeighborCells  []int // local cells sharing at least one node, ascending, without the cell itself
	NeighborGhosts []int // ghosts sharing at least one node, ascending
	Centroid       r3.Vec
	Volume         float64
	LengthScale    float64
}

/*
Face is a unique polygon bounding one or two cells. Nodes are wound so the normal points out of the parent. Weights is
the only field written after topology construction.
*/
type Face struct {
	Nodes    []int
	Parent   int
	Neighbor types.NeighborRef
	Centroid r3.Vec
	Normal   r3.Vec // unit
	Area     float64
	Weights  types.WeightMap
}

// Ghost is a read-only proxy of a cell owned by another rank
type Ghost struct {
	GlobalID  int
	Owner     int
	Nodes     []int // local nodes this ghost shares with the rank
	Cells     []int // local cells sharing a node with this ghost, ascending
	Centroid  r3.Vec
	Values    []float64
	Gradients []r3.Vec
}

// Mesh is the per rank view of the partitioned mesh
type Mesh struct {
	Rank, NumRanks int
	Dimension      int
	Nodes          []Node
	Cells          []Cell
	Faces          []Face
	Ghosts         []Ghost
	RegionNames    []string
	RegionFaces    [][]int // local face indices per boundary region

	// Local cells each other rank holds as ghosts, filled by the handshake
	SendCells map[int][]int

	nodeG2L  map[int]int
	cellG2L  map[int]int
	ghostG2L map[int]int
}

func (m *Mesh) NumNodes() int  { return len(m.Nodes) }
func (m *Mesh) NumCells() int  { return len(m.Cells) }
func (m *Mesh) NumFaces() int  { return len(m.Faces) }
func (m *Mesh) NumGhosts() int { return len(m.Ghosts) }

func (m *Mesh) LocalNode(globalID int) (i int, ok bool) {
	i, ok = m.nodeG2L[globalID]
	return
}

func (m *Mesh) LocalCell(globalID int) (i int, ok bool) {
	i, ok = m.cellG2L[globalID]
	return
}

func (m *Mesh) LocalGhost(globalID int) (i int, ok bool) {
	i, ok = m.ghostG2L[globalID]
	return
}

// MemberCentroid returns the centroid of a local cell or ghost
func (m *Mesh) MemberCentroid(sm types.StencilMember) r3.Vec {
	if sm.Kind == types.MemberGhost {
		return m.Ghosts[sm.Index].Centroid
	}
	return m.Cells[sm.Index].Centroid
}

// MemberGlobalID returns the global cell id behind a stencil member
func (m *Mesh) MemberGlobalID(sm types.StencilMember) int {
	if sm.Kind == types.MemberGhost {
		return m.Ghosts[sm.Index].GlobalID
	}
	return m.Cells[sm.Index].GlobalID
}

func (m *Mesh) FaceNodePositions(f int) (pts []r3.Vec) {
	face := m.Faces[f]
	pts = make([]r3.Vec, len(face.Nodes))
	for i, n := range face.Nodes {
		pts[i] = m.Nodes[n].Pos
	}
	return
}

// FaceNodeGlobalIDs returns the global node ids of a face in winding order
func (m *Mesh) FaceNodeGlobalIDs(f int) (ids []int) {
	face := m.Faces[f]
	ids = make([]int, len(face.Nodes))
	for i, n := range face.Nodes {
		ids[i] = m.Nodes[n].GlobalID
	}
	return
}

// Counts of faces by the kind of their neighbor
func (m *Mesh) FaceCounts() (internal, ghost, boundary int) {
	for _, f := range m.Faces {
		switch f.Neighbor.Kind {
		case types.RefCell:
			internal++
		case types.RefGhost:
			ghost++
		case types.RefBoundary:
			boundary++
		}
	}
	return
}

func (m *Mesh) TotalVolume() (vol float64) {
	for _, c := range m.Cells {
		vol += c.Volume
	}
	return
}

func (m *Mesh) PrintStatistics(w io.Writer) {
	internal, ghost, boundary := m.FaceCounts()
	fmt.Fprintf(w, "Rank %d of %d:\n", m.Rank, m.NumRanks)
	fmt.Fprintf(w, "  Nodes: %d\n", m.NumNodes())
	fmt.Fprintf(w, "  Cells: %d\n", m.NumCells())
	fmt.Fprintf(w, "  Faces: %d (internal %d, inter-partition %d, boundary %d)\n",
		m.NumFaces(), internal, ghost, boundary)
	fmt.Fprintf(w, "  Ghosts: %d\n", m.NumGhosts())
	for r, name := range m.RegionNames {
		fmt.Fprintf(w, "    Region %s: %d faces\n", name, len(m.RegionFaces[r]))
	}
	fmt.Fprintf(w, "  Total volume: %.6g\n", m.TotalVolume())
	if box := m.BoundingBox(); box != nil {
		c := box.Centroid()
		fmt.Fprintf(w, "  Extent: center (%.6g, %.6g, %.6g), diagonal %.6g\n", c.X, c.Y, c.Z, box.Diagonal())
	}
}

// BoundingBox bounds the local nodes, nil on a rank without cells
func (m *Mesh) BoundingBox() *geometry3D.BoundingBox {
	pts := make([]r3.Vec, len(m.Nodes))
	for i, n := range m.Nodes {
		pts[i] = n.Pos
	}
	return geometry3D.NewBoundingBox(pts)
}
