package interpolation

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fvmesh/mesh"
	"github.com/notargets/fvmesh/types"
)

// centroid is a cell or ghost centroid stored in the k-d tree
type centroid struct {
	pos    r3.Vec
	member types.StencilMember
}

func (c centroid) coord(d kdtree.Dim) float64 {
	switch d {
	case 0:
		return c.pos.X
	case 1:
		return c.pos.Y
	default:
		return c.pos.Z
	}
}

func (c centroid) Compare(o kdtree.Comparable, d kdtree.Dim) float64 {
	return c.coord(d) - o.(centroid).coord(d)
}

func (c centroid) Dims() int { return 3 }

func (c centroid) Distance(o kdtree.Comparable) float64 {
	d := r3.Sub(c.pos, o.(centroid).pos)
	return r3.Dot(d, d)
}

type centroids []centroid

func (cs centroids) Index(i int) kdtree.Comparable { return cs[i] }
func (cs centroids) Len() int                      { return len(cs) }
func (cs centroids) Slice(start, end int) kdtree.Interface {
	return cs[start:end]
}
func (cs centroids) Pivot(d kdtree.Dim) int {
	return centroidPlane{centroids: cs, dim: d}.Pivot()
}

type centroidPlane struct {
	centroids
	dim kdtree.Dim
}

func (p centroidPlane) Less(i, j int) bool {
	return p.centroids[i].coord(p.dim) < p.centroids[j].coord(p.dim)
}
func (p centroidPlane) Swap(i, j int) {
	p.centroids[i], p.centroids[j] = p.centroids[j], p.centroids[i]
}
func (p centroidPlane) Slice(start, end int) kdtree.SortSlicer {
	return centroidPlane{centroids: p.centroids[start:end], dim: p.dim}
}
func (p centroidPlane) Pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

// newCentroidTree indexes the centroids of all local cells and ghosts
func newCentroidTree(m *mesh.Mesh) *kdtree.Tree {
	pts := make(centroids, 0, m.NumCells()+m.NumGhosts())
	for c := range m.Cells {
		pts = append(pts, centroid{pos: m.Cells[c].Centroid, member: types.CellMember(c)})
	}
	for g := range m.Ghosts {
		pts = append(pts, centroid{pos: m.Ghosts[g].Centroid, member: types.GhostMember(g)})
	}
	return kdtree.New(pts, false)
}

/*
idw weights the k cells and ghosts nearest the face centroid by their inverse squared distance. A member coincident
with the face centroid takes the whole weight.
*/
func (e *Engine) idw(f int, limit int, s *Scratch) (types.WeightMap, error) {
	var (
		fc     = e.mesh.Faces[f].Centroid
		keeper = kdtree.NewNKeeper(limit)
		near   = make([]ranked, 0, limit)
	)
	if e.tree == nil {
		return nil, types.NewGeometryDegeneracyError(e.mesh.Rank, f, "no centroids to search")
	}
	e.tree.NearestSet(keeper, centroid{pos: fc})
	for _, cd := range keeper.Heap {
		if cd.Comparable == nil {
			continue
		}
		near = append(near, ranked{member: cd.Comparable.(centroid).member, dist: cd.Dist})
	}
	if len(near) == 0 {
		return nil, types.NewGeometryDegeneracyError(e.mesh.Rank, f, "no centroid found near face")
	}
	sort.Slice(near, func(i, j int) bool {
		if near[i].dist != near[j].dist {
			return near[i].dist < near[j].dist
		}
		return near[i].member.Less(near[j].member)
	})
	s.selected = s.selected[:0]
	for _, r := range near {
		s.selected = append(s.selected, r.member)
	}
	wm := make(types.WeightMap, len(near))
	if near[0].dist == 0 {
		wm[near[0].member] = 1
		return wm, nil
	}
	for _, r := range near {
		wm[r.member] = 1 / r.dist
	}
	if !wm.Normalize() || math.IsNaN(wm.Sum()) {
		return nil, types.NewGeometryDegeneracyError(e.mesh.Rank, f, "inverse distance weights sum to %g", wm.Sum())
	}
	return wm, nil
}
