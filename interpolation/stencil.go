package interpolation

import (
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fvmesh/mesh"
	"github.com/notargets/fvmesh/types"
)

type ranked struct {
	member types.StencilMember
	dist   float64
}

/*
Scratch holds the buffers reused by one worker across face computations. A Scratch must not be shared between
goroutines; nothing in it survives from one face to the next.
*/
type Scratch struct {
	seen       map[types.StencilMember]struct{}
	candidates []types.StencilMember
	octants    [8][]ranked
	selected   []types.StencilMember
	centroids  []r3.Vec
	a3, a4     *mat.Dense
	b, x       []float64
}

func NewScratch() *Scratch {
	return &Scratch{
		seen: make(map[types.StencilMember]struct{}),
		a3:   mat.NewDense(3, 3, nil),
		a4:   mat.NewDense(4, 4, nil),
		b:    make([]float64, 4),
		x:    make([]float64, 4),
	}
}

func (s *Scratch) reset() {
	clear(s.seen)
	s.candidates = s.candidates[:0]
	for q := range s.octants {
		s.octants[q] = s.octants[q][:0]
	}
	s.selected = s.selected[:0]
	s.centroids = s.centroids[:0]
}

func (s *Scratch) add(sm types.StencilMember) {
	if _, ok := s.seen[sm]; ok {
		return
	}
	s.seen[sm] = struct{}{}
	s.candidates = append(s.candidates, sm)
}

// Candidates is the set of cells and ghosts eligible for the stencil of face f, in member order
func Candidates(m *mesh.Mesh, f int, s *Scratch) []types.StencilMember {
	var (
		face = m.Faces[f]
	)
	s.reset()
	s.add(types.CellMember(face.Parent))
	switch face.Neighbor.Kind {
	case types.RefCell:
		s.add(types.CellMember(face.Neighbor.Index))
	case types.RefGhost:
		s.add(types.GhostMember(face.Neighbor.Index))
	}
	for _, n := range face.Nodes {
		for _, c := range m.Nodes[n].Cells {
			s.add(types.CellMember(c))
		}
		for _, g := range m.Nodes[n].Ghosts {
			s.add(types.GhostMember(g))
		}
	}
	types.SortMembers(s.candidates)
	return s.candidates
}

func octant(d r3.Vec) (q int) {
	if d.X < 0 {
		q |= 4
	}
	if d.Y < 0 {
		q |= 2
	}
	if d.Z < 0 {
		q |= 1
	}
	return
}

func tied(nearer, farther float64) bool {
	if nearer == 0 {
		return farther == 0
	}
	return (farther-nearer)/nearer < tieTolerance
}

/*
SelectStencil picks at most limit members from the candidates of face f. Candidates are binned into octants around
the face centroid and sorted by distance within each octant, then taken round robin with the closest of each octant
first. A member tied in distance with the one just taken from the same octant is taken along with it while the
limit allows. The selection is returned in member order.
*/
func SelectStencil(m *mesh.Mesh, f int, limit int, s *Scratch) []types.StencilMember {
	var (
		fc    = m.Faces[f].Centroid
		heads [8]int
	)
	for _, sm := range s.candidates {
		d := r3.Sub(m.MemberCentroid(sm), fc)
		q := octant(d)
		s.octants[q] = append(s.octants[q], ranked{member: sm, dist: r3.Norm(d)})
	}
	for q := range s.octants {
		oct := s.octants[q]
		sort.SliceStable(oct, func(i, j int) bool { return oct[i].dist < oct[j].dist })
	}
	limit = min(limit, len(s.candidates))
	for len(s.selected) < limit {
		for q := 0; q < 8 && len(s.selected) < limit; q++ {
			oct := s.octants[q]
			if heads[q] == len(oct) {
				continue
			}
			first := oct[heads[q]]
			s.selected = append(s.selected, first.member)
			heads[q]++
			for heads[q] < len(oct) && len(s.selected) < limit && tied(first.dist, oct[heads[q]].dist) {
				s.selected = append(s.selected, oct[heads[q]].member)
				heads[q]++
			}
		}
	}
	types.SortMembers(s.selected)
	for _, sm := range s.selected {
		s.centroids = append(s.centroids, m.MemberCentroid(sm))
	}
	return s.selected
}
