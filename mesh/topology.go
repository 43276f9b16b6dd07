package mesh

import (
	"log/slog"
	"sort"

	"github.com/notargets/fvmesh/types"
)

type boundaryGroup struct {
	region   int
	consumed bool
}

// Builder assembles the local topology of one rank from the global tables and the partition assignment
type Builder struct {
	gm         *GlobalMesh
	assignment []int
	rank       int
	nci        NodeCellIndex
	boundary   map[types.FaceKey]*boundaryGroup
	logger     *slog.Logger
	m          *Mesh
}

func NewBuilder(gm *GlobalMesh, assignment []int, rank, nranks int, logger *slog.Logger) (b *Builder, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	if nranks < 1 || rank < 0 || rank >= nranks {
		err = types.NewConfigurationError("rank %d outside a group of %d ranks", rank, nranks)
		return
	}
	if len(assignment) != len(gm.Elements) {
		err = types.NewConfigurationError("partition assignment has %d entries for %d cells",
			len(assignment), len(gm.Elements))
		return
	}
	for k, p := range assignment {
		if p < 0 || p >= nranks {
			err = types.NewConfigurationError("cell %d assigned to rank %d of %d", k, p, nranks)
			return
		}
	}
	b = &Builder{
		gm:         gm,
		assignment: assignment,
		rank:       rank,
		nci:        NewNodeCellIndex(gm),
		logger:     logger,
		m: &Mesh{
			Rank:      rank,
			NumRanks:  nranks,
			Dimension: gm.Dim(),
			SendCells: make(map[int][]int),
			nodeG2L:   make(map[int]int),
			cellG2L:   make(map[int]int),
			ghostG2L:  make(map[int]int),
		},
	}
	if err = b.indexBoundary(); err != nil {
		b = nil
	}
	return
}

// Build runs the topology builder for one rank
func Build(gm *GlobalMesh, assignment []int, rank, nranks int, logger *slog.Logger) (m *Mesh, err error) {
	var b *Builder
	if b, err = NewBuilder(gm, assignment, rank, nranks, logger); err != nil {
		return
	}
	return b.Build()
}

func (b *Builder) Build() (m *Mesh, err error) {
	m = b.m
	b.addCells()
	b.linkNodeCells()
	var pending []int
	if pending, err = b.discoverFaces(); err != nil {
		return nil, err
	}
	if err = b.resolveGhosts(pending); err != nil {
		return nil, err
	}
	b.linkGhosts()
	internal, ghost, boundary := m.FaceCounts()
	b.logger.Info("local topology built",
		"cells", m.NumCells(), "nodes", m.NumNodes(), "faces", m.NumFaces(),
		"internal", internal, "interPartition", ghost, "boundary", boundary, "ghosts", m.NumGhosts())
	for r, name := range m.RegionNames {
		b.logger.Debug("boundary region", "name", name, "faces", len(m.RegionFaces[r]))
	}
	return
}

func (b *Builder) indexBoundary() error {
	var (
		m     = b.m
		names = make(map[string]int)
		nn    = len(b.gm.Nodes)
	)
	b.boundary = make(map[types.FaceKey]*boundaryGroup)
	m.RegionNames = make([]string, len(b.gm.Regions))
	m.RegionFaces = make([][]int, len(b.gm.Regions))
	for r, region := range b.gm.Regions {
		if prev, dup := names[region.Name]; dup {
			return types.NewConfigurationError("boundary regions %d and %d are both named %q", prev, r, region.Name)
		}
		names[region.Name] = r
		m.RegionNames[r] = region.Name
		for _, group := range region.Faces {
			for _, n := range group {
				if n < 0 || n >= nn {
					return types.NewTopologyError(b.rank, nil, group,
						"boundary region %q references node %d outside the node table", region.Name, n)
				}
			}
			key, err := types.NewFaceKey(group)
			if err != nil {
				return types.NewTopologyError(b.rank, nil, group, "boundary region %q: %v", region.Name, err)
			}
			if bg, exists := b.boundary[key]; exists {
				if bg.region == r {
					return types.NewTopologyError(b.rank, nil, key.Nodes(),
						"boundary region %q lists the same face twice", region.Name)
				}
				return types.NewConfigurationError("boundary regions %q and %q overlap on face %v",
					b.gm.Regions[bg.region].Name, region.Name, key)
			}
			b.boundary[key] = &boundaryGroup{region: r}
		}
	}
	return nil
}

func (b *Builder) addCells() {
	var (
		m = b.m
	)
	for k, p := range b.assignment {
		if p != b.rank {
			continue
		}
		e := b.gm.Elements[k]
		cell := Cell{
			Shape:    e.Shape,
			GlobalID: k,
			Nodes:    make([]int, len(e.Nodes)),
		}
		for i, gn := range e.Nodes {
			ln, ok := m.nodeG2L[gn]
			if !ok {
				ln = len(m.Nodes)
				m.nodeG2L[gn] = ln
				m.Nodes = append(m.Nodes, Node{Pos: b.gm.Nodes[gn], GlobalID: gn})
			}
			cell.Nodes[i] = ln
		}
		cell.Centroid = b.gm.ElementCentroid(k)
		m.cellG2L[k] = len(m.Cells)
		m.Cells = append(m.Cells, cell)
	}
}

func (b *Builder) linkNodeCells() {
	var (
		m = b.m
	)
	for c, cell := range m.Cells {
		for _, n := range cell.Nodes {
			m.Nodes[n].Cells = append(m.Nodes[n].Cells, c)
		}
	}
	for c := range m.Cells {
		m.Cells[c].NeighborCells = unionExcept(m, m.Cells[c].Nodes, c)
	}
}

func unionExcept(m *Mesh, nodes []int, self int) (cells []int) {
	seen := map[int]struct{}{self: {}}
	for _, n := range nodes {
		for _, c := range m.Nodes[n].Cells {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				cells = append(cells, c)
			}
		}
	}
	sort.Ints(cells)
	return
}

func sharedCount(a, b []int) (count int) {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				count++
				break
			}
		}
	}
	return
}

/*
discoverFaces walks every cell's face templates. A template face belongs to the lower numbered of the two cells that
share at least three of its nodes, so each face is created exactly once, by its parent. Faces without a local
neighbor are matched against the boundary regions; the rest are returned for ghost resolution.
*/
func (b *Builder) discoverFaces() (pending []int, err error) {
	var (
		m = b.m
	)
	for c := range m.Cells {
		cell := &m.Cells[c]
		for _, tmpl := range cell.Shape.FaceTemplates() {
			nodes := make([]int, len(tmpl))
			for i, ln := range tmpl {
				nodes[i] = cell.Nodes[ln]
			}
			var (
				neighbor = -1
				owned    = true
			)
			for _, i := range m.Nodes[nodes[0]].Cells {
				if i == c || sharedCount(m.Cells[i].Nodes, nodes) < 3 {
					continue
				}
				if i < c {
					owned = false
					break
				}
				if neighbor >= 0 {
					err = types.NewTopologyError(b.rank,
						[]int{cell.GlobalID, m.Cells[neighbor].GlobalID, m.Cells[i].GlobalID},
						b.globalNodes(nodes), "face shared by more than two cells")
					return
				}
				neighbor = i
			}
			if !owned {
				continue
			}
			f := len(m.Faces)
			face := Face{Nodes: nodes, Parent: c, Neighbor: types.Unassigned()}
			cell.Faces = append(cell.Faces, f)
			if neighbor >= 0 {
				face.Neighbor = types.CellRef(neighbor)
				m.Cells[neighbor].Faces = append(m.Cells[neighbor].Faces, f)
			}
			for _, n := range nodes {
				m.Nodes[n].Faces = append(m.Nodes[n].Faces, f)
			}
			m.Faces = append(m.Faces, face)
			if neighbor < 0 && !b.matchBoundary(f) {
				pending = append(pending, f)
			}
		}
	}
	return
}

func (b *Builder) globalNodes(local []int) (ids []int) {
	ids = make([]int, len(local))
	for i, n := range local {
		ids[i] = b.m.Nodes[n].GlobalID
	}
	return
}

func (b *Builder) matchBoundary(f int) bool {
	var (
		m = b.m
	)
	key, err := types.NewFaceKey(m.FaceNodeGlobalIDs(f))
	if err != nil {
		return false
	}
	bg, ok := b.boundary[key]
	if !ok || bg.consumed {
		return false
	}
	bg.consumed = true
	m.Faces[f].Neighbor = types.BoundaryRef(bg.region)
	m.RegionFaces[bg.region] = append(m.RegionFaces[bg.region], f)
	return true
}

func (b *Builder) ghostFor(k int) (g int) {
	var (
		m  = b.m
		ok bool
	)
	if g, ok = m.ghostG2L[k]; ok {
		return
	}
	g = len(m.Ghosts)
	m.ghostG2L[k] = g
	m.Ghosts = append(m.Ghosts, Ghost{
		GlobalID: k,
		Owner:    b.assignment[k],
		Centroid: b.gm.ElementCentroid(k),
	})
	return
}

/*
resolveGhosts finds the off rank neighbor of every inter-partition face. Every off rank cell touching the face
becomes a ghost, the one sharing at least three of the face's nodes becomes the face neighbor.
*/
func (b *Builder) resolveGhosts(pending []int) error {
	var (
		m = b.m
	)
	for _, f := range pending {
		var (
			faceIDs  = m.FaceNodeGlobalIDs(f)
			neighbor = -1
		)
		for _, k := range b.nci.CellsTouching(faceIDs) {
			if b.assignment[k] == b.rank {
				continue
			}
			g := b.ghostFor(k)
			if sharedCount(b.gm.Elements[k].Nodes, faceIDs) < 3 {
				continue
			}
			if neighbor >= 0 {
				return types.NewTopologyError(b.rank,
					[]int{m.Cells[m.Faces[f].Parent].GlobalID, m.Ghosts[neighbor].GlobalID, k},
					faceIDs, "face shared by more than two cells")
			}
			neighbor = g
		}
		if neighbor < 0 {
			return types.NewTopologyError(b.rank, []int{m.Cells[m.Faces[f].Parent].GlobalID}, faceIDs,
				"face matches no boundary region and has no neighbor on any rank")
		}
		m.Faces[f].Neighbor = types.GhostRef(neighbor)
	}
	return nil
}

func (b *Builder) linkGhosts() {
	var (
		m = b.m
	)
	for g := range m.Ghosts {
		ghost := &m.Ghosts[g]
		for _, gn := range b.gm.Elements[ghost.GlobalID].Nodes {
			if ln, ok := m.LocalNode(gn); ok {
				ghost.Nodes = append(ghost.Nodes, ln)
				m.Nodes[ln].Ghosts = append(m.Nodes[ln].Ghosts, g)
			}
		}
		ghost.Cells = unionExcept(m, ghost.Nodes, -1)
		for _, c := range ghost.Cells {
			m.Cells[c].NeighborGhosts = append(m.Cells[c].NeighborGhosts, g)
		}
	}
}
