package mesh

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fvmesh/exchange"
)

// Small fixtures shared by the mesh and interpolation tests

var unitTetNodes = []r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}}

// SingleTet is one tetrahedron with all four faces in the region "wall"
func SingleTet() *GlobalMesh {
	return &GlobalMesh{
		Nodes:    append([]r3.Vec(nil), unitTetNodes...),
		Elements: []Element{{Shape: Tet, Nodes: []int{0, 1, 2, 3}}},
		Regions: []BoundaryRegion{
			{Name: "wall", Faces: [][]int{{0, 1, 2}, {0, 1, 3}, {1, 2, 3}, {0, 2, 3}}},
		},
	}
}

// InvertedTet is SingleTet with two nodes swapped, so every face winds into the cell
func InvertedTet() *GlobalMesh {
	gm := SingleTet()
	gm.Elements[0].Nodes = []int{0, 2, 1, 3}
	return gm
}

// HexPyramid is a unit hexahedron capped on top by a pyramid of height one half
func HexPyramid() *GlobalMesh {
	return &GlobalMesh{
		Nodes: []r3.Vec{
			{}, {X: 1}, {X: 1, Y: 1}, {Y: 1},
			{Z: 1}, {X: 1, Z: 1}, {X: 1, Y: 1, Z: 1}, {Y: 1, Z: 1},
			{X: 0.5, Y: 0.5, Z: 1.5},
		},
		Elements: []Element{
			{Shape: Hex, Nodes: []int{0, 1, 2, 3, 4, 5, 6, 7}},
			{Shape: Pyramid, Nodes: []int{4, 5, 6, 7, 8}},
		},
		Regions: []BoundaryRegion{
			{Name: "sides", Faces: [][]int{{0, 1, 5, 4}, {1, 2, 6, 5}, {2, 3, 7, 6}, {3, 0, 4, 7}}},
			{Name: "bottom", Faces: [][]int{{0, 1, 2, 3}}},
			{Name: "roof", Faces: [][]int{{4, 5, 8}, {5, 6, 8}, {6, 7, 8}, {7, 4, 8}}},
		},
	}
}

// AxisAssignment splits cells into nparts slabs of equal width along one axis (0, 1 or 2) by centroid
func AxisAssignment(gm *GlobalMesh, axis, nparts int) (assignment []int) {
	var (
		box = gm.BoundingBox()
		lo  = [3]float64{box.Min.X, box.Min.Y, box.Min.Z}[axis]
		hi  = [3]float64{box.Max.X, box.Max.Y, box.Max.Z}[axis]
	)
	assignment = make([]int, len(gm.Elements))
	for k := range gm.Elements {
		c := gm.ElementCentroid(k)
		x := [3]float64{c.X, c.Y, c.Z}[axis]
		p := int(float64(nparts) * (x - lo) / (hi - lo))
		if p >= nparts {
			p = nparts - 1
		}
		assignment[k] = p
	}
	return
}

// BuildRanks builds every rank concurrently, then handshakes, synchronises ghost centroids and computes metrics
func BuildRanks(ctx context.Context, gm *GlobalMesh, assignment []int, nranks int,
	logger *slog.Logger) (meshes []*Mesh, err error) {
	var grp *exchange.Group
	if grp, err = exchange.NewGroup(nranks); err != nil {
		return
	}
	meshes = make([]*Mesh, nranks)
	eg, ctx := errgroup.WithContext(ctx)
	for r := 0; r < nranks; r++ {
		ex := grp.Endpoint(r)
		eg.Go(func() (err error) {
			var m *Mesh
			if m, err = Build(gm, assignment, ex.Rank(), nranks, logger); err != nil {
				return
			}
			if err = m.Handshake(ctx, ex); err != nil {
				return
			}
			if err = m.SyncGhostCentroids(ctx, ex); err != nil {
				return
			}
			if err = m.ComputeMetrics(); err != nil {
				return
			}
			meshes[ex.Rank()] = m
			return
		})
	}
	if err = eg.Wait(); err != nil {
		meshes = nil
	}
	return
}
