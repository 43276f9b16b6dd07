package mesh

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fvmesh/geometry3D"
	"github.com/notargets/fvmesh/types"
)

// BlockSpec describes a structured block of cells between the given coordinate planes
type BlockSpec struct {
	Shape     ShapeType // Hex, or Tet for six tetrahedra per hexahedron
	X, Y, Z   []float64 // Strictly increasing plane coordinates, at least two per axis
	Dimension int
}

var blockSides = [6]string{"xmin", "xmax", "ymin", "ymax", "zmin", "zmax"}

// Kuhn subdivision of the unit hexahedron, each entry walks from corner 0 to corner 6 along one axis permutation
var kuhnTets = [6][4]int{
	{0, 1, 2, 6},
	{0, 3, 2, 6},
	{0, 1, 5, 6},
	{0, 4, 5, 6},
	{0, 3, 7, 6},
	{0, 4, 7, 6},
}

func UniformAxis(n int, length float64) (x []float64) {
	x = make([]float64, n+1)
	for i := range x {
		x[i] = length * float64(i) / float64(n)
	}
	return
}

// NewUniformBlock builds an nx by ny by nz block spanning [0,lx]x[0,ly]x[0,lz]
func NewUniformBlock(shape ShapeType, nx, ny, nz int, lx, ly, lz float64) (*GlobalMesh, error) {
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, types.NewConfigurationError("block needs at least one cell per axis, have %dx%dx%d", nx, ny, nz)
	}
	return NewBlock(BlockSpec{
		Shape: shape,
		X:     UniformAxis(nx, lx),
		Y:     UniformAxis(ny, ly),
		Z:     UniformAxis(nz, lz),
	})
}

/*
NewBlock builds a structured block mesh. Nodes are numbered x fastest, then y, then z, and hexahedra follow the same
order. Faces used by a single cell become the six boundary regions xmin, xmax, ymin, ymax, zmin and zmax.
*/
func NewBlock(spec BlockSpec) (gm *GlobalMesh, err error) {
	for a, axis := range [][]float64{spec.X, spec.Y, spec.Z} {
		if len(axis) < 2 {
			return nil, types.NewConfigurationError("block axis %d needs at least two planes", a)
		}
		for i := 1; i < len(axis); i++ {
			if !(axis[i] > axis[i-1]) {
				return nil, types.NewConfigurationError("block axis %d is not strictly increasing at %d", a, i)
			}
		}
	}
	if spec.Shape != Hex && spec.Shape != Tet {
		return nil, types.NewConfigurationError("block cells must be Hex or Tet, have %s", spec.Shape)
	}
	var (
		nx, ny, nz = len(spec.X) - 1, len(spec.Y) - 1, len(spec.Z) - 1
		nodeID     = func(i, j, k int) int { return i + (nx+1)*(j+(ny+1)*k) }
	)
	gm = &GlobalMesh{
		Nodes:     make([]r3.Vec, 0, (nx+1)*(ny+1)*(nz+1)),
		Dimension: spec.Dimension,
	}
	for k := 0; k <= nz; k++ {
		for j := 0; j <= ny; j++ {
			for i := 0; i <= nx; i++ {
				gm.Nodes = append(gm.Nodes, r3.Vec{X: spec.X[i], Y: spec.Y[j], Z: spec.Z[k]})
			}
		}
	}
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				hex := []int{
					nodeID(i, j, k), nodeID(i+1, j, k), nodeID(i+1, j+1, k), nodeID(i, j+1, k),
					nodeID(i, j, k+1), nodeID(i+1, j, k+1), nodeID(i+1, j+1, k+1), nodeID(i, j+1, k+1),
				}
				if spec.Shape == Hex {
					gm.Elements = append(gm.Elements, Element{Shape: Hex, Nodes: hex})
					continue
				}
				for _, kt := range kuhnTets {
					tet := []int{hex[kt[0]], hex[kt[1]], hex[kt[2]], hex[kt[3]]}
					if geometry3D.SignedTetVolume(gm.Nodes[tet[0]], gm.Nodes[tet[1]],
						gm.Nodes[tet[2]], gm.Nodes[tet[3]]) < 0 {
						tet[1], tet[2] = tet[2], tet[1]
					}
					gm.Elements = append(gm.Elements, Element{Shape: Tet, Nodes: tet})
				}
			}
		}
	}
	if gm.Regions, err = exposedFaceRegions(gm, spec); err != nil {
		return nil, err
	}
	return
}

func exposedFaceRegions(gm *GlobalMesh, spec BlockSpec) (regions []BoundaryRegion, err error) {
	var (
		count = make(map[types.FaceKey]int)
		order []types.FaceKey
		lo    = r3.Vec{X: spec.X[0], Y: spec.Y[0], Z: spec.Z[0]}
		hi    = r3.Vec{X: spec.X[len(spec.X)-1], Y: spec.Y[len(spec.Y)-1], Z: spec.Z[len(spec.Z)-1]}
	)
	for _, e := range gm.Elements {
		for _, f := range e.Faces() {
			var key types.FaceKey
			if key, err = types.NewFaceKey(f); err != nil {
				return
			}
			if count[key] == 0 {
				order = append(order, key)
			}
			count[key]++
		}
	}
	regions = make([]BoundaryRegion, len(blockSides))
	for s, name := range blockSides {
		regions[s].Name = name
	}
	on := func(nodes []int, coord func(r3.Vec) float64, plane float64) bool {
		for _, n := range nodes {
			if coord(gm.Nodes[n]) != plane {
				return false
			}
		}
		return true
	}
	coords := [3]func(r3.Vec) float64{
		func(p r3.Vec) float64 { return p.X },
		func(p r3.Vec) float64 { return p.Y },
		func(p r3.Vec) float64 { return p.Z },
	}
	planes := [6]float64{lo.X, hi.X, lo.Y, hi.Y, lo.Z, hi.Z}
	for _, key := range order {
		if count[key] != 1 {
			continue
		}
		nodes := key.Nodes()
		side := -1
		for s := range blockSides {
			if on(nodes, coords[s/2], planes[s]) {
				side = s
				break
			}
		}
		if side < 0 {
			return nil, fmt.Errorf("exposed face %v is not on the block surface", key)
		}
		regions[side].Faces = append(regions[side].Faces, nodes)
	}
	return
}
