package interpolation

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fvmesh/geometry3D"
	"github.com/notargets/fvmesh/types"
)

/*
Classify finds the interpolation shape supported by a set of stencil centroids. The first two centroids define a line;
the first centroid making a triangle with them whose skewness exceeds areaTol lifts the stencil to TRI. For three
dimensional meshes the triangle is then tested against the remaining centroids for a tetrahedron whose skewness
exceeds volTol.
*/
func Classify(centroids []r3.Vec, dimension int, areaTol, volTol float64) types.Classification {
	switch len(centroids) {
	case 0, 1:
		return types.Point
	case 2:
		return types.Line
	}
	var (
		c0, c1 = centroids[0], centroids[1]
		third  = -1
	)
	for k := 2; k < len(centroids); k++ {
		if !geometry3D.Collinear(c0, c1, centroids[k], areaTol) {
			third = k
			break
		}
	}
	if third < 0 {
		return types.Line
	}
	if dimension != 3 {
		return types.Tri
	}
	for k := third + 1; k < len(centroids); k++ {
		if skew, _ := geometry3D.TetSkewness(c0, c1, centroids[third], centroids[k]); skew > volTol {
			return types.Tetra
		}
	}
	return types.Tri
}
