package geometry3D

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// Area of an equilateral triangle with unit edge
	EquilateralTriArea = math.Sqrt(3.) / 4.
	// Volume of a regular tetrahedron with unit edge
	EquilateralTetVolume = math.Sqrt(2.) / 12.
)

type BoundingBox struct {
	Min, Max r3.Vec
}

func NewBoundingBox(points []r3.Vec) (box *BoundingBox) {
	if len(points) == 0 {
		return nil
	}
	box = &BoundingBox{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		box.Min.X, box.Max.X = math.Min(box.Min.X, p.X), math.Max(box.Max.X, p.X)
		box.Min.Y, box.Max.Y = math.Min(box.Min.Y, p.Y), math.Max(box.Max.Y, p.Y)
		box.Min.Z, box.Max.Z = math.Min(box.Min.Z, p.Z), math.Max(box.Max.Z, p.Z)
	}
	return
}

func (bb *BoundingBox) Centroid() r3.Vec {
	return r3.Scale(0.5, r3.Add(bb.Min, bb.Max))
}

// Diagonal is the length of the box diagonal, used as a length scale for relative tolerances
func (bb *BoundingBox) Diagonal() float64 {
	return r3.Norm(r3.Sub(bb.Max, bb.Min))
}

// Mean is the arithmetic mean of the points
func Mean(points []r3.Vec) (c r3.Vec) {
	if len(points) == 0 {
		return
	}
	for _, p := range points {
		c = r3.Add(c, p)
	}
	return r3.Scale(1./float64(len(points)), c)
}

func Distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

func TriangleArea(a, b, c r3.Vec) float64 {
	return 0.5 * r3.Norm(r3.Cross(r3.Sub(b, a), r3.Sub(c, a)))
}

// TetVolume is the unsigned volume of the tetrahedron abcd
func TetVolume(a, b, c, d r3.Vec) float64 {
	return math.Abs(SignedTetVolume(a, b, c, d))
}

func SignedTetVolume(a, b, c, d r3.Vec) float64 {
	return r3.Dot(r3.Sub(b, a), r3.Cross(r3.Sub(c, a), r3.Sub(d, a))) / 6.
}

func AverageTriEdge(a, b, c r3.Vec) float64 {
	return (Distance(a, b) + Distance(b, c) + Distance(c, a)) / 3.
}

func AverageTetEdge(a, b, c, d r3.Vec) float64 {
	return (Distance(a, b) + Distance(a, c) + Distance(a, d) +
		Distance(b, c) + Distance(b, d) + Distance(c, d)) / 6.
}

// TriSkewness is the area of abc relative to the equilateral triangle with the same average edge
func TriSkewness(a, b, c r3.Vec) (skew, aveEdge float64) {
	aveEdge = AverageTriEdge(a, b, c)
	if aveEdge == 0 {
		return
	}
	skew = TriangleArea(a, b, c) / (EquilateralTriArea * aveEdge * aveEdge)
	return
}

// TetSkewness is the volume of abcd relative to the regular tetrahedron with the same average edge
func TetSkewness(a, b, c, d r3.Vec) (skew, aveEdge float64) {
	aveEdge = AverageTetEdge(a, b, c, d)
	if aveEdge == 0 {
		return
	}
	skew = TetVolume(a, b, c, d) / (EquilateralTetVolume * aveEdge * aveEdge * aveEdge)
	return
}

/*
PolygonAreaVector returns the node mean and the area vector of a polygon with nodes in winding order. The polygon is
fanned into triangles from the node mean, so non planar quads get the averaged normal. The area vector points along
the right hand normal of the winding, its length is the area.
*/
func PolygonAreaVector(points []r3.Vec) (centroid, area r3.Vec) {
	var (
		n = len(points)
	)
	centroid = Mean(points)
	for i := 0; i < n; i++ {
		a := r3.Sub(points[i], centroid)
		b := r3.Sub(points[(i+1)%n], centroid)
		area = r3.Add(area, r3.Scale(0.5, r3.Cross(a, b)))
	}
	return
}

// ProjectToPlane projects p onto the plane through origin with unit normal n
func ProjectToPlane(p, origin, n r3.Vec) r3.Vec {
	return r3.Sub(p, r3.Scale(r3.Dot(r3.Sub(p, origin), n), n))
}

// Collinear reports whether c lies on the line through a and b, relative to the squared size of the triangle edges
func Collinear(a, b, c r3.Vec, tol float64) bool {
	skew, aveEdge := TriSkewness(a, b, c)
	if aveEdge == 0 {
		return true
	}
	return skew <= tol
}
