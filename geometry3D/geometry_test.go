package geometry3D

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestPrimitives(t *testing.T) {
	var (
		o  = r3.Vec{}
		ex = r3.Vec{X: 1}
		ey = r3.Vec{Y: 1}
		ez = r3.Vec{Z: 1}
	)
	assert.InDelta(t, 0.5, TriangleArea(o, ex, ey), 1.e-15)
	assert.InDelta(t, 1./6., TetVolume(o, ex, ey, ez), 1.e-15)
	assert.InDelta(t, 1./6., TetVolume(o, ey, ex, ez), 1.e-15)
	assert.InDelta(t, -1./6., SignedTetVolume(o, ey, ex, ez), 1.e-15)
	assert.Equal(t, r3.Vec{X: 1. / 3, Y: 1. / 3}, Mean([]r3.Vec{o, ex, ey}))
	assert.Equal(t, r3.Vec{}, Mean(nil))

	// Regular shapes have unit skewness
	h := math.Sqrt(3.) / 2.
	skew, edge := TriSkewness(o, ex, r3.Vec{X: 0.5, Y: h})
	assert.InDelta(t, 1., skew, 1.e-12)
	assert.InDelta(t, 1., edge, 1.e-12)
	a := r3.Vec{X: 1, Y: 1, Z: 1}
	b := r3.Vec{X: 1, Y: -1, Z: -1}
	c := r3.Vec{X: -1, Y: 1, Z: -1}
	d := r3.Vec{X: -1, Y: -1, Z: 1}
	skew, edge = TetSkewness(a, b, c, d)
	assert.InDelta(t, 1., skew, 1.e-12)
	assert.InDelta(t, 2*math.Sqrt2, edge, 1.e-12)

	assert.True(t, Collinear(o, ex, r3.Vec{X: 3}, 1.e-3))
	assert.False(t, Collinear(o, ex, ey, 1.e-3))
}

func TestPolygonAreaVector(t *testing.T) {
	// Unit square wound counter clockwise about +z
	sq := []r3.Vec{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}}
	c, area := PolygonAreaVector(sq)
	assert.Equal(t, r3.Vec{X: 0.5, Y: 0.5}, c)
	assert.InDelta(t, 0., area.X, 1.e-15)
	assert.InDelta(t, 0., area.Y, 1.e-15)
	assert.InDelta(t, 1., area.Z, 1.e-15)

	// Reversed winding flips the normal
	_, area = PolygonAreaVector([]r3.Vec{sq[0], sq[3], sq[2], sq[1]})
	assert.InDelta(t, -1., area.Z, 1.e-15)

	tri := []r3.Vec{{}, {Y: 2}, {Z: 2}}
	_, area = PolygonAreaVector(tri)
	assert.InDelta(t, 2., area.X, 1.e-15)
}

func TestBoundingBox(t *testing.T) {
	assert.Nil(t, NewBoundingBox(nil))
	bb := NewBoundingBox([]r3.Vec{{X: 1, Y: -1}, {X: -2, Y: 3, Z: 4}, {Z: -4}})
	assert.Equal(t, r3.Vec{X: -2, Y: -1, Z: -4}, bb.Min)
	assert.Equal(t, r3.Vec{X: 1, Y: 3, Z: 4}, bb.Max)
	assert.Equal(t, r3.Vec{X: -0.5, Y: 1}, bb.Centroid())
	assert.InDelta(t, math.Sqrt(9+16+64), bb.Diagonal(), 1.e-12)

	p := ProjectToPlane(r3.Vec{X: 1, Y: 2, Z: 3}, r3.Vec{Z: 1}, r3.Vec{Z: 1})
	assert.Equal(t, r3.Vec{X: 1, Y: 2, Z: 1}, p)
}
