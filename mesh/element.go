package mesh

import (
	"fmt"
	"strings"
)

// ShapeType represents the supported cell shapes
type ShapeType uint8

const (
	Tet ShapeType = iota
	Prism
	Pyramid
	Hex
)

func (s ShapeType) String() string {
	return [...]string{"Tet", "Prism", "Pyramid", "Hex"}[s]
}

var ShapeNameMap = map[string]ShapeType{
	"tet":         Tet,
	"tetrahedron": Tet,
	"prism":       Prism,
	"wedge":       Prism,
	"pyramid":     Pyramid,
	"hex":         Hex,
	"hexahedron":  Hex,
}

func NewShapeType(label string) (s ShapeType, err error) {
	var ok bool
	if s, ok = ShapeNameMap[strings.ToLower(label)]; !ok {
		err = fmt.Errorf("unknown cell shape %q", label)
	}
	return
}

func (s ShapeType) NumNodes() int {
	return [...]int{4, 6, 5, 8}[s]
}

func (s ShapeType) NumFaces() int {
	return len(faceTemplates[s])
}

/*
Face templates list the local node positions of each face, wound so the right hand normal points out of the cell.
Node numbering follows the usual convention: the hexahedron has nodes 0-3 counter clockwise on the bottom and 4-7
above them, the prism has 0-2 on the bottom and 3-5 above, the pyramid has the base 0-3 and the apex 4.
*/
var faceTemplates = [...][][]int{
	Tet: {
		{0, 2, 1},
		{0, 1, 3},
		{1, 2, 3},
		{0, 3, 2},
	},
	Prism: {
		{0, 2, 1},
		{3, 4, 5},
		{0, 1, 4, 3},
		{1, 2, 5, 4},
		{2, 0, 3, 5},
	},
	Pyramid: {
		{0, 3, 2, 1},
		{0, 1, 4},
		{1, 2, 4},
		{2, 3, 4},
		{3, 0, 4},
	},
	Hex: {
		{0, 3, 2, 1}, // bottom
		{4, 5, 6, 7}, // top
		{0, 1, 5, 4},
		{1, 2, 6, 5},
		{2, 3, 7, 6},
		{3, 0, 4, 7},
	},
}

// FaceTemplates returns the outward wound local node positions of each face of the shape
func (s ShapeType) FaceTemplates() [][]int {
	return faceTemplates[s]
}

// Element is a cell of the global mesh, Nodes are global node ids in the shape's canonical order
type Element struct {
	Shape ShapeType
	Nodes []int
}

// Faces returns the face node lists of the element in terms of its own node ids
func (e Element) Faces() (faces [][]int) {
	tmpl := e.Shape.FaceTemplates()
	faces = make([][]int, len(tmpl))
	for i, f := range tmpl {
		faces[i] = make([]int, len(f))
		for j, ln := range f {
			faces[i][j] = e.Nodes[ln]
		}
	}
	return
}
