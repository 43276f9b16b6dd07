package types

import (
	"fmt"
	"math"
	"sort"
)

// RefKind discriminates what the far side of a face is
type RefKind uint8

const (
	RefUnassigned RefKind = iota
	RefCell
	RefGhost
	RefBoundary
)

func (k RefKind) String() string {
	return [...]string{"Unassigned", "Cell", "Ghost", "Boundary"}[k]
}

/*
NeighborRef is the tagged reference held by a face for its neighbor. Index is a local cell index, a ghost index or a
boundary region ordinal depending on Kind, and is meaningless for RefUnassigned.
*/
type NeighborRef struct {
	Kind  RefKind
	Index int
}

func CellRef(i int) NeighborRef     { return NeighborRef{Kind: RefCell, Index: i} }
func GhostRef(i int) NeighborRef    { return NeighborRef{Kind: RefGhost, Index: i} }
func BoundaryRef(i int) NeighborRef { return NeighborRef{Kind: RefBoundary, Index: i} }
func Unassigned() NeighborRef       { return NeighborRef{Kind: RefUnassigned, Index: -1} }

func (nr NeighborRef) IsInternal() bool   { return nr.Kind == RefCell }
func (nr NeighborRef) IsGhost() bool      { return nr.Kind == RefGhost }
func (nr NeighborRef) IsBoundary() bool   { return nr.Kind == RefBoundary }
func (nr NeighborRef) IsUnassigned() bool { return nr.Kind == RefUnassigned }

func (nr NeighborRef) String() string {
	if nr.Kind == RefUnassigned {
		return nr.Kind.String()
	}
	return fmt.Sprintf("%s[%d]", nr.Kind, nr.Index)
}

type MemberKind uint8

const (
	MemberCell MemberKind = iota
	MemberGhost
)

// StencilMember identifies a local cell or a ghost contributing to a face interpolation
type StencilMember struct {
	Kind  MemberKind
	Index int
}

func CellMember(i int) StencilMember  { return StencilMember{Kind: MemberCell, Index: i} }
func GhostMember(i int) StencilMember { return StencilMember{Kind: MemberGhost, Index: i} }

// Less orders cells before ghosts, then by index
func (sm StencilMember) Less(o StencilMember) bool {
	if sm.Kind != o.Kind {
		return sm.Kind < o.Kind
	}
	return sm.Index < o.Index
}

func (sm StencilMember) String() string {
	if sm.Kind == MemberGhost {
		return fmt.Sprintf("Ghost[%d]", sm.Index)
	}
	return fmt.Sprintf("Cell[%d]", sm.Index)
}

func SortMembers(members []StencilMember) {
	sort.Slice(members, func(i, j int) bool { return members[i].Less(members[j]) })
}

// WeightMap holds the interpolation weight of each stencil member of a face
type WeightMap map[StencilMember]float64

func (wm WeightMap) Sum() (sum float64) {
	// Summation in member order keeps the result independent of map iteration
	for _, m := range wm.Members() {
		sum += wm[m]
	}
	return
}

func (wm WeightMap) Members() (members []StencilMember) {
	members = make([]StencilMember, 0, len(wm))
	for m := range wm {
		members = append(members, m)
	}
	SortMembers(members)
	return
}

func (wm WeightMap) Add(m StencilMember, w float64) {
	wm[m] += w
}

// Normalize rescales the weights to sum to one, it returns false when the sum is zero or not finite
func (wm WeightMap) Normalize() bool {
	sum := wm.Sum()
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return false
	}
	for m := range wm {
		wm[m] /= sum
	}
	return true
}
