package types

import (
	"fmt"
	"sort"
)

/*
FaceKey stores the node ids of a face so that two faces can be compared independently of winding and starting node.
A face with nodes [7,3,5,1] is always stored as [1,3,5,7]; a triangle pads the unused slot with -1, [2,4,9,-1].
*/
type FaceKey [4]int

func NewFaceKey(nodes []int) (fk FaceKey, err error) {
	if len(nodes) < 3 || len(nodes) > 4 {
		err = fmt.Errorf("a face key needs 3 or 4 node ids, have %d", len(nodes))
		return
	}
	var (
		sorted = make([]int, len(nodes))
	)
	copy(sorted, nodes)
	sort.Ints(sorted)
	for i := range fk {
		fk[i] = -1
	}
	for i, n := range sorted {
		if n < 0 {
			err = fmt.Errorf("negative node id %d in face key", n)
			return
		}
		if i > 0 && sorted[i-1] == n {
			err = fmt.Errorf("repeated node id %d in face key", n)
			return
		}
		fk[i] = n
	}
	return
}

func (fk FaceKey) Len() (l int) {
	for _, n := range fk {
		if n >= 0 {
			l++
		}
	}
	return
}

func (fk FaceKey) Nodes() (nodes []int) {
	nodes = make([]int, 0, 4)
	for _, n := range fk {
		if n >= 0 {
			nodes = append(nodes, n)
		}
	}
	return
}

func (fk FaceKey) String() string {
	return fmt.Sprintf("%v", fk.Nodes())
}
