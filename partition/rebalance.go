package partition

import (
	"sort"
)

/*
Rebalance moves cells so part sizes differ by at most one, whatever heuristic produced the assignment. Parts keep
their identity: the currently largest parts get the larger target sizes. Cells are moved from over full parts to
under full neighboring parts in ascending cell order, and only when no neighboring move exists is the lowest
numbered cell of an over full part moved to the lowest numbered under full part. The result is deterministic.
*/
func Rebalance(dg *DualGraph, assignment []int, nparts int) (balanced []int, moved int) {
	var (
		n       = len(assignment)
		counts  = make([]int, nparts)
		targets = make([]int, nparts)
		order   = make([]int, nparts)
	)
	balanced = append([]int(nil), assignment...)
	for _, p := range balanced {
		counts[p]++
	}
	for p := range order {
		order[p] = p
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	sizes := TargetSizes(n, nparts)
	for rank, p := range order {
		targets[p] = sizes[rank]
	}
	over := func(p int) bool { return counts[p] > targets[p] }
	under := func(p int) bool { return counts[p] < targets[p] }
	balancedNow := func() bool {
		for p := range counts {
			if counts[p] != targets[p] {
				return false
			}
		}
		return true
	}
	move := func(k, q int) {
		counts[balanced[k]]--
		counts[q]++
		balanced[k] = q
		moved++
	}
	for !balancedNow() {
		progress := false
		for k := 0; k < n; k++ {
			if !over(balanced[k]) {
				continue
			}
			for _, j := range dg.Neighbors(k) {
				if q := balanced[j]; under(q) {
					move(k, q)
					progress = true
					break
				}
			}
		}
		if progress {
			continue
		}
		// Over and under full parts do not touch, move one cell directly
		q := -1
		for p := range counts {
			if under(p) {
				q = p
				break
			}
		}
		for k := 0; k < n; k++ {
			if over(balanced[k]) {
				move(k, q)
				break
			}
		}
	}
	return
}

// IsBalanced reports whether every cell is on a valid part and part sizes differ by at most one
func IsBalanced(assignment []int, nparts int) bool {
	counts := make([]int, nparts)
	for _, p := range assignment {
		if p < 0 || p >= nparts {
			return false
		}
		counts[p]++
	}
	lo, hi := counts[0], counts[0]
	for _, c := range counts {
		lo, hi = min(lo, c), max(hi, c)
	}
	return hi-lo <= 1
}
