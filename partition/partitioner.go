package partition

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/notargets/fvmesh/mesh"
	"github.com/notargets/fvmesh/types"
	"github.com/notargets/fvmesh/utils"
)

/*
Partitioner assigns every cell of the global mesh to one of nparts ranks. Implementations are deterministic and
return part sizes that differ by at most one.
*/
type Partitioner interface {
	Partition(elements []mesh.Element, nparts int) (assignment []int, err error)
}

type Factory func() Partitioner

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		"graph": func() Partitioner { return &GraphGrowing{} },
		"block": func() Partitioner { return &Block{} },
	}
)

// Register makes a partitioner available by name, partitioners needing cgo register themselves from their package
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = f
}

func New(name string) (Partitioner, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if len(name) == 0 {
		name = "graph"
	}
	f, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, types.NewConfigurationError("partitioner %q is not available, have %v", name, namesLocked())
	}
	return f(), nil
}

func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return namesLocked()
}

func namesLocked() (names []string) {
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return
}

// CheckParts accepts any positive part count, parts beyond the cell count stay empty
func CheckParts(numCells, nparts int) error {
	if numCells == 0 {
		return types.NewConfigurationError("mesh has no cells")
	}
	if nparts < 1 {
		return types.NewConfigurationError("partition count %d must be positive", nparts)
	}
	return nil
}

// TargetSizes splits numCells into nparts sizes differing by at most one, larger parts first
func TargetSizes(numCells, nparts int) (sizes []int) {
	pm := utils.NewPartitionMap(nparts, numCells)
	sizes = make([]int, nparts)
	for p := range sizes {
		sizes[p] = pm.GetBucketDimension(p)
	}
	return
}

// Block assigns consecutive runs of global cell order to each part
type Block struct{}

func (b *Block) Partition(elements []mesh.Element, nparts int) (assignment []int, err error) {
	if err = CheckParts(len(elements), nparts); err != nil {
		return
	}
	pm := utils.NewPartitionMap(nparts, len(elements))
	assignment = make([]int, len(elements))
	for k := range assignment {
		assignment[k], _, _ = pm.GetBucket(k)
	}
	return
}

// Fixed returns a caller supplied assignment after checking it, no balancing is applied
type Fixed struct {
	Assignment []int
}

func (fx *Fixed) Partition(elements []mesh.Element, nparts int) (assignment []int, err error) {
	if err = CheckParts(len(elements), nparts); err != nil {
		return
	}
	if len(fx.Assignment) != len(elements) {
		err = types.NewConfigurationError("fixed assignment has %d entries for %d cells",
			len(fx.Assignment), len(elements))
		return
	}
	for k, p := range fx.Assignment {
		if p < 0 || p >= nparts {
			err = types.NewConfigurationError("fixed assignment puts cell %d on part %d of %d", k, p, nparts)
			return
		}
	}
	assignment = append([]int(nil), fx.Assignment...)
	return
}

/*
GraphGrowing grows each part from a seed over the dual graph, always absorbing the frontier cell with the most faces
already inside the part (lowest cell index on ties), until the part reaches its target size. The seed of each new
part is the unassigned cell with the most faces on assigned cells, so parts are laid down in layers.
*/
type GraphGrowing struct{}

func (gg *GraphGrowing) Partition(elements []mesh.Element, nparts int) (assignment []int, err error) {
	if err = CheckParts(len(elements), nparts); err != nil {
		return
	}
	var dg *DualGraph
	if dg, err = NewDualGraph(elements); err != nil {
		return
	}
	return gg.PartitionGraph(dg, nparts)
}

func (gg *GraphGrowing) PartitionGraph(dg *DualGraph, nparts int) (assignment []int, err error) {
	var (
		n       = dg.NumVertices()
		targets = TargetSizes(n, nparts)
		next    = 0 // lowest possibly unassigned cell
	)
	if err = CheckParts(n, nparts); err != nil {
		return
	}
	assignment = make([]int, n)
	for k := range assignment {
		assignment[k] = -1
	}
	seed := func() int {
		best, bestCount := -1, 0
		for k := next; k < n; k++ {
			if assignment[k] >= 0 {
				continue
			}
			if best < 0 {
				best = k
			}
			count := 0
			for _, j := range dg.Neighbors(k) {
				if assignment[j] >= 0 {
					count++
				}
			}
			if count > bestCount {
				best, bestCount = k, count
			}
		}
		return best
	}
	for p := 0; p < nparts; p++ {
		var (
			size     = 0
			frontier = make(map[int]int) // cell -> faces shared with part p
		)
		add := func(k int) {
			assignment[k] = p
			delete(frontier, k)
			size++
			for _, j := range dg.Neighbors(k) {
				if assignment[j] < 0 {
					frontier[j]++
				}
			}
			for next < n && assignment[next] >= 0 {
				next++
			}
		}
		for size < targets[p] {
			if len(frontier) == 0 {
				s := seed()
				if s < 0 {
					return nil, fmt.Errorf("graph growing ran out of cells at part %d", p)
				}
				add(s)
				continue
			}
			best, bestGain := -1, -1
			for k, gain := range frontier {
				if gain > bestGain || (gain == bestGain && k < best) {
					best, bestGain = k, gain
				}
			}
			add(best)
		}
	}
	return
}
