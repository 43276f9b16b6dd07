package partition

import (
	"log/slog"
	"math"
	"sort"

	"github.com/notargets/fvmesh/mesh"
)

// PartitionStats holds statistics for a single partition
type PartitionStats struct {
	ID           int
	NumElements  int
	ComputeLoad  int64
	ElementTypes map[mesh.ShapeType]int
	NumNeighbors map[int]int // neighbor partition -> shared faces
	Components   int
}

// Analysis summarises the quality of an assignment
type Analysis struct {
	Parts          []PartitionStats
	CutEdges       int
	CommVolume     int64
	LoadImbalance  float64 // max load over average load, minus one
	CountImbalance int     // largest minus smallest part
	Interfaces     map[[2]int]int
}

func Analyze(dg *DualGraph, assignment []int, nparts int) (an *Analysis) {
	an = &Analysis{
		Parts:      make([]PartitionStats, nparts),
		Interfaces: make(map[[2]int]int),
	}
	members := make([][]int, nparts)
	for i := range an.Parts {
		an.Parts[i].ID = i
		an.Parts[i].ElementTypes = make(map[mesh.ShapeType]int)
		an.Parts[i].NumNeighbors = make(map[int]int)
	}
	for k, p := range assignment {
		stats := &an.Parts[p]
		stats.NumElements++
		stats.ElementTypes[dg.Shape(k)]++
		stats.ComputeLoad += int64(ComputeCost(dg.Shape(k)))
		members[p] = append(members[p], k)
	}
	for k, nbrs := range dg.neighbors {
		for _, j := range nbrs {
			p1, p2 := assignment[k], assignment[j]
			if j <= k || p1 == p2 {
				continue
			}
			an.CutEdges++
			an.CommVolume += int64(CommCost(int(dg.EdgeWeight(k, j))))
			an.Parts[p1].NumNeighbors[p2]++
			an.Parts[p2].NumNeighbors[p1]++
			if p1 > p2 {
				p1, p2 = p2, p1
			}
			an.Interfaces[[2]int{p1, p2}]++
		}
	}
	var (
		avgLoad          float64
		maxLoad          int64
		minLoad          = int64(math.MaxInt64)
		minCount, maxCnt = math.MaxInt, 0
	)
	for p := range an.Parts {
		stats := &an.Parts[p]
		if stats.NumElements != 0 {
			stats.Components = dg.Subgraph(members[p]).Components()
		}
		avgLoad += float64(stats.ComputeLoad)
		maxLoad = max(maxLoad, stats.ComputeLoad)
		minLoad = min(minLoad, stats.ComputeLoad)
		minCount = min(minCount, stats.NumElements)
		maxCnt = max(maxCnt, stats.NumElements)
	}
	avgLoad /= float64(nparts)
	if avgLoad > 0 {
		an.LoadImbalance = float64(maxLoad)/avgLoad - 1.
	}
	an.CountImbalance = maxCnt - minCount
	return
}

func (an *Analysis) Log(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("partition analysis",
		"parts", len(an.Parts), "cutEdges", an.CutEdges, "commVolume", an.CommVolume,
		"loadImbalancePct", 100*an.LoadImbalance, "countImbalance", an.CountImbalance)
	for _, stats := range an.Parts {
		logger.Debug("partition",
			"id", stats.ID, "elements", stats.NumElements, "load", stats.ComputeLoad,
			"neighbors", len(stats.NumNeighbors), "components", stats.Components)
	}
	pairs := make([][2]int, 0, len(an.Interfaces))
	for pair := range an.Interfaces {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	for _, pair := range pairs {
		logger.Debug("partition interface", "a", pair[0], "b", pair[1], "faces", an.Interfaces[pair])
	}
}
