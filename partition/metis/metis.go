//go:build metis

// Package metis partitions the dual graph with the METIS multilevel k-way algorithm, it needs cgo and libmetis
package metis

import (
	"fmt"
	"log/slog"

	gometis "github.com/notargets/go-metis"

	"github.com/notargets/fvmesh/mesh"
	"github.com/notargets/fvmesh/partition"
)

func init() {
	partition.Register("metis", func() partition.Partitioner { return New(DefaultConfig()) })
}

// Config holds configuration for METIS partitioning
type Config struct {
	ImbalanceFactor  float32 // e.g., 1.05 for 5% imbalance
	UseEdgeWeights   bool
	UseVertexWeights bool
	Objective        string // "cut" or "vol"
	Logger           *slog.Logger
}

// DefaultConfig balances cell counts and minimises communication volume
func DefaultConfig() *Config {
	return &Config{
		ImbalanceFactor:  1.05,
		UseEdgeWeights:   true,
		UseVertexWeights: false,
		Objective:        "vol",
	}
}

type Partitioner struct {
	config *Config
}

func New(config *Config) *Partitioner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Partitioner{config: config}
}

/*
Partition runs METIS on the dual graph and then rebalances its output, METIS only bounds the imbalance by
ImbalanceFactor while part sizes here may differ by at most one cell.
*/
func (mp *Partitioner) Partition(elements []mesh.Element, nparts int) (assignment []int, err error) {
	if err = partition.CheckParts(len(elements), nparts); err != nil {
		return
	}
	var (
		dg     *partition.DualGraph
		logger = mp.config.Logger
	)
	if logger == nil {
		logger = slog.Default()
	}
	if dg, err = partition.NewDualGraph(elements); err != nil {
		return
	}
	if nparts == 1 {
		return make([]int, len(elements)), nil
	}
	if nparts >= len(elements) {
		// One cell per part, METIS rejects more parts than vertices
		return (&partition.Block{}).Partition(elements, nparts)
	}
	logger.Info("partitioning with METIS", "cells", len(elements), "parts", nparts)

	xadj, adjncy, vwgt, adjwgt := dg.CSR()

	opts := make([]int32, gometis.NoOptions)
	if err = gometis.SetDefaultOptions(opts); err != nil {
		return nil, fmt.Errorf("failed to set METIS options: %w", err)
	}
	if mp.config.Objective == "vol" {
		opts[gometis.OptionObjType] = gometis.ObjTypeVol
	} else {
		opts[gometis.OptionObjType] = gometis.ObjTypeCut
	}
	ubvec := []float32{mp.config.ImbalanceFactor}

	var vwgtPtr, adjwgtPtr []int32
	if mp.config.UseVertexWeights {
		vwgtPtr = vwgt
	}
	if mp.config.UseEdgeWeights {
		adjwgtPtr = adjwgt
	}
	part, objval, err := gometis.PartGraphKwayWeighted(
		xadj, adjncy, vwgtPtr, adjwgtPtr,
		int32(nparts), nil, ubvec, opts,
	)
	if err != nil {
		return nil, fmt.Errorf("METIS partitioning failed: %w", err)
	}
	assignment = make([]int, len(elements))
	for k := range assignment {
		assignment[k] = int(part[k])
	}
	var moved int
	assignment, moved = partition.Rebalance(dg, assignment, nparts)
	logger.Info("METIS partition", "objective", objval, "rebalanced", moved)
	return
}
