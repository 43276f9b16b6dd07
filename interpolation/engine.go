package interpolation

import (
	"context"
	"errors"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/notargets/fvmesh/mesh"
	"github.com/notargets/fvmesh/types"
	"github.com/notargets/fvmesh/utils"
)

// FaceWeights is the outcome of the weight computation for one face
type FaceWeights struct {
	Class    types.Classification
	Stencil  int // members selected before solving
	Weights  types.WeightMap
	Warnings int
}

// Report summarizes a weight computation over all faces of a rank
type Report struct {
	Method       types.InterpolationMethod
	Classes      []types.Classification // per face
	StencilSizes []int                  // per face
	Counts       map[types.Classification]int
	Warnings     int
}

func (r *Report) Log(logger *slog.Logger) {
	for _, class := range []types.Classification{types.Tetra, types.Tri, types.Line, types.Point, types.Unclassified} {
		if n := r.Counts[class]; n != 0 {
			logger.Info("face interpolation", "method", r.Method.String(),
				"class", class.String(), "faces", n)
		}
	}
	if r.Warnings != 0 {
		logger.Warn("face interpolation warnings", "count", r.Warnings)
	}
}

/*
Engine computes face interpolation weights over a mesh whose topology and metrics are complete. The mesh is only
read, except for the Weights of each face which ComputeAll writes.
*/
type Engine struct {
	mesh   *mesh.Mesh
	cfg    Config
	logger *slog.Logger
	tree   *kdtree.Tree
}

func NewEngine(m *mesh.Mesh, cfg Config, logger *slog.Logger) (e *Engine, err error) {
	if err = cfg.Validate(); err != nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	e = &Engine{
		mesh:   m,
		cfg:    cfg.withDefaults(),
		logger: logger,
	}
	if e.cfg.Method == types.IDW && m.NumCells()+m.NumGhosts() != 0 {
		e.tree = newCentroidTree(m)
	}
	return
}

// ComputeFace computes the weights of face f without modifying the mesh
func (e *Engine) ComputeFace(f int, s *Scratch) (fw FaceWeights, err error) {
	if f < 0 || f >= e.mesh.NumFaces() {
		err = types.NewTopologyError(e.mesh.Rank, nil, nil, "face %d outside [0,%d)", f, e.mesh.NumFaces())
		return
	}
	switch e.cfg.Method {
	case types.WTLI:
		cands := Candidates(e.mesh, f, s)
		SelectStencil(e.mesh, f, e.cfg.StencilCap(e.mesh.Dimension, len(cands)), s)
		fw.Stencil = len(s.selected)
		fw.Class, fw.Weights, fw.Warnings, err = e.wtli(f, s)
	case types.IDW:
		fw.Class = types.Unclassified
		limit := e.cfg.StencilCap(e.mesh.Dimension, e.mesh.NumCells()+e.mesh.NumGhosts())
		fw.Weights, err = e.idw(f, limit, s)
		fw.Stencil = len(s.selected)
	case types.Simple:
		fw.Class, fw.Weights = e.simple(f, s)
		fw.Stencil = len(s.selected)
	}
	if err != nil {
		fw.Weights = nil
		var me *types.MeshError
		if errors.As(err, &me) && len(me.CellIDs) == 0 {
			me.CellIDs = []int{e.mesh.MemberGlobalID(types.CellMember(e.mesh.Faces[f].Parent))}
			me.NodeIDs = e.mesh.FaceNodeGlobalIDs(f)
		}
	}
	return
}

/*
ComputeAll computes the weights of every face and stores them in the mesh. Faces are split into contiguous ranges,
one per worker, and each worker reuses its own Scratch. The first failing face aborts the computation.
*/
func (e *Engine) ComputeAll(ctx context.Context) (rpt *Report, err error) {
	var (
		nf      = e.mesh.NumFaces()
		workers = e.cfg.Workers
		results = make([]FaceWeights, nf)
	)
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = max(1, min(workers, nf))
	pm := utils.NewPartitionMap(workers, nf)
	g, ctx := errgroup.WithContext(ctx)
	for bn := 0; bn < workers; bn++ {
		kMin, kMax := pm.GetBucketRange(bn)
		g.Go(func() error {
			s := NewScratch()
			for f := kMin; f < kMax; f++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				fw, err := e.ComputeFace(f, s)
				if err != nil {
					return err
				}
				results[f] = fw
			}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return
	}
	rpt = &Report{
		Method:       e.cfg.Method,
		Classes:      make([]types.Classification, nf),
		StencilSizes: make([]int, nf),
		Counts:       make(map[types.Classification]int),
	}
	for f, fw := range results {
		e.mesh.Faces[f].Weights = fw.Weights
		rpt.Classes[f] = fw.Class
		rpt.StencilSizes[f] = fw.Stencil
		rpt.Counts[fw.Class]++
		rpt.Warnings += fw.Warnings
	}
	rpt.Log(e.logger)
	return
}
