package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/notargets/fvmesh/exchange"
	"github.com/notargets/fvmesh/interpolation"
	"github.com/notargets/fvmesh/mesh"
	"github.com/notargets/fvmesh/partition"
	"github.com/notargets/fvmesh/types"
)

// ErrNoPartition is returned by the ranks waiting on a partition that rank 0 failed to produce
var ErrNoPartition = errors.New("rank 0 did not partition the mesh")

type Config struct {
	Ranks         int
	Partitioner   partition.Partitioner // nil selects graph growing
	Interpolation interpolation.Config
	Logger        *slog.Logger
}

func (c *Config) Validate() error {
	if c.Ranks < 1 {
		return types.NewConfigurationError("rank count %d must be positive", c.Ranks)
	}
	if err := c.Interpolation.Validate(); err != nil {
		return err
	}
	if c.Partitioner == nil {
		p, err := partition.New("")
		if err != nil {
			return err
		}
		c.Partitioner = p
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return nil
}

// Result is the preprocessed state of one rank
type Result struct {
	Mesh     *mesh.Mesh
	Report   *interpolation.Report
	Analysis *partition.Analysis // rank 0 only
}

/*
RunRank runs every stage for the rank of ex. Rank 0 partitions the global mesh and broadcasts the assignment, then
each rank builds its local topology, learns which of its cells other ranks hold as ghosts, receives its ghost
centroids, computes metrics and finally interpolation weights. Every rank of the group must call RunRank.
*/
func RunRank(ctx context.Context, ex exchange.Exchanger, gm *mesh.GlobalMesh, cfg Config) (res *Result, err error) {
	if err = cfg.Validate(); err != nil {
		return
	}
	if ex.Size() != cfg.Ranks {
		return nil, types.NewConfigurationError("exchange group has %d ranks, configured for %d", ex.Size(), cfg.Ranks)
	}
	var (
		rank       = ex.Rank()
		logger     = cfg.Logger.With("rank", rank)
		assignment []int
		partErr    error
	)
	res = &Result{}
	if rank == 0 {
		if assignment, partErr = partitionMesh(gm, cfg, res); partErr != nil {
			assignment = nil
			var me *types.MeshError
			if errors.As(partErr, &me) && me.Rank < 0 {
				me.WithRank(rank)
			}
		} else {
			res.Analysis.Log(logger)
		}
	}
	// A failed partition is broadcast as an empty assignment so no rank waits on rank 0
	assignment, err = ex.Broadcast(ctx, 0, assignment)
	if partErr != nil {
		return nil, partErr
	}
	if err != nil {
		return nil, fmt.Errorf("partition broadcast: %w", err)
	}
	if len(assignment) != gm.NumElements() {
		return nil, fmt.Errorf("rank %d: %w", rank, ErrNoPartition)
	}
	if res.Mesh, err = mesh.Build(gm, assignment, rank, cfg.Ranks, logger); err != nil {
		return nil, err
	}
	m := res.Mesh
	if err = m.Handshake(ctx, ex); err != nil {
		return nil, fmt.Errorf("ghost handshake: %w", err)
	}
	if err = m.SyncGhostCentroids(ctx, ex); err != nil {
		return nil, fmt.Errorf("ghost centroids: %w", err)
	}
	if err = m.ComputeMetrics(); err != nil {
		return nil, err
	}
	var engine *interpolation.Engine
	if engine, err = interpolation.NewEngine(m, cfg.Interpolation, logger); err != nil {
		return nil, err
	}
	if res.Report, err = engine.ComputeAll(ctx); err != nil {
		return nil, err
	}
	return
}

func partitionMesh(gm *mesh.GlobalMesh, cfg Config, res *Result) (assignment []int, err error) {
	if err = gm.Validate(); err != nil {
		return
	}
	if err = partition.CheckParts(gm.NumElements(), cfg.Ranks); err != nil {
		return
	}
	if assignment, err = cfg.Partitioner.Partition(gm.Elements, cfg.Ranks); err != nil {
		return
	}
	var dg *partition.DualGraph
	if dg, err = partition.NewDualGraph(gm.Elements); err != nil {
		return
	}
	res.Analysis = partition.Analyze(dg, assignment, cfg.Ranks)
	return
}

/*
Run preprocesses gm on cfg.Ranks ranks running concurrently in this process. The first failing rank cancels the
others and its error is returned.
*/
func Run(ctx context.Context, gm *mesh.GlobalMesh, cfg Config) (results []*Result, err error) {
	if err = cfg.Validate(); err != nil {
		return
	}
	var (
		runID = uuid.New()
		grp   *exchange.Group
	)
	cfg.Logger = cfg.Logger.With("run", runID.String())
	if grp, err = exchange.NewGroup(cfg.Ranks); err != nil {
		return
	}
	cfg.Logger.Info("preprocessing mesh",
		"cells", gm.NumElements(), "nodes", len(gm.Nodes), "ranks", cfg.Ranks,
		"method", cfg.Interpolation.Method.String())
	results = make([]*Result, cfg.Ranks)
	errs := make([]error, cfg.Ranks)
	g, ctx := errgroup.WithContext(ctx)
	for r := 0; r < cfg.Ranks; r++ {
		ex := grp.Endpoint(r)
		g.Go(func() error {
			results[r], errs[r] = RunRank(ctx, ex, gm, cfg)
			return errs[r]
		})
	}
	if g.Wait() != nil {
		return nil, rootCause(errs)
	}
	return
}

// rootCause prefers the lowest rank error that is not a consequence of another rank failing
func rootCause(errs []error) error {
	for _, err := range errs {
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, ErrNoPartition) {
			return err
		}
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
