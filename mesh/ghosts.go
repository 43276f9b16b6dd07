package mesh

import (
	"context"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fvmesh/exchange"
	"github.com/notargets/fvmesh/types"
)

// FieldSource provides the per cell solution state copied into the ghosts of neighboring ranks
type FieldSource interface {
	CellValues(c int) []float64
	CellGradients(c int) []r3.Vec
}

// CellFields is a FieldSource backed by slices indexed by local cell
type CellFields struct {
	Values    [][]float64
	Gradients [][]r3.Vec
}

func (cf *CellFields) CellValues(c int) []float64 {
	if c < len(cf.Values) {
		return cf.Values[c]
	}
	return nil
}

func (cf *CellFields) CellGradients(c int) []r3.Vec {
	if c < len(cf.Gradients) {
		return cf.Gradients[c]
	}
	return nil
}

// GhostRequests lists the global ids of the ghosts owned by each other rank, in ghost order
func (m *Mesh) GhostRequests() (req map[int][]int) {
	req = make(map[int][]int)
	for _, g := range m.Ghosts {
		req[g.Owner] = append(req[g.Owner], g.GlobalID)
	}
	return
}

func (m *Mesh) checkExchanger(ex exchange.Exchanger) error {
	if ex.Rank() != m.Rank || ex.Size() != m.NumRanks {
		return types.NewConfigurationError("exchanger is rank %d of %d, mesh is rank %d of %d",
			ex.Rank(), ex.Size(), m.Rank, m.NumRanks)
	}
	return nil
}

/*
Handshake tells every owning rank which of its cells this rank holds as ghosts, and records the reverse lists: the
local cells each other rank needs from us.
*/
func (m *Mesh) Handshake(ctx context.Context, ex exchange.Exchanger) error {
	if err := m.checkExchanger(ex); err != nil {
		return err
	}
	recv, err := ex.AllToAll(ctx, m.GhostRequests())
	if err != nil {
		return fmt.Errorf("rank %d ghost handshake: %w", m.Rank, err)
	}
	m.SendCells = make(map[int][]int, len(recv))
	ranks := make([]int, 0, len(recv))
	for r := range recv {
		ranks = append(ranks, r)
	}
	sort.Ints(ranks)
	for _, r := range ranks {
		cells := make([]int, len(recv[r]))
		for i, k := range recv[r] {
			c, ok := m.LocalCell(k)
			if !ok {
				return types.NewTopologyError(m.Rank, []int{k}, nil,
					"rank %d requested a cell this rank does not own", r)
			}
			cells[i] = c
		}
		m.SendCells[r] = cells
	}
	return nil
}

func (m *Mesh) exchangeRecords(ctx context.Context, ex exchange.Exchanger,
	fill func(c int, rec *exchange.Record), apply func(g int, rec exchange.Record)) error {
	if err := m.checkExchanger(ex); err != nil {
		return err
	}
	send := make(map[int][]exchange.Record, len(m.SendCells))
	for r, cells := range m.SendCells {
		recs := make([]exchange.Record, len(cells))
		for i, c := range cells {
			recs[i].GlobalID = m.Cells[c].GlobalID
			fill(c, &recs[i])
		}
		send[r] = recs
	}
	recv, err := ex.Exchange(ctx, send)
	if err != nil {
		return fmt.Errorf("rank %d ghost exchange: %w", m.Rank, err)
	}
	updated := make([]bool, len(m.Ghosts))
	for r, recs := range recv {
		for _, rec := range recs {
			g, ok := m.LocalGhost(rec.GlobalID)
			if !ok || m.Ghosts[g].Owner != r {
				return types.NewTopologyError(m.Rank, []int{rec.GlobalID}, nil,
					"rank %d sent a record for a cell that is not one of its ghosts here", r)
			}
			apply(g, rec)
			updated[g] = true
		}
	}
	for g, ok := range updated {
		if !ok {
			return types.NewTopologyError(m.Rank, []int{m.Ghosts[g].GlobalID}, nil,
				"owner rank %d sent no record for ghost", m.Ghosts[g].Owner)
		}
	}
	return nil
}

// SyncGhostCentroids replaces each ghost centroid with the one computed by its owner
func (m *Mesh) SyncGhostCentroids(ctx context.Context, ex exchange.Exchanger) error {
	return m.exchangeRecords(ctx, ex,
		func(c int, rec *exchange.Record) { rec.Centroid = m.Cells[c].Centroid },
		func(g int, rec exchange.Record) { m.Ghosts[g].Centroid = rec.Centroid })
}

// RefreshGhosts copies the current primitive values and gradients of owned cells into the remote ghosts
func (m *Mesh) RefreshGhosts(ctx context.Context, ex exchange.Exchanger, src FieldSource) error {
	return m.exchangeRecords(ctx, ex,
		func(c int, rec *exchange.Record) {
			rec.Values = src.CellValues(c)
			rec.Gradients = src.CellGradients(c)
		},
		func(g int, rec exchange.Record) {
			m.Ghosts[g].Values = rec.Values
			m.Ghosts[g].Gradients = rec.Gradients
		})
}
