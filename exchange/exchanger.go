package exchange

import (
	"context"

	"gonum.org/v1/gonum/spatial/r3"
)

// Record is the fixed shape payload exchanged for one cell, keyed by its global id
type Record struct {
	GlobalID  int
	Centroid  r3.Vec
	Values    []float64
	Gradients []r3.Vec
}

/*
Exchanger is the collective communication surface used between ranks. Every call is collective: all ranks of the
group must make the same sequence of calls. Maps are keyed by peer rank; absent keys mean nothing is sent to, or was
received from, that rank.
*/
type Exchanger interface {
	Rank() int
	Size() int
	// Broadcast returns root's data on every rank
	Broadcast(ctx context.Context, root int, data []int) ([]int, error)
	// AllToAll sends a list of ids to each rank and returns the lists sent to this rank
	AllToAll(ctx context.Context, send map[int][]int) (map[int][]int, error)
	// Exchange sends cell records to each rank and returns the records sent to this rank
	Exchange(ctx context.Context, send map[int][]Record) (map[int][]Record, error)
	Barrier(ctx context.Context) error
}
