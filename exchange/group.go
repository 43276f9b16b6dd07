package exchange

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fvmesh/utils"
)

type message struct {
	IDs     []int
	Records []Record
}

// Group is an in process set of ranks, one goroutine per rank, exchanging through a shared MailBox
type Group struct {
	size int
	mb   *utils.MailBox[message]
}

func NewGroup(size int) (*Group, error) {
	if size < 1 {
		return nil, fmt.Errorf("a rank group needs at least one rank, have %d", size)
	}
	return &Group{size: size, mb: utils.NewMailBox[message](size)}, nil
}

func (g *Group) Size() int { return g.size }

// Endpoint returns the Exchanger for one rank, it must only be used from that rank's goroutine
func (g *Group) Endpoint(rank int) Exchanger {
	return &endpoint{g: g, rank: rank}
}

type endpoint struct {
	g    *Group
	rank int
}

func (ep *endpoint) Rank() int { return ep.rank }
func (ep *endpoint) Size() int { return ep.g.size }

func (ep *endpoint) round(ctx context.Context, out map[int]message) (in map[int]message, err error) {
	if ep.g.size == 1 {
		return map[int]message{}, nil
	}
	for tgt, msg := range out {
		if err = ep.g.mb.PostMessage(ep.rank, tgt, msg); err != nil {
			return
		}
	}
	if err = ep.g.mb.DeliverMyMessages(ctx, ep.rank); err != nil {
		return
	}
	return ep.g.mb.ReceiveMyMessages(ctx, ep.rank)
}

func (ep *endpoint) checkPeers(keys []int) error {
	for _, r := range keys {
		if r < 0 || r >= ep.g.size {
			return fmt.Errorf("rank %d: peer rank %d outside group of %d", ep.rank, r, ep.g.size)
		}
	}
	return nil
}

func (ep *endpoint) Broadcast(ctx context.Context, root int, data []int) ([]int, error) {
	if err := ep.checkPeers([]int{root}); err != nil {
		return nil, err
	}
	out := make(map[int]message)
	if ep.rank == root {
		for r := 0; r < ep.g.size; r++ {
			if r != root {
				out[r] = message{IDs: append([]int(nil), data...)}
			}
		}
	}
	in, err := ep.round(ctx, out)
	if err != nil {
		return nil, err
	}
	if ep.rank == root {
		return data, nil
	}
	return in[root].IDs, nil
}

func (ep *endpoint) AllToAll(ctx context.Context, send map[int][]int) (recv map[int][]int, err error) {
	var (
		out = make(map[int]message)
	)
	for r := range send {
		if err = ep.checkPeers([]int{r}); err != nil {
			return
		}
	}
	for r, ids := range send {
		if r != ep.rank {
			out[r] = message{IDs: append([]int(nil), ids...)}
		}
	}
	var in map[int]message
	if in, err = ep.round(ctx, out); err != nil {
		return
	}
	recv = make(map[int][]int)
	for r, msg := range in {
		if len(msg.IDs) != 0 {
			recv[r] = msg.IDs
		}
	}
	if ids, ok := send[ep.rank]; ok && len(ids) != 0 {
		recv[ep.rank] = append([]int(nil), ids...)
	}
	return
}

func (ep *endpoint) Exchange(ctx context.Context, send map[int][]Record) (recv map[int][]Record, err error) {
	var (
		out = make(map[int]message)
	)
	for r := range send {
		if err = ep.checkPeers([]int{r}); err != nil {
			return
		}
	}
	for r, recs := range send {
		if r != ep.rank {
			out[r] = message{Records: copyRecords(recs)}
		}
	}
	var in map[int]message
	if in, err = ep.round(ctx, out); err != nil {
		return
	}
	recv = make(map[int][]Record)
	for r, msg := range in {
		if len(msg.Records) != 0 {
			recv[r] = msg.Records
		}
	}
	if recs, ok := send[ep.rank]; ok && len(recs) != 0 {
		recv[ep.rank] = copyRecords(recs)
	}
	return
}

func (ep *endpoint) Barrier(ctx context.Context) error {
	_, err := ep.round(ctx, nil)
	return err
}

// Records cross goroutines, the receiver must not alias the sender's slices
func copyRecords(recs []Record) (cp []Record) {
	cp = make([]Record, len(recs))
	for i, rec := range recs {
		cp[i] = Record{
			GlobalID:  rec.GlobalID,
			Centroid:  rec.Centroid,
			Values:    append([]float64(nil), rec.Values...),
			Gradients: append([]r3.Vec(nil), rec.Gradients...),
		}
	}
	return
}
