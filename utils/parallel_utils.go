package utils

import (
	"context"
	"fmt"
)

type envelope[T any] struct {
	From, Round int
	Msg         T
}

/*
MailBox runs collective rounds between NP threads. In each round every thread posts at most one message per target,
delivers, then receives exactly one envelope from every other thread (a zero message when nothing was posted).
Envelopes carry the round number, so a thread that runs ahead into the next round never mixes with the current one.
Per thread state is only touched by its own thread.
*/
type MailBox[T any] struct {
	NP           int
	MessageChans []chan envelope[T] // One for each thread
	PostMsgQs    []map[int]T        // One for each thread, key is target thread
	pending      []map[int][]envelope[T]
	rounds       []int
}

func NewMailBox[T any](NP int) *MailBox[T] {
	mb := &MailBox[T]{
		NP:           NP,
		MessageChans: make([]chan envelope[T], NP),
		PostMsgQs:    make([]map[int]T, NP),
		pending:      make([]map[int][]envelope[T], NP),
		rounds:       make([]int, NP),
	}
	for n := 0; n < NP; n++ {
		// A sender can be at most one round ahead of a receiver
		mb.MessageChans[n] = make(chan envelope[T], 2*NP)
		mb.PostMsgQs[n] = make(map[int]T)
		mb.pending[n] = make(map[int][]envelope[T])
	}
	return mb
}

func (mb *MailBox[T]) PostMessage(myThread, targetThread int, msg T) error {
	if targetThread < 0 || targetThread > mb.NP-1 {
		return fmt.Errorf("target thread %d out of bounds", targetThread)
	}
	if targetThread == myThread {
		return fmt.Errorf("thread %d posting to itself", myThread)
	}
	mb.PostMsgQs[myThread][targetThread] = msg
	return nil
}

func (mb *MailBox[T]) PostMessageToAll(myThread int, msg T) {
	for k := 0; k < mb.NP; k++ {
		if k != myThread {
			mb.PostMsgQs[myThread][k] = msg
		}
	}
}

// DeliverMyMessages sends this round's outbox of myThread to every other thread
func (mb *MailBox[T]) DeliverMyMessages(ctx context.Context, myThread int) error {
	var (
		round = mb.rounds[myThread]
	)
	for targetThread := 0; targetThread < mb.NP; targetThread++ {
		if targetThread == myThread {
			continue
		}
		env := envelope[T]{From: myThread, Round: round, Msg: mb.PostMsgQs[myThread][targetThread]}
		select {
		case mb.MessageChans[targetThread] <- env:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	mb.PostMsgQs[myThread] = make(map[int]T)
	return nil
}

// ReceiveMyMessages blocks until every other thread has delivered for this round, keyed by sender
func (mb *MailBox[T]) ReceiveMyMessages(ctx context.Context, myThread int) (msgs map[int]T, err error) {
	var (
		round = mb.rounds[myThread]
	)
	msgs = make(map[int]T, mb.NP-1)
	for _, env := range mb.pending[myThread][round] {
		msgs[env.From] = env.Msg
	}
	delete(mb.pending[myThread], round)
	for len(msgs) < mb.NP-1 {
		select {
		case env := <-mb.MessageChans[myThread]:
			if env.Round != round {
				mb.pending[myThread][env.Round] = append(mb.pending[myThread][env.Round], env)
				continue
			}
			msgs[env.From] = env.Msg
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	mb.rounds[myThread]++
	return
}

type PartitionMap struct {
	MaxIndex       int // MaxIndex is partitioned into ParallelDegree partitions
	ParallelDegree int
	Partitions     [][2]int // Beginning and end index of partitions
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	for n := 0; n < ParallelDegree; n++ {
		pm.Partitions[n] = pm.Split1D(n)
	}
	return
}

func (pm *PartitionMap) GetBucket(k int) (bucketNum, min, max int) {
	_, bucketNum, min, max = pm.getBucketWithTryCount(k)
	return
}

func (pm *PartitionMap) getBucketWithTryCount(k int) (tryCount, bucketNum, min, max int) {
	if k < 0 || k >= pm.MaxIndex {
		return 0, -1, 0, 0
	}
	// Initial guess
	bucketNum = int(float64(pm.ParallelDegree*k) / float64(pm.MaxIndex))
	for !(pm.Partitions[bucketNum][0] <= k && pm.Partitions[bucketNum][1] > k) {
		if pm.Partitions[bucketNum][0] > k {
			bucketNum--
		} else {
			bucketNum++
		}
		if bucketNum == -1 || bucketNum == pm.ParallelDegree {
			return 0, -1, 0, 0
		}
		tryCount++
	}
	min, max = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

func (pm *PartitionMap) GetBucketRange(bucketNum int) (kMin, kMax int) {
	kMin, kMax = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

func (pm *PartitionMap) GetBucketDimension(bn int) (kMax int) {
	if bn == -1 {
		kMax = pm.MaxIndex
		return
	}
	var (
		k1, k2 = pm.GetBucketRange(bn)
	)
	kMax = k2 - k1
	return
}

func (pm *PartitionMap) Split1D(threadNum int) (bucket [2]int) {
	// This routine splits one dimension into ParallelDegree pieces, with a maximum imbalance of one item
	var (
		Npart            = pm.MaxIndex / (pm.ParallelDegree)
		startAdd, endAdd int
		remainder        int
	)
	remainder = pm.MaxIndex % pm.ParallelDegree
	if remainder != 0 { // spread the remainder over the first chunks evenly
		if threadNum+1 > remainder {
			startAdd = remainder
			endAdd = 0
		} else {
			startAdd = threadNum
			endAdd = 1
		}
	}
	bucket[0] = threadNum*Npart + startAdd
	bucket[1] = bucket[0] + Npart + endAdd
	return
}
