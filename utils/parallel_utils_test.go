package utils

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionMap(t *testing.T) {
	{
		getHisto := func(K, Np int) (histo map[int]int) {
			pm := NewPartitionMap(Np, K)
			histo = make(map[int]int)
			for np := 0; np < pm.ParallelDegree; np++ {
				maxK := pm.GetBucketDimension(np)
				histo[maxK]++
			}
			return
		}
		getTotal := func(histo map[int]int) (total int) {
			for key, count := range histo {
				total += key * count
			}
			return
		}
		assert.Equal(t, map[int]int{0: 30, 1: 2}, getHisto(2, 32))
		assert.Equal(t, map[int]int{1: 32}, getHisto(32, 32))
		assert.Equal(t, map[int]int{8: 32}, getHisto(256, 32))
		assert.Equal(t, map[int]int{8: 1, 9: 31}, getHisto(287, 32))
		assert.Equal(t, 287, getTotal(getHisto(287, 32)))
		for n := 64; n < 10000; n++ {
			var (
				keys   [2]float64
				keyNum int
			)
			histo := getHisto(n, 32)
			for key := range histo {
				keys[keyNum] = float64(key)
				keyNum++
			}
			if keyNum == 2 {
				assert.Equal(t, 1., math.Abs(keys[0]-keys[1])) // Maximum imbalance of 1
			}
			assert.Equal(t, n, getTotal(histo))
		}
	}
	{ // Find the bucket that contains an index
		for maxIndex := 10; maxIndex < 1000; maxIndex++ {
			pm := NewPartitionMap(5, maxIndex)
			for k := 0; k < maxIndex; k++ {
				tryCount, bn, min, max := pm.getBucketWithTryCount(k)
				mmin, mmax := pm.GetBucketRange(bn)
				assert.True(t, k >= min && k < max && min == mmin && max == mmax && tryCount <= 1)
			}
			bn, _, _ := pm.GetBucket(maxIndex)
			assert.Equal(t, -1, bn)
		}
	}
}

func TestMailBox(t *testing.T) {
	var (
		NP     = 4
		rounds = 20
		mb     = NewMailBox[[]int](NP)
		ctx    = context.Background()
		wg     sync.WaitGroup
		got    = make([][]map[int][]int, NP)
		errs   = make([]error, NP)
	)
	assert.Error(t, mb.PostMessage(0, NP, nil))
	assert.Error(t, mb.PostMessage(1, 1, nil))
	for n := 0; n < NP; n++ {
		wg.Add(1)
		go func(me int) {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				// Odd threads only talk to thread 0, the rest of the targets see an empty message
				for tgt := 0; tgt < NP; tgt++ {
					if tgt == me || (me%2 == 1 && tgt != 0) {
						continue
					}
					if err := mb.PostMessage(me, tgt, []int{r, me, tgt}); err != nil {
						errs[me] = err
						return
					}
				}
				if err := mb.DeliverMyMessages(ctx, me); err != nil {
					errs[me] = err
					return
				}
				msgs, err := mb.ReceiveMyMessages(ctx, me)
				if err != nil {
					errs[me] = err
					return
				}
				got[me] = append(got[me], msgs)
			}
		}(n)
	}
	wg.Wait()
	for me := 0; me < NP; me++ {
		require.NoError(t, errs[me])
		require.Len(t, got[me], rounds)
		for r, msgs := range got[me] {
			assert.Len(t, msgs, NP-1)
			for from, msg := range msgs {
				if from%2 == 1 && me != 0 {
					assert.Nil(t, msg)
					continue
				}
				assert.Equal(t, []int{r, from, me}, msg)
			}
		}
	}
}

func TestMailBoxCancel(t *testing.T) {
	mb := NewMailBox[int](3)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.NoError(t, mb.DeliverMyMessages(ctx, 0))
	_, err := mb.ReceiveMyMessages(ctx, 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
