package snowflake

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// Init mutates package state, so these tests do not call t.Parallel.
func TestInit(t *testing.T) {
	t.Run("valid node", func(t *testing.T) {
		require.NoError(t, Init(1))
	})

	t.Run("negative node", func(t *testing.T) {
		require.Error(t, Init(-1))
	})

	t.Run("node above 1023", func(t *testing.T) {
		require.Error(t, Init(1024))
	})

	require.NoError(t, Init(0))
}

func TestNextID_UniqueAndIncreasing(t *testing.T) {
	require.NoError(t, Init(0))

	const count = 5000
	seen := make(map[int64]struct{}, count)
	var prev int64
	for i := 0; i < count; i++ {
		id := NextID()
		require.Positive(t, id)
		require.Greater(t, id, prev)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %d", id)
		seen[id] = struct{}{}
		prev = id
	}
}

func TestNextID_Concurrent(t *testing.T) {
	require.NoError(t, Init(0))

	const workers = 8
	const perWorker = 500

	var (
		wg   sync.WaitGroup
		lock sync.Mutex
		ids  = make(map[int64]struct{}, workers*perWorker)
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]int64, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				local = append(local, NextID())
			}
			lock.Lock()
			for _, id := range local {
				ids[id] = struct{}{}
			}
			lock.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, ids, workers*perWorker)
}
