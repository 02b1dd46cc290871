package memory_test

import (
	"sync"
	"testing"

	"github.com/bkern/mqttpki/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext_StartsAtOneAndCountsPerCA(t *testing.T) {
	store := memory.NewStore()

	for want := uint64(1); want <= 3; want++ {
		got, err := store.Next("ca-a")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// A different CA gets its own counter.
	got, err := store.Next("ca-b")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got)
}

func TestNext_Concurrent(t *testing.T) {
	store := memory.NewStore()

	const workers = 16
	const perWorker = 50

	seen := make(chan uint64, workers*perWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				n, err := store.Next("ca")
				assert.NoError(t, err)
				seen <- n
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[uint64]bool, workers*perWorker)
	for n := range seen {
		assert.False(t, unique[n], "serial %d issued twice", n)
		unique[n] = true
	}
	assert.Len(t, unique, workers*perWorker)
}
