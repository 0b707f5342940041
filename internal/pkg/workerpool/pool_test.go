package workerpool

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSubmitRunsTasks(t *testing.T) {
	p, err := New(&Config{Workers: 2, QueueSize: 10}, zap.NewNop())
	require.NoError(t, err)

	var count int64
	for i := 0; i < 20; i++ {
		require.NoError(t, p.Submit(func() {
			atomic.AddInt64(&count, 1)
		}))
	}

	p.Shutdown()
	assert.Equal(t, int64(20), atomic.LoadInt64(&count))
}

func TestSubmitBlocksUntilDone(t *testing.T) {
	p, err := New(nil, zap.NewNop())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := 0; i < len(results); i++ {
		i := i
		wg.Add(1)
		require.NoError(t, p.Submit(func() {
			defer wg.Done()
			results[i] = i * i
		}))
	}
	wg.Wait()
	p.Shutdown()

	for i, got := range results {
		assert.Equal(t, i*i, got)
	}
}

func TestSubmitAfterShutdown(t *testing.T) {
	p, err := New(&Config{Workers: 1, QueueSize: 1}, zap.NewNop())
	require.NoError(t, err)

	p.Shutdown()
	assert.ErrorIs(t, p.Submit(func() {}), ErrPoolClosed)
}
