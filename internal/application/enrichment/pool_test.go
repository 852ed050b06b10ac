package enrichment

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunPreservesTaskOrder(t *testing.T) {
	p := NewPool(2)

	tasks := make([]func(ctx context.Context) int, 8)
	for i := range tasks {
		i := i
		tasks[i] = func(_ context.Context) int {
			// Later tasks finish first to shake out ordering bugs.
			time.Sleep(time.Duration(8-i) * time.Millisecond)
			return i * 10
		}
	}

	results := Run(context.Background(), p, tasks)
	require.Len(t, results, 8)
	for i, r := range results {
		assert.Equal(t, i*10, r)
	}
}

func TestPoolRunBoundsConcurrency(t *testing.T) {
	const limit = 3
	p := NewPool(limit)

	var current, peak int64
	var mu sync.Mutex

	tasks := make([]func(ctx context.Context) struct{}, 12)
	for i := range tasks {
		tasks[i] = func(_ context.Context) struct{} {
			n := atomic.AddInt64(&current, 1)
			mu.Lock()
			if n > peak {
				peak = n
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&current, -1)
			return struct{}{}
		}
	}

	Run(context.Background(), p, tasks)

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, int64(limit))
	assert.Greater(t, peak, int64(0))
}

func TestPoolRunCancelledContext(t *testing.T) {
	p := NewPool(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := int64(0)
	tasks := []func(ctx context.Context) int{
		func(_ context.Context) int { atomic.AddInt64(&ran, 1); return 1 },
		func(_ context.Context) int { atomic.AddInt64(&ran, 1); return 2 },
	}

	results := Run(ctx, p, tasks)
	require.Len(t, results, 2, "results keep their slots even when tasks never ran")
	assert.Equal(t, int64(0), atomic.LoadInt64(&ran))
	assert.Equal(t, 0, results[0])
	assert.Equal(t, 0, results[1])
}

func TestNewPoolClampsConcurrency(t *testing.T) {
	p := NewPool(0)
	results := Run(context.Background(), p, []func(ctx context.Context) bool{
		func(_ context.Context) bool { return true },
	})
	require.Len(t, results, 1)
	assert.True(t, results[0])
}
