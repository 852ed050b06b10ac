package enrichment

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Pool runs pack tasks with a bounded concurrency limit.  It replaces ad hoc
// fixed-size batching with sleeps: admission is a real semaphore, so a slow
// pack never stalls an unrelated batch slot, and provider backoff lives in
// the research clients where the 429s actually surface.
type Pool struct {
	sem *semaphore.Weighted
}

// NewPool builds a pool admitting at most concurrency tasks at once.
func NewPool(concurrency int) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(concurrency))}
}

// Run executes every task, at most the pool's concurrency limit at a time,
// and blocks until all complete.  Tasks receive the pool context and must
// handle their own failures; Run never aborts remaining tasks because one
// misbehaved.  Results land in the returned slice at the task's own index,
// so callers get deterministic ordering regardless of completion order.
func Run[T any](ctx context.Context, p *Pool, tasks []func(ctx context.Context) T) []T {
	results := make([]T, len(tasks))
	var wg sync.WaitGroup

	for i, task := range tasks {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			// Context cancelled while waiting for a slot; remaining tasks
			// still produce their zero value at the right index.
			break
		}
		wg.Add(1)
		go func(i int, task func(ctx context.Context) T) {
			defer wg.Done()
			defer p.sem.Release(1)
			results[i] = task(ctx)
		}(i, task)
	}

	wg.Wait()
	return results
}
