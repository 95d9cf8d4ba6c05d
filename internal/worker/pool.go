package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Task represents a unit of work to be processed by the pool.
type Task[T any, R any] struct {
	Input  T
	Result R
	Err    error
}

// ProcessFunc is the function signature for processing a single task.
type ProcessFunc[T any, R any] func(ctx context.Context, input T) (R, error)

// Pool is a generic worker pool with configurable concurrency.
type Pool[T any, R any] struct {
	workers int
	process ProcessFunc[T, R]
}

// NewPool creates a new worker pool.
func NewPool[T any, R any](workers int, fn ProcessFunc[T, R]) *Pool[T, R] {
	if workers < 1 {
		workers = 1
	}
	return &Pool[T, R]{
		workers: workers,
		process: fn,
	}
}

// Execute runs all inputs through the worker pool and returns one task per
// input, in input order. A failing input does not stop the others. Inputs not
// started before ctx is done carry ctx.Err().
func (p *Pool[T, R]) Execute(ctx context.Context, inputs []T) []Task[T, R] {
	results := make([]Task[T, R], len(inputs))
	started := make([]bool, len(inputs))
	inputCh := make(chan int)

	var wg sync.WaitGroup

	// Start workers.
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range inputCh {
				result, err := p.process(ctx, inputs[idx])
				results[idx] = Task[T, R]{
					Input:  inputs[idx],
					Result: result,
					Err:    err,
				}
				if err != nil {
					log.Error().Err(err).Int("worker", workerID).Int("index", idx).Msg("Task failed")
				}
			}
		}(w)
	}

	// Send inputs until cancelled.
send:
	for i := range inputs {
		select {
		case <-ctx.Done():
			break send
		case inputCh <- i:
			started[i] = true
		}
	}
	close(inputCh)

	wg.Wait()

	for i, ok := range started {
		if !ok {
			results[i] = Task[T, R]{Input: inputs[i], Err: ctx.Err()}
		}
	}
	return results
}

// Pack groups items into consecutive batches, keeping their order. A batch is
// closed when adding the next item would push its weight over budget or its
// size over maxItems. An item heavier than budget gets a batch of its own.
// budget <= 0 or maxItems <= 0 disables that limit.
func Pack[T any](items []T, budget, maxItems int, weight func(T) int) [][]T {
	var (
		batches [][]T
		cur     []T
		curW    int
	)
	for _, it := range items {
		w := weight(it)
		overBudget := budget > 0 && curW+w > budget
		overSize := maxItems > 0 && len(cur) >= maxItems
		if len(cur) > 0 && (overBudget || overSize) {
			batches = append(batches, cur)
			cur, curW = nil, 0
		}
		cur = append(cur, it)
		curW += w
	}
	if len(cur) > 0 {
		batches = append(batches, cur)
	}
	return batches
}
