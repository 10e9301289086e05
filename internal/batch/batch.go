// Package batch runs independent per-item work on a bounded worker pool.
package batch

import (
	"context"
	"runtime"
	"sync"
)

// Result is the outcome of one job.
type Result[T, R any] struct {
	Job   T
	Value R
	Err   error
}

type job[T any] struct {
	index int
	item  T
}

// Run applies fn to every item using at most workers goroutines and returns
// the results in input order. workers <= 0 means runtime.NumCPU(). Items not
// started before ctx is cancelled get ctx.Err() as their error.
func Run[T, R any](ctx context.Context, workers int, items []T, fn func(context.Context, T) (R, error)) []Result[T, R] {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(items) {
		workers = len(items)
	}

	results := make([]Result[T, R], len(items))
	jobChan := make(chan job[T], len(items))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobChan {
				results[j.index].Job = j.item
				if err := ctx.Err(); err != nil {
					results[j.index].Err = err
					continue
				}
				results[j.index].Value, results[j.index].Err = fn(ctx, j.item)
			}
		}()
	}

	for i, item := range items {
		jobChan <- job[T]{index: i, item: item}
	}
	close(jobChan)

	wg.Wait()
	return results
}
