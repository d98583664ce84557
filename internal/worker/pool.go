// Package worker provides a small fixed-size worker pool for record-level
// parallelism.
package worker

import "sync"

// Map applies fn to every item using at most workers goroutines. The output
// slice is aligned with the input: result i corresponds to item i regardless
// of completion order, so callers keep input ordering for free.
func Map[T, R any](workers int, items []T, fn func(T) R) []R {
	if len(items) == 0 {
		return nil
	}

	out := make([]R, len(items))

	if workers <= 1 || len(items) == 1 {
		for i, item := range items {
			out[i] = fn(item)
		}
		return out
	}

	if workers > len(items) {
		workers = len(items)
	}

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = fn(items[i])
			}
		}()
	}

	for i := range items {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return out
}
