// Package parallel provides helpers for splitting index ranges across
// goroutines. Callers pass a closure that handles the half-open range
// [start, end); the helpers take care of chunking and synchronization.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize splits items across one worker per available CPU core and
// invokes fn once per worker with the half-open range [start, end).
// It blocks until every worker has returned.
func Parallelize(items int, fn func(start, end int)) {
	ParallelizeWithWorkers(items, 0, fn)
}

// ParallelizeWithWorkers is Parallelize with an explicit worker count.
// workers <= 0 means one worker per available CPU core. The worker count
// is capped at items so no goroutine receives an empty range.
func ParallelizeWithWorkers(items, workers int, fn func(start, end int)) {
	if items <= 0 {
		return
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > items {
		workers = items
	}
	if workers == 1 {
		fn(0, items)
		return
	}

	// 各ワーカーが担当する件数(切り上げ除算)
	chunkSize := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially over [0, items) when items
// is at or below threshold, and falls back to Parallelize otherwise.
// Small inputs stay on the calling goroutine to avoid scheduling overhead.
func ParallelizeWithThreshold(items, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}
