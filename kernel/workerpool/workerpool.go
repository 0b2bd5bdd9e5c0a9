// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package workerpool provides a persistent worker pool for the fork/join
// reductions of the yAx kernels. Workers are spawned once by New and reused
// by every repetition of the benchmark, so the timed loop measures the
// reduction and not goroutine startup.
//
// Usage:
//
//	pool := workerpool.New(runtime.GOMAXPROCS(0))
//	defer pool.Close()
//
//	for range nrepeat {
//	    result := pool.ParallelReduce(rows, func(start, end int) float64 {
//	        return partialYtAx(start, end)
//	    })
//	}
package workerpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a persistent worker pool. Every Parallel* call blocks until all
// of its work has completed.
type Pool struct {
	numWorkers int
	workC      chan task
	closeOnce  sync.Once
	closed     atomic.Bool
}

type task struct {
	fn      func()
	barrier *sync.WaitGroup
}

// New creates a pool with numWorkers goroutines. If numWorkers <= 0 the
// pool uses GOMAXPROCS.
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		numWorkers: numWorkers,
		workC:      make(chan task, numWorkers*2),
	}
	for range numWorkers {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for t := range p.workC {
		t.fn()
		t.barrier.Done()
	}
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Close stops the workers after pending work drains. Calling Close more
// than once is safe; a closed pool runs all work on the caller.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.workC)
	})
}

// Chunks returns the number of contiguous chunks ParallelReduce splits n
// items into.
func (p *Pool) Chunks(n int) int {
	if n <= 0 {
		return 0
	}
	if p.closed.Load() {
		return 1
	}
	return min(p.numWorkers, n)
}

// ParallelReduce calls fn over contiguous ranges covering [0, n) and
// returns the sum of the partial results. Each range writes its own slot;
// the slots are combined by TreeSum once every worker has finished, so no
// accumulator is shared between goroutines.
func (p *Pool) ParallelReduce(n int, fn func(start, end int) float64) float64 {
	chunks := p.Chunks(n)
	if chunks == 0 {
		return 0
	}
	partials := make([]float64, chunks)
	p.forChunks(n, func(chunk, start, end int) {
		partials[chunk] = fn(start, end)
	})
	return TreeSum(partials)
}

// forChunks splits [0, n) into Chunks(n) ranges and runs fn(chunk, start,
// end) for each, on the workers when there is more than one chunk.
func (p *Pool) forChunks(n int, fn func(chunk, start, end int)) {
	chunks := p.Chunks(n)
	if chunks == 0 {
		return
	}
	if chunks == 1 {
		fn(0, 0, n)
		return
	}

	chunkSize := (n + chunks - 1) / chunks

	var wg sync.WaitGroup
	wg.Add(chunks)
	for c := range chunks {
		start := c * chunkSize
		end := min(start+chunkSize, n)
		if start >= n {
			wg.Done()
			continue
		}
		p.workC <- task{
			fn: func() {
				fn(c, start, end)
			},
			barrier: &wg,
		}
	}
	wg.Wait()
}

// ParallelForAtomicBatched hands out batches of batchSize indices to the
// workers through an atomic counter, which balances uneven work better than
// fixed ranges. fn receives [start, end) of each batch.
func (p *Pool) ParallelForAtomicBatched(n, batchSize int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	if p.closed.Load() {
		fn(0, n)
		return
	}

	numBatches := (n + batchSize - 1) / batchSize
	workers := min(p.numWorkers, numBatches)
	if workers == 1 {
		fn(0, n)
		return
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		p.workC <- task{
			fn: func() {
				for {
					start := int(next.Add(1)-1) * batchSize
					if start >= n {
						return
					}
					fn(start, min(start+batchSize, n))
				}
			},
			barrier: &wg,
		}
	}
	wg.Wait()
}

// ParallelReduceBatched is ParallelReduce with atomic batch distribution.
// Partials are stored per batch, so the combined sum does not depend on
// which worker picked up which batch.
func (p *Pool) ParallelReduceBatched(n, batchSize int, fn func(start, end int) float64) float64 {
	if n <= 0 {
		return 0
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	partials := make([]float64, (n+batchSize-1)/batchSize)
	p.ParallelForAtomicBatched(n, batchSize, func(start, end int) {
		// A closed or single-worker pool passes the whole range at once.
		for s := start; s < end; s += batchSize {
			partials[s/batchSize] = fn(s, min(s+batchSize, end))
		}
	})
	return TreeSum(partials)
}

// TreeSum adds xs pairwise. The combination order depends only on len(xs).
func TreeSum(xs []float64) float64 {
	switch len(xs) {
	case 0:
		return 0
	case 1:
		return xs[0]
	case 2:
		return xs[0] + xs[1]
	}
	half := len(xs) / 2
	return TreeSum(xs[:half]) + TreeSum(xs[half:])
}
