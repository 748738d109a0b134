// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package workerpool provides a persistent worker pool for row-parallel
// image work. A Pool is created once and reused across images.
//
// Usage:
//
//	pool := workerpool.New(runtime.GOMAXPROCS(0))
//	defer pool.Close()
//
//	err := pool.ForEachBatch(ctx, height, 16, func(start, end int) {
//	    for y := start; y < end; y++ {
//	        processRow(y)
//	    }
//	})
package workerpool

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a fixed set of goroutines consuming work items.
type Pool struct {
	numWorkers int
	workC      chan workItem
	closeOnce  sync.Once
	closed     atomic.Bool
}

type workItem struct {
	fn      func()
	barrier *sync.WaitGroup
}

// New starts a pool with numWorkers goroutines.
// If numWorkers <= 0, GOMAXPROCS is used.
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		numWorkers: numWorkers,
		workC:      make(chan workItem, numWorkers*2),
	}
	for range numWorkers {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for item := range p.workC {
		item.fn()
		item.barrier.Done()
	}
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Close stops the workers after pending work completes. It is safe to call
// more than once. A closed pool runs subsequent work on the caller.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.workC)
	})
}

// ForEachBatch hands out [0, n) in batches of batchSize using atomic work
// stealing. Cancellation is checked before each batch: once ctx is done no
// new batch starts, in-flight batches finish, and ctx.Err() is returned.
func (p *Pool) ForEachBatch(ctx context.Context, n, batchSize int, fn func(start, end int)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n <= 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 1
	}

	var next atomic.Int64
	run := func() {
		for ctx.Err() == nil {
			start := int(next.Add(1)-1) * batchSize
			if start >= n {
				return
			}
			fn(start, min(start+batchSize, n))
		}
	}

	numBatches := (n + batchSize - 1) / batchSize
	workers := min(p.numWorkers, numBatches)
	if workers == 1 || p.closed.Load() {
		run()
		return ctx.Err()
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		p.workC <- workItem{fn: run, barrier: &wg}
	}
	wg.Wait()

	return ctx.Err()
}
