// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package workerpool

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
)

func TestNew(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	if pool.NumWorkers() != 4 {
		t.Errorf("NumWorkers() = %d, want 4", pool.NumWorkers())
	}
}

func TestNewDefault(t *testing.T) {
	pool := New(0)
	defer pool.Close()

	if pool.NumWorkers() != runtime.GOMAXPROCS(0) {
		t.Errorf("NumWorkers() = %d, want %d", pool.NumWorkers(), runtime.GOMAXPROCS(0))
	}
}

func TestForEachBatch(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	for _, batch := range []int{0, 1, 7, 16, 1000} {
		n := 257
		results := make([]int, n)
		err := pool.ForEachBatch(context.Background(), n, batch, func(start, end int) {
			for i := start; i < end; i++ {
				results[i]++
			}
		})
		if err != nil {
			t.Fatalf("batch=%d: %v", batch, err)
		}
		for i, v := range results {
			if v != 1 {
				t.Errorf("batch=%d: index %d visited %d times, want 1", batch, i, v)
			}
		}
	}
}

func TestForEachBatchCancelled(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	err := pool.ForEachBatch(ctx, 100, 10, func(start, end int) {
		calls.Add(1)
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls.Load() != 0 {
		t.Errorf("ran %d batches after cancellation, want 0", calls.Load())
	}
}

func TestForEachBatchCancelMidway(t *testing.T) {
	pool := New(2)
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	err := pool.ForEachBatch(ctx, 10000, 1, func(start, end int) {
		if calls.Add(1) == 5 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	// Each worker may finish the batch it had already claimed.
	if got := calls.Load(); got > 5+int32(pool.NumWorkers()) {
		t.Errorf("ran %d batches, want at most %d", got, 5+pool.NumWorkers())
	}
}

func TestClosedPoolRunsInline(t *testing.T) {
	pool := New(4)
	pool.Close()
	pool.Close()

	count := 0
	if err := pool.ForEachBatch(context.Background(), 10, 3, func(start, end int) {
		count += end - start
	}); err != nil {
		t.Fatal(err)
	}
	if count != 10 {
		t.Errorf("count = %d, want 10", count)
	}
}
