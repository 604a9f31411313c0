/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package recov

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// dedupQueue wraps a priorityExecutor with an at-most-one-in-flight
// registry keyed on MissingShard.Key(), per spec.md §4.4. singleflight's
// own call registry *is* the in-flight table: DoChan returns the same
// channel to every caller sharing a key and forgets the key the instant
// the call returns, which is exactly the eviction-on-completion and
// accept-the-race behavior §9 asks for — no separate bookkeeping needed.
type dedupQueue struct {
	group  singleflight.Group
	exec   *priorityExecutor
	worker *Worker
}

func newDedupQueue(worker *Worker, threads int) *dedupQueue {
	return &dedupQueue{
		exec:   newPriorityExecutor(threads),
		worker: worker,
	}
}

// Submit enqueues ms and returns a Future that completes when the job
// finishes. A concurrent submit with an equal key returns a Future
// backed by the same underlying job instead of starting a second one.
func (q *dedupQueue) Submit(ctx context.Context, ms MissingShard) *Future {
	key := ms.Key()

	// fn runs at most once per in-flight key: singleflight invokes it only
	// for the caller that wins the race to create the entry, so the
	// bounded executor only ever sees one submission per outstanding key.
	ch := q.group.DoChan(key, func() (interface{}, error) {
		runDone := make(chan error, 1)
		q.exec.Submit(ms.Active, func() {
			runDone <- q.worker.Recover(ctx, ms)
		})
		return nil, <-runDone
	})

	f := newFuture()
	go func() {
		res := <-ch
		f.complete(res.Err)
	}()
	return f
}

func (q *dedupQueue) Stop() { q.exec.Stop() }

// Future is a one-shot completion signal for a submitted recovery job.
type Future struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newFuture() *Future { return &Future{done: make(chan struct{})} }

func (f *Future) complete(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Wait blocks until the job completes or ctx is cancelled.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done reports the channel closed on completion, for select-based callers.
func (f *Future) Done() <-chan struct{} { return f.done }

// Err returns the completion error. Only valid after Done is closed.
func (f *Future) Err() error { return f.err }
