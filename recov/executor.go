/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package recov

import (
	"sync"

	"github.com/gammazero/deque"
)

// priorityExecutor is a bounded worker pool backed by two FIFO lanes:
// active work is always dequeued ahead of background work; within a lane,
// FIFO order by submission time (spec.md §4.4's priority policy).
type priorityExecutor struct {
	mu               sync.Mutex
	cond             *sync.Cond
	activeQ, bgQ     deque.Deque
	stopped          bool
	wg               sync.WaitGroup
}

func newPriorityExecutor(workers int) *priorityExecutor {
	pe := &priorityExecutor{}
	pe.cond = sync.NewCond(&pe.mu)
	for i := 0; i < workers; i++ {
		pe.wg.Add(1)
		go pe.runWorker()
	}
	return pe
}

// Submit enqueues fn on the active or background lane. fn runs on one of
// the pool's bounded workers once it reaches the front of its lane.
func (pe *priorityExecutor) Submit(active bool, fn func()) {
	pe.mu.Lock()
	if active {
		pe.activeQ.PushBack(fn)
	} else {
		pe.bgQ.PushBack(fn)
	}
	pe.mu.Unlock()
	pe.cond.Signal()
}

func (pe *priorityExecutor) runWorker() {
	defer pe.wg.Done()
	for {
		pe.mu.Lock()
		for pe.activeQ.Len() == 0 && pe.bgQ.Len() == 0 && !pe.stopped {
			pe.cond.Wait()
		}
		if pe.stopped && pe.activeQ.Len() == 0 && pe.bgQ.Len() == 0 {
			pe.mu.Unlock()
			return
		}
		var fn func()
		if pe.activeQ.Len() > 0 {
			fn = pe.activeQ.PopFront().(func())
		} else {
			fn = pe.bgQ.PopFront().(func())
		}
		pe.mu.Unlock()
		fn()
	}
}

// Stop signals every worker to exit once its lanes drain, and blocks
// until they do. In-flight jobs are allowed to finish; nothing new is
// accepted after Stop returns (callers must stop submitting first).
func (pe *priorityExecutor) Stop() {
	pe.mu.Lock()
	pe.stopped = true
	pe.mu.Unlock()
	pe.cond.Broadcast()
	pe.wg.Wait()
}
