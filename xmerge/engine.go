/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package xmerge

import (
	"container/heap"
	"reflect"

	"github.com/NVIDIA/aistore/cmn/debug"
	"github.com/NVIDIA/aistore/cmn/nlog"
)

// Status is the outcome of one Engine.Produce call.
type Status int

const (
	// StatusPage: a Page is ready (the returned Page is non-nil).
	StatusPage Status = iota
	// StatusNotReady: the cooperative yield signal fired; no page is
	// ready yet but none of the sources are blocked. Call again.
	StatusNotReady
	// StatusBlocked: at least one source reported "not ready"; wait on
	// BlockedFuture() before calling Produce again.
	StatusBlocked
	// StatusFinished: all sources terminated, heap drained, final partial
	// page (if any) already emitted on a prior call.
	StatusFinished
	// StatusError: a source failed; err is non-nil. Partial output already
	// emitted on prior calls is kept (spec.md §7).
	StatusError
)

type sourceState struct {
	stream SourceStream
	index  int
	done   bool
	blocked bool
}

// mergeHeap implements container/heap.Interface over PageWithPosition,
// ordered by the engine's SortKey (which itself tie-breaks by source
// index for stability - spec.md §4.1).
type mergeHeap struct {
	items []PageWithPosition
	key   SortKey
}

func (h *mergeHeap) Len() int { return len(h.items) }
func (h *mergeHeap) Less(i, j int) bool {
	return h.key.Compare(h.items[i], h.items[j]) < 0
}
func (h *mergeHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *mergeHeap) Push(x any)    { h.items = append(h.items, x.(PageWithPosition)) }
func (h *mergeHeap) Pop() any {
	old := h.items
	n := len(old)
	it := old[n-1]
	h.items = old[:n-1]
	return it
}

// Engine is the k-way tournament merge over per-source lazy page
// sequences (spec.md §4.1). It never blocks a goroutine: a step that would
// block returns StatusBlocked instead, and the caller waits on
// BlockedFuture().
type Engine struct {
	key     SortKey
	sources []*sourceState
	h       *mergeHeap
	b       *builder
	mem     MemContext
	yield   func() bool
}

// EngineOpts configures a new Engine.
type EngineOpts struct {
	Sources        []SourceStream
	SortKey        SortKey
	OutputChannels []int
	Fullness       FullnessPredicate
	Mem            MemContext
	// Yield is queried between row appends; when it returns true, Produce
	// returns control (StatusNotReady) without losing heap state.
	Yield func() bool
}

// NewEngine primes the heap by requesting the first page from every
// source. A source reporting "not ready" parks the whole engine as
// blocked from the start; a source failing outright is a fatal
// configuration/transport error. Mismatched channel counts between
// sources' first pages is a fatal *ErrConfiguration, detected here and
// nowhere else (spec.md §4.1).
func NewEngine(o EngineOpts) (*Engine, error) {
	if len(o.Sources) == 0 {
		return nil, newConfigErr("no sources")
	}
	if o.Fullness == nil {
		o.Fullness = DefaultFullness(1 << 20) // 1 MiB default threshold
	}
	if o.Mem == nil {
		o.Mem = noopMemContext{}
	}
	e := &Engine{
		key:     o.SortKey,
		h:       &mergeHeap{key: o.SortKey},
		b:       newBuilder(o.OutputChannels, o.Fullness),
		mem:     o.Mem,
		yield:   o.Yield,
	}
	e.sources = make([]*sourceState, len(o.Sources))
	wantChannels := -1
	chanType := make(map[int]reflect.Type, len(o.SortKey))
	for i, s := range o.Sources {
		e.sources[i] = &sourceState{stream: s, index: i}
		pg, ready, done, err := s.Next()
		if err != nil {
			return nil, &ErrTransport{SourceIndex: i, Cause: err}
		}
		switch {
		case !ready:
			e.sources[i].blocked = true
		case done:
			e.sources[i].done = true
		default:
			if wantChannels == -1 {
				wantChannels = pg.NumChannels()
			} else if pg.NumChannels() != wantChannels {
				return nil, newConfigErr("source %d has %d channels, want %d", i, pg.NumChannels(), wantChannels)
			}
			if err := checkSortColumnTypes(o.SortKey, pg, i, chanType); err != nil {
				return nil, err
			}
			e.mem.Inc(pg.SizeBytes())
			heap.Push(e.h, PageWithPosition{Page: pg, Position: 0, SourceIndex: i})
		}
	}
	return e, nil
}

// checkSortColumnTypes enforces spec.md §4.1's construction-time schema
// check: a sort channel's value type must agree across every source's
// primed first row. NULL rows carry no type and are skipped; a channel
// whose first non-NULL sighting disagrees with an earlier source is a
// fatal *ErrConfiguration, matching the channel-count check above rather
// than reaching compareAny's type-assertion panic at merge time.
func checkSortColumnTypes(key SortKey, pg Page, sourceIndex int, seen map[int]reflect.Type) error {
	for _, sc := range key {
		v := pg.Value(sc.Channel, 0)
		if v == nil {
			continue
		}
		t := reflect.TypeOf(v)
		want, ok := seen[sc.Channel]
		if !ok {
			seen[sc.Channel] = t
			continue
		}
		if t != want {
			return newConfigErr("source %d channel %d has type %s, want %s", sourceIndex, sc.Channel, t, want)
		}
	}
	return nil
}

// refreshBlocked re-polls every currently-blocked source once. Sources
// that remain not-ready stay blocked; this is cheap (a single Poll) and
// keeps Produce's main loop simple.
func (e *Engine) refreshBlocked() error {
	for _, s := range e.sources {
		if s.done || !s.blocked {
			continue
		}
		pg, ready, done, err := s.stream.Next()
		if err != nil {
			return &ErrTransport{SourceIndex: s.index, Cause: err}
		}
		if !ready {
			continue
		}
		s.blocked = false
		if done {
			s.done = true
			continue
		}
		e.mem.Inc(pg.SizeBytes())
		heap.Push(e.h, PageWithPosition{Page: pg, Position: 0, SourceIndex: s.index})
	}
	return nil
}

func (e *Engine) allDone() bool {
	for _, s := range e.sources {
		if !s.done {
			return false
		}
	}
	return true
}

// Produce runs the tournament until a page is complete, the engine parks
// on a blocked source, the yield signal fires, or all sources terminate.
// Resumable from the same heap state on the next call regardless of which
// status was returned.
func (e *Engine) Produce() (Page, Status, error) {
	if err := e.refreshBlocked(); err != nil {
		return nil, StatusError, err
	}
	for {
		if e.yield != nil && e.yield() {
			return nil, StatusNotReady, nil
		}
		// a parked source may still produce a smaller row, so nothing is
		// popped until every source is either primed or terminated
		for _, s := range e.sources {
			if s.blocked {
				return nil, StatusBlocked, nil
			}
		}
		if e.h.Len() == 0 {
			if e.allDone() {
				if !e.b.isEmpty() {
					return e.b.flush(), StatusPage, nil
				}
				return nil, StatusFinished, nil
			}
			return nil, StatusBlocked, nil
		}
		item := heap.Pop(e.h).(PageWithPosition)
		e.b.append(item.Page, item.Position)

		next := item.Position + 1
		if next < item.Page.NumRows() {
			heap.Push(e.h, PageWithPosition{Page: item.Page, Position: next, SourceIndex: item.SourceIndex})
		} else {
			e.mem.Dec(item.Page.SizeBytes())
			s := e.sources[item.SourceIndex]
			pg, ready, done, err := s.stream.Next()
			if err != nil {
				return nil, StatusError, &ErrTransport{SourceIndex: item.SourceIndex, Cause: err}
			}
			switch {
			case !ready:
				s.blocked = true
			case done:
				s.done = true
			default:
				e.mem.Inc(pg.SizeBytes())
				heap.Push(e.h, PageWithPosition{Page: pg, Position: 0, SourceIndex: item.SourceIndex})
			}
		}

		if e.b.isFull() {
			return e.b.flush(), StatusPage, nil
		}
	}
}

// BlockedFuture returns a Future that completes once any currently-
// blocked source advances. Only meaningful right after Produce returned
// StatusBlocked.
func (e *Engine) BlockedFuture() *Future {
	var chans []<-chan struct{}
	for _, s := range e.sources {
		if s.blocked {
			chans = append(chans, s.stream.Blocked())
		}
	}
	if len(chans) == 0 {
		return readyFuture()
	}
	out := NewFuture()
	for _, c := range chans {
		c := c
		go func() {
			<-c
			out.Complete()
		}()
	}
	return out
}

// Close releases every source stream in reverse order of registration,
// aggregating failures.
func (e *Engine) Close() error {
	var errs Errs
	for i := len(e.sources) - 1; i >= 0; i-- {
		s := e.sources[i]
		debug.Assert(s.stream != nil)
		if err := s.stream.Close(); err != nil {
			nlog.Warningf("xmerge: close source %d: %v", s.index, err)
			errs.Add(err)
		}
	}
	return errs.AsError()
}
