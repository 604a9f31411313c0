/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package xmerge

import (
	"sync"

	"github.com/NVIDIA/aistore/cmn/nlog"
)

// State is one of the merge operator's lifecycle states (spec.md §4.2).
type State int

const (
	AcceptingSplits State = iota
	Merging
	Finished
	Closed
)

func (s State) String() string {
	switch s {
	case AcceptingSplits:
		return "AcceptingSplits"
	case Merging:
		return "Merging"
	case Finished:
		return "Finished"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Split is a remote-location split: a (task_id, URI) pair identifying one
// remote producer. Remote must be true or AddSplit fails with
// *ErrConfiguration - this operator is a source stage and only accepts
// remote-location splits.
type Split struct {
	TaskID string
	URI    string
	Remote bool
}

// ClientFactory builds one ExchangeClient per split. onFailure is the
// operator's own failure callback, wired to the surrounding task so an
// asynchronous client failure can abort the query promptly.
type ClientFactory func(split Split, onFailure func(error)) (ExchangeClient, error)

// Operator presents the ordered merge as a pipeline stage:
// addSplit/noMoreSplits/isBlocked/getOutput/finish/close, in the shape
// spec.md §4.2 describes. It is driven single-threadedly by one cooperative
// caller; internal state is still mutex-protected since Close can be
// invoked concurrently with the driver loop (spec.md §5, cancellation).
type Operator struct {
	mu sync.Mutex

	cfg           Config
	clientFactory ClientFactory
	deserializer  Deserializer
	mem           MemContext
	yield         func() bool

	state State

	splits  []Split
	clients []ExchangeClient
	sources []SourceStream

	splitsFuture *Future
	engine       *Engine
	engineErr    error
	metrics      *Metrics

	netBytes, netRows   int64
	outBytes, outRows   int64
	firstAsyncErr       error
}

// SetMetrics wires a Prometheus-backed counter set into the operator.
// Optional: an operator with no metrics set behaves identically, just
// without exporting counters. Must be called before NoMoreSplits (which
// decodes each source's first page) to capture every page's network
// counters.
func (op *Operator) SetMetrics(m *Metrics) {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.metrics = m
}

// NewOperator constructs an operator in AcceptingSplits.
func NewOperator(cfg Config, clientFactory ClientFactory, deserializer Deserializer, mem MemContext, yield func() bool) *Operator {
	if mem == nil {
		mem = noopMemContext{}
	}
	return &Operator{
		cfg:           cfg,
		clientFactory: clientFactory,
		deserializer:  deserializer,
		mem:           mem,
		yield:         yield,
		state:         AcceptingSplits,
		splitsFuture:  NewFuture(),
	}
}

// AddSplit registers one remote producer. Permitted only in
// AcceptingSplits (spec.md §4.2).
func (op *Operator) AddSplit(s Split) error {
	op.mu.Lock()
	defer op.mu.Unlock()

	if op.state != AcceptingSplits {
		return &ErrInvariant{msg: "addSplit outside AcceptingSplits (state=" + op.state.String() + ")"}
	}
	if !s.Remote {
		return newConfigErr("split %q is not a remote-location split", s.TaskID)
	}

	client, err := op.clientFactory(s, op.onAsyncFailure)
	if err != nil {
		return &ErrTransport{SourceIndex: len(op.clients), Cause: err}
	}

	idx := len(op.clients)
	// Pages are only decoded from inside NoMoreSplits and GetOutput, which
	// already hold op.mu, so the callback must not lock it again.
	deser := NewCountingDeserializer(op.deserializer, func(bytes int64, rows int) {
		op.netBytes += bytes
		op.netRows += int64(rows)
		if op.metrics != nil {
			op.metrics.NetworkBytes.Add(float64(bytes))
			op.metrics.NetworkRows.Add(float64(rows))
		}
	})
	src := NewSourceAdapter(client, deser)

	op.splits = append(op.splits, s)
	op.clients = append(op.clients, client)
	op.sources = append(op.sources, src)
	nlog.Infof("xmerge: added split %s (%s), %d total", s.TaskID, s.URI, idx+1)
	return nil
}

func (op *Operator) onAsyncFailure(err error) {
	op.mu.Lock()
	if op.firstAsyncErr == nil {
		op.firstAsyncErr = err
	}
	op.mu.Unlock()
}

// NoMoreSplits closes the split set, constructs the merge engine over the
// accumulated sources, and signals the splits-future.
func (op *Operator) NoMoreSplits() error {
	op.mu.Lock()
	defer op.mu.Unlock()

	if op.state != AcceptingSplits {
		return &ErrInvariant{msg: "noMoreSplits outside AcceptingSplits (state=" + op.state.String() + ")"}
	}
	op.state = Merging

	engine, err := NewEngine(EngineOpts{
		Sources:        op.sources,
		SortKey:        op.cfg.SortKey,
		OutputChannels: op.cfg.OutputChannels,
		Fullness:       op.cfg.fullness(),
		Mem:            op.mem,
		Yield:          op.yield,
	})
	if err != nil {
		op.engineErr = err
	} else {
		op.engine = engine
	}
	op.splitsFuture.Complete()
	nlog.Infof("xmerge: noMoreSplits, %d sources, engine error=%v", len(op.sources), err)
	return nil
}

// IsBlocked returns the splits-future while AcceptingSplits, delegates to
// the engine's blocked-future once Merging, and is immediately ready
// otherwise (spec.md §4.2).
func (op *Operator) IsBlocked() *Future {
	op.mu.Lock()
	defer op.mu.Unlock()

	switch op.state {
	case AcceptingSplits:
		return op.splitsFuture
	case Merging:
		if op.engine == nil {
			return readyFuture()
		}
		return op.engine.BlockedFuture()
	default:
		return readyFuture()
	}
}

// GetOutput returns one Page, or (nil, nil) when nothing is ready yet.
// Idempotent when the engine isn't ready: callers may poll it repeatedly.
func (op *Operator) GetOutput() (Page, error) {
	op.mu.Lock()
	defer op.mu.Unlock()

	if op.state != Merging {
		return nil, nil
	}
	if op.engineErr != nil {
		op.state = Finished
		return nil, op.engineErr
	}
	if op.firstAsyncErr != nil {
		op.state = Finished
		return nil, &ErrTransport{Cause: op.firstAsyncErr}
	}

	pg, status, err := op.engine.Produce()
	switch status {
	case StatusPage:
		op.outBytes += pg.SizeBytes()
		op.outRows += int64(pg.NumRows())
		if op.metrics != nil {
			op.metrics.OutputBytes.Add(float64(pg.SizeBytes()))
			op.metrics.OutputRows.Add(float64(pg.NumRows()))
		}
		return pg, nil
	case StatusFinished:
		op.state = Finished
		return nil, nil
	case StatusError:
		op.state = Finished
		return nil, err
	default: // StatusNotReady, StatusBlocked
		if op.metrics != nil && status == StatusBlocked {
			op.metrics.BlockedTotal.Inc()
		}
		return nil, nil
	}
}

// NeedsInput is always false: this is a source stage, it pulls from
// exchange clients rather than accepting pushed input.
func (*Operator) NeedsInput() bool { return false }

// AddInput is an invariant violation on a source-only stage.
func (*Operator) AddInput(Page) error {
	return &ErrInvariant{msg: "addInput called on a source-only operator"}
}

// Finish transitions to Closed, same as Close.
func (op *Operator) Finish() error { return op.Close() }

// Close releases every registered exchange client (directly, or via the
// engine if one was built), swallowing individual failures into one
// aggregated error, and is safe to call from any state, including
// concurrently with the driver loop (cancellation, spec.md §5).
func (op *Operator) Close() error {
	op.mu.Lock()
	defer op.mu.Unlock()

	if op.state == Closed {
		return nil
	}
	op.state = Closed

	var errs Errs
	if op.engine != nil {
		errs.Add(op.engine.Close())
	} else {
		for i := len(op.clients) - 1; i >= 0; i-- {
			if err := op.clients[i].Close(); err != nil {
				nlog.Warningf("xmerge: close client %d: %v", i, err)
				errs.Add(err)
			}
		}
	}
	return errs.AsError()
}

// Stats returns the per-operator network-input and processed-output
// counters (spec.md §6): bytes/rows read from exchange clients, and
// bytes/rows emitted downstream.
func (op *Operator) Stats() (netBytes, netRows, outBytes, outRows int64) {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.netBytes, op.netRows, op.outBytes, op.outRows
}
