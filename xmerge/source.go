/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package xmerge

import "errors"

// errSourceNotReady is not returned by any code path: "not ready" is
// signalled by ready=false from Next and Poll instead.
var errSourceNotReady = errors.New("xmerge: source not ready")

// ExchangeClient is the external collaborator that produces a lazy
// sequence of serialized pages from one remote task. Its transport (HTTP
// framing, retries at the wire layer) is out of scope per spec.md §1; this
// package only consumes the three operations below.
type ExchangeClient interface {
	// Poll returns the next serialized page. ready=false means "not ready
	// yet, try again later"; done=true means the client has no more data
	// and will never report ready again.
	Poll() (page SerializedPage, ready, done bool, err error)
	// Blocked returns a channel that closes when Poll is worth retrying.
	// Only consulted after Poll reported ready=false.
	Blocked() <-chan struct{}
	Close() error
}

// SourceStream is a lazy, finite, non-restartable sequence of Pages
// originating from one remote producer, already sorted under the engine's
// SortKey.
type SourceStream interface {
	// Next returns the next Page. ready=false means blocked (caller should
	// wait on Blocked()); done=true means the stream is exhausted.
	Next() (page Page, ready, done bool, err error)
	Blocked() <-chan struct{}
	Close() error
}

// sourceAdapter binds an ExchangeClient to a Deserializer, turning raw
// wire bytes into Pages.
type sourceAdapter struct {
	client ExchangeClient
	deser  Deserializer
}

// NewSourceAdapter adapts an ExchangeClient's serialized-page sequence
// into a SourceStream via deser (typically wrapped with
// NewCountingDeserializer to record per-page network input).
func NewSourceAdapter(client ExchangeClient, deser Deserializer) SourceStream {
	return &sourceAdapter{client: client, deser: deser}
}

func (a *sourceAdapter) Next() (Page, bool, bool, error) {
	sp, ready, done, err := a.client.Poll()
	if err != nil {
		return nil, false, false, err
	}
	if !ready {
		return nil, false, false, nil
	}
	if done {
		return nil, true, true, nil
	}
	pg, err := a.deser(sp)
	if err != nil {
		return nil, false, false, err
	}
	return pg, true, false, nil
}

func (a *sourceAdapter) Blocked() <-chan struct{} { return a.client.Blocked() }
func (a *sourceAdapter) Close() error             { return a.client.Close() }
