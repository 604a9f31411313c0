/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package xmerge_test

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/NVIDIA/aistore/xmerge"
)

// fakeStream is a hand-rolled xmerge.SourceStream test double: a fixed
// sequence of pages that can be parked "not ready" and later released,
// to drive the blocked/unblocked scenarios in spec.md §8.
type fakeStream struct {
	mu      sync.Mutex
	pages   []xmerge.Page
	i       int
	ready   bool
	blockCh chan struct{}
	failErr error
}

func newFakeStream(pages ...xmerge.Page) *fakeStream {
	return &fakeStream{pages: pages, ready: true, blockCh: make(chan struct{})}
}

func newBlockedFakeStream() *fakeStream {
	return &fakeStream{ready: false, blockCh: make(chan struct{})}
}

func (f *fakeStream) Next() (xmerge.Page, bool, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, false, false, f.failErr
	}
	if !f.ready {
		return nil, false, false, nil
	}
	if f.i >= len(f.pages) {
		return nil, true, true, nil
	}
	p := f.pages[f.i]
	f.i++
	return p, true, false, nil
}

func (f *fakeStream) Blocked() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blockCh
}

func (f *fakeStream) Close() error { return nil }

func (f *fakeStream) unblock() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ready = true
	close(f.blockCh)
}

func (f *fakeStream) appendAndUnblock(p xmerge.Page) {
	f.mu.Lock()
	f.pages = append(f.pages, p)
	f.ready = true
	ch := f.blockCh
	f.blockCh = make(chan struct{})
	f.mu.Unlock()
	close(ch)
}

func (f *fakeStream) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failErr = err
}

// fakeClient is an xmerge.ExchangeClient double used for operator-level
// tests, trivially backed by a fakeStream's semantics.
type fakeClient struct {
	stream *fakeStream
	closed bool
}

func newFakeClient(pages ...xmerge.Page) *fakeClient {
	return &fakeClient{stream: newFakeStream(pages...)}
}

func (c *fakeClient) Poll() (xmerge.SerializedPage, bool, bool, error) {
	pg, ready, done, err := c.stream.Next()
	if err != nil || !ready || done {
		return xmerge.SerializedPage{}, ready, done, err
	}
	return serializeIntPage(pg), true, false, nil
}

func (c *fakeClient) Blocked() <-chan struct{} { return c.stream.Blocked() }
func (c *fakeClient) Close() error             { c.closed = true; return nil }

// serializeIntPage/deserializeIntPage round-trip a single int64 column
// through bytes, standing in for a real wire codec in operator-level
// tests (which exercise lifecycle, not value encoding).
func serializeIntPage(p xmerge.Page) xmerge.SerializedPage {
	buf := make([]byte, p.NumRows()*8)
	for i := 0; i < p.NumRows(); i++ {
		binary.LittleEndian.PutUint64(buf[i*8:(i+1)*8], uint64(p.Value(0, i).(int64)))
	}
	return xmerge.SerializedPage{Bytes: buf, NumRows: p.NumRows(), UncompressedLen: p.SizeBytes()}
}

func deserializeIntPage(sp xmerge.SerializedPage) (xmerge.Page, error) {
	n := len(sp.Bytes) / 8
	col := make([]any, n)
	for i := 0; i < n; i++ {
		col[i] = int64(binary.LittleEndian.Uint64(sp.Bytes[i*8 : (i+1)*8]))
	}
	return xmerge.NewPage([][]any{col}, sp.UncompressedLen), nil
}

var errFakeTransport = errors.New("fake transport failure")

func intPage(vals ...int64) xmerge.Page {
	col := make([]any, len(vals))
	for i, v := range vals {
		col[i] = v
	}
	return xmerge.NewPage([][]any{col}, int64(len(vals))*8)
}

func twoColPage(ids []int64, tags []string) xmerge.Page {
	idCol := make([]any, len(ids))
	tagCol := make([]any, len(tags))
	for i := range ids {
		idCol[i] = ids[i]
		tagCol[i] = tags[i]
	}
	return xmerge.NewPage([][]any{idCol, tagCol}, int64(len(ids))*16)
}
