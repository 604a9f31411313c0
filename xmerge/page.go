/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package xmerge

// Page is an opaque, immutable columnar batch. Rows are addressed by
// "position" - an index in [0, NumRows).
type Page interface {
	NumRows() int
	NumChannels() int
	// SizeBytes is the page's footprint, reported to a MemContext while
	// the page is retained by the engine.
	SizeBytes() int64
	// Value returns the value of the given channel at the given position.
	// nil represents SQL NULL.
	Value(channel, pos int) any
}

// basicPage is a straightforward in-memory Page, the kind produced by a
// Deserializer out of wire bytes, and the kind a Builder accumulates into.
type basicPage struct {
	cols  [][]any // cols[channel][pos]
	rows  int
	bytes int64
}

// NewPage wraps pre-materialized columns into a Page. All columns must
// have the same length; callers (deserializers, builders) are expected to
// enforce that invariant.
func NewPage(cols [][]any, bytes int64) Page {
	rows := 0
	if len(cols) > 0 {
		rows = len(cols[0])
	}
	return &basicPage{cols: cols, rows: rows, bytes: bytes}
}

func (p *basicPage) NumRows() int      { return p.rows }
func (p *basicPage) NumChannels() int  { return len(p.cols) }
func (p *basicPage) SizeBytes() int64  { return p.bytes }
func (p *basicPage) Value(channel, pos int) any {
	return p.cols[channel][pos]
}

// PageWithPosition identifies one logical row: a page plus a position
// within it, tagged with the index of the source stream it came from so
// that ties under a SortKey can be broken deterministically.
type PageWithPosition struct {
	Page        Page
	Position    int
	SourceIndex int
}

// SerializedPage is the wire-format representation of a Page: raw bytes
// plus the row count and uncompressed length an exchange client reports
// out of band.
type SerializedPage struct {
	Bytes           []byte
	NumRows         int
	UncompressedLen int64
}

// Deserializer turns wire bytes into a Page. Implementations are expected
// to be adapters: see NewCountingDeserializer for the one that also
// records per-page byte/row counts as required by spec.md's source
// adapter.
type Deserializer func(SerializedPage) (Page, error)

// NewCountingDeserializer wraps a Deserializer so that every successfully
// decoded page is reported to onPage(bytes, rows) - the "(bytes, rows) of
// network input per page" recorded by the merge operator.
func NewCountingDeserializer(inner Deserializer, onPage func(bytes int64, rows int)) Deserializer {
	return func(sp SerializedPage) (Page, error) {
		pg, err := inner(sp)
		if err != nil {
			return nil, err
		}
		if onPage != nil {
			onPage(sp.UncompressedLen, sp.NumRows)
		}
		return pg, nil
	}
}
