/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package xmerge

// FullnessPredicate decides when a builder-in-progress should be flushed
// as an output Page. The default is a byte-size threshold; callers may
// inject row-count based or hybrid predicates.
type FullnessPredicate func(rows int, bytes int64) bool

// DefaultFullness returns a FullnessPredicate that fires once the
// accumulated byte footprint reaches threshold - the engine's "builder's
// internal size threshold" default (spec.md §4.1 step 4).
func DefaultFullness(threshold int64) FullnessPredicate {
	return func(_ int, bytes int64) bool { return bytes >= threshold }
}

// builder accumulates rows projected through outputChannels into columns,
// ready to be materialized into a Page once full() reports true.
type builder struct {
	outputChannels []int
	cols           [][]any
	rows           int
	bytes          int64
	full           FullnessPredicate
}

func newBuilder(outputChannels []int, full FullnessPredicate) *builder {
	cols := make([][]any, len(outputChannels))
	return &builder{outputChannels: outputChannels, cols: cols, full: full}
}

// append projects one row from src at pos into the builder.
func (b *builder) append(src Page, pos int) {
	for i, ch := range b.outputChannels {
		v := src.Value(ch, pos)
		b.cols[i] = append(b.cols[i], v)
	}
	b.rows++
	// Rows carry their source page's average per-row footprint; cheap and
	// avoids re-serializing to measure the projected subset exactly.
	if n := src.NumRows(); n > 0 {
		b.bytes += src.SizeBytes() / int64(n)
	}
}

func (b *builder) isFull() bool { return b.rows > 0 && b.full(b.rows, b.bytes) }
func (b *builder) isEmpty() bool { return b.rows == 0 }

// flush materializes the accumulated rows into a Page and resets the
// builder for the next one.
func (b *builder) flush() Page {
	pg := NewPage(b.cols, b.bytes)
	b.cols = make([][]any, len(b.outputChannels))
	b.rows = 0
	b.bytes = 0
	return pg
}
