//go:build !mono

// Package mono provides low-level monotonic time
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package mono

import "time"

// NanoTime returns a monotonic timestamp in nanoseconds. The `mono` build
// tag swaps this for a direct runtime.nanotime linkname (see
// fast_nanotime.go); this is the portable fallback used by `go test` and
// any build that doesn't pass `-tags mono`.
func NanoTime() int64 { return int64(time.Since(base)) }

// base carries Go's monotonic clock reading, so time.Since(base) is
// unaffected by wall-clock adjustments.
var base = time.Now()
