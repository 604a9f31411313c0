/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package mono

import "time"

// Since returns the elapsed monotonic duration from `start`, as produced
// by NanoTime. Defined here, without a build tag, so both the `mono` and
// portable NanoTime implementations share it.
func Since(start int64) time.Duration { return time.Duration(NanoTime() - start) }
