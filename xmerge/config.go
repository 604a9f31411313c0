/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package xmerge

// Config carries the merge operator's per-query tunables (spec.md §6).
type Config struct {
	SortKey        SortKey `json:"sort_key"`
	OutputChannels []int   `json:"output_channels"`
	// FullnessThreshold is the builder's byte-size flush threshold; zero or
	// a negative value selects a 1 MiB threshold.
	FullnessThreshold int64 `json:"fullness_threshold_bytes"`
}

func (c Config) fullness() FullnessPredicate {
	if c.FullnessThreshold <= 0 {
		return DefaultFullness(1 << 20)
	}
	return DefaultFullness(c.FullnessThreshold)
}
