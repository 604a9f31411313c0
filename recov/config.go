/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package recov

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Config carries the recovery manager's tunables (spec.md §6).
type Config struct {
	// DiscoveryInterval is the discovery loop's fixed delay D; also the
	// upper bound of its per-cycle jitter sleep.
	DiscoveryInterval time.Duration `json:"missing_shard_discovery_interval"`
	// RecoveryThreads bounds concurrent recovery workers.
	RecoveryThreads int `json:"recovery_threads"`
	// NodeID identifies this storage node to the catalog.
	NodeID string `json:"node_id"`
}

func (c Config) threads() int {
	if c.RecoveryThreads <= 0 {
		return 1
	}
	return c.RecoveryThreads
}

// MarshalJSON renders DiscoveryInterval as a duration string rather than
// a raw int64, matching the cluster config's human-editable JSON.
func (c Config) MarshalJSON() ([]byte, error) {
	return jsoniter.Marshal(struct {
		DiscoveryInterval string `json:"missing_shard_discovery_interval"`
		RecoveryThreads   int    `json:"recovery_threads"`
		NodeID            string `json:"node_id"`
	}{
		DiscoveryInterval: c.DiscoveryInterval.String(),
		RecoveryThreads:   c.RecoveryThreads,
		NodeID:            c.NodeID,
	})
}

// UnmarshalJSON parses DiscoveryInterval via time.ParseDuration.
func (c *Config) UnmarshalJSON(data []byte) error {
	var raw struct {
		DiscoveryInterval string `json:"missing_shard_discovery_interval"`
		RecoveryThreads   int    `json:"recovery_threads"`
		NodeID            string `json:"node_id"`
	}
	if err := jsoniter.Unmarshal(data, &raw); err != nil {
		return err
	}
	d, err := time.ParseDuration(raw.DiscoveryInterval)
	if err != nil {
		return err
	}
	c.DiscoveryInterval = d
	c.RecoveryThreads = raw.RecoveryThreads
	c.NodeID = raw.NodeID
	return nil
}
