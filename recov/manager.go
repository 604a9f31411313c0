/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package recov

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// Manager wires the discovery loop, dedup queue, and worker into the
// recovery subsystem described in spec.md §2 ("Core B"). Callers
// construct one Manager per storage node.
type Manager struct {
	catalog   Catalog
	cfg       Config
	discovery *discoveryLoop
	queue     *dedupQueue
	Stats     *Stats
	started   bool
}

// NewManager builds a Manager over its collaborators. reg may be nil to
// skip Prometheus registration (as tests typically do).
func NewManager(catalog Catalog, storage StorageService, backup BackupStore, cfg Config, reg prometheus.Registerer) *Manager {
	stats := NewStats(reg)
	worker := NewWorker(storage, backup, stats)
	queue := newDedupQueue(worker, cfg.threads())
	return &Manager{
		catalog:   catalog,
		cfg:       cfg,
		discovery: newDiscoveryLoop(catalog, storage, queue, cfg),
		queue:     queue,
		Stats:     stats,
	}
}

// Start launches the discovery loop as a daemon goroutine. It returns
// immediately; call Stop to shut down.
func (m *Manager) Start(ctx context.Context) {
	m.started = true
	go m.discovery.Run(ctx)
}

// Stop halts the discovery loop (if Start was called) and then the
// recovery worker pool. Restores are not interrupted: Stop returns only
// after every queued and running restore has finished.
func (m *Manager) Stop() {
	if m.started {
		m.discovery.Stop()
	}
	m.queue.Stop()
}

// Submit enqueues ms directly, bypassing the catalog lookup RecoverShard
// performs, at the priority ms.Active selects. For callers that already
// hold the shard's metadata; the discovery loop submits to the dedup queue
// directly rather than through this method.
func (m *Manager) Submit(ctx context.Context, ms MissingShard) *Future {
	return m.queue.Submit(ctx, ms)
}

// RecoverShard implements the on-demand entry point of spec.md §4.6:
// look up metadata, fail with ErrShardUnknown if absent, otherwise submit
// an active-priority job and return its Future.
func (m *Manager) RecoverShard(ctx context.Context, shardID ShardID) (*Future, error) {
	sm, err := m.catalog.GetShard(ctx, shardID)
	if err != nil {
		return nil, err
	}
	if sm == nil {
		return nil, &ErrShardUnknown{ShardID: shardID}
	}
	f := m.queue.Submit(ctx, MissingShard{
		ShardID:        sm.ShardID,
		ExpectedLength: sm.ExpectedLength,
		ExpectedHash:   sm.ExpectedHash,
		Active:         true,
	})
	return f, nil
}
