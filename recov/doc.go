// Package recov implements the shard recovery manager: a background
// subsystem that reconciles the local shard files on a storage node
// against the cluster's authoritative shard catalog, restoring missing or
// corrupt shards from a backup store via a deduplicating, priority-aware
// work queue with atomic publication.
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package recov
