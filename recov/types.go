/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package recov

import (
	"fmt"

	"github.com/google/uuid"
)

// ShardID is a 128-bit opaque shard identifier.
type ShardID = uuid.UUID

// ShardMetadata is the catalog's source of truth for one shard.
type ShardMetadata struct {
	ShardID        ShardID
	ExpectedLength int64
	ExpectedHash   *uint64 // optional xxhash64
}

// MissingShard is the dedup queue's key. Equality is on (ShardID, Active)
// only: two background requests for the same shard collapse to one
// outstanding job, while a background and an active request for the same
// shard are distinct entries (spec.md §3).
type MissingShard struct {
	ShardID        ShardID
	ExpectedLength int64
	ExpectedHash   *uint64
	Active         bool
}

// Key returns the dedup identity of m: (ShardID, Active). Two
// MissingShard values with equal keys are the same queue entry regardless
// of any other field.
func (m MissingShard) Key() string {
	return fmt.Sprintf("%s|%v", m.ShardID, m.Active)
}

func (m MissingShard) String() string {
	priority := "background"
	if m.Active {
		priority = "active"
	}
	return fmt.Sprintf("shard=%s priority=%s size=%d", m.ShardID, priority, m.ExpectedLength)
}
