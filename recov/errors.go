/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package recov

import "fmt"

// ErrShardUnknown: the catalog has no record of the requested shard
// (spec.md §7, fatal to the caller of RecoverShard).
type ErrShardUnknown struct{ ShardID ShardID }

func (e *ErrShardUnknown) Error() string {
	return fmt.Sprintf("recov: shard %s is unknown to the catalog", e.ShardID)
}

// ErrBackupNotFound: the backup store has no copy of the shard (fatal to
// that job; a metric is recorded by the caller).
type ErrBackupNotFound struct{ ShardID ShardID }

func (e *ErrBackupNotFound) Error() string {
	return fmt.Sprintf("recov: shard %s not found in backup store", e.ShardID)
}

// ErrBackupCorruption: the restored file fails integrity verification
// after publication (post-publication invariant violated). An invalid file
// found before restore is quarantined and restored over instead, without
// this error. Quarantine of the file has been attempted by the time this
// error is returned.
type ErrBackupCorruption struct {
	ShardID ShardID
	Path    string
}

func (e *ErrBackupCorruption) Error() string {
	return fmt.Sprintf("recov: shard %s at %s failed integrity verification", e.ShardID, e.Path)
}

// ErrRecoveryIO: staging copy or atomic rename failed.
type ErrRecoveryIO struct {
	ShardID ShardID
	Cause   error
}

func (e *ErrRecoveryIO) Error() string {
	return fmt.Sprintf("recov: shard %s: I/O failure: %v", e.ShardID, e.Cause)
}
func (e *ErrRecoveryIO) Unwrap() error { return e.Cause }
