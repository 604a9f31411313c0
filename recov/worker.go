/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package recov

import (
	"context"
	"math"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/NVIDIA/aistore/cmn/mono"
	"github.com/NVIDIA/aistore/cmn/nlog"
)

// Worker restores one shard at a time, per spec.md §4.5.
type Worker struct {
	storage StorageService
	backup  BackupStore
	stats   *Stats
}

// NewWorker constructs a Worker over the given collaborators.
func NewWorker(storage StorageService, backup BackupStore, stats *Stats) *Worker {
	return &Worker{storage: storage, backup: backup, stats: stats}
}

// Recover executes the 8-step restore algorithm for ms. Success is a
// no-op if the final path already held a valid copy.
func (w *Worker) Recover(ctx context.Context, ms MissingShard) error {
	final := w.storage.StoragePath(ms.ShardID)
	staging := w.storage.StagingPath(ms.ShardID) + ".tmp-" + uuid.NewString()

	exists, err := w.backup.Exists(ctx, ms.ShardID)
	if err != nil {
		return errors.Wrap(err, "recov: backup existence check")
	}
	if !exists {
		w.stats.incBackupNotFound(ms.Active)
		return &ErrBackupNotFound{ShardID: ms.ShardID}
	}

	if corrupt, verifyErr := w.verifyExisting(final, ms); verifyErr == nil && !corrupt {
		nlog.Infof("recov: %s already valid at %s, no-op", ms, final)
		return nil
	} else if verifyErr != nil {
		return verifyErr
	}
	// existing file (if any) was invalid; quarantine and fall through to restore.

	if err := w.storage.CreateParents(staging); err != nil {
		return &ErrRecoveryIO{ShardID: ms.ShardID, Cause: err}
	}

	start := mono.NanoTime()
	bytes, err := w.restoreWithRetry(ctx, ms.ShardID, staging)
	if err != nil {
		os.Remove(staging)
		return &ErrRecoveryIO{ShardID: ms.ShardID, Cause: err}
	}
	rate := dataRate(bytes, mono.Since(start))
	nlog.Infof("recov: restored %s to %s, %d bytes at %.0f B/s", ms, staging, bytes, rate)

	if err := w.storage.CreateParents(final); err != nil {
		os.Remove(staging)
		return &ErrRecoveryIO{ShardID: ms.ShardID, Cause: err}
	}
	if err := atomicPublish(staging, final); err != nil {
		os.Remove(staging)
		return &ErrRecoveryIO{ShardID: ms.ShardID, Cause: err}
	}
	os.Remove(staging) // unconditional: normally already gone via rename

	corrupt, err := IsCorrupt(final, ms.ExpectedLength, ms.ExpectedHash)
	if err != nil {
		return &ErrRecoveryIO{ShardID: ms.ShardID, Cause: err}
	}
	if corrupt {
		if qerr := quarantineFile(w.storage, ms.ShardID, final); qerr != nil {
			nlog.Warningf("recov: quarantine %s after post-publication corruption: %v", final, qerr)
		}
		w.stats.incCorruption(ms.Active)
		return &ErrBackupCorruption{ShardID: ms.ShardID, Path: final}
	}

	w.stats.incSuccess(ms.Active, bytes)
	return nil
}

// verifyExisting checks whether final already holds a valid copy. If it
// exists but is invalid, it is quarantined and (true, nil) is returned so
// the caller proceeds to restore.
func (w *Worker) verifyExisting(final string, ms MissingShard) (corrupt bool, err error) {
	if _, statErr := os.Stat(final); statErr != nil {
		if os.IsNotExist(statErr) {
			return true, nil // nothing to verify, proceed to restore
		}
		return false, &ErrRecoveryIO{ShardID: ms.ShardID, Cause: statErr}
	}
	bad, err := IsCorrupt(final, ms.ExpectedLength, ms.ExpectedHash)
	if err != nil {
		return false, &ErrRecoveryIO{ShardID: ms.ShardID, Cause: err}
	}
	if !bad {
		return false, nil
	}
	w.stats.incCorruption(ms.Active)
	if qerr := quarantineFile(w.storage, ms.ShardID, final); qerr != nil {
		nlog.Warningf("recov: quarantine %s: %v", final, qerr)
	}
	return true, nil
}

// restoreWithRetry copies the shard from the backup store, retrying
// transient backup-store errors with bounded exponential backoff. A
// definitive "not found" was already ruled out by Exists above; failures
// here are I/O, not absence.
func (w *Worker) restoreWithRetry(ctx context.Context, shardID ShardID, dest string) (int64, error) {
	var bytes int64
	op := func() error {
		n, err := w.backup.Restore(ctx, shardID, dest)
		if err != nil {
			return err
		}
		bytes = n
		return nil
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return 0, err
	}
	return bytes, nil
}

// atomicPublish renames staging to final. A destination that already
// exists (a concurrent duplicate job winning the race) is treated as
// success and swallowed (spec.md §4.5 step 6).
func atomicPublish(staging, final string) error {
	if err := os.Rename(staging, final); err != nil {
		if os.IsExist(err) {
			return nil
		}
		if _, statErr := os.Stat(final); statErr == nil {
			return nil
		}
		return err
	}
	return nil
}

// dataRate guards against NaN/Inf for a zero-duration transfer, reporting
// zero instead (spec.md §4.5 step 5).
func dataRate(bytes int64, elapsed time.Duration) float64 {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	rate := float64(bytes) / secs
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0
	}
	return rate
}
