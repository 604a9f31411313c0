/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package recov

import (
	"io"
	"os"

	"github.com/OneOfOne/xxhash"
)

// Xxhash64File streams path through xxhash64, the same checksum the
// teacher's cmn/cos package uses for daemon/proxy IDs, now reused for
// shard integrity.
func Xxhash64File(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := xxhash.New64()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

// IsCorrupt implements spec.md §4.5's integrity function:
//
//	is_corrupt(path, expected_size, expected_hash?) =
//	    length(path) != expected_size
//	 || (expected_hash present && xxhash64(path) != expected_hash)
//
// A missing file is corrupt (length mismatch against any non-negative
// expected size).
func IsCorrupt(path string, expectedSize int64, expectedHash *uint64) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}
	if fi.Size() != expectedSize {
		return true, nil
	}
	if expectedHash == nil {
		return false, nil
	}
	got, err := Xxhash64File(path)
	if err != nil {
		return false, err
	}
	return got != *expectedHash, nil
}

// lengthMismatch reports whether path is absent or its length differs
// from expectedSize, without touching the checksum (spec.md §4.3 step 2:
// discovery uses size as the cheap indicator, never a checksum read).
func lengthMismatch(path string, expectedSize int64) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}
	return fi.Size() != expectedSize, nil
}
