/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package recov

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/NVIDIA/aistore/cmn/nlog"
)

const quarantineSuffix = ".corrupt"

// quarantineFile renames a corrupt file at path into its quarantine location.
// If a quarantine file already exists there, the corrupt file is left in
// place at path and the collision is logged, per spec.md §4.5 step 3 ("if
// a quarantine already exists, leave the corrupt file in place and log").
func quarantineFile(storage StorageService, shardID ShardID, path string) error {
	dst := storage.QuarantinePath(shardID) + quarantineSuffix
	if _, err := os.Stat(dst); err == nil {
		nlog.Warningf("recov: quarantine %s already exists, leaving %s in place", dst, path)
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := storage.CreateParents(dst); err != nil {
		return err
	}
	return os.Rename(path, dst)
}

// ListQuarantined enumerates "*.corrupt" files directly under dir, for
// forensic inspection. It is not consulted by the recovery path itself.
func ListQuarantined(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), quarantineSuffix) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}
