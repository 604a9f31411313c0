/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package recov_test

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/NVIDIA/aistore/recov"
)

var _ = Describe("Worker", func() {
	var (
		root    string
		storage *dirStorageService
		backup  *fakeBackupStore
		stats   *recov.Stats
		worker  *recov.Worker
		ctx     context.Context
	)

	BeforeEach(func() {
		var err error
		root, err = os.MkdirTemp("", "recov-worker-")
		Expect(err).NotTo(HaveOccurred())
		storage = newDirStorageService(root)
		backup = newFakeBackupStore()
		stats = recov.NewStats(nil)
		worker = recov.NewWorker(storage, backup, stats)
		ctx = context.Background()
	})

	AfterEach(func() {
		os.RemoveAll(root)
	})

	It("restores a missing shard from backup (scenario 4)", func() {
		id := uuid.New()
		payload := []byte("the quick brown fox")
		backup.put(id, payload)
		hash, err := hashBytes(payload)
		Expect(err).NotTo(HaveOccurred())

		ms := recov.MissingShard{ShardID: id, ExpectedLength: int64(len(payload)), ExpectedHash: &hash, Active: false}
		Expect(worker.Recover(ctx, ms)).To(Succeed())

		final := storage.StoragePath(id)
		fi, err := os.Stat(final)
		Expect(err).NotTo(HaveOccurred())
		Expect(fi.Size()).To(Equal(int64(len(payload))))

		staging := storage.StagingPath(id)
		entries, _ := filepath.Glob(staging + "*")
		Expect(entries).To(BeEmpty())
	})

	It("quarantines a corrupt existing file before restoring (scenario 5)", func() {
		id := uuid.New()
		payload := []byte("correct contents")
		backup.put(id, payload)
		hash, err := hashBytes(payload)
		Expect(err).NotTo(HaveOccurred())

		final := storage.StoragePath(id)
		Expect(storage.CreateParents(final)).To(Succeed())
		Expect(os.WriteFile(final, []byte("wrong size"), 0o644)).To(Succeed())

		ms := recov.MissingShard{ShardID: id, ExpectedLength: int64(len(payload)), ExpectedHash: &hash}
		Expect(worker.Recover(ctx, ms)).To(Succeed())

		quarantined, err := recov.ListQuarantined(filepath.Dir(storage.QuarantinePath(id)))
		Expect(err).NotTo(HaveOccurred())
		Expect(quarantined).To(HaveLen(1))

		data, err := os.ReadFile(final)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal(payload))
	})

	It("fails with ErrBackupNotFound when the backup store has no copy", func() {
		id := uuid.New()
		err := worker.Recover(ctx, recov.MissingShard{ShardID: id, ExpectedLength: 10})
		Expect(err).To(HaveOccurred())
		var notFound *recov.ErrBackupNotFound
		Expect(err).To(BeAssignableToTypeOf(notFound))
	})

	It("is a no-op when the existing file already verifies", func() {
		id := uuid.New()
		payload := []byte("already here")
		backup.put(id, payload)
		hash, err := hashBytes(payload)
		Expect(err).NotTo(HaveOccurred())

		final := storage.StoragePath(id)
		Expect(storage.CreateParents(final)).To(Succeed())
		Expect(os.WriteFile(final, payload, 0o644)).To(Succeed())

		ms := recov.MissingShard{ShardID: id, ExpectedLength: int64(len(payload)), ExpectedHash: &hash}
		Expect(worker.Recover(ctx, ms)).To(Succeed())

		quarantined, _ := recov.ListQuarantined(filepath.Dir(storage.QuarantinePath(id)))
		Expect(quarantined).To(BeEmpty())
	})

	It("leaves no staging file behind after a backup-store failure", func() {
		id := uuid.New()
		// never registered with backup => Exists() is false => ErrBackupNotFound,
		// the earliest failure point; staging is never created.
		err := worker.Recover(ctx, recov.MissingShard{ShardID: id, ExpectedLength: 10})
		Expect(err).To(HaveOccurred())
		entries, _ := filepath.Glob(storage.StagingPath(id) + "*")
		Expect(entries).To(BeEmpty())
	})
})

func hashBytes(data []byte) (uint64, error) {
	path := filepath.Join(os.TempDir(), "recov-hash-"+uuid.NewString())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, err
	}
	defer os.Remove(path)
	return recov.Xxhash64File(path)
}
