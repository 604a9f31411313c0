/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package recov_test

import (
	"context"
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/NVIDIA/aistore/recov"
)

// blockingBackupStore lets a test control exactly when Restore returns, to
// force two submits to race while a job is in flight.
type blockingBackupStore struct {
	*fakeBackupStore
	release chan struct{}
	calls   int32
}

func (b *blockingBackupStore) Restore(ctx context.Context, shardID recov.ShardID, destination string) (int64, error) {
	atomic.AddInt32(&b.calls, 1)
	<-b.release
	return b.fakeBackupStore.Restore(ctx, shardID, destination)
}

var _ = Describe("dedup queue", func() {
	var (
		root    string
		catalog *fakeCatalog
		storage *dirStorageService
		mgr     *recov.Manager
		ctx     context.Context
	)

	BeforeEach(func() {
		var err error
		root, err = os.MkdirTemp("", "recov-queue-")
		Expect(err).NotTo(HaveOccurred())
		catalog = newFakeCatalog("node-1")
		storage = newDirStorageService(root)
		ctx = context.Background()
	})

	AfterEach(func() {
		os.RemoveAll(root)
	})

	It("collapses concurrent submits of an equal key into one job", func() {
		backing := newFakeBackupStore()
		blocking := &blockingBackupStore{fakeBackupStore: backing, release: make(chan struct{})}
		mgr = recov.NewManager(catalog, storage, blocking, recov.Config{RecoveryThreads: 2}, nil)
		defer mgr.Stop()

		id := uuid.New()
		payload := []byte("shared job payload")
		backing.put(id, payload)
		ms := recov.MissingShard{ShardID: id, ExpectedLength: int64(len(payload))}

		var wg sync.WaitGroup
		futures := make([]*recov.Future, 5)
		for i := 0; i < 5; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				futures[i] = mgr.Submit(ctx, ms)
			}()
		}
		wg.Wait()

		close(blocking.release)
		for _, f := range futures {
			Expect(f.Wait(ctx)).To(Succeed())
		}
		Expect(atomic.LoadInt32(&blocking.calls)).To(Equal(int32(1)))
	})

	It("treats active and background submits of the same shard as independent jobs (scenario 6)", func() {
		backing := newFakeBackupStore()
		mgr = recov.NewManager(catalog, storage, backing, recov.Config{RecoveryThreads: 2}, nil)
		defer mgr.Stop()

		id := uuid.New()
		payload := []byte("independent jobs")
		backing.put(id, payload)
		catalog.add(recov.ShardMetadata{ShardID: id, ExpectedLength: int64(len(payload))})

		activeFuture, err := mgr.RecoverShard(ctx, id)
		Expect(err).NotTo(HaveOccurred())
		bgFuture := mgr.Submit(ctx, recov.MissingShard{ShardID: id, ExpectedLength: int64(len(payload)), Active: false})

		Expect(activeFuture.Wait(ctx)).To(Succeed())
		Expect(bgFuture.Wait(ctx)).To(Succeed())
		Expect(catalog.getCalls).To(Equal(1))
	})

	It("fails RecoverShard with ErrShardUnknown for an unregistered shard", func() {
		backing := newFakeBackupStore()
		mgr = recov.NewManager(catalog, storage, backing, recov.Config{RecoveryThreads: 1}, nil)
		defer mgr.Stop()

		_, err := mgr.RecoverShard(ctx, uuid.New())
		Expect(err).To(HaveOccurred())
		var unknown *recov.ErrShardUnknown
		Expect(err).To(BeAssignableToTypeOf(unknown))
	})
})
