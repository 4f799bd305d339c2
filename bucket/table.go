// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package bucket implements the BCK backend: bucketized cuckoo hashing with
// striped mutual-exclusion locks and intra-kick hand-off through per-worker
// publication slots.
package bucket

import (
	"sync/atomic"
	"unsafe"

	"github.com/rfrost26/ckv/kvtypes"
	"github.com/rfrost26/ckv/recovery"
	"github.com/rfrost26/ckv/striped"
)

// BucketSize is the fixed number of item slots in each bucket.
const BucketSize = 4

// MaxKicks bounds a single insert's cuckoo kick cascade. Exceeding it
// diverts the item to the recovery queue instead of looping forever.
const MaxKicks = 256

// row is one bucket: a fixed-capacity array of items. An empty slot has
// Key == kvtypes.Sentinel.
type row [BucketSize]kvtypes.Item

func newRow() row {
	var r row
	for i := range r {
		r[i] = kvtypes.Item{Key: kvtypes.Sentinel, Value: kvtypes.Sentinel}
	}
	return r
}

// table is one generation of the cuckoo table: a bucket array plus the
// lock stripe guarding it. Resize retires a table wholesale and publishes
// a new one; a table itself is immutable in size once created.
type table struct {
	buckets []row
	stripe  *striped.Stripe
}

func newTable(numBuckets, numLocks int) *table {
	buckets := make([]row, numBuckets)
	for i := range buckets {
		buckets[i] = newRow()
	}
	return &table{buckets: buckets, stripe: striped.New(numLocks)}
}

func (t *table) numBuckets() int {
	return len(t.buckets)
}

// paddedSlot is one worker's publication slot: the item it is mid-kick on,
// visible to every lookup while it is being re-inserted. Padded to one
// cache line.
type paddedSlot struct {
	key   atomic.Uint64
	value atomic.Uint64
	_     [64 - 2*unsafe.Sizeof(atomic.Uint64{})]byte
}

func (s *paddedSlot) clear() {
	s.key.Store(kvtypes.Sentinel)
	s.value.Store(kvtypes.Sentinel)
}

func (s *paddedSlot) set(key, value uint64) {
	s.value.Store(value)
	s.key.Store(key)
}

// Backend is the BCK backend: a cuckoo table plus its publication slots and
// recovery queue, shared by numWorkers goroutines.
type Backend struct {
	tbl          atomic.Pointer[table]
	slots        []paddedSlot
	recoveryQ    *recovery.Queue
	resizeNeeded atomic.Bool
	itemCount    atomic.Int64
	numWorkers   int
}

// New creates a BCK backend with the given initial bucket count and a
// publication slot (and recovery-queue capacity) for each of numWorkers
// workers. numLocks is numBuckets / lockRatio, at least 1.
func New(numBuckets, lockRatio, numWorkers int) *Backend {
	numLocks := numBuckets / lockRatio
	if numLocks < 1 {
		numLocks = 1
	}
	b := &Backend{
		slots:      make([]paddedSlot, numWorkers),
		recoveryQ:  recovery.New(numWorkers),
		numWorkers: numWorkers,
	}
	for i := range b.slots {
		b.slots[i].clear()
	}
	b.tbl.Store(newTable(numBuckets, numLocks))
	return b
}

func (b *Backend) current() *table {
	return b.tbl.Load()
}

// ResizeNeeded reports whether a kick cascade exhausted MaxKicks (depositing
// an item in the recovery queue) since the last Resize.
func (b *Backend) ResizeNeeded() bool {
	return b.resizeNeeded.Load()
}

// Len returns the approximate number of items currently stored.
func (b *Backend) Len() int {
	return int(b.itemCount.Load())
}

// NewWorker binds a Worker to workerID, giving it the matching publication
// slot and a private PRNG: one PRNG per worker, never shared, so
// eviction-randomness never contends across goroutines.
func (b *Backend) NewWorker(workerID int) kvtypes.Worker {
	return &worker{
		backend: b,
		slot:    &b.slots[workerID],
		rng:     newWorkerRand(workerID),
	}
}

func scanBucket(r *row, key uint64) (value uint64, idx int, found bool) {
	for i := range r {
		if r[i].Key == key {
			return r[i].Value, i, true
		}
	}
	return 0, -1, false
}
