// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package bucket

import (
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"

	"github.com/rfrost26/ckv/hashfn"
	"github.com/rfrost26/ckv/kvtypes"
)

// Resize doubles the table and rehashes every item into it, partitioning
// the old bucket range across workers goroutines, then drains the recovery
// queue into the freshly built table.
//
// The caller (the dispatch package's resize coordinator) guarantees no
// concurrent Lookup/Insert is in flight while Resize runs. Rebuild
// goroutines still take the new table's stripe locks: different old
// buckets, processed by different goroutines, can rehash into the same new
// bucket, so the new table's bucket arrays are shared mutable state across
// the rebuild just as they are during live operation.
func (b *Backend) Resize(workers int) {
	old := b.current()
	next := newTable(old.numBuckets()*2, old.stripe.Len()*2)

	if workers < 1 {
		workers = 1
	}

	var g errgroup.Group
	n := old.numBuckets()
	chunk := (n + workers - 1) / workers
	for worker, start := 0, 0; start < n; worker, start = worker+1, start+chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		start, end, rng := start, end, newWorkerRand(worker)
		g.Go(func() error {
			for i := start; i < end; i++ {
				for _, it := range old.buckets[i] {
					if it.Empty() {
						continue
					}
					rebuildInsert(next, it, rng)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, it := range b.recoveryQ.Drain() {
		rebuildInsert(next, it, newWorkerRand(workers))
	}

	b.tbl.Store(next)
	b.resizeNeeded.Store(false)
}

// rebuildInsert places it into t. A rebuild visits each stored key exactly
// once, so unlike a live Insert it needs no update-in-place scan and no
// publication-slot check — only a free-slot placement, falling back to the
// same bounded kick cascade a live insert uses for the rare case where
// doubling the table still leaves both candidate buckets full.
func rebuildInsert(t *table, it kvtypes.Item, rng *rand.Rand) {
	currKey, currValue := it.Key, it.Value

	for kicks := 0; kicks < MaxKicks; kicks++ {
		n := t.numBuckets()
		b1 := hashfn.H1(currKey, n)
		b2 := hashfn.H2(currKey, n)

		release := t.stripe.AcquirePair(b1, b2)

		if placeFree(&t.buckets[b1], currKey, currValue) ||
			(b1 != b2 && placeFree(&t.buckets[b2], currKey, currValue)) {
			release()
			return
		}

		r := int(rng.Uint32()) % (2 * BucketSize)
		bucketIdx, slotIdx := b1, r
		if r >= BucketSize {
			bucketIdx, slotIdx = b2, r%BucketSize
		}
		evicted := t.buckets[bucketIdx][slotIdx]
		t.buckets[bucketIdx][slotIdx] = kvtypes.Item{Key: currKey, Value: currValue}
		release()

		currKey, currValue = evicted.Key, evicted.Value
	}
}
