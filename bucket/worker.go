// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package bucket

import (
	"golang.org/x/exp/rand"

	"github.com/rfrost26/ckv/hashfn"
	"github.com/rfrost26/ckv/kvtypes"
)

// worker is the per-goroutine handle for the BCK backend: it owns one
// publication slot and one private PRNG for the lifetime of the goroutine
// that calls NewWorker.
type worker struct {
	backend *Backend
	slot    *paddedSlot
	rng     *rand.Rand
}

// Lookup implements kvtypes.Worker.
func (w *worker) Lookup(key uint64) (uint64, bool) {
	if key == kvtypes.Sentinel {
		return 0, false
	}

	t := w.backend.current()
	n := t.numBuckets()
	b1 := hashfn.H1(key, n)
	b2 := hashfn.H2(key, n)

	release := t.stripe.AcquirePair(b1, b2)
	defer release()

	if v, _, ok := scanBucket(&t.buckets[b1], key); ok {
		return v, true
	}
	if b1 != b2 {
		if v, _, ok := scanBucket(&t.buckets[b2], key); ok {
			return v, true
		}
	}

	// An item currently mid-kick lives in a publication slot rather than
	// a bucket; scanning every slot keeps it observable so a lookup never
	// "disappears" a key that's only momentarily between buckets.
	if v, ok := w.backend.scanSlots(key); ok {
		return v, true
	}
	return 0, false
}

// Insert implements kvtypes.Worker, running the bounded cuckoo kick cascade.
func (w *worker) Insert(key, value uint64) {
	if !kvtypes.ValidInsert(key, value) {
		return
	}

	w.slot.clear()
	currKey, currValue := key, value

	for i := 0; i < MaxKicks; i++ {
		t := w.backend.current()
		n := t.numBuckets()
		b1 := hashfn.H1(currKey, n)
		b2 := hashfn.H2(currKey, n)

		release := t.stripe.AcquirePair(b1, b2)

		// After a kick, currKey sits in our publication slot, where another
		// worker's step 2 may have overwritten its value; take that value.
		if i > 0 {
			currValue = w.slot.value.Load()
		}

		// 1. Update-in-place wins over every other placement, checked as
		// two distinct ordered scans: in-place update and free-slot
		// placement are never merged into one scan.
		if updateInPlace(&t.buckets[b1], currKey, currValue) ||
			(b1 != b2 && updateInPlace(&t.buckets[b2], currKey, currValue)) {
			release()
			w.slot.clear()
			return
		}

		// 2. A duplicate key might be mid-kick in another worker's slot.
		if w.backend.updateSlotValue(currKey, currValue, w.slot) {
			release()
			w.slot.clear()
			return
		}

		// 3. Free slot in either candidate bucket.
		if placeFree(&t.buckets[b1], currKey, currValue) ||
			(b1 != b2 && placeFree(&t.buckets[b2], currKey, currValue)) {
			release()
			w.backend.itemCount.Add(1)
			w.slot.clear()
			return
		}

		// 4. Evict: pick a uniformly random slot among the 2*BucketSize
		// candidate positions and publish the victim to our slot before
		// taking its place.
		r := int(w.rng.Uint32()) % (2 * BucketSize)
		bucketIdx, slotIdx := b1, r
		if r >= BucketSize {
			bucketIdx, slotIdx = b2, r%BucketSize
		}

		evicted := t.buckets[bucketIdx][slotIdx]
		w.slot.set(evicted.Key, evicted.Value)
		t.buckets[bucketIdx][slotIdx] = kvtypes.Item{Key: currKey, Value: currValue}

		release()

		currKey, currValue = evicted.Key, evicted.Value
	}

	// Kick cascade exhausted MaxKicks: hand the displaced item to the
	// recovery queue and request a resize rather than loop forever.
	w.backend.recoveryQ.Push(kvtypes.Item{Key: currKey, Value: currValue})
	w.backend.resizeNeeded.Store(true)
	w.slot.clear()
}

func (b *Backend) scanSlots(key uint64) (uint64, bool) {
	for i := range b.slots {
		if b.slots[i].key.Load() == key {
			return b.slots[i].value.Load(), true
		}
	}
	return 0, false
}

func (b *Backend) updateSlotValue(key, value uint64, own *paddedSlot) bool {
	for i := range b.slots {
		if &b.slots[i] != own && b.slots[i].key.Load() == key {
			b.slots[i].value.Store(value)
			return true
		}
	}
	return false
}

func updateInPlace(r *row, key, value uint64) bool {
	for i := range r {
		if r[i].Key == key {
			r[i].Value = value
			return true
		}
	}
	return false
}

func placeFree(r *row, key, value uint64) bool {
	for i := range r {
		if r[i].Key == kvtypes.Sentinel {
			r[i] = kvtypes.Item{Key: key, Value: value}
			return true
		}
	}
	return false
}
