// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package bucket

import (
	"sync"
	"testing"

	"github.com/rfrost26/ckv/kvtypes"
)

func newTestBackend(numBuckets, numWorkers int) *Backend {
	return New(numBuckets, 8, numWorkers)
}

// Scenario A: single-threaded insert/lookup round trip.
func TestScenarioA(t *testing.T) {
	b := newTestBackend(64, 1)
	w := b.NewWorker(0)

	w.Insert(1, 100)
	w.Insert(2, 200)
	w.Insert(3, 300)

	cases := []struct {
		key       uint64
		wantValue uint64
		wantOK    bool
	}{
		{1, 100, true},
		{2, 200, true},
		{3, 300, true},
		{4, 0, false},
	}
	for _, c := range cases {
		v, ok := w.Lookup(c.key)
		if ok != c.wantOK || (ok && v != c.wantValue) {
			t.Errorf("Lookup(%d) = (%d, %v), want (%d, %v)", c.key, v, ok, c.wantValue, c.wantOK)
		}
	}
}

// Scenario B: last-writer-wins on repeated inserts of the same key.
func TestScenarioB(t *testing.T) {
	b := newTestBackend(64, 1)
	w := b.NewWorker(0)

	w.Insert(7, 1)
	w.Insert(7, 2)
	w.Insert(7, 3)

	v, ok := w.Lookup(7)
	if !ok || v != 3 {
		t.Errorf("Lookup(7) = (%d, %v), want (3, true)", v, ok)
	}
}

// Scenario C: sentinel misuse is silently rejected.
func TestScenarioC(t *testing.T) {
	b := newTestBackend(64, 1)
	w := b.NewWorker(0)

	w.Insert(kvtypes.Sentinel, 5)
	w.Insert(5, kvtypes.Sentinel)

	if v, ok := w.Lookup(kvtypes.Sentinel); ok {
		t.Errorf("Lookup(SENTINEL) = (%d, true), want not found", v)
	}
	if v, ok := w.Lookup(5); ok {
		t.Errorf("Lookup(5) = (%d, true), want not found", v)
	}
}

// Scenario D: forced collisions on both candidate buckets with a tiny
// table eventually trigger a resize, and every key still resolves.
func TestScenarioD(t *testing.T) {
	b := newTestBackend(2, 1)
	w := b.NewWorker(0)

	keys := make(map[uint64]uint64)
	for k := uint64(0); k < 20; k++ {
		v := k * 10
		w.Insert(k, v)
		keys[k] = v

		if b.ResizeNeeded() {
			b.Resize(1)
		}
	}
	if b.ResizeNeeded() {
		b.Resize(1)
	}

	for k, v := range keys {
		got, ok := w.Lookup(k)
		if !ok || got != v {
			t.Errorf("Lookup(%d) = (%d, %v), want (%d, true)", k, got, ok, v)
		}
	}
}

// Scenario E: many workers inserting disjoint keys concurrently, verified
// sequentially afterward. Resize needs a barrier with no inserts in flight,
// which this test does not provide, so the table starts large enough
// (8192 buckets, 32768 slots for 16000 keys) that no kick cascade is
// exhausted.
func TestScenarioEConcurrentDisjointInserts(t *testing.T) {
	const numWorkers = 8
	const perWorker = 2000
	b := newTestBackend(8192, numWorkers)

	var wg sync.WaitGroup
	for wID := 0; wID < numWorkers; wID++ {
		wg.Add(1)
		go func(wID int) {
			defer wg.Done()
			w := b.NewWorker(wID)
			base := uint64(wID) * perWorker
			for i := uint64(0); i < perWorker; i++ {
				w.Insert(base+i, base+i+1)
			}
		}(wID)
	}
	wg.Wait()

	verifier := b.NewWorker(0)
	for wID := 0; wID < numWorkers; wID++ {
		base := uint64(wID) * perWorker
		for i := uint64(0); i < perWorker; i++ {
			v, ok := verifier.Lookup(base + i)
			if !ok || v != base+i+1 {
				t.Fatalf("Lookup(%d) = (%d, %v), want (%d, true)", base+i, v, ok, base+i+1)
			}
		}
	}
}

func TestResizePreservesContents(t *testing.T) {
	b := newTestBackend(4, 2)
	w := b.NewWorker(0)

	// 64 keys do not fit the initial 16 slots, so resize whenever a kick
	// cascade asks for it, then once more to check the final rebuild.
	for k := uint64(0); k < 64; k++ {
		w.Insert(k, k*2)
		if b.ResizeNeeded() {
			b.Resize(2)
		}
	}
	b.Resize(2)

	for k := uint64(0); k < 64; k++ {
		v, ok := w.Lookup(k)
		if !ok || v != k*2 {
			t.Errorf("after resize, Lookup(%d) = (%d, %v), want (%d, true)", k, v, ok, k*2)
		}
	}
}
