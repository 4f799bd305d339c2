// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package chainlock implements the CHL backend: chained hashing with one
// striped mutual-exclusion lock per bucket's singly-linked list.
package chainlock

import (
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/rfrost26/ckv/hashfn"
	"github.com/rfrost26/ckv/kvtypes"
	"github.com/rfrost26/ckv/striped"
)

// MaxChainSize is the depth at which a bucket's chain requests a resize.
const MaxChainSize = 8

type node struct {
	key, value uint64
	next       *node
}

type table struct {
	heads  []*node
	stripe *striped.Stripe
}

func newTable(numBuckets, numLocks int) *table {
	return &table{heads: make([]*node, numBuckets), stripe: striped.New(numLocks)}
}

func (t *table) numBuckets() int {
	return len(t.heads)
}

// Backend is the CHL backend: a chained table and its lock stripe, shared
// by every worker. CHL has no per-worker state, unlike BCK, so NewWorker
// just hands back a stateless wrapper over the shared table.
type Backend struct {
	tbl          atomic.Pointer[table]
	resizeNeeded atomic.Bool
	itemCount    atomic.Int64
}

// New creates a CHL backend with the given initial bucket and lock counts.
func New(numBuckets, numLocks int) *Backend {
	b := &Backend{}
	b.tbl.Store(newTable(numBuckets, numLocks))
	return b
}

func (b *Backend) current() *table {
	return b.tbl.Load()
}

// ResizeNeeded implements kvtypes.Backend.
func (b *Backend) ResizeNeeded() bool {
	return b.resizeNeeded.Load()
}

// Len implements kvtypes.Backend.
func (b *Backend) Len() int {
	return int(b.itemCount.Load())
}

// NewWorker implements kvtypes.Backend.
func (b *Backend) NewWorker(int) kvtypes.Worker {
	return worker{backend: b}
}

type worker struct {
	backend *Backend
}

// Lookup implements kvtypes.Worker.
func (w worker) Lookup(key uint64) (uint64, bool) {
	if key == kvtypes.Sentinel {
		return 0, false
	}
	t := w.backend.current()
	bucket := hashfn.H1(key, t.numBuckets())

	t.stripe.Acquire(bucket)
	defer t.stripe.Release(bucket)

	for n := t.heads[bucket]; n != nil; n = n.next {
		if n.key == key {
			return n.value, true
		}
	}
	return 0, false
}

// Insert implements kvtypes.Worker.
func (w worker) Insert(key, value uint64) {
	if !kvtypes.ValidInsert(key, value) {
		return
	}
	t := w.backend.current()
	bucket := hashfn.H1(key, t.numBuckets())

	t.stripe.Acquire(bucket)

	depth := 0
	for n := t.heads[bucket]; n != nil; n = n.next {
		if n.key == key {
			n.value = value
			t.stripe.Release(bucket)
			return
		}
		depth++
	}

	t.heads[bucket] = &node{key: key, value: value, next: t.heads[bucket]}
	t.stripe.Release(bucket)

	w.backend.itemCount.Add(1)
	if depth >= MaxChainSize {
		w.backend.resizeNeeded.Store(true)
	}
}

// Resize doubles the table and both the bucket count and the lock-stripe
// count, rehashing every chain into the new table under its own locks, and
// partitioning the old bucket range across workers goroutines.
func (b *Backend) Resize(workers int) {
	old := b.current()
	next := newTable(old.numBuckets()*2, old.stripe.Len()*2)

	if workers < 1 {
		workers = 1
	}

	var g errgroup.Group
	n := old.numBuckets()
	chunk := (n + workers - 1) / workers
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		start, end := start, end
		g.Go(func() error {
			for i := start; i < end; i++ {
				for cur := old.heads[i]; cur != nil; cur = cur.next {
					resizeInsert(next, cur.key, cur.value)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	b.tbl.Store(next)
	b.resizeNeeded.Store(false)
}

// resizeInsert prepends (key, value) to its bucket under the new table's
// lock, used only by Resize. A rebuild never needs the key-presence scan a
// live Insert does: every key in the old table appears at most once.
func resizeInsert(t *table, key, value uint64) {
	bucket := hashfn.H1(key, t.numBuckets())
	t.stripe.Acquire(bucket)
	t.heads[bucket] = &node{key: key, value: value, next: t.heads[bucket]}
	t.stripe.Release(bucket)
}
