// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package chainfree implements the CHF backend: chained hashing where each
// bucket's list head is an atomic pointer updated by CAS, with no locking
// at all on the hot path.
package chainfree

import (
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/rfrost26/ckv/hashfn"
	"github.com/rfrost26/ckv/kvtypes"
)

type node struct {
	key   uint64
	value atomic.Uint64
	next  atomic.Pointer[node]
}

type table struct {
	heads []atomic.Pointer[node]
}

func newTable(numBuckets int) *table {
	return &table{heads: make([]atomic.Pointer[node], numBuckets)}
}

func (t *table) numBuckets() int {
	return len(t.heads)
}

// Backend is the CHF backend: an atomically-swappable table of CAS-linked
// chains, with no per-worker state.
type Backend struct {
	tbl          atomic.Pointer[table]
	resizeNeeded atomic.Bool
	itemCount    atomic.Int64
}

// New creates a CHF backend with the given initial bucket count.
func New(numBuckets int) *Backend {
	b := &Backend{}
	b.tbl.Store(newTable(numBuckets))
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

// Lookup implements kvtypes.Worker. Each node's value is read with a single
// atomic load, so a concurrent Insert updating an existing key's value in
// place can never be observed half-written.
func (w worker) Lookup(key uint64) (uint64, bool) {
	if key == kvtypes.Sentinel {
		return 0, false
	}
	t := w.backend.current()
	bucket := hashfn.H1(key, t.numBuckets())

	for n := t.heads[bucket].Load(); n != nil; n = n.next.Load() {
		if n.key == key {
			return n.value.Load(), true
		}
	}
	return 0, false
}

// Insert implements kvtypes.Worker. A duplicate key is updated in place with
// a single atomic store; a new key is prepended with a CAS retry loop racing
// every other concurrent inserter into the same bucket. Every iteration
// walks the chain from the just-loaded head before attempting the CAS, so a
// key prepended by a winning racer is always found rather than risking a
// second node for the same key.
func (w worker) Insert(key, value uint64) {
	if !kvtypes.ValidInsert(key, value) {
		return
	}
	t := w.backend.current()
	bucket := hashfn.H1(key, t.numBuckets())
	head := &t.heads[bucket]

	var n *node
	for {
		expected := head.Load()
		for cur := expected; cur != nil; cur = cur.next.Load() {
			if cur.key == key {
				cur.value.Store(value)
				return
			}
		}

		if n == nil {
			n = &node{key: key}
			n.value.Store(value)
		}
		n.next.Store(expected)
		if head.CompareAndSwap(expected, n) {
			w.backend.itemCount.Add(1)
			depth := 0
			for cur := n; cur != nil; cur = cur.next.Load() {
				depth++
			}
			if depth >= maxChainSize {
				w.backend.resizeNeeded.Store(true)
			}
			return
		}
	}
}

// maxChainSize is the depth at which a bucket's chain requests a resize.
const maxChainSize = 8

// Resize doubles the bucket count, rehashing every node into the new table
// by walking the old chains and prepending fresh nodes with plain CAS, the
// same as a live Insert of a never-before-seen key.
func (b *Backend) Resize(workers int) {
	old := b.current()
	next := newTable(old.numBuckets() * 2)

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
				for cur := old.heads[i].Load(); cur != nil; cur = cur.next.Load() {
					resizeInsert(next, cur.key, cur.value.Load())
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	b.tbl.Store(next)
	b.resizeNeeded.Store(false)
}

// resizeInsert prepends (key, value) to its bucket via CAS, used only by
// Resize. Every key in the old table appears at most once, so a rebuild
// insert never needs the duplicate-key scan a live Insert does.
func resizeInsert(t *table, key, value uint64) {
	bucket := hashfn.H1(key, t.numBuckets())
	head := &t.heads[bucket]

	n := &node{key: key}
	n.value.Store(value)

	for {
		old := head.Load()
		n.next.Store(old)
		if head.CompareAndSwap(old, n) {
			return
		}
	}
}
