// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package recovery implements the BCK backend's recovery queue: a bounded
// holding area for items whose cuckoo kick cascade exceeded MAX_KICKS,
// drained by the resize coordinator after every resize it triggers.
package recovery

import (
	"sync/atomic"

	"github.com/rfrost26/ckv/errs"
	"github.com/rfrost26/ckv/kvtypes"
)

// Queue is a bounded array of items plus an atomic count, sized to the
// worker count: at most one in-flight kick-cascade failure per worker can
// be pending at any time, since the dispatcher drains the queue on every
// resize it runs.
type Queue struct {
	items []kvtypes.Item
	count atomic.Int32
}

// New creates a Queue with the given capacity (normally the worker count).
func New(capacity int) *Queue {
	return &Queue{items: make([]kvtypes.Item, capacity)}
}

// Push appends item to the queue. A Push that would exceed capacity is a
// fatal invariant violation: it means some worker's kick cascade failed
// without the dispatcher draining the previous round's failures via a
// resize, which should be structurally impossible given the queue's
// capacity.
func (q *Queue) Push(item kvtypes.Item) {
	idx := q.count.Add(1) - 1
	if int(idx) >= len(q.items) {
		panic(&errs.FatalError{Op: errs.OpRecoveryOverflow})
	}
	q.items[idx] = item
}

// Len returns the number of items currently queued.
func (q *Queue) Len() int {
	return int(q.count.Load())
}

// Drain returns a copy of the queued items and resets the queue to empty.
// Only the dispatcher (single-threaded during the resize barrier) calls
// Drain.
func (q *Queue) Drain() []kvtypes.Item {
	n := int(q.count.Load())
	out := make([]kvtypes.Item, n)
	copy(out, q.items[:n])
	q.count.Store(0)
	return out
}
