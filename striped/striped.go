// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package striped implements a fixed-size array of mutual-exclusion locks
// shared across many buckets ("striping"), plus the ascending-order
// two-lock acquisition protocol the BCK backend needs to stay deadlock-free.
package striped

import (
	"sync"
	"unsafe"
)

// cacheLineBytes is sized so consecutive Lock values don't share a cache
// line, padding a sync.Mutex directly.
const cacheLineBytes = 64

// Lock is a single stripe lock, padded to one cache line so that workers
// acquiring adjacent lock indices don't contend over the same line.
type Lock struct {
	mu sync.Mutex
	_  [cacheLineBytes - unsafe.Sizeof(sync.Mutex{})]byte
}

// Stripe is a dense array of num_locks locks. Bucket index b is protected
// by lock b % len(locks).
type Stripe struct {
	locks []Lock
}

// New creates a Stripe with numLocks locks. numLocks must be positive.
func New(numLocks int) *Stripe {
	if numLocks < 1 {
		numLocks = 1
	}
	return &Stripe{locks: make([]Lock, numLocks)}
}

// Len returns the number of locks in the stripe.
func (s *Stripe) Len() int {
	return len(s.locks)
}

// Index maps a bucket index to its stripe lock index.
func (s *Stripe) Index(bucket int) int {
	return bucket % len(s.locks)
}

// Acquire locks the single lock for bucket index b.
func (s *Stripe) Acquire(b int) {
	s.locks[s.Index(b)].mu.Lock()
}

// Release unlocks the single lock for bucket index b.
func (s *Stripe) Release(b int) {
	s.locks[s.Index(b)].mu.Unlock()
}

// AcquirePair locks the (up to two) stripe locks covering buckets b1 and b2,
// always in ascending lock-index order, and returns a function that
// releases exactly what was acquired. This ordering prevents deadlock among
// workers whose candidate bucket pairs overlap: two workers contending for
// locks i and j always take i before j.
func (s *Stripe) AcquirePair(b1, b2 int) (release func()) {
	l1, l2 := s.Index(b1), s.Index(b2)
	if l1 == l2 {
		s.locks[l1].mu.Lock()
		return func() { s.locks[l1].mu.Unlock() }
	}
	if l1 > l2 {
		l1, l2 = l2, l1
	}
	s.locks[l1].mu.Lock()
	s.locks[l2].mu.Lock()
	return func() {
		s.locks[l2].mu.Unlock()
		s.locks[l1].mu.Unlock()
	}
}
