// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package bucket

import (
	"time"

	"golang.org/x/exp/rand"
)

// newWorkerRand seeds a private PRNG for workerID. Each worker owns its own
// generator rather than sharing one global source, which would serialize
// every kick decision behind a lock and skew the random walk under
// contention.
func newWorkerRand(workerID int) *rand.Rand {
	seed := uint64(workerID)*31 + uint64(time.Now().UnixNano())
	return rand.New(rand.NewSource(seed))
}
