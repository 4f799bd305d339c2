// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package hashfn computes the two multiplicative bucket-index mixers shared
// by every backend. Chained backends (CHL, CHF) use only H1; the cuckoo
// backend (BCK) uses both to pick a key's two candidate buckets.
//
// These are deliberately not cryptographic hashes: speed and uniform
// spreading over a power-of-two bucket count are the only requirements.
package hashfn

// H1 computes the first bucket index for key over a table of numBuckets
// buckets.
func H1(key uint64, numBuckets int) int {
	return int((key*37 + 13) % uint64(numBuckets))
}

// H2 computes the second bucket index for key over a table of numBuckets
// buckets. H1 and H2 may coincide for a given key; callers must handle that
// as a single-bucket probe, not a special case in the hash functions
// themselves.
func H2(key uint64, numBuckets int) int {
	return int((key*31 + 11) % uint64(numBuckets))
}
