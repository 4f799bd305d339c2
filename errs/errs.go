// Copyright (c) 2015 Arista Networks, Inc.  All rights reserved.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the LICENSE file.

// Package errs holds the small set of typed, fatal errors the store's
// lifecycle can produce. Per-operation failures (sentinel misuse, unparsable
// records, a cuckoo kick cascade exceeding its limit) are never represented
// as errors; they are reflected only in metric counters, so this package
// only needs to cover the lifecycle errors that abort the process.
package errs

import "fmt"

// Op identifies which lifecycle step produced a FatalError.
type Op string

const (
	// OpOpenInput is the input data file failing to open.
	OpOpenInput Op = "open-input"
	// OpAllocTable is a table or lock-stripe allocation failing.
	OpAllocTable Op = "alloc-table"
	// OpParseArgs is the command-line surface failing to parse.
	OpParseArgs Op = "parse-args"
	// OpRecoveryOverflow is the BCK recovery queue exceeding its capacity,
	// a fatal invariant violation: the queue is sized to the worker count
	// and drained on every resize, so it must never overflow.
	OpRecoveryOverflow Op = "recovery-overflow"
)

// FatalError is a lifecycle error that must terminate the process with a
// nonzero exit status. It is never returned from Lookup or Insert.
type FatalError struct {
	Op  Op
	Err error
}

// Error implements the error interface.
func (e *FatalError) Error() string {
	if e.Err == nil {
		return string(e.Op)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap allows errors.Is/errors.As to see through to the underlying cause.
func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal wraps err as a FatalError tagged with op. Fatal(op, nil) returns nil.
func Fatal(op Op, err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Op: op, Err: err}
}
