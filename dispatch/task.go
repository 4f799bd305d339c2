// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package dispatch

import (
	"github.com/rfrost26/ckv/kvtypes"
	"github.com/rfrost26/ckv/runmetrics"
)

// runTask executes every record in chunk against w, accumulating one
// task's worth of metric deltas and adding them to rec in a single call.
// In speed-test mode, lookups still run (to exercise the backend) but no
// value verification or metric accumulation happens.
func runTask(chunk []byte, w kvtypes.Worker, rec runmetrics.Recorder, speedTest bool) {
	records := parseRecords(chunk)
	if len(records) == 0 {
		return
	}

	var d runmetrics.Delta
	for _, r := range records {
		d.Ops++
		switch r.op {
		case opLookup:
			d.Lookups++
			if speedTest {
				w.Lookup(r.key)
				continue
			}
			v, ok := w.Lookup(r.key)
			if !ok {
				d.FailedLookups++
			} else {
				d.SuccessfulLookups++
				if v != r.value {
					d.Mismatches++
				}
			}
		case opInsert:
			d.Inserts++
			w.Insert(r.key, r.value)
		}
	}

	if !speedTest {
		rec.Add(d)
	}
}
