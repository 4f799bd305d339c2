// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package runmetrics accumulates the six run-level operation counters
// reported on stdout at the end of a run. Each worker accumulates its own
// deltas locally while processing a task and adds them to the shared
// Recorder once per task, the same pattern the original program used with
// an OpenMP atomic accumulation into a shared metrics struct.
package runmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Recorder is the counter surface a task accumulates into at its end.
type Recorder interface {
	Add(d Delta)
}

// Delta holds one task's worth of counter increments, accumulated locally
// by a worker before a single call to Recorder.Add.
type Delta struct {
	Ops               uint64
	Lookups           uint64
	SuccessfulLookups uint64
	FailedLookups     uint64
	Inserts           uint64
	Mismatches        uint64
}

// Snapshot is a point-in-time read of every counter, used for the final
// stdout report.
type Snapshot struct {
	Ops               uint64
	Lookups           uint64
	SuccessfulLookups uint64
	FailedLookups     uint64
	Inserts           uint64
	Mismatches        uint64
}

// Counters wraps six prometheus.Counter values, one per reported metric.
type Counters struct {
	ops               prometheus.Counter
	lookups           prometheus.Counter
	successfulLookups prometheus.Counter
	failedLookups     prometheus.Counter
	inserts           prometheus.Counter
	mismatches        prometheus.Counter
}

// New creates a Counters with every counter named under the kvstore
// namespace, unattached to any registry (the process reports totals on
// stdout at exit rather than serving a /metrics endpoint).
func New() *Counters {
	mk := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kvstore",
			Name:      name,
			Help:      help,
		})
	}
	return &Counters{
		ops:               mk("total_ops", "total operation records processed"),
		lookups:           mk("total_lookups", "total lookup operations"),
		successfulLookups: mk("successful_lookups", "lookups that found a value"),
		failedLookups:     mk("failed_lookups", "lookups that found nothing"),
		inserts:           mk("total_inserts", "total insert operations"),
		mismatches:        mk("value_mismatches", "successful lookups whose value disagreed with the record"),
	}
}

// Add implements Recorder.
func (c *Counters) Add(d Delta) {
	if d.Ops > 0 {
		c.ops.Add(float64(d.Ops))
	}
	if d.Lookups > 0 {
		c.lookups.Add(float64(d.Lookups))
	}
	if d.SuccessfulLookups > 0 {
		c.successfulLookups.Add(float64(d.SuccessfulLookups))
	}
	if d.FailedLookups > 0 {
		c.failedLookups.Add(float64(d.FailedLookups))
	}
	if d.Inserts > 0 {
		c.inserts.Add(float64(d.Inserts))
	}
	if d.Mismatches > 0 {
		c.mismatches.Add(float64(d.Mismatches))
	}
}

// Snapshot reads every counter's current value for reporting.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Ops:               readCounter(c.ops),
		Lookups:           readCounter(c.lookups),
		SuccessfulLookups: readCounter(c.successfulLookups),
		FailedLookups:     readCounter(c.failedLookups),
		Inserts:           readCounter(c.inserts),
		Mismatches:        readCounter(c.mismatches),
	}
}

func readCounter(c prometheus.Counter) uint64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return uint64(m.GetCounter().GetValue())
}

// Noop discards every delta, used in speed-test mode so no atomic add or
// prometheus counter touch happens on the hot path.
type Noop struct{}

// Add implements Recorder.
func (Noop) Add(Delta) {}
