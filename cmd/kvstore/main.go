// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Command kvstore reads a stream of lookup/insert records from a file and
// executes them concurrently against one of three interchangeable
// key/value backends, reporting execution time and operation counters on
// stdout.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rfrost26/ckv/bucket"
	"github.com/rfrost26/ckv/chainfree"
	"github.com/rfrost26/ckv/chainlock"
	"github.com/rfrost26/ckv/dispatch"
	"github.com/rfrost26/ckv/errs"
	glogadapter "github.com/rfrost26/ckv/glog"
	"github.com/rfrost26/ckv/kvtypes"
	"github.com/rfrost26/ckv/logger"
	"github.com/rfrost26/ckv/runconfig"
	"github.com/rfrost26/ckv/runmetrics"
)

func main() {
	var log logger.Logger = &glogadapter.Glog{}

	cfg, err := runconfig.Parse(os.Args[1:], os.Stderr)
	if err != nil {
		log.Errorf("parsing arguments: %v", err)
		fatal(log, errs.Fatal(errs.OpParseArgs, err))
	}

	f, err := os.Open(cfg.DataFile)
	if err != nil {
		fatal(log, errs.Fatal(errs.OpOpenInput, err))
	}
	defer f.Close()

	backend, err := newBackend(cfg.Backend, cfg.InitialBuckets, cfg.NumThreads, cfg.LockRatio)
	if err != nil {
		fatal(log, errs.Fatal(errs.OpAllocTable, err))
	}

	var recorder runmetrics.Recorder
	var counters *runmetrics.Counters
	if cfg.SpeedTest {
		recorder = runmetrics.Noop{}
	} else {
		counters = runmetrics.New()
		recorder = counters
	}

	coord := dispatch.New(backend, recorder, cfg.NumThreads, cfg.ResizeEnabled, cfg.SpeedTest)

	log.Infof("starting run: backend=%s buckets=%d threads=%d resize=%v speed_test=%v",
		cfg.Backend, cfg.InitialBuckets, cfg.NumThreads, cfg.ResizeEnabled, cfg.SpeedTest)

	start := time.Now()
	if err := coord.Run(context.Background(), f); err != nil {
		fatal(log, err)
	}
	elapsed := time.Since(start)

	fmt.Printf("execution time: %f seconds\n", elapsed.Seconds())
	if !cfg.SpeedTest {
		snap := counters.Snapshot()
		fmt.Printf("total_ops: %d\n", snap.Ops)
		fmt.Printf("total_lookups: %d\n", snap.Lookups)
		fmt.Printf("successful_lookups: %d\n", snap.SuccessfulLookups)
		fmt.Printf("failed_lookups: %d\n", snap.FailedLookups)
		fmt.Printf("total_inserts: %d\n", snap.Inserts)
		fmt.Printf("failed_matches: %d\n", snap.Mismatches)
	}
}

func newBackend(sel runconfig.Backend, initialBuckets, numThreads, lockRatio int) (kvtypes.Backend, error) {
	switch sel {
	case runconfig.BackendBCK:
		return bucket.New(initialBuckets, lockRatio, numThreads), nil
	case runconfig.BackendCHL:
		numLocks := initialBuckets / lockRatio
		if numLocks < 1 {
			numLocks = 1
		}
		return chainlock.New(initialBuckets, numLocks), nil
	case runconfig.BackendCHF:
		return chainfree.New(initialBuckets), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", sel)
	}
}

func fatal(log logger.Logger, err error) {
	log.Fatalf("%v", err)
}
