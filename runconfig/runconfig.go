// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package runconfig parses the command-line surface, following the
// teacher's own flag-parsing style in gnmireverse/client: plain standard
// library flag.FlagSet, StringVar/IntVar/BoolVar into a pre-built Config,
// with out-of-range values reset to a documented default rather than
// rejected outright.
package runconfig

import (
	"flag"
	"fmt"
	"io"
)

// Backend selects which of the three interchangeable backends a run uses.
type Backend string

const (
	BackendBCK Backend = "bck"
	BackendCHL Backend = "chl"
	BackendCHF Backend = "chf"
)

const (
	defaultDataFile   = "output.txt"
	defaultNumBuckets = 64
	defaultNumThreads = 16
	defaultLockRatio  = 8
	defaultBackend    = BackendCHL
)

// Config holds the parsed CLI surface for one run.
type Config struct {
	DataFile       string
	InitialBuckets int
	NumThreads     int
	LockRatio      int
	ResizeEnabled  bool
	SpeedTest      bool
	Backend        Backend
}

// Parse parses args (normally os.Args[1:]) into a Config, writing any
// out-of-range warnings to diagnostics. An unparsable backend selector or
// flag.FlagSet parse error is returned as an error; the caller is expected
// to treat that as a fatal, exit-1 condition.
func Parse(args []string, diagnostics io.Writer) (Config, error) {
	fs := flag.NewFlagSet("kvstore", flag.ContinueOnError)
	fs.SetOutput(diagnostics)

	cfg := Config{
		DataFile:       defaultDataFile,
		InitialBuckets: defaultNumBuckets,
		NumThreads:     defaultNumThreads,
		LockRatio:      defaultLockRatio,
		ResizeEnabled:  true,
		Backend:        defaultBackend,
	}

	var backendStr string
	var disableResize bool

	fs.StringVar(&cfg.DataFile, "f", defaultDataFile, "input data file")
	fs.IntVar(&cfg.InitialBuckets, "b", defaultNumBuckets, "initial number of buckets (must be > 0)")
	fs.IntVar(&cfg.NumThreads, "t", defaultNumThreads, "number of worker threads (must be >= 1)")
	fs.BoolVar(&disableResize, "r", false, "disable resize")
	fs.BoolVar(&cfg.SpeedTest, "s", false, "speed-test mode: skip metric accumulation and value verification")
	fs.StringVar(&backendStr, "k", string(defaultBackend), "backend to use: bck, chl, or chf")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.InitialBuckets <= 0 {
		fmt.Fprintf(diagnostics, "start buckets must be > 0, setting to default\n")
		cfg.InitialBuckets = defaultNumBuckets
	}
	if cfg.NumThreads < 1 {
		fmt.Fprintf(diagnostics, "number of threads must be >= 1, setting to default\n")
		cfg.NumThreads = defaultNumThreads
	}

	switch Backend(backendStr) {
	case BackendBCK, BackendCHL, BackendCHF:
		cfg.Backend = Backend(backendStr)
	default:
		return Config{}, fmt.Errorf("unknown backend %q: must be one of bck, chl, chf", backendStr)
	}

	cfg.ResizeEnabled = !disableResize
	return cfg, nil
}
