// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package dispatch

import (
	"context"
	"io"
	"sync"

	"github.com/rfrost26/ckv/kvtypes"
	"github.com/rfrost26/ckv/runmetrics"
	"github.com/rfrost26/ckv/sync/semaphore"
)

// MaxTaskPool bounds the number of chunks outstanding (enqueued but not yet
// finished) at any time.
const MaxTaskPool = 256

// Coordinator drives one run: a reader goroutine chunking the input, a
// fixed pool of worker goroutines draining chunks against backend, and the
// stop-the-world resize barrier between batches.
type Coordinator struct {
	backend  kvtypes.Backend
	recorder runmetrics.Recorder
	workers  int
	resize   bool
	speed    bool
	sem      *semaphore.Weighted
}

// New creates a Coordinator. workers is the size of the persistent worker
// pool; resize enables the resize coordinator; speed selects speed-test
// mode (no metric accumulation, no lookup-value verification).
func New(backend kvtypes.Backend, recorder runmetrics.Recorder, workers int, resize, speed bool) *Coordinator {
	if workers < 1 {
		workers = 1
	}
	return &Coordinator{
		backend:  backend,
		recorder: recorder,
		workers:  workers,
		resize:   resize,
		speed:    speed,
		sem:      semaphore.NewWeighted(MaxTaskPool),
	}
}

// Run reads r to completion, dispatching chunks to the worker pool and
// running a resize between batches whenever the backend requests one.
// It returns when the reader reports io.EOF and every outstanding task has
// finished, or on the first non-EOF reader error.
func (c *Coordinator) Run(ctx context.Context, r io.Reader) error {
	reader := NewChunkReader(r)

	tasks := make(chan []byte)
	var roundWG sync.WaitGroup

	var poolWG sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		w := c.backend.NewWorker(i)
		poolWG.Add(1)
		go func() {
			defer poolWG.Done()
			for chunk := range tasks {
				runTask(chunk, w, c.recorder, c.speed)
				c.sem.Release(1)
				roundWG.Done()
			}
		}()
	}

	eof := false
	for !eof {
		count := 0
		for {
			chunk, err := reader.Next()
			if err == io.EOF {
				eof = true
				break
			}
			if err != nil {
				close(tasks)
				poolWG.Wait()
				return err
			}

			if err := c.sem.Acquire(ctx, 1); err != nil {
				close(tasks)
				poolWG.Wait()
				return err
			}
			roundWG.Add(1)
			tasks <- chunk
			count++

			if count >= MaxTaskPool-1 {
				break
			}
			if c.resize && c.backend.ResizeNeeded() {
				break
			}
		}

		roundWG.Wait()

		if c.resize && c.backend.ResizeNeeded() {
			c.backend.Resize(c.workers)
		}
	}

	close(tasks)
	poolWG.Wait()
	return nil
}
