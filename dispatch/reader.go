// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package dispatch drives the reader/worker-pool/resize-coordinator
// pipeline: a single reader goroutine chunks an input stream, a fixed pool
// of worker goroutines drains the resulting tasks against a backend, and
// resize runs under a stop-the-world barrier between batches.
package dispatch

import "io"

// ChunkSize is the fixed byte window the reader pulls from the input
// stream on each read.
const ChunkSize = 32768

// ChunkReader splits an io.Reader into byte windows broken at the last
// newline, so a chunk handed to a task never contains a partial record.
// Unlike a seekable *os.File, an arbitrary io.Reader cannot rewind past a
// window boundary, so a short remainder is held back and prepended to the
// next read instead of being re-read from the source.
type ChunkReader struct {
	r        io.Reader
	leftover []byte
}

// NewChunkReader creates a ChunkReader over r.
func NewChunkReader(r io.Reader) *ChunkReader {
	return &ChunkReader{r: r}
}

// Next returns the next chunk of complete lines. It returns io.EOF, and a
// nil chunk, exactly when the underlying reader has no more data and no
// leftover bytes remain — never inferred from any other condition.
func (c *ChunkReader) Next() ([]byte, error) {
	buf := make([]byte, ChunkSize)
	n, rerr := c.r.Read(buf)
	for n == 0 && rerr == nil {
		n, rerr = c.r.Read(buf)
	}

	data := buf[:n]
	if len(c.leftover) > 0 {
		data = append(c.leftover, data...)
		c.leftover = nil
	}

	if n == 0 {
		if len(data) > 0 {
			return data, nil
		}
		return nil, rerr
	}

	if rerr == nil {
		idx := lastNewline(data)
		if idx < 0 {
			c.leftover = data
			return c.Next()
		}
		c.leftover = append([]byte(nil), data[idx+1:]...)
		data = data[:idx+1]
	}
	return data, nil
}

func lastNewline(data []byte) int {
	for i := len(data) - 1; i >= 0; i-- {
		if data[i] == '\n' {
			return i
		}
	}
	return -1
}
