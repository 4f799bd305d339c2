// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package dispatch

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestChunkReaderSmallInput(t *testing.T) {
	r := NewChunkReader(strings.NewReader("I 1 100\nL 1 0\n"))

	chunk, err := r.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if string(chunk) != "I 1 100\nL 1 0\n" {
		t.Errorf("Next() = %q", chunk)
	}

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("second Next() error = %v, want io.EOF", err)
	}
}

func TestChunkReaderBreaksAtLastNewline(t *testing.T) {
	// Build an input of at least ChunkSize+32 bytes made of 17-byte records;
	// 17 does not divide ChunkSize, so the first window lands mid-record.
	var buf bytes.Buffer
	for buf.Len() < ChunkSize+32 {
		buf.WriteString("I 1234567 654321\n")
	}
	input := buf.Bytes()

	r := NewChunkReader(bytes.NewReader(input))
	first, err := r.Next()
	if err != nil {
		t.Fatalf("first Next() error = %v", err)
	}
	if len(first) == 0 || first[len(first)-1] != '\n' {
		start := len(first) - 16
		if start < 0 {
			start = 0
		}
		t.Fatalf("first chunk does not end on a newline: %q", first[start:])
	}
	if len(first) > ChunkSize {
		t.Fatalf("first chunk length %d exceeds ChunkSize %d", len(first), ChunkSize)
	}

	var reassembled []byte
	reassembled = append(reassembled, first...)
	for {
		chunk, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		reassembled = append(reassembled, chunk...)
	}

	if !bytes.Equal(reassembled, input) {
		t.Errorf("reassembled input does not match original: got %d bytes, want %d", len(reassembled), len(input))
	}
}
