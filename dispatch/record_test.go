// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package dispatch

import "testing"

func TestParseRecordsBasic(t *testing.T) {
	got := parseRecords([]byte("I 1 100\nL 1 0\n"))
	want := []record{
		{op: 'I', key: 1, value: 100},
		{op: 'L', key: 1, value: 0},
	}
	if len(got) != len(want) {
		t.Fatalf("parseRecords() returned %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParseRecordsIgnoresUnknownOp(t *testing.T) {
	got := parseRecords([]byte("X 1 2\nI 3 4\n"))
	if len(got) != 1 || got[0].op != 'I' || got[0].key != 3 || got[0].value != 4 {
		t.Errorf("parseRecords() = %+v, want only the I record", got)
	}
}

func TestParseRecordsSkipsUnparsableRecord(t *testing.T) {
	got := parseRecords([]byte("I abc def\nI 5 6\n"))
	if len(got) != 1 || got[0].key != 5 || got[0].value != 6 {
		t.Errorf("parseRecords() = %+v, want only the second record", got)
	}
}

func TestParseRecordsWhitespaceVariants(t *testing.T) {
	got := parseRecords([]byte("I\t1\t100\n  I  2   200  \n"))
	if len(got) != 2 {
		t.Fatalf("parseRecords() returned %d records, want 2", len(got))
	}
	if got[0].key != 1 || got[0].value != 100 || got[1].key != 2 || got[1].value != 200 {
		t.Errorf("parseRecords() = %+v", got)
	}
}

func TestParseRecordsEmptyChunk(t *testing.T) {
	if got := parseRecords(nil); len(got) != 0 {
		t.Errorf("parseRecords(nil) = %+v, want empty", got)
	}
}
