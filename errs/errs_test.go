// Copyright (c) 2015 Arista Networks, Inc.  All rights reserved.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the LICENSE file.

package errs

import (
	"errors"
	"testing"
)

func TestFatalNilIsNil(t *testing.T) {
	if err := Fatal(OpOpenInput, nil); err != nil {
		t.Fatalf("Fatal(op, nil) = %v, want nil", err)
	}
}

func TestFatalWraps(t *testing.T) {
	cause := errors.New("no such file")
	err := Fatal(OpOpenInput, cause)

	var fe *FatalError
	if !errors.As(err, &fe) {
		t.Fatalf("errors.As failed to find *FatalError in %v", err)
	}
	if fe.Op != OpOpenInput {
		t.Errorf("Op = %q, want %q", fe.Op, OpOpenInput)
	}
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(err, cause) = false, want true")
	}
	if err.Error() != "open-input: no such file" {
		t.Errorf("Error() = %q", err.Error())
	}
}
