package gpio

import (
	"errors"
	"testing"
)

func TestFakeInputRead(t *testing.T) {
	f := NewFakeInput(true, false, true)

	// Read first level
	level, err := f.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if level != true {
		t.Errorf("level 0: expected true, got %v", level)
	}

	// Read second level
	level, err = f.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if level != false {
		t.Errorf("level 1: expected false, got %v", level)
	}

	// Read third level
	level, err = f.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if level != true {
		t.Errorf("level 2: expected true, got %v", level)
	}

	// Fourth read should repeat last level
	level, err = f.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if level != true {
		t.Errorf("level 3 (repeat): expected true, got %v", level)
	}
}

func TestFakeInputNoLevels(t *testing.T) {
	f := NewFakeInput()

	_, err := f.Read()
	if err == nil {
		t.Error("expected error with no levels")
	}
}

func TestFakeInputError(t *testing.T) {
	f := NewFakeInput(true)
	f.ReadError = errors.New("simulated error")

	_, err := f.Read()
	if err == nil {
		t.Error("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeInputClose(t *testing.T) {
	f := NewFakeInput(true)

	if f.Closed {
		t.Error("should not be closed initially")
	}

	err := f.Close()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestFakeInputReset(t *testing.T) {
	f := NewFakeInput(true, false)

	// Consume first level
	f.Read()

	// Reset
	f.Reset()

	// Should read first level again
	level, _ := f.Read()
	if level != true {
		t.Errorf("after reset: expected true, got %v", level)
	}
}

func TestFakeOutputRecordsWrites(t *testing.T) {
	f := NewFakeOutput()

	f.Write(true)
	f.Write(false)
	f.Write(true)

	writes := f.Writes()
	if len(writes) != 3 {
		t.Fatalf("expected 3 writes, got %d", len(writes))
	}
	if writes[0] != true || writes[1] != false || writes[2] != true {
		t.Errorf("unexpected write sequence: %v", writes)
	}
}

func TestFakeOutputLast(t *testing.T) {
	f := NewFakeOutput()

	if _, ok := f.Last(); ok {
		t.Error("expected no last level before any write")
	}

	f.Write(true)
	f.Write(false)

	level, ok := f.Last()
	if !ok {
		t.Fatal("expected a last level after writes")
	}
	if level != false {
		t.Errorf("expected last level false, got %v", level)
	}
}

func TestFakeOutputError(t *testing.T) {
	f := NewFakeOutput()
	f.WriteError = errors.New("simulated error")

	err := f.Write(true)
	if err == nil {
		t.Error("expected error to be returned")
	}

	if len(f.Writes()) != 0 {
		t.Error("failed write should not be recorded")
	}
}

func TestFakeOutputClose(t *testing.T) {
	f := NewFakeOutput()

	if f.Closed {
		t.Error("should not be closed initially")
	}

	err := f.Close()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

// Compile-time checks that the fakes satisfy the pin interfaces.
var _ Input = (*FakeInput)(nil)
var _ Output = (*FakeOutput)(nil)
