package continuation_test

import (
	"testing"

	"github.com/mars-research/redleaf-sub003/pkg/continuation"
)

func TestPushPopBalance(t *testing.T) {
	s := continuation.NewStack()
	s.Push(continuation.Frame{CallerDomainID: 1, Label: "a"})
	s.Push(continuation.Frame{CallerDomainID: 2, Label: "b"})

	if got := s.Depth(); got != 2 {
		t.Fatalf("Depth() = %d, want 2", got)
	}

	f := s.Pop()
	if f.Label != "b" {
		t.Fatalf("Pop() = %+v, want label b", f)
	}
	f = s.Pop()
	if f.Label != "a" {
		t.Fatalf("Pop() = %+v, want label a", f)
	}
	if got := s.Depth(); got != 0 {
		t.Fatalf("Depth() after draining = %d, want 0", got)
	}
}

func TestPopEmptyPanics(t *testing.T) {
	s := continuation.NewStack()
	defer func() {
		if recover() == nil {
			t.Fatalf("Pop of empty stack did not panic")
		}
	}()
	s.Pop()
}

func TestUnwindToStopsAtTarget(t *testing.T) {
	s := continuation.NewStack()
	s.Push(continuation.Frame{CallerDomainID: 0, Label: "outer"})
	s.Push(continuation.Frame{CallerDomainID: 1, Label: "middle"})
	s.Push(continuation.Frame{CallerDomainID: 2, Label: "inner"})

	popped := s.UnwindTo(1)
	if len(popped) != 2 {
		t.Fatalf("UnwindTo(1) popped %d frames, want 2", len(popped))
	}
	if got := s.Depth(); got != 1 {
		t.Fatalf("Depth() after UnwindTo = %d, want 1", got)
	}
}

func TestUnwindRecoversPanic(t *testing.T) {
	s := continuation.NewStack()
	s.Push(continuation.Frame{CallerDomainID: 0, Label: "caller"})

	recovered, popped, panicked := continuation.Unwind(s, 0, func() {
		panic("boom")
	})

	if !panicked {
		t.Fatalf("panicked = false, want true")
	}
	if recovered != "boom" {
		t.Fatalf("recovered = %v, want boom", recovered)
	}
	if len(popped) != 1 {
		t.Fatalf("popped %d frames, want 1", len(popped))
	}
	if got := s.Depth(); got != 0 {
		t.Fatalf("Depth() after Unwind = %d, want 0", got)
	}
}

func TestUnwindNoPanic(t *testing.T) {
	s := continuation.NewStack()
	recovered, popped, panicked := continuation.Unwind(s, 0, func() {})
	if panicked || recovered != nil || popped != nil {
		t.Fatalf("Unwind of non-panicking fn reported panic=%v recovered=%v popped=%v", panicked, recovered, popped)
	}
}
