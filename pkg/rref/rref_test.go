package rref_test

import (
	"testing"

	"github.com/mars-research/redleaf-sub003/pkg/dropper"
	"github.com/mars-research/redleaf-sub003/pkg/heap"
	"github.com/mars-research/redleaf-sub003/pkg/rref"
)

const typeID uint64 = 3

func newHeap(t *testing.T) *heap.Registry {
	t.Helper()
	d := dropper.New()
	if err := d.Register(typeID, dropper.CleanupValue); err != nil {
		t.Fatalf("Register: %v", err)
	}
	d.Seal()
	return heap.NewRegistry(d, nil)
}

func TestNewAndDeref(t *testing.T) {
	h := newHeap(t)
	r, err := rref.New(h, typeID, "hello")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := *r.Deref(); got != "hello" {
		t.Fatalf("Deref() = %q, want %q", got, "hello")
	}
}

func TestMoveToChangesOwnership(t *testing.T) {
	h := newHeap(t)
	h.SetCurrentDomain(1)
	r, err := rref.New(h, typeID, 123)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := r.MoveTo(2); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}

	entries := h.ReclaimDomain(1)
	if len(entries) != 0 {
		t.Fatalf("domain 1 still owns %d allocations after MoveTo(2)", len(entries))
	}
	entries = h.ReclaimDomain(2)
	if len(entries) != 1 {
		t.Fatalf("domain 2 owns %d allocations, want 1", len(entries))
	}
}

func TestDropThenDerefPanics(t *testing.T) {
	h := newHeap(t)
	r, _ := rref.New(h, typeID, "x")
	r.Drop()

	defer func() {
		if recover() == nil {
			t.Fatalf("Deref after Drop did not panic")
		}
	}()
	r.Deref()
}

func TestBorrowForfeitBalance(t *testing.T) {
	h := newHeap(t)
	r, _ := rref.New(h, typeID, "x")
	r.Borrow()
	r.Borrow()
	r.Forfeit()
	r.Forfeit()
	// Should not panic, and the RRef should still be usable afterward.
	if got := *r.Deref(); got != "x" {
		t.Fatalf("Deref() after balanced borrow/forfeit = %q, want %q", got, "x")
	}
}
