package heap_test

import (
	"testing"

	"github.com/mars-research/redleaf-sub003/pkg/dropper"
	"github.com/mars-research/redleaf-sub003/pkg/heap"
)

const typeID uint64 = 7

func newRegistry(t *testing.T) (*heap.Registry, *dropper.Table) {
	t.Helper()
	d := dropper.New()
	if err := d.Register(typeID, dropper.CleanupValue); err != nil {
		t.Fatalf("Register: %v", err)
	}
	d.Seal()
	return heap.NewRegistry(d, nil), d
}

func TestAllocRefusesUnregisteredType(t *testing.T) {
	d := dropper.New()
	d.Seal()
	r := heap.NewRegistry(d, nil)

	_, ok := r.Alloc(1, 999, heap.Layout{}, func() any { return new(int) })
	if ok {
		t.Fatalf("Alloc with unregistered type_id succeeded, want refusal")
	}
}

func TestAllocDeallocRoundTrip(t *testing.T) {
	r, _ := newRegistry(t)

	alloc, ok := r.Alloc(1, typeID, heap.Layout{Size: 8}, func() any { v := 42; return &v })
	if !ok {
		t.Fatalf("Alloc refused")
	}
	if got := r.Stats().LiveAllocations; got != 1 {
		t.Fatalf("LiveAllocations = %d, want 1", got)
	}

	r.Dealloc(alloc.ID)
	if got := r.Stats().LiveAllocations; got != 0 {
		t.Fatalf("LiveAllocations after Dealloc = %d, want 0", got)
	}
}

func TestDoubleDeallocIsNotFatal(t *testing.T) {
	r, _ := newRegistry(t)
	alloc, _ := r.Alloc(1, typeID, heap.Layout{}, func() any { return new(int) })
	r.Dealloc(alloc.ID)
	r.Dealloc(alloc.ID) // must not panic
}

func TestReclaimDomainIsTotal(t *testing.T) {
	r, _ := newRegistry(t)

	for i := 0; i < 5; i++ {
		r.Alloc(1, typeID, heap.Layout{}, func() any { return new(int) })
	}
	r.Alloc(2, typeID, heap.Layout{}, func() any { return new(int) })

	entries := r.ReclaimDomain(1)
	if len(entries) != 5 {
		t.Fatalf("ReclaimDomain(1) reclaimed %d entries, want 5", len(entries))
	}
	if got := r.Stats().LiveAllocations; got != 1 {
		t.Fatalf("LiveAllocations after reclaim = %d, want 1 (domain 2's allocation)", got)
	}
}

func TestChangeDomainMovesOwnership(t *testing.T) {
	r, _ := newRegistry(t)
	alloc, _ := r.Alloc(1, typeID, heap.Layout{}, func() any { return new(int) })

	if err := r.ChangeDomain(alloc.ID, 2); err != nil {
		t.Fatalf("ChangeDomain: %v", err)
	}

	entries := r.ReclaimDomain(1)
	if len(entries) != 0 {
		t.Fatalf("ReclaimDomain(1) found %d entries after move to domain 2, want 0", len(entries))
	}
	entries = r.ReclaimDomain(2)
	if len(entries) != 1 {
		t.Fatalf("ReclaimDomain(2) found %d entries, want 1", len(entries))
	}
}

func TestCurrentDomainPerGoroutine(t *testing.T) {
	r, _ := newRegistry(t)
	r.SetCurrentDomain(5)
	if got := r.CurrentDomain(); got != 5 {
		t.Fatalf("CurrentDomain() = %d, want 5", got)
	}

	prev := r.UpdateCurrentDomain(6)
	if prev != 5 {
		t.Fatalf("UpdateCurrentDomain returned %d, want 5", prev)
	}
	if got := r.CurrentDomain(); got != 6 {
		t.Fatalf("CurrentDomain() after update = %d, want 6", got)
	}

	r.ClearCurrentDomain()
	if got := r.CurrentDomain(); got != 0 {
		t.Fatalf("CurrentDomain() after clear = %d, want 0", got)
	}
}
