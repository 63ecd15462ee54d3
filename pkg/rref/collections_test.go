package rref_test

import (
	"testing"

	"github.com/mars-research/redleaf-sub003/pkg/rref"
)

func TestRRefArraySetGet(t *testing.T) {
	h := newHeap(t)
	arr := rref.NewRRefArray[string](h, 4)

	r, err := rref.New(h, typeID, "a")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := arr.Set(0, r); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !arr.Has(0) {
		t.Fatalf("Has(0) = false after Set")
	}

	got, err := arr.Get(0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if *got.Deref() != "a" {
		t.Fatalf("Get(0) referent = %q, want %q", *got.Deref(), "a")
	}
	if arr.Has(0) {
		t.Fatalf("Has(0) = true after Get, want false (slot should be emptied)")
	}
}

func TestRRefArrayOutOfBounds(t *testing.T) {
	h := newHeap(t)
	arr := rref.NewRRefArray[string](h, 2)
	if _, err := arr.Get(5); err == nil {
		t.Fatalf("Get(5) on capacity-2 array succeeded, want error")
	}
}

func TestRRefDequeFIFO(t *testing.T) {
	h := newHeap(t)
	dq := rref.NewRRefDeque[string](h, 3)

	for _, s := range []string{"one", "two", "three"} {
		r, err := rref.New(h, typeID, s)
		if err != nil {
			t.Fatalf("New(%q): %v", s, err)
		}
		if leftover, err := dq.PushBack(r); err != nil || leftover != nil {
			t.Fatalf("PushBack(%q): leftover=%v err=%v", s, leftover, err)
		}
	}

	for _, want := range []string{"one", "two", "three"} {
		got, err := dq.PopFront()
		if err != nil {
			t.Fatalf("PopFront: %v", err)
		}
		if got == nil {
			t.Fatalf("PopFront returned nil, want %q", want)
		}
		if *got.Deref() != want {
			t.Fatalf("PopFront() = %q, want %q", *got.Deref(), want)
		}
	}

	empty, err := dq.PopFront()
	if err != nil {
		t.Fatalf("PopFront on empty deque: %v", err)
	}
	if empty != nil {
		t.Fatalf("PopFront on empty deque = %v, want nil", empty)
	}
}

func TestRRefDequeFullRejectsPush(t *testing.T) {
	h := newHeap(t)
	dq := rref.NewRRefDeque[string](h, 1)

	r1, _ := rref.New(h, typeID, "a")
	r2, _ := rref.New(h, typeID, "b")

	if leftover, err := dq.PushBack(r1); err != nil || leftover != nil {
		t.Fatalf("first PushBack: leftover=%v err=%v", leftover, err)
	}
	leftover, err := dq.PushBack(r2)
	if err != nil {
		t.Fatalf("second PushBack: %v", err)
	}
	if leftover != r2 {
		t.Fatalf("PushBack on full deque did not return the rejected value")
	}
}

func TestRRefVecAsSlice(t *testing.T) {
	v := rref.NewRRefVec[int](4, 9)
	s := v.AsMutSlice()
	if len(s) != 4 {
		t.Fatalf("len(AsMutSlice()) = %d, want 4", len(s))
	}
	for i, x := range s {
		if x != 9 {
			t.Fatalf("s[%d] = %d, want 9", i, x)
		}
	}
	s[0] = 1
	if v.AsSlice()[0] != 1 {
		t.Fatalf("mutation through AsMutSlice not visible via AsSlice")
	}
}

func TestOwnedGet(t *testing.T) {
	o := rref.NewOwned([]int{1, 2, 3})
	got := o.Get()
	(*got)[0] = 99
	if (*o.Get())[0] != 99 {
		t.Fatalf("Owned.Get() did not return a stable pointer to interior state")
	}
}
