package rref

import "fmt"

// RRefArray is the Go analog of RRefArray<T, N>: a heap-owned, bounded
// collection of optional RRef slots. Rust pins the capacity at the type
// level via the const generic N; Go generics have no integer type
// parameters, so capacity is instead a field fixed at construction and
// enforced on every mutating call (spec.md's "Go-specific translation
// notes" in SPEC_FULL.md).
//
// Grounded on original_source/lib/core/rref/src/rref_deque.rs's backing
// RRefArray<T, N> (the deque is itself built on top of the array).
type RRefArray[T any] struct {
	h     Heap
	slots []*RRef[T]
	cap   int
}

// NewRRefArray creates an array with the given fixed capacity, all slots
// initially empty.
func NewRRefArray[T any](h Heap, capacity int) *RRefArray[T] {
	return &RRefArray[T]{h: h, slots: make([]*RRef[T], capacity), cap: capacity}
}

// Cap returns the fixed capacity.
func (a *RRefArray[T]) Cap() int { return a.cap }

// Has reports whether slot i is occupied.
func (a *RRefArray[T]) Has(i int) bool {
	return a.slots[i] != nil
}

// Set installs value into slot i, marking it as owned by the collection
// rather than by any domain (spec.md §4.3: "setting marks element as
// owned by the collection — domain-id word 0"). Any previous occupant of
// the slot is returned so the caller can decide what to do with it (the
// array itself never silently drops a live value).
func (a *RRefArray[T]) Set(i int, value *RRef[T]) (*RRef[T], error) {
	if i < 0 || i >= a.cap {
		return nil, fmt.Errorf("rref: array index %d out of bounds (cap %d)", i, a.cap)
	}
	if value != nil {
		if err := value.MoveTo(0); err != nil {
			return nil, err
		}
	}
	prev := a.slots[i]
	a.slots[i] = value
	return prev, nil
}

// Get extracts slot i, restoring ownership to the current domain, and
// leaves the slot empty (spec.md §4.3: "extracting restores to current
// domain").
func (a *RRefArray[T]) Get(i int) (*RRef[T], error) {
	if i < 0 || i >= a.cap {
		return nil, fmt.Errorf("rref: array index %d out of bounds (cap %d)", i, a.cap)
	}
	v := a.slots[i]
	if v == nil {
		return nil, nil
	}
	a.slots[i] = nil
	if err := v.MoveToCurrent(); err != nil {
		return nil, err
	}
	return v, nil
}

// GetRef returns a read-only peek at slot i's referent without changing
// ownership.
func (a *RRefArray[T]) GetRef(i int) *T {
	v := a.slots[i]
	if v == nil {
		return nil
	}
	return v.Deref()
}

// GetMut returns a mutable peek at slot i's referent without changing
// ownership.
func (a *RRefArray[T]) GetMut(i int) *T {
	return a.GetRef(i)
}

// MoveTo moves the whole collection, and every inhabited slot, to
// newDomainID as a single logical transfer (spec.md §4.3).
func (a *RRefArray[T]) MoveTo(newDomainID uint64) error {
	for _, s := range a.slots {
		if s != nil {
			if err := s.MoveTo(newDomainID); err != nil {
				return err
			}
		}
	}
	return nil
}

// Borrow increments the borrow count of every inhabited slot.
func (a *RRefArray[T]) Borrow() {
	for _, s := range a.slots {
		if s != nil {
			s.Borrow()
		}
	}
}

// Forfeit decrements the borrow count of every inhabited slot.
func (a *RRefArray[T]) Forfeit() {
	for _, s := range a.slots {
		if s != nil {
			s.Forfeit()
		}
	}
}

// Cleanup implements dropper.CustomCleanup: recursively clean up every
// inhabited slot (original_source/lib/core/rref/src/traits.rs:
// `impl<T: RRefable, const N: usize> CustomCleanup for [T; N]`).
func (a *RRefArray[T]) Cleanup() {
	for _, s := range a.slots {
		if s != nil {
			s.Cleanup()
		}
	}
}

// RRefDeque is a bounded FIFO built on top of RRefArray, the Go analog of
// RRefDeque<T, N> (original_source/lib/core/rref/src/rref_deque.rs).
type RRefDeque[T any] struct {
	arr  *RRefArray[T]
	head int
	tail int
}

// NewRRefDeque creates an empty deque with the given fixed capacity.
func NewRRefDeque[T any](h Heap, capacity int) *RRefDeque[T] {
	return &RRefDeque[T]{arr: NewRRefArray[T](h, capacity)}
}

// Len returns the number of occupied slots, reproducing rref_deque.rs's
// head/tail wraparound arithmetic exactly.
func (d *RRefDeque[T]) Len() int {
	n := d.arr.Cap()
	if d.head > d.tail {
		return d.head - d.tail
	}
	if d.head == d.tail {
		if d.arr.Has(d.head) {
			return n
		}
		return 0
	}
	return n - (d.tail - d.head)
}

// PushBack inserts value at the back of the deque. If the deque is full,
// value is returned unchanged (not inserted), matching rref_deque.rs's
// push_back.
func (d *RRefDeque[T]) PushBack(value *RRef[T]) (*RRef[T], error) {
	if d.arr.Has(d.head) {
		return value, nil
	}
	if _, err := d.arr.Set(d.head, value); err != nil {
		return value, err
	}
	d.head = (d.head + 1) % d.arr.Cap()
	return nil, nil
}

// PopFront removes and returns the front element, or nil if empty.
func (d *RRefDeque[T]) PopFront() (*RRef[T], error) {
	v, err := d.arr.Get(d.tail)
	if err != nil {
		return nil, err
	}
	if v != nil {
		d.tail = (d.tail + 1) % d.arr.Cap()
	}
	return v, nil
}

// MoveTo moves the deque and every inhabited slot to newDomainID.
func (d *RRefDeque[T]) MoveTo(newDomainID uint64) error { return d.arr.MoveTo(newDomainID) }

// Borrow/Forfeit delegate to the backing array.
func (d *RRefDeque[T]) Borrow()  { d.arr.Borrow() }
func (d *RRefDeque[T]) Forfeit() { d.arr.Forfeit() }

// Cleanup implements dropper.CustomCleanup.
func (d *RRefDeque[T]) Cleanup() { d.arr.Cleanup() }

// RRefVec is a heap-allocated contiguous array of Copy elements whose size
// is set at creation, the Go analog of RRefVec<T>
// (original_source/lib/core/rref/src/rref_vec.rs). Go has no Copy
// constraint; callers are expected to use value types (ints, fixed-size
// byte arrays, plain structs of such) the way the Rust bound implies.
type RRefVec[T any] struct {
	data []T
}

// NewRRefVec creates a vector of size elements, all initialized to
// initial.
func NewRRefVec[T any](size int, initial T) *RRefVec[T] {
	v := &RRefVec[T]{data: make([]T, size)}
	for i := range v.data {
		v.data[i] = initial
	}
	return v
}

// AsSlice returns the backing slice for read access.
func (v *RRefVec[T]) AsSlice() []T { return v.data }

// AsMutSlice returns the backing slice for read/write access.
func (v *RRefVec[T]) AsMutSlice() []T { return v.data }

// Cleanup is a no-op: RRefVec's elements are Copy (plain value types), so
// there is nothing nested to walk into, matching the Rust impl which just
// delegates to the single backing RRef's cleanup.
func (v *RRefVec[T]) Cleanup() {}
