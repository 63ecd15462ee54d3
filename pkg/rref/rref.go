// Package rref implements the Remote Reference family described in
// spec.md §4.3: RRef[T] — an owning handle to a Heap Registry entry that
// enforces single-owner move semantics across domain boundaries — plus
// RRefArray[T], RRefDeque[T], RRefVec[T], and Owned[T].
//
// Grounded on original_source/sys/lib/rref/src/rref.rs (RRef<T>'s
// new/move_to/Drop/Deref) and original_source/lib/core/rref/src/traits.rs
// (TypeIdentifiable, CustomCleanup, RRefable). Go has neither Rust's affine
// type system nor const generics, so:
//   - single-ownership is enforced with a runtime moved flag rather than
//     the type system (spec.md §9, "Ownership discipline in languages
//     without an affine type system": "the mechanism is free");
//   - RRefArray/RRefDeque carry their capacity as a field set at
//     construction instead of a const generic parameter N.
package rref

import (
	"fmt"
	"sync/atomic"

	"github.com/mars-research/redleaf-sub003/pkg/heap"
)

// TypeIdentifiable is the Go analog of the Rust TypeIdentifiable trait:
// every type that can live on the shared heap names a stable type id.
type TypeIdentifiable interface {
	TypeID() uint64
}

// Heap is the subset of *heap.Registry that RRef needs; declared as an
// interface so domains depend on a capability, not a concrete type,
// matching spec.md §6's "heap provides: alloc, dealloc, change_domain,
// get/update_current_domain_id" kernel->domain ABI surface.
type Heap interface {
	Alloc(owningDomainID uint64, typeID uint64, layout heap.Layout, zero func() any) (*heap.SharedHeapAllocation, bool)
	Dealloc(id uint64)
	ChangeDomain(id uint64, newDomainID uint64) error
	CurrentDomain() uint64
}

// RRef is a single owning handle to a shared-heap value. At most one RRef
// exists per allocation at any time (spec.md §8, "Single-ownership").
type RRef[T any] struct {
	h         Heap
	alloc     *heap.SharedHeapAllocation
	moved     atomic.Bool
}

// New allocates a fresh shared-heap value through h, owned by the calling
// goroutine's current domain, and wraps it in an RRef. typeID must already
// be registered with the Dropper (the Heap Registry refuses the
// allocation otherwise, per spec.md §4.1).
func New[T any](h Heap, typeID uint64, value T) (*RRef[T], error) {
	domainID := h.CurrentDomain()
	alloc, ok := h.Alloc(domainID, typeID, heap.Layout{}, func() any {
		v := value
		return &v
	})
	if !ok {
		return nil, fmt.Errorf("rref: alloc refused for type_id %d (unregistered with dropper)", typeID)
	}
	return &RRef[T]{h: h, alloc: alloc}, nil
}

// checkLive panics if the RRef has already been moved out of or dropped;
// per spec.md §9 this is the runtime enforcement of the single-owner
// invariant that Rust's affine types give for free.
func (r *RRef[T]) checkLive() {
	if r == nil || r.moved.Load() {
		panic("rref: use of RRef after move or drop")
	}
}

// Deref returns a pointer to the referent for read/write access. While an
// RRef is accessible there is exactly one logical owner (spec.md §4.3).
func (r *RRef[T]) Deref() *T {
	r.checkLive()
	return r.alloc.Value.(*T)
}

// ID returns the Heap Registry identity of the backing allocation — the
// Go stand-in for value_pointer, used as the map key for reclamation and
// equality checks.
func (r *RRef[T]) ID() uint64 {
	r.checkLive()
	return r.alloc.ID
}

// MoveTo writes newDomainID into the backing allocation's owning-domain
// word, the semantic act of handing the value across a trust boundary
// (spec.md §4.3). The RRef handle itself remains valid for the caller to
// keep using (Rust's version moves the whole handle; a Go value handle
// with no affine types instead marks "move" as a domain-id write only).
// pkg/proxy does not call MoveTo on call arguments or results.
func (r *RRef[T]) MoveTo(newDomainID uint64) error {
	r.checkLive()
	return r.h.ChangeDomain(r.alloc.ID, newDomainID)
}

// MoveToCurrent is shorthand for MoveTo(current goroutine's domain id).
func (r *RRef[T]) MoveToCurrent() error {
	return r.MoveTo(r.h.CurrentDomain())
}

// Cleanup frees the backing allocation through the Heap Registry, whose
// Dropper dispatch recursively releases any nested RRefs the referent
// holds (via dropper.CustomCleanup if T implements it). Called when a
// value containing this RRef is itself cleaned up — never call Cleanup
// and then keep using the RRef.
func (r *RRef[T]) Cleanup() {
	if r.moved.Swap(true) {
		return // already cleaned up
	}
	r.h.Dealloc(r.alloc.ID)
}

// Drop releases this RRef's ownership, dispatching through the Dropper
// (via the Heap Registry) and deallocating value/domain-id/borrow-count
// regions, matching spec.md §4.3's RRef::Drop.
func (r *RRef[T]) Drop() {
	if r == nil || r.moved.Load() {
		return
	}
	id := r.alloc.ID
	r.h.Dealloc(id)
	r.moved.Store(true)
}

// Borrow increments the allocation's borrow-count word for transient
// shared access (spec.md §4.3).
func (r *RRef[T]) Borrow() {
	r.checkLive()
	atomic.AddInt64(r.alloc.BorrowCount, 1)
}

// Forfeit decrements the borrow-count word, releasing a prior Borrow.
func (r *RRef[T]) Forfeit() {
	r.checkLive()
	atomic.AddInt64(r.alloc.BorrowCount, -1)
}
