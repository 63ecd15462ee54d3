// Package dropper implements the type-erased destructor table described in
// spec.md §4.2: a stable 64-bit type id maps to a cleanup function that can
// recursively tear down a shared-heap value without static type information
// at the call site.
//
// Grounded on original_source/kernel/src/dropper.rs's DROPPER static table
// (referenced from kernel/src/heap.rs's alloc_heap/dealloc_heap) and
// original_source/lib/core/rref/src/traits.rs's CustomCleanup trait, whose
// recursive-descent shape (no-op for leaf types, walk into Option/array/
// nested RRef for container types) the CustomCleanup interface below
// mirrors directly.
package dropper

import (
	"fmt"
	"sync"
)

// CustomCleanup is the Go analog of the Rust CustomCleanup trait: a value
// that may contain nested shared-heap references knows how to walk into
// them and release their ownership. Leaf types simply don't implement it,
// which CleanupValue below treats as a no-op, same as the Rust blanket impl.
type CustomCleanup interface {
	Cleanup()
}

// Table is the process-wide type_id -> cleanup function mapping. It is
// immutable after boot (every type a domain may allocate must be
// registered before any domain starts running). Readers (HasType, Drop)
// take the shared read lock, before and after Seal alike; reads are not
// lock-free. Registration takes the write lock.
type Table struct {
	mu      sync.RWMutex
	sealed  bool
	cleanup map[uint64]func(any)
}

// New creates an empty dropper table.
func New() *Table {
	return &Table{cleanup: make(map[uint64]func(any))}
}

// Register associates typeID with a cleanup function. Re-registering the
// same type id with a different function is a configuration error: per
// spec.md §4.2, "a type registered by only one side of a boundary is a
// configuration error," and the stronger version of that bug is a type id
// reused for two different types in the same binary.
func (t *Table) Register(typeID uint64, fn func(any)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sealed {
		return fmt.Errorf("dropper: table sealed, cannot register type_id %d", typeID)
	}
	if _, exists := t.cleanup[typeID]; exists {
		return fmt.Errorf("dropper: type_id %d already registered", typeID)
	}
	t.cleanup[typeID] = fn
	return nil
}

// Seal freezes the table. Call once at the end of boot, after every domain
// type's RRef-bearing types have registered; after it, Register fails and
// the map is never written again. Readers still take the read lock.
func (t *Table) Seal() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sealed = true
}

// HasType reports whether typeID is registered. The Heap Registry calls
// this before allocating (spec.md §4.1: "fails with None if type_id is
// unknown to the Dropper").
func (t *Table) HasType(typeID uint64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.cleanup[typeID]
	return ok
}

// Drop invokes the cleanup function registered for typeID against value.
// A missing registration is a logic error elsewhere (the Heap Registry
// should never have allocated under an unregistered type id), so Drop
// panics rather than silently leaking — there is no safe way to proceed.
func (t *Table) Drop(typeID uint64, value any) {
	t.mu.RLock()
	fn, ok := t.cleanup[typeID]
	t.mu.RUnlock()
	if !ok {
		panic(fmt.Sprintf("dropper: no cleanup registered for type_id %d", typeID))
	}
	fn(value)
}

// CleanupValue is the default recursive-cleanup dispatcher used by
// Register callers: if value implements CustomCleanup it is invoked,
// otherwise cleanup is a no-op, mirroring the Rust blanket
// `impl<T: RRefable> CustomCleanup for T { default fn cleanup(&mut self) {} }`.
func CleanupValue(value any) {
	if c, ok := value.(CustomCleanup); ok {
		c.Cleanup()
	}
}
