package rref

// Owned is the Go analog of Owned<T>, a "Supplemented feature" pulled
// from original_source/lib/core/rref/src/rref.rs's Owned<T> wrapper:
// interior ownership of a shared-heap value that is never itself handed
// across a domain boundary as a standalone RRef, but lives nested inside
// another value (for example domains/blockdev's backing store, a plain
// field of the blockdev Domain struct rather than an entry tracked
// separately in the Heap Registry).
//
// Unlike RRef[T], Owned[T] does not hold a Heap handle or allocation id:
// it exists purely so a struct field can say "this T came from the
// shared heap and participates in CustomCleanup" without forcing a
// second independent registry entry.
type Owned[T any] struct {
	value T
}

// NewOwned wraps value for interior ownership.
func NewOwned[T any](value T) Owned[T] {
	return Owned[T]{value: value}
}

// Get returns a pointer to the wrapped value.
func (o *Owned[T]) Get() *T {
	return &o.value
}

// Cleanup implements dropper.CustomCleanup by descending into the
// wrapped value if it itself holds nested RRefs.
func (o *Owned[T]) Cleanup() {
	if c, ok := any(&o.value).(interface{ Cleanup() }); ok {
		c.Cleanup()
	}
}
