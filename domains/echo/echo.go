// Package echo implements the simplest possible RedLeaf domain: it
// echoes back whatever shared-heap string RRef it's handed. It exists to
// exercise the full call path (proxy trampoline, continuation stack,
// RRef move) with nothing domain-specific in the way — the microkernel
// equivalent of original_source's dom_a/dom_b smoke-test domains.
package echo

import (
	"fmt"

	"github.com/mars-research/redleaf-sub003/pkg/domain"
	"github.com/mars-research/redleaf-sub003/pkg/rref"
)

// TypeID is the Dropper type id this domain registers its RRef<string>
// payload type under. Real deployments would derive this from a
// namespaced hash; a small fixed constant is sufficient for the demo
// domain set this tree ships.
const TypeID uint64 = 1

// Domain is the echo domain's entry point.
type Domain struct {
	id   uint64
	heap rref.Heap
}

// New constructs an uninitialized echo domain bound to h.
func New(h rref.Heap) *Domain {
	return &Domain{heap: h}
}

// Name implements domain.EntryPoint.
func (d *Domain) Name() string { return "echo" }

// Init implements domain.EntryPoint.
func (d *Domain) Init(domainID uint64) error {
	d.id = domainID
	return nil
}

// Echo allocates a fresh RRef<string> owned by the calling goroutine's
// current domain, copies msg in, and hands it straight back. Handle
// adapts it to proxy.Callable's func(any) (any, error) signature.
func (d *Domain) Echo(msg string) (*rref.RRef[string], error) {
	r, err := rref.New(d.heap, TypeID, msg)
	if err != nil {
		return nil, fmt.Errorf("echo: allocating reply: %w", err)
	}
	return r, nil
}

// Handle adapts Echo to proxy.Callable: args must be a *rref.RRef[string]
// whose referent is copied into a fresh reply allocation owned by the
// calling goroutine's current domain (pkg/proxy does not switch it to
// this domain), matching spec.md §4.3's "move semantics" (the caller's
// RRef is left to the caller to Drop or move again).
func (d *Domain) Handle(args any) (any, error) {
	in, ok := args.(*rref.RRef[string])
	if !ok {
		return nil, fmt.Errorf("echo: expected *rref.RRef[string], got %T", args)
	}
	return d.Echo(*in.Deref())
}

var _ domain.EntryPoint = (*Domain)(nil)
