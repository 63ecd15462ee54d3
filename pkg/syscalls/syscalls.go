// Package syscalls defines the kernel->domain entry ABI described in
// spec.md §6: a fixed capability surface for a domain, bundling the Heap
// Registry operations (alloc/dealloc/change_domain/
// current_domain_id) a domain is allowed to call directly, without
// giving it access to the Heap Registry's own internals (boot
// sequencing, reclaim, stats) or the continuation stack.
//
// Grounded on original_source/kernel/src/syscalls/syscall.rs's Syscalls
// trait, whose method set is exactly the Heap capability subset plus
// logging/alloc helpers; pkg/heap.Registry satisfies Heap both here and
// in pkg/rref, so a domain never imports pkg/heap directly.
package syscalls

import (
	"github.com/mars-research/redleaf-sub003/pkg/heap"
	"github.com/mars-research/redleaf-sub003/pkg/klog"
)

// Heap is the capability surface a domain is granted over the shared
// heap — identical in shape to pkg/rref.Heap, restated here as the
// ABI-facing name spec.md §6 uses.
type Heap interface {
	Alloc(owningDomainID uint64, typeID uint64, layout heap.Layout, zero func() any) (*heap.SharedHeapAllocation, bool)
	Dealloc(id uint64)
	ChangeDomain(id uint64, newDomainID uint64) error
	CurrentDomain() uint64
}

// Syscalls bundles the Heap capability and a domain-scoped logger.
// Nothing in this tree hands it to a domain: domain.EntryPoint.Init
// receives only the domain id, concrete domains (domains/echo,
// domains/blockdev) take an rref.Heap at construction, and
// pkg/domain.Loader's plugin path does not pass it either.
type Syscalls struct {
	Heap Heap
	Log  *klog.Logger
}

// New bundles h and log into a capability surface; a nil log becomes a
// Nop logger. Use WithDomain to tag it for one domain.
func New(h Heap, log *klog.Logger) Syscalls {
	if log == nil {
		log = klog.Nop()
	}
	return Syscalls{Heap: h, Log: log}
}

// WithDomain returns a copy of s whose logger is tagged with domainID,
// handed to a domain at boot so its own log lines are attributable.
func (s Syscalls) WithDomain(domainID uint64) Syscalls {
	return Syscalls{Heap: s.Heap, Log: s.Log.WithDomain(domainID)}
}
