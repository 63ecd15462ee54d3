package blockdev

import (
	"github.com/mars-research/redleaf-sub003/pkg/domain"
	"github.com/mars-research/redleaf-sub003/pkg/rref"
)

// Factory implements proxy.Factory for the block device domain: it
// rebuilds a fresh Domain with an empty backing store whenever the
// previous instance crashes, matching spec.md's create_domain_X/
// recreate_domain_X convention.
type Factory struct {
	Heap      rref.Heap
	NumBlocks int
}

// Recreate builds a new, blank block device domain. Any data the crashed
// instance held is gone — spec.md's restart model is a cold rebuild, not
// a resume, the same way a crashed disk controller wouldn't remember
// in-flight writes.
func (f *Factory) Recreate() (domain.EntryPoint, error) {
	return New(f.Heap, f.NumBlocks), nil
}
