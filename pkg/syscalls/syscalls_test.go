package syscalls_test

import (
	"testing"

	"github.com/mars-research/redleaf-sub003/pkg/dropper"
	"github.com/mars-research/redleaf-sub003/pkg/heap"
	"github.com/mars-research/redleaf-sub003/pkg/syscalls"
)

func TestNewDefaultsNilLoggerToNop(t *testing.T) {
	d := dropper.New()
	d.Seal()
	h := heap.NewRegistry(d, nil)

	sc := syscalls.New(h, nil)
	if sc.Log == nil {
		t.Fatalf("Log = nil, want a non-nil Nop logger")
	}
	if sc.Heap != h {
		t.Fatalf("Heap capability does not match the registry passed to New")
	}
}

func TestWithDomainPreservesHeapCapability(t *testing.T) {
	d := dropper.New()
	d.Seal()
	h := heap.NewRegistry(d, nil)

	sc := syscalls.New(h, nil).WithDomain(5)
	if sc.Heap != h {
		t.Fatalf("WithDomain changed the Heap capability, want it preserved")
	}
}
