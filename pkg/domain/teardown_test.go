package domain_test

import (
	"testing"

	"github.com/mars-research/redleaf-sub003/pkg/continuation"
	"github.com/mars-research/redleaf-sub003/pkg/domain"
	"github.com/mars-research/redleaf-sub003/pkg/dropper"
	"github.com/mars-research/redleaf-sub003/pkg/heap"
)

func TestTeardownReclaimsAndUnwinds(t *testing.T) {
	d := dropper.New()
	if err := d.Register(1, dropper.CleanupValue); err != nil {
		t.Fatalf("Register: %v", err)
	}
	d.Seal()
	h := heap.NewRegistry(d, nil)

	dom := &domain.Domain{ID: 1, Name: "victim", State: domain.StateIdle}
	h.Alloc(dom.ID, 1, heap.Layout{}, func() any { return new(int) })
	h.Alloc(dom.ID, 1, heap.Layout{}, func() any { return new(int) })

	stack := continuation.NewStack()
	stack.Push(continuation.Frame{CallerDomainID: 0, Label: "boundary"})
	stack.Push(continuation.Frame{CallerDomainID: dom.ID, Label: "victim-call"})

	coord := domain.NewCoordinator(h, nil)
	if err := coord.Teardown(dom, stack); err != nil {
		t.Fatalf("Teardown: %v", err)
	}

	if dom.State != domain.StateTornDown {
		t.Fatalf("State = %v, want TornDown", dom.State)
	}
	if got := h.Stats().LiveAllocations; got != 0 {
		t.Fatalf("LiveAllocations after teardown = %d, want 0", got)
	}
	if got := stack.Depth(); got != 1 {
		t.Fatalf("continuation stack depth after teardown = %d, want 1 (boundary frame left)", got)
	}

	log := coord.AuditLog()
	if len(log) == 0 {
		t.Fatalf("AuditLog() is empty, want at least one entry")
	}
}
