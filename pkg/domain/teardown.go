package domain

import (
	"fmt"
	"time"

	"github.com/mars-research/redleaf-sub003/pkg/continuation"
	"github.com/mars-research/redleaf-sub003/pkg/heap"
	"github.com/mars-research/redleaf-sub003/pkg/klog"
)

// Heap is the subset of *heap.Registry teardown needs.
type Heap interface {
	ReclaimDomain(domainID uint64) []heap.ReclaimEntry
}

// AuditEntry is one step of a domain teardown, adapted from the
// teacher's pkg/core/cleanup.Coordinator's AuditEntry.
type AuditEntry struct {
	Timestamp time.Time
	Action    string
	DomainID  uint64
	Success   bool
	Error     error
	Details   string
}

// Coordinator tears down domains: reclaiming every shared-heap
// allocation they owned and unwinding any continuation frames left on
// the stack, producing an audit trail the way the teacher's cleanup
// coordinator does for sidecar teardown.
type Coordinator struct {
	heap Heap
	log  *klog.Logger

	auditLog []AuditEntry
}

// NewCoordinator creates a teardown coordinator bound to the shared Heap
// Registry.
func NewCoordinator(h Heap, log *klog.Logger) *Coordinator {
	if log == nil {
		log = klog.Nop()
	}
	return &Coordinator{heap: h, log: log}
}

// Teardown reclaims every shared-heap allocation owned by d, unwinds any
// continuation frames still attributed to it on stack, and marks the
// domain torn down. Called both on graceful domain exit and as the
// fatal-condition response to a panic the proxy could not recover from
// cleanly (spec.md §7).
func (c *Coordinator) Teardown(d *Domain, stack *continuation.Stack) error {
	c.logAudit("begin_teardown", d.ID, true, nil, fmt.Sprintf("domain %q", d.Name))

	reclaimed := c.heap.ReclaimDomain(d.ID)
	c.logAudit("reclaim_heap", d.ID, true, nil, fmt.Sprintf("%d allocations reclaimed", len(reclaimed)))

	if stack != nil {
		popped := stack.UnwindTo(d.ID)
		c.logAudit("unwind_continuations", d.ID, true, nil, fmt.Sprintf("%d frames popped", len(popped)))
	}

	if err := d.transition(StateTornDown, c.log); err != nil {
		c.logAudit("mark_torn_down", d.ID, false, err, "")
		return fmt.Errorf("domain: teardown of %d: %w", d.ID, err)
	}
	c.logAudit("mark_torn_down", d.ID, true, nil, "")

	c.log.Info("domain torn down", map[string]any{
		"domain_id": d.ID, "name": d.Name, "reclaimed": len(reclaimed),
	})
	return nil
}

// AuditLog returns the accumulated teardown audit trail.
func (c *Coordinator) AuditLog() []AuditEntry {
	return c.auditLog
}

func (c *Coordinator) logAudit(action string, domainID uint64, success bool, err error, details string) {
	c.auditLog = append(c.auditLog, AuditEntry{
		Timestamp: time.Now(),
		Action:    action,
		DomainID:  domainID,
		Success:   success,
		Error:     err,
		Details:   details,
	})
}
