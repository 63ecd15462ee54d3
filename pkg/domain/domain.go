// Package domain implements the Domain Loader & Lifecycle described in
// spec.md §4.5: loading a signed domain binary, tracking its state
// machine across cross-domain calls, and tearing it down (reclaiming
// every shared-heap allocation it owns) when it exits or panics.
//
// Grounded structurally on the teacher's pkg/core/orchestrator's
// TestState enum/state-machine shape (orchestrator.go) for Domain's own
// State, and on pkg/core/cleanup.Coordinator's AuditEntry/audit-log
// pattern (coordinator.go) for teardown's reclaim trail.
package domain

import (
	"fmt"
	"sync"
	"time"

	"github.com/mars-research/redleaf-sub003/pkg/klog"
)

// State is a domain's position in the lifecycle state machine spec.md
// §4.5 describes: a domain sits IDLE until a cross-domain call enters it
// (RunningInCallee), and if that call panics the runtime marks it
// Unwinding while the continuation stack is popped back to the caller.
type State int

const (
	StateIdle State = iota
	StateRunningInCallee
	StateUnwinding
	StateTornDown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunningInCallee:
		return "RUNNING_IN_CALLEE"
	case StateUnwinding:
		return "UNWINDING"
	case StateTornDown:
		return "TORN_DOWN"
	default:
		return "UNKNOWN"
	}
}

// Domain is one loaded, schedulable unit of untrusted code, the Go
// analog of kernel/src/domain/domain.rs's Domain struct.
type Domain struct {
	mu sync.Mutex

	ID     uint64
	Name   string // origin name: the binary/package this domain was loaded from
	State  State
	Entry  EntryPoint

	loadedAt time.Time
}

// EntryPoint is the callable surface a loaded domain exposes to the
// runtime: spec.md §6's kernel->domain ABI entry function. Concrete
// domains (domains/blockdev, domains/echo) implement this directly;
// pkg/domain/loader.go additionally supports resolving it dynamically
// from a plugin.
type EntryPoint interface {
	// Init is called once, immediately after load, with the domain's
	// assigned id. It receives no capability values; domains that need
	// the shared heap are handed it at construction.
	Init(domainID uint64) error
	// Name identifies the domain for logging and the CLI's domains-list
	// output.
	Name() string
}

// transition validates and performs a State change, logging the
// transition the way the teacher's orchestrator logs TestState changes.
func (d *Domain) transition(to State, log *klog.Logger) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	from := d.State
	switch {
	case from == StateIdle && to == StateRunningInCallee:
	case from == StateRunningInCallee && to == StateIdle:
	case from == StateRunningInCallee && to == StateUnwinding:
	case from == StateUnwinding && to == StateIdle:
	case to == StateTornDown:
	default:
		return fmt.Errorf("domain: illegal state transition %s -> %s for domain %d", from, to, d.ID)
	}

	d.State = to
	if log != nil {
		log.Debug("domain state transition", map[string]any{
			"domain_id": d.ID, "from": from.String(), "to": to.String(),
		})
	}
	return nil
}

// EnterCall marks the domain as actively running a cross-domain call,
// refusing re-entrant calls to a domain that's already running (spec.md
// §4.5: a domain handles one call at a time on a given thread of
// control).
func (d *Domain) EnterCall(log *klog.Logger) error {
	return d.transition(StateRunningInCallee, log)
}

// ExitCall marks a normal (non-panicking) return from the domain.
func (d *Domain) ExitCall(log *klog.Logger) error {
	return d.transition(StateIdle, log)
}

// BeginUnwind marks the domain as unwinding after a panic, called by
// pkg/proxy after recovering the panic and before popping the call's
// continuation frame.
func (d *Domain) BeginUnwind(log *klog.Logger) error {
	return d.transition(StateUnwinding, log)
}

// EndUnwind returns the domain to Idle once the continuation stack has
// been unwound back to the caller.
func (d *Domain) EndUnwind(log *klog.Logger) error {
	return d.transition(StateIdle, log)
}
