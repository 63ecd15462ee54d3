package domain

import (
	"fmt"
	"time"

	"github.com/mars-research/redleaf-sub003/pkg/dropper"
	"github.com/mars-research/redleaf-sub003/pkg/heap"
	"github.com/mars-research/redleaf-sub003/pkg/klog"
)

// BootSequencer brings the runtime up in the fixed order spec.md §4.5
// requires: register every type the domain set will allocate, seal the
// Dropper table, then initialize each domain in dependency order. Its
// shape — a struct holding the shared subsystems plus an ordered list of
// steps, each logged as it runs — is adapted from the teacher's
// pkg/core/orchestrator.Orchestrator, whose Run method drives
// StateParse..StateReport the same way.
type BootSequencer struct {
	Heap    *heap.Registry
	Dropper *dropper.Table
	Log     *klog.Logger

	domains []*Domain
}

// NewBootSequencer wires the shared subsystems a boot sequence needs.
func NewBootSequencer(h *heap.Registry, d *dropper.Table, log *klog.Logger) *BootSequencer {
	if log == nil {
		log = klog.Nop()
	}
	return &BootSequencer{Heap: h, Dropper: d, Log: log}
}

// RegisterType registers typeID's cleanup function with the Dropper.
// Must be called for every RRef-bearing type before Seal.
func (b *BootSequencer) RegisterType(typeID uint64, cleanup func(any)) error {
	return b.Dropper.Register(typeID, cleanup)
}

// Seal freezes the Dropper table. Call after every domain's types have
// registered and before any domain starts running.
func (b *BootSequencer) Seal() {
	b.Dropper.Seal()
}

// Boot assigns domainID, transitions the domain into existence, calls
// its EntryPoint.Init, and tracks it for later reclaim/teardown. Domains
// must be booted in dependency order (spec.md §4.5: a domain's Init may
// call into an already-booted domain, never one booted later).
func (b *BootSequencer) Boot(domainID uint64, ep EntryPoint) (*Domain, error) {
	start := time.Now()
	d := &Domain{ID: domainID, Name: ep.Name(), State: StateIdle, Entry: ep, loadedAt: start}

	b.Heap.SetCurrentDomain(domainID)
	if err := ep.Init(domainID); err != nil {
		return nil, fmt.Errorf("domain: booting %q (id %d): %w", ep.Name(), domainID, err)
	}

	b.domains = append(b.domains, d)
	b.Log.Info("domain booted", map[string]any{
		"domain_id": domainID, "name": ep.Name(), "elapsed_ms": time.Since(start).Milliseconds(),
	})
	return d, nil
}

// Domains returns every domain booted so far, in boot order.
func (b *BootSequencer) Domains() []*Domain {
	return b.domains
}
