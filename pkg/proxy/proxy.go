// Package proxy implements the Proxy/Shadow pattern described in
// spec.md §4.6: every cross-domain call passes through a trampoline that
// enters the callee's continuation frame, invokes it, and converts a
// panic into an RpcError rather than letting it cross the domain
// boundary as a Go panic. Shadow wraps a Proxy with a restart policy so
// a crashed domain can be recreated transparently to its caller.
//
// Grounded on original_source/kernel/src/domain/proxy.rs's trampoline
// shape and original_source/usr/xv6/kernel/src/sync.rs for the
// create_domain_X/recreate_domain_X factory convention this package's
// Shadow uses. The per-call correlation id uses google/uuid, following
// the retrieval pack's own usage of that library for request/run ids.
package proxy

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mars-research/redleaf-sub003/pkg/continuation"
	"github.com/mars-research/redleaf-sub003/pkg/domain"
	"github.com/mars-research/redleaf-sub003/pkg/klog"
	"github.com/mars-research/redleaf-sub003/pkg/rpc"
)

// Callable is a cross-domain entry point callable through a Proxy: the
// concrete signature (arguments, return type) varies per domain
// interface, so Call is typed as func(any) (any, error) and callers wrap
// their domain-specific functions with a small adapter. This mirrors how
// spec.md's trampoline is generic over the callee's ABI.
type Callable func(args any) (any, error)

// Proxy is the trampoline standing between a caller domain and one
// callee domain. Every call through it pushes a continuation frame,
// invokes the callee, and on panic unwinds back to the caller instead of
// propagating the panic.
type Proxy struct {
	callee *domain.Domain
	stack  *continuation.Stack
	log    *klog.Logger
	fn     Callable
}

// NewProxy wires a trampoline for a single callee domain.
func NewProxy(callee *domain.Domain, stack *continuation.Stack, log *klog.Logger, fn Callable) *Proxy {
	if log == nil {
		log = klog.Nop()
	}
	return &Proxy{callee: callee, stack: stack, log: log, fn: fn}
}

// Call invokes the callee on behalf of callerDomainID, returning an
// rpc.Result so a panicking callee is reported as an RpcError rather than
// crashing the caller's goroutine.
func (p *Proxy) Call(callerDomainID uint64, args any) rpc.Result[any] {
	callID := uuid.NewString()
	log := p.log.WithDomain(p.callee.ID).WithCall(callID)

	p.stack.Push(continuation.Frame{CallerDomainID: callerDomainID, Label: p.callee.Name})

	if err := p.callee.EnterCall(log); err != nil {
		p.stack.Pop()
		return rpc.Err[any](&rpc.RpcError{Kind: rpc.ErrorKindDomainUnavailable, Domain: p.callee.ID, Message: err.Error()})
	}

	result, callErr, recovered, panicked := p.invoke(args)

	if panicked {
		if err := p.callee.BeginUnwind(log); err != nil {
			log.Error("unwind transition failed", err, nil)
		}
		p.stack.Pop()
		if err := p.callee.EndUnwind(log); err != nil {
			log.Error("post-unwind transition failed", err, nil)
		}
		log.Warn("domain call panicked, unwound to caller", map[string]any{"recovered": fmt.Sprint(recovered)})
		return rpc.Err[any](rpc.NewPanicError(p.callee.ID, recovered))
	}

	p.stack.Pop()
	if err := p.callee.ExitCall(log); err != nil {
		return rpc.Err[any](&rpc.RpcError{Kind: rpc.ErrorKindDomainUnavailable, Domain: p.callee.ID, Message: err.Error()})
	}

	if callErr != nil {
		return rpc.Err[any](&rpc.RpcError{Kind: rpc.ErrorKindInvalidArgument, Domain: p.callee.ID, Message: callErr.Error()})
	}
	return rpc.Ok(result)
}

// invoke calls p.fn, recovering any panic instead of letting it cross
// back into the trampoline's own goroutine stack.
func (p *Proxy) invoke(args any) (result any, callErr error, recovered any, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			recovered = r
			panicked = true
		}
	}()
	result, callErr = p.fn(args)
	return result, callErr, nil, false
}
