package proxy_test

import (
	"errors"
	"testing"

	"github.com/mars-research/redleaf-sub003/pkg/continuation"
	"github.com/mars-research/redleaf-sub003/pkg/domain"
	"github.com/mars-research/redleaf-sub003/pkg/proxy"
	"github.com/mars-research/redleaf-sub003/pkg/rpc"
)

func TestCallHappyPath(t *testing.T) {
	callee := &domain.Domain{ID: 2, Name: "adder", State: domain.StateIdle}
	stack := continuation.NewStack()

	p := proxy.NewProxy(callee, stack, nil, func(args any) (any, error) {
		n := args.(int)
		return n + 1, nil
	})

	res := p.Call(1, 41)
	v, err := res.Unwrap()
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if v.(int) != 42 {
		t.Fatalf("Call() = %v, want 42", v)
	}
	if got := stack.Depth(); got != 0 {
		t.Fatalf("continuation stack depth after call = %d, want 0", got)
	}
	if callee.State != domain.StateIdle {
		t.Fatalf("callee.State = %v, want Idle", callee.State)
	}
}

func TestCallPanicUnwindsAndReportsRpcError(t *testing.T) {
	callee := &domain.Domain{ID: 2, Name: "exploder", State: domain.StateIdle}
	stack := continuation.NewStack()

	p := proxy.NewProxy(callee, stack, nil, func(args any) (any, error) {
		panic("kaboom")
	})

	res := p.Call(1, nil)
	if res.IsOk() {
		t.Fatalf("Call() succeeded, want RpcError after panic")
	}
	if res.Err.Kind != rpc.ErrorKindPanic {
		t.Fatalf("Err.Kind = %v, want ErrorKindPanic", res.Err.Kind)
	}
	if got := stack.Depth(); got != 0 {
		t.Fatalf("continuation stack depth after panic = %d, want 0 (unwound back to caller)", got)
	}
	if callee.State != domain.StateIdle {
		t.Fatalf("callee.State after unwind = %v, want Idle", callee.State)
	}
}

func TestCallReturnedErrorWrapped(t *testing.T) {
	callee := &domain.Domain{ID: 2, Name: "failer", State: domain.StateIdle}
	stack := continuation.NewStack()
	wantErr := errors.New("domain-specific failure")

	p := proxy.NewProxy(callee, stack, nil, func(args any) (any, error) {
		return nil, wantErr
	})

	res := p.Call(1, nil)
	if res.IsOk() {
		t.Fatalf("Call() succeeded, want error")
	}
	if res.Err.Kind != rpc.ErrorKindInvalidArgument {
		t.Fatalf("Err.Kind = %v, want ErrorKindInvalidArgument", res.Err.Kind)
	}
}
