package echo_test

import (
	"testing"

	"github.com/mars-research/redleaf-sub003/domains/echo"
	"github.com/mars-research/redleaf-sub003/pkg/dropper"
	"github.com/mars-research/redleaf-sub003/pkg/heap"
	"github.com/mars-research/redleaf-sub003/pkg/rref"
)

func TestEchoRoundTrip(t *testing.T) {
	d := dropper.New()
	if err := d.Register(echo.TypeID, dropper.CleanupValue); err != nil {
		t.Fatalf("Register: %v", err)
	}
	d.Seal()
	h := heap.NewRegistry(d, nil)

	dom := echo.New(h)
	if err := dom.Init(1); err != nil {
		t.Fatalf("Init: %v", err)
	}

	in, err := rref.New(h, echo.TypeID, "ping")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out, err := dom.Handle(in)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	reply := out.(*rref.RRef[string])
	if got := *reply.Deref(); got != "ping" {
		t.Fatalf("Handle() reply = %q, want %q", got, "ping")
	}
}
