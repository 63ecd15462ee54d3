package domain_test

import (
	"testing"

	"github.com/mars-research/redleaf-sub003/pkg/domain"
)

func TestLifecycleHappyPath(t *testing.T) {
	d := &domain.Domain{ID: 1, State: domain.StateIdle}

	if err := d.EnterCall(nil); err != nil {
		t.Fatalf("EnterCall: %v", err)
	}
	if d.State != domain.StateRunningInCallee {
		t.Fatalf("State = %v, want RunningInCallee", d.State)
	}
	if err := d.ExitCall(nil); err != nil {
		t.Fatalf("ExitCall: %v", err)
	}
	if d.State != domain.StateIdle {
		t.Fatalf("State = %v, want Idle", d.State)
	}
}

func TestLifecycleUnwindPath(t *testing.T) {
	d := &domain.Domain{ID: 1, State: domain.StateIdle}

	if err := d.EnterCall(nil); err != nil {
		t.Fatalf("EnterCall: %v", err)
	}
	if err := d.BeginUnwind(nil); err != nil {
		t.Fatalf("BeginUnwind: %v", err)
	}
	if d.State != domain.StateUnwinding {
		t.Fatalf("State = %v, want Unwinding", d.State)
	}
	if err := d.EndUnwind(nil); err != nil {
		t.Fatalf("EndUnwind: %v", err)
	}
	if d.State != domain.StateIdle {
		t.Fatalf("State = %v, want Idle", d.State)
	}
}

func TestIllegalTransitionRejected(t *testing.T) {
	d := &domain.Domain{ID: 1, State: domain.StateIdle}
	// Idle -> Unwinding is not a legal direct transition.
	if err := d.BeginUnwind(nil); err == nil {
		t.Fatalf("BeginUnwind from Idle succeeded, want error")
	}
}
