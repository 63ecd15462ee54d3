package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mars-research/redleaf-sub003/domains/echo"
	"github.com/mars-research/redleaf-sub003/pkg/continuation"
	"github.com/mars-research/redleaf-sub003/pkg/domain"
	"github.com/mars-research/redleaf-sub003/pkg/dropper"
	"github.com/mars-research/redleaf-sub003/pkg/heap"
	"github.com/mars-research/redleaf-sub003/pkg/klog"
	"github.com/mars-research/redleaf-sub003/pkg/proxy"
	"github.com/mars-research/redleaf-sub003/pkg/rref"
)

var benchUnwindCmd = &cobra.Command{
	Use:   "bench-unwind",
	Args:  cobra.NoArgs,
	Short: "Measure cross-domain call latency through the proxy trampoline against the echo domain (no panics are injected)",
	RunE:  runBenchUnwind,
}

func init() {
	benchUnwindCmd.Flags().Int("iterations", 10000, "number of calls to time")
}

func runBenchUnwind(cmd *cobra.Command, args []string) error {
	iterations, _ := cmd.Flags().GetInt("iterations")

	log := klog.Nop()
	d := dropper.New()
	h := heap.NewRegistry(d, log)
	if err := d.Register(echo.TypeID, dropper.CleanupValue); err != nil {
		return fmt.Errorf("bench-unwind: %w", err)
	}
	d.Seal()

	ep := echo.New(h)
	if err := ep.Init(1); err != nil {
		return fmt.Errorf("bench-unwind: %w", err)
	}

	stack := continuation.NewStack()
	dom := &domain.Domain{ID: 1, Name: ep.Name(), State: domain.StateIdle, Entry: ep}
	p := proxy.NewProxy(dom, stack, log, ep.Handle)

	h.SetCurrentDomain(0)
	start := time.Now()
	for i := 0; i < iterations; i++ {
		in, err := rref.New[string](h, echo.TypeID, "ping")
		if err != nil {
			return fmt.Errorf("bench-unwind: %w", err)
		}
		res := p.Call(0, in)
		if !res.IsOk() {
			return fmt.Errorf("bench-unwind: call %d failed: %v", i, res.Err)
		}
		reply := res.Value.(*rref.RRef[string])
		reply.Drop()
	}
	elapsed := time.Since(start)

	fmt.Printf("iterations: %d\n", iterations)
	fmt.Printf("total:      %s\n", elapsed)
	fmt.Printf("per-call:   %s\n", elapsed/time.Duration(iterations))
	fmt.Printf("continuation stack depth after run: %d\n", stack.Depth())
	return nil
}
