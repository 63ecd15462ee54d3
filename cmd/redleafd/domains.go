package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mars-research/redleaf-sub003/domains/blockdev"
	"github.com/mars-research/redleaf-sub003/domains/echo"
	"github.com/mars-research/redleaf-sub003/pkg/dropper"
	"github.com/mars-research/redleaf-sub003/pkg/heap"
	"github.com/mars-research/redleaf-sub003/pkg/klog"
)

var domainsCmd = &cobra.Command{
	Use:   "domains-list",
	Args:  cobra.NoArgs,
	Short: "Initialize the demo domain set and print each domain's id, name and block count",
	RunE:  runDomainsList,
}

func runDomainsList(cmd *cobra.Command, args []string) error {
	log := klog.Nop()

	d := dropper.New()
	h := heap.NewRegistry(d, log)

	if err := d.Register(echo.TypeID, dropper.CleanupValue); err != nil {
		return fmt.Errorf("domains-list: %w", err)
	}
	if err := d.Register(blockdev.TypeID, dropper.CleanupValue); err != nil {
		return fmt.Errorf("domains-list: %w", err)
	}
	d.Seal()

	echoDom := echo.New(h)
	if err := echoDom.Init(1); err != nil {
		return fmt.Errorf("domains-list: %w", err)
	}
	blockDom := blockdev.New(h, 16)
	if err := blockDom.Init(2); err != nil {
		return fmt.Errorf("domains-list: %w", err)
	}

	fmt.Printf("%-4s %-10s %-10s\n", "ID", "NAME", "BLOCKS")
	fmt.Printf("%-4d %-10s %-10s\n", 1, echoDom.Name(), "-")
	fmt.Printf("%-4d %-10s %-10d\n", 2, blockDom.Name(), blockDom.NumBlocks())
	return nil
}
