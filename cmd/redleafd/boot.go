package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/mars-research/redleaf-sub003/domains/blockdev"
	"github.com/mars-research/redleaf-sub003/domains/echo"
	"github.com/mars-research/redleaf-sub003/pkg/config"
	"github.com/mars-research/redleaf-sub003/pkg/continuation"
	"github.com/mars-research/redleaf-sub003/pkg/domain"
	"github.com/mars-research/redleaf-sub003/pkg/dropper"
	"github.com/mars-research/redleaf-sub003/pkg/fatal"
	"github.com/mars-research/redleaf-sub003/pkg/heap"
	"github.com/mars-research/redleaf-sub003/pkg/klog"
	"github.com/mars-research/redleaf-sub003/pkg/metrics"
)

var bootCmd = &cobra.Command{
	Use:   "boot",
	Args:  cobra.NoArgs,
	Short: "Boot the RedLeaf runtime with the demo domain set",
	Long:  `Brings up the Heap Registry, Dropper table, and the echo/blockdev demo domains, then blocks until halted.`,
	RunE:  runBoot,
}

func init() {
	bootCmd.Flags().Bool("dry-run", false, "boot and immediately tear down, without blocking")
}

func runBoot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("boot: loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("boot: invalid configuration: %w", err)
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	logLevel := klog.Level(cfg.Logging.Level)
	if verbose {
		logLevel = klog.LevelDebug
	}
	log := klog.New(klog.Config{Level: logLevel, Format: klog.Format(cfg.Logging.Format), Output: os.Stdout})
	log.Info("redleafd starting", map[string]any{"version": version})

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	d := dropper.New()
	h := heap.NewRegistry(d, log)
	stack := continuation.NewStack()

	boot := domain.NewBootSequencer(h, d, log)
	coord := domain.NewCoordinator(h, log)

	echoDom := echo.New(h)
	if err := d.Register(echo.TypeID, dropper.CleanupValue); err != nil {
		return fmt.Errorf("boot: registering echo type: %w", err)
	}

	blockDom := blockdev.New(h, 16)
	if err := d.Register(blockdev.TypeID, dropper.CleanupValue); err != nil {
		return fmt.Errorf("boot: registering blockdev type: %w", err)
	}
	boot.Seal()

	if _, err := boot.Boot(1, echoDom); err != nil {
		return fmt.Errorf("boot: %w", err)
	}
	if _, err := boot.Boot(2, blockDom); err != nil {
		return fmt.Errorf("boot: %w", err)
	}
	m.DomainsLoaded.Set(float64(len(boot.Domains())))

	halt := fatal.New(fatal.Config{
		StopFile:             cfg.Fatal.StopFile,
		PollInterval:         cfg.Fatal.PollInterval,
		EnableSignalHandlers: cfg.Fatal.EnableSignalHandlers,
	}, log)
	halt.OnHalt(func(reason fatal.Reason) {
		log.Warn("halting runtime", map[string]any{"reason": string(reason)})
		for _, dom := range boot.Domains() {
			if err := coord.Teardown(dom, stack); err != nil {
				log.Error("teardown failed during halt", err, map[string]any{"domain_id": dom.ID})
			}
		}
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	halt.Start(ctx)

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			log.Info("metrics server listening", map[string]any{"addr": cfg.Metrics.Addr})
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				log.Error("metrics server exited", err, nil)
			}
		}()
	}

	if dryRun {
		log.Info("dry-run: tearing down immediately", nil)
		for _, dom := range boot.Domains() {
			if err := coord.Teardown(dom, stack); err != nil {
				return fmt.Errorf("boot: dry-run teardown: %w", err)
			}
		}
		return nil
	}

	log.Info("redleafd booted, blocking until halted", nil)
	<-ctx.Done()
	return nil
}

func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}
