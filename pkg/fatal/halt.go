// Package fatal implements the fatal-condition halt controller spec.md
// §7 describes: certain conditions (continuation-stack overflow, a
// domain panicking while already unwinding, an operator-requested
// emergency stop) are not recoverable by unwinding alone and must bring
// the whole runtime down in a controlled way.
//
// Adapted from the teacher's pkg/emergency.Controller: the stop-file
// poll loop and OS-signal handling are kept nearly as-is (a halt request
// is conceptually identical to an emergency stop), generalized from
// "stop the chaos test" to "halt the RedLeaf runtime."
package fatal

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mars-research/redleaf-sub003/pkg/klog"
)

// Reason classifies why the runtime halted.
type Reason string

const (
	ReasonStackOverflow    Reason = "continuation_stack_overflow"
	ReasonDoubleUnwind     Reason = "panic_during_unwind"
	ReasonOperatorRequest  Reason = "operator_requested"
	ReasonSignatureInvalid Reason = "signature_invalid"
)

// Config configures the halt controller.
type Config struct {
	// StopFile, if present on disk, triggers an operator-requested halt.
	StopFile string
	// PollInterval controls how often StopFile is checked.
	PollInterval time.Duration
	// EnableSignalHandlers installs SIGINT/SIGTERM halt handling.
	EnableSignalHandlers bool
}

// Controller watches for halt conditions and invokes registered
// callbacks (closing domains, flushing metrics, etc.) exactly once when
// one fires.
type Controller struct {
	stopFile       string
	pollInterval   time.Duration
	signalHandlers bool

	mu        sync.Mutex
	halted    bool
	reason    Reason
	callbacks []func(Reason)

	log *klog.Logger
}

// New creates a halt controller.
func New(cfg Config, log *klog.Logger) *Controller {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 1 * time.Second
	}
	if log == nil {
		log = klog.Nop()
	}
	return &Controller{
		stopFile:       cfg.StopFile,
		pollInterval:   cfg.PollInterval,
		signalHandlers: cfg.EnableSignalHandlers,
		log:            log,
	}
}

// OnHalt registers a callback invoked once when the runtime halts.
func (c *Controller) OnHalt(fn func(Reason)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, fn)
}

// Start begins watching for halt conditions in the background.
func (c *Controller) Start(ctx context.Context) {
	if c.stopFile != "" {
		go c.watchStopFile(ctx)
	}
	if c.signalHandlers {
		go c.watchSignals(ctx)
	}
}

// Halt immediately triggers a halt with the given reason, for code that
// detects a fatal condition directly. pkg/continuation and pkg/proxy do
// not call it: a stack overflow there is a Go panic.
func (c *Controller) Halt(reason Reason, detail string) {
	c.trigger(reason, detail)
}

// Halted reports whether a halt has already fired, and why.
func (c *Controller) Halted() (bool, Reason) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.halted, c.reason
}

func (c *Controller) watchStopFile(ctx context.Context) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := os.Stat(c.stopFile); err == nil {
				c.trigger(ReasonOperatorRequest, fmt.Sprintf("stop file detected: %s", c.stopFile))
				return
			}
		}
	}
}

func (c *Controller) watchSignals(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
		return
	case sig := <-sigCh:
		c.trigger(ReasonOperatorRequest, fmt.Sprintf("signal: %v", sig))
	}
}

func (c *Controller) trigger(reason Reason, detail string) {
	c.mu.Lock()
	if c.halted {
		c.mu.Unlock()
		return
	}
	c.halted = true
	c.reason = reason
	callbacks := append([]func(Reason){}, c.callbacks...)
	c.mu.Unlock()

	c.log.Error("runtime halt triggered", nil, map[string]any{"reason": string(reason), "detail": detail})
	for _, cb := range callbacks {
		cb(reason)
	}
}
