// Package config loads the RedLeaf runtime's boot configuration.
//
// Grounded on the teacher's pkg/config.Config: same YAML-plus-env-var-
// expansion Load/Save shape, generalized from chaos-test settings
// (Kurtosis enclave, Docker sidecar image, Prometheus scrape target) to
// microkernel boot settings (domain search path, signing key, heap/
// continuation-stack sizing, halt behavior).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the RedLeaf runtime's top-level boot configuration.
type Config struct {
	Runtime   RuntimeConfig   `yaml:"runtime"`
	Logging   LoggingConfig   `yaml:"logging"`
	Domains   DomainsConfig   `yaml:"domains"`
	Signature SignatureConfig `yaml:"signature"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Fatal     FatalConfig     `yaml:"fatal"`
}

// RuntimeConfig contains general runtime sizing settings.
type RuntimeConfig struct {
	Version               string `yaml:"version"`
	ContinuationStackSize int    `yaml:"continuation_stack_size"`
	HeapRegistryInitCap   int    `yaml:"heap_registry_init_cap"`
}

// LoggingConfig contains structured-logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DomainsConfig contains domain-loading settings.
type DomainsConfig struct {
	// SearchPath lists directories for signed domain binaries. Nothing in
	// cmd/redleafd scans it; boot uses the statically linked domain set.
	SearchPath []string `yaml:"search_path"`
	// BootOrder names domains, by origin name, in the order they must be
	// initialized (spec.md §4.5: a domain may only call into an
	// already-booted domain). Validate requires it to be non-empty;
	// cmd/redleafd boot does not read it and boots echo, then blockdev.
	BootOrder []string `yaml:"boot_order"`
}

// SignatureConfig contains domain-signing settings.
type SignatureConfig struct {
	PublicKeyPath string `yaml:"public_key_path"`
}

// MetricsConfig contains Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// FatalConfig contains halt-controller settings.
type FatalConfig struct {
	StopFile             string        `yaml:"stop_file"`
	PollInterval         time.Duration `yaml:"poll_interval"`
	EnableSignalHandlers bool          `yaml:"enable_signal_handlers"`
}

// DefaultConfig returns a default configuration suitable for the
// in-process demo harness (domains/echo, domains/blockdev).
func DefaultConfig() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			Version:               "v1",
			ContinuationStackSize: 4096,
			HeapRegistryInitCap:   1024,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Domains: DomainsConfig{
			SearchPath: []string{"./domains"},
			BootOrder:  []string{"echo", "blockdev"},
		},
		Signature: SignatureConfig{
			PublicKeyPath: "./redleaf-signing-key.pub",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9100",
		},
		Fatal: FatalConfig{
			StopFile:             "/tmp/redleaf-halt",
			PollInterval:         1 * time.Second,
			EnableSignalHandlers: true,
		},
	}
}

// Load loads configuration from a YAML file at path, falling back to
// DefaultConfig if path doesn't exist. Environment variables in the YAML
// content are expanded before parsing (e.g. ${REDLEAF_SIGNING_KEY}),
// exactly as the teacher's config loader does.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = "redleaf.yaml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	expanded := []byte(os.ExpandEnv(string(data)))

	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration for obviously unusable settings
// before boot starts.
func (c *Config) Validate() error {
	if c.Runtime.ContinuationStackSize < 1 {
		return fmt.Errorf("runtime.continuation_stack_size must be at least 1")
	}
	if len(c.Domains.BootOrder) == 0 {
		return fmt.Errorf("domains.boot_order must name at least one domain")
	}
	if c.Signature.PublicKeyPath == "" {
		return fmt.Errorf("signature.public_key_path is required")
	}
	return nil
}
