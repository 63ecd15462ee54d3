package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	version = "dev" // set by build flags
)

var rootCmd = &cobra.Command{
	Use:   "redleafd",
	Short: "RedLeaf microkernel runtime",
	Long: `redleafd boots the RedLeaf microkernel runtime: it brings up the shared
Heap Registry and Dropper table and boots the statically linked demo domains
(echo, blockdev) until halted. It does not load signed domain binaries from disk.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./redleaf.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(bootCmd)
	rootCmd.AddCommand(domainsCmd)
	rootCmd.AddCommand(benchUnwindCmd)
}

// Commands are defined in separate files:
// - bootCmd in boot.go
// - domainsCmd in domains.go
// - benchUnwindCmd in benchunwind.go

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
