// Command redleaf-sign is the offline companion tool spec.md §6
// describes: it generates Ed25519 signing keys and signs domain ELF
// binaries with the `elf_bytes || signature[64] || magic` trailer format
// pkg/signature verifies at load time. It is deliberately a separate
// binary from redleafd so the signing key never needs to touch the
// runtime's own process.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "redleaf-sign",
	Short:   "Offline signer for RedLeaf domain binaries",
	Version: version,
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(verifyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
