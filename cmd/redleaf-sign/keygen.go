package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mars-research/redleaf-sub003/pkg/signature"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Args:  cobra.NoArgs,
	Short: "Generate a new Ed25519 signing key pair",
	RunE:  runKeygen,
}

func init() {
	keygenCmd.Flags().String("out", "redleaf-signing-key", "output path prefix; writes <out> and <out>.pub")
}

func runKeygen(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")

	pub, priv, err := signature.GenerateKey()
	if err != nil {
		return fmt.Errorf("keygen: generating key pair: %w", err)
	}

	if err := os.WriteFile(out, priv, 0600); err != nil {
		return fmt.Errorf("keygen: writing private key: %w", err)
	}
	if err := os.WriteFile(out+".pub", pub, 0644); err != nil {
		return fmt.Errorf("keygen: writing public key: %w", err)
	}

	fmt.Printf("wrote private key: %s\n", out)
	fmt.Printf("wrote public key:  %s.pub\n", out)
	return nil
}
