package main

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mars-research/redleaf-sub003/pkg/signature"
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Args:  cobra.ExactArgs(1),
	Short: "Sign a domain ELF binary, producing the elf||signature||magic trailer format",
	RunE:  runSign,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Args:  cobra.ExactArgs(1),
	Short: "Verify a signed domain binary's trailer",
	RunE:  runVerify,
}

func init() {
	signCmd.Flags().String("key", "redleaf-signing-key", "path to Ed25519 private key")
	signCmd.Flags().String("out", "", "output path (default: <input>.signed)")

	verifyCmd.Flags().String("pub", "redleaf-signing-key.pub", "path to Ed25519 public key")
}

func runSign(cmd *cobra.Command, args []string) error {
	keyPath, _ := cmd.Flags().GetString("key")
	outPath, _ := cmd.Flags().GetString("out")
	inPath := args[0]

	priv, err := os.ReadFile(keyPath)
	if err != nil {
		return fmt.Errorf("sign: reading private key: %w", err)
	}
	if len(priv) != ed25519.PrivateKeySize {
		return fmt.Errorf("sign: %s is not a valid Ed25519 private key (got %d bytes, want %d)", keyPath, len(priv), ed25519.PrivateKeySize)
	}

	elfBytes, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("sign: reading %s: %w", inPath, err)
	}
	if bytes.HasSuffix(elfBytes, signature.Magic) {
		return fmt.Errorf("sign: %s already carries a signature trailer, refusing to re-sign", inPath)
	}

	signed := signature.Sign(ed25519.PrivateKey(priv), elfBytes)

	if outPath == "" {
		outPath = inPath + ".signed"
	}
	if err := os.WriteFile(outPath, signed, 0644); err != nil {
		return fmt.Errorf("sign: writing %s: %w", outPath, err)
	}

	fmt.Printf("signed %s -> %s (%d bytes)\n", inPath, outPath, len(signed))
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	pubPath, _ := cmd.Flags().GetString("pub")
	inPath := args[0]

	pub, err := os.ReadFile(pubPath)
	if err != nil {
		return fmt.Errorf("verify: reading public key: %w", err)
	}
	if len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("verify: %s is not a valid Ed25519 public key (got %d bytes, want %d)", pubPath, len(pub), ed25519.PublicKeySize)
	}

	trailer, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("verify: reading %s: %w", inPath, err)
	}

	elfBytes, err := signature.Verify(ed25519.PublicKey(pub), trailer)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	fmt.Printf("OK: signature valid, %d byte ELF image\n", len(elfBytes))
	return nil
}
