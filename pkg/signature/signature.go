// Package signature implements the signed-binary trailer format described
// in spec.md §6: a domain's loadable image is its ELF bytes followed by a
// fixed-size Ed25519 signature and a magic marker, verified before the
// domain loader maps anything.
//
// Grounded on original_source/kernel/src/domain/trusted_binary.rs's
// trailer layout and verification sequence. Ed25519 signing/verification
// has no ecosystem home in the retrieval pack's domain stack (no example
// repo imports a signing library), so this package uses the standard
// library's crypto/ed25519 — one of this tree's two stdlib-only
// subsystems, alongside pkg/domain's Loader.
package signature

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
)

// Magic is the trailer's terminal marker, appended after the signature so
// a loader can sanity-check the trailer is actually present before
// attempting verification, matching trusted_binary.rs's magic constant.
var Magic = []byte("REDLEAFSIG1")

// sigLen is the length of an Ed25519 signature in bytes.
const sigLen = ed25519.SignatureSize

// Sign appends a detached Ed25519 signature of elfBytes, followed by
// Magic, to elfBytes, producing the trailer format
// `elf_bytes || signature[64] || magic[len(Magic)]`.
func Sign(priv ed25519.PrivateKey, elfBytes []byte) []byte {
	sig := ed25519.Sign(priv, elfBytes)
	out := make([]byte, 0, len(elfBytes)+len(sig)+len(Magic))
	out = append(out, elfBytes...)
	out = append(out, sig...)
	out = append(out, Magic...)
	return out
}

// Verify splits trailer into (elfBytes, signature, magic), checks the
// magic marker, and verifies the signature against pub. It returns the
// bare ELF bytes on success so the caller can hand them to the domain
// loader without the trailer attached.
func Verify(pub ed25519.PublicKey, trailer []byte) ([]byte, error) {
	minLen := sigLen + len(Magic)
	if len(trailer) < minLen {
		return nil, fmt.Errorf("signature: trailer too short (%d bytes, need at least %d)", len(trailer), minLen)
	}

	magicStart := len(trailer) - len(Magic)
	gotMagic := trailer[magicStart:]
	if !bytes.Equal(gotMagic, Magic) {
		return nil, fmt.Errorf("signature: bad magic marker, refusing to load")
	}

	sigStart := magicStart - sigLen
	sig := trailer[sigStart:magicStart]
	elfBytes := trailer[:sigStart]

	if !ed25519.Verify(pub, elfBytes, sig) {
		return nil, fmt.Errorf("signature: Ed25519 verification failed, refusing to load")
	}

	return elfBytes, nil
}

// GenerateKey is a thin wrapper around ed25519.GenerateKey, used by
// cmd/redleaf-sign's keygen subcommand.
func GenerateKey() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return ed25519.GenerateKey(nil)
}
