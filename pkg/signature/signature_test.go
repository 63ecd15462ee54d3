package signature_test

import (
	"testing"

	"github.com/mars-research/redleaf-sub003/pkg/signature"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	pub, priv, err := signature.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	elfBytes := []byte("pretend this is an ELF image")
	trailer := signature.Sign(priv, elfBytes)

	got, err := signature.Verify(pub, trailer)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if string(got) != string(elfBytes) {
		t.Fatalf("Verify() = %q, want %q", got, elfBytes)
	}
}

func TestVerifyRejectsTamperedBytes(t *testing.T) {
	pub, priv, _ := signature.GenerateKey()
	trailer := signature.Sign(priv, []byte("original"))
	trailer[0] ^= 0xFF

	if _, err := signature.Verify(pub, trailer); err == nil {
		t.Fatalf("Verify of tampered trailer succeeded, want error")
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	_, priv, _ := signature.GenerateKey()
	otherPub, _, _ := signature.GenerateKey()
	trailer := signature.Sign(priv, []byte("original"))

	if _, err := signature.Verify(otherPub, trailer); err == nil {
		t.Fatalf("Verify with mismatched public key succeeded, want error")
	}
}

func TestVerifyRejectsTooShort(t *testing.T) {
	pub, _, _ := signature.GenerateKey()
	if _, err := signature.Verify(pub, []byte("short")); err == nil {
		t.Fatalf("Verify of too-short trailer succeeded, want error")
	}
}

func TestVerifyRejectsBadMagic(t *testing.T) {
	pub, priv, _ := signature.GenerateKey()
	trailer := signature.Sign(priv, []byte("original"))
	// Corrupt the magic marker at the very end.
	trailer[len(trailer)-1] ^= 0xFF

	if _, err := signature.Verify(pub, trailer); err == nil {
		t.Fatalf("Verify with corrupted magic succeeded, want error")
	}
}
