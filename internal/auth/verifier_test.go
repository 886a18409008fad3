package auth

import (
	"strings"
	"testing"
)

func TestDevTokens(t *testing.T) {
	v := NewVerifier("dev", "")
	tok, err := v.Sign("pollachi", "staff", "")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	p, err := v.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if p.Franchise != "pollachi" || p.Role != "staff" {
		t.Fatalf("bad principal: %+v", p)
	}
	p, err = v.Verify("kinathukadavu:Driver:drv-9")
	if err != nil || p.DriverID != "drv-9" || p.Role != "driver" {
		t.Fatalf("driver token: %+v %v", p, err)
	}
	if _, err := v.Verify("justonepart"); err == nil {
		t.Fatalf("expected error for malformed dev token")
	}
}

func TestHMACRoundTrip(t *testing.T) {
	v := NewVerifier("hmac", "test-secret")
	tok, err := v.Sign("pollachi", "admin", "")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !strings.HasPrefix(tok, "eyJ") {
		t.Fatalf("expected a JWT, got %s", tok)
	}
	p, err := v.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if p.Franchise != "pollachi" || p.Role != "admin" {
		t.Fatalf("bad principal: %+v", p)
	}
}

func TestHMACRejectsTampering(t *testing.T) {
	v := NewVerifier("hmac", "test-secret")
	tok, _ := v.Sign("pollachi", "admin", "")
	if _, err := v.Verify(tok + "x"); err == nil {
		t.Fatalf("tampered token must fail")
	}
	other := NewVerifier("hmac", "different-secret")
	if _, err := other.Verify(tok); err == nil {
		t.Fatalf("wrong secret must fail")
	}
}

func TestHashPassword(t *testing.T) {
	salt := NewSalt()
	if len(salt) != 32 {
		t.Fatalf("salt should be 16 bytes hex, got %d chars", len(salt))
	}
	h1 := HashPassword("admin123", salt)
	h2 := HashPassword("admin123", salt)
	if h1 != h2 {
		t.Fatalf("hash must be deterministic for same salt")
	}
	if HashPassword("admin123", NewSalt()) == h1 {
		t.Fatalf("different salts must produce different hashes")
	}
	if HashPassword("other", salt) == h1 {
		t.Fatalf("different passwords must produce different hashes")
	}
	if !VerifyPassword("admin123", salt, h1) {
		t.Fatalf("correct password must verify")
	}
	if VerifyPassword("admin124", salt, h1) {
		t.Fatalf("wrong password must not verify")
	}
}
