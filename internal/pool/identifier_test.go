package pool_test

import (
	"strings"
	"testing"

	"github.com/outrider-labs/impersonate/internal/pool"
)

func TestIdentifier_HashStableAndNonZero(t *testing.T) {
	id := pool.NewIdentifier(pool.Key{Origin: "https://example.com", TLSFingerprint: "chrome120"})
	h1 := id.Hash()
	h2 := id.Hash()
	if h1 != h2 {
		t.Fatal("Hash is not stable across calls")
	}
	if h1 == 0 {
		t.Fatal("Hash returned the sentinel zero value")
	}
}

func TestIdentifier_HashDistinguishesKeys(t *testing.T) {
	a := pool.NewIdentifier(pool.Key{Origin: "https://example.com", TLSFingerprint: "chrome120"})
	b := pool.NewIdentifier(pool.Key{Origin: "https://example.com", TLSFingerprint: "firefox120"})
	if a.Hash() == b.Hash() {
		t.Fatal("distinct keys hashed to the same value")
	}
}

func TestIdentifier_Equal(t *testing.T) {
	k := pool.Key{Origin: "https://example.com", TLSFingerprint: "chrome120"}
	a := pool.NewIdentifier(k)
	b := pool.NewIdentifier(k)
	c := pool.NewIdentifier(pool.Key{Origin: "https://other.example.com"})

	if !a.Equal(b) {
		t.Error("two Identifiers built from the same Key should be Equal")
	}
	if a.Equal(c) {
		t.Error("Identifiers built from different Keys should not be Equal")
	}
	if a.Equal(nil) {
		t.Error("Equal(nil) should be false, not panic")
	}
}

func TestKey_StringIncludesFingerprint(t *testing.T) {
	k := pool.Key{Origin: "https://example.com", TLSFingerprint: "chrome120"}
	s := k.String()
	if s == "" {
		t.Fatal("String returned an empty string")
	}
	if !strings.Contains(s, "chrome120") {
		t.Fatalf("String() = %q, want it to contain the TLS fingerprint %q", s, "chrome120")
	}
}
