// Package pool implements the connection pool and its partition key
// (spec.md §3.1 Identifier/ConnectMeta, §4.4). It is the component the
// teacher (aarock1234-mimic) has no equivalent of at all: mimic.go's
// Transport defers entirely to fhttp's built-in per-address idle cache,
// which cannot express "two clients with different TLS fingerprints must
// never share a connection" (invariant 1). This package is grounded on
// enetx-surf/ja_roundtripper.go's cachedTransports map (cache-by-dial-key,
// build-on-miss, re-check-after-miss) generalized to a struct key with
// single-flight dial arbitration and FIFO waiter wakeups per spec.md §4.4.
package pool

import (
	"hash/fnv"
	"sync/atomic"
)

// TCPConnectOptions carries the OS-level bind parameters a request can pin,
// per spec.md §3.1. The zero value means "no override, let the OS pick".
type TCPConnectOptions struct {
	Interface string
	LocalV4   string
	LocalV6   string
}

// Key is the comparable half of an Identifier: everything the connection
// pool partitions connections by. It composes directly into a Go map key
// (spec.md invariant 1: a connection is leased only when Key equals Key).
type Key struct {
	// Origin is scheme://host:port.
	Origin string
	// ProxyKey is an opaque string identifying the proxy matcher in effect
	// (empty for direct connections); callers derive it from their proxy
	// configuration (URL, or "unix:<path>" for spec.md scenario 6).
	ProxyKey string
	TCP      TCPConnectOptions
	// TLSFingerprint is a stable digest of every TlsOptions field that
	// affects handshake bytes: cipher list, curves, sigalgs, ALPN list,
	// ALPS list, min/max version, and the boolean extension flags.
	TLSFingerprint string
	// EnforcedALPN is the single protocol the request pins via
	// impersonate.HTTPVersionPin, or "" to let negotiation decide.
	EnforcedALPN string
}

// Identifier is the full partition key: the comparable Key plus a memoised
// hash, computed once and cached atomically (spec.md §9). Since Key is
// immutable once built, every computation of the hash yields the same
// value, so the race on first computation is benign (last writer among
// racing goroutines wins, but all write the same number).
type Identifier struct {
	Key  Key
	hash atomic.Uint64
}

// NewIdentifier builds an Identifier for k. The hash is not computed until
// first needed.
func NewIdentifier(k Key) *Identifier {
	return &Identifier{Key: k}
}

// Hash returns a memoised 64-bit hash of the Identifier's Key, computing it
// on first call. A 0 sentinel means "not yet computed"; since a real hash
// of 0 is possible but vanishingly unlikely, the implementation maps a
// genuine zero hash to 1 so the sentinel stays unambiguous, mirroring
// spec.md §9's "replace 0 with max(computed, 1)".
func (id *Identifier) Hash() uint64 {
	if h := id.hash.Load(); h != 0 {
		return h
	}
	computed := hashKey(id.Key)
	if computed == 0 {
		computed = 1
	}
	id.hash.Store(computed)
	return computed
}

// Equal reports whether two Identifiers partition to the same connection
// pool bucket. Used by callers that only hold a computed hash plus a Key
// round-trip (e.g. log correlation); the pool itself keys its maps directly
// by Key, which is cheaper and collision-free.
func (id *Identifier) Equal(other *Identifier) bool {
	if id == nil || other == nil {
		return id == other
	}
	return id.Key == other.Key
}

func hashKey(k Key) uint64 {
	h := fnv.New64a()
	write := func(s string) {
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{0})
	}
	write(k.Origin)
	write(k.ProxyKey)
	write(k.TCP.Interface)
	write(k.TCP.LocalV4)
	write(k.TCP.LocalV6)
	write(k.TLSFingerprint)
	write(k.EnforcedALPN)
	return h.Sum64()
}

// String returns a debug-friendly representation; not used for equality.
func (k Key) String() string {
	return k.Origin + "|" + k.ProxyKey + "|" + k.TCP.Interface + "|" +
		k.TCP.LocalV4 + "|" + k.TCP.LocalV6 + "|" + k.TLSFingerprint + "|" +
		k.EnforcedALPN
}
