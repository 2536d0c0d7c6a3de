// Package tlsconn is the TLS connector adaptor (spec.md §4.2): it turns an
// Options value into a *utls.ClientHelloSpec and drives the handshake.
//
// Grounded on the teacher's newTLSSpecFunc (aarock1234-mimic/mimic.go),
// which returns a fresh utls.ClientHelloSpec per handshake by calling
// utls.UTLSIdToSpec(id) — generalized here with a patch step that mutates
// the returned spec's Extensions in place, the same technique
// enetx-surf/ja_roundtripper.go's setAlpnProtocolToHTTP1 uses to rewrite a
// single extension inside an already-built spec.
package tlsconn

import (
	"crypto/x509"

	utls "github.com/refraction-networking/utls"
)

// CertCompressionAlgo identifies one of the three wire-supported
// certificate-compression algorithms (spec.md §4.2: "must support Brotli,
// Zlib, Zstd; unknown algorithms are rejected" — modeled as a closed tagged
// enum per spec.md §9, not an open interface).
type CertCompressionAlgo uint8

const (
	CertCompressionBrotli CertCompressionAlgo = iota
	CertCompressionZlib
	CertCompressionZstd
)

// CertStoreKind selects which of the three certificate-store variants a
// client verifies peer certificates against.
type CertStoreKind uint8

const (
	// CertStoreBundled is the default: a lazily-initialised, process-wide
	// static root bundle (spec.md §9).
	CertStoreBundled CertStoreKind = iota
	// CertStoreSystem uses the platform's system trust store.
	CertStoreSystem
	// CertStoreDER uses a user-provided DER bundle.
	CertStoreDER
)

// CertStore describes how peer certificates are verified.
type CertStore struct {
	Kind CertStoreKind
	// DER holds one or more DER-encoded certificates when Kind is CertStoreDER.
	DER [][]byte
}

// Pool resolves the CertStore to an *x509.CertPool, initializing the
// bundled static pool at most once regardless of how many CertStore values
// request it (spec.md §9: "process-wide, initialised on first use").
func (cs CertStore) Pool() (*x509.CertPool, error) {
	switch cs.Kind {
	case CertStoreSystem:
		return x509.SystemCertPool()
	case CertStoreDER:
		pool := x509.NewCertPool()
		for _, der := range cs.DER {
			cert, err := x509.ParseCertificate(der)
			if err != nil {
				return nil, err
			}
			pool.AddCert(cert)
		}
		return pool, nil
	default:
		return bundledPool()
	}
}

// KeyLogPolicy selects where NSS-format keylog lines are written.
type KeyLogPolicy struct {
	Path        string // non-empty: append to this file
	Environment bool   // true: honor SSLKEYLOGFILE
}

// Options is the TLS connector's input: the Go realization of spec.md
// §3.1's TlsOptions entity.
type Options struct {
	// HelloID selects the base parrot spec (per-browser canned profile);
	// Options overrides below are patched onto whatever utls.UTLSIdToSpec
	// returns for it.
	HelloID utls.ClientHelloID

	CipherSuites      []uint16
	Curves            []utls.CurveID
	SignatureSchemes  []utls.SignatureScheme
	ALPNProtocols     []string
	ALPSProtocols     []string
	ALPSUseNewCodepoint bool

	MinVersion uint16
	MaxVersion uint16

	OCSPStapling        bool
	SignedCertTimestamp bool
	CertCompressionAlgos []CertCompressionAlgo

	PSK                        bool
	ECHGrease                  bool
	PermuteExtensions          bool
	AESHardwareOverride        bool
	PreserveTLS13CipherOrder   bool

	CertStore  CertStore
	InsecureSkipVerify bool
	KeyLog     *KeyLogPolicy

	// TLSInfo is carried in Options and in its Fingerprint, but no code in
	// this module reads it and no peer certificate is attached to responses.
	// PeerCertificateDER extracts the leaf certificate from a *utls.UConn
	// returned by Connector.Dial.
	TLSInfo bool
}

// Fingerprint returns a stable digest string of every field that affects
// handshake bytes, for use as the connection-pool Identifier's
// TLSFingerprint component (spec.md §4.4).
func (o Options) Fingerprint() string {
	b := make([]byte, 0, 256)
	b = append(b, o.HelloID.Client...)
	b = append(b, '|')
	b = append(b, o.HelloID.Version...)
	b = append(b, '|')
	for _, c := range o.CipherSuites {
		b = appendUint16(b, c)
	}
	b = append(b, '|')
	for _, c := range o.Curves {
		b = appendUint16(b, uint16(c))
	}
	b = append(b, '|')
	for _, s := range o.SignatureSchemes {
		b = appendUint16(b, uint16(s))
	}
	b = append(b, '|')
	for _, p := range o.ALPNProtocols {
		b = append(b, p...)
		b = append(b, ',')
	}
	b = append(b, '|')
	for _, p := range o.ALPSProtocols {
		b = append(b, p...)
		b = append(b, ',')
	}
	b = appendUint16(b, o.MinVersion)
	b = appendUint16(b, o.MaxVersion)
	b = appendBool(b, o.OCSPStapling)
	b = appendBool(b, o.SignedCertTimestamp)
	b = appendBool(b, o.ALPSUseNewCodepoint)
	b = appendBool(b, o.PSK)
	b = appendBool(b, o.ECHGrease)
	b = appendBool(b, o.PermuteExtensions)
	b = appendBool(b, o.AESHardwareOverride)
	b = appendBool(b, o.PreserveTLS13CipherOrder)
	for _, a := range o.CertCompressionAlgos {
		b = append(b, byte(a))
	}
	return string(b)
}

func appendUint16(b []byte, v uint16) []byte {
	return append(b, byte(v>>8), byte(v), '.')
}

func appendBool(b []byte, v bool) []byte {
	if v {
		return append(b, '1')
	}
	return append(b, '0')
}
