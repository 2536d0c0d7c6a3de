package tlsconn

import (
	"context"
	"math/rand/v2"
	"net"
	"slices"

	utls "github.com/refraction-networking/utls"

	"github.com/outrider-labs/impersonate/internal/core"
)

// Connector drives uTLS handshakes for one Client: it owns the session
// cache shared across every connection the client dials (spec.md §4.2:
// "session tickets obtained on one connection must be usable to resume on
// another to the same host"), grounded on
// firasghr-GoSessionEngine/tls_dialer.go's UTLSDialer generalized from a
// single fixed HelloID into a patchable Options value.
type Connector struct {
	sessionCache utls.ClientSessionCache
}

// NewConnector returns a Connector with a shared LRU session-ticket cache.
func NewConnector(sessionCacheSize int) *Connector {
	if sessionCacheSize <= 0 {
		sessionCacheSize = 32
	}
	return &Connector{sessionCache: utls.NewLRUClientSessionCache(sessionCacheSize)}
}

// Dial performs the raw TCP connect (via rawDial, so callers keep control of
// interface/local-address binding per spec.md §4.6) followed by a uTLS
// handshake built from opts. host is used as SNI. enforcedALPN, when
// non-empty, pins the
// handshake to a single ALPN protocol (spec.md's per-request
// impersonate.HTTPVersionPin override); pass "" to let opts.ALPNProtocols
// negotiate normally.
func (c *Connector) Dial(ctx context.Context, rawDial func(ctx context.Context, network, addr string) (net.Conn, error), network, addr, host string, opts Options, enforcedALPN string) (*utls.UConn, error) {
	rawConn, err := rawDial(ctx, network, addr)
	if err != nil {
		return nil, core.Wrapf(core.KindRequest, addr, "tlsconn: dial %s: %w", addr, err)
	}

	spec, err := c.buildSpec(opts, enforcedALPN)
	if err != nil {
		_ = rawConn.Close()
		return nil, err
	}

	roots, err := opts.CertStore.Pool()
	if err != nil {
		_ = rawConn.Close()
		return nil, core.Wrapf(core.KindRequest, addr, "tlsconn: cert store: %w", err)
	}

	cfg := &utls.Config{
		ServerName:         host,
		RootCAs:            roots,
		InsecureSkipVerify: opts.InsecureSkipVerify,
		ClientSessionCache: c.sessionCache,
	}
	if opts.MinVersion != 0 {
		cfg.MinVersion = opts.MinVersion
	}
	if opts.MaxVersion != 0 {
		cfg.MaxVersion = opts.MaxVersion
	}
	if opts.KeyLog != nil {
		if w, err := opts.KeyLog.resolve(); err == nil && w != nil {
			cfg.KeyLogWriter = w
		}
	}

	uconn := utls.UClient(rawConn, cfg, utls.HelloCustom)
	if err := uconn.ApplyPreset(spec); err != nil {
		_ = rawConn.Close()
		return nil, core.Wrapf(core.KindRequest, addr, "tlsconn: apply preset: %w", err)
	}

	if err := uconn.HandshakeContext(ctx); err != nil {
		_ = uconn.Close()
		return nil, core.Wrapf(core.KindRequest, addr, "tlsconn: handshake with %s: %w", addr, err)
	}

	return uconn, nil
}

// HelloSpecFunc returns a func() *utls.ClientHelloSpec suitable for fhttp's
// http.Transport.GetTlsClientHelloSpec field, the fork's native uTLS
// integration (aarock1234-mimic/mimic.go's ConfigureTransport sets this
// field directly rather than driving uTLS through a dial hook). Each call
// builds a fresh spec since ApplyPreset may mutate the one handed to it,
// matching the teacher's newTLSSpecFunc doc comment.
//
// enforcedALPN mirrors Dial's parameter of the same name: when non-empty
// (a core.HTTPVersionPin threaded down through the shared-transport's
// pool.Key) it narrows the offered ALPN list to that single protocol, the
// same forceSingleALPN path the HTTP/1.1-pinned Dial path already uses, so
// a per-request h2 pin actually changes what's offered on the wire and not
// just which cached *http.Transport answers the request.
//
// Because fhttp drives the handshake itself along this path, only the
// parts of opts baked into the ClientHelloSpec are honored here — cert
// store, key log, and InsecureSkipVerify require owning the utls.Config
// directly, which only Connector.Dial (the HTTP/1.1-pinned pool path) does.
func (c *Connector) HelloSpecFunc(opts Options, enforcedALPN string) func() *utls.ClientHelloSpec {
	return func() *utls.ClientHelloSpec {
		spec, err := c.buildSpec(opts, enforcedALPN)
		if err != nil {
			fallback, _ := utls.UTLSIdToSpec(utls.HelloChrome_Auto)
			return &fallback
		}
		return spec
	}
}

// buildSpec resolves opts.HelloID to its canned utls parrot spec and patches
// it with every non-zero Options field, the same in-place-mutation
// technique enetx-surf's setAlpnProtocolToHTTP1 uses for a single extension,
// generalized across the whole Options surface.
func (c *Connector) buildSpec(opts Options, enforcedALPN string) (*utls.ClientHelloSpec, error) {
	spec, err := utls.UTLSIdToSpec(opts.HelloID)
	if err != nil {
		return nil, core.Wrapf(core.KindBuilder, "", "tlsconn: unsupported hello id %s: %w", opts.HelloID.Str(), err)
	}

	if len(opts.CipherSuites) > 0 {
		spec.CipherSuites = append([]uint16(nil), opts.CipherSuites...)
	}

	for _, ext := range spec.Extensions {
		switch e := ext.(type) {
		case *utls.ALPNExtension:
			if len(opts.ALPNProtocols) > 0 {
				e.AlpnProtocols = append([]string(nil), opts.ALPNProtocols...)
			}
		case *utls.SupportedCurvesExtension:
			if len(opts.Curves) > 0 {
				e.Curves = append([]utls.CurveID(nil), opts.Curves...)
			}
		case *utls.SignatureAlgorithsExtension:
			if len(opts.SignatureSchemes) > 0 {
				e.SupportedSignatureAlgorithms = append([]utls.SignatureScheme(nil), opts.SignatureSchemes...)
			}
		case *utls.ApplicationSettingsExtension:
			if len(opts.ALPSProtocols) > 0 {
				e.SupportedProtocols = append([]string(nil), opts.ALPSProtocols...)
			}
		case *utls.ApplicationSettingsExtensionNew:
			if len(opts.ALPSProtocols) > 0 {
				e.SupportedProtocols = append([]string(nil), opts.ALPSProtocols...)
			}
		}
	}

	if enforcedALPN != "" {
		forceSingleALPN(spec, enforcedALPN)
	}

	if len(opts.CertCompressionAlgos) > 0 {
		for _, a := range opts.CertCompressionAlgos {
			if a > CertCompressionZstd {
				return nil, core.Wrapf(core.KindBuilder, "", "tlsconn: unknown certificate compression algorithm %d", a)
			}
		}
		patchCertCompression(spec, opts.CertCompressionAlgos)
	}

	patchExtensionToggles(spec, opts)
	applyCipherOrderPolicy(spec, opts)
	if opts.PermuteExtensions {
		permuteExtensions(spec)
	}

	return spec, nil
}

// patchExtensionToggles adds the handful of extensions spec.md §6.1 exposes
// as plain booleans rather than raw values, skipping any the canned parrot
// spec already carries. PSK is grounded on
// other_examples/a21d0fa9_enetx-surf's supportsResumption, which treats
// PSKKeyExchangeModesExtension plus a real or fake pre-shared-key extension
// as the pair that makes a ClientHello look TLS1.3-resumption-capable;
// FakePreSharedKeyExtension is the placeholder uTLS fills in when there's no
// session ticket yet to resume, the same role it plays there. ECHGrease
// reuses the pack's generic UtlsGREASEExtension (youfak-sub2api's
// buildClientHelloSpecFromProfile) rather than a dedicated ECH-grease
// extension type, since only the generic one could be grounded here — see
// DESIGN.md.
func patchExtensionToggles(spec *utls.ClientHelloSpec, opts Options) {
	var hasStatusRequest, hasSCT, hasPSKModes, hasFakePSK bool
	for _, ext := range spec.Extensions {
		switch ext.(type) {
		case *utls.StatusRequestExtension:
			hasStatusRequest = true
		case *utls.SCTExtension:
			hasSCT = true
		case *utls.PSKKeyExchangeModesExtension:
			hasPSKModes = true
		case *utls.FakePreSharedKeyExtension:
			hasFakePSK = true
		}
	}

	if opts.OCSPStapling && !hasStatusRequest {
		spec.Extensions = append(spec.Extensions, &utls.StatusRequestExtension{})
	}
	if opts.SignedCertTimestamp && !hasSCT {
		spec.Extensions = append(spec.Extensions, &utls.SCTExtension{})
	}
	if opts.PSK {
		if !hasPSKModes {
			spec.Extensions = append(spec.Extensions, &utls.PSKKeyExchangeModesExtension{Modes: []uint8{utls.PskModeDHE}})
		}
		if !hasFakePSK {
			spec.Extensions = append(spec.Extensions, &utls.FakePreSharedKeyExtension{})
		}
	}
	if opts.ECHGrease {
		spec.Extensions = append(spec.Extensions, &utls.UtlsGREASEExtension{})
	}
}

// applyCipherOrderPolicy implements the set_aes_hw_override /
// set_preserve_tls13_cipher_list pair (spec.md §6.1). Real browsers probe
// for AES-NI and put ChaCha20-Poly1305 ahead of the AES-GCM suites in their
// TLS1.3 preference when hardware AES is absent; uTLS's canned parrot specs
// assume it's present. AESHardwareOverride flips that assumption by moving
// TLS_CHACHA20_POLY1305_SHA256 to the front of the TLS1.3 block.
// PreserveTLS13CipherOrder wins when both are set, leaving the parrot's
// original order untouched.
func applyCipherOrderPolicy(spec *utls.ClientHelloSpec, opts Options) {
	if opts.PreserveTLS13CipherOrder || !opts.AESHardwareOverride {
		return
	}
	tls13 := map[uint16]bool{
		utls.TLS_AES_128_GCM_SHA256:       true,
		utls.TLS_AES_256_GCM_SHA384:       true,
		utls.TLS_CHACHA20_POLY1305_SHA256: true,
	}
	chacha := uint16(utls.TLS_CHACHA20_POLY1305_SHA256)
	cs := spec.CipherSuites
	chachaIdx := slices.Index(cs, chacha)
	if chachaIdx <= 0 {
		return
	}
	firstTLS13 := -1
	for i, c := range cs {
		if tls13[c] {
			firstTLS13 = i
			break
		}
	}
	if firstTLS13 < 0 || firstTLS13 == chachaIdx {
		return
	}
	copy(cs[firstTLS13+1:chachaIdx+1], cs[firstTLS13:chachaIdx])
	cs[firstTLS13] = chacha
}

// permuteExtensions randomizes the spec's extension order per handshake,
// the same math/rand/v2 Shuffle the teacher's Transport.RoundTrip already
// uses to randomize header order when no explicit HeaderOrderKey is set
// (aarock1234-mimic/transport.go), generalized here to TLS extensions for
// spec.md §6.1's set_permute_extensions.
func permuteExtensions(spec *utls.ClientHelloSpec) {
	rand.Shuffle(len(spec.Extensions), func(i, j int) {
		spec.Extensions[i], spec.Extensions[j] = spec.Extensions[j], spec.Extensions[i]
	})
}

// forceSingleALPN drops every ALPN protocol but want from the spec's
// ALPNExtension, for callers pinning HTTP/1.1 or h2 via
// impersonate.HTTPVersionPin (spec.md §4.6), grounded on
// enetx-surf's setAlpnProtocolToHTTP1.
func forceSingleALPN(spec *utls.ClientHelloSpec, want string) {
	for _, ext := range spec.Extensions {
		alpn, ok := ext.(*utls.ALPNExtension)
		if !ok {
			continue
		}
		alpn.AlpnProtocols = []string{want}
		return
	}
}

func patchCertCompression(spec *utls.ClientHelloSpec, algos []CertCompressionAlgo) {
	wire := make([]utls.CertCompressionAlgo, 0, len(algos))
	for _, a := range algos {
		switch a {
		case CertCompressionBrotli:
			wire = append(wire, utls.CertCompressionBrotli)
		case CertCompressionZlib:
			wire = append(wire, utls.CertCompressionZlib)
		case CertCompressionZstd:
			wire = append(wire, utls.CertCompressionZstd)
		}
	}
	for _, ext := range spec.Extensions {
		if cc, ok := ext.(*utls.UtlsCompressCertExtension); ok {
			cc.Algorithms = wire
			return
		}
	}
	spec.Extensions = append(spec.Extensions, &utls.UtlsCompressCertExtension{Algorithms: wire})
}

// PeerCertificateDER returns the DER bytes of the leaf certificate the
// server presented, for Options.TLSInfo extraction (spec.md §4.2).
func PeerCertificateDER(uconn *utls.UConn) ([]byte, bool) {
	state := uconn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return nil, false
	}
	return state.PeerCertificates[0].Raw, true
}
