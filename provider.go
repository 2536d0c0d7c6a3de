package impersonate

import (
	"fmt"

	http "github.com/saucesteals/fhttp"
	"github.com/saucesteals/fhttp/http2"

	"github.com/outrider-labs/impersonate/internal/h2glue"
	"github.com/outrider-labs/impersonate/internal/headers"
	"github.com/outrider-labs/impersonate/internal/tlsconn"
)

// Platform is the operating system a Provider's headers/TLS spec targets.
// Generalized verbatim from the teacher's mimic.Platform.
type Platform string

const (
	PlatformWindows Platform = "win"
	PlatformMac     Platform = "mac"
	PlatformLinux   Platform = "linux"
	PlatformIOS     Platform = "ios"
	PlatformIPadOS  Platform = "ipados"
	PlatformAndroid Platform = "android"
)

// Provider is the Go realization of spec.md §3.1's EmulationProvider: a
// named, versioned bundle of TLS options, HTTP/2 options, and default
// headers that together reproduce one browser's wire fingerprint on one
// platform. It is the teacher's ClientSpec generalized from three
// hardcoded constructors into one data-carrying type any profiles/
// constructor can populate.
type Provider struct {
	// Name identifies the provider for logging and the textual registry,
	// e.g. "chrome_131_win".
	Name string

	TLS  tlsconn.Options
	HTTP2 h2glue.Options

	// Headers are the provider's default headers, merged onto every
	// request that doesn't already set them (spec.md §4.5 invariant 5).
	Headers *headers.DefaultHeaders

	// SkipHTTP2 forces HTTP/1.1-only negotiation for this provider,
	// pinning the TLS ALPN list to ["http/1.1"] regardless of
	// TLS.ALPNProtocols.
	SkipHTTP2 bool
}

// ConfigureTransport applies p's HTTP/2 options onto t, mirroring the
// teacher's ClientSpec.ConfigureTransport but operating on the already-TLS-
// aware base transport this module's Client builds (see client.go), rather
// than driving uTLS itself — that responsibility now belongs to
// internal/tlsconn.Connector so the connection pool can dial independently
// of any particular *http.Transport instance.
func (p *Provider) ConfigureTransport(t *http.Transport) (*http2.Transport, error) {
	t2, err := h2glue.Apply(t, p.HTTP2)
	if err != nil {
		return nil, fmt.Errorf("impersonate: configuring http2 for %s: %w", p.Name, err)
	}
	return t2, nil
}

// Clone returns a copy of p with its own default headers and its own copies
// of the TLS cipher, ALPN and ALPS lists and the HTTP/2 settings and
// pseudo-header order, so mutating those on either side does not affect the
// other. The remaining slices (curves, signature schemes, certificate
// compression algorithms) and pointers (HTTP/2 header priority, keylog
// policy) stay shared with p.
func (p *Provider) Clone() *Provider {
	clone := *p
	if p.Headers != nil {
		clone.Headers = p.Headers.Clone()
	}
	clone.TLS.CipherSuites = append([]uint16(nil), p.TLS.CipherSuites...)
	clone.TLS.ALPNProtocols = append([]string(nil), p.TLS.ALPNProtocols...)
	clone.TLS.ALPSProtocols = append([]string(nil), p.TLS.ALPSProtocols...)
	clone.HTTP2.Settings = append([]http2.Setting(nil), p.HTTP2.Settings...)
	clone.HTTP2.PseudoHeaderOrder = append([]string(nil), p.HTTP2.PseudoHeaderOrder...)
	return &clone
}
