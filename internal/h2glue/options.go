// Package h2glue is the HTTP/2 framing glue (spec.md §4.3): it turns an
// Options value into the fhttp/http2.Transport knobs that control SETTINGS
// order/values and stream-priority parameters. Apply does not use
// Options.PseudoHeaderOrder: the Client passes it to middleware.Config,
// which sets it on each request through fhttp's PHeaderOrderKey.
//
// Grounded directly on the teacher's ClientSpec.ConfigureTransport
// (aarock1234-mimic/mimic.go), generalized from three hardcoded per-browser
// HTTP2Options values into one Options type any profile can populate.
//
// Firefox also sends standalone PRIORITY frames at connection start to
// declare a priority dependency tree before any stream is opened
// (other_examples/ba7f9512_banyansecurity-req's firefoxPriorityFrames).
// fhttp's http2.Transport, like the teacher's own mimic.go/firefox.go
// states, has no hook to inject frames ahead of the first HEADERS frame, so
// that part of Firefox's Akamai fingerprint is left unmatched here too —
// the same documented gap the teacher carries, not a regression.
//
// Initial stream ID seeding (real browsers sometimes open their first
// request on stream 3, not 1, depending on prior h2 traffic on the
// connection) is a second acknowledged gap: fhttp's http2.Transport picks
// its own first stream ID internally and exposes no field or hook to seed
// it, and the teacher never attempts this either, so Options carries no
// such field.
package h2glue

import (
	http "github.com/saucesteals/fhttp"
	"github.com/saucesteals/fhttp/http2"
)

// Options is the Go realization of spec.md §3.1's Http2Options entity.
type Options struct {
	// Settings are the SETTINGS frame entries sent at connection start, in
	// the order a real client sends them.
	Settings []http2.Setting

	// PseudoHeaderOrder is the order of HTTP/2 pseudo-headers on every
	// stream opened over this transport (e.g. Chrome: m,a,s,p; Firefox:
	// m,p,a,s; Safari: m,s,p,a).
	PseudoHeaderOrder []string

	// MaxHeaderListSize is the local SETTINGS_MAX_HEADER_LIST_SIZE.
	MaxHeaderListSize uint32
	// InitialWindowSize is the local SETTINGS_INITIAL_WINDOW_SIZE.
	InitialWindowSize uint32
	// HeaderTableSize is the local SETTINGS_HEADER_TABLE_SIZE (HPACK).
	HeaderTableSize uint32
	// ConnectionFlow is the WINDOW_UPDATE increment sent on stream 0
	// immediately after the connection preface. 0 uses fhttp's default.
	ConnectionFlow uint32

	// HeaderPriority sets the priority parameters carried in every HEADERS
	// frame. nil uses fhttp's default (Exclusive=true, Weight=255).
	HeaderPriority *http2.PriorityParam
}

// Apply wires o onto t's underlying http2.Transport (configuring it via
// http2.ConfigureTransports as the teacher's ClientSpec.ConfigureTransport
// does), returning the *http2.Transport for callers that need it (e.g. to
// read back negotiated settings for diagnostics).
func Apply(t *http.Transport, o Options) (*http2.Transport, error) {
	t2, err := http2.ConfigureTransports(t)
	if err != nil {
		return nil, err
	}

	t2.Settings = o.Settings
	t2.MaxHeaderListSize = o.MaxHeaderListSize
	t2.InitialWindowSize = o.InitialWindowSize
	t2.HeaderTableSize = o.HeaderTableSize

	if o.ConnectionFlow > 0 {
		t2.TransportConnFlow = o.ConnectionFlow
	}
	if o.HeaderPriority != nil {
		t2.HeaderPriority = o.HeaderPriority
	}

	return t2, nil
}
