package impersonate

import (
	"context"

	"github.com/outrider-labs/impersonate/internal/core"
)

// WithRequestConfig attaches a typed, request-scoped override to ctx under
// the marker type K (one of the types below). A second call with the same K
// replaces the first. Pass the returned context to an *http.Request via
// req.Context()/req.WithContext before handing it to Client.Do.
func WithRequestConfig[K any](ctx context.Context, value K) context.Context {
	return core.WithRequestConfig(ctx, value)
}

// RequestConfigFrom retrieves the value stored under marker type K, if any.
func RequestConfigFrom[K any](ctx context.Context) (K, bool) {
	return core.RequestConfigFrom[K](ctx)
}

// Per-request override marker types (spec.md §6.4). Each is a distinct named
// type so WithRequestConfig can't mix them up at the type level.
type (
	// HTTPVersionPin pins the ALPN/transport version a single request uses.
	HTTPVersionPin = core.HTTPVersionPin
	// LocalAddrV4 overrides the IPv4 address a request's connection binds from.
	LocalAddrV4 = core.LocalAddrV4
	// LocalAddrV6 overrides the IPv6 address a request's connection binds from.
	LocalAddrV6 = core.LocalAddrV6
	// Interface overrides the outbound network interface name.
	Interface = core.Interface
	// ProxyOverride gives one request its own pool partition keyed by a proxy
	// URL; the request is not routed through that proxy.
	ProxyOverride = core.ProxyOverride
	// TotalTimeout overrides the client's total request timeout.
	TotalTimeout = core.TotalTimeout
	// ReadTimeout overrides the client's read timeout.
	ReadTimeout = core.ReadTimeout
	// AcceptEncodingOverride overrides the announced Accept-Encoding value.
	AcceptEncodingOverride = core.AcceptEncodingOverride
	// CookieStoreOverride lets a single request use a different cookie jar.
	CookieStoreOverride = core.CookieStoreOverride
	// OriginalHeadersOverride attaches a per-request OriginalHeaders value.
	OriginalHeadersOverride = core.OriginalHeadersOverride
	// SkipDefaultHeaders bypasses the default-header merge for one request.
	SkipDefaultHeaders = core.SkipDefaultHeaders
	// CookieJar is the cookie-store contract the cookie layer consumes.
	CookieJar = core.CookieJar
)

const (
	// HTTPVersionAuto lets the connection pool's negotiated ALPN decide.
	HTTPVersionAuto = core.HTTPVersionAuto
	// HTTPVersion1 forces HTTP/1.1 even if the provider would otherwise negotiate h2.
	HTTPVersion1 = core.HTTPVersion1
	// HTTPVersion2 forces HTTP/2, failing the request if the peer can't negotiate it.
	HTTPVersion2 = core.HTTPVersion2
)
