package core

import (
	"context"
	"net"
	"net/url"
	"time"

	http "github.com/saucesteals/fhttp"
)

// CookieJar is the minimal cookie-store contract the service stack's cookie
// layer consumes. It mirrors net/http.CookieJar so a net/http/cookiejar.Jar
// can be adapted to it with a one-line shim (fhttp's Request/Response share
// the same URL/header shapes as net/http's).
type CookieJar interface {
	SetCookies(u *url.URL, cookies []*http.Cookie)
	Cookies(u *url.URL) []*http.Cookie
}

// configKey is the marker type family used to key typed, request-scoped
// overrides in a request's context. Each distinct K maps to exactly one
// stored value type, enforced by the generic accessors below.
type configKey[K any] struct{}

// WithRequestConfig attaches a typed value to ctx under the marker type K.
// A second call with the same K replaces the first.
func WithRequestConfig[K any](ctx context.Context, value K) context.Context {
	return context.WithValue(ctx, configKey[K]{}, value)
}

// RequestConfigFrom retrieves the value stored under marker type K, if any.
func RequestConfigFrom[K any](ctx context.Context) (K, bool) {
	v, ok := ctx.Value(configKey[K]{}).(K)
	return v, ok
}

// The marker types below are the per-request override keys enumerated in
// spec.md §6.4. Each is a distinct named type so WithRequestConfig can't
// mix them up at the type level.

// HTTPVersionPin pins the ALPN/transport version a single request will use.
type HTTPVersionPin string

const (
	// HTTPVersionAuto lets the connection pool's negotiated ALPN decide.
	HTTPVersionAuto HTTPVersionPin = ""
	// HTTPVersion1 forces HTTP/1.1 even if the provider would otherwise
	// negotiate h2.
	HTTPVersion1 HTTPVersionPin = "http/1.1"
	// HTTPVersion2 forces HTTP/2, failing the request if the peer can't
	// negotiate it.
	HTTPVersion2 HTTPVersionPin = "h2"
)

// LocalAddrV4 overrides the IPv4 address a request's connection binds from.
type LocalAddrV4 net.IP

// LocalAddrV6 overrides the IPv6 address a request's connection binds from.
type LocalAddrV6 net.IP

// Interface overrides the outbound network interface name. It is
// best-effort: the client binds the connection's local address to the first
// address of the named interface that matches the dial's address family,
// and binds nothing when no such interface or address is found. No
// SO_BINDTODEVICE-style device binding is done.
type Interface string

// ProxyOverride, when its URL is non-nil, gives one request a connection-pool
// partition of its own, keyed by that URL. The client does not route the
// request through that proxy, and a nil URL is treated the same as not
// setting the override.
type ProxyOverride struct {
	URL *url.URL
}

// TotalTimeout overrides the client's total request timeout.
type TotalTimeout time.Duration

// ReadTimeout overrides the client's read timeout (gap between successive
// body reads).
type ReadTimeout time.Duration

// AcceptEncodingOverride overrides the Accept-Encoding value the
// decompression layer announces.
type AcceptEncodingOverride string

// CookieStoreOverride lets a single request use a different cookie jar than
// the client's default.
type CookieStoreOverride struct {
	Jar CookieJar
}

// OriginalHeadersOverride attaches an *headers.OriginalHeaders-shaped value
// for this request only; declared generically here (as `any`) because the
// concrete type lives in internal/headers and this package must not import
// internal packages into its public API surface reversedly causing a cycle.
// The middleware config layer performs the type assertion.
type OriginalHeadersOverride struct {
	Value any
}

// SkipDefaultHeaders, when present and true, bypasses the default-header
// merge entirely for this request (spec.md invariant 6).
type SkipDefaultHeaders bool
