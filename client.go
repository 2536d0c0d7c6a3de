package impersonate

import (
	"context"
	"log/slog"
	"net"
	"net/url"
	"sync"
	"time"

	http "github.com/saucesteals/fhttp"

	"github.com/outrider-labs/impersonate/internal/core"
	"github.com/outrider-labs/impersonate/internal/h1wire"
	"github.com/outrider-labs/impersonate/internal/pool"
	"github.com/outrider-labs/impersonate/internal/tlsconn"
	"github.com/outrider-labs/impersonate/middleware"
)

// ClientOption configures a Client at construction time, the same
// functional-options shape the teacher's TransportOption uses for
// NewTransport, generalized across the whole Client rather than just the
// base *http.Transport.
type ClientOption func(*clientConfig)

type clientConfig struct {
	proxy          func(*http.Request) (*url.URL, error)
	cookieJar      core.CookieJar
	maxRedirects   int
	totalTimeout   time.Duration
	poolOptions    pool.Options
	acceptEncoding string
	logger         *slog.Logger
}

// WithProxy sets the Client's default proxy resolver. Requests on the
// HTTP/1.1-pinned path are dialed directly and do not go through it.
func WithProxy(proxy func(*http.Request) (*url.URL, error)) ClientOption {
	return func(c *clientConfig) { c.proxy = proxy }
}

// WithCookieJar sets the Client's default cookie store.
func WithCookieJar(jar core.CookieJar) ClientOption {
	return func(c *clientConfig) { c.cookieJar = jar }
}

// WithMaxRedirects bounds how many redirects a single Do call will follow.
func WithMaxRedirects(n int) ClientOption {
	return func(c *clientConfig) { c.maxRedirects = n }
}

// WithTotalTimeout sets the Client's default per-request timeout.
func WithTotalTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) { c.totalTimeout = d }
}

// WithPoolOptions overrides the raw connection pool's eviction policy (used
// by the HTTP/1.1-pinned path; see Client's doc comment).
func WithPoolOptions(o pool.Options) ClientOption {
	return func(c *clientConfig) { c.poolOptions = o }
}

// WithAcceptEncoding overrides the default Accept-Encoding announcement.
func WithAcceptEncoding(v string) ClientOption {
	return func(c *clientConfig) { c.acceptEncoding = v }
}

// WithLogger attaches a structured logger; defaults to slog.Default().
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *clientConfig) { c.logger = l }
}

// Client is the Go realization of spec.md's top-level client entity: one
// Provider's TLS/HTTP2/header fingerprint, wired through the connection
// pool and the middleware service stack. Generalized from the teacher's
// Transport+ClientSpec pairing (aarock1234-mimic/transport.go), which
// wraps exactly one inner http.RoundTripper, into a Client that composes
// the full spec.md §4.5 stack around it.
//
// Two dispatch paths sit behind that stack. HTTP/2 (and auto-negotiated)
// traffic runs through one *http.Transport per distinct pool.Key, built
// with h2glue.Apply and dialed via tlsconn.Connector — the same
// composition the teacher's NewTransport performs, relying on fhttp's own
// internal connection reuse rather than internal/pool, since fhttp's
// Transport gives no way to hand back a connection it has multiplexed
// streams onto. HTTP/1.1-pinned traffic (core.HTTPVersion1, or a Provider
// with SkipHTTP2 set) bypasses fhttp's Transport entirely and is served
// directly off internal/pool.Pool + internal/h1wire, since a single
// HTTP/1.1 connection is exactly the one-owner-at-a-time resource that
// package models.
type Client struct {
	provider  *Provider
	connector *tlsconn.Connector
	rawPool   *pool.Pool
	logger    *slog.Logger
	proxy     func(*http.Request) (*url.URL, error)

	h2mu    sync.Mutex
	h2rts   map[pool.Key]http.RoundTripper
	h2build map[pool.Key]chan struct{}

	rt http.RoundTripper
}

// NewClient builds a Client for provider.
func NewClient(provider *Provider, opts ...ClientOption) (*Client, error) {
	cfg := &clientConfig{
		proxy:        http.ProxyFromEnvironment,
		maxRedirects: 10,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	c := &Client{
		provider:  provider,
		connector: tlsconn.NewConnector(64),
		rawPool:   pool.New(cfg.poolOptions),
		logger:    cfg.logger,
		proxy:     cfg.proxy,
		h2rts:     make(map[pool.Key]http.RoundTripper),
		h2build:   make(map[pool.Key]chan struct{}),
	}

	base := http.RoundTripper(roundTripperFunc(c.transportRoundTrip))
	base = middleware.Stack(base, middleware.Retry(c.evictShared))
	base = middleware.Stack(base, middleware.Config(provider.Headers, provider.HTTP2.PseudoHeaderOrder))
	base = middleware.Stack(base, middleware.Decompress(cfg.acceptEncoding))
	base = middleware.Stack(base, middleware.Timeout(cfg.totalTimeout))
	base = middleware.Stack(base, middleware.Redirect(cfg.maxRedirects))
	if cfg.cookieJar != nil {
		base = middleware.Stack(base, middleware.Cookie(cfg.cookieJar))
	}
	if cfg.proxy != nil {
		base = middleware.Stack(base, middleware.ProxyAuth(c.proxyAuthOf(cfg.proxy)))
	}
	c.rt = base

	return c, nil
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

// Do sends req through the full middleware stack and connection pool.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.rt.RoundTrip(req)
}

// Clone returns a Client sharing this Client's connection pool and
// connector but with its own Provider (and therefore its own default
// headers and TCP/proxy overrides), per spec.md invariant 7.
func (c *Client) Clone() *Client {
	clone := *c
	clone.provider = c.provider.Clone()
	clone.h2rts = make(map[pool.Key]http.RoundTripper)
	clone.h2build = make(map[pool.Key]chan struct{})
	return &clone
}

// Close releases the raw connection pool's idle connections.
func (c *Client) Close() error {
	return c.rawPool.Close()
}

func (c *Client) keyFor(req *http.Request) pool.Key {
	ctx := req.Context()

	tcp := pool.TCPConnectOptions{}
	if iface, ok := core.RequestConfigFrom[core.Interface](ctx); ok {
		tcp.Interface = string(iface)
	}
	if v4, ok := core.RequestConfigFrom[core.LocalAddrV4](ctx); ok {
		tcp.LocalV4 = net.IP(v4).String()
	}
	if v6, ok := core.RequestConfigFrom[core.LocalAddrV6](ctx); ok {
		tcp.LocalV6 = net.IP(v6).String()
	}

	proxyKey := ""
	if override, ok := core.RequestConfigFrom[core.ProxyOverride](ctx); ok && override.URL != nil {
		proxyKey = override.URL.String()
	}

	enforcedALPN := ""
	if pin, ok := core.RequestConfigFrom[core.HTTPVersionPin](ctx); ok && pin != core.HTTPVersionAuto {
		enforcedALPN = string(pin)
	} else if c.provider.SkipHTTP2 {
		enforcedALPN = string(core.HTTPVersion1)
	}

	return pool.Key{
		Origin:         req.URL.Scheme + "://" + req.URL.Host,
		ProxyKey:       proxyKey,
		TCP:            tcp,
		TLSFingerprint: c.provider.TLS.Fingerprint(),
		EnforcedALPN:   enforcedALPN,
	}
}

// transportRoundTrip is the innermost stage of the stack: it resolves the
// request's pool.Key and dispatches either through the shared h2/auto
// transport for that Key, or — when the request is pinned to HTTP/1.1 —
// through the raw pool.Pool + h1wire path.
func (c *Client) transportRoundTrip(req *http.Request) (*http.Response, error) {
	key := c.keyFor(req)

	if key.EnforcedALPN == string(core.HTTPVersion1) {
		return c.roundTripHTTP1(req, key)
	}
	return c.roundTripShared(req, key)
}

func (c *Client) roundTripShared(req *http.Request, key pool.Key) (*http.Response, error) {
	rt, err := c.getOrBuildTransport(key)
	if err != nil {
		return nil, err
	}
	resp, err := rt.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if key.EnforcedALPN == string(core.HTTPVersion2) && resp.ProtoMajor != 2 {
		_ = resp.Body.Close()
		return nil, core.Wrapf(core.KindRequest, req.URL.String(),
			"tlsconn: peer negotiated %s, not h2, for a request pinned to core.HTTPVersion2", resp.Proto)
	}
	return resp, nil
}

// evictShared drops the cached *http.Transport for req's key, forcing the
// next request on that key to dial and handshake fresh; wired as
// middleware.Retry's eviction callback for the shared HTTP/2 path (spec.md
// §4.4's "mark the old connection unusable" generalized to transport
// granularity, since fhttp's Transport owns its streams internally).
func (c *Client) evictShared(req *http.Request) {
	key := c.keyFor(req)
	c.h2mu.Lock()
	delete(c.h2rts, key)
	c.h2mu.Unlock()
}

// getOrBuildTransport returns the cached *http.Transport for key, building
// it on miss with single-flight protection so two requests racing to
// create the first connection for a brand-new Key don't each build their
// own Transport instance, grounded on
// other_examples/a21d0fa9_enetx-surf's cachedTransports (cache-by-key,
// build-on-miss, re-check-after-miss).
func (c *Client) getOrBuildTransport(key pool.Key) (http.RoundTripper, error) {
	for {
		c.h2mu.Lock()
		if rt, ok := c.h2rts[key]; ok {
			c.h2mu.Unlock()
			return rt, nil
		}
		if building, ok := c.h2build[key]; ok {
			c.h2mu.Unlock()
			<-building
			continue
		}
		building := make(chan struct{})
		c.h2build[key] = building
		c.h2mu.Unlock()

		rt, err := c.buildTransport(key)

		c.h2mu.Lock()
		if err == nil {
			c.h2rts[key] = rt
		}
		delete(c.h2build, key)
		c.h2mu.Unlock()
		close(building)

		return rt, err
	}
}

// buildTransport composes a *http.Transport the way the teacher's
// NewTransport/ConfigureTransport does: a plain TCP DialContext plus
// GetTlsClientHelloSpec for fhttp's own internal uTLS handshake, then
// http2.ConfigureTransports to layer HTTP/2 on top. This is fhttp's native
// integration path (mimic.go's ConfigureTransport), not a hand-rolled
// DialTLSContext — the fork drives uTLS itself once GetTlsClientHelloSpec
// is set, and relies on its own persistConn pooling for reuse.
func (c *Client) buildTransport(key pool.Key) (http.RoundTripper, error) {
	t := &http.Transport{
		Proxy:                 c.proxy,
		DialContext:           c.dialRaw(key),
		GetTlsClientHelloSpec: c.connector.HelloSpecFunc(c.provider.TLS, key.EnforcedALPN),
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if _, err := c.provider.ConfigureTransport(t); err != nil {
		return nil, err
	}

	return t, nil
}

func (c *Client) dialRaw(key pool.Key) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		d := net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
		if local := localAddrFor(key.TCP, network); local != nil {
			d.LocalAddr = local
		}
		return d.DialContext(ctx, network, addr)
	}
}

// localAddrFor resolves a request's TCP bind override into a net.Addr for
// net.Dialer.LocalAddr. An explicit LocalV4/LocalV6 wins; a named
// Interface is resolved to that interface's first address of the matching
// family via net.InterfaceByName — a cross-platform stand-in for
// SO_BINDTODEVICE (which has no portable stdlib equivalent), honoring
// core.Interface's doc comment that the override is best-effort and
// platform-dependent.
func localAddrFor(tcp pool.TCPConnectOptions, network string) net.Addr {
	want := tcp.LocalV4
	if network == "tcp6" && tcp.LocalV6 != "" {
		want = tcp.LocalV6
	}
	if want != "" {
		if ip := net.ParseIP(want); ip != nil {
			return &net.TCPAddr{IP: ip}
		}
	}
	if tcp.Interface == "" {
		return nil
	}
	if ip := firstInterfaceAddr(tcp.Interface, network); ip != nil {
		return &net.TCPAddr{IP: ip}
	}
	return nil
}

func firstInterfaceAddr(name, network string) net.IP {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return nil
	}
	wantV6 := network == "tcp6"
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		isV4 := ipNet.IP.To4() != nil
		if isV4 == !wantV6 {
			return ipNet.IP
		}
	}
	return nil
}

// roundTripHTTP1 leases a raw connection from c.rawPool (dialing and TLS-
// handshaking through c.connector on miss), performs exactly one HTTP/1.1
// request/response over it via h1wire, and returns the connection to the
// pool once the body is fully read (spec.md §4.4's literal connection
// lifecycle, not fhttp's own Transport-managed pooling).
func (c *Client) roundTripHTTP1(req *http.Request, key pool.Key) (*http.Response, error) {
	conn, err := c.rawPool.Lease(req.Context(), key, func(ctx context.Context, key pool.Key) (*pool.Conn, error) {
		addr := hostPort(key.Origin)
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		uconn, err := c.connector.Dial(ctx, c.dialRaw(key), "tcp", addr, host, c.provider.TLS, string(core.HTTPVersion1))
		if err != nil {
			return nil, err
		}
		return &pool.Conn{Conn: uconn, Negotiated: "http/1.1"}, nil
	})
	if err != nil {
		return nil, err
	}

	resp, err := h1wire.RoundTrip(conn, req)
	if err != nil {
		c.rawPool.Evict(key, conn)
		return nil, err
	}

	resp.Body = &releaseOnCloseBody{body: resp.Body, release: func() { c.rawPool.Release(key, conn) }}
	return resp, nil
}

type releaseOnCloseBody struct {
	body interface {
		Read(p []byte) (int, error)
		Close() error
	}
	release func()
	done    bool
}

func (b *releaseOnCloseBody) Read(p []byte) (int, error) { return b.body.Read(p) }

func (b *releaseOnCloseBody) Close() error {
	err := b.body.Close()
	if !b.done {
		b.done = true
		b.release()
	}
	return err
}

func (c *Client) proxyAuthOf(proxy func(*http.Request) (*url.URL, error)) func(*http.Request) (string, string, bool) {
	return func(req *http.Request) (string, string, bool) {
		u, err := proxy(req)
		if err != nil || u == nil || u.User == nil {
			return "", "", false
		}
		pass, _ := u.User.Password()
		return u.User.Username(), pass, true
	}
}

func hostPort(origin string) string {
	u, err := url.Parse(origin)
	if err != nil {
		return origin
	}
	if u.Port() != "" {
		return u.Host
	}
	if u.Scheme == "http" {
		return u.Host + ":80"
	}
	return u.Host + ":443"
}
