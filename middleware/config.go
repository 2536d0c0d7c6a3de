package middleware

import (
	http "github.com/saucesteals/fhttp"

	"github.com/outrider-labs/impersonate/internal/core"
	"github.com/outrider-labs/impersonate/internal/headers"
)

// Config applies the per-request core.RequestConfig overrides that affect
// header shape before the request reaches the rest of the stack: default-
// header merge (spec.md invariant 5), the skip_default_headers escape
// hatch, original header-case rewriting (invariant 3), and the pseudo/
// regular header ordering fhttp's transport reads off the magic
// PHeaderOrderKey/HeaderOrderKey map entries — the same two assignments
// aarock1234-mimic/transport.go's RoundTrip makes, except the regular
// header order is derived deterministically from the provider's declared
// default-header order (via headers.EnforceOrder) rather than the
// teacher's random rand.Shuffle fallback, which produces a different,
// non-reproducible header order on every request and so cannot actually
// reproduce a browser's fingerprint (spec.md §4.5's ordering invariant).
func Config(provider *headers.DefaultHeaders, pseudoHeaderOrder []string) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return configRoundTripper{next: next, provider: provider, pseudoHeaderOrder: pseudoHeaderOrder}
	}
}

type configRoundTripper struct {
	next              http.RoundTripper
	provider          *headers.DefaultHeaders
	pseudoHeaderOrder []string
}

func (rt configRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	skip, _ := core.RequestConfigFrom[core.SkipDefaultHeaders](ctx)
	if !bool(skip) {
		headers.MergeDefaults(req.Header, rt.provider)
	}

	if override, ok := core.RequestConfigFrom[core.AcceptEncodingOverride](ctx); ok {
		req.Header.Set("Accept-Encoding", string(override))
	}

	if oh, ok := core.RequestConfigFrom[core.OriginalHeadersOverride](ctx); ok {
		if original, ok := oh.Value.(*headers.OriginalHeaders); ok {
			original.RewriteEgress(req.Header)
		}
	}

	if len(rt.pseudoHeaderOrder) > 0 {
		req.Header[http.PHeaderOrderKey] = rt.pseudoHeaderOrder
	}
	if req.Header[http.HeaderOrderKey] == nil {
		req.Header[http.HeaderOrderKey] = headers.EnforceOrder(req.Header, rt.provider.Order())
	}

	return rt.next.RoundTrip(req)
}
