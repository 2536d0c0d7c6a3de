package middleware

import (
	"errors"
	"strings"

	http "github.com/saucesteals/fhttp"
	"github.com/saucesteals/fhttp/http2"

	"github.com/outrider-labs/impersonate/internal/core"
)

// Retry re-sends a request once if its underlying HTTP/2 connection failed
// with GOAWAY or REFUSED_STREAM — the two errors safe to retry because the
// server guarantees the request was never processed (spec.md §4.4: "the
// pool must mark the old connection unusable so the retry does not reuse
// it"). HTTP/1.1 connections are never retried here: a half-written
// request on HTTP/1.1 has no such guarantee, and neither error string ever
// comes from that path.
//
// evict is called with the failing request before the retry, so the
// caller can drop whatever cached connection/transport it used to serve
// that request (a *pool.Conn for the pinned HTTP/1.1 path, a cached
// *http.Transport entry for the shared HTTP/2 path) — the eviction target
// differs by caller, so this package stays agnostic to it.
func Retry(evict func(req *http.Request)) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return retryRoundTripper{next: next, evict: evict}
	}
}

type retryRoundTripper struct {
	next  http.RoundTripper
	evict func(req *http.Request)
}

func (rt retryRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := rt.next.RoundTrip(req)
	if err == nil || !isRetryableHTTP2Error(err) {
		return resp, err
	}

	if rt.evict != nil {
		rt.evict(req)
	}

	if req.GetBody != nil {
		body, berr := req.GetBody()
		if berr != nil {
			return nil, err
		}
		req.Body = body
	} else if req.Body != nil && req.Body != http.NoBody {
		return nil, core.New(core.KindBody, req.URL.String(), core.ErrBodyNotClonable)
	}

	return rt.next.RoundTrip(req)
}

// isRetryableHTTP2Error reports whether err is safe to retry per spec.md
// §4.6: a GOAWAY is only a graceful-shutdown signal (and thus retryable)
// when its error code is NO_ERROR — any other code (PROTOCOL_ERROR,
// ENHANCE_YOUR_CALM, ...) means the peer is reacting to something about
// the request itself and must not be silently retried, grounded on
// original_source/src/client/layer/retry/mod.rs:46-51's
// `err.reason() == Some(http2::Reason::NO_ERROR)` gate. RST_STREAM with
// REFUSED_STREAM has no such gate: the server is explicitly declaring it
// never acted on the request.
func isRetryableHTTP2Error(err error) bool {
	var goAway http2.GoAwayError
	if errors.As(err, &goAway) {
		return goAway.ErrCode == http2.ErrCodeNo
	}
	return strings.Contains(err.Error(), "REFUSED_STREAM")
}
