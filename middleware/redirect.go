package middleware

import (
	"io"
	"net/url"

	http "github.com/saucesteals/fhttp"

	"github.com/outrider-labs/impersonate/internal/core"
)

// Redirect follows 3xx responses up to maxRedirects, re-issuing the request
// against the Location header the way net/http.Client's default policy
// does, generalized from original_source/src/client/layer/redirect.rs's
// FollowRedirect middleware (a tower::Service layer wrapping the inner
// transport) into a nested http.RoundTripper.
//
// Request bodies are only re-sent on redirect if they were buffered
// up-front (GetBody is set); a streaming body with no GetBody aborts the
// redirect chain with core.ErrBodyNotClonable, since it cannot be safely
// replayed.
func Redirect(maxRedirects int) func(http.RoundTripper) http.RoundTripper {
	if maxRedirects <= 0 {
		maxRedirects = 10
	}
	return func(next http.RoundTripper) http.RoundTripper {
		return redirectRoundTripper{next: next, max: maxRedirects}
	}
}

type redirectRoundTripper struct {
	next http.RoundTripper
	max  int
}

func (rt redirectRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := rt.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	for n := 0; n < rt.max; n++ {
		if !isRedirectStatus(resp.StatusCode) {
			return resp, nil
		}
		loc := resp.Header.Get("Location")
		if loc == "" {
			return resp, nil
		}
		u, err := url.Parse(loc)
		if err != nil {
			return resp, nil
		}
		target := req.URL.ResolveReference(u)

		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		resp.Body.Close()

		nextReq, err := cloneForRedirect(req, target, resp.StatusCode)
		if err != nil {
			return nil, err
		}
		req = nextReq

		resp, err = rt.next.RoundTrip(req)
		if err != nil {
			return nil, err
		}
	}
	return nil, core.New(core.KindRedirect, req.URL.String(), core.ErrRedirectLimit)
}

func isRedirectStatus(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	default:
		return false
	}
}

// cloneForRedirect builds the request to send to target, downgrading
// POST-with-303 (and POST-with-301/302, matching net/http's historical
// compatibility behavior) to GET with no body.
func cloneForRedirect(req *http.Request, target *url.URL, statusCode int) (*http.Request, error) {
	method := req.Method
	var body io.ReadCloser
	var getBody func() (io.ReadCloser, error)

	switch {
	case statusCode == http.StatusSeeOther && method != http.MethodGet && method != http.MethodHead:
		method = http.MethodGet
	case (statusCode == http.StatusMovedPermanently || statusCode == http.StatusFound) && method == http.MethodPost:
		method = http.MethodGet
	default:
		if req.GetBody != nil {
			b, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			body, getBody = b, req.GetBody
		} else if req.Body != nil && req.Body != http.NoBody {
			return nil, core.New(core.KindBody, req.URL.String(), core.ErrBodyNotClonable)
		}
	}

	next, err := http.NewRequestWithContext(req.Context(), method, target.String(), body)
	if err != nil {
		return nil, err
	}
	next.GetBody = getBody
	next.Header = req.Header.Clone()
	if method != req.Method {
		next.Header.Del("Content-Length")
		next.Header.Del("Content-Type")
	}
	return next, nil
}
