package middleware

import (
	http "github.com/saucesteals/fhttp"

	"github.com/outrider-labs/impersonate/internal/core"
)

// Cookie attaches the client's default cookie jar to every request,
// reading cookies before the call and storing Set-Cookie values from the
// response after, unless the request carries a core.CookieStoreOverride
// (spec.md §4.5's per-request cookie store escape hatch). Grounded on
// firasghr-GoSessionEngine/client/client.go's newCookieJar wiring, adapted
// from a fixed net/http/cookiejar.Jar on the http.Client into an explicit
// middleware layer since fhttp's Client/Transport split doesn't manage
// cookies itself.
func Cookie(defaultJar core.CookieJar) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return cookieRoundTripper{next: next, defaultJar: defaultJar}
	}
}

type cookieRoundTripper struct {
	next       http.RoundTripper
	defaultJar core.CookieJar
}

func (rt cookieRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	jar := rt.defaultJar
	if override, ok := core.RequestConfigFrom[core.CookieStoreOverride](req.Context()); ok {
		jar = override.Jar
	}
	if jar == nil {
		return rt.next.RoundTrip(req)
	}

	for _, c := range jar.Cookies(req.URL) {
		req.AddCookie(c)
	}

	resp, err := rt.next.RoundTrip(req)
	if err != nil {
		return resp, err
	}
	if rc := readSetCookies(resp); len(rc) > 0 {
		jar.SetCookies(req.URL, rc)
	}
	return resp, nil
}

func readSetCookies(resp *http.Response) []*http.Cookie {
	return resp.Cookies()
}
