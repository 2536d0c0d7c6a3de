package middleware

import (
	"encoding/base64"

	http "github.com/saucesteals/fhttp"
)

// ProxyAuth injects a Proxy-Authorization header derived from the proxy
// URL's userinfo when one is set, per spec.md §4.5 ("credentials embedded
// in a proxy URL must be translated into a Proxy-Authorization header, not
// forwarded as userinfo on the wire"). proxyOf reports the credentials of
// the proxy in effect for a request; the Client builds it from its WithProxy
// resolver and does not consult a per-request core.ProxyOverride.
func ProxyAuth(proxyOf func(req *http.Request) (user, pass string, ok bool)) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return proxyAuthRoundTripper{next: next, proxyOf: proxyOf}
	}
}

type proxyAuthRoundTripper struct {
	next    http.RoundTripper
	proxyOf func(req *http.Request) (user, pass string, ok bool)
}

func (rt proxyAuthRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if user, pass, ok := rt.proxyOf(req); ok {
		token := base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
		req.Header.Set("Proxy-Authorization", "Basic "+token)
	}
	return rt.next.RoundTrip(req)
}
