package middleware

import (
	http "github.com/saucesteals/fhttp"
)

// Decompress announces Accept-Encoding if the request doesn't already set
// one; it does NOT decode response bodies (spec.md §1 Non-goals: "transparent
// response decompression is out of scope — callers read Content-Encoding and
// decode themselves"). Grounded on the teacher's default-header merge
// pattern in transport.go, specialized to this one header.
func Decompress(defaultEncoding string) func(http.RoundTripper) http.RoundTripper {
	if defaultEncoding == "" {
		defaultEncoding = "gzip, deflate, br"
	}
	return func(next http.RoundTripper) http.RoundTripper {
		return decompressRoundTripper{next: next, defaultEncoding: defaultEncoding}
	}
}

type decompressRoundTripper struct {
	next            http.RoundTripper
	defaultEncoding string
}

func (rt decompressRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", rt.defaultEncoding)
	}
	return rt.next.RoundTrip(req)
}
