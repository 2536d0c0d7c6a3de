// Package middleware composes the per-request service stack spec.md §4.5
// describes: cookie jar, header pipeline, redirect policy, HTTP/2-only
// retry, timeout, and proxy-authentication injection, each as a nested
// http.RoundTripper — the same composition style the teacher's
// Transport.RoundTrip uses to wrap one inner transport (aarock1234-mimic/
// transport.go), generalized from one wrapping layer into a named chain of
// them (Go's idiomatic substitute for Rust's tower::Service layers, per
// original_source/src/client/layer/{retry,redirect,timeout,decoder,cookie}.rs).
package middleware

import (
	http "github.com/saucesteals/fhttp"
)

// Stack builds the full middleware chain around base, applying each
// constructor in the order given: the first constructor wraps base, the
// next wraps that, and so on, so the LAST entry in layers is the outermost
// (first to see the request).
func Stack(base http.RoundTripper, layers ...func(http.RoundTripper) http.RoundTripper) http.RoundTripper {
	rt := base
	for _, layer := range layers {
		rt = layer(rt)
	}
	return rt
}
