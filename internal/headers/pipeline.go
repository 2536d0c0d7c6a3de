package headers

import (
	http "github.com/saucesteals/fhttp"
)

// DefaultHeaders is an ordered multi-valued map of the provider's default
// headers, preserving insertion order across names (the order Chrome/
// Firefox/Safari/Edge/OkHttp profiles set their headers in).
type DefaultHeaders struct {
	order  []string
	values map[string][]string
}

// NewDefaultHeaders returns an empty DefaultHeaders.
func NewDefaultHeaders() *DefaultHeaders {
	return &DefaultHeaders{values: make(map[string][]string)}
}

// Set appends a default value for name, recording name's first-seen
// position in the insertion order.
func (d *DefaultHeaders) Set(name, value string) {
	key := http.CanonicalHeaderKey(name)
	if _, ok := d.values[key]; !ok {
		d.order = append(d.order, key)
	}
	d.values[key] = append(d.values[key], value)
}

// FromHTTPHeader builds a DefaultHeaders from an http.Header, adding the
// names listed in order, in that order, each with all of its values in h.
// The header map's own iteration order is not used, and names present in h
// but not listed in order are not added. This constructor exists for
// profiles that already assembled an http.Header (as the teacher's
// buildHeaders funcs do).
func FromHTTPHeader(h http.Header, order []string) *DefaultHeaders {
	d := NewDefaultHeaders()
	for _, name := range order {
		for _, v := range h[http.CanonicalHeaderKey(name)] {
			d.Set(name, v)
		}
	}
	return d
}

// Clone returns a deep copy of d, so a provider shared across clients can
// hand each Client its own independently-mutable default-header set
// (spec.md invariant 7).
func (d *DefaultHeaders) Clone() *DefaultHeaders {
	if d == nil {
		return nil
	}
	clone := &DefaultHeaders{
		order:  append([]string(nil), d.order...),
		values: make(map[string][]string, len(d.values)),
	}
	for k, v := range d.values {
		clone.values[k] = append([]string(nil), v...)
	}
	return clone
}

// Order returns a copy of d's default headers in the insertion order Set
// recorded them, the order EnforceOrder prioritizes ahead of any headers a
// caller added beyond the provider's defaults.
func (d *DefaultHeaders) Order() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.order...)
}

// MergeDefaults implements spec.md §4.5's default-header merge: for each
// name in d, if req's headers do not already contain that name, append all
// of d's values for it (preserving multi-valued headers) in d's insertion
// order. Existing request headers are never overwritten (invariant 5).
func MergeDefaults(h http.Header, d *DefaultHeaders) {
	if d == nil {
		return
	}
	for _, name := range d.order {
		if _, exists := h[name]; exists {
			continue
		}
		h[name] = append([]string(nil), d.values[name]...)
	}
}

// EnforceOrder re-orders h in place so names in order come first (in listed
// order), followed by the remaining headers in Go map iteration order, which
// is not defined. Names listed but absent from h are silently skipped (spec.md
// boundary case 8.3). fhttp's Header has no native ordering concept on the
// wire beyond the magic HeaderOrderKey entry the transport consults, so this
// function's job is to produce that key's value, not to reorder the map
// itself (maps have no order).
func EnforceOrder(h http.Header, order []string) []string {
	seen := make(map[string]bool, len(order))
	out := make([]string, 0, len(h))
	for _, name := range order {
		key := http.CanonicalHeaderKey(name)
		if _, ok := h[key]; !ok {
			continue // spec.md 8.3: skip silently
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	for key := range h {
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}
