// Package headers implements the header pipeline: default-header merge,
// explicit header-order enforcement, and original-case preservation for
// HTTP/1 egress and ingress (spec.md §4.5).
//
// Original-case preservation is grounded on
// firasghr-GoSessionEngine/client/ordered_header.go's OrderedHeader, which
// bypasses net/http's key canonicalization by writing the raw-case key
// directly into the header map. fhttp (the teacher's fork of net/http) keeps
// that same map[string][]string shape, so the same trick works here.
package headers

import (
	"strings"

	http "github.com/saucesteals/fhttp"
)

// OriginalHeaders is an ordered, case-preserving record of the exact byte
// spelling a header name was sent (egress) or observed (ingress) with.
// Multiple original spellings for the same normalized name are preserved in
// insertion order and consumed round-robin across repeated occurrences.
//
// Not safe for concurrent use; each request/response owns one instance.
type OriginalHeaders struct {
	// spellings maps the canonical (lowercased) header name to the ordered
	// list of original byte spellings observed/configured for it.
	spellings map[string][]string
	// cursor tracks how many spellings for a name have already been
	// consumed during RewriteEgress, so repeated header occurrences round-robin
	// through the configured spellings in order.
	cursor map[string]int
}

// NewOriginalHeaders returns an empty OriginalHeaders ready for use.
func NewOriginalHeaders() *OriginalHeaders {
	return &OriginalHeaders{
		spellings: make(map[string][]string),
		cursor:    make(map[string]int),
	}
}

// normalize lowercases name for use as the map key; this is independent of
// http.CanonicalHeaderKey so it works for names with unconventional casing
// such as "X-custom-Header1".
func normalize(name string) string { return strings.ToLower(name) }

// Add records one more original spelling for name, preserving insertion
// order relative to any spellings already recorded for the same normalized
// name.
func (o *OriginalHeaders) Add(name string) {
	key := normalize(name)
	o.spellings[key] = append(o.spellings[key], name)
}

// Spellings returns the recorded original spellings for name, in insertion
// order.
func (o *OriginalHeaders) Spellings(name string) []string {
	return append([]string(nil), o.spellings[normalize(name)]...)
}

// Len reports how many (name -> spellings) entries are recorded.
func (o *OriginalHeaders) Len() int { return len(o.spellings) }

// next returns the next original spelling to use for name, round-robining
// across repeated occurrences once every recorded spelling has been used
// once.
func (o *OriginalHeaders) next(canonical string) (string, bool) {
	key := normalize(canonical)
	list := o.spellings[key]
	if len(list) == 0 {
		return "", false
	}
	i := o.cursor[key]
	o.cursor[key] = (i + 1) % len(list)
	return list[i%len(list)], true
}

// RewriteEgress replaces each canonical header name in req.Header with its
// recorded original spelling, for HTTP/1 wire serialization. It is a pure
// adornment: the semantic header set is unchanged, only the byte spelling of
// the name used to write it onto the wire (invariant 3).
//
// fhttp's Header is a map[string][]string keyed by whatever string was used
// to set it; writing under a new key and deleting the canonical one changes
// the on-wire spelling without touching values.
func (o *OriginalHeaders) RewriteEgress(h http.Header) {
	if o == nil || len(o.spellings) == 0 {
		return
	}
	for canonical, values := range h {
		if len(o.spellings[normalize(canonical)]) == 0 {
			continue // no recorded spelling for this name; leave as-is
		}
		delete(h, canonical)
		for _, v := range values {
			spelling, ok := o.next(canonical)
			if !ok {
				spelling = canonical
			}
			h[spelling] = append(h[spelling], v)
		}
	}
}

// RecordIngress observes the original spelling of every header name present
// on h and records it, for callers that enabled preserve_header_case on
// ingress. Call this before any code canonicalizes h further.
func (o *OriginalHeaders) RecordIngress(h http.Header) {
	for name := range h {
		o.Add(name)
	}
}
