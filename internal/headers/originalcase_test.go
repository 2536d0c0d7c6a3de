package headers_test

import (
	"testing"

	http "github.com/saucesteals/fhttp"

	"github.com/outrider-labs/impersonate/internal/headers"
)

func TestOriginalHeaders_RewriteEgressPreservesCase(t *testing.T) {
	o := headers.NewOriginalHeaders()
	o.Add("user-agent")

	h := http.Header{"User-Agent": []string{"test-agent"}}
	o.RewriteEgress(h)

	if _, ok := h["User-Agent"]; ok {
		t.Error("canonical key should have been replaced")
	}
	if got := h["user-agent"]; len(got) != 1 || got[0] != "test-agent" {
		t.Fatalf("h[\"user-agent\"] = %v, want [\"test-agent\"]", got)
	}
}

func TestOriginalHeaders_RewriteEgressLeavesUnrecordedHeadersAlone(t *testing.T) {
	o := headers.NewOriginalHeaders()
	o.Add("user-agent")

	h := http.Header{
		"User-Agent": []string{"test-agent"},
		"Accept":     []string{"text/html"},
	}
	o.RewriteEgress(h)

	if got := h.Get("Accept"); got != "text/html" {
		t.Fatalf("Accept = %q, want untouched", got)
	}
}

func TestOriginalHeaders_RoundRobinsRepeatedSpellings(t *testing.T) {
	o := headers.NewOriginalHeaders()
	o.Add("x-test")
	o.Add("X-Test")

	h := http.Header{"X-Test": []string{"a", "b", "c"}}
	o.RewriteEgress(h)

	total := len(h["x-test"]) + len(h["X-Test"])
	if total != 3 {
		t.Fatalf("total values after rewrite = %d, want 3", total)
	}
}

func TestOriginalHeaders_RecordIngress(t *testing.T) {
	o := headers.NewOriginalHeaders()
	h := http.Header{"Set-Cookie": []string{"a=b"}}
	o.RecordIngress(h)

	got := o.Spellings("set-cookie")
	if len(got) != 1 || got[0] != "Set-Cookie" {
		t.Fatalf("Spellings(\"set-cookie\") = %v, want [\"Set-Cookie\"]", got)
	}
}

func TestOriginalHeaders_NilSafety(t *testing.T) {
	var o *headers.OriginalHeaders
	h := http.Header{"Accept": []string{"text/html"}}
	o.RewriteEgress(h) // must not panic
	if got := h.Get("Accept"); got != "text/html" {
		t.Fatal("RewriteEgress on a nil *OriginalHeaders should be a no-op")
	}
}
