package headers_test

import (
	"reflect"
	"testing"

	http "github.com/saucesteals/fhttp"

	"github.com/outrider-labs/impersonate/internal/headers"
)

func TestDefaultHeaders_SetPreservesInsertionOrder(t *testing.T) {
	d := headers.NewDefaultHeaders()
	d.Set("User-Agent", "test-agent")
	d.Set("Accept", "text/html")
	d.Set("User-Agent", "test-agent-2")

	want := []string{"User-Agent", "Accept"}
	if got := d.Order(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Order() = %v, want %v", got, want)
	}
}

func TestDefaultHeaders_CloneIsIndependent(t *testing.T) {
	d := headers.NewDefaultHeaders()
	d.Set("Accept", "text/html")

	clone := d.Clone()
	clone.Set("Accept-Language", "en")

	if len(d.Order()) == len(clone.Order()) {
		t.Fatal("mutating the clone also mutated the original")
	}
}

func TestDefaultHeaders_CloneNil(t *testing.T) {
	var d *headers.DefaultHeaders
	if d.Clone() != nil {
		t.Fatal("Clone of a nil *DefaultHeaders should return nil")
	}
	if d.Order() != nil {
		t.Fatal("Order of a nil *DefaultHeaders should return nil")
	}
}

func TestMergeDefaults_NeverOverwritesExisting(t *testing.T) {
	d := headers.NewDefaultHeaders()
	d.Set("User-Agent", "default-agent")
	d.Set("Accept", "text/html")

	h := http.Header{"User-Agent": []string{"explicit-agent"}}
	headers.MergeDefaults(h, d)

	if got := h.Get("User-Agent"); got != "explicit-agent" {
		t.Errorf("User-Agent = %q, want the explicit value preserved", got)
	}
	if got := h.Get("Accept"); got != "text/html" {
		t.Errorf("Accept = %q, want the default value merged in", got)
	}
}

func TestMergeDefaults_NilIsNoop(t *testing.T) {
	h := http.Header{}
	headers.MergeDefaults(h, nil)
	if len(h) != 0 {
		t.Fatal("MergeDefaults with a nil DefaultHeaders should not modify h")
	}
}

func TestEnforceOrder_PrioritizesListedNamesThenAppendsRest(t *testing.T) {
	h := http.Header{
		"Accept":     []string{"text/html"},
		"User-Agent": []string{"ua"},
		"X-Custom":   []string{"v"},
	}
	order := []string{"User-Agent", "Accept"}

	got := headers.EnforceOrder(h, order)
	if len(got) != 3 {
		t.Fatalf("EnforceOrder returned %d entries, want 3", len(got))
	}
	if got[0] != "User-Agent" || got[1] != "Accept" {
		t.Fatalf("EnforceOrder = %v, want User-Agent and Accept first", got)
	}
	if got[2] != "X-Custom" {
		t.Fatalf("EnforceOrder dropped or misplaced the unlisted header: %v", got)
	}
}

func TestEnforceOrder_SkipsNamesAbsentFromHeader(t *testing.T) {
	h := http.Header{"Accept": []string{"text/html"}}
	got := headers.EnforceOrder(h, []string{"User-Agent", "Accept"})
	want := []string{"Accept"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("EnforceOrder = %v, want %v", got, want)
	}
}
