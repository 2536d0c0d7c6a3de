package h2glue_test

import (
	"testing"

	http "github.com/saucesteals/fhttp"
	"github.com/saucesteals/fhttp/http2"

	"github.com/outrider-labs/impersonate/internal/h2glue"
)

func TestApply_WiresSettingsOntoTransport(t *testing.T) {
	base := &http.Transport{}
	opts := h2glue.Options{
		Settings: []http2.Setting{
			{ID: http2.SettingHeaderTableSize, Val: 65536},
			{ID: http2.SettingInitialWindowSize, Val: 6291456},
		},
		PseudoHeaderOrder: []string{"m", "a", "s", "p"},
		MaxHeaderListSize: 262144,
		InitialWindowSize: 6291456,
		HeaderTableSize:   65536,
		ConnectionFlow:    15663105,
	}

	t2, err := h2glue.Apply(base, opts)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if t2 == nil {
		t.Fatal("Apply returned a nil *http2.Transport")
	}
	if len(t2.Settings) != 2 {
		t.Fatalf("Settings = %v, want 2 entries", t2.Settings)
	}
	if t2.MaxHeaderListSize != opts.MaxHeaderListSize {
		t.Errorf("MaxHeaderListSize = %d, want %d", t2.MaxHeaderListSize, opts.MaxHeaderListSize)
	}
	if t2.InitialWindowSize != opts.InitialWindowSize {
		t.Errorf("InitialWindowSize = %d, want %d", t2.InitialWindowSize, opts.InitialWindowSize)
	}
	if t2.TransportConnFlow != opts.ConnectionFlow {
		t.Errorf("TransportConnFlow = %d, want %d", t2.TransportConnFlow, opts.ConnectionFlow)
	}
}

func TestApply_ZeroConnectionFlowLeavesDefault(t *testing.T) {
	base := &http.Transport{}
	t2, err := h2glue.Apply(base, h2glue.Options{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if t2.TransportConnFlow != 0 {
		t.Errorf("TransportConnFlow = %d, want the zero value to be left alone", t2.TransportConnFlow)
	}
}

func TestApply_NilHeaderPriorityLeavesDefault(t *testing.T) {
	want, err := http2.ConfigureTransports(&http.Transport{})
	if err != nil {
		t.Fatalf("ConfigureTransports: %v", err)
	}

	t2, err := h2glue.Apply(&http.Transport{}, h2glue.Options{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if t2.HeaderPriority != want.HeaderPriority {
		t.Error("a nil HeaderPriority should leave fhttp's default priority untouched")
	}
}
