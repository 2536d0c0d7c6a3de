package impersonate

import (
	"net"
	"testing"

	http "github.com/saucesteals/fhttp"

	"github.com/outrider-labs/impersonate/internal/core"
	"github.com/outrider-labs/impersonate/internal/pool"
	"github.com/outrider-labs/impersonate/internal/tlsconn"
)

func TestHostPort(t *testing.T) {
	tests := []struct {
		origin string
		want   string
	}{
		{"https://example.com", "example.com:443"},
		{"http://example.com", "example.com:80"},
		{"https://example.com:8443", "example.com:8443"},
	}
	for _, tt := range tests {
		if got := hostPort(tt.origin); got != tt.want {
			t.Errorf("hostPort(%q) = %q, want %q", tt.origin, got, tt.want)
		}
	}
}

func TestLocalAddrFor_ExplicitIPWins(t *testing.T) {
	tcp := pool.TCPConnectOptions{LocalV4: "10.0.0.5"}
	addr := localAddrFor(tcp, "tcp4")
	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok || tcpAddr.IP.String() != "10.0.0.5" {
		t.Fatalf("localAddrFor = %v, want 10.0.0.5", addr)
	}
}

func TestLocalAddrFor_NoOverrideReturnsNil(t *testing.T) {
	if addr := localAddrFor(pool.TCPConnectOptions{}, "tcp4"); addr != nil {
		t.Fatalf("localAddrFor = %v, want nil with no override set", addr)
	}
}

func TestLocalAddrFor_UnresolvableInterfaceReturnsNil(t *testing.T) {
	tcp := pool.TCPConnectOptions{Interface: "no-such-interface-xyz"}
	if addr := localAddrFor(tcp, "tcp4"); addr != nil {
		t.Fatalf("localAddrFor = %v, want nil for a nonexistent interface", addr)
	}
}

func TestClient_KeyFor_DistinguishesProviders(t *testing.T) {
	chrome, _ := NewClient(&Provider{Name: "chrome", TLS: tlsconn.Options{}})
	firefox, _ := NewClient(&Provider{Name: "firefox", TLS: tlsconn.Options{ALPNProtocols: []string{"http/1.1"}}})

	req, _ := http.NewRequest(http.MethodGet, "https://example.com", nil)
	keyA := chrome.keyFor(req)
	keyB := firefox.keyFor(req)
	if keyA.TLSFingerprint == keyB.TLSFingerprint {
		t.Fatal("two providers with different TLS options produced the same fingerprint key")
	}
}

func TestClient_KeyFor_SkipHTTP2PinsALPN(t *testing.T) {
	c, _ := NewClient(&Provider{Name: "pinned", SkipHTTP2: true})
	req, _ := http.NewRequest(http.MethodGet, "https://example.com", nil)
	key := c.keyFor(req)
	if key.EnforcedALPN != string(core.HTTPVersion1) {
		t.Fatalf("EnforcedALPN = %q, want http/1.1 when Provider.SkipHTTP2 is set", key.EnforcedALPN)
	}
}

func TestClient_KeyFor_PerRequestVersionPinOverridesProvider(t *testing.T) {
	c, _ := NewClient(&Provider{Name: "auto"})
	req, _ := http.NewRequest(http.MethodGet, "https://example.com", nil)
	ctx := core.WithRequestConfig(req.Context(), core.HTTPVersion1)
	req = req.WithContext(ctx)

	key := c.keyFor(req)
	if key.EnforcedALPN != string(core.HTTPVersion1) {
		t.Fatalf("EnforcedALPN = %q, want http/1.1 from the per-request pin", key.EnforcedALPN)
	}
}

func TestClient_KeyFor_OriginIncludesSchemeAndHost(t *testing.T) {
	c, _ := NewClient(&Provider{Name: "auto"})
	req, _ := http.NewRequest(http.MethodGet, "https://example.com:8443/path", nil)
	key := c.keyFor(req)
	if key.Origin != "https://example.com:8443" {
		t.Fatalf("Origin = %q, want https://example.com:8443", key.Origin)
	}
}
