package profiles

import (
	"fmt"

	utls "github.com/refraction-networking/utls"
	"github.com/saucesteals/fhttp/http2"

	"github.com/outrider-labs/impersonate"
	"github.com/outrider-labs/impersonate/internal/h2glue"
	"github.com/outrider-labs/impersonate/internal/headers"
	"github.com/outrider-labs/impersonate/internal/tlsconn"
)

// okHttpCipherSuites is OkHttp 4.9's configured cipher list (no GREASE),
// lifted from original_source/src/impersonate/okhttp/okhttp4_9.rs's
// configure_cipher_list call.
var okHttpCipherSuites = []uint16{
	utls.TLS_AES_128_GCM_SHA256,
	utls.TLS_AES_256_GCM_SHA384,
	utls.TLS_CHACHA20_POLY1305_SHA256,
	utls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	utls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	utls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
	utls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	utls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	utls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
	utls.TLS_ECDHE_RSA_WITH_AES_128_CBC_SHA,
	utls.TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA,
	utls.TLS_RSA_WITH_AES_128_GCM_SHA256,
	utls.TLS_RSA_WITH_AES_256_GCM_SHA384,
	utls.TLS_RSA_WITH_AES_128_CBC_SHA,
	utls.TLS_RSA_WITH_AES_256_CBC_SHA,
}

// OkHttp returns a Provider mimicking an Android OkHttp 4.9 client, ported
// from original_source/src/impersonate/okhttp/okhttp4_9.rs. uTLS ships no
// canned Android/OkHttp parrot spec the way it does for desktop browsers,
// so the TLS fingerprint is approximated by starting from utls.HelloGolang
// (uTLS's generic modern default) and overriding its cipher list to
// OkHttp's — documented here rather than silently passed off as a verified
// parrot.
func OkHttp(version string) (*impersonate.Provider, error) {
	h := headers.NewDefaultHeaders()
	h.Set("accept", "*/*")
	h.Set("accept-language", "de-DE,de;q=0.9,en-US;q=0.8,en;q=0.7")
	h.Set("user-agent", fmt.Sprintf("GM-Android/6.111.1 (240460200; M:motorola moto g power (2021); O:30; D:76ba9f6628d198c8) ObsoleteUrlFactory/1.0 OkHttp/%s", version))
	h.Set("accept-encoding", "gzip, deflate, br")

	return &impersonate.Provider{
		Name: fmt.Sprintf("okhttp_%s_%s", version, impersonate.PlatformAndroid),
		TLS: tlsconn.Options{
			HelloID:       utls.HelloGolang,
			CipherSuites:  okHttpCipherSuites,
			ALPNProtocols: []string{"h2", "http/1.1"},
		},
		HTTP2: h2glue.Options{
			PseudoHeaderOrder: []string{":method", ":authority", ":scheme", ":path"},
			InitialWindowSize: 16777216,
			ConnectionFlow:    16777216,
			Settings: []http2.Setting{
				{ID: http2.SettingInitialWindowSize, Val: 16777216},
			},
		},
		Headers: h,
	}, nil
}
