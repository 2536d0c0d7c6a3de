package profiles

import (
	"fmt"
	"strings"

	utls "github.com/refraction-networking/utls"
	"github.com/saucesteals/fhttp/http2"

	"github.com/outrider-labs/impersonate"
	"github.com/outrider-labs/impersonate/internal/h2glue"
	"github.com/outrider-labs/impersonate/internal/headers"
	"github.com/outrider-labs/impersonate/internal/tlsconn"
)

// settingEnableConnectProtocol is SETTINGS_ENABLE_CONNECT_PROTOCOL (0x8),
// which Safari 17+ sends and fhttp does not define as a named constant, so
// the raw ID is cast — same as aarock1234-mimic/safari.go.
const settingEnableConnectProtocol = http2.SettingID(0x8)

// Safari returns a Provider mimicking Safari at version on platform.
// Minimum supported version is 16. The TLS fingerprint is platform-
// dependent: macOS/iPadOS use the desktop fingerprint, iOS uses its own.
// Safari does not send sec-ch-ua client hint headers. Generalized from
// aarock1234-mimic/safari.go.
func Safari(version string, platform impersonate.Platform) (*impersonate.Provider, error) {
	_, majorNum, err := parseMajorVersion(version)
	if err != nil {
		return nil, err
	}
	if majorNum < 16 {
		return nil, &impersonate.Error{Kind: impersonate.KindBuilder, Err: fmt.Errorf("safari %s: %w", version, ErrUnsupportedVersion)}
	}

	var helloID utls.ClientHelloID
	var ua string
	switch platform {
	case impersonate.PlatformMac:
		helloID = utls.HelloSafari_16_0
		ua = fmt.Sprintf("Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/%s Safari/605.1.15", version)
	case impersonate.PlatformIPadOS:
		helloID = utls.HelloSafari_16_0
		iosVer := strings.ReplaceAll(version, ".", "_")
		ua = fmt.Sprintf("Mozilla/5.0 (iPad; CPU OS %s like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/%s Mobile/15E148 Safari/604.1", iosVer, version)
	case impersonate.PlatformIOS:
		helloID = utls.HelloIOS_14
		iosVer := strings.ReplaceAll(version, ".", "_")
		ua = fmt.Sprintf("Mozilla/5.0 (iPhone; CPU iPhone OS %s like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/%s Mobile/15E148 Safari/604.1", iosVer, version)
	default:
		return nil, &impersonate.Error{Kind: impersonate.KindBuilder, Err: fmt.Errorf("safari on %s: %w", platform, ErrUnsupportedPlatform)}
	}

	h := headers.NewDefaultHeaders()
	h.Set("user-agent", ua)

	return &impersonate.Provider{
		Name:    fmt.Sprintf("safari_%s_%s", version, platform),
		TLS:     tlsconn.Options{HelloID: helloID, ALPNProtocols: []string{"h2", "http/1.1"}},
		HTTP2:   safariHTTP2Options(),
		Headers: h,
	}, nil
}

func safariHTTP2Options() h2glue.Options {
	return h2glue.Options{
		PseudoHeaderOrder: []string{":method", ":scheme", ":path", ":authority"},
		Settings: []http2.Setting{
			{ID: http2.SettingHeaderTableSize, Val: 4096},
			{ID: http2.SettingEnablePush, Val: 0},
			{ID: http2.SettingMaxConcurrentStreams, Val: 100},
			{ID: http2.SettingInitialWindowSize, Val: 2097152},
			{ID: http2.SettingMaxFrameSize, Val: 16384},
			{ID: settingEnableConnectProtocol, Val: 1},
		},
		InitialWindowSize: 2097152,
		HeaderTableSize:   4096,
		ConnectionFlow:    10485760,
	}
}
