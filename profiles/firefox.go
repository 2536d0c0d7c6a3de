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

// Firefox returns a Provider mimicking Firefox at version on platform.
// Minimum supported version is 55. Firefox does not send sec-ch-ua client
// hint headers. Generalized from aarock1234-mimic/firefox.go.
func Firefox(version string, platform impersonate.Platform) (*impersonate.Provider, error) {
	_, majorNum, err := parseMajorVersion(version)
	if err != nil {
		return nil, err
	}
	if majorNum < 55 {
		return nil, &impersonate.Error{Kind: impersonate.KindBuilder, Err: fmt.Errorf("firefox %s: %w", version, ErrUnsupportedVersion)}
	}

	var uaPlatform string
	switch platform {
	case impersonate.PlatformWindows:
		uaPlatform = "Windows NT 10.0; Win64; x64"
	case impersonate.PlatformMac:
		uaPlatform = "Macintosh; Intel Mac OS X 10.15"
	case impersonate.PlatformLinux:
		uaPlatform = "X11; Linux x86_64"
	default:
		return nil, &impersonate.Error{Kind: impersonate.KindBuilder, Err: fmt.Errorf("firefox on %s: %w", platform, ErrUnsupportedPlatform)}
	}

	ua := fmt.Sprintf("Mozilla/5.0 (%s; rv:%s) Gecko/20100101 Firefox/%s", uaPlatform, version, version)
	h := headers.NewDefaultHeaders()
	h.Set("user-agent", ua)

	return &impersonate.Provider{
		Name:    fmt.Sprintf("firefox_%s_%s", version, platform),
		TLS:     tlsconn.Options{HelloID: firefoxHelloID(majorNum), ALPNProtocols: []string{"h2", "http/1.1"}},
		HTTP2:   firefoxHTTP2Options(),
		Headers: h,
	}, nil
}

func firefoxHelloID(majorNum int) utls.ClientHelloID {
	switch {
	case majorNum < 56:
		return utls.HelloFirefox_55
	case majorNum < 63:
		return utls.HelloFirefox_56
	case majorNum < 65:
		return utls.HelloFirefox_63
	case majorNum < 99:
		return utls.HelloFirefox_65
	case majorNum < 102:
		return utls.HelloFirefox_99
	case majorNum < 105:
		return utls.HelloFirefox_102
	case majorNum < 120:
		return utls.HelloFirefox_105
	default:
		return utls.HelloFirefox_120
	}
}

// firefoxHTTP2Options matches aarock1234-mimic/firefox.go's
// firefoxHTTP2Options; the standalone-PRIORITY-frame gap it documents is
// carried forward (see internal/h2glue and DESIGN.md).
func firefoxHTTP2Options() h2glue.Options {
	return h2glue.Options{
		PseudoHeaderOrder: []string{":method", ":path", ":authority", ":scheme"},
		Settings: []http2.Setting{
			{ID: http2.SettingHeaderTableSize, Val: 65536},
			{ID: http2.SettingInitialWindowSize, Val: 131072},
			{ID: http2.SettingMaxFrameSize, Val: 16384},
		},
		InitialWindowSize: 131072,
		HeaderTableSize:   65536,
		ConnectionFlow:    12517377,
		HeaderPriority: &http2.PriorityParam{
			StreamDep: 13,
			Exclusive: false,
			Weight:    41,
		},
	}
}
