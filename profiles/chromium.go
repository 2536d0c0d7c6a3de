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

// Chromium returns a Provider mimicking a Chromium-engine browser (Chrome,
// Brave, or Edge) at version on platform. Minimum supported version is 100.
// Generalized from aarock1234-mimic/chromium.go's Chromium constructor.
func Chromium(brand Brand, version string, platform impersonate.Platform) (*impersonate.Provider, error) {
	majorStr, majorNum, err := parseMajorVersion(version)
	if err != nil {
		return nil, err
	}
	if majorNum < 100 {
		return nil, &impersonate.Error{Kind: impersonate.KindBuilder, Err: fmt.Errorf("chromium %s: %w", version, ErrUnsupportedVersion)}
	}

	var uaPlatform, hintPlatform string
	switch platform {
	case impersonate.PlatformWindows:
		uaPlatform, hintPlatform = "Windows NT 10.0; Win64; x64", "Windows"
	case impersonate.PlatformMac:
		uaPlatform, hintPlatform = "Macintosh; Intel Mac OS X 10_15_7", "macOS"
	case impersonate.PlatformLinux:
		uaPlatform, hintPlatform = "X11; Linux x86_64", "Linux"
	default:
		return nil, &impersonate.Error{Kind: impersonate.KindBuilder, Err: fmt.Errorf("chromium on %s: %w", platform, ErrUnsupportedPlatform)}
	}

	ua := fmt.Sprintf("Mozilla/5.0 (%s) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36", uaPlatform, version)
	if brand == BrandEdge {
		ua += fmt.Sprintf(" Edg/%s", version)
	}

	h := headers.NewDefaultHeaders()
	h.Set("user-agent", ua)
	h.Set("sec-ch-ua", clientHintUA(brand, majorStr, majorNum))
	h.Set("sec-ch-ua-mobile", "?0")
	h.Set("sec-ch-ua-platform", fmt.Sprintf(`"%s"`, hintPlatform))

	name := fmt.Sprintf("%s_%s_%s", brandSlug(brand), version, platform)
	return &impersonate.Provider{
		Name:    name,
		TLS:     tlsconn.Options{HelloID: chromiumHelloID(majorNum), ALPNProtocols: []string{"h2", "http/1.1"}},
		HTTP2:   chromiumHTTP2Options(majorNum),
		Headers: h,
	}, nil
}

func brandSlug(b Brand) string {
	switch b {
	case BrandBrave:
		return "brave"
	case BrandEdge:
		return "edge"
	default:
		return "chrome"
	}
}

func chromiumHelloID(majorNum int) utls.ClientHelloID {
	switch {
	case majorNum < 102:
		return utls.HelloChrome_100
	case majorNum < 106:
		return utls.HelloChrome_102
	case majorNum < 112:
		return utls.HelloChrome_106_Shuffle
	case majorNum < 114:
		return utls.HelloChrome_112_PSK_Shuf
	case majorNum < 115:
		return utls.HelloChrome_114_Padding_PSK_Shuf
	case majorNum < 120:
		return utls.HelloChrome_115_PQ
	case majorNum < 131:
		return utls.HelloChrome_120
	case majorNum < 133:
		return utls.HelloChrome_131
	default:
		return utls.HelloChrome_133
	}
}

func chromiumHTTP2Options(majorNum int) h2glue.Options {
	opts := h2glue.Options{
		PseudoHeaderOrder: []string{":method", ":authority", ":scheme", ":path"},
		MaxHeaderListSize: 262144,
		InitialWindowSize: 6291456,
		HeaderTableSize:   65536,
	}

	switch {
	case majorNum < 107:
		opts.Settings = []http2.Setting{
			{ID: http2.SettingHeaderTableSize, Val: 65536},
			{ID: http2.SettingMaxConcurrentStreams, Val: 1000},
			{ID: http2.SettingInitialWindowSize, Val: 6291456},
			{ID: http2.SettingMaxHeaderListSize, Val: 100000},
		}
		opts.MaxHeaderListSize = 100000
	case majorNum < 120:
		opts.Settings = []http2.Setting{
			{ID: http2.SettingHeaderTableSize, Val: 65536},
			{ID: http2.SettingEnablePush, Val: 0},
			{ID: http2.SettingMaxConcurrentStreams, Val: 1000},
			{ID: http2.SettingInitialWindowSize, Val: 6291456},
			{ID: http2.SettingMaxHeaderListSize, Val: 262144},
		}
	default:
		opts.Settings = []http2.Setting{
			{ID: http2.SettingHeaderTableSize, Val: 65536},
			{ID: http2.SettingEnablePush, Val: 0},
			{ID: http2.SettingInitialWindowSize, Val: 6291456},
			{ID: http2.SettingMaxHeaderListSize, Val: 262144},
		}
	}

	return opts
}

func clientHintUA(brand Brand, majorStr string, majorNum int) string {
	notABrand := `"Not_A Brand";v="8"`
	if majorNum < 99 {
		notABrand = `"Not A;Brand";v="99"`
	}
	switch brand {
	case BrandBrave:
		return fmt.Sprintf(`"Chromium";v="%s", "Brave";v="%s", %s`, majorStr, majorStr, notABrand)
	case BrandEdge:
		return fmt.Sprintf(`"Chromium";v="%s", "Microsoft Edge";v="%s", %s`, majorStr, majorStr, notABrand)
	default:
		return fmt.Sprintf(`"Chromium";v="%s", "Google Chrome";v="%s", %s`, majorStr, majorStr, notABrand)
	}
}
