// Package profiles holds canned impersonate.Provider constructors per
// browser family, generalized from the teacher's Firefox/Safari/Chromium
// constructors (aarock1234-mimic/{firefox,safari,chromium}.go) plus Edge
// and OkHttp from original_source/src/impersonate/{edge,okhttp}, the
// family set original_source/src/impersonate/profile/mod.rs enumerates.
package profiles

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/outrider-labs/impersonate"
)

var (
	// ErrUnsupportedVersion is impersonate.ErrUnsupportedVersion, re-exported
	// so callers matching on it with errors.Is don't need a second import;
	// every profile constructor below returns this exact sentinel (not a
	// locally-declared look-alike) so that check actually succeeds.
	ErrUnsupportedVersion = impersonate.ErrUnsupportedVersion
	// ErrUnsupportedPlatform is impersonate.ErrUnsupportedPlatform, re-exported
	// the same way.
	ErrUnsupportedPlatform = impersonate.ErrUnsupportedPlatform
	// ErrUnknownName is returned by Lookup for a name it can't parse.
	ErrUnknownName = fmt.Errorf("impersonate/profiles: unknown profile name")
)

// Brand selects a Chromium-engine browser's UA/client-hint identity.
type Brand string

const (
	BrandChrome Brand = "Google Chrome"
	BrandBrave  Brand = "Brave"
	BrandEdge   Brand = "Microsoft Edge"
)

func parseMajorVersion(version string) (string, int, error) {
	majorStr := strings.SplitN(version, ".", 2)[0]
	majorNum, err := strconv.Atoi(majorStr)
	if err != nil {
		return "", 0, &impersonate.Error{Kind: impersonate.KindBuilder, Err: fmt.Errorf("impersonate/profiles: parsing major version %q: %w", majorStr, err)}
	}
	return majorStr, majorNum, nil
}

// Lookup parses a name of the form "{family}_{version}_{platform}" (with an
// optional trailing "_skip_http2") and returns the matching Provider, per
// spec.md §6.3. Supported families: chrome, brave, edge, firefox, safari,
// okhttp.
func Lookup(name string) (*impersonate.Provider, error) {
	skipHTTP2 := false
	if rest, ok := strings.CutSuffix(name, "_skip_http2"); ok {
		skipHTTP2 = true
		name = rest
	}

	parts := strings.SplitN(name, "_", 3)
	if len(parts) < 2 {
		return nil, &impersonate.Error{Kind: impersonate.KindBuilder, Err: fmt.Errorf("%w: %q", ErrUnknownName, name)}
	}
	family, version := parts[0], parts[1]
	platform := impersonate.PlatformWindows
	if len(parts) == 3 {
		platform = impersonate.Platform(parts[2])
		if platform == "windows" {
			platform = impersonate.PlatformWindows
		}
	}

	var (
		p   *impersonate.Provider
		err error
	)
	switch family {
	case "chrome":
		p, err = Chromium(BrandChrome, version, platform)
	case "brave":
		p, err = Chromium(BrandBrave, version, platform)
	case "edge":
		p, err = Chromium(BrandEdge, version, platform)
	case "firefox":
		p, err = Firefox(version, platform)
	case "safari":
		p, err = Safari(version, platform)
	case "okhttp":
		p, err = OkHttp(version)
	default:
		return nil, &impersonate.Error{Kind: impersonate.KindBuilder, Err: fmt.Errorf("%w: %q", ErrUnknownName, name)}
	}
	if err != nil {
		return nil, err
	}
	p.SkipHTTP2 = skipHTTP2
	if skipHTTP2 {
		p.TLS.ALPNProtocols = []string{"http/1.1"}
	}
	return p, nil
}
