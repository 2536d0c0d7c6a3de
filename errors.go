package impersonate

import "github.com/outrider-labs/impersonate/internal/core"

// Kind tags the taxonomy of error an operation can fail with. Callers match
// on Kind; the library never exposes the underlying TLS/HTTP2 library's own
// error types.
type Kind = core.Kind

// The Kind values a caller can switch on. See core.Kind for documentation.
const (
	KindBuilder  = core.KindBuilder
	KindRequest  = core.KindRequest
	KindRedirect = core.KindRedirect
	KindStatus   = core.KindStatus
	KindBody     = core.KindBody
	KindDecode   = core.KindDecode
	KindUpgrade  = core.KindUpgrade
	KindTimeout  = core.KindTimeout
)

// Error is the single error type the library surfaces.
type Error = core.Error

var (
	// ErrUnsupportedVersion is returned when a profile constructor is asked
	// for a browser version below what the embedded fingerprint table supports.
	ErrUnsupportedVersion = core.ErrUnsupportedVersion
	// ErrUnsupportedPlatform is returned when a profile constructor is asked
	// for a platform it has no fingerprint for.
	ErrUnsupportedPlatform = core.ErrUnsupportedPlatform
	// ErrClosedPool is returned by pool operations after Client.Close.
	ErrClosedPool = core.ErrClosedPool
	// ErrRedirectLimit is returned when the redirect policy's depth is exceeded.
	ErrRedirectLimit = core.ErrRedirectLimit
	// ErrBodyNotClonable is returned when the retry layer needs to resend a
	// request whose body cannot be safely re-read.
	ErrBodyNotClonable = core.ErrBodyNotClonable
)

// AsKind reports whether err is (or wraps) an *Error of the given kind.
func AsKind(err error, kind Kind) bool { return core.AsKind(err, kind) }
