package middleware

import (
	"context"
	"io"
	"time"

	http "github.com/saucesteals/fhttp"

	"github.com/outrider-labs/impersonate/internal/core"
)

// Timeout bounds the whole request (dial + handshake + round trip) at
// defaultTimeout unless the request carries a core.TotalTimeout override,
// grounded on original_source/src/client/layer/timeout.rs's per-request
// deadline layer.
func Timeout(defaultTimeout time.Duration) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return timeoutRoundTripper{next: next, defaultTimeout: defaultTimeout}
	}
}

type timeoutRoundTripper struct {
	next           http.RoundTripper
	defaultTimeout time.Duration
}

func (rt timeoutRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	d := rt.defaultTimeout
	if override, ok := core.RequestConfigFrom[core.TotalTimeout](req.Context()); ok {
		d = time.Duration(override)
	}

	var (
		ctx    = req.Context()
		cancel context.CancelFunc
	)
	if d > 0 {
		ctx, cancel = context.WithTimeout(ctx, d)
		req = req.WithContext(ctx)
	}

	resp, err := rt.next.RoundTrip(req)
	if err != nil {
		if cancel != nil {
			cancel()
		}
		if ctx.Err() == context.DeadlineExceeded {
			return nil, core.New(core.KindTimeout, req.URL.String(), ctx.Err())
		}
		return nil, err
	}

	body := resp.Body
	if cancel != nil {
		body = &cancelOnCloseBody{body: body, cancel: cancel}
	}
	if readTimeout, ok := core.RequestConfigFrom[core.ReadTimeout](req.Context()); ok && readTimeout > 0 {
		body = &readDeadlineBody{ctx: req.Context(), body: body, timeout: time.Duration(readTimeout)}
	}
	resp.Body = body
	return resp, nil
}

// cancelOnCloseBody keeps the timeout's context alive for the lifetime of
// the response body read, releasing it on Close rather than the moment
// headers arrive.
type cancelOnCloseBody struct {
	body   io.ReadCloser
	cancel context.CancelFunc
	closed bool
}

func (b *cancelOnCloseBody) Read(p []byte) (int, error) { return b.body.Read(p) }

func (b *cancelOnCloseBody) Close() error {
	err := b.body.Close()
	if !b.closed {
		b.closed = true
		b.cancel()
	}
	return err
}

// readDeadlineBody enforces core.ReadTimeout: the gap between the start of
// one Read and the next must not exceed timeout. It derives a fresh
// per-call deadline from ctx rather than ctx's own (possibly absent or
// looser) deadline, so a short ReadTimeout fires even under a long or
// unset TotalTimeout, and a tighter TotalTimeout still wins when it's the
// one closer to firing (context.WithTimeout always keeps the earliest of
// the two deadlines).
type readDeadlineBody struct {
	ctx     context.Context
	body    io.ReadCloser
	timeout time.Duration
}

func (b *readDeadlineBody) Read(p []byte) (int, error) {
	ctx, cancel := context.WithTimeout(b.ctx, b.timeout)
	defer cancel()

	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := b.body.Read(p)
		done <- result{n, err}
	}()

	select {
	case r := <-done:
		return r.n, r.err
	case <-ctx.Done():
		return 0, core.New(core.KindTimeout, "", ctx.Err())
	}
}

func (b *readDeadlineBody) Close() error { return b.body.Close() }
