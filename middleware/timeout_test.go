package middleware_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	http "github.com/saucesteals/fhttp"

	"github.com/outrider-labs/impersonate/internal/core"
	"github.com/outrider-labs/impersonate/middleware"
)

// blockingBody never returns from Read until stop is closed, used to prove
// the read-deadline wrapper fires without waiting on a real slow peer.
type blockingBody struct {
	stop chan struct{}
}

func (b *blockingBody) Read(p []byte) (int, error) {
	<-b.stop
	return 0, io.EOF
}

func (b *blockingBody) Close() error { return nil }

func TestTimeout_ZeroDisablesDeadline(t *testing.T) {
	var hadDeadline bool
	base := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		_, hadDeadline = req.Context().Deadline()
		return okResponse(req), nil
	})

	rt := middleware.Timeout(0)(base)
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	if _, err := rt.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	if hadDeadline {
		t.Fatal("expected no deadline when defaultTimeout is 0")
	}
}

func TestTimeout_AppliesDefault(t *testing.T) {
	var hadDeadline bool
	base := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		_, hadDeadline = req.Context().Deadline()
		return okResponse(req), nil
	})

	rt := middleware.Timeout(time.Minute)(base)
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	if _, err := rt.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	if !hadDeadline {
		t.Fatal("expected a deadline when defaultTimeout is set")
	}
}

func TestTimeout_PerRequestOverrideWins(t *testing.T) {
	var deadline time.Time
	base := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		deadline, _ = req.Context().Deadline()
		return okResponse(req), nil
	})

	rt := middleware.Timeout(time.Hour)(base)
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	ctx := core.WithRequestConfig(req.Context(), core.TotalTimeout(time.Second))
	req = req.WithContext(ctx)

	start := time.Now()
	if _, err := rt.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	if deadline.Sub(start) > 10*time.Second {
		t.Fatalf("deadline was %v out from start, want close to the 1s override, not the 1h default", deadline.Sub(start))
	}
}

func TestTimeout_CancelsOnBodyClose(t *testing.T) {
	base := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return okResponse(req), nil
	})

	rt := middleware.Timeout(time.Minute)(base)
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}

	ctx := resp.Request.Context()
	if err := resp.Body.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("closing the response body did not cancel the timeout context")
	}
}

func TestTimeout_ReadTimeoutFiresBetweenReads(t *testing.T) {
	stop := make(chan struct{})
	defer close(stop)

	base := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		resp := okResponse(req)
		resp.Body = &blockingBody{stop: stop}
		return resp, nil
	})

	rt := middleware.Timeout(time.Minute)(base)
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	ctx := core.WithRequestConfig(req.Context(), core.ReadTimeout(50*time.Millisecond))
	req = req.WithContext(ctx)

	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}

	buf := make([]byte, 16)
	_, err = resp.Body.Read(buf)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Read err = %v, want context.DeadlineExceeded", err)
	}
	if !core.AsKind(err, core.KindTimeout) {
		t.Fatalf("Read err = %v, want it tagged core.KindTimeout", err)
	}
}

func TestTimeout_ReadTimeoutTighterThanTotalWins(t *testing.T) {
	stop := make(chan struct{})
	defer close(stop)

	base := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		resp := okResponse(req)
		resp.Body = &blockingBody{stop: stop}
		return resp, nil
	})

	rt := middleware.Timeout(time.Hour)(base)
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	ctx := core.WithRequestConfig(req.Context(), core.ReadTimeout(50*time.Millisecond))
	req = req.WithContext(ctx)

	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}

	start := time.Now()
	buf := make([]byte, 16)
	if _, err := resp.Body.Read(buf); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Read err = %v, want context.DeadlineExceeded", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("Read took %v, want the 50ms ReadTimeout to fire long before the 1h TotalTimeout", time.Since(start))
	}
}
