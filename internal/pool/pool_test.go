package pool_test

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/outrider-labs/impersonate/internal/pool"
)

func fakeConn() *pool.Conn {
	client, server := net.Pipe()
	go func() {
		buf := make([]byte, 1)
		for {
			if _, err := server.Read(buf); err != nil {
				return
			}
		}
	}()
	return &pool.Conn{Conn: client, Negotiated: "h2"}
}

func TestPool_LeaseDialsOnMiss(t *testing.T) {
	p := pool.New(pool.Options{})
	key := pool.Key{Origin: "https://example.com"}

	var dials int32
	dialer := func(ctx context.Context, k pool.Key) (*pool.Conn, error) {
		atomic.AddInt32(&dials, 1)
		return fakeConn(), nil
	}

	conn, err := p.Lease(context.Background(), key, dialer)
	if err != nil {
		t.Fatalf("Lease: %v", err)
	}
	if conn == nil {
		t.Fatal("Lease returned a nil conn with no error")
	}
	if dials != 1 {
		t.Fatalf("dials = %d, want 1", dials)
	}
}

func TestPool_ReleaseThenLeaseReusesConn(t *testing.T) {
	p := pool.New(pool.Options{})
	key := pool.Key{Origin: "https://example.com"}
	want := fakeConn()

	var dials int32
	dialer := func(ctx context.Context, k pool.Key) (*pool.Conn, error) {
		atomic.AddInt32(&dials, 1)
		return want, nil
	}

	got, err := p.Lease(context.Background(), key, dialer)
	if err != nil {
		t.Fatalf("Lease: %v", err)
	}
	p.Release(key, got)

	got2, err := p.Lease(context.Background(), key, dialer)
	if err != nil {
		t.Fatalf("Lease: %v", err)
	}
	if got2 != want {
		t.Fatal("second Lease did not return the released connection")
	}
	if dials != 1 {
		t.Fatalf("dials = %d, want 1 (second Lease should reuse, not redial)", dials)
	}
}

func TestPool_EvictPreventsReuse(t *testing.T) {
	p := pool.New(pool.Options{})
	key := pool.Key{Origin: "https://example.com"}
	bad := fakeConn()

	dialCount := 0
	dialer := func(ctx context.Context, k pool.Key) (*pool.Conn, error) {
		dialCount++
		if dialCount == 1 {
			return bad, nil
		}
		return fakeConn(), nil
	}

	conn, err := p.Lease(context.Background(), key, dialer)
	if err != nil {
		t.Fatalf("Lease: %v", err)
	}
	p.Release(key, conn)
	p.Evict(key, conn)

	got, err := p.Lease(context.Background(), key, dialer)
	if err != nil {
		t.Fatalf("Lease: %v", err)
	}
	if got == bad {
		t.Fatal("Lease returned an evicted connection")
	}
	if dialCount != 2 {
		t.Fatalf("dialCount = %d, want 2 (eviction should force a redial)", dialCount)
	}
}

func TestPool_LeaseSingleFlightsConcurrentCallers(t *testing.T) {
	p := pool.New(pool.Options{})
	key := pool.Key{Origin: "https://example.com"}

	release := make(chan struct{})
	var dials int32
	dialer := func(ctx context.Context, k pool.Key) (*pool.Conn, error) {
		atomic.AddInt32(&dials, 1)
		<-release
		return fakeConn(), nil
	}

	const n = 8
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := p.Lease(context.Background(), key, dialer); err != nil {
				t.Errorf("Lease: %v", err)
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if dials != 1 {
		t.Fatalf("dials = %d, want 1 across %d concurrent Lease calls for the same key", dials, n)
	}
}

func TestPool_LeaseAfterCloseFails(t *testing.T) {
	p := pool.New(pool.Options{})
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	dialer := func(ctx context.Context, k pool.Key) (*pool.Conn, error) {
		return fakeConn(), nil
	}
	if _, err := p.Lease(context.Background(), pool.Key{Origin: "https://example.com"}, dialer); err != pool.ErrClosed {
		t.Fatalf("Lease after Close: got %v, want ErrClosed", err)
	}
}

func TestPool_DistinctKeysNeverShareAConnection(t *testing.T) {
	p := pool.New(pool.Options{})
	keyA := pool.Key{Origin: "https://example.com", TLSFingerprint: "chrome"}
	keyB := pool.Key{Origin: "https://example.com", TLSFingerprint: "firefox"}

	a := fakeConn()
	dialerA := func(ctx context.Context, k pool.Key) (*pool.Conn, error) { return a, nil }
	gotA, err := p.Lease(context.Background(), keyA, dialerA)
	if err != nil {
		t.Fatalf("Lease: %v", err)
	}
	p.Release(keyA, gotA)

	dialed := false
	dialerB := func(ctx context.Context, k pool.Key) (*pool.Conn, error) {
		dialed = true
		return fakeConn(), nil
	}
	gotB, err := p.Lease(context.Background(), keyB, dialerB)
	if err != nil {
		t.Fatalf("Lease: %v", err)
	}
	if gotB == a {
		t.Fatal("two distinct TLS fingerprints shared a pooled connection")
	}
	if !dialed {
		t.Fatal("expected a fresh dial for the second, distinct key")
	}
}
