package tlsconn

import (
	"crypto/x509"
	"sync"
)

// bundledMu/bundledRoots implement the process-wide lazily-initialised
// static root bundle described in spec.md §9 ("process-wide, initialised on
// first use"): every CertStore{Kind: CertStoreBundled} value, across every
// Client in the process, shares the same *x509.CertPool instance rather
// than parsing the bundle once per client.
var (
	bundledMu    sync.Mutex
	bundledRoots *x509.CertPool
)

// bundledPool returns the shared static root pool, building it from the
// platform's system roots on first call. A dedicated static bundle (e.g.
// Mozilla's) would be dropped in here in place of SystemCertPool without
// changing any caller.
func bundledPool() (*x509.CertPool, error) {
	bundledMu.Lock()
	defer bundledMu.Unlock()
	if bundledRoots != nil {
		return bundledRoots, nil
	}
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}
	bundledRoots = pool
	return bundledRoots, nil
}
