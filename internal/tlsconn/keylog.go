package tlsconn

import (
	"io"
	"os"
	"sync"
)

// writerMu and writers deduplicate keylog file handles by path so two clients
// pointed at the same keylog file (a common pattern: "every client in this
// process appends to one capture file") share a single *os.File instead of
// racing independent O_APPEND writers, mirroring how the teacher's logger
// setup opens stdout exactly once per process.
var (
	writerMu sync.Mutex
	writers  = make(map[string]io.Writer)
)

// resolve returns the io.Writer a KeyLogPolicy should write NSS-format
// "CLIENT_RANDOM ..." lines to, or nil if the policy doesn't request
// logging. Environment takes SSLKEYLOGFILE precedence when both Path and
// Environment are set, matching most TLS libraries' documented behavior.
func (p *KeyLogPolicy) resolve() (io.Writer, error) {
	if p == nil {
		return nil, nil
	}
	path := p.Path
	if p.Environment {
		if envPath := os.Getenv("SSLKEYLOGFILE"); envPath != "" {
			path = envPath
		}
	}
	if path == "" {
		return nil, nil
	}

	writerMu.Lock()
	defer writerMu.Unlock()
	if w, ok := writers[path]; ok {
		return w, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	writers[path] = f
	return f, nil
}
