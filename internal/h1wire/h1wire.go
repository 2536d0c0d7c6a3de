// Package h1wire does a single HTTP/1.1 request/response round trip over an
// already-established net.Conn, the wire-level primitive the connection
// pool's HTTP/1.1-pinned path needs once it has leased a *pool.Conn:
// fhttp's own http.Transport owns its connections' lifecycle internally
// and has no public "write one request over this conn I already hold"
// entry point, so this package does the equivalent of the historical
// net/http/httputil.ClientConn directly against fhttp's Request/Response
// types.
package h1wire

import (
	"bufio"

	http "github.com/saucesteals/fhttp"
)

// RoundTrip writes req to conn and reads back one response. The caller
// owns conn's lifecycle (pool.Pool.Release/Evict), not the response: the
// response body reads directly off conn, so conn must not be reused until
// the body is fully drained and closed.
func RoundTrip(conn interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}, req *http.Request) (*http.Response, error) {
	bw := bufio.NewWriter(conn)
	if err := req.Write(bw); err != nil {
		return nil, err
	}
	if err := bw.Flush(); err != nil {
		return nil, err
	}

	br := bufio.NewReader(conn)
	return http.ReadResponse(br, req)
}
