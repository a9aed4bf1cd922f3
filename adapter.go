package vhttp

import (
	"crypto/x509"
	"net"
	"time"
)

// BodyOpts tunes one blocking body read. Zero values fall back to the
// adapter's defaults.
type BodyOpts struct {
	// Length is the maximum total number of bytes the caller wants back
	// from this read.
	Length int
	// ReadLength is the transport chunk size used while filling up Length.
	ReadLength int
	// Timeout bounds the read; expiry surfaces as a KindBodyTimeout error
	// and is never retried by the core.
	Timeout time.Duration
}

// Adapter is the capability the core calls to perform real I/O. Concrete
// transports (net/http, test recorders, ...) implement it; the core never
// touches a socket itself. All methods are synchronous: a state transition
// on the connection completes only once the adapter confirmed acceptance,
// and a flush failure is fatal to the request.
type Adapter interface {
	// SendResp flushes a complete buffered response.
	SendResp(c *Conn, status int, body []byte) error

	// SendChunked opens a streamed response; body bytes follow via Chunk.
	SendChunked(c *Conn, status int) error

	// Chunk appends data to an open stream. The core guarantees data is
	// non-empty.
	Chunk(c *Conn, data []byte) error

	// SendFile delivers length bytes of the file at path starting at
	// offset. A length of -1 means until EOF.
	SendFile(c *Conn, status int, path string, offset, length int64) error

	// Inform sends an informational (1xx-class) interim response.
	Inform(c *Conn, status int, header Header) error

	// Upgrade hands the transport to another protocol. Adapters that do
	// not support the protocol return a KindUpgradeNotSupported error.
	Upgrade(c *Conn, protocol string, opts map[string]any) error

	// ReadBody performs one blocking, chunked body pull. more reports that
	// the caller must loop for the rest of the body.
	ReadBody(c *Conn, opts BodyOpts) (data []byte, more bool, err error)

	// PeerAddr returns the remote address of the transport, if known.
	PeerAddr(c *Conn) net.Addr

	// PeerCert returns the TLS peer certificate, if any.
	PeerCert(c *Conn) *x509.Certificate
}

// ReadBody pulls up to opts.Length bytes of the request body from the
// adapter. A true more result means another call is needed for the rest;
// the caller loops, the core never does.
func (c Conn) ReadBody(opts BodyOpts) ([]byte, bool, error) {
	return c.adapter.ReadBody(&c, opts)
}

// PeerAddr returns the remote address reported by the adapter.
func (c Conn) PeerAddr() net.Addr { return c.adapter.PeerAddr(&c) }

// PeerCert returns the TLS peer certificate reported by the adapter, or nil.
func (c Conn) PeerCert() *x509.Certificate { return c.adapter.PeerCert(&c) }
