// Package vhttptest provides a recording adapter and connection factories
// for testing handlers and routers without a real transport.
package vhttptest

import (
	"crypto/x509"
	"net"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/vhttp/vhttp"
)

// Flush records one terminal adapter interaction.
type Flush struct {
	Status int
	Body   []byte
	Header vhttp.Header

	// file delivery fields, set by SendFile only
	FilePath   string
	FileOffset int64
	FileLength int64
}

// Inform records one informational interim response.
type Inform struct {
	Status int
	Header vhttp.Header
}

// Adapter records every interaction the core delegates to it. The zero value
// is ready to use; configure Body and Protocols for body reads and upgrades.
type Adapter struct {
	// Body is served by ReadBody in ReadChunk-sized pulls.
	Body []byte
	// ReadChunk bounds a single body pull; defaults to 1024.
	ReadChunk int
	// Protocols the adapter claims to support for upgrades.
	Protocols []string
	// Peer is returned by PeerAddr.
	Peer net.Addr
	// Cert is returned by PeerCert.
	Cert *x509.Certificate

	Flushed  []Flush
	Chunks   [][]byte
	Informs  []Inform
	Upgraded []string

	bodyOff int
}

// NewConn builds a connection backed by a fresh recording adapter.
func NewConn(method, path string, opts ...ConnOption) (vhttp.Conn, *Adapter) {
	ad := &Adapter{}

	req := vhttp.Request{
		Method: method,
		Scheme: "http",
		Host:   "example.com",
		Port:   80,
		Path:   path,
	}
	for _, opt := range opts {
		opt(&req)
	}

	return vhttp.New(ad, req), ad
}

// ConnOption tweaks the request facts a test connection is built from.
type ConnOption func(*vhttp.Request)

// WithHost sets the request host.
func WithHost(host string) ConnOption {
	return func(r *vhttp.Request) { r.Host = host }
}

// WithQueryString sets the raw query string.
func WithQueryString(qs string) ConnOption {
	return func(r *vhttp.Request) { r.QueryString = qs }
}

// WithHeader adds a request header.
func WithHeader(name, value string) ConnOption {
	return func(r *vhttp.Request) { r.Header = r.Header.Add(name, value) }
}

func (a *Adapter) SendResp(c *vhttp.Conn, status int, body []byte) error {
	a.Flushed = append(a.Flushed, Flush{Status: status, Body: body, Header: c.RespHeader()})
	return nil
}

func (a *Adapter) SendChunked(c *vhttp.Conn, status int) error {
	a.Flushed = append(a.Flushed, Flush{Status: status, Header: c.RespHeader()})
	return nil
}

func (a *Adapter) Chunk(_ *vhttp.Conn, data []byte) error {
	a.Chunks = append(a.Chunks, append([]byte(nil), data...))
	return nil
}

func (a *Adapter) SendFile(c *vhttp.Conn, status int, path string, offset, length int64) error {
	a.Flushed = append(a.Flushed, Flush{
		Status: status, Header: c.RespHeader(),
		FilePath: path, FileOffset: offset, FileLength: length,
	})

	return nil
}

func (a *Adapter) Inform(_ *vhttp.Conn, status int, header vhttp.Header) error {
	a.Informs = append(a.Informs, Inform{Status: status, Header: header})
	return nil
}

func (a *Adapter) Upgrade(_ *vhttp.Conn, protocol string, _ map[string]any) error {
	for _, p := range a.Protocols {
		if p == protocol {
			a.Upgraded = append(a.Upgraded, protocol)
			return nil
		}
	}

	return vhttp.NewError(vhttp.KindUpgradeNotSupported,
		errors.Newf("protocol %q not supported by test adapter", protocol))
}

func (a *Adapter) ReadBody(_ *vhttp.Conn, opts vhttp.BodyOpts) ([]byte, bool, error) {
	chunk := a.ReadChunk
	if chunk <= 0 {
		chunk = 1024
	}
	if opts.Length > 0 && opts.Length < chunk {
		chunk = opts.Length
	}

	if a.bodyOff >= len(a.Body) {
		return nil, false, nil
	}

	end := a.bodyOff + chunk
	if end > len(a.Body) {
		end = len(a.Body)
	}

	data := a.Body[a.bodyOff:end]
	a.bodyOff = end

	return data, a.bodyOff < len(a.Body), nil
}

func (a *Adapter) PeerAddr(*vhttp.Conn) net.Addr {
	if a.Peer != nil {
		return a.Peer
	}

	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 40000}
}

func (a *Adapter) PeerCert(*vhttp.Conn) *x509.Certificate { return a.Cert }

// AwaitSent waits for the connection's one-shot sent notification, failing
// after the timeout. Useful when a handler sends from another goroutine.
func AwaitSent(c vhttp.Conn, timeout time.Duration) bool {
	select {
	case <-c.Sent():
		return true
	case <-time.After(timeout):
		return false
	}
}

var _ vhttp.Adapter = &Adapter{}
