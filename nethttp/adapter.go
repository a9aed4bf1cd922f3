// Package nethttp adapts the core connection value to the standard library
// HTTP server: it is the reference [vhttp.Adapter] implementation. One
// Adapter is created per inbound request and owns the response writer for
// the request's lifetime.
package nethttp

import (
	"bufio"
	"crypto/x509"
	"io"
	"net"
	"net/http"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/vhttp/vhttp"
)

// Adapter performs the real I/O for one request on behalf of the core.
type Adapter struct {
	w  http.ResponseWriter
	r  *http.Request
	rc *http.ResponseController

	wroteHeader bool

	// set after a successful Upgrade
	hijacked net.Conn
	hijackrw *bufio.ReadWriter
}

// NewAdapter wraps the response writer and request of one inbound request.
func NewAdapter(w http.ResponseWriter, r *http.Request) *Adapter {
	return &Adapter{w: w, r: r, rc: http.NewResponseController(w)}
}

// NewConn builds the connection value for the adapter's request. Path
// segments stay percent-encoded; the dispatch table decodes them.
func NewConn(a *Adapter) vhttp.Conn {
	r := a.r

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	host, port := splitHostPort(r.Host, scheme)

	hdr := vhttp.Header{}
	for _, name := range sortedKeys(r.Header) {
		for _, v := range r.Header[name] {
			hdr = hdr.Add(name, v)
		}
	}

	return vhttp.New(a, vhttp.Request{
		Method:      r.Method,
		Scheme:      scheme,
		Host:        host,
		Port:        port,
		Path:        r.URL.EscapedPath(),
		QueryString: r.URL.RawQuery,
		Header:      hdr,
	})
}

func (a *Adapter) SendResp(c *vhttp.Conn, status int, body []byte) error {
	a.writeHeader(c.RespHeader(), status)

	if _, err := a.w.Write(body); err != nil {
		return errors.Wrap(err, "write response body")
	}

	return nil
}

func (a *Adapter) SendChunked(c *vhttp.Conn, status int) error {
	a.writeHeader(c.RespHeader(), status)
	return errors.Wrap(a.rc.Flush(), "flush stream open")
}

func (a *Adapter) Chunk(_ *vhttp.Conn, data []byte) error {
	if _, err := a.w.Write(data); err != nil {
		return errors.Wrap(err, "write chunk")
	}

	return errors.Wrap(a.rc.Flush(), "flush chunk")
}

func (a *Adapter) SendFile(c *vhttp.Conn, status int, path string, offset, length int64) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %q", path)
	}
	defer f.Close()

	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			return errors.Wrapf(err, "seek %q to %d", path, offset)
		}
	}

	a.writeHeader(c.RespHeader(), status)

	if length < 0 {
		_, err = io.Copy(a.w, f)
	} else {
		_, err = io.CopyN(a.w, f, length)
	}

	return errors.Wrapf(err, "copy %q", path)
}

func (a *Adapter) Inform(_ *vhttp.Conn, status int, header vhttp.Header) error {
	// net/http sends the current header map with any 1xx status and keeps
	// the handler free to write the real response afterwards.
	header.Each(func(name, value string) {
		a.w.Header().Add(name, value)
	})

	a.w.WriteHeader(status)

	header.Each(func(name, _ string) {
		a.w.Header().Del(name)
	})

	return nil
}

func (a *Adapter) Upgrade(_ *vhttp.Conn, protocol string, _ map[string]any) error {
	hj, ok := a.w.(http.Hijacker)
	if !ok {
		return vhttp.NewError(vhttp.KindUpgradeNotSupported,
			errors.Newf("transport cannot hijack for protocol %q", protocol))
	}

	conn, rw, err := hj.Hijack()
	if err != nil {
		return errors.Wrapf(err, "hijack for protocol %q", protocol)
	}

	a.hijacked, a.hijackrw = conn, rw

	return nil
}

// Hijacked returns the raw transport after a successful upgrade, for the
// protocol handler that takes over.
func (a *Adapter) Hijacked() (net.Conn, *bufio.ReadWriter) {
	return a.hijacked, a.hijackrw
}

func (a *Adapter) ReadBody(_ *vhttp.Conn, opts vhttp.BodyOpts) ([]byte, bool, error) {
	length := opts.Length
	if length <= 0 {
		length = 8_000_000
	}
	readLength := opts.ReadLength
	if readLength <= 0 || readLength > length {
		readLength = length
	}

	if opts.Timeout > 0 {
		if err := a.rc.SetReadDeadline(time.Now().Add(opts.Timeout)); err != nil {
			return nil, false, errors.Wrap(err, "set read deadline")
		}
	}

	buf := make([]byte, 0, length)
	chunk := make([]byte, readLength)
	for len(buf) < length {
		n, err := a.r.Body.Read(chunk)
		buf = append(buf, chunk[:n]...)

		switch {
		case errors.Is(err, io.EOF):
			return buf, false, nil
		case errors.Is(err, os.ErrDeadlineExceeded):
			return buf, false, vhttp.NewError(vhttp.KindBodyTimeout, err)
		case err != nil:
			return buf, false, errors.Wrap(err, "read request body")
		}
	}

	return buf, true, nil
}

func (a *Adapter) PeerAddr(*vhttp.Conn) net.Addr {
	addr, err := net.ResolveTCPAddr("tcp", a.r.RemoteAddr)
	if err != nil {
		return nil
	}

	return addr
}

func (a *Adapter) PeerCert(*vhttp.Conn) *x509.Certificate {
	if a.r.TLS == nil || len(a.r.TLS.PeerCertificates) == 0 {
		return nil
	}

	return a.r.TLS.PeerCertificates[0]
}

// writeHeader copies the staged headers into the response writer and writes
// the status line, once.
func (a *Adapter) writeHeader(hdr vhttp.Header, status int) {
	if a.wroteHeader {
		return
	}

	hdr.Each(func(name, value string) {
		a.w.Header().Add(name, value)
	})

	a.w.WriteHeader(status)
	a.wroteHeader = true
}

func splitHostPort(hostport, scheme string) (string, int) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		if scheme == "https" {
			return hostport, 443
		}

		return hostport, 80
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = 0
	}

	return host, port
}

func sortedKeys(h http.Header) []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

var _ vhttp.Adapter = &Adapter{}
