package vhttp

import (
	"net/http"
	"strings"
)

// State tags where a connection is in its response lifecycle.
type State int

const (
	// StateUnset is the initial state: no response staged or flushed.
	StateUnset State = iota
	// StateSet means a status/body pair is staged but not flushed.
	StateSet
	// StateSent is terminal: the response went to the adapter.
	StateSent
	// StateChunked means a stream is open; only body appends are allowed.
	StateChunked
	// StateFile is passed through by [Conn.SendFile] on its way to sent.
	StateFile
	// StateUpgraded is terminal: the transport was handed to another protocol.
	StateUpgraded
)

func (s State) String() string {
	switch s {
	case StateUnset:
		return "unset"
	case StateSet:
		return "set"
	case StateSent:
		return "sent"
	case StateChunked:
		return "chunked"
	case StateFile:
		return "file"
	case StateUpgraded:
		return "upgraded"
	default:
		return "invalid"
	}
}

// writable reports whether response headers and status may still change.
func (s State) writable() bool {
	return s == StateUnset || s == StateSet
}

// Request holds the transport facts an adapter collected for one inbound
// request. It is consumed once by [New] and not referenced afterwards.
type Request struct {
	Method      string
	Scheme      string
	Host        string
	Port        int
	Path        string // raw request path, segments still percent-encoded
	QueryString string
	Header      Header
}

// Conn models one HTTP request/response exchange as a value. Every mutating
// operation returns a new Conn; callers must continue with the returned value
// (move semantics). A Conn is owned by exactly one worker for its lifetime,
// so no operation takes a lock.
type Conn struct {
	adapter Adapter

	// request facts, fixed after construction
	method      string
	scheme      string
	host        string
	port        int
	queryString string
	reqHeader   Header

	// consumed vs. remaining path segments; scriptName ++ pathInfo always
	// reconstructs the original path.
	scriptName  []string
	pathInfo    []string
	pathDecoded bool

	pathParams map[string]any

	// response side
	state      State
	status     int
	respBody   []byte
	respHeader Header
	cookies    []*http.Cookie

	assigns map[string]any
	private map[string]any
	halted  bool

	beforeSend []func(Conn) Conn

	reqCookies       []*http.Cookie
	reqCookiesLoaded bool

	strictHeaders bool

	sent chan struct{}
}

// New builds a connection from the request facts collected by the adapter.
// The method is normalized to uppercase and the path is split on "/" with
// empty segments discarded; segments are percent-decoded lazily during
// dispatch.
func New(adapter Adapter, req Request) Conn {
	return Conn{
		adapter:     adapter,
		method:      strings.ToUpper(req.Method),
		scheme:      req.Scheme,
		host:        req.Host,
		port:        req.Port,
		queryString: req.QueryString,
		reqHeader:   req.Header,
		pathInfo:    splitSegments(req.Path),
		sent:        make(chan struct{}),
	}
}

func splitSegments(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}

	return segs
}

// Method returns the normalized (uppercase) request method.
func (c Conn) Method() string { return c.method }

// Scheme returns the request scheme, e.g. "http" or "https".
func (c Conn) Scheme() string { return c.scheme }

// Host returns the request host without the port.
func (c Conn) Host() string { return c.host }

// Port returns the request port.
func (c Conn) Port() int { return c.port }

// QueryString returns the raw, unparsed query string.
func (c Conn) QueryString() string { return c.queryString }

// ReqHeader returns the request headers.
func (c Conn) ReqHeader() Header { return c.reqHeader }

// PathInfo returns the path segments not yet consumed by forwarding.
func (c Conn) PathInfo() []string { return c.pathInfo }

// ScriptName returns the path segments consumed by forwarding, in the order
// they were consumed.
func (c Conn) ScriptName() []string { return c.scriptName }

// FullPath reconstructs the original request path from the consumed and
// remaining segments.
func (c Conn) FullPath() string {
	segs := make([]string, 0, len(c.scriptName)+len(c.pathInfo))
	segs = append(segs, c.scriptName...)
	segs = append(segs, c.pathInfo...)

	return "/" + strings.Join(segs, "/")
}

// PathParam returns the capture bound under name by dispatch. Plain captures
// are strings, glob captures are []string.
func (c Conn) PathParam(name string) (any, bool) {
	v, ok := c.pathParams[name]
	return v, ok
}

// PathParams returns all captures bound by dispatch.
func (c Conn) PathParams() map[string]any { return c.pathParams }

// State returns the response lifecycle state.
func (c Conn) State() State { return c.state }

// Status returns the staged response status, 0 when not yet set.
func (c Conn) Status() int { return c.status }

// RespBody returns the staged (buffered) response body.
func (c Conn) RespBody() []byte { return c.respBody }

// RespHeader returns the staged response headers.
func (c Conn) RespHeader() Header { return c.respHeader }

// Assign returns an application-level value stored on the connection.
func (c Conn) Assign(key string) (any, bool) {
	v, ok := c.assigns[key]
	return v, ok
}

// WithAssign stores an application-level value on the connection. Keys are
// not validated; this bag belongs to the application.
func (c Conn) WithAssign(key string, value any) Conn {
	c.assigns = putShallow(c.assigns, key, value)
	return c
}

// Private returns a library-internal value stored on the connection.
func (c Conn) Private(key string) (any, bool) {
	v, ok := c.private[key]
	return v, ok
}

// WithPrivate stores a library-internal value on the connection. By
// convention a library namespaces its own keys (e.g. "mylib.session") and
// never overwrites another library's.
func (c Conn) WithPrivate(key string, value any) Conn {
	c.private = putShallow(c.private, key, value)
	return c
}

// Halt marks the connection so a driving loop stops invoking further
// handlers. Halting does not touch the response lifecycle.
func (c Conn) Halt() Conn {
	c.halted = true
	return c
}

// Halted reports whether a handler requested the pipeline to stop.
func (c Conn) Halted() bool { return c.halted }

// StrictHeaders makes header-name validation reject uppercase characters on
// this connection's response mutators.
func (c Conn) StrictHeaders() Conn {
	c.strictHeaders = true
	return c
}

// Sent returns a channel that is closed once, after the adapter confirmed a
// terminal flush. It is a payload-less signal for the task that created the
// connection (useful in test harnesses), not a synchronization primitive.
func (c Conn) Sent() <-chan struct{} { return c.sent }

// Adapter returns the opaque adapter handle the connection was created with.
func (c Conn) Adapter() Adapter { return c.adapter }

// putShallow lazily initializes and writes a cross-cutting bag. The maps are
// shared across value copies; the single-owner model makes that safe.
func putShallow(m map[string]any, key string, value any) map[string]any {
	if m == nil {
		m = make(map[string]any)
	}
	m[key] = value

	return m
}

// mergeParams folds route captures into the connection's path-parameter map
// by simple key overwrite.
func (c Conn) mergeParams(binds map[string]any) Conn {
	for k, v := range binds {
		c.pathParams = putShallow(c.pathParams, k, v)
	}

	return c
}

// forwardTo moves n consumed segments from pathInfo to scriptName so a
// nested dispatch table perceives a fresh root.
func (c Conn) forwardTo(n int) Conn {
	consumed := c.pathInfo[:n]
	c.scriptName = append(c.scriptName[:len(c.scriptName):len(c.scriptName)], consumed...)
	c.pathInfo = c.pathInfo[n:]

	return c
}
