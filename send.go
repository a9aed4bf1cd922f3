package vhttp

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// PutRespHeader sets a validated response header, replacing any existing
// fields with the same name so the response carries at most one entry per
// name. Fails with KindAlreadySent once the response left the unset/set
// states and KindInvalidHeader on canonicalization violations.
func (c Conn) PutRespHeader(name, value string) (Conn, error) {
	if !c.state.writable() {
		return c, errAlreadySent("put_resp_header", c.state)
	}
	if err := ValidateHeaderName(name, c.strictHeaders); err != nil {
		return c, err
	}
	if err := ValidateHeaderValue(name, value); err != nil {
		return c, err
	}

	c.respHeader = c.respHeader.Set(name, value)

	return c, nil
}

// DeleteRespHeader removes a response header.
func (c Conn) DeleteRespHeader(name string) (Conn, error) {
	if !c.state.writable() {
		return c, errAlreadySent("delete_resp_header", c.state)
	}
	if err := ValidateHeaderName(name, c.strictHeaders); err != nil {
		return c, err
	}

	c.respHeader = c.respHeader.Del(name)

	return c, nil
}

// UpdateRespHeader replaces the header's current value through fn, or sets
// initial when the header is absent. Like PutRespHeader it never duplicates.
func (c Conn) UpdateRespHeader(name, initial string, fn func(current string) string) (Conn, error) {
	if !c.state.writable() {
		return c, errAlreadySent("update_resp_header", c.state)
	}

	if current, ok := c.respHeader.First(name); ok {
		return c.PutRespHeader(name, fn(current))
	}

	return c.PutRespHeader(name, initial)
}

// Resp stages a status and body without flushing anything. It is idempotent:
// staging twice before a send observes only the last arguments.
func (c Conn) Resp(status int, body []byte) (Conn, error) {
	if !c.state.writable() {
		return c, errAlreadySent("resp", c.state)
	}
	if body == nil {
		return c, errors.New("response body must not be nil, use an empty slice")
	}

	c.status = status
	c.respBody = body
	c.state = StateSet

	return c, nil
}

// Send flushes the staged response: the before-send hooks run (most recently
// registered first), staged cookies merge into the headers, the adapter
// flushes, and the connection becomes sent. For HEAD requests the body goes
// out empty regardless of what was staged.
func (c Conn) Send() (Conn, error) {
	if !c.state.writable() {
		return c, errAlreadySent("send_resp", c.state)
	}
	if c.state == StateUnset {
		return c, errors.New("send_resp: no response staged, call Resp first")
	}

	c = c.runBeforeSend().mergeCookies()

	body := c.respBody
	if c.method == http.MethodHead {
		body = []byte{}
	}

	if err := c.adapter.SendResp(&c, c.status, body); err != nil {
		return c, errors.Wrap(err, "adapter flush")
	}

	c.state = StateSent
	c.fireSent()

	return c, nil
}

// SendResp stages status/body and flushes in one step.
func (c Conn) SendResp(status int, body []byte) (Conn, error) {
	c, err := c.Resp(status, body)
	if err != nil {
		return c, err
	}

	return c.Send()
}

// SendChunked runs the before-send hooks once, merges cookies, and opens a
// streamed response on the adapter. Body data follows via [Conn.Chunk].
func (c Conn) SendChunked(status int) (Conn, error) {
	if !c.state.writable() {
		return c, errAlreadySent("send_chunked", c.state)
	}

	c = c.runBeforeSend().mergeCookies()
	c.status = status

	if err := c.adapter.SendChunked(&c, status); err != nil {
		return c, errors.Wrap(err, "adapter open stream")
	}

	c.state = StateChunked

	return c, nil
}

// Chunk appends data to the open stream. An empty chunk is a no-op that
// performs no transport write.
func (c Conn) Chunk(data []byte) (Conn, error) {
	if c.state != StateChunked {
		return c, errAlreadySent("chunk", c.state)
	}
	if len(data) == 0 {
		return c, nil
	}

	if err := c.adapter.Chunk(&c, data); err != nil {
		return c, errors.Wrap(err, "adapter chunk")
	}

	return c, nil
}

// CloseChunked ends the stream, making the connection sent. Further chunk
// appends fail with KindAlreadySent.
func (c Conn) CloseChunked() (Conn, error) {
	if c.state != StateChunked {
		return c, errAlreadySent("close_chunked", c.state)
	}

	c.state = StateSent
	c.fireSent()

	return c, nil
}

// SendFile delegates byte-range file delivery to the adapter. A length of -1
// means until EOF. The connection transitions through the file state to sent.
func (c Conn) SendFile(status int, path string, offset, length int64) (Conn, error) {
	if !c.state.writable() {
		return c, errAlreadySent("send_file", c.state)
	}

	c = c.runBeforeSend().mergeCookies()
	c.status = status
	c.state = StateFile

	if err := c.adapter.SendFile(&c, status, path, offset, length); err != nil {
		return c, errors.Wrap(err, "adapter send file")
	}

	c.state = StateSent
	c.fireSent()

	return c, nil
}

// Inform sends an informational (1xx-class) interim response without
// changing the connection's state. Allowed only before a terminal send.
func (c Conn) Inform(status int, header Header) (Conn, error) {
	if !c.state.writable() {
		return c, errAlreadySent("inform", c.state)
	}
	if status < 100 || status > 199 {
		return c, errors.Newf("inform: status %d is not informational", status)
	}

	if err := c.adapter.Inform(&c, status, header); err != nil {
		return c, errors.Wrap(err, "adapter inform")
	}

	return c, nil
}

// UpgradeAdapter hands the transport to another protocol, e.g. "websocket".
// Fails with KindUpgradeNotSupported when the adapter declines. The upgraded
// state is terminal.
func (c Conn) UpgradeAdapter(protocol string, opts map[string]any) (Conn, error) {
	if !c.state.writable() {
		return c, errAlreadySent("upgrade_adapter", c.state)
	}

	if err := c.adapter.Upgrade(&c, protocol, opts); err != nil {
		if KindOf(err) == KindUpgradeNotSupported {
			return c, err
		}

		return c, errors.Wrap(err, "adapter upgrade")
	}

	c.state = StateUpgraded

	return c, nil
}

// RegisterBeforeSend pushes fn onto the before-send stack. At send time the
// hooks run exactly once, synchronously, in LIFO order relative to
// registration: the hook registered last runs first, so the earliest
// registered hook observes (and can override) everything after it.
func (c Conn) RegisterBeforeSend(fn func(Conn) Conn) (Conn, error) {
	if !c.state.writable() {
		return c, errAlreadySent("register_before_send", c.state)
	}

	c.beforeSend = append(c.beforeSend[:len(c.beforeSend):len(c.beforeSend)], fn)

	return c, nil
}

func (c Conn) runBeforeSend() Conn {
	for i := len(c.beforeSend) - 1; i >= 0; i-- {
		c = c.beforeSend[i](c)
	}

	return c
}

// fireSent closes the one-shot notification channel for the creating task.
func (c Conn) fireSent() {
	if c.sent != nil {
		close(c.sent)
	}
}
