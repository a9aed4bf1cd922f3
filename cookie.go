package vhttp

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// PutRespCookie stages a cookie in the response jar, replacing any staged
// cookie with the same name. The jar is merged into the response headers as
// "set-cookie" fields during every terminal send; the wire encoding itself
// is [http.Cookie.String].
func (c Conn) PutRespCookie(ck http.Cookie) (Conn, error) {
	if !c.state.writable() {
		return c, errAlreadySent("put_resp_cookie", c.state)
	}
	if ck.Name == "" {
		return c, errors.New("cookie name must not be empty")
	}

	out := make([]*http.Cookie, 0, len(c.cookies)+1)
	replaced := false
	for _, staged := range c.cookies {
		if staged.Name == ck.Name {
			out = append(out, &ck)
			replaced = true
			continue
		}
		out = append(out, staged)
	}
	if !replaced {
		out = append(out, &ck)
	}

	c.cookies = out

	return c, nil
}

// DeleteRespCookie stages an expired cookie so the client drops it.
func (c Conn) DeleteRespCookie(name string) (Conn, error) {
	return c.PutRespCookie(http.Cookie{Name: name, MaxAge: -1})
}

// RespCookies returns the staged response cookie jar in staging order.
func (c Conn) RespCookies() []*http.Cookie {
	return c.cookies
}

// Cookies parses the request "cookie" header on first use and caches the
// result. This is the lazy fetch hook external session stores build on.
func (c Conn) Cookies() (Conn, []*http.Cookie) {
	if c.reqCookiesLoaded {
		return c, c.reqCookies
	}

	req := http.Request{Header: http.Header{}}
	for _, v := range c.reqHeader.Get("cookie") {
		req.Header.Add("Cookie", v)
	}

	c.reqCookies = req.Cookies()
	c.reqCookiesLoaded = true

	return c, c.reqCookies
}

// mergeCookies folds the staged jar into the response headers. Runs during
// every terminal send, after the before-send hooks.
func (c Conn) mergeCookies() Conn {
	for _, ck := range c.cookies {
		c.respHeader = c.respHeader.Add("set-cookie", ck.String())
	}

	return c
}
