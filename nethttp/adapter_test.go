package nethttp_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vhttp/vhttp"
	"github.com/vhttp/vhttp/nethttp"
)

func serveWith(tb testing.TB, register func(r *vhttp.Router)) (http.Handler, *vhttp.TestLogger) {
	tb.Helper()

	router := vhttp.NewRouter()
	register(router)

	logs := vhttp.NewTestLogger(tb)

	return nethttp.Serve(router, logs), logs
}

func TestServeBuffered(t *testing.T) {
	h, logs := serveWith(t, func(r *vhttp.Router) {
		require.NoError(t, r.HandleFunc("GET", "/users/:id", func(c vhttp.Conn) (vhttp.Conn, error) {
			id, _ := c.PathParam("id")

			c, err := c.PutRespHeader("content-type", "text/plain")
			if err != nil {
				return c, err
			}

			c, err = c.PutRespCookie(http.Cookie{Name: "session", Value: "abc"})
			if err != nil {
				return c, err
			}

			return c.SendResp(http.StatusOK, []byte("user "+id.(string)))
		}))
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/42", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user 42", rec.Body.String())
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "session=abc")
	assert.Zero(t, logs.NumLogUnhandledDispatchError)
}

func TestServeFlushesSetState(t *testing.T) {
	h, logs := serveWith(t, func(r *vhttp.Router) {
		require.NoError(t, r.HandleFunc("GET", "/", func(c vhttp.Conn) (vhttp.Conn, error) {
			// stage only; Serve flushes on return
			return c.Resp(http.StatusAccepted, []byte("later"))
		}))
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "later", rec.Body.String())
	assert.Zero(t, logs.NumLogFlushError)
}

func TestServeHeadOmitsBody(t *testing.T) {
	h, _ := serveWith(t, func(r *vhttp.Router) {
		require.NoError(t, r.HandleFunc(vhttp.MethodAny, "/", func(c vhttp.Conn) (vhttp.Conn, error) {
			return c.SendResp(http.StatusOK, []byte("payload"))
		}))
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestServeErrorRendering(t *testing.T) {
	h, logs := serveWith(t, func(r *vhttp.Router) {
		require.NoError(t, r.HandleFunc("GET", "/known", func(c vhttp.Conn) (vhttp.Conn, error) {
			return c.SendResp(http.StatusOK, []byte{})
		}))
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/unknown", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.EqualValues(t, 1, logs.NumLogUnhandledDispatchError)
}

func TestServeChunked(t *testing.T) {
	h, _ := serveWith(t, func(r *vhttp.Router) {
		require.NoError(t, r.HandleFunc("GET", "/stream", func(c vhttp.Conn) (vhttp.Conn, error) {
			c, err := c.SendChunked(http.StatusOK)
			if err != nil {
				return c, err
			}

			for _, part := range []string{"alpha ", "beta"} {
				if c, err = c.Chunk([]byte(part)); err != nil {
					return c, err
				}
			}

			return c.CloseChunked()
		}))
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, rec.Flushed)
	assert.Equal(t, "alpha beta", rec.Body.String())
}

func TestServeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload.txt")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o600))

	h, _ := serveWith(t, func(r *vhttp.Router) {
		require.NoError(t, r.HandleFunc("GET", "/all", func(c vhttp.Conn) (vhttp.Conn, error) {
			return c.SendFile(http.StatusOK, path, 0, -1)
		}))
		require.NoError(t, r.HandleFunc("GET", "/slice", func(c vhttp.Conn) (vhttp.Conn, error) {
			return c.SendFile(http.StatusOK, path, 2, 3)
		}))
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/all", nil))
	assert.Equal(t, "0123456789", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slice", nil))
	assert.Equal(t, "234", rec.Body.String())
}

func TestServeReadBody(t *testing.T) {
	h, _ := serveWith(t, func(r *vhttp.Router) {
		require.NoError(t, r.HandleFunc("POST", "/echo", func(c vhttp.Conn) (vhttp.Conn, error) {
			var body []byte
			for {
				data, more, err := c.ReadBody(vhttp.BodyOpts{Length: 4})
				if err != nil {
					return c, err
				}

				body = append(body, data...)
				if !more {
					break
				}
			}

			return c.SendResp(http.StatusOK, body)
		}))
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("hello world")))

	assert.Equal(t, "hello world", rec.Body.String())
}

func TestReadBodyTimeout(t *testing.T) {
	errc := make(chan error, 1)

	h, _ := serveWith(t, func(r *vhttp.Router) {
		require.NoError(t, r.HandleFunc("POST", "/upload", func(c vhttp.Conn) (vhttp.Conn, error) {
			_, _, err := c.ReadBody(vhttp.BodyOpts{Length: 100, Timeout: 150 * time.Millisecond})
			errc <- err

			return c.SendResp(http.StatusOK, []byte{})
		}))
	})

	srv := httptest.NewServer(h)
	defer srv.Close()

	// announce a 100 byte body but deliver only 3 and stall
	pr, pw := io.Pipe()
	defer pw.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/upload", pr)
	require.NoError(t, err)
	req.ContentLength = 100

	go func() { _, _ = pw.Write([]byte("abc")) }()
	go func() {
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			resp.Body.Close()
		}
	}()

	select {
	case err := <-errc:
		require.Error(t, err)
		assert.Equal(t, vhttp.KindBodyTimeout, vhttp.KindOf(err))
	case <-time.After(5 * time.Second):
		t.Fatal("handler never finished the body read")
	}
}

func TestConnRequestFactsFromHTTP(t *testing.T) {
	var got vhttp.Conn

	h, _ := serveWith(t, func(r *vhttp.Router) {
		require.NoError(t, r.HandleFunc("GET", "/a/*rest", func(c vhttp.Conn) (vhttp.Conn, error) {
			got = c

			return c.SendResp(http.StatusOK, []byte{})
		}))
	})

	req := httptest.NewRequest(http.MethodGet, "http://api.example.com:8080/a/b%20c?x=1", nil)
	req.Header.Set("X-Request-Id", "r1")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.MethodGet, got.Method())
	assert.Equal(t, "http", got.Scheme())
	assert.Equal(t, "api.example.com", got.Host())
	assert.Equal(t, 8080, got.Port())
	assert.Equal(t, "x=1", got.QueryString())

	assert.Equal(t, []string{"r1"}, got.ReqHeader().Get("x-request-id"))

	rest, _ := got.PathParam("rest")
	assert.Equal(t, []string{"b c"}, rest, "segments are decoded before matching")
}

func TestServeEndToEnd(t *testing.T) {
	h, _ := serveWith(t, func(r *vhttp.Router) {
		require.NoError(t, r.HandleFunc("GET", "/ping", func(c vhttp.Conn) (vhttp.Conn, error) {
			return c.SendResp(http.StatusOK, []byte("pong"))
		}))
	})

	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", string(body))
}
