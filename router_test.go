package vhttp_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vhttp/vhttp"
	"github.com/vhttp/vhttp/vhttptest"
)

// pass returns the connection unchanged so tests can inspect what dispatch
// merged into it.
func pass(c vhttp.Conn) (vhttp.Conn, error) { return c, nil }

// tag marks the connection so tests can tell which route ran.
func tag(name string) vhttp.HandlerFunc {
	return func(c vhttp.Conn) (vhttp.Conn, error) {
		return c.WithAssign("route", name), nil
	}
}

func TestDispatchCapture(t *testing.T) {
	r := vhttp.NewRouter()
	require.NoError(t, r.HandleFunc("GET", "/users/:id", pass))

	c, _ := vhttptest.NewConn(http.MethodGet, "/users/42")
	c, err := r.Dispatch(c)
	require.NoError(t, err)

	id, ok := c.PathParam("id")
	require.True(t, ok)
	assert.Equal(t, "42", id)
}

func TestDispatchGlob(t *testing.T) {
	r := vhttp.NewRouter()
	require.NoError(t, r.HandleFunc("GET", "/files/*path", pass))

	c, _ := vhttptest.NewConn(http.MethodGet, "/files/a/b/c")
	c, err := r.Dispatch(c)
	require.NoError(t, err)

	path, ok := c.PathParam("path")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, path)
}

func TestDispatchSuffix(t *testing.T) {
	r := vhttp.NewRouter()
	require.NoError(t, r.HandleFunc("GET", "/report/:name.csv", pass))

	c, _ := vhttptest.NewConn(http.MethodGet, "/report/q1.csv")
	c, err := r.Dispatch(c)
	require.NoError(t, err)

	name, ok := c.PathParam("name")
	require.True(t, ok)
	assert.Equal(t, "q1", name, "suffix is stripped from the bound value")

	c2, _ := vhttptest.NewConn(http.MethodGet, "/report/q1.txt")
	_, err = r.Dispatch(c2)
	assert.Equal(t, vhttp.KindNoRouteMatched, vhttp.KindOf(err))
}

func TestDispatchPrefixCapture(t *testing.T) {
	r := vhttp.NewRouter()
	require.NoError(t, r.HandleFunc("GET", "/users/bat-:id", pass))

	c, _ := vhttptest.NewConn(http.MethodGet, "/users/bat-man")
	c, err := r.Dispatch(c)
	require.NoError(t, err)

	id, _ := c.PathParam("id")
	assert.Equal(t, "man", id)
}

func TestDispatchDeclarationOrderWins(t *testing.T) {
	r := vhttp.NewRouter()
	require.NoError(t, r.Handle("GET", "/a/:x", tag("capture")))
	require.NoError(t, r.Handle("GET", "/a/fixed", tag("literal")))

	c, _ := vhttptest.NewConn(http.MethodGet, "/a/fixed")
	c, err := r.Dispatch(c)
	require.NoError(t, err)

	route, _ := c.Assign("route")
	assert.Equal(t, "capture", route, "declared order beats specificity")

	x, _ := c.PathParam("x")
	assert.Equal(t, "fixed", x)
}

func TestDispatchHiddenCapture(t *testing.T) {
	r := vhttp.NewRouter()
	require.NoError(t, r.HandleFunc("GET", "/v1/:_version/users/:id", pass))

	c, _ := vhttptest.NewConn(http.MethodGet, "/v1/beta/users/7")
	c, err := r.Dispatch(c)
	require.NoError(t, err)

	_, ok := c.PathParam("_version")
	assert.False(t, ok, "underscore identifiers consume a position but do not bind")

	id, _ := c.PathParam("id")
	assert.Equal(t, "7", id)
}

func TestDispatchMethods(t *testing.T) {
	r := vhttp.NewRouter()
	require.NoError(t, r.Handle("POST", "/things", tag("post")))
	require.NoError(t, r.Handle(vhttp.MethodAny, "/things", tag("any")))

	c, _ := vhttptest.NewConn("post", "/things")
	c, err := r.Dispatch(c)
	require.NoError(t, err)
	route, _ := c.Assign("route")
	assert.Equal(t, "post", route)

	c2, _ := vhttptest.NewConn(http.MethodDelete, "/things")
	c2, err = r.Dispatch(c2)
	require.NoError(t, err)
	route, _ = c2.Assign("route")
	assert.Equal(t, "any", route)
}

func TestDispatchHostPatterns(t *testing.T) {
	r := vhttp.NewRouter()
	r.MustHandleRoute(vhttp.RouteDef{
		Method: "GET", Template: "/", Host: "api.example.com", Handler: tag("exact"),
	})
	r.MustHandleRoute(vhttp.RouteDef{
		Method: "GET", Template: "/", Host: "admin.", Handler: tag("prefix"),
	})
	r.MustHandleRoute(vhttp.RouteDef{
		Method: "GET", Template: "/", Handler: tag("any"),
	})

	for host, want := range map[string]string{
		"api.example.com":   "exact",
		"admin.example.com": "prefix",
		"www.example.com":   "any",
	} {
		c, _ := vhttptest.NewConn(http.MethodGet, "/", vhttptest.WithHost(host))
		c, err := r.Dispatch(c)
		require.NoError(t, err)

		route, _ := c.Assign("route")
		assert.Equal(t, want, route, "host %s", host)
	}
}

func TestDispatchGuard(t *testing.T) {
	r := vhttp.NewRouter()
	r.MustHandleRoute(vhttp.RouteDef{
		Method:   "GET",
		Template: "/report/:name.csv",
		Guard:    `name in ["q1", "q2"]`,
		Handler:  vhttp.HandlerFunc(pass),
	})

	c, _ := vhttptest.NewConn(http.MethodGet, "/report/q1.csv")
	c, err := r.Dispatch(c)
	require.NoError(t, err)

	name, _ := c.PathParam("name")
	assert.Equal(t, "q1", name, "guard observed the clean, suffix-stripped value")

	c2, _ := vhttptest.NewConn(http.MethodGet, "/report/q9.csv")
	_, err = r.Dispatch(c2)
	assert.Equal(t, vhttp.KindNoRouteMatched, vhttp.KindOf(err))
}

func TestDispatchGuardMatches(t *testing.T) {
	r := vhttp.NewRouter()
	r.MustHandleRoute(vhttp.RouteDef{
		Method:   "GET",
		Template: "/users/:id",
		Guard:    `id.matches("^[0-9]+$")`,
		Handler:  vhttp.HandlerFunc(pass),
	})

	c, _ := vhttptest.NewConn(http.MethodGet, "/users/42")
	_, err := r.Dispatch(c)
	require.NoError(t, err)

	c2, _ := vhttptest.NewConn(http.MethodGet, "/users/robert")
	_, err = r.Dispatch(c2)
	assert.Equal(t, vhttp.KindNoRouteMatched, vhttp.KindOf(err))
}

func TestGuardWhitelistOnSuffixedCaptures(t *testing.T) {
	r := vhttp.NewRouter()

	// equality against the clean value is allowed
	require.NoError(t, r.HandleRoute(vhttp.RouteDef{
		Method: "GET", Template: "/report/:name.csv", Guard: `name == "q1"`,
		Handler: vhttp.HandlerFunc(pass),
	}))

	// any other operation over a suffixed capture is rejected at
	// registration time
	err := r.HandleRoute(vhttp.RouteDef{
		Method: "GET", Template: "/report/:name.csv", Guard: `name.startsWith("q")`,
		Handler: vhttp.HandlerFunc(pass),
	})
	require.Error(t, err)
	assert.Equal(t, vhttp.KindInvalidSpec, vhttp.KindOf(err))
	assert.Contains(t, err.Error(), "not supported on suffixed capture")

	// the same operation on a suffix-free capture stays allowed
	require.NoError(t, r.HandleRoute(vhttp.RouteDef{
		Method: "GET", Template: "/users/:id", Guard: `id.startsWith("adm-")`,
		Handler: vhttp.HandlerFunc(pass),
	}))
}

func TestInvalidSpecs(t *testing.T) {
	for _, tt := range []struct {
		name, template string
	}{
		{name: "glob not last", template: "/a/*rest/b"},
		{name: "identifier starts with digit", template: "/a/:9x"},
		{name: "identifier uppercase", template: "/a/:Id"},
		{name: "two markers in one segment", template: "/a/:x:y"},
		{name: "marker in suffix", template: "/a/:x.*y"},
		{name: "glob with suffix", template: "/a/*rest.txt"},
		{name: "bare marker", template: "/a/:"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			r := vhttp.NewRouter()
			err := r.HandleFunc("GET", tt.template, pass)
			require.Error(t, err)
			assert.Equal(t, vhttp.KindInvalidSpec, vhttp.KindOf(err))
		})
	}
}

func TestMustHandleRoutePanics(t *testing.T) {
	r := vhttp.NewRouter()
	assert.Panics(t, func() {
		r.MustHandleRoute(vhttp.RouteDef{
			Method: "GET", Template: "/a/*rest/b", Handler: vhttp.HandlerFunc(pass),
		})
	})
}

func TestDispatchPercentDecoding(t *testing.T) {
	r := vhttp.NewRouter()
	require.NoError(t, r.HandleFunc("GET", "/files/:name", pass))

	c, _ := vhttptest.NewConn(http.MethodGet, "/files/a%20b")
	c, err := r.Dispatch(c)
	require.NoError(t, err)

	name, _ := c.PathParam("name")
	assert.Equal(t, "a b", name)

	c2, _ := vhttptest.NewConn(http.MethodGet, "/files/a%zzb")
	_, err = r.Dispatch(c2)
	require.Error(t, err)
	assert.Equal(t, vhttp.KindMalformedURI, vhttp.KindOf(err))
}

func TestDispatchNoRouteMatched(t *testing.T) {
	r := vhttp.NewRouter()
	require.NoError(t, r.HandleFunc("GET", "/known", pass))

	c, _ := vhttptest.NewConn(http.MethodGet, "/unknown")
	_, err := r.Dispatch(c)
	require.Error(t, err)
	assert.Equal(t, vhttp.KindNoRouteMatched, vhttp.KindOf(err))
}

func TestDispatchAssignsAndPrivate(t *testing.T) {
	r := vhttp.NewRouter()
	r.MustHandleRoute(vhttp.RouteDef{
		Method:   "GET",
		Template: "/admin",
		Handler:  vhttp.HandlerFunc(pass),
		Assigns:  map[string]any{"area": "admin"},
		Private:  map[string]any{"router.secure": true},
	})

	c, _ := vhttptest.NewConn(http.MethodGet, "/admin")
	c, err := r.Dispatch(c)
	require.NoError(t, err)

	area, _ := c.Assign("area")
	assert.Equal(t, "admin", area)

	secure, _ := c.Private("router.secure")
	assert.Equal(t, true, secure)
}

func TestForwardNestedDispatch(t *testing.T) {
	nested := vhttp.NewRouter()
	require.NoError(t, nested.HandleFunc("GET", "/rest", func(c vhttp.Conn) (vhttp.Conn, error) {
		// the nested table perceives a fresh root
		assert.Equal(t, []string{"rest"}, c.PathInfo())
		assert.Equal(t, []string{"mount"}, c.ScriptName())

		return c, nil
	}))

	outer := vhttp.NewRouter()
	require.NoError(t, outer.Forward("/mount", nested))

	c, _ := vhttptest.NewConn(http.MethodGet, "/mount/rest")
	c, err := outer.Dispatch(c)
	require.NoError(t, err)

	assert.Equal(t, "/mount/rest", c.FullPath(), "consumed and remaining segments reconstruct the path")
}

func TestForwardKeepsUnmatchedTail(t *testing.T) {
	nested := vhttp.NewRouter()
	require.NoError(t, nested.HandleFunc("GET", "/files/*rest", pass))

	outer := vhttp.NewRouter()
	require.NoError(t, outer.Forward("/api/v1", nested))

	c, _ := vhttptest.NewConn(http.MethodGet, "/api/v1/files/a/b")
	c, err := outer.Dispatch(c)
	require.NoError(t, err)

	rest, _ := c.PathParam("rest")
	assert.Equal(t, []string{"a", "b"}, rest)
	assert.Equal(t, []string{"api", "v1"}, c.ScriptName())
}

func TestForwardTemplateMustBeLiteral(t *testing.T) {
	outer := vhttp.NewRouter()
	err := outer.Forward("/mount/:id", vhttp.NewRouter())
	require.Error(t, err)
	assert.Equal(t, vhttp.KindInvalidSpec, vhttp.KindOf(err))
}

func TestRouterMiddleware(t *testing.T) {
	r := vhttp.NewRouter()
	r.Use(func(n vhttp.Handler) vhttp.Handler {
		return vhttp.HandlerFunc(func(c vhttp.Conn) (vhttp.Conn, error) {
			return n.Serve(c.WithAssign("mw", true))
		})
	})
	require.NoError(t, r.HandleFunc("GET", "/", pass))

	c, _ := vhttptest.NewConn(http.MethodGet, "/")
	c, err := r.Dispatch(c)
	require.NoError(t, err)

	mw, ok := c.Assign("mw")
	require.True(t, ok)
	assert.Equal(t, true, mw)

	assert.Panics(t, func() { r.Use(nil) }, "middleware after the first route is a programming error")
}

func TestRouterReverse(t *testing.T) {
	r := vhttp.NewRouter()
	require.NoError(t, r.HandleFunc("GET", "/users/:id/posts/:post", pass, "user-post"))

	url, err := r.Reverse("user-post", "42", "7")
	require.NoError(t, err)
	assert.Equal(t, "/users/42/posts/7", url)

	err = r.HandleFunc("GET", "/other", pass, "user-post")
	require.Error(t, err, "duplicate route names fail registration")
}
