package vkit

import (
	"net/http"

	"github.com/carlmjohnson/requests"
	"github.com/vhttp/vhttp"
)

// Runtime provides access to app-scoped dependencies. Inject this into
// handler constructors via fx instead of pulling from context.
//
// Example:
//
//	type Handlers struct {
//	    rt *vkit.Runtime[Env]
//	}
//
//	func NewHandlers(rt *vkit.Runtime[Env]) *Handlers {
//	    return &Handlers{rt: rt}
//	}
//
//	func (h *Handlers) GetItem(c vhttp.Conn) (vhttp.Conn, error) {
//	    env := h.rt.Env()
//	    url, _ := h.rt.Reverse("get-item", id)
//	    // ...
//	}
type Runtime[E Environment] struct {
	env       E
	router    *vhttp.Router
	transport http.RoundTripper
}

// NewRuntime creates a new Runtime with the given dependencies.
func NewRuntime[E Environment](env E, router *vhttp.Router, transport http.RoundTripper) *Runtime[E] {
	return &Runtime[E]{
		env:       env,
		router:    router,
		transport: transport,
	}
}

// Env returns the environment configuration.
func (r *Runtime[E]) Env() E {
	return r.env
}

// Reverse returns the URL for a named route with the given parameters. The
// route must have been registered with a name.
func (r *Runtime[E]) Reverse(name string, params ...string) (string, error) {
	return r.router.Reverse(name, params...)
}

// NewRequest returns a fresh [requests.Builder] with the instrumented
// transport pre-wired for outbound requests.
func (r *Runtime[E]) NewRequest() *requests.Builder {
	return newRequestBuilder(r.transport)
}
