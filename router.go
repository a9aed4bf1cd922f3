package vhttp

import (
	"net/url"

	"github.com/cockroachdb/errors"
)

// Router is an ordered dispatch table of compiled routes. Routes are scanned
// in declaration order and the first full match wins, even when a later
// route is more specific. Registration happens once, at startup; afterwards
// the table is read-only and safely shared across workers.
type Router struct {
	routes      []*Route
	reverser    *Reverser
	middlewares struct {
		captured bool
		chain    []Middleware
	}
}

// NewRouter creates an empty dispatch table.
func NewRouter() *Router {
	return NewRouterWith(NewReverser())
}

// NewRouterWith creates a dispatch table sharing the given reverser, so
// several routers can reverse each other's named routes.
func NewRouterWith(reverser *Reverser) *Router {
	return &Router{reverser: reverser}
}

// Use registers middleware applied to every route registered after it. Must
// be called before any Handle.
func (r *Router) Use(mw ...Middleware) {
	r.ensureNoUseAfterHandle()
	r.middlewares.chain = append(r.middlewares.chain, mw...)
}

// Reverse returns the url for a named route given positional values.
func (r *Router) Reverse(name string, vals ...string) (string, error) {
	return r.reverser.Reverse(name, vals...)
}

// Handle compiles and registers a route for the method and template. The
// optional trailing name registers the route for reversing. A malformed
// template fails here, with KindInvalidSpec, so it can prevent startup.
func (r *Router) Handle(method, template string, handler Handler, name ...string) error {
	def := RouteDef{Method: method, Template: template, Handler: handler}
	if len(name) > 0 {
		def.Name = name[0]
	}

	return r.HandleRoute(def)
}

// HandleFunc registers a route served by a function.
func (r *Router) HandleFunc(method, template string, handler HandlerFunc, name ...string) error {
	return r.Handle(method, template, handler, name...)
}

// HandleModule registers a route served by a module handler. The module's
// Init runs here, once, and the route closes over the resolved options.
func (r *Router) HandleModule(method, template string, m Module, opts Options, name ...string) error {
	return r.Handle(method, template, Reduce(m, opts), name...)
}

// Forward registers a route that delegates everything below the mount point
// to a nested router. Forwarding moves the consumed segments from the
// connection's path info to its script name, so the nested table perceives
// a fresh root.
func (r *Router) Forward(template string, sub *Router) error {
	return r.HandleRoute(RouteDef{Method: MethodAny, Template: template, Forward: sub})
}

// HandleRoute compiles and registers a fully specified route.
func (r *Router) HandleRoute(def RouteDef) error {
	r.middlewares.captured = true

	rt, err := compileRoute(def)
	if err != nil {
		return err
	}

	if rt.handler != nil {
		rt.handler = Chain(rt.handler, r.middlewares.chain...)
	}

	if rt.name != "" {
		if _, err := r.reverser.NamedPattern(rt.name, def.Template); err != nil {
			return NewError(KindInvalidSpec, err)
		}
	}

	r.routes = append(r.routes, rt)

	return nil
}

// MustHandleRoute is [Router.HandleRoute] for declarative route tables; it
// panics on a malformed route instead of letting startup continue.
func (r *Router) MustHandleRoute(def RouteDef) {
	if err := r.HandleRoute(def); err != nil {
		panic("vhttp: " + err.Error())
	}
}

// Dispatch selects the first matching route for the connection and runs its
// handler. Captures merge into the connection's path parameters by key
// overwrite before the handler sees it.
func (r *Router) Dispatch(c Conn) (Conn, error) {
	c, err := c.decodePath()
	if err != nil {
		return c, err
	}

	for _, rt := range r.routes {
		binds, ok := rt.match(c.method, c.host, c.pathInfo)
		if !ok {
			continue
		}

		c = c.mergeParams(binds)
		for k, v := range rt.assigns {
			c = c.WithAssign(k, v)
		}
		for k, v := range rt.private {
			c = c.WithPrivate(k, v)
		}

		if rt.forward != nil {
			return rt.forward.Dispatch(c.forwardTo(rt.consumed))
		}

		return rt.handler.Serve(c)
	}

	return c, NewError(KindNoRouteMatched,
		errors.Newf("no route for %s %s host %q", c.method, c.FullPath(), c.host))
}

// Routes returns the compiled routes in declaration order.
func (r *Router) Routes() []*Route { return r.routes }

func (r *Router) ensureNoUseAfterHandle() {
	if r.middlewares.captured {
		panic("vhttp: cannot call Use() after registering a route")
	}
}

// decodePath percent-decodes each remaining path segment independently,
// once. A decode failure is a client-error class KindMalformedURI.
func (c Conn) decodePath() (Conn, error) {
	if c.pathDecoded {
		return c, nil
	}

	decoded := make([]string, len(c.pathInfo))
	for i, seg := range c.pathInfo {
		d, err := url.PathUnescape(seg)
		if err != nil {
			return c, NewError(KindMalformedURI,
				errors.Wrapf(err, "path segment %q", seg))
		}

		decoded[i] = d
	}

	c.pathInfo = decoded
	c.pathDecoded = true

	return c, nil
}
