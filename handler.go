package vhttp

// Options carries the static, per-route configuration a handler was
// registered with. Resolved once at registration time, never per request.
type Options map[string]any

// Handler is the unit of request logic: it receives a connection value and
// returns the next one. Errors surface synchronously and end the request.
type Handler interface {
	Serve(c Conn) (Conn, error)
}

// HandlerFunc allows casting a function to an implementation of [Handler].
type HandlerFunc func(Conn) (Conn, error)

// Serve implements the [Handler] interface.
func (f HandlerFunc) Serve(c Conn) (Conn, error) {
	return f(c)
}

// Module is the handler shape with one-time initialization: Init resolves
// the registration options once, Serve runs per request with the resolved
// options. Reduce turns either handler shape into a plain [Handler].
type Module interface {
	Init(opts Options) Options
	Serve(c Conn, opts Options) (Conn, error)
}

// Reduce resolves a module's options at registration time and returns a
// plain handler closed over the result. Initialization happens here, once,
// not per request.
func Reduce(m Module, opts Options) Handler {
	resolved := m.Init(opts)

	return HandlerFunc(func(c Conn) (Conn, error) {
		return m.Serve(c, resolved)
	})
}

// Middleware wraps handlers for cross-cutting concerns.
type Middleware func(Handler) Handler

// Chain wraps the inner handler h with middleware. The order is that of the
// Gorilla and Chi routers: the middleware provided first is the outermost
// wrapping, the middleware provided last sits closest to the handler.
func Chain(h Handler, m ...Middleware) Handler {
	if len(m) < 1 {
		return h
	}

	wrapped := h
	for i := len(m) - 1; i >= 0; i-- {
		wrapped = m[i](wrapped)
	}

	return wrapped
}

// Pipeline is an ordered handler chain. Run threads the connection value
// through each handler and stops as soon as one halts the connection or
// returns an error.
type Pipeline []Handler

// Run drives the pipeline over c.
func (p Pipeline) Run(c Conn) (Conn, error) {
	for _, h := range p {
		var err error
		if c, err = h.Serve(c); err != nil {
			return c, err
		}

		if c.Halted() {
			break
		}
	}

	return c, nil
}
