package vhttp

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/vhttp/vhttp/internal/pattern"
)

// MethodAny registers a route for every request method.
const MethodAny = "*"

// RouteDef declares one route for [Router.HandleRoute]. Everything here is
// static: it is resolved once at registration time.
type RouteDef struct {
	// Method is a normal HTTP method or [MethodAny].
	Method string
	// Template is the path template, e.g. "/users/:id" or "/files/*rest".
	Template string
	// Host restricts the route to a host: empty matches any host, a
	// trailing dot matches by prefix, anything else matches exactly.
	Host string
	// Guard is an optional CEL expression over the template's captures.
	// Suffixed captures only admit ==, !=, in and matches.
	Guard string
	// Handler runs on a match. Exactly one of Handler and Forward is set.
	Handler Handler
	// Forward delegates the unmatched tail to a nested router instead of
	// a handler.
	Forward *Router
	// Name registers the route for URL reversing.
	Name string
	// Assigns and Private are pre-merged into the connection on a match.
	Assigns map[string]any
	Private map[string]any
}

// Route is a compiled dispatch-table entry, reusable against arbitrarily
// many requests without re-parsing.
type Route struct {
	method   string
	host     hostPattern
	tpl      *pattern.Template
	guard    *guard
	handler  Handler
	forward  *Router
	consumed int // segments moved to scriptName when forwarding
	assigns  map[string]any
	private  map[string]any
	name     string
}

// compileRoute resolves a definition into a Route, failing with
// KindInvalidSpec on any malformed template or guard.
func compileRoute(def RouteDef) (*Route, error) {
	if (def.Handler == nil) == (def.Forward == nil) {
		return nil, NewError(KindInvalidSpec,
			errors.Newf("route %q: exactly one of Handler and Forward must be set", def.Template))
	}

	template := def.Template
	consumed := 0
	if def.Forward != nil {
		if strings.ContainsAny(template, ":*") {
			return nil, NewError(KindInvalidSpec,
				errors.Newf("route %q: a forward template must be all literal segments", template))
		}

		// The tail past the mount point belongs to the nested router.
		template = strings.TrimSuffix(template, "/") + "/*_forward"
	}

	tpl, err := pattern.Parse(template)
	if err != nil {
		return nil, NewError(KindInvalidSpec, err)
	}

	if def.Forward != nil {
		consumed = tpl.Size() - 1
	}

	rt := &Route{
		method:   strings.ToUpper(def.Method),
		host:     hostPattern{def.Host},
		tpl:      tpl,
		handler:  def.Handler,
		forward:  def.Forward,
		consumed: consumed,
		assigns:  def.Assigns,
		private:  def.Private,
		name:     def.Name,
	}

	if def.Method == "" || def.Method == MethodAny {
		rt.method = MethodAny
	}

	if def.Guard != "" {
		if rt.guard, err = compileGuard(def.Guard, tpl); err != nil {
			return nil, NewError(KindInvalidSpec, err)
		}
	}

	return rt, nil
}

// match tests method, host, path and guard. Guard evaluation errors count
// as a non-match, mirroring how boolean guards in pattern clauses behave.
func (rt *Route) match(method, host string, segs []string) (map[string]any, bool) {
	if rt.method != MethodAny && rt.method != method {
		return nil, false
	}
	if !rt.host.match(host) {
		return nil, false
	}

	binds, ok := rt.tpl.Match(segs)
	if !ok {
		return nil, false
	}

	if rt.guard != nil {
		pass, err := rt.guard.eval(binds)
		if err != nil || !pass {
			return nil, false
		}
	}

	return binds, true
}

// hostPattern matches a route's host restriction: absent matches any host, a
// trailing dot matches by prefix, otherwise exact equality.
type hostPattern struct {
	raw string
}

func (p hostPattern) match(host string) bool {
	switch {
	case p.raw == "":
		return true
	case strings.HasSuffix(p.raw, "."):
		return strings.HasPrefix(host, p.raw)
	default:
		return host == p.raw
	}
}
