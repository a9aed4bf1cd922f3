// Package vhttp models one HTTP request/response exchange as an explicit
// connection value and compiles declarative path templates into a dispatch
// table.
//
// # Overview
//
// vhttp sits between a transport adapter and application request logic. The
// adapter turns bytes on a socket into a [Conn]; handlers thread the Conn
// through value-returning operations; a terminal operation drives the
// response state machine and delegates the actual flush back to the adapter.
// The core contains no I/O and no locks: each Conn is owned by exactly one
// worker and every mutating operation returns a new value.
//
// A minimal example:
//
//	router := vhttp.NewRouter()
//	router.HandleFunc("GET", "/users/:id", func(c vhttp.Conn) (vhttp.Conn, error) {
//	    id, _ := c.PathParam("id")
//	    return c.SendResp(200, []byte("user "+id.(string)))
//	}, "get-user")
//
//	http.ListenAndServe(":8080", nethttp.Serve(router, logs))
//
// # Response Lifecycle
//
// A connection starts unset. Staging a response with [Conn.Resp] moves it to
// set; a terminal operation moves it to sent, chunked, file or upgraded:
//
//   - [Conn.SendResp] / [Conn.Send] flush the buffered response
//   - [Conn.SendChunked] opens a stream, [Conn.Chunk] appends to it and
//     [Conn.CloseChunked] ends it
//   - [Conn.SendFile] delegates byte-range file delivery to the adapter
//   - [Conn.UpgradeAdapter] hands the transport to another protocol
//   - [Conn.Inform] emits 1xx interim responses without changing state
//
// Once a terminal state is reached every further mutator fails with a
// [KindAlreadySent] error, synchronously. This guarantees at-most-once
// response delivery by construction.
//
// # Before-Send Hooks
//
// [Conn.RegisterBeforeSend] pushes a hook onto a stack carried by the
// connection. At send time hooks run exactly once, in LIFO order relative to
// registration, and may still rewrite status, headers, cookies and body
// before the adapter sees them. Session stores and cache-control layers
// build on this.
//
// # Route Templates
//
// Templates mix literal segments, captures and a trailing glob, each with
// optional literal prefix/suffix text around one marker:
//
//	/users/:id          → id = "42"
//	/report/:name.csv   → name = "q1" (only matches the .csv suffix)
//	/users/bat-:id      → id = "man"
//	/files/*rest        → rest = ["a", "b", "c"]
//
// Compilation happens once at registration; a malformed template fails with
// [KindInvalidSpec] right there, so a bad route prevents startup instead of
// silently dropping. Routes match in declaration order, first match wins,
// regardless of specificity.
//
// # Guards
//
// A route may carry a boolean CEL expression over its captures:
//
//	router.HandleRoute(vhttp.RouteDef{
//	    Method:   "GET",
//	    Template: "/report/:name.csv",
//	    Guard:    `name in ["q1", "q2", "q3", "q4"]`,
//	    Handler:  reportHandler,
//	})
//
// Guards always observe clean capture values, with template prefix and
// suffix already stripped. A capture that carries a suffix only admits the
// ==, !=, in and matches operations; anything else over it is rejected at
// registration time.
//
// # Forwarding
//
// [Router.Forward] mounts a nested router below a path. Forwarding moves the
// consumed segments from the connection's path info to its script name, so
// the nested table perceives a fresh root while the full path stays
// reconstructible.
//
// # Adapters
//
// [Adapter] is the only interface the core calls to perform real I/O. The
// nethttp package adapts the standard library server; the vhttptest package
// records every interaction for tests. Flushes are synchronous: a state
// transition completes only once the adapter confirmed acceptance, and a
// flush failure is fatal to the request.
//
// # Errors
//
// All failures carry a [Kind] and surface synchronously at the triggering
// call: [KindAlreadySent], [KindInvalidHeader], [KindInvalidSpec],
// [KindMalformedURI], [KindNoRouteMatched], [KindUpgradeNotSupported] and
// [KindBodyTimeout]. The core never formats an HTTP error response itself;
// an outer collaborator translates kinds into client-visible statuses.
package vhttp
