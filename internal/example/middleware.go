// Package example implements example middleware in an outside package.
package example

import (
	"log/slog"

	"github.com/vhttp/vhttp"
)

// privateKey namespaces this package's connection storage.
const privateKey = "example.slog"

// Middleware provides an example for middleware that stores a logger on the
// connection's private bag.
func Middleware(logs *slog.Logger) vhttp.Middleware {
	return func(n vhttp.Handler) vhttp.Handler {
		return vhttp.HandlerFunc(func(c vhttp.Conn) (vhttp.Conn, error) {
			logs := logs.With(slog.String("method", c.Method()))

			return n.Serve(c.WithPrivate(privateKey, logs))
		})
	}
}

// Log retrieves the logger the middleware stored, nil outside of it.
func Log(c vhttp.Conn) *slog.Logger {
	v, _ := c.Private(privateKey)
	logs, _ := v.(*slog.Logger)

	return logs
}
