package nethttp

import (
	"net/http"

	"github.com/vhttp/vhttp"
)

// Serve turns a dispatch table into a standard library http.Handler. Each
// request gets its own adapter and connection value; the connection is
// garbage once the handler returns.
//
// A dispatch error is logged and, when nothing was flushed yet, rendered as
// the plain status text for the error's class so the client does not end up
// with an empty reply. A connection left in the set state is flushed
// implicitly.
func Serve(router *vhttp.Router, logs vhttp.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		adapter := NewAdapter(w, r)

		c, err := router.Dispatch(NewConn(adapter))
		if err != nil {
			logs.LogUnhandledDispatchError(err)

			if !adapter.wroteHeader {
				status := vhttp.KindOf(err).StatusClass()
				http.Error(w, http.StatusText(status), status)
			}

			return
		}

		if c.State() == vhttp.StateSet {
			if _, err := c.Send(); err != nil {
				logs.LogFlushError(err)
			}
		}
	})
}
