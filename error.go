package vhttp

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Kind classifies the failures the core can produce. Every failure is raised
// synchronously at the triggering call; the core never batches, defers or
// retries them. An outer collaborator (e.g. an error-rendering handler) is
// expected to translate kinds into client-visible responses.
type Kind int

const (
	KindUnknown Kind = iota

	// KindAlreadySent: a mutating or sending operation was attempted after
	// the connection reached a terminal or streaming-closed state.
	KindAlreadySent

	// KindInvalidHeader: a header name or value violates canonicalization
	// rules (uppercase name in strict mode, or CR/LF/NUL/colon anywhere).
	KindInvalidHeader

	// KindInvalidSpec: a route template or guard failed to compile. Raised
	// at registration time so a bad route prevents startup instead of being
	// silently dropped.
	KindInvalidSpec

	// KindMalformedURI: a path segment failed percent-decoding during
	// dispatch. Client-error class.
	KindMalformedURI

	// KindNoRouteMatched: the dispatch table was exhausted without a match.
	// Server-error class; applications are expected to register a catch-all.
	KindNoRouteMatched

	// KindUpgradeNotSupported: the adapter declined the requested protocol.
	KindUpgradeNotSupported

	// KindBodyTimeout: a body read did not complete within the caller
	// supplied timeout. Never retried by the core.
	KindBodyTimeout
)

// String returns the kind's name for error messages and logs.
func (k Kind) String() string {
	switch k {
	case KindAlreadySent:
		return "already_sent"
	case KindInvalidHeader:
		return "invalid_header"
	case KindInvalidSpec:
		return "invalid_spec"
	case KindMalformedURI:
		return "malformed_uri"
	case KindNoRouteMatched:
		return "no_route_matched"
	case KindUpgradeNotSupported:
		return "upgrade_not_supported"
	case KindBodyTimeout:
		return "body_timeout"
	default:
		return "unknown"
	}
}

// StatusClass returns the HTTP status code a collaborator would typically
// render the kind as. The core itself never formats an HTTP error response.
func (k Kind) StatusClass() int {
	switch k {
	case KindMalformedURI:
		return http.StatusBadRequest
	case KindNoRouteMatched:
		return http.StatusInternalServerError
	case KindUpgradeNotSupported:
		return http.StatusNotImplemented
	case KindBodyTimeout:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Error describes a connection or routing error with a classified kind.
type Error struct {
	kind Kind
	err  error
}

// NewError inits a new error given the kind and an underlying cause.
func NewError(k Kind, underlying error) *Error {
	return &Error{k, underlying}
}

func (e *Error) Kind() Kind    { return e.kind }
func (e *Error) Unwrap() error { return e.err }

func (e *Error) Error() string {
	if e.err == nil {
		return e.kind.String()
	}

	return fmt.Sprintf("%s: %s", e.kind, e.err.Error())
}

// KindOf returns the error's kind if it is or wraps an [*Error] and
// [KindUnknown] otherwise.
func KindOf(err error) Kind {
	if verr, ok := asError(err); ok {
		return verr.Kind()
	}
	return KindUnknown
}

// asError uses errors.As to unwrap any error and look for a vhttp *Error.
func asError(err error) (*Error, bool) {
	var verr *Error
	ok := errors.As(err, &verr)
	return verr, ok
}

func errAlreadySent(op string, s State) error {
	return NewError(KindAlreadySent, errors.Newf("%s: response already sent (state %s)", op, s))
}
