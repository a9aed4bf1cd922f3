package vhttp

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Header is an ordered multimap of HTTP header fields. Names are stored and
// emitted lowercase; reads are case-insensitive. Field order is preserved so
// adapters can emit fields in the order they were set.
type Header struct {
	fields []headerField
}

type headerField struct {
	name  string
	value string
}

// NewHeader builds a header from alternating name/value pairs. Names are
// lowercased; no validation is performed, use [Conn.PutRespHeader] for
// validated writes.
func NewHeader(pairs ...string) Header {
	var h Header
	for i := 0; i+1 < len(pairs); i += 2 {
		h = h.Add(pairs[i], pairs[i+1])
	}

	return h
}

// Get returns all values for the given name, nil if absent.
func (h Header) Get(name string) []string {
	name = strings.ToLower(name)

	var vals []string
	for _, f := range h.fields {
		if f.name == name {
			vals = append(vals, f.value)
		}
	}

	return vals
}

// First returns the first value for the given name and whether it was present.
func (h Header) First(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, f := range h.fields {
		if f.name == name {
			return f.value, true
		}
	}

	return "", false
}

// Add appends a field, keeping any existing fields with the same name.
func (h Header) Add(name, value string) Header {
	h.fields = append(h.fields[:len(h.fields):len(h.fields)], headerField{strings.ToLower(name), value})
	return h
}

// Set replaces all fields with the given name by a single field. The new
// field keeps the position of the first replaced field, or is appended when
// the name was absent.
func (h Header) Set(name, value string) Header {
	name = strings.ToLower(name)

	out := make([]headerField, 0, len(h.fields)+1)
	replaced := false
	for _, f := range h.fields {
		if f.name != name {
			out = append(out, f)
			continue
		}

		if !replaced {
			out = append(out, headerField{name, value})
			replaced = true
		}
	}

	if !replaced {
		out = append(out, headerField{name, value})
	}

	return Header{out}
}

// Del removes all fields with the given name.
func (h Header) Del(name string) Header {
	name = strings.ToLower(name)

	out := make([]headerField, 0, len(h.fields))
	for _, f := range h.fields {
		if f.name != name {
			out = append(out, f)
		}
	}

	return Header{out}
}

// Len returns the number of fields.
func (h Header) Len() int { return len(h.fields) }

// Each calls fn for every field in order.
func (h Header) Each(fn func(name, value string)) {
	for _, f := range h.fields {
		fn(f.name, f.value)
	}
}

// Clone returns a header that shares no storage with the receiver.
func (h Header) Clone() Header {
	out := make([]headerField, len(h.fields))
	copy(out, h.fields)

	return Header{out}
}

// ValidateHeaderName checks a header name for canonicalization violations.
// CR, LF, NUL and ":" are always rejected; uppercase characters are rejected
// only in strict mode.
func ValidateHeaderName(name string, strict bool) error {
	if name == "" {
		return NewError(KindInvalidHeader, errors.New("header name must not be empty"))
	}

	for i := 0; i < len(name); i++ {
		switch c := name[i]; c {
		case '\r', '\n', 0, ':':
			return NewError(KindInvalidHeader, errors.Newf("header name %q contains forbidden byte 0x%02x", name, c))
		}
	}

	if strict && strings.ToLower(name) != name {
		return NewError(KindInvalidHeader, errors.Newf("header name %q must be lowercase", name))
	}

	return nil
}

// ValidateHeaderValue checks a header value: CR, LF and NUL are always
// rejected regardless of mode.
func ValidateHeaderValue(name, value string) error {
	for i := 0; i < len(value); i++ {
		switch c := value[i]; c {
		case '\r', '\n', 0:
			return NewError(KindInvalidHeader, errors.Newf("value for header %q contains forbidden byte 0x%02x", name, c))
		}
	}

	return nil
}
