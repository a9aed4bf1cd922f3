// Package pattern compiles path templates into reusable matchers.
//
// A template is a "/"-joined list of segments. Each segment is either a
// literal, a capture (":" marker) or a trailing glob ("*" marker), with
// optional literal prefix/suffix text around the one marker:
//
//	/users/:id
//	/report/:name.csv
//	/users/bat-:id
//	/files/*rest
//
// Compilation happens once at registration; the resulting Template matches
// arbitrarily many requests without re-parsing and can be built back into a
// URL for reversing.
package pattern

import (
	"strings"

	"github.com/cockroachdb/errors"
)

type segmentKind int

const (
	kindLiteral segmentKind = iota
	kindCapture
	kindGlob
)

type segment struct {
	kind    segmentKind
	literal string // kindLiteral only
	prefix  string
	name    string
	suffix  string // kindCapture only
	hidden  bool   // underscore-prefixed identifier
}

// Template is a compiled path template.
type Template struct {
	raw  string
	segs []segment
}

// Parse compiles a template. Duplicate, leading and trailing slashes
// collapse; a malformed segment fails immediately so a bad route never
// reaches request time.
func Parse(raw string) (*Template, error) {
	tpl := &Template{raw: raw}

	for _, s := range strings.Split(raw, "/") {
		if s == "" {
			continue
		}

		if len(tpl.segs) > 0 && tpl.segs[len(tpl.segs)-1].kind == kindGlob {
			return nil, errors.Newf("template %q: glob segment must be the final segment", raw)
		}

		seg, err := parseSegment(s)
		if err != nil {
			return nil, errors.Wrapf(err, "template %q", raw)
		}

		tpl.segs = append(tpl.segs, seg)
	}

	return tpl, nil
}

func parseSegment(s string) (segment, error) {
	marker := strings.IndexAny(s, ":*")
	if marker < 0 {
		return segment{kind: kindLiteral, literal: s}, nil
	}

	prefix, rest := s[:marker], s[marker+1:]

	name, suffix := splitIdentifier(rest)
	if name == "" {
		return segment{}, errors.Newf("segment %q: marker must be followed by an identifier matching [a-z_][a-z0-9_]*", s)
	}
	if strings.ContainsAny(suffix, ":*") {
		return segment{}, errors.Newf("segment %q: at most one dynamic marker per segment", s)
	}

	hidden := name[0] == '_'

	if s[marker] == '*' {
		if suffix != "" {
			return segment{}, errors.Newf("segment %q: glob capture does not take a suffix", s)
		}

		return segment{kind: kindGlob, prefix: prefix, name: name, hidden: hidden}, nil
	}

	return segment{kind: kindCapture, prefix: prefix, name: name, suffix: suffix, hidden: hidden}, nil
}

// splitIdentifier cuts the leading [a-z_][a-z0-9_]* identifier off s.
func splitIdentifier(s string) (name, rest string) {
	i := 0
	for ; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c == '_':
		case c >= '0' && c <= '9':
			if i == 0 {
				return "", s
			}
		default:
			return s[:i], s[i:]
		}
	}

	return s, ""
}

// String returns the raw template.
func (t *Template) String() string { return t.raw }

// Captures returns the externally visible capture identifiers in positional
// order. Underscore-prefixed identifiers are excluded.
func (t *Template) Captures() []string {
	var names []string
	for _, seg := range t.segs {
		if seg.kind != kindLiteral && !seg.hidden {
			names = append(names, seg.name)
		}
	}

	return names
}

// GlobName returns the glob identifier and whether the template has one.
func (t *Template) GlobName() (string, bool) {
	if n := len(t.segs); n > 0 && t.segs[n-1].kind == kindGlob && !t.segs[n-1].hidden {
		return t.segs[n-1].name, true
	}

	return "", false
}

// Suffixed returns the visible capture identifiers that carry a non-empty
// literal suffix, mapped to that suffix.
func (t *Template) Suffixed() map[string]string {
	out := make(map[string]string)
	for _, seg := range t.segs {
		if seg.kind == kindCapture && !seg.hidden && seg.suffix != "" {
			out[seg.name] = seg.suffix
		}
	}

	return out
}

// Match tests the template against already-decoded path segments. On
// success it returns the visible captures: plain captures bind the clean
// value with prefix and suffix stripped, a glob binds the entire remaining
// tail as []string. Underscore-prefixed identifiers consume their position
// but do not bind.
func (t *Template) Match(segs []string) (map[string]any, bool) {
	binds := make(map[string]any)

	for i, seg := range t.segs {
		switch seg.kind {
		case kindLiteral:
			if i >= len(segs) || segs[i] != seg.literal {
				return nil, false
			}

		case kindCapture:
			if i >= len(segs) {
				return nil, false
			}

			clean, ok := strip(segs[i], seg.prefix, seg.suffix)
			if !ok {
				return nil, false
			}
			if !seg.hidden {
				binds[seg.name] = clean
			}

		case kindGlob:
			tail := segs[i:]
			if seg.prefix != "" && (len(tail) == 0 || !strings.HasPrefix(tail[0], seg.prefix)) {
				return nil, false
			}
			if !seg.hidden {
				binds[seg.name] = append(make([]string, 0, len(tail)), tail...)
			}

			return binds, true
		}
	}

	if len(segs) != len(t.segs) {
		return nil, false
	}

	return binds, true
}

// strip checks the literal prefix and the trailing-bytes suffix and returns
// the clean capture value with both removed.
func strip(s, prefix, suffix string) (string, bool) {
	if len(s) < len(prefix)+len(suffix) {
		return "", false
	}
	if !strings.HasPrefix(s, prefix) || !strings.HasSuffix(s, suffix) {
		return "", false
	}

	return s[len(prefix) : len(s)-len(suffix)], true
}

// Build substitutes vals positionally into the template's dynamic segments
// producing a URL path. Hidden captures consume a value too; a glob consumes
// all values left.
func (t *Template) Build(vals ...string) (string, error) {
	var b strings.Builder

	next := 0
	for _, seg := range t.segs {
		b.WriteByte('/')

		switch seg.kind {
		case kindLiteral:
			b.WriteString(seg.literal)

		case kindCapture:
			if next >= len(vals) {
				return "", errors.Newf("template %q: not enough values, need one for %q", t.raw, seg.name)
			}

			b.WriteString(seg.prefix)
			b.WriteString(vals[next])
			b.WriteString(seg.suffix)
			next++

		case kindGlob:
			if next >= len(vals) {
				return "", errors.Newf("template %q: not enough values, need at least one for glob %q", t.raw, seg.name)
			}

			b.WriteString(seg.prefix)
			b.WriteString(strings.Join(vals[next:], "/"))
			next = len(vals)
		}
	}

	if next != len(vals) {
		return "", errors.Newf("template %q: %d values left over", t.raw, len(vals)-next)
	}

	if b.Len() == 0 {
		return "/", nil
	}

	return b.String(), nil
}

// Size returns the number of segments in the template.
func (t *Template) Size() int { return len(t.segs) }

// NumBinds returns how many positional values Build consumes at minimum.
func (t *Template) NumBinds() int {
	n := 0
	for _, seg := range t.segs {
		if seg.kind != kindLiteral {
			n++
		}
	}

	return n
}
