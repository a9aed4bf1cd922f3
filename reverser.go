package vhttp

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/vhttp/vhttp/internal/pattern"
)

// Reverser keeps track of named templates and allows building URLs.
type Reverser struct {
	pats map[string]*pattern.Template
}

// NewReverser inits the reverser.
func NewReverser() *Reverser {
	return &Reverser{make(map[string]*pattern.Template)}
}

// Reverse reverses the named template into a url.
func (r Reverser) Reverse(name string, vals ...string) (string, error) {
	tpl, ok := r.pats[name]
	if !ok {
		return "", fmt.Errorf("no template named: %q, got: %v", name, lo.Keys(r.pats)) //nolint:goerr113
	}

	res, err := tpl.Build(vals...)
	if err != nil {
		return "", fmt.Errorf("failed to build: %w", err)
	}

	return res, nil
}

// Named is a convenience method that panics if naming the template fails.
func (r Reverser) Named(name, str string) string {
	str, err := r.NamedPattern(name, str)
	if err != nil {
		panic("vhttp: " + err.Error())
	}

	return str
}

// NamedPattern will parse 'str' as a path template while returning it as well.
func (r Reverser) NamedPattern(name, str string) (string, error) {
	if _, exists := r.pats[name]; exists {
		return str, fmt.Errorf("template with name %q already exists", name) //nolint:goerr113
	}

	tpl, err := pattern.Parse(str)
	if err != nil {
		return str, fmt.Errorf("failed to parse template: %w", err)
	}

	r.pats[name] = tpl

	return str, nil
}
