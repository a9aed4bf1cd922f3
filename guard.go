package vhttp

import (
	"github.com/cockroachdb/errors"
	"github.com/google/cel-go/cel"
	celast "github.com/google/cel-go/common/ast"
	"github.com/google/cel-go/common/operators"

	"github.com/vhttp/vhttp/internal/pattern"
)

// guardAllowedOps are the only operations that may touch a suffix-bearing
// capture inside a guard: equality, inequality, list membership and regexp
// matching. The extractor strips suffixes before the guard runs, so these
// all observe the clean value; anything else over a suffixed capture is
// rejected at compile time rather than given a meaning.
var guardAllowedOps = map[string]struct{}{
	operators.Equals:    {},
	operators.NotEquals: {},
	operators.In:        {},
	"matches":           {},
}

// guard is a compiled boolean predicate over a route's extracted captures.
type guard struct {
	prog cel.Program
}

// compileGuard compiles a CEL expression against the template's visible
// captures. Plain captures are typed string, a glob is typed list(string).
// The whitelist walk happens here, at registration time.
func compileGuard(expr string, tpl *pattern.Template) (*guard, error) {
	opts := make([]cel.EnvOption, 0, len(tpl.Captures()))
	globName, hasGlob := tpl.GlobName()
	for _, name := range tpl.Captures() {
		if hasGlob && name == globName {
			opts = append(opts, cel.Variable(name, cel.ListType(cel.StringType)))
			continue
		}

		opts = append(opts, cel.Variable(name, cel.StringType))
	}

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create guard environment")
	}

	ast, iss := env.Compile(expr)
	if iss.Err() != nil {
		return nil, errors.Wrapf(iss.Err(), "compile guard %q", expr)
	}

	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, errors.Newf("guard %q must evaluate to a boolean, got %s", expr, ast.OutputType())
	}

	if err := checkSuffixedOps(ast.NativeRep().Expr(), tpl.Suffixed()); err != nil {
		return nil, errors.Wrapf(err, "guard %q", expr)
	}

	prog, err := env.Program(ast)
	if err != nil {
		return nil, errors.Wrapf(err, "plan guard %q", expr)
	}

	return &guard{prog: prog}, nil
}

// checkSuffixedOps walks the checked AST and rejects any call that applies
// an operation outside the whitelist to a suffix-bearing capture.
func checkSuffixedOps(root celast.Expr, suffixed map[string]string) error {
	if len(suffixed) == 0 {
		return nil
	}

	var verr error
	celast.PreOrderVisit(root, celast.NewExprVisitor(func(e celast.Expr) {
		if verr != nil || e.Kind() != celast.CallKind {
			return
		}

		call := e.AsCall()
		if _, ok := guardAllowedOps[call.FunctionName()]; ok {
			return
		}

		operands := call.Args()
		if call.IsMemberFunction() {
			operands = append([]celast.Expr{call.Target()}, operands...)
		}

		for _, arg := range operands {
			if arg.Kind() != celast.IdentKind {
				continue
			}

			if name := arg.AsIdent(); suffixed[name] != "" {
				verr = errors.Newf("operation %q is not supported on suffixed capture %q, allowed: ==, !=, in, matches",
					call.FunctionName(), name)

				return
			}
		}
	}))

	return verr
}

// eval runs the guard against the clean (suffix-stripped) capture values.
func (g *guard) eval(params map[string]any) (bool, error) {
	activation := make(map[string]any, len(params))
	for k, v := range params {
		activation[k] = v
	}

	out, _, err := g.prog.Eval(activation)
	if err != nil {
		return false, errors.Wrap(err, "evaluate guard")
	}

	b, ok := out.Value().(bool)
	if !ok {
		return false, errors.Newf("guard returned %T, want bool", out.Value())
	}

	return b, nil
}
