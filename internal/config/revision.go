package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/open-policy-agent/opa/v1/ast" // NB(sr): v1 for template strings, `$"{input.name}"`
	"github.com/open-policy-agent/opa/v1/rego"
)

// Revision is the revision recorded with a published package. It is
// either a single Rego expression evaluated against the build input, or a
// plain string with environment variables expanded.
type Revision struct {
	expr  string
	query ast.Body
}

// ParseRevision classifies expr. A lone word like "release" parses as a
// Rego variable, which could never be evaluated, so it is a literal.
func ParseRevision(expr string) Revision {
	r := Revision{expr: expr}
	body, err := ast.ParseBody(expr)
	if err != nil || len(body) != 1 {
		return r
	}
	if term, ok := body[0].Terms.(*ast.Term); ok {
		if _, ok := term.Value.(ast.Var); ok {
			return r
		}
	}
	r.query = body
	return r
}

func (r Revision) String() string {
	return r.expr
}

func (r Revision) IsRego() bool {
	return r.query != nil
}

// Inputs lists the top level input documents the expression refers to,
// e.g. "commit" for `$"{input.name}-{input.commit}"`.
func (r Revision) Inputs() []string {
	if r.query == nil {
		return nil
	}

	var keys []string
	ast.WalkRefs(r.query, func(ref ast.Ref) bool {
		if !ref.HasPrefix(ast.InputRootRef) || len(ref) < 2 {
			return false
		}
		if key, ok := ref[1].Value.(ast.String); ok && !slices.Contains(keys, string(key)) {
			keys = append(keys, string(key))
		}
		return false
	})
	slices.Sort(keys)
	return keys
}

// Resolve returns the revision value. An expression that is undefined for
// input is an error.
func (r Revision) Resolve(ctx context.Context, input map[string]any) (string, error) {
	if r.query == nil {
		return os.ExpandEnv(r.expr), nil
	}

	opts := []func(*rego.Rego){rego.ParsedQuery(r.query)}
	if input != nil {
		opts = append(opts, rego.Input(input))
	}

	rs, err := rego.New(opts...).Eval(ctx)
	if err != nil {
		return "", fmt.Errorf("revision %s: %w", r.expr, err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return "", fmt.Errorf("revision %s: undefined", r.expr)
	}

	switch v := rs[0].Expressions[0].Value.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("revision %s: expected a string or number, got %T", r.expr, v)
	}
}
