// Package validate attaches expression-based body validation to a store
// pipeline. Rules are expr programs evaluated against the effective record
// state; the first failing rule aborts the write.
package validate

import (
	"context"
	"errors"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/mobily-enterprises/jsonreststores-3/pkg/store"
)

// ErrRuleFailed is wrapped into every rule rejection so callers can detect
// validation failures with errors.Is.
var ErrRuleFailed = errors.New("validate: rule failed")

// Rule is one named boolean expression. Fields read the record directly:
// `title != nil && title != ""`.
type Rule struct {
	Name string `yaml:"name"`
	Expr string `yaml:"expr"`
}

type compiledRule struct {
	name    string
	program *vm.Program
}

// Plugin runs its rules at the validate stage of create, update and upsert.
type Plugin struct {
	rules []compiledRule
}

// New compiles all rules up front. A rule that does not compile is a
// configuration error and no plugin is built.
func New(rules []Rule) (*Plugin, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		if r.Name == "" {
			return nil, errors.New("validate: rule without a name")
		}
		program, err := expr.Compile(r.Expr,
			expr.Env(map[string]any{}),
			expr.AllowUndefinedVariables(),
			expr.AsBool(),
		)
		if err != nil {
			return nil, fmt.Errorf("validate: compile rule %s: %w", r.Name, err)
		}
		compiled = append(compiled, compiledRule{name: r.Name, program: program})
	}
	return &Plugin{rules: compiled}, nil
}

func (p *Plugin) Name() string {
	return "validate"
}

func (p *Plugin) Install(h *store.Hooks) error {
	for _, kind := range []store.Kind{store.KindCreate, store.KindUpdate, store.KindUpsert} {
		h.Register(kind, store.StageValidate, p.hook)
	}
	return nil
}

// hook evaluates the rules against the record as it would look after the
// write: the fetched row, when there is one, overlaid with the body.
func (p *Plugin) hook(ctx context.Context, req *store.Request) error {
	if len(p.rules) == 0 {
		return nil
	}
	body, err := store.DecodeBody(req.Body)
	if err != nil {
		return err
	}
	env := make(map[string]any, len(req.Record)+len(body))
	for k, v := range req.Record {
		env[k] = v
	}
	for k, v := range body {
		env[k] = v
	}

	for _, r := range p.rules {
		out, err := expr.Run(r.program, env)
		if err != nil {
			return fmt.Errorf("validate: rule %s: %w", r.name, err)
		}
		if ok, _ := out.(bool); !ok {
			return fmt.Errorf("%w: %s", ErrRuleFailed, r.name)
		}
	}
	return nil
}
