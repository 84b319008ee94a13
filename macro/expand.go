// Package macro implements macro-by-example expansion over cst trees.
//
// A macro is defined with
//
//	(def-macro name (literal ...) (pattern template) ...)
//
// and invoked as an ordinary call form headed by its name. Rules are tried in
// declaration order against the invocation arguments; the template of the
// first matching rule is instantiated and expanded again, so invocations
// produced by an expansion are themselves expanded.
//
// Expansion is not hygienic: identifiers introduced by a template are
// inserted as written and may capture, or be captured by, identifiers at the
// call site.
package macro

import (
	"go.uber.org/zap"

	"github.com/gnolang/mexp/internal/cst"
)

// DefaultMaxDepth bounds nested macro applications when Options.MaxDepth is
// left at zero.
const DefaultMaxDepth = 1000

type Options struct {
	// MaxDepth is the maximum number of nested macro applications. Zero
	// selects DefaultMaxDepth; a negative value disables the limit.
	MaxDepth int
	Logger   *zap.Logger
}

// Expander runs one expansion pass. Macros defined through it remain visible
// to every later call of Expand on the same Expander.
//
// An Expander is not safe for concurrent use.
type Expander struct {
	registry *Registry
	logger   *zap.Logger
	maxDepth int
	depth    int
}

func NewExpander(opts Options) *Expander {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxDepth := opts.MaxDepth
	if maxDepth == 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Expander{
		registry: NewRegistry(),
		logger:   logger,
		maxDepth: maxDepth,
	}
}

func (e *Expander) Registry() *Registry { return e.registry }

// Expand rewrites tree until it contains no definitions and no invocations of
// registered macros. The boolean result is false when the tree vanished,
// which is the case for a definition.
func (e *Expander) Expand(tree cst.Node) (cst.Node, bool, error) {
	switch t := tree.(type) {
	case *cst.SExpr:
		return e.expandSExpr(t)
	case *cst.List:
		elems, err := e.expandElems(t.Elems)
		if err != nil {
			return nil, false, err
		}
		return cst.NewList(elems, t.Pos), true, nil
	default:
		return tree, true, nil
	}
}

func (e *Expander) expandSExpr(form *cst.SExpr) (cst.Node, bool, error) {
	head, _ := form.Head()
	switch head {
	case KeywordQuote:
		return form, true, nil
	case KeywordDefMacro:
		m, err := ParseDefinition(form)
		if err != nil {
			return nil, false, err
		}
		if err := e.registry.Define(m); err != nil {
			return nil, false, err
		}
		e.logger.Debug("macro defined",
			zap.String("macro", m.Name),
			zap.Int("rules", len(m.Rules)),
			zap.Stringer("pos", m.Pos))
		return nil, false, nil
	}

	if m, ok := e.registry.Lookup(head); ok {
		return e.apply(m, form)
	}

	elems, err := e.expandElems(form.Elems)
	if err != nil {
		return nil, false, err
	}
	return cst.NewSExpr(elems, form.Pos), true, nil
}

func (e *Expander) expandElems(elems []cst.Node) ([]cst.Node, error) {
	out := make([]cst.Node, 0, len(elems))
	for _, elem := range elems {
		n, keep, err := e.Expand(elem)
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, n)
		}
	}
	return out, nil
}

// apply expands one invocation of m. The result is expanded again before it
// is returned, so an invocation whose template is a definition vanishes.
func (e *Expander) apply(m *Macro, form *cst.SExpr) (cst.Node, bool, error) {
	if e.maxDepth > 0 && e.depth >= e.maxDepth {
		return nil, false, errorf(RecursionLimitExceeded, form.Pos,
			"expansion of macro `%s` exceeded the maximum depth of %d", m.Name, e.maxDepth)
	}

	args := form.Elems[1:]
	for i, rule := range m.Rules {
		bindings, ok, err := MatchArgs(rule.Pattern, args, form.Pos, m.Literals)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			continue
		}

		out, err := Substitute(rule.Template, bindings)
		if err != nil {
			return nil, false, err
		}
		out = cst.WithExpansionSite(out, form.Pos)

		e.logger.Debug("macro applied",
			zap.String("macro", m.Name),
			zap.Int("rule", i),
			zap.Int("depth", e.depth),
			zap.Stringer("pos", form.Pos))

		e.depth++
		defer func() { e.depth-- }()
		return e.Expand(out)
	}

	return nil, false, errorf(NoRuleMatched, form.Pos,
		"no rule of macro `%s` matched arguments (%s)", m.Name, cst.Join(args))
}

// ExpandProgram expands forms in order within a single pass and returns the
// forms that remain. Macros are visible from their definition onward.
func ExpandProgram(forms []cst.Node, opts Options) ([]cst.Node, error) {
	e := NewExpander(opts)
	out := make([]cst.Node, 0, len(forms))
	for _, form := range forms {
		n, keep, err := e.Expand(form)
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, n)
		}
	}
	return out, nil
}
