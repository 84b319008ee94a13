package macro

import (
	"github.com/gnolang/mexp/internal/cst"
)

// Rule is one (pattern template) clause of a macro definition.
type Rule struct {
	Pattern  Pattern
	Template cst.Node
}

// Macro is a compiled def-macro form. It is never modified once defined.
type Macro struct {
	Name     string
	Literals Literals
	Rules    []Rule
	Pos      cst.Pos
}

// Registry holds the macros defined so far in one expansion pass.
// Names share a single flat namespace.
type Registry struct {
	macros map[string]*Macro
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{macros: make(map[string]*Macro)}
}

// Define adds m to the registry. Redefining a name is an error.
func (r *Registry) Define(m *Macro) error {
	if prev, ok := r.macros[m.Name]; ok {
		return errorf(DuplicateMacroName, m.Pos,
			"macro `%s` is already defined at %s", m.Name, prev.Pos)
	}
	r.macros[m.Name] = m
	r.order = append(r.order, m.Name)
	return nil
}

func (r *Registry) Lookup(name string) (*Macro, bool) {
	m, ok := r.macros[name]
	return m, ok
}

// Names returns the defined macro names in definition order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) Len() int { return len(r.macros) }

// ParseDefinition compiles a def-macro form:
//
//	(def-macro name (literal ...) (pattern template) ...)
//
// The literal list and each rule may use either parentheses or brackets.
func ParseDefinition(form *cst.SExpr) (*Macro, error) {
	if head, ok := form.Head(); !ok || head != KeywordDefMacro {
		return nil, errorf(Internal, form.Pos, "not a %s form: %s", KeywordDefMacro, form)
	}
	if len(form.Elems) < 2 {
		return nil, errorf(MalformedDefinition, form.Pos, "%s is missing a macro name", KeywordDefMacro)
	}

	nameNode, ok := form.Elems[1].(*cst.Ident)
	if !ok {
		return nil, errorf(MalformedDefinition, form.Elems[1].Position(),
			"macro name must be an identifier, found %s", form.Elems[1].Type())
	}
	if reserved[nameNode.Name] {
		return nil, errorf(MalformedDefinition, nameNode.Pos,
			"`%s` is reserved and cannot name a macro", nameNode.Name)
	}

	if len(form.Elems) < 3 {
		return nil, errorf(MalformedDefinition, form.Pos,
			"macro `%s` is missing its literal list", nameNode.Name)
	}
	literals, err := parseLiterals(form.Elems[2])
	if err != nil {
		return nil, err
	}

	m := &Macro{
		Name:     nameNode.Name,
		Literals: literals,
		Pos:      form.Pos,
	}
	for _, clause := range form.Elems[3:] {
		rule, err := parseRule(clause, literals)
		if err != nil {
			return nil, err
		}
		m.Rules = append(m.Rules, rule)
	}
	return m, nil
}

func parseLiterals(n cst.Node) (Literals, error) {
	elems, ok := cst.Elems(n)
	if !ok {
		return nil, errorf(MalformedDefinition, n.Position(),
			"expected literal list, found %s", n.Type())
	}
	literals := make(Literals, len(elems))
	for _, e := range elems {
		id, ok := e.(*cst.Ident)
		if !ok {
			return nil, errorf(MalformedDefinition, e.Position(),
				"literal must be an identifier, found %s", e.Type())
		}
		if id.Name == Ellipsis {
			return nil, errorf(MalformedDefinition, id.Pos, "`%s` cannot be a literal", Ellipsis)
		}
		literals[id.Name] = struct{}{}
	}
	return literals, nil
}

func parseRule(clause cst.Node, literals Literals) (Rule, error) {
	elems, ok := cst.Elems(clause)
	if !ok || len(elems) != 2 {
		return Rule{}, errorf(MalformedDefinition, clause.Position(),
			"macro rule must be a (pattern template) pair, found `%s`", clause)
	}
	pattern, err := ParsePattern(elems[0], literals)
	if err != nil {
		return Rule{}, err
	}
	return Rule{Pattern: pattern, Template: elems[1]}, nil
}
