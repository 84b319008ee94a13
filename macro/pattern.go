package macro

import (
	"fmt"
	"strings"

	"github.com/gnolang/mexp/internal/cst"
)

// Reserved identifiers. They act as keywords whatever the registry holds.
const (
	Ellipsis           = "..."
	KeywordQuote       = "quote"
	KeywordDefMacro    = "def-macro"
	KeywordMacroQuote  = "macro-quote"
	KeywordMacroEscape = "macro-escape"
)

var reserved = map[string]bool{
	Ellipsis:           true,
	KeywordQuote:       true,
	KeywordDefMacro:    true,
	KeywordMacroQuote:  true,
	KeywordMacroEscape: true,
}

// Literals is the set of identifiers a macro matches verbatim.
type Literals map[string]struct{}

func NewLiterals(names ...string) Literals {
	l := make(Literals, len(names))
	for _, n := range names {
		l[n] = struct{}{}
	}
	return l
}

func (l Literals) Contains(name string) bool {
	_, ok := l[name]
	return ok
}

// Pattern is a compiled macro pattern. It mirrors the shape of the syntax
// tree it matches: *IdentPattern, *SExprPattern or *ListPattern.
type Pattern interface {
	String() string
	pattern()
}

var (
	_ Pattern = (*IdentPattern)(nil)
	_ Pattern = (*SExprPattern)(nil)
	_ Pattern = (*ListPattern)(nil)
)

// IdentPattern is either a syntax literal or a pattern variable, depending
// on the literal set of the macro it belongs to. The ellipsis marker is also
// kept as an IdentPattern.
type IdentPattern struct {
	Name string
}

func (p *IdentPattern) String() string { return p.Name }
func (*IdentPattern) pattern()         {}

// SExprPattern matches a call form element by element.
// Escaped is set when the source list began with macro-escape; such lists
// skip the ambiguity check.
type SExprPattern struct {
	Elems   []Pattern
	Escaped bool
}

func (p *SExprPattern) String() string { return joinPatterns("(", p.Elems, p.Escaped, ")") }
func (*SExprPattern) pattern()         {}

// ListPattern matches a bracketed list element by element.
type ListPattern struct {
	Elems   []Pattern
	Escaped bool
}

func (p *ListPattern) String() string { return joinPatterns("[", p.Elems, p.Escaped, "]") }
func (*ListPattern) pattern()         {}

func joinPatterns(open string, elems []Pattern, escaped bool, close string) string {
	parts := make([]string, 0, len(elems)+1)
	if escaped {
		parts = append(parts, KeywordMacroEscape)
	}
	for _, e := range elems {
		parts = append(parts, e.String())
	}
	return open + strings.Join(parts, " ") + close
}

func isEllipsis(p Pattern) bool {
	ip, ok := p.(*IdentPattern)
	return ok && ip.Name == Ellipsis
}

// ParsePattern compiles the pattern written as tree. Identifiers found in
// literals match verbatim; every other identifier becomes a variable.
func ParsePattern(tree cst.Node, literals Literals) (Pattern, error) {
	p, err := parsePattern(tree, literals)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var dup string
	walkVariables(p, literals, 0, func(name string, _ int) {
		if seen[name] && dup == "" {
			dup = name
		}
		seen[name] = true
	})
	if dup != "" {
		return nil, errorf(MalformedPattern, tree.Position(), "pattern variable `%s` is bound more than once", dup)
	}
	return p, nil
}

func parsePattern(tree cst.Node, literals Literals) (Pattern, error) {
	switch t := tree.(type) {
	case *cst.Ident:
		return &IdentPattern{Name: t.Name}, nil
	case *cst.SExpr:
		elems, escaped, err := parsePatternList(t.Elems, t.Pos, literals)
		if err != nil {
			return nil, err
		}
		return &SExprPattern{Elems: elems, Escaped: escaped}, nil
	case *cst.List:
		elems, escaped, err := parsePatternList(t.Elems, t.Pos, literals)
		if err != nil {
			return nil, err
		}
		return &ListPattern{Elems: elems, Escaped: escaped}, nil
	case *cst.Literal:
		return nil, errorf(MalformedPattern, t.Pos, "expected identifier or list in pattern, found literal %s", t)
	default:
		return nil, fmt.Errorf("unexpected syntax node %T", tree)
	}
}

func parsePatternList(trees []cst.Node, pos cst.Pos, literals Literals) ([]Pattern, bool, error) {
	escaped := false
	if len(trees) > 0 && cst.IsIdent(trees[0], KeywordMacroEscape) {
		escaped = true
		trees = trees[1:]
	}

	patts := make([]Pattern, 0, len(trees))
	for i, tree := range trees {
		if cst.IsIdent(tree, Ellipsis) {
			if i == 0 {
				return nil, false, errorf(MalformedPattern, tree.Position(), "ellipsis must follow a sub-pattern")
			}
			if cst.IsIdent(trees[i-1], Ellipsis) {
				return nil, false, errorf(MalformedPattern, tree.Position(), "ellipsis cannot follow another ellipsis")
			}
		}
		p, err := parsePattern(tree, literals)
		if err != nil {
			return nil, false, err
		}
		patts = append(patts, p)
	}

	if !escaped && !unambiguousSequences(patts, literals) {
		return nil, false, errorf(AmbiguousPattern, pos,
			"ambiguous pattern: repeated sub-patterns must be separated by a pattern containing a literal")
	}
	return patts, escaped, nil
}

// unambiguousSequences reports whether every pair of repeated sub-patterns
// in patts is separated by a pattern containing a literal. Without one, the
// arguments could be split between the two repetitions in more than one way.
func unambiguousSequences(patts []Pattern, literals Literals) bool {
	inSequence := false
	for _, p := range patts {
		switch {
		case isEllipsis(p) && inSequence:
			return false
		case isEllipsis(p):
			inSequence = true
		case containsLiteral(p, literals):
			inSequence = false
		}
	}
	return true
}

// containsLiteral reports whether a syntax literal occurs anywhere in p.
func containsLiteral(p Pattern, literals Literals) bool {
	switch p := p.(type) {
	case *IdentPattern:
		return p.Name != Ellipsis && literals.Contains(p.Name)
	case *SExprPattern:
		return anyContainsLiteral(p.Elems, literals)
	case *ListPattern:
		return anyContainsLiteral(p.Elems, literals)
	default:
		return false
	}
}

func anyContainsLiteral(patts []Pattern, literals Literals) bool {
	for _, p := range patts {
		if containsLiteral(p, literals) {
			return true
		}
	}
	return false
}

// VariableNames returns the names p binds when it matches, in order of
// appearance.
func VariableNames(p Pattern, literals Literals) []string {
	var names []string
	walkVariables(p, literals, 0, func(name string, _ int) {
		names = append(names, name)
	})
	return names
}

// variableDepths maps each variable of p to its ellipsis depth: 0 for a
// singular match, n for a variable under n nested repetitions.
func variableDepths(p Pattern, literals Literals) map[string]int {
	depths := make(map[string]int)
	walkVariables(p, literals, 0, func(name string, depth int) {
		depths[name] = depth
	})
	return depths
}

func walkVariables(p Pattern, literals Literals, depth int, visit func(name string, depth int)) {
	switch p := p.(type) {
	case *IdentPattern:
		if p.Name != Ellipsis && !literals.Contains(p.Name) {
			visit(p.Name, depth)
		}
	case *SExprPattern:
		walkVariableList(p.Elems, literals, depth, visit)
	case *ListPattern:
		walkVariableList(p.Elems, literals, depth, visit)
	}
}

func walkVariableList(patts []Pattern, literals Literals, depth int, visit func(string, int)) {
	for i, p := range patts {
		d := depth
		if i+1 < len(patts) && isEllipsis(patts[i+1]) {
			d++
		}
		walkVariables(p, literals, d, visit)
	}
}
