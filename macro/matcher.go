package macro

import (
	"github.com/gnolang/mexp/internal/cst"
)

// Binding is the value captured by one pattern variable.
//
// Depth 0 is a singular match. A variable under n repetitions has Depth n
// and its Node is a *cst.List whose elements have Depth n-1. Node is nil
// only inside a template iteration, for a sequence that has no element to
// offer.
type Binding struct {
	Node  cst.Node
	Depth int
}

// Bindings maps pattern variable names to their captures.
type Bindings map[string]Binding

func (b Bindings) merge(other Bindings) {
	for name, v := range other {
		b[name] = v
	}
}

// MatchArgs matches the arguments of a macro invocation against a rule
// pattern. A compound pattern is matched element-wise against args; a bare
// variable captures all of args as a sequence.
func MatchArgs(p Pattern, args []cst.Node, at cst.Pos, literals Literals) (Bindings, bool, error) {
	switch p := p.(type) {
	case *IdentPattern:
		if p.Name == Ellipsis || literals.Contains(p.Name) {
			return nil, false, nil
		}
		seq := cst.NewList(args, cst.SpanOf(args, at))
		return Bindings{p.Name: {Node: seq, Depth: 1}}, true, nil
	case *SExprPattern:
		return MatchAll(p.Elems, args, at, literals)
	case *ListPattern:
		return MatchAll(p.Elems, args, at, literals)
	default:
		return nil, false, nil
	}
}

// Match matches a single tree against p. The boolean result is false when
// the tree does not match; a non-nil error is always an Internal one.
func Match(p Pattern, tree cst.Node, literals Literals) (Bindings, bool, error) {
	switch t := tree.(type) {
	case *cst.Ident:
		return matchIdent(p, t, literals)
	case *cst.SExpr:
		return matchSExpr(p, t, literals)
	case *cst.List:
		return matchList(p, t, literals)
	case *cst.Literal:
		return bindVariable(p, t, literals)
	default:
		return nil, false, nil
	}
}

func matchIdent(p Pattern, tree *cst.Ident, literals Literals) (Bindings, bool, error) {
	ip, ok := p.(*IdentPattern)
	if !ok {
		return nil, false, nil
	}
	if literals.Contains(ip.Name) {
		if ip.Name != tree.Name {
			return nil, false, nil
		}
		return Bindings{}, true, nil
	}
	return bindVariable(p, tree, literals)
}

func matchSExpr(p Pattern, tree *cst.SExpr, literals Literals) (Bindings, bool, error) {
	switch p := p.(type) {
	case *IdentPattern:
		return bindVariable(p, tree, literals)
	case *SExprPattern:
		return MatchAll(p.Elems, tree.Elems, tree.Pos, literals)
	default:
		return nil, false, nil
	}
}

func matchList(p Pattern, tree *cst.List, literals Literals) (Bindings, bool, error) {
	switch p := p.(type) {
	case *IdentPattern:
		return bindVariable(p, tree, literals)
	case *ListPattern:
		return MatchAll(p.Elems, tree.Elems, tree.Pos, literals)
	default:
		return nil, false, nil
	}
}

// bindVariable binds tree to p when p is a pattern variable.
func bindVariable(p Pattern, tree cst.Node, literals Literals) (Bindings, bool, error) {
	ip, ok := p.(*IdentPattern)
	if !ok || ip.Name == Ellipsis || literals.Contains(ip.Name) {
		return nil, false, nil
	}
	return Bindings{ip.Name: {Node: tree}}, true, nil
}

// MatchAll matches args against a pattern list, left to right.
//
// A sub-pattern followed by an ellipsis is matched greedily, without
// backtracking. The repetition ends at the first argument that matches the
// next literal-containing pattern, or else leaves exactly as many arguments
// as the remaining patterns need. The ambiguity check run when the pattern
// was compiled guarantees that this split is the only one possible.
//
// at is the position used for empty sequence captures.
func MatchAll(patts []Pattern, args []cst.Node, at cst.Pos, literals Literals) (Bindings, bool, error) {
	bindings := make(Bindings)
	ai := 0

	for pi := 0; pi < len(patts); pi++ {
		p := patts[pi]

		if pi+1 < len(patts) && isEllipsis(patts[pi+1]) {
			rest := patts[pi+2:]
			n, ok, err := repeatExtent(rest, args[ai:], literals)
			if err != nil || !ok {
				return nil, false, err
			}

			bound, ok, err := matchRepeat(p, args[ai:ai+n], at, literals)
			if err != nil || !ok {
				return nil, false, err
			}
			bindings.merge(bound)
			ai += n
			pi++ // skip the ellipsis
			continue
		}

		if ai >= len(args) {
			return nil, false, nil
		}
		bound, ok, err := Match(p, args[ai], literals)
		if err != nil || !ok {
			return nil, false, err
		}
		bindings.merge(bound)
		ai++
	}

	// every argument must be consumed
	if ai != len(args) {
		return nil, false, nil
	}
	return bindings, true, nil
}

// repeatExtent returns how many leading args a repetition consumes, given
// the patterns that follow its ellipsis.
func repeatExtent(rest []Pattern, args []cst.Node, literals Literals) (int, bool, error) {
	delim := -1
	for i, p := range rest {
		if !isEllipsis(p) && containsLiteral(p, literals) {
			delim = i
			break
		}
	}

	if delim < 0 {
		n := len(args) - requiredArgs(rest)
		return n, n >= 0, nil
	}

	// The repetition stops in front of the first argument matching the
	// delimiter; the fixed patterns between the ellipsis and the delimiter
	// take the arguments just before it.
	for j, arg := range args {
		_, ok, err := Match(rest[delim], arg, literals)
		if err != nil {
			return 0, false, err
		}
		if ok {
			n := j - requiredArgs(rest[:delim])
			return n, n >= 0, nil
		}
	}
	return 0, false, nil
}

// requiredArgs counts the arguments patts consumes at minimum: repeated
// sub-patterns may match nothing.
func requiredArgs(patts []Pattern) int {
	n := 0
	for i, p := range patts {
		if isEllipsis(p) {
			continue
		}
		if i+1 < len(patts) && isEllipsis(patts[i+1]) {
			continue
		}
		n++
	}
	return n
}

// matchRepeat matches every arg against p and zips the captures of each
// variable into one list, in argument order.
func matchRepeat(p Pattern, args []cst.Node, at cst.Pos, literals Literals) (Bindings, bool, error) {
	// Seed every variable so that a zero-length repetition still binds
	// each of them to an empty sequence.
	depths := variableDepths(p, literals)
	captured := make(map[string][]cst.Node, len(depths))
	for name := range depths {
		captured[name] = []cst.Node{}
	}

	for _, arg := range args {
		bound, ok, err := Match(p, arg, literals)
		if err != nil || !ok {
			return nil, false, err
		}
		if len(bound) != len(depths) {
			return nil, false, errorf(Internal, arg.Position(),
				"pattern %s bound %d variables, expected %d", p, len(bound), len(depths))
		}
		for name, v := range bound {
			depth, seeded := depths[name]
			if !seeded || v.Depth != depth {
				return nil, false, errorf(Internal, arg.Position(),
					"pattern %s produced unexpected variable `%s` at depth %d", p, name, v.Depth)
			}
			captured[name] = append(captured[name], v.Node)
		}
	}

	span := cst.SpanOf(args, at)
	bindings := make(Bindings, len(captured))
	for name, nodes := range captured {
		bindings[name] = Binding{Node: cst.NewList(nodes, span), Depth: depths[name] + 1}
	}
	return bindings, true, nil
}
