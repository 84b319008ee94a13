package macro

import (
	"github.com/gnolang/mexp/internal/cst"
)

// Substitute instantiates template with bindings.
//
// A bound identifier is replaced by its captured tree as is; the captured
// tree is not searched for further variables. A sub-template followed by an
// ellipsis is repeated once per element of the sequences it references, and
// a form headed by macro-quote is replaced by its single argument without
// substitution.
func Substitute(template cst.Node, bindings Bindings) (cst.Node, error) {
	out, keep, err := subst(template, bindings)
	if err != nil {
		return nil, err
	}
	if !keep {
		return nil, errorf(Internal, template.Position(), "template `%s` vanished outside of a repetition", template)
	}
	return out, nil
}

// subst returns keep == false when the template was a sequence variable with
// nothing left to contribute to the current repetition.
func subst(template cst.Node, bindings Bindings) (cst.Node, bool, error) {
	switch t := template.(type) {
	case *cst.Ident:
		b, ok := bindings[t.Name]
		if !ok {
			return t, true, nil
		}
		if b.Node == nil {
			return nil, false, nil
		}
		return b.Node, true, nil
	case *cst.SExpr:
		if quoted, ok, err := macroQuoted(t.Elems, t.Pos); ok || err != nil {
			return quoted, err == nil, err
		}
		elems, err := substElems(t.Elems, bindings)
		if err != nil {
			return nil, false, err
		}
		return cst.NewSExpr(elems, t.Pos), true, nil
	case *cst.List:
		if quoted, ok, err := macroQuoted(t.Elems, t.Pos); ok || err != nil {
			return quoted, err == nil, err
		}
		elems, err := substElems(t.Elems, bindings)
		if err != nil {
			return nil, false, err
		}
		return cst.NewList(elems, t.Pos), true, nil
	case *cst.Literal:
		return t, true, nil
	default:
		return nil, false, errorf(Internal, cst.Pos{}, "unexpected template node %T", template)
	}
}

// macroQuoted reports whether elems form a macro-quote escape and, if so,
// returns the quoted tree.
func macroQuoted(elems []cst.Node, pos cst.Pos) (cst.Node, bool, error) {
	if len(elems) == 0 || !cst.IsIdent(elems[0], KeywordMacroQuote) {
		return nil, false, nil
	}
	if len(elems) != 2 {
		return nil, true, errorf(ArityMismatch, pos,
			"`%s` expects exactly 1 argument, found %d", KeywordMacroQuote, len(elems)-1)
	}
	return elems[1], true, nil
}

func substElems(elems []cst.Node, bindings Bindings) ([]cst.Node, error) {
	out := make([]cst.Node, 0, len(elems))
	for i := 0; i < len(elems); i++ {
		elem := elems[i]
		if cst.IsIdent(elem, Ellipsis) {
			continue
		}

		if i+1 < len(elems) && cst.IsIdent(elems[i+1], Ellipsis) {
			spliced, err := flatten(elem, bindings)
			if err != nil {
				return nil, err
			}
			out = append(out, spliced...)
			i++
			continue
		}

		n, keep, err := subst(elem, bindings)
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, n)
		}
	}
	return out, nil
}

// flatten instantiates sub once per index of the longest sequence it
// references. A shorter sequence repeats its last element; an empty one
// makes its occurrences vanish.
func flatten(sub cst.Node, bindings Bindings) ([]cst.Node, error) {
	names := sequenceVars(sub, bindings)
	if len(names) == 0 {
		return nil, errorf(EmptySequenceFlatten, sub.Position(),
			"`%s` is followed by `%s` but references no sequence variable", sub, Ellipsis)
	}

	seqs := make(map[string][]cst.Node, len(names))
	n := 0
	for _, name := range names {
		var items []cst.Node
		if l, ok := bindings[name].Node.(*cst.List); ok {
			items = l.Elems
		}
		seqs[name] = items
		n = max(n, len(items))
	}

	out := make([]cst.Node, 0, n)
	for i := 0; i < n; i++ {
		iter := make(Bindings, len(bindings))
		iter.merge(bindings)
		for name, items := range seqs {
			depth := bindings[name].Depth - 1
			switch {
			case len(items) == 0:
				iter[name] = Binding{Depth: depth}
			case i < len(items):
				iter[name] = Binding{Node: items[i], Depth: depth}
			default:
				iter[name] = Binding{Node: items[len(items)-1], Depth: depth}
			}
		}

		node, keep, err := subst(sub, iter)
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, node)
		}
	}
	return out, nil
}

// sequenceVars lists the sequence-bound variables referenced in template,
// in order of first occurrence. macro-quote bodies are not searched.
func sequenceVars(template cst.Node, bindings Bindings) []string {
	var names []string
	seen := make(map[string]bool)

	var walk func(cst.Node)
	walk = func(n cst.Node) {
		switch n := n.(type) {
		case *cst.Ident:
			if b, ok := bindings[n.Name]; ok && b.Depth > 0 && !seen[n.Name] {
				seen[n.Name] = true
				names = append(names, n.Name)
			}
		case *cst.SExpr, *cst.List:
			elems, _ := cst.Elems(n)
			if len(elems) > 0 && cst.IsIdent(elems[0], KeywordMacroQuote) {
				return
			}
			for _, e := range elems {
				walk(e)
			}
		}
	}
	walk(template)
	return names
}
