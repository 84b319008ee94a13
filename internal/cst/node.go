// Package cst defines the concrete syntax tree shared by the reader and the
// macro expander.
//
// A tree is built from four node kinds: identifiers, parenthesized forms
// (SExpr), bracketed lists (List) and opaque literals. Nodes are never
// modified after construction; rewriting a tree always builds new nodes.
package cst

import (
	"strconv"
	"strings"
)

// NodeType identifies the shape of a node.
type NodeType int

const (
	NodeIdent NodeType = iota
	NodeSExpr
	NodeList
	NodeLiteral
)

func (t NodeType) String() string {
	switch t {
	case NodeIdent:
		return "identifier"
	case NodeSExpr:
		return "call form"
	case NodeList:
		return "list"
	case NodeLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// Node is implemented by *Ident, *SExpr, *List and *Literal only.
type Node interface {
	Type() NodeType
	String() string
	Position() Pos
	node()
}

var (
	_ Node = (*Ident)(nil)
	_ Node = (*SExpr)(nil)
	_ Node = (*List)(nil)
	_ Node = (*Literal)(nil)
)

// Ident is a bare symbol.
type Ident struct {
	Name string
	Pos  Pos
}

func NewIdent(name string, pos Pos) *Ident { return &Ident{Name: name, Pos: pos} }

func (i *Ident) Type() NodeType { return NodeIdent }
func (i *Ident) String() string { return i.Name }
func (i *Ident) Position() Pos  { return i.Pos }
func (*Ident) node()            {}

// SExpr is a parenthesized call or special form.
type SExpr struct {
	Elems []Node
	Pos   Pos
}

func NewSExpr(elems []Node, pos Pos) *SExpr { return &SExpr{Elems: elems, Pos: pos} }

func (s *SExpr) Type() NodeType { return NodeSExpr }
func (s *SExpr) String() string { return joinElems("(", s.Elems, ")") }
func (s *SExpr) Position() Pos  { return s.Pos }
func (*SExpr) node()            {}

// Head returns the first element's identifier name, if the first element is
// an identifier.
func (s *SExpr) Head() (string, bool) {
	if len(s.Elems) == 0 {
		return "", false
	}
	id, ok := s.Elems[0].(*Ident)
	if !ok {
		return "", false
	}
	return id.Name, true
}

// List is a bracketed sequence. Matching also produces lists to hold the
// captures of a repeated sub-pattern.
type List struct {
	Elems []Node
	Pos   Pos
}

func NewList(elems []Node, pos Pos) *List { return &List{Elems: elems, Pos: pos} }

func (l *List) Type() NodeType { return NodeList }
func (l *List) String() string { return joinElems("[", l.Elems, "]") }
func (l *List) Position() Pos  { return l.Pos }
func (*List) node()            {}

// LiteralKind distinguishes the literal forms the reader produces.
type LiteralKind int

const (
	LitNumber LiteralKind = iota
	LitString
)

// Literal is an atomic number or string. The expander never looks inside it.
type Literal struct {
	Kind  LiteralKind
	Value string
	Pos   Pos
}

func NewLiteral(kind LiteralKind, value string, pos Pos) *Literal {
	return &Literal{Kind: kind, Value: value, Pos: pos}
}

func (l *Literal) Type() NodeType { return NodeLiteral }
func (l *Literal) String() string {
	if l.Kind == LitString {
		return strconv.Quote(l.Value)
	}
	return l.Value
}
func (l *Literal) Position() Pos { return l.Pos }
func (*Literal) node()           {}

func joinElems(open string, elems []Node, close string) string {
	var sb strings.Builder
	sb.WriteString(open)
	for i, e := range elems {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(e.String())
	}
	sb.WriteString(close)
	return sb.String()
}

// Elems returns the children of a compound node and reports whether n is
// compound.
func Elems(n Node) ([]Node, bool) {
	switch v := n.(type) {
	case *SExpr:
		return v.Elems, true
	case *List:
		return v.Elems, true
	default:
		return nil, false
	}
}

// IsIdent reports whether n is the identifier name.
func IsIdent(n Node, name string) bool {
	id, ok := n.(*Ident)
	return ok && id.Name == name
}

// Equal reports whether a and b have the same structure, ignoring positions.
func Equal(a, b Node) bool {
	switch x := a.(type) {
	case *Ident:
		y, ok := b.(*Ident)
		return ok && x.Name == y.Name
	case *Literal:
		y, ok := b.(*Literal)
		return ok && x.Kind == y.Kind && x.Value == y.Value
	case *SExpr:
		y, ok := b.(*SExpr)
		return ok && equalElems(x.Elems, y.Elems)
	case *List:
		y, ok := b.(*List)
		return ok && equalElems(x.Elems, y.Elems)
	default:
		return a == nil && b == nil
	}
}

func equalElems(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// WithExpansionSite returns a copy of n in which every node is tagged with
// site as its expansion site.
func WithExpansionSite(n Node, site Pos) Node {
	switch v := n.(type) {
	case *Ident:
		return &Ident{Name: v.Name, Pos: v.Pos.InExpansion(site)}
	case *Literal:
		return &Literal{Kind: v.Kind, Value: v.Value, Pos: v.Pos.InExpansion(site)}
	case *SExpr:
		return &SExpr{Elems: tagElems(v.Elems, site), Pos: v.Pos.InExpansion(site)}
	case *List:
		return &List{Elems: tagElems(v.Elems, site), Pos: v.Pos.InExpansion(site)}
	default:
		return n
	}
}

func tagElems(elems []Node, site Pos) []Node {
	out := make([]Node, len(elems))
	for i, e := range elems {
		out[i] = WithExpansionSite(e, site)
	}
	return out
}

// SpanOf returns a span covering nodes, or fallback when nodes is empty.
func SpanOf(nodes []Node, fallback Pos) Pos {
	if len(nodes) == 0 {
		return fallback
	}
	return nodes[0].Position().To(nodes[len(nodes)-1].Position())
}

// Join renders nodes separated by single spaces.
func Join(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, " ")
}
