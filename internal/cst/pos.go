package cst

import (
	"fmt"
	"go/token"
)

// Pos is the source span of a node.
//
// Site points at the position of the macro invocation that produced the
// node, if any. Sites form a chain: the site of a site is the invocation
// that produced the inner invocation, up to a node written by the user.
type Pos struct {
	Start token.Position
	End   token.Position
	Site  *Pos
}

// NewPos returns a span inside filename.
func NewPos(filename string, startLine, startCol, endLine, endCol int) Pos {
	return Pos{
		Start: token.Position{Filename: filename, Line: startLine, Column: startCol},
		End:   token.Position{Filename: filename, Line: endLine, Column: endCol},
	}
}

// IsValid reports whether the span carries location information.
func (p Pos) IsValid() bool { return p.Start.IsValid() }

// To returns a span from the start of p to the end of q.
func (p Pos) To(q Pos) Pos {
	return Pos{Start: p.Start, End: q.End, Site: p.Site}
}

// InExpansion returns p tagged with site as its expansion site.
func (p Pos) InExpansion(site Pos) Pos {
	s := site
	p.Site = &s
	return p
}

// Sites returns the expansion-site chain, innermost invocation first.
func (p Pos) Sites() []Pos {
	var sites []Pos
	for s := p.Site; s != nil; s = s.Site {
		sites = append(sites, *s)
	}
	return sites
}

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	if p.Start.Filename == "" {
		return fmt.Sprintf("%d:%d", p.Start.Line, p.Start.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.Start.Filename, p.Start.Line, p.Start.Column)
}
