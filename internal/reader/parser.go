// Package reader turns source text into the syntax trees consumed by the
// macro expander.
//
// Grammar:
//
//	form    = atom | string | "(" form* ")" | "[" form* "]"
//	comment = ";" ... end of line
//
// Atoms that spell a number become number literals, every other atom is an
// identifier.
package reader

import (
	"fmt"
	"os"

	"github.com/gnolang/mexp/internal/cst"
)

// Parser consumes tokens produced by the lexer and builds syntax trees.
type Parser struct {
	filename string
	tokens   []Token
	current  int
}

// NewParser creates a new Parser instance
func NewParser(filename string, tokens []Token) *Parser {
	return &Parser{
		filename: filename,
		tokens:   tokens,
	}
}

// Read lexes and parses src, returning the top-level forms in order.
func Read(filename, src string) ([]cst.Node, error) {
	tokens, err := Lex(src)
	if err != nil {
		if e, ok := err.(*Error); ok {
			e.Filename = filename
		}
		return nil, err
	}
	return NewParser(filename, tokens).Parse()
}

// ReadFile reads and parses the file at path.
func ReadFile(path string) ([]cst.Node, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Read(path, string(content))
}

// Parse processes all tokens and returns the top-level forms.
func (p *Parser) Parse() ([]cst.Node, error) {
	var forms []cst.Node
	for p.peek().Type != TokenEOF {
		node, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		forms = append(forms, node)
	}
	return forms, nil
}

func (p *Parser) peek() Token {
	if p.current >= len(p.tokens) {
		// Lex always terminates the stream with EOF, but a hand-built
		// token slice may not.
		if len(p.tokens) == 0 {
			return Token{Type: TokenEOF, Line: 1, Col: 1, EndLine: 1, EndCol: 1}
		}
		last := p.tokens[len(p.tokens)-1]
		return Token{Type: TokenEOF, Line: last.EndLine, Col: last.EndCol, EndLine: last.EndLine, EndCol: last.EndCol}
	}
	return p.tokens[p.current]
}

// parseNode parses a single form based on the current token
func (p *Parser) parseNode() (cst.Node, error) {
	token := p.peek()

	switch token.Type {
	case TokenAtom:
		p.current++
		pos := p.pos(token, token)
		if isNumber(token.Value) {
			return cst.NewLiteral(cst.LitNumber, token.Value, pos), nil
		}
		return cst.NewIdent(token.Value, pos), nil
	case TokenString:
		p.current++
		return cst.NewLiteral(cst.LitString, token.Value, p.pos(token, token)), nil
	case TokenLParen:
		elems, end, err := p.parseSeq(token, TokenRParen)
		if err != nil {
			return nil, err
		}
		return cst.NewSExpr(elems, p.pos(token, end)), nil
	case TokenLBrack:
		elems, end, err := p.parseSeq(token, TokenRBrack)
		if err != nil {
			return nil, err
		}
		return cst.NewList(elems, p.pos(token, end)), nil
	case TokenEOF:
		return nil, p.errorf(token, "unexpected end of input")
	default:
		return nil, p.errorf(token, "unexpected %s", token.Type)
	}
}

// parseSeq parses forms until the closing delimiter that matches open.
func (p *Parser) parseSeq(open Token, closing TokenType) ([]cst.Node, Token, error) {
	p.current++

	elems := make([]cst.Node, 0)
	for {
		token := p.peek()
		switch token.Type {
		case closing:
			p.current++
			return elems, token, nil
		case TokenEOF:
			err := p.errorf(open, "unclosed %s", open.Type)
			err.Incomplete = true
			return nil, token, err
		case TokenRParen, TokenRBrack:
			return nil, token, p.errorf(token, "unexpected %s, expected %s", token.Type, closing)
		}

		node, err := p.parseNode()
		if err != nil {
			return nil, token, err
		}
		elems = append(elems, node)
	}
}

func (p *Parser) pos(start, end Token) cst.Pos {
	return cst.NewPos(p.filename, start.Line, start.Col, end.EndLine, end.EndCol)
}

func (p *Parser) errorf(at Token, format string, args ...any) *Error {
	return &Error{
		Filename: p.filename,
		Line:     at.Line,
		Col:      at.Col,
		Msg:      fmt.Sprintf(format, args...),
	}
}
