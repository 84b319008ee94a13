package reader

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenType defines the type of a token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenLParen
	TokenRParen
	TokenLBrack
	TokenRBrack
	TokenAtom
	TokenString
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenLParen:
		return "'('"
	case TokenRParen:
		return "')'"
	case TokenLBrack:
		return "'['"
	case TokenRBrack:
		return "']'"
	case TokenAtom:
		return "Atom"
	case TokenString:
		return "String"
	default:
		return "Unknown"
	}
}

// Token represents a lexical token.
// Line and Col are 1-based and point at the first character; EndCol points
// one past the last character on EndLine.
type Token struct {
	Type    TokenType
	Value   string
	Line    int
	Col     int
	EndLine int
	EndCol  int
}

// Error is a lexical or syntax error at a source location.
type Error struct {
	Filename string
	Line     int
	Col      int
	Msg      string

	// Incomplete is set when the input ended inside a form or string, so
	// that more input could make it valid.
	Incomplete bool
}

func (e *Error) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.Filename, e.Line, e.Col, e.Msg)
	}
	return fmt.Sprintf("line %d col %d: %s", e.Line, e.Col, e.Msg)
}

// IsIncomplete reports whether err is a reader error caused by input that
// ended too early.
func IsIncomplete(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Incomplete
}

// Lex performs lexical analysis on the input string
// and returns a sequence of tokens.
func Lex(input string) ([]Token, error) {
	var tokens []Token

	line, col := 1, 1
	i := 0

	// columns count bytes, like go/token
	advance := func() {
		r, size := utf8.DecodeRuneInString(input[i:])
		if r == '\n' {
			line++
			col = 1
		} else {
			col += size
		}
		i += size
	}

	for i < len(input) {
		c, _ := utf8.DecodeRuneInString(input[i:])

		if isWhitespace(c) {
			advance()
			continue
		}

		// Comment until the end of the line
		if c == ';' {
			for i < len(input) && input[i] != '\n' {
				advance()
			}
			continue
		}

		if typ, ok := delimiters[c]; ok {
			tokens = append(tokens, Token{
				Type:    typ,
				Value:   string(c),
				Line:    line,
				Col:     col,
				EndLine: line,
				EndCol:  col + 1,
			})
			advance()
			continue
		}

		if c == '"' {
			startLine, startCol := line, col
			advance()

			var sb strings.Builder
			terminated := false
			for i < len(input) {
				ch := input[i]
				if ch == '"' {
					advance()
					terminated = true
					break
				}
				if ch == '\\' {
					if i+1 >= len(input) {
						return nil, &Error{Line: line, Col: col, Msg: "'\\' escape is at the end of input", Incomplete: true}
					}
					esc, ok := escapes[input[i+1]]
					if !ok {
						r, _ := utf8.DecodeRuneInString(input[i+1:])
						return nil, &Error{Line: line, Col: col, Msg: fmt.Sprintf("unknown escape sequence '\\%c'", r)}
					}
					sb.WriteByte(esc)
					advance()
					advance()
					continue
				}
				start := i
				advance()
				sb.WriteString(input[start:i])
			}
			if !terminated {
				return nil, &Error{Line: startLine, Col: startCol, Msg: "string literal is not terminated", Incomplete: true}
			}

			tokens = append(tokens, Token{
				Type:    TokenString,
				Value:   sb.String(),
				Line:    startLine,
				Col:     startCol,
				EndLine: line,
				EndCol:  col,
			})
			continue
		}

		startCol := col
		start := i
		for i < len(input) {
			r, _ := utf8.DecodeRuneInString(input[i:])
			if !isAtomChar(r) {
				break
			}
			advance()
		}
		tokens = append(tokens, Token{
			Type:    TokenAtom,
			Value:   input[start:i],
			Line:    line,
			Col:     startCol,
			EndLine: line,
			EndCol:  col,
		})
	}

	tokens = append(tokens, Token{
		Type:    TokenEOF,
		Line:    line,
		Col:     col,
		EndLine: line,
		EndCol:  col,
	})

	return tokens, nil
}

var delimiters = map[rune]TokenType{
	'(': TokenLParen,
	')': TokenRParen,
	'[': TokenLBrack,
	']': TokenRBrack,
}

var escapes = map[byte]byte{
	'n':  '\n',
	't':  '\t',
	'r':  '\r',
	'\\': '\\',
	'"':  '"',
}

func isAtomChar(c rune) bool {
	if isWhitespace(c) || c == ';' || c == '"' {
		return false
	}
	_, delim := delimiters[c]
	return !delim
}

func isWhitespace(c rune) bool {
	return unicode.IsSpace(c)
}

// isNumber reports whether an atom spells a number literal.
func isNumber(s string) bool {
	if s == "" {
		return false
	}
	if _, err := strconv.ParseInt(s, 0, 64); err == nil {
		return true
	}
	c := s[0]
	if c == '+' || c == '-' || c == '.' {
		if len(s) == 1 {
			return false
		}
		c = s[1]
	}
	if !unicode.IsDigit(rune(c)) {
		// rejects "inf", "nan" and friends
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
