package macro

import (
	"errors"
	"fmt"

	"github.com/gnolang/mexp/internal/cst"
)

// Kind classifies an expansion failure.
type Kind int

const (
	MalformedDefinition Kind = iota + 1
	MalformedPattern
	AmbiguousPattern
	DuplicateMacroName
	NoRuleMatched
	ArityMismatch
	EmptySequenceFlatten
	RecursionLimitExceeded
	// Internal reports a defect in the expander itself rather than in the
	// program being expanded.
	Internal
)

func (k Kind) String() string {
	switch k {
	case MalformedDefinition:
		return "malformed-definition"
	case MalformedPattern:
		return "malformed-pattern"
	case AmbiguousPattern:
		return "ambiguous-pattern"
	case DuplicateMacroName:
		return "duplicate-macro-name"
	case NoRuleMatched:
		return "no-rule-matched"
	case ArityMismatch:
		return "arity-mismatch"
	case EmptySequenceFlatten:
		return "empty-sequence-flatten"
	case RecursionLimitExceeded:
		return "recursion-limit-exceeded"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is a fatal expansion diagnostic. The first Error raised aborts the
// whole pass.
type Error struct {
	Kind Kind
	Pos  cst.Pos
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Msg)
}

func errorf(kind Kind, pos cst.Pos, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is, or wraps, an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
