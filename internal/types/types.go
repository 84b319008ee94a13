package types

import (
	"go/token"
	"strings"
)

// Issue represents a diagnostic raised while expanding a source.
type Issue struct {
	Rule     string         `json:"rule"`
	Filename string         `json:"filename"`
	Message  string         `json:"message"`
	Note     string         `json:"note,omitempty"`
	Start    token.Position `json:"start"`
	End      token.Position `json:"end"`

	// Sites lists the macro invocations that produced the offending code,
	// innermost first. It is empty for code written by the user.
	Sites []token.Position `json:"sites,omitempty"`
}

// Result is the outcome of expanding one source.
type Result struct {
	Filename string `json:"filename"`
	// Forms holds the printed top-level forms left after expansion. It is
	// empty when Issues is not.
	Forms []string `json:"forms"`
	// Macros lists the macros defined by the source, in definition order.
	Macros []string `json:"macros,omitempty"`
	Issues []Issue  `json:"issues,omitempty"`
}

func (r *Result) HasIssues() bool { return len(r.Issues) > 0 }

// Output renders the expanded forms one per line.
func (r *Result) Output() string {
	var sb strings.Builder
	for _, f := range r.Forms {
		sb.WriteString(f)
		sb.WriteByte('\n')
	}
	return sb.String()
}
