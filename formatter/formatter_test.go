package formatter

import (
	"go/token"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/gnolang/mexp/internal"
	tt "github.com/gnolang/mexp/internal/types"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func pos(line, column int) token.Position {
	return token.Position{Filename: "test.mx", Line: line, Column: column}
}

func TestGenerateFormattedIssue(t *testing.T) {
	t.Parallel()
	code := &internal.SourceCode{
		Lines: []string{
			"(def-macro two () ((a b) (pair a b)))",
			"(two 1)",
			"(print",
		},
	}

	issues := []tt.Issue{
		{
			Rule:     "no-rule-matched",
			Filename: "test.mx",
			Start:    pos(2, 1),
			End:      pos(2, 8),
			Message:  "no rule of macro `two` matched arguments (1)",
		},
		{
			Rule:     SyntaxError,
			Filename: "test.mx",
			Start:    pos(3, 1),
			End:      pos(3, 2),
			Message:  "unclosed '('",
		},
	}

	expected := `error: no-rule-matched
 --> test.mx:2:1
  |
2 | (two 1)
  | ~~~~~~~
  = no rule of macro ` + "`two`" + ` matched arguments (1)

error: syntax-error
 --> test.mx:3:1
  |
3 | (print
  | ^ unclosed '('

`

	result := GenerateFormattedIssue(issues, code)
	assert.Equal(t, expected, result, "Formatted output does not match expected")
}

func TestGenerateFormattedIssue_ExpansionSites(t *testing.T) {
	t.Parallel()
	code := &internal.SourceCode{
		Lines: []string{
			"(def-macro B () ((x) (+ x 1)))",
			"(def-macro A ()",
			"  (() (B 1 2)))",
			"(A)",
		},
	}

	issues := []tt.Issue{{
		Rule:     "no-rule-matched",
		Filename: "test.mx",
		Start:    pos(3, 7),
		End:      pos(3, 14),
		Message:  "no rule of macro `B` matched arguments (1 2)",
		Sites:    []token.Position{pos(4, 1)},
	}}

	expected := strings.Join([]string{
		"error: no-rule-matched",
		" --> test.mx:3:7",
		"  |",
		"3 | (() (B 1 2)))",
		"  |     ~~~~~~~",
		"  = no rule of macro `B` matched arguments (1 2)",
		"  = in expansion of test.mx:4:1",
		"",
		"",
	}, "\n")

	result := GenerateFormattedIssue(issues, code)
	assert.Equal(t, expected, result)
}

func TestGenerateFormattedIssue_RecursionLimit(t *testing.T) {
	t.Parallel()
	code := &internal.SourceCode{
		Lines: []string{
			"(def-macro loop () ((x) (loop x)))",
			"(loop 1)",
		},
	}

	issues := []tt.Issue{{
		Rule:     RecursionLimit,
		Filename: "test.mx",
		Start:    pos(1, 25),
		End:      pos(1, 33),
		Message:  "expansion of macro `loop` exceeded the maximum depth of 5",
		Note:     "raise max-depth",
		Sites:    []token.Position{pos(1, 25), pos(1, 25), pos(1, 25), pos(1, 25), pos(2, 1)},
	}}

	expected := strings.Join([]string{
		"error: recursion-limit-exceeded",
		" --> test.mx:1:25",
		"  |",
		"1 | (def-macro loop () ((x) (loop x)))",
		"  | " + strings.Repeat(" ", 24) + "~~~~~~~~",
		"  = expansion of macro `loop` exceeded the maximum depth of 5",
		"  | expansion was 5 invocations deep",
		"  = in expansion of test.mx:1:25",
		"  = in expansion of test.mx:1:25",
		"  = in expansion of test.mx:1:25",
		"  = ... and 2 more",
		"Note: raise max-depth",
		"",
		"",
	}, "\n")

	result := GenerateFormattedIssue(issues, code)
	assert.Equal(t, expected, result)
}

func TestGenerateFormattedIssue_MultipleDigitsLineNumbers(t *testing.T) {
	t.Parallel()
	lines := make([]string, 12)
	for i := range lines {
		lines[i] = "(print 1)"
	}
	lines[9] = "\t(two 1)"

	issues := []tt.Issue{{
		Rule:     "no-rule-matched",
		Filename: "test.mx",
		Start:    pos(10, 2),
		End:      pos(10, 9),
		Message:  "no rule matched",
	}}

	expected := strings.Join([]string{
		"error: no-rule-matched",
		"  --> test.mx:10:2",
		"   |",
		"10 | (two 1)",
		"   | ~~~~~~~",
		"   = no rule matched",
		"",
		"",
	}, "\n")

	result := GenerateFormattedIssue(issues, &internal.SourceCode{Lines: lines})
	assert.Equal(t, expected, result)
}

func TestGenerateFormattedIssue_WithoutSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		issue    tt.Issue
		snippet  *internal.SourceCode
		expected string
	}{
		{
			name: "no position",
			issue: tt.Issue{
				Rule:     "internal",
				Filename: "test.mx",
				Message:  "bad state",
				Note:     "this is a bug",
			},
			snippet: &internal.SourceCode{Lines: []string{"(a)"}},
			expected: strings.Join([]string{
				"error: internal",
				" --> test.mx",
				"  |",
				"  = bad state",
				"Note: this is a bug",
				"",
				"",
			}, "\n"),
		},
		{
			name: "nil source",
			issue: tt.Issue{
				Rule:     "arity-mismatch",
				Filename: "test.mx",
				Start:    pos(1, 1),
				End:      pos(1, 5),
				Message:  "wrong arity",
			},
			expected: strings.Join([]string{
				"error: arity-mismatch",
				" --> test.mx:1:1",
				"  |",
				"  = wrong arity",
				"",
				"",
			}, "\n"),
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			result := GenerateFormattedIssue([]tt.Issue{tc.issue}, tc.snippet)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestUnderlineMultiLineSpan(t *testing.T) {
	t.Parallel()
	lines := []string{
		"(def-macro m ()",
		"  ((x) x))",
	}

	result := underlineAndMessage("bad", "  ", 1, 2, 1, 11, lines, "")
	assert.Equal(t, "  | "+strings.Repeat("~", 15)+"\n  = bad\n", result)
}

func TestFindCommonIndent(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		lines    []string
	}{
		{
			name: "whitespace indent",
			lines: []string{
				"    (when ok",
				"        (print 1))",
			},
			expected: "    ",
		},
		{
			name: "tab indent",
			lines: []string{
				"	(when ok",
				"		(print 1))",
			},
			expected: "\t",
		},
		{
			name: "mixed indent (space and tab)",
			lines: []string{
				"\t    (when ok",
				"\t    \t(print 1))",
			},
			expected: "\t    ",
		},
		{
			name: "no indent",
			lines: []string{
				"(when ok",
				"(print 1))",
			},
			expected: "",
		},
		{
			name: "empty line",
			lines: []string{
				"    (when ok",
				"",
				"        (print 1))",
			},
			expected: "    ",
		},
		{
			name:     "empty input",
			lines:    []string{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := findCommonIndent(tt.lines)
			if result != tt.expected {
				t.Errorf("findCommonIndent() = %q, want %q", result, tt.expected)
			}
		})
	}
}
