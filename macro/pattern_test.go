package macro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPattern(t *testing.T, src string, literals Literals) Pattern {
	t.Helper()
	p, err := ParsePattern(read(t, src)[0], literals)
	require.NoError(t, err)
	return p
}

func TestParsePattern(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		literals Literals
		wantVars []string
		wantErr  Kind
	}{
		{
			name:     "plain variables",
			input:    "(a b c)",
			wantVars: []string{"a", "b", "c"},
		},
		{
			name:     "literals are not variables",
			input:    "(a => b)",
			literals: NewLiterals("=>"),
			wantVars: []string{"a", "b"},
		},
		{
			name:     "nested lists",
			input:    "((k v ...) ... [rest])",
			wantVars: []string{"k", "v", "rest"},
		},
		{
			name:     "delimited repetitions",
			input:    "(a ... (x sep) b ...)",
			literals: NewLiterals("sep"),
			wantVars: []string{"a", "x", "b"},
		},
		{
			name:     "escaped list",
			input:    "(macro-escape a ... b ...)",
			wantVars: []string{"a", "b"},
		},
		{
			name:     "bare identifier",
			input:    "args",
			wantVars: []string{"args"},
		},
		{
			name:    "adjacent repetitions",
			input:   "(a ... b ...)",
			wantErr: AmbiguousPattern,
		},
		{
			name:    "separator without literal",
			input:   "(a ... (x y) b ...)",
			wantErr: AmbiguousPattern,
		},
		{
			name:    "ambiguity checked in nested lists",
			input:   "(k [a ... b ...])",
			wantErr: AmbiguousPattern,
		},
		{
			name:     "escape is not inherited",
			input:    "(macro-escape (a ... b ...))",
			wantErr:  AmbiguousPattern,
			literals: NewLiterals(),
		},
		{
			name:    "number in pattern",
			input:   "(a 1)",
			wantErr: MalformedPattern,
		},
		{
			name:    "string in pattern",
			input:   `(a "s")`,
			wantErr: MalformedPattern,
		},
		{
			name:    "ellipsis first",
			input:   "(... a)",
			wantErr: MalformedPattern,
		},
		{
			name:    "double ellipsis",
			input:   "(a ... ...)",
			wantErr: MalformedPattern,
		},
		{
			name:    "duplicate variable",
			input:   "(a (b a))",
			wantErr: MalformedPattern,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := ParsePattern(read(t, tt.input)[0], tt.literals)
			if tt.wantErr != 0 {
				require.Error(t, err)
				assert.True(t, IsKind(err, tt.wantErr), err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVars, VariableNames(p, tt.literals))
			assert.Equal(t, tt.input, p.String())
		})
	}
}

func TestVariableDepths(t *testing.T) {
	t.Parallel()
	literals := NewLiterals("=")
	p := mustPattern(t, "(name ((k = v ...) ...) = tail ...)", literals)

	assert.Equal(t, map[string]int{
		"name": 0,
		"k":    1,
		"v":    2,
		"tail": 1,
	}, variableDepths(p, literals))
}

func TestContainsLiteral(t *testing.T) {
	t.Parallel()
	literals := NewLiterals("in")
	tests := []struct {
		input string
		want  bool
	}{
		{input: "in", want: true},
		{input: "x", want: false},
		{input: "(x y)", want: false},
		{input: "(x (y in))", want: true},
		{input: "[x ...]", want: false},
	}
	for _, tt := range tests {
		p, err := parsePattern(read(t, tt.input)[0], literals)
		require.NoError(t, err)
		assert.Equal(t, tt.want, containsLiteral(p, literals), tt.input)
	}
}
