package macro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/mexp/internal/cst"
)

func seq(t *testing.T, src string) Binding {
	t.Helper()
	return Binding{Node: cst.NewList(read(t, src), cst.Pos{}), Depth: 1}
}

func one(t *testing.T, src string) Binding {
	t.Helper()
	return Binding{Node: read(t, src)[0]}
}

func TestSubstitute(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		template string
		bindings func(t *testing.T) Bindings
		want     string
		wantErr  Kind
	}{
		{
			name:     "unbound identifiers are kept",
			template: "(f x 1)",
			bindings: func(*testing.T) Bindings { return Bindings{} },
			want:     "(f x 1)",
		},
		{
			name:     "bound value inserted verbatim",
			template: "(f x)",
			bindings: func(t *testing.T) Bindings {
				return Bindings{"x": one(t, "(g y)"), "y": one(t, "2")}
			},
			want: "(f (g y))",
		},
		{
			name:     "bracket template keeps its shape",
			template: "[x y]",
			bindings: func(t *testing.T) Bindings { return Bindings{"x": one(t, "1")} },
			want:     "[1 y]",
		},
		{
			name:     "sequence spliced",
			template: "(f xs ... end)",
			bindings: func(t *testing.T) Bindings { return Bindings{"xs": seq(t, "1 2 3")} },
			want:     "(f 1 2 3 end)",
		},
		{
			name:     "sequence bound without ellipsis",
			template: "(f xs)",
			bindings: func(t *testing.T) Bindings { return Bindings{"xs": seq(t, "1 2")} },
			want:     "(f [1 2])",
		},
		{
			name:     "zipped sequences",
			template: "((k v) ...)",
			bindings: func(t *testing.T) Bindings {
				return Bindings{"k": seq(t, "a b"), "v": seq(t, "1 2")}
			},
			want: "((a 1) (b 2))",
		},
		{
			name:     "broadcast of shorter sequence",
			template: "((k v) ...)",
			bindings: func(t *testing.T) Bindings {
				return Bindings{"k": seq(t, "a b c"), "v": seq(t, "1")}
			},
			want: "((a 1) (b 1) (c 1))",
		},
		{
			name:     "empty sequence in a non-empty repetition",
			template: "((k v) ...)",
			bindings: func(t *testing.T) Bindings {
				return Bindings{"k": seq(t, "a b"), "v": seq(t, "")}
			},
			want: "((a) (b))",
		},
		{
			name:     "all sequences empty",
			template: "(f (k v) ...)",
			bindings: func(t *testing.T) Bindings {
				return Bindings{"k": seq(t, ""), "v": seq(t, "")}
			},
			want: "(f)",
		},
		{
			name:     "macro-quote body is not substituted",
			template: "(f (macro-quote (x ...)) x)",
			bindings: func(t *testing.T) Bindings { return Bindings{"x": one(t, "1")} },
			want:     "(f (x ...) 1)",
		},
		{
			name:     "macro-quote in bracket form",
			template: "[macro-quote x]",
			bindings: func(t *testing.T) Bindings { return Bindings{"x": one(t, "1")} },
			want:     "x",
		},
		{
			name:     "macro-quote hides sequences from repetition",
			template: "((f s (macro-quote xs)) ...)",
			bindings: func(t *testing.T) Bindings {
				return Bindings{"s": seq(t, "1 2"), "xs": seq(t, "a b c")}
			},
			want: "((f 1 xs) (f 2 xs))",
		},
		{
			name:     "macro-quote without argument",
			template: "(f (macro-quote))",
			bindings: func(*testing.T) Bindings { return Bindings{} },
			wantErr:  ArityMismatch,
		},
		{
			name:     "macro-quote with two arguments",
			template: "(macro-quote a b)",
			bindings: func(*testing.T) Bindings { return Bindings{} },
			wantErr:  ArityMismatch,
		},
		{
			name:     "ellipsis over singular variable",
			template: "(f x ...)",
			bindings: func(t *testing.T) Bindings { return Bindings{"x": one(t, "1")} },
			wantErr:  EmptySequenceFlatten,
		},
		{
			name:     "ellipsis over unbound identifier",
			template: "(f y ...)",
			bindings: func(*testing.T) Bindings { return Bindings{} },
			wantErr:  EmptySequenceFlatten,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Substitute(read(t, tt.template)[0], tt.bindings(t))
			if tt.wantErr != 0 {
				require.Error(t, err)
				assert.True(t, IsKind(err, tt.wantErr), err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestSubstituteKeepsTemplatePosition(t *testing.T) {
	t.Parallel()
	tmpl := read(t, "\n  (f x)")[0]
	got, err := Substitute(tmpl, Bindings{"x": one(t, "1")})
	require.NoError(t, err)
	assert.Equal(t, tmpl.Position(), got.Position())
	assert.Equal(t, 2, got.Position().Start.Line)
}

func TestSubstituteNestedSequences(t *testing.T) {
	t.Parallel()
	p := mustPattern(t, "((k v ...) ...)", nil)
	b, ok, err := Match(p, read(t, "((a 1 2) (b) (c 3))")[0], nil)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := Substitute(read(t, "(r [k v ...] ... v ...)")[0], b)
	require.NoError(t, err)
	assert.Equal(t, "(r [a 1 2] [b] [c 3] [1 2] [] [3])", got.String())
}
