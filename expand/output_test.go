package expand

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tt "github.com/gnolang/mexp/internal/types"
)

func TestOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		root     string
		filename string
		want     string
	}{
		{"top level", "src", "src/main.mx", "out/main.mx"},
		{"nested", "src", "src/lib/list.mx", "out/lib/list.mx"},
		{"outside root", "src", "other/x.mx", "out/x.mx"},
		{"root is the file dir", ".", "main.mx", "out/main.mx"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, filepath.FromSlash(tt.want), OutputPath("out", tt.root, filepath.FromSlash(tt.filename)))
		})
	}
}

func TestWriteOutput(t *testing.T) {
	t.Parallel()
	outDir := filepath.Join(t.TempDir(), "out")

	res := &tt.Result{
		Filename: filepath.Join("src", "lib", "list.mx"),
		Forms:    []string{"(vec 1 2 3)", "(print x)"},
	}

	path, err := WriteOutput(outDir, "src", res)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "lib", "list.mx"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "(vec 1 2 3)\n(print x)\n", string(content))

	res.Issues = []tt.Issue{{Rule: "no-rule-matched"}}
	_, err = WriteOutput(outDir, "src", res)
	assert.ErrorContains(t, err, "has issues")
}

func TestRoot(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	file := filepath.Join(dir, "main.mx")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	assert.Equal(t, dir, Root(dir))
	assert.Equal(t, dir, Root(file))
}
