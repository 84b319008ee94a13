package expand

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tt "github.com/gnolang/mexp/internal/types"
)

// OutputPath returns where the expansion of filename is written under
// outDir. The path of filename relative to root is kept; files outside root
// are written at the top of outDir.
func OutputPath(outDir, root, filename string) string {
	rel, err := filepath.Rel(root, filename)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = filepath.Base(filename)
	}
	return filepath.Join(outDir, rel)
}

// WriteOutput writes the expanded forms of res under outDir and returns the
// path written. Results with issues have no output and are rejected.
func WriteOutput(outDir, root string, res *tt.Result) (string, error) {
	if res.HasIssues() {
		return "", fmt.Errorf("%s has issues, no output written", res.Filename)
	}

	path := OutputPath(outDir, root, res.Filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("error creating output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(res.Output()), 0o644); err != nil {
		return "", fmt.Errorf("error writing %s: %w", path, err)
	}
	return path, nil
}

// Root returns the directory output paths are made relative to when path is
// given on the command line.
func Root(path string) string {
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		return path
	}
	return filepath.Dir(path)
}
