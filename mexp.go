// Package mexp expands macros in s-expression sources.
//
// A source is expanded in a single pass: `def-macro` forms register macros
// and vanish, and every invocation of a registered macro is replaced by the
// expansion of the first rule whose pattern matches it. See package macro
// for the pattern language.
package mexp

import (
	"strings"

	"go.uber.org/zap"

	"github.com/gnolang/mexp/formatter"
	"github.com/gnolang/mexp/internal"
	"github.com/gnolang/mexp/internal/reader"
	tt "github.com/gnolang/mexp/internal/types"
	"github.com/gnolang/mexp/macro"
)

type Options struct {
	// MaxDepth bounds nested macro applications. Zero selects
	// macro.DefaultMaxDepth and a negative value disables the bound.
	MaxDepth int
	Logger   *zap.Logger
}

// ExpandSource expands source, read as filename, and returns the remaining
// forms printed one per line.
func ExpandSource(filename string, source []byte, opts Options) (string, error) {
	forms, err := reader.Read(filename, string(source))
	if err != nil {
		return "", err
	}

	out, err := macro.ExpandProgram(forms, macro.Options{MaxDepth: opts.MaxDepth, Logger: opts.Logger})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, n := range out {
		sb.WriteString(n.String())
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// FormatError renders an error returned by ExpandSource with a snippet of
// source. Other errors are rendered as their message.
func FormatError(err error, source []byte) string {
	issue, ok := internal.IssueFromError(err)
	if !ok {
		return err.Error() + "\n"
	}
	return formatter.GenerateFormattedIssue([]tt.Issue{issue}, internal.NewSourceCode(source))
}
