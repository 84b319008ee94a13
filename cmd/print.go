package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/gnolang/mexp/formatter"
	"github.com/gnolang/mexp/internal"
	tt "github.com/gnolang/mexp/internal/types"
)

// printForms prints the expansion of every clean result. Each file gets a
// header comment when there is more than one.
func printForms(w io.Writer, results []*tt.Result) {
	for _, res := range results {
		if res.HasIssues() {
			continue
		}
		if len(results) > 1 {
			fmt.Fprintf(w, ";; %s\n", res.Filename)
		}
		fmt.Fprint(w, res.Output())
	}
}

func printIssues(logger *zap.Logger, w io.Writer, results []*tt.Result) {
	for _, res := range results {
		if !res.HasIssues() {
			continue
		}
		sourceCode, err := internal.ReadSourceCode(res.Filename)
		if err != nil {
			logger.Error("Error reading source file", zap.String("file", res.Filename), zap.Error(err))
		}
		fmt.Fprint(w, formatter.GenerateFormattedIssue(res.Issues, sourceCode))
	}
}

func printJSON(w io.Writer, results []*tt.Result) error {
	if results == nil {
		results = []*tt.Result{}
	}
	d, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(d))
	return err
}

func countIssues(results []*tt.Result) int {
	n := 0
	for _, res := range results {
		n += len(res.Issues)
	}
	return n
}
