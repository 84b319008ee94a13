package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/mexp/expand"
	tt "github.com/gnolang/mexp/internal/types"
)

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Report expansion errors without printing the expanded forms",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide file or directory paths")
			os.Exit(1)
		}

		engine, _ := setupEngine(cmd)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		os.Exit(runCheck(ctx, logger, engine, args, jsonOutput, os.Stdout, os.Stderr))
	},
}

func init() {
	checkCmd.Flags().StringVar(&ignorePaths, "ignore-paths", "", "Comma-separated list of path globs to skip")
	checkCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print issues in JSON format")
	checkCmd.Flags().StringVar(&cacheDir, "cache", "", "Directory caching expansion results between runs")
}

func runCheck(
	ctx context.Context,
	logger *zap.Logger,
	engine expand.Engine,
	paths []string,
	isJSON bool,
	stdout, stderr io.Writer,
) int {
	results, err := expand.ProcessFiles(ctx, logger, engine, paths, expand.ProcessFile)
	if err != nil {
		logger.Error("Error processing files", zap.Error(err))
		return 1
	}

	issues := countIssues(results)
	if isJSON {
		checked := make([]*tt.Result, len(results))
		for i, res := range results {
			r := *res
			r.Forms = nil
			checked[i] = &r
		}
		if err := printJSON(stdout, checked); err != nil {
			logger.Error("Error marshalling results to JSON", zap.Error(err))
			return 1
		}
	} else {
		printIssues(logger, stderr, results)

		macros := 0
		for _, res := range results {
			macros += len(res.Macros)
		}
		fmt.Fprintf(stdout, "%d files checked, %d macros defined, %d issues\n", len(results), macros, issues)
	}

	if issues > 0 {
		return 1
	}
	return 0
}
