package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/mexp/expand"
	"github.com/gnolang/mexp/internal"
	tt "github.com/gnolang/mexp/internal/types"
)

var (
	ignorePaths string
	jsonOutput  bool
	outDir      string
	cacheDir    string
)

var expandCmd = &cobra.Command{
	Use:   "expand [paths...]",
	Short: "Expand macros in the given files and directories",
	Long: `Expands every macro definition and invocation in the given sources.
Each file is expanded independently: macros defined in one file are not
visible in another. Expanded forms are printed, or written under --out.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide file or directory paths")
			os.Exit(1)
		}

		engine, config := setupEngine(cmd)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		os.Exit(runExpand(ctx, logger, engine, args, config.OutDir, jsonOutput, os.Stdout, os.Stderr))
	},
}

func init() {
	expandCmd.Flags().StringVar(&ignorePaths, "ignore-paths", "", "Comma-separated list of path globs to skip")
	expandCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print results in JSON format")
	expandCmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory the expanded files are written to")
	expandCmd.Flags().StringVar(&cacheDir, "cache", "", "Directory caching expansion results between runs")
}

// setupEngine builds the engine from the configuration file and flags. It
// exits when either is invalid.
func setupEngine(cmd *cobra.Command) (*internal.Engine, expand.Config) {
	config, err := loadConfig(cmd)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.String("path", cfgFile), zap.Error(err))
	}
	if outDir != "" {
		config.OutDir = outDir
	}
	if cacheDir != "" {
		config.CacheDir = cacheDir
	}

	engine, err := expand.New(config, logger)
	if err != nil {
		logger.Fatal("Failed to initialize expansion engine", zap.Error(err))
	}

	if ignorePaths != "" {
		for _, path := range strings.Split(ignorePaths, ",") {
			engine.IgnorePath(strings.TrimSpace(path))
		}
	}
	return engine, config
}

// runExpand expands paths and returns the exit code: 1 when any source has
// issues or cannot be processed.
func runExpand(
	ctx context.Context,
	logger *zap.Logger,
	engine expand.Engine,
	paths []string,
	outDir string,
	isJSON bool,
	stdout, stderr io.Writer,
) int {
	var results []*tt.Result
	for _, path := range paths {
		res, err := expand.ProcessPath(ctx, logger, engine, path, expand.ProcessFile)
		if err != nil {
			logger.Error("Error processing path", zap.String("path", path), zap.Error(err))
			return 1
		}

		if outDir != "" {
			root := expand.Root(path)
			for _, r := range res {
				if r.HasIssues() {
					continue
				}
				written, err := expand.WriteOutput(outDir, root, r)
				if err != nil {
					logger.Error("Error writing output", zap.String("file", r.Filename), zap.Error(err))
					return 1
				}
				logger.Debug("output written", zap.String("file", r.Filename), zap.String("out", written))
			}
		}
		results = append(results, res...)
	}

	if isJSON {
		if err := printJSON(stdout, results); err != nil {
			logger.Error("Error marshalling results to JSON", zap.Error(err))
			return 1
		}
	} else {
		if outDir == "" {
			printForms(stdout, results)
		}
		printIssues(logger, stderr, results)
	}

	if countIssues(results) > 0 {
		return 1
	}
	return 0
}
