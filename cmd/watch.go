package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/mexp/expand"
	tt "github.com/gnolang/mexp/internal/types"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dirs...]",
	Short: "Expand files again whenever they change",
	Long: `Watches the given directories (default: the current one) and expands
every source file that is written. Results are printed, or written under
--out.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			args = []string{"."}
		}

		engine, config := setupEngine(cmd)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		report := resultReporter(logger, config.OutDir, args, os.Stdout, os.Stderr)
		if err := runWatch(ctx, logger, engine, args, report); err != nil {
			logger.Error("Error watching", zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	watchCmd.Flags().StringVar(&ignorePaths, "ignore-paths", "", "Comma-separated list of path globs to skip")
	watchCmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory the expanded files are written to")
}

type fileWatcher interface {
	StartWatching(dirs []string, report func(*tt.Result)) error
	StopWatching() error
}

// runWatch reports results for changed files until ctx is done.
func runWatch(ctx context.Context, logger *zap.Logger, w fileWatcher, dirs []string, report func(*tt.Result)) error {
	if err := w.StartWatching(dirs, report); err != nil {
		return err
	}
	logger.Info("watching for changes", zap.Strings("dirs", dirs))

	<-ctx.Done()
	return w.StopWatching()
}

// resultReporter prints or writes each result of a watched file. Output
// paths are made relative to the first watched directory holding the file.
func resultReporter(logger *zap.Logger, outDir string, dirs []string, stdout, stderr io.Writer) func(*tt.Result) {
	return func(res *tt.Result) {
		// our own output, when outDir is below a watched directory
		if outDir != "" && within(outDir, res.Filename) {
			return
		}
		if res.HasIssues() {
			printIssues(logger, stderr, []*tt.Result{res})
			return
		}
		if outDir == "" {
			fmt.Fprintf(stdout, ";; %s\n%s", res.Filename, res.Output())
			return
		}

		root := dirs[0]
		for _, dir := range dirs {
			if within(dir, res.Filename) {
				root = dir
				break
			}
		}
		written, err := expand.WriteOutput(outDir, root, res)
		if err != nil {
			logger.Error("Error writing output", zap.String("file", res.Filename), zap.Error(err))
			return
		}
		fmt.Fprintf(stdout, "%s -> %s\n", res.Filename, written)
	}
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
