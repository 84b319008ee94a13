package expand

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gnolang/mexp/internal"
	tt "github.com/gnolang/mexp/internal/types"
)

type Engine interface {
	Run(filename string) (*tt.Result, error)
	RunSource(filename string, source []byte) (*tt.Result, error)
	Accepts(path string) bool
	IgnorePath(pattern string)
}

// Processor expands one file with engine.
type Processor func(engine Engine, filename string) (*tt.Result, error)

// New creates an engine for config.
func New(config Config, logger *zap.Logger) (*internal.Engine, error) {
	var cache *internal.Cache
	if config.CacheDir != "" {
		c, err := internal.NewCache(config.CacheDir)
		if err != nil {
			return nil, err
		}
		cache = c
	}

	engine, err := internal.NewEngine(internal.Options{
		MaxDepth:   config.MaxDepth,
		Extensions: config.Extensions,
		Logger:     logger,
		Cache:      cache,
	})
	if err != nil {
		return nil, err
	}
	for _, pattern := range config.IgnorePaths {
		engine.IgnorePath(pattern)
	}
	return engine, nil
}

// ProgressOutput receives the progress bar drawn while a directory is
// processed. Set it to io.Discard to hide the bar.
var ProgressOutput io.Writer = os.Stderr

func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	engine Engine,
	paths []string,
	processor Processor,
) ([]*tt.Result, error) {
	var results []*tt.Result
	for _, path := range paths {
		res, err := ProcessPath(ctx, logger, engine, path, processor)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing path", zap.String("path", path), zap.Error(err))
			}
			return nil, err
		}
		results = append(results, res...)
	}

	return results, nil
}

// ProcessPath expands path, or every accepted file below it when it is a
// directory. A file named directly is expanded whatever its extension.
//
// Files that cannot be read are logged and skipped. Results keep the order
// of the directory walk. When ctx is done the results gathered so far are
// returned with its error.
func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	engine Engine,
	path string,
	processor Processor,
) ([]*tt.Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}

	if !info.IsDir() {
		res, err := processor(engine, path)
		if err != nil {
			return nil, err
		}
		return []*tt.Result{res}, nil
	}

	var files []string
	err = filepath.Walk(path, func(filePath string, fileInfo os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fileInfo.IsDir() && engine.Accepts(filePath) {
			files = append(files, filePath)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", path, err)
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(ProgressOutput),
		progressbar.OptionSetDescription(path),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	// each pass owns its registry, so files are independent
	slots := make([]*tt.Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, filePath := range files {
		i, filePath := i, filePath // per-iteration copies (go1.22 loopvar semantics under go 1.21)
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res, err := processor(engine, filePath)
			if err != nil {
				if logger != nil {
					logger.Error("Error processing file", zap.String("file", filePath), zap.Error(err))
				}
			} else {
				slots[i] = res
			}
			_ = bar.Add(1)
			return nil
		})
	}

	err = g.Wait()
	_ = bar.Finish()
	fmt.Fprintln(ProgressOutput)

	results := make([]*tt.Result, 0, len(files))
	for _, res := range slots {
		if res != nil {
			results = append(results, res)
		}
	}

	if err == nil {
		err = ctx.Err()
	}
	return results, err
}

func ProcessFile(engine Engine, filename string) (*tt.Result, error) {
	return engine.Run(filename)
}

func ProcessSource(engine Engine, filename string, source []byte) (*tt.Result, error) {
	return engine.RunSource(filename, source)
}
