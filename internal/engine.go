package internal

import (
	"errors"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/gnolang/mexp/internal/cst"
	"github.com/gnolang/mexp/internal/reader"
	tt "github.com/gnolang/mexp/internal/types"
	"github.com/gnolang/mexp/macro"
)

// Rule reported for sources the reader rejects.
const SyntaxErrorRule = "syntax-error"

// DefaultExtensions are the source file extensions expanded when no others
// are configured.
var DefaultExtensions = []string{".mx"}

type Options struct {
	MaxDepth   int
	Extensions []string
	Logger     *zap.Logger
	// Cache is optional. When set, results of Run are reused while the file
	// content does not change.
	Cache *Cache
}

// Engine expands sources. Every source is expanded in its own pass with
// its own macro registry, so an Engine may be shared between goroutines.
type Engine struct {
	maxDepth     int
	extensions   map[string]bool
	ignoredPaths []string
	logger       *zap.Logger
	cache        *Cache
	group        singleflight.Group

	mu         sync.Mutex
	watcher    *fsnotify.Watcher
	isWatching bool
}

// NewEngine creates a new expansion engine.
func NewEngine(opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	extensions := make(map[string]bool, len(exts))
	for _, ext := range exts {
		if !strings.HasPrefix(ext, ".") {
			return nil, fmt.Errorf("invalid extension %q: must start with a dot", ext)
		}
		extensions[ext] = true
	}

	return &Engine{
		maxDepth:   opts.MaxDepth,
		extensions: extensions,
		logger:     logger,
		cache:      opts.Cache,
	}, nil
}

// Run expands the file at filename.
//
// Diagnostics about the source are reported in the result; the error is
// reserved for failures to read the file.
func (e *Engine) Run(filename string) (*tt.Result, error) {
	key := e.cacheKey()
	if e.cache != nil {
		if res, ok := e.cache.Get(filename, key); ok {
			e.logger.Debug("cache hit", zap.String("file", filename))
			return res, nil
		}
	}

	// concurrent runs over the same file share one expansion
	v, err, _ := e.group.Do(filename, func() (any, error) {
		source, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", filename, err)
		}

		res, err := e.RunSource(filename, source)
		if err != nil {
			return nil, err
		}

		if e.cache != nil {
			if err := e.cache.Set(filename, key, source, res); err != nil {
				e.logger.Warn("failed to cache result", zap.String("file", filename), zap.Error(err))
			}
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*tt.Result), nil
}

// RunSource expands source as if it were read from filename.
func (e *Engine) RunSource(filename string, source []byte) (*tt.Result, error) {
	res := &tt.Result{Filename: filename}

	forms, err := reader.Read(filename, string(source))
	if err != nil {
		issue, ok := IssueFromError(err)
		if !ok {
			return nil, err
		}
		res.Issues = append(res.Issues, issue)
		return res, nil
	}

	expander := macro.NewExpander(macro.Options{
		MaxDepth: e.maxDepth,
		Logger:   e.logger.With(zap.String("file", filename)),
	})
	var out []cst.Node
	for _, form := range forms {
		n, keep, err := expander.Expand(form)
		if err != nil {
			issue, ok := IssueFromError(err)
			if !ok {
				return nil, fmt.Errorf("error expanding %s: %w", filename, err)
			}
			res.Issues = append(res.Issues, issue)
			res.Macros = expander.Registry().Names()
			return res, nil
		}
		if keep {
			out = append(out, n)
		}
	}

	res.Forms = make([]string, len(out))
	for i, n := range out {
		res.Forms[i] = n.String()
	}
	res.Macros = expander.Registry().Names()
	return res, nil
}

// Accepts reports whether path has a source extension and is not ignored.
func (e *Engine) Accepts(path string) bool {
	if !e.extensions[filepath.Ext(path)] {
		return false
	}
	for _, pattern := range e.ignoredPaths {
		if matched, _ := filepath.Match(pattern, path); matched {
			return false
		}
		if matched, _ := filepath.Match(pattern, filepath.Base(path)); matched {
			return false
		}
	}
	return true
}

// IgnorePath excludes paths matching the glob pattern from Accepts.
func (e *Engine) IgnorePath(pattern string) {
	e.ignoredPaths = append(e.ignoredPaths, pattern)
}

func (e *Engine) cacheKey() string {
	return fmt.Sprintf("max-depth=%d", e.maxDepth)
}

// IssueFromError converts reader and expansion errors into an issue. It
// reports false for any other error.
func IssueFromError(err error) (tt.Issue, bool) {
	var merr *macro.Error
	if errors.As(err, &merr) {
		issue := tt.Issue{
			Rule:     merr.Kind.String(),
			Filename: merr.Pos.Start.Filename,
			Message:  merr.Msg,
			Start:    merr.Pos.Start,
			End:      merr.Pos.End,
		}
		for _, site := range merr.Pos.Sites() {
			issue.Sites = append(issue.Sites, site.Start)
		}
		switch merr.Kind {
		case macro.RecursionLimitExceeded:
			issue.Note = "raise max-depth in the configuration file or with --max-depth"
		case macro.Internal:
			issue.Note = "this is a bug in the expander, please report it"
		}
		return issue, true
	}

	var rerr *reader.Error
	if errors.As(err, &rerr) {
		pos := token.Position{Filename: rerr.Filename, Line: rerr.Line, Column: rerr.Col}
		end := pos
		end.Column++
		return tt.Issue{
			Rule:     SyntaxErrorRule,
			Filename: rerr.Filename,
			Message:  rerr.Msg,
			Start:    pos,
			End:      end,
		}, true
	}

	return tt.Issue{}, false
}
