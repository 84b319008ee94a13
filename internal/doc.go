// Package internal provides the engine that runs macro expansion over source
// files.
//
// Key components:
//
// Engine: reads a source, expands it in its own pass with a fresh macro
// registry, and turns expansion failures into issues. Concurrent runs over
// the same file share one expansion.
//
// Cache: keeps results on disk keyed by the content hash of each file and the
// engine settings, so unchanged files are not expanded again.
//
// Watching: StartWatching expands files again as they are written.
//
// SourceCode: the lines of a source file, used to render issue snippets.
//
// Usage:
//
//	engine, err := internal.NewEngine(internal.Options{MaxDepth: 100})
//	if err != nil {
//	    // handle error
//	}
//
//	res, err := engine.Run("path/to/file.mx")
//	if err != nil {
//	    // handle error
//	}
//
//	for _, issue := range res.Issues {
//	    fmt.Printf("%s: %s at %s\n", issue.Rule, issue.Message, issue.Start)
//	}
//
// This package is intended for internal use within mexp and should not be
// imported by external packages.
package internal
