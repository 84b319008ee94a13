package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/mexp/formatter"
	"github.com/gnolang/mexp/internal"
	"github.com/gnolang/mexp/internal/reader"
	tt "github.com/gnolang/mexp/internal/types"
	"github.com/gnolang/mexp/macro"
)

const (
	historyFile = ".mexp_history"
	promptMain  = "mexp> "
	promptCont  = "  ... "
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Expand forms interactively",
	Long: `Reads forms line by line and prints their expansion. A form may span
several lines. Macros defined at the prompt stay visible for the rest of the
session. Type :help for the session commands.`,
	Run: func(cmd *cobra.Command, args []string) {
		config, err := loadConfig(cmd)
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.String("path", cfgFile), zap.Error(err))
		}

		home, _ := os.UserHomeDir()
		histPath := filepath.Join(home, historyFile)

		ln := liner.NewLiner()
		defer ln.Close()
		ln.SetCtrlCAborts(true)

		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()

		session := newReplSession(config.MaxDepth, logger)
		runRepl(ln, session, os.Stdout, os.Stderr)
	},
}

// lineReader is the part of a line editor the REPL needs.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// replSession expands inputs one after the other within a single pass, so
// macros defined by an input stay visible to the following ones.
type replSession struct {
	expander *macro.Expander
	sources  map[string]*internal.SourceCode
	inputs   int
}

func newReplSession(maxDepth int, logger *zap.Logger) *replSession {
	return &replSession{
		expander: macro.NewExpander(macro.Options{MaxDepth: maxDepth, Logger: logger}),
		sources:  make(map[string]*internal.SourceCode),
	}
}

// Eval expands the forms of src and returns the printed forms that remain.
// Forms before a failing one keep their effect on the session.
func (s *replSession) Eval(src string) ([]string, error) {
	s.inputs++
	filename := fmt.Sprintf("<repl:%d>", s.inputs)
	s.sources[filename] = internal.NewSourceCode([]byte(src))

	forms, err := reader.Read(filename, src)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, form := range forms {
		n, keep, err := s.expander.Expand(form)
		if err != nil {
			return out, err
		}
		if keep {
			out = append(out, n.String())
		}
	}
	return out, nil
}

// Describe renders err the way the expand command reports issues.
func (s *replSession) Describe(err error) string {
	issue, ok := internal.IssueFromError(err)
	if !ok {
		return fmt.Sprintf("error: %v\n", err)
	}
	return formatter.GenerateFormattedIssue([]tt.Issue{issue}, s.sources[issue.Filename])
}

func runRepl(ln lineReader, session *replSession, stdout, stderr io.Writer) {
	for {
		src, ok := readForms(ln, promptMain, promptCont)
		if !ok {
			fmt.Fprintln(stdout)
			return
		}

		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit", ":q":
				return
			case ":macros":
				for _, name := range session.expander.Registry().Names() {
					fmt.Fprintln(stdout, name)
				}
			case ":help":
				fmt.Fprintln(stdout, ":macros  list the macros defined in this session")
				fmt.Fprintln(stdout, ":quit    leave the session")
			default:
				fmt.Fprintln(stdout, "unknown command. Type :help for the list of commands.")
			}
			continue
		}

		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))

		forms, err := session.Eval(src)
		for _, form := range forms {
			fmt.Fprintln(stdout, form)
		}
		if err != nil {
			fmt.Fprint(stderr, session.Describe(err))
		}
	}
}

// readForms reads lines until they hold complete forms. It reports false
// at end of input.
func readForms(ln lineReader, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// aborted with Ctrl-C: drop the pending input
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if _, err := reader.Read("", src); reader.IsIncomplete(err) {
			continue
		}
		return src, true
	}
}
