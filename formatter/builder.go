package formatter

import (
	"bytes"
	"fmt"
	"go/token"
	"strings"
	"text/template"
	"unicode"

	"github.com/fatih/color"

	"github.com/gnolang/mexp/internal"
	tt "github.com/gnolang/mexp/internal/types"
)

const tabWidth = 8

// rule set
const (
	SyntaxError    = internal.SyntaxErrorRule
	RecursionLimit = "recursion-limit-exceeded"
)

var (
	errorStyle   = color.New(color.FgRed, color.Bold)
	ruleStyle    = color.New(color.FgYellow, color.Bold)
	fileStyle    = color.New(color.FgCyan, color.Bold)
	lineStyle    = color.New(color.FgHiBlue, color.Bold)
	messageStyle = color.New(color.FgRed, color.Bold)
	siteStyle    = color.New(color.FgHiBlack)
	noteStyle    = color.New(color.FgGreen, color.Bold)
)

// issueFormatter is the interface that wraps the issueTemplate method.
// Implementations of this interface are responsible for formatting specific
// kinds of expansion issues.
type issueFormatter interface {
	IssueTemplate() string
}

// getIssueFormatter is a factory function that returns the appropriate IssueFormatter
// based on the given rule.
// If no specific formatter is found for the given rule, it returns a GeneralIssueFormatter.
func getIssueFormatter(rule string) issueFormatter {
	switch rule {
	case SyntaxError:
		return &SyntaxErrorFormatter{}
	case RecursionLimit:
		return &RecursionLimitFormatter{}
	default:
		return &GeneralIssueFormatter{}
	}
}

// GenerateFormattedIssue formats a slice of issues into a human-readable string.
// It uses the appropriate formatter for each issue based on its rule.
func GenerateFormattedIssue(issues []tt.Issue, snippet *internal.SourceCode) string {
	var builder strings.Builder
	for _, issue := range issues {
		formatter := getIssueFormatter(issue.Rule)
		formattedIssue := buildIssue(issue, snippet, formatter)
		builder.WriteString(formattedIssue)
	}
	return builder.String()
}

/***** Issue Formatter Builder *****/

type IssueData struct {
	Rule            string
	Filename        string
	Padding         string
	StartLine       int
	StartColumn     int
	EndLine         int
	EndColumn       int
	MaxLineNumWidth int
	Message         string
	Note            string
	Sites           []token.Position
	SnippetLines    []string
	CommonIndent    string
}

func buildIssue(issue tt.Issue, snippet *internal.SourceCode, formatter issueFormatter) string {
	var lines []string
	if snippet != nil {
		lines = snippet.Lines
	}

	startLine := issue.Start.Line
	endLine := max(issue.End.Line, startLine)
	maxLineNumWidth := calculateMaxLineNumWidth(endLine)
	padding := strings.Repeat(" ", maxLineNumWidth+1)

	var commonIndent string
	if isValidLineRange(startLine, endLine, lines) {
		commonIndent = findCommonIndent(lines[startLine-1 : endLine])
	}

	data := IssueData{
		Rule:            issue.Rule,
		Filename:        issue.Filename,
		StartLine:       startLine,
		StartColumn:     issue.Start.Column,
		EndLine:         endLine,
		EndColumn:       issue.End.Column,
		Message:         issue.Message,
		Note:            issue.Note,
		Sites:           issue.Sites,
		MaxLineNumWidth: maxLineNumWidth,
		Padding:         padding,
		CommonIndent:    commonIndent,
		SnippetLines:    lines,
	}

	funcMap := template.FuncMap{
		"header":              header,
		"snippet":             codeSnippet,
		"underlineAndMessage": underlineAndMessage,
		"caretAndMessage":     caretAndMessage,
		"sites":               sites,
		"depthInfo":           depthInfo,
		"note":                note,
	}

	issueTemplate := formatter.IssueTemplate()
	tmpl := template.Must(template.New("issue").Funcs(funcMap).Parse(issueTemplate))

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Sprintf("Error formatting issue: %v", err)
	}
	return buf.String()
}

// utils functions used in the text templates

func header(rule string, maxLineNumWidth int, filename string, startLine int, startColumn int) string {
	var endString string
	endString = errorStyle.Sprint("error: ")
	endString += ruleStyle.Sprintf("%s\n", rule)

	padding := strings.Repeat(" ", maxLineNumWidth)
	endString += lineStyle.Sprintf("%s--> ", padding)
	if startLine > 0 {
		endString += fileStyle.Sprintf("%s:%d:%d\n", filename, startLine, startColumn)
	} else {
		endString += fileStyle.Sprintf("%s\n", filename)
	}

	return endString
}

func codeSnippet(snippetLines []string, startLine int, endLine int, maxLineNumWidth int, commonIndent string, padding string) string {
	var endString string
	endString = lineStyle.Sprintf("%s|\n", padding)

	for i := startLine; i <= endLine; i++ {
		if i-1 < 0 || i-1 >= len(snippetLines) {
			continue
		}

		line := snippetLines[i-1]
		line = strings.TrimPrefix(line, commonIndent)
		lineNum := fmt.Sprintf("%*d", maxLineNumWidth, i)

		endString += lineStyle.Sprintf("%s | ", lineNum) + line + "\n"
	}

	return endString
}

// underlineAndMessage marks the span of the issue. A span running over
// several lines is marked to the end of its first line.
func underlineAndMessage(message string, padding string, startLine int, endLine int, startColumn int, endColumn int, snippetLines []string, commonIndent string) string {
	if !isValidLineRange(startLine, endLine, snippetLines) {
		return lineStyle.Sprintf("%s= ", padding) + messageStyle.Sprintf("%s\n", message)
	}

	var endString string
	endString = lineStyle.Sprintf("%s| ", padding)

	commonIndentWidth := calculateVisualColumn(commonIndent, len(commonIndent)+1)
	line := snippetLines[startLine-1]

	underlineStart := max(calculateVisualColumn(line, startColumn)-commonIndentWidth, 0)

	var underlineEnd int
	if endLine == startLine && endColumn > startColumn {
		underlineEnd = calculateVisualColumn(line, endColumn) - commonIndentWidth
	} else {
		underlineEnd = calculateVisualColumn(line, len(line)+1) - commonIndentWidth
	}
	underlineLength := max(underlineEnd-underlineStart, 1)

	endString += strings.Repeat(" ", underlineStart)
	endString += messageStyle.Sprintf("%s\n", strings.Repeat("~", underlineLength))

	endString += lineStyle.Sprintf("%s= ", padding)
	endString += messageStyle.Sprintf("%s\n", message)

	return endString
}

// caretAndMessage points at a single column, for issues without a
// meaningful span.
func caretAndMessage(message string, padding string, startLine int, startColumn int, snippetLines []string, commonIndent string) string {
	if !isValidLineRange(startLine, startLine, snippetLines) {
		return lineStyle.Sprintf("%s= ", padding) + messageStyle.Sprintf("%s\n", message)
	}

	commonIndentWidth := calculateVisualColumn(commonIndent, len(commonIndent)+1)
	column := max(calculateVisualColumn(snippetLines[startLine-1], startColumn)-commonIndentWidth, 0)

	return lineStyle.Sprintf("%s| ", padding) +
		strings.Repeat(" ", column) +
		messageStyle.Sprintf("^ %s\n", message)
}

// sites lists the invocations the issue was expanded from, innermost first,
// showing at most limit of them.
func sites(sites []token.Position, padding string, limit int) string {
	var endString string
	for i, site := range sites {
		if i == limit {
			endString += lineStyle.Sprintf("%s= ", padding)
			endString += siteStyle.Sprintf("... and %d more\n", len(sites)-limit)
			break
		}
		endString += lineStyle.Sprintf("%s= ", padding)
		endString += siteStyle.Sprintf("in expansion of %s\n", site)
	}
	return endString
}

func depthInfo(padding string, depth int) string {
	if depth == 0 {
		return ""
	}
	return lineStyle.Sprintf("%s| ", padding) +
		messageStyle.Sprintf("expansion was %d invocations deep\n", depth)
}

func note(note string) string {
	if note == "" {
		return ""
	}

	var endString string
	endString = noteStyle.Sprint("Note: ")
	endString += lineStyle.Sprintf("%s\n", note)
	return endString
}

func isValidLineRange(startLine int, endLine int, snippetLines []string) bool {
	return startLine > 0 &&
		endLine > 0 &&
		startLine <= endLine &&
		startLine <= len(snippetLines) &&
		endLine <= len(snippetLines)
}

func calculateMaxLineNumWidth(endLine int) int {
	return len(fmt.Sprintf("%d", endLine))
}

// calculateVisualColumn calculates the visual column position
// in a string. taking into account tab characters.
func calculateVisualColumn(line string, column int) int {
	if column < 0 {
		return 0
	}
	visualColumn := 0
	for i, ch := range line {
		if i+1 == column {
			break
		}
		if ch == '\t' {
			visualColumn += tabWidth - (visualColumn % tabWidth)
		} else {
			visualColumn++
		}
	}
	return visualColumn
}

// findCommonIndent finds the common indent in the code snippet.
func findCommonIndent(lines []string) string {
	if len(lines) == 0 {
		return ""
	}

	// find first non-empty line's indent
	firstIndent := make([]rune, 0)
	for _, line := range lines {
		trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
		if trimmed != "" {
			firstIndent = []rune(line[:len(line)-len(trimmed)])
			break
		}
	}

	if len(firstIndent) == 0 {
		return ""
	}

	// search common indent for all non-empty lines
	for _, line := range lines {
		trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
		if trimmed == "" {
			continue
		}

		currentIndent := []rune(line[:len(line)-len(trimmed)])
		firstIndent = commonPrefix(firstIndent, currentIndent)

		if len(firstIndent) == 0 {
			break
		}
	}

	return string(firstIndent)
}

// commonPrefix finds the common prefix of two strings.
func commonPrefix(a, b []rune) []rune {
	minLen := min(len(a), len(b))
	for i := 0; i < minLen; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:minLen]
}
