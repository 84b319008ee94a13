package formatter

// RecursionLimitFormatter reports runaway expansions. Their site chains are
// as long as the depth limit, so only the innermost few are shown.
type RecursionLimitFormatter struct{}

func (f *RecursionLimitFormatter) IssueTemplate() string {
	return `{{header .Rule .MaxLineNumWidth .Filename .StartLine .StartColumn -}}
{{snippet .SnippetLines .StartLine .EndLine .MaxLineNumWidth .CommonIndent .Padding -}}
{{underlineAndMessage .Message .Padding .StartLine .EndLine .StartColumn .EndColumn .SnippetLines .CommonIndent -}}
{{depthInfo .Padding (len .Sites) -}}
{{sites .Sites .Padding 3 -}}
{{note .Note}}
`
}
