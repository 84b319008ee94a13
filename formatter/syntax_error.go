package formatter

type SyntaxErrorFormatter struct{}

func (f *SyntaxErrorFormatter) IssueTemplate() string {
	return `{{header .Rule .MaxLineNumWidth .Filename .StartLine .StartColumn -}}
{{snippet .SnippetLines .StartLine .StartLine .MaxLineNumWidth .CommonIndent .Padding -}}
{{caretAndMessage .Message .Padding .StartLine .StartColumn .SnippetLines .CommonIndent -}}
{{note .Note}}
`
}
