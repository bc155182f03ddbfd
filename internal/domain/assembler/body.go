package assembler

import (
	"regexp"
)

var (
	bodyRegion  = regexp.MustCompile(`(?is)<body(?:\s[^>]*)?>(.*?)</body\s*>`)
	doctypeTag  = regexp.MustCompile(`(?i)<!DOCTYPE[^>]*>`)
	htmlTag     = regexp.MustCompile(`(?i)</?html(?:\s[^>]*)?>`)
	headSection = regexp.MustCompile(`(?is)<head(?:\s[^>]*)?>.*?</head\s*>`)
	strayBody   = regexp.MustCompile(`(?i)</?body(?:\s[^>]*)?>`)
)

// ExtractBody returns the inner content of the first <body> element. Without
// one, it strips document scaffolding (doctype, html tags, the head block and
// stray body tags) and returns what is left. Best effort, not a parser.
func ExtractBody(html string) string {
	if m := bodyRegion.FindStringSubmatch(html); m != nil {
		return m[1]
	}

	content := html
	if loc := doctypeTag.FindStringIndex(content); loc != nil {
		content = content[:loc[0]] + content[loc[1]:]
	}
	content = htmlTag.ReplaceAllString(content, "")
	content = headSection.ReplaceAllString(content, "")
	content = strayBody.ReplaceAllString(content, "")

	return content
}
