package sandbox

import (
	"strings"

	"github.com/antchfx/htmlquery"
)

// script is an inline script element in document order.
type script struct {
	Source string
	Line   int // 1-based document line of the first source character
}

// extractScripts returns the classic inline scripts of a document. Scripts
// with a non-JavaScript type are skipped, as browsers do.
func extractScripts(document string) ([]script, error) {
	root, err := htmlquery.Parse(strings.NewReader(document))
	if err != nil {
		return nil, err
	}

	var (
		scripts []script
		cursor  int
	)
	for _, n := range htmlquery.Find(root, "//script") {
		if !isClassicScript(htmlquery.SelectAttr(n, "type")) {
			continue
		}
		if htmlquery.SelectAttr(n, "src") != "" {
			continue
		}
		source := htmlquery.InnerText(n)
		line := 1
		if source != "" {
			if idx := strings.Index(document[cursor:], source); idx >= 0 {
				abs := cursor + idx
				line += strings.Count(document[:abs], "\n")
				cursor = abs + len(source)
			}
		}
		scripts = append(scripts, script{Source: source, Line: line})
	}
	return scripts, nil
}

func isClassicScript(typ string) bool {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "", "text/javascript", "application/javascript", "text/ecmascript", "application/ecmascript":
		return true
	}
	return false
}

// padded shifts source so that parser line numbers match document lines.
func (s script) padded() string {
	if s.Line <= 1 {
		return s.Source
	}
	return strings.Repeat("\n", s.Line-1) + s.Source
}
