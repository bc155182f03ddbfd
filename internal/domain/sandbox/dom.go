package sandbox

import (
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DOM is the document tree seen by sandboxed scripts
type DOM struct {
	doc     *goquery.Document
	changes []DOMChange
	mu      sync.RWMutex
}

// NewDOM parses a document into a DOM
func NewDOM(document string) (*DOM, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return nil, err
	}
	return &DOM{doc: doc}, nil
}

// Query finds elements by CSS selector. Invalid selectors match nothing.
func (d *DOM) Query(selector string) *goquery.Selection {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.doc.Find(selector)
}

// Body returns the body element
func (d *DOM) Body() *goquery.Selection {
	return d.Query("body")
}

// Title returns the document title
func (d *DOM) Title() string {
	return strings.TrimSpace(d.Query("title").First().Text())
}

// CreateElement returns a detached element
func (d *DOM) CreateElement(tag string) *goquery.Selection {
	tag = strings.ToLower(tag)
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	return goquery.NewDocumentFromNode(n).Selection
}

// Changes returns accumulated DOM changes
func (d *DOM) Changes() []DOMChange {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]DOMChange{}, d.changes...)
}

// RecordChange adds a DOM change
func (d *DOM) RecordChange(change DOMChange) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.changes = append(d.changes, change)
}

// HTML renders the current document
func (d *DOM) HTML() (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return goquery.OuterHtml(d.doc.Selection)
}

// describe returns a short selector-like path for change records.
func describe(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	name := goquery.NodeName(sel)
	if id, ok := sel.Attr("id"); ok && id != "" {
		return name + "#" + id
	}
	if class, ok := sel.Attr("class"); ok && class != "" {
		return name + "." + strings.Join(strings.Fields(class), ".")
	}
	return name
}
