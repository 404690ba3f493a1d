package extract

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/examwatch/examwatch/internal/normalize"
	"golang.org/x/net/html"
)

// Page is the fetched-page abstraction handed to extractors: the final URL,
// status code, raw body, and a structural query capability over the parsed
// document.
type Page struct {
	URL        string
	StatusCode int
	Body       string

	doc  *goquery.Document
	text string
}

// NewPage parses a fetched body into a queryable page
func NewPage(finalURL string, statusCode int, body string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", finalURL, err)
	}
	return &Page{
		URL:        finalURL,
		StatusCode: statusCode,
		Body:       body,
		doc:        doc,
	}, nil
}

// Find evaluates a CSS selector against the document
func (p *Page) Find(selector string) *goquery.Selection {
	return p.doc.Find(selector)
}

// Text returns the visible text of the page with scripts, styles and
// similar non-content subtrees skipped. The result is memoized.
func (p *Page) Text() string {
	if p.text == "" {
		var buf strings.Builder
		for _, node := range p.doc.Nodes {
			collectVisibleText(node, &buf)
		}
		p.text = strings.TrimSpace(buf.String())
	}
	return p.text
}

func collectVisibleText(n *html.Node, buf *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript", "iframe":
			return
		}
	}
	if n.Type == html.TextNode {
		text := strings.TrimSpace(n.Data)
		if text != "" {
			buf.WriteString(text)
			buf.WriteString(" ")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectVisibleText(c, buf)
	}
}

// Selector is one selector expression: a CSS query plus an optional
// attribute to read. An empty Attr reads the text content.
type Selector struct {
	Query string
	Attr  string
}

// Texts builds selectors that read text content
func Texts(queries ...string) []Selector {
	out := make([]Selector, len(queries))
	for i, q := range queries {
		out[i] = Selector{Query: q}
	}
	return out
}

// Attrs builds selectors that read the given attribute
func Attrs(attr string, queries ...string) []Selector {
	out := make([]Selector, len(queries))
	for i, q := range queries {
		out[i] = Selector{Query: q, Attr: attr}
	}
	return out
}

// TrySelectors evaluates selectors in order against sel and returns the
// first non-empty cleaned result. It returns ("", false) when every
// selector fails; selector errors are swallowed and logged at debug level.
func TrySelectors(sel *goquery.Selection, selectors []Selector) (string, bool) {
	for _, s := range selectors {
		if result := trySelector(sel, s); result != "" {
			return result, true
		}
	}
	return "", false
}

// trySelector evaluates one selector, recovering from invalid expressions
// (goquery panics on selectors cascadia cannot compile)
func trySelector(sel *goquery.Selection, s Selector) (result string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("selector failed", "query", s.Query, "error", r)
			result = ""
		}
	}()

	found := sel.Find(s.Query).First()
	if found.Length() == 0 {
		return ""
	}

	var raw string
	if s.Attr != "" {
		raw, _ = found.Attr(s.Attr)
	} else {
		raw = found.Text()
	}
	return normalize.CleanText(raw)
}
