package extract

import (
	"strings"

	"github.com/examwatch/examwatch/internal/model"
)

// Generic fallback selectors (tier 2), tried when the site adapter yields
// nothing. Title is preferred over link text, link text over heading text.
var (
	heuristicTitleSelectors = Texts(
		"title",
		"a[href$='.pdf']",
		"a[href*='notification']",
		"h1",
		"h2",
		"h3",
	)
	heuristicLinkSelectors = Attrs("href",
		"a[href$='.pdf']",
		"a[href*='.pdf']",
		"a[href*='notification']",
		"a[href*='notice']",
	)
	heuristicOrgSelectors = []Selector{
		{Query: ".organization"},
		{Query: ".org-name"},
		{Query: "meta[name='author']", Attr: "content"},
		{Query: "header h1"},
	}
)

// titleDateWindow bounds how far past the title text the heuristic looks
// for an embedded date
const titleDateWindow = 300

// parseHeuristic extracts the first plausible title, link and date from a
// page with no site-specific shape
func (e *Engine) parseHeuristic(page *Page) map[string]string {
	fields := make(map[string]string)

	title, ok := TrySelectors(page.Find("html"), heuristicTitleSelectors)
	if !ok {
		return fields
	}
	fields[model.FieldExamName] = title

	if link, ok := TrySelectors(page.Find("html"), heuristicLinkSelectors); ok {
		fields[model.FieldOfficialLink] = link
	}
	if org, ok := TrySelectors(page.Find("html"), heuristicOrgSelectors); ok {
		fields[model.FieldOrganization] = org
	}

	// First date-shaped substring near the title
	if date := e.dateNearTitle(page.Text(), title); date != "" {
		fields[model.FieldNotificationDate] = date
	}

	return fields
}

// dateNearTitle scans a bounded window after the title occurrence for the
// first parseable date; falls back to the start of the text when the title
// cannot be located
func (e *Engine) dateNearTitle(text, title string) string {
	window := text
	if idx := strings.Index(strings.ToLower(text), strings.ToLower(title)); idx >= 0 {
		window = text[idx:]
	}
	if len(window) > titleDateWindow {
		window = window[:titleDateWindow]
	}
	return e.dates.ExtractDate(window)
}
