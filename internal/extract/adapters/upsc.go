package adapters

import (
	"fmt"

	"github.com/examwatch/examwatch/internal/extract"
	"github.com/examwatch/examwatch/internal/model"
)

// UPSCAdapter extracts exam events from upsc.gov.in pages. UPSC publishes
// notifications, admit cards and results across several page shapes
// (div-based, list-based, table-based), so every field carries a fallback
// selector chain.
type UPSCAdapter struct {
	titleSelectors []extract.Selector
	dateSelectors  []extract.Selector
	linkSelectors  []extract.Selector
}

// NewUPSCAdapter creates the UPSC site adapter
func NewUPSCAdapter() *UPSCAdapter {
	return &UPSCAdapter{
		titleSelectors: extract.Texts(
			".notification-title a",
			".exam-title",
			"h3.title",
			"h3 a",
			"h2 a",
			"td.title",
			"a[href*='.pdf']", // Last resort: PDF link text
		),
		dateSelectors: extract.Texts(
			".notification-date",
			".date",
			"span.date",
			"td.date",
		),
		linkSelectors: extract.Attrs("href",
			"a[href$='.pdf']",
			"a[href*='.pdf']",
			".download-link",
		),
	}
}

// Name returns the adapter name
func (a *UPSCAdapter) Name() string { return "upsc" }

// CanHandle claims UPSC pages
func (a *UPSCAdapter) CanHandle(pageURL string) bool {
	return hostMatches(pageURL, "upsc.gov.in")
}

// Parse extracts the requested record type from a UPSC page
func (a *UPSCAdapter) Parse(page *extract.Page, t model.RecordType) (map[string]string, error) {
	title, ok := extract.TrySelectors(page.Find("html"), a.titleSelectors)
	if !ok {
		return nil, fmt.Errorf("upsc: no title on %s", page.URL)
	}

	fields := map[string]string{
		model.FieldExamName:     title,
		model.FieldOrganization: "Union Public Service Commission (UPSC)",
		model.FieldCategory:     "Central Government",
		model.FieldOfficialLink: page.URL,
	}

	date, _ := extract.TrySelectors(page.Find("html"), a.dateSelectors)
	link, _ := extract.TrySelectors(page.Find("html"), a.linkSelectors)

	switch t {
	case model.RecordNotification:
		fields[model.FieldNotificationDate] = date
		fields[model.FieldPDFLink] = link
	case model.RecordAdmitCard:
		fields[model.FieldExamDate] = date
		fields[model.FieldDownloadLink] = link
	case model.RecordResult, model.RecordAnswerKey:
		fields[model.FieldResultDate] = date
		fields[model.FieldPDFLink] = link
	}

	return fields, nil
}
