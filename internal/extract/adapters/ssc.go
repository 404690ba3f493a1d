package adapters

import (
	"fmt"

	"github.com/examwatch/examwatch/internal/extract"
	"github.com/examwatch/examwatch/internal/model"
)

// SSCAdapter extracts exam events from ssc.nic.in and the SSC regional
// sites, which publish mostly table-based listings.
type SSCAdapter struct {
	titleSelectors []extract.Selector
	dateSelectors  []extract.Selector
	linkSelectors  []extract.Selector
}

// NewSSCAdapter creates the SSC site adapter
func NewSSCAdapter() *SSCAdapter {
	return &SSCAdapter{
		titleSelectors: extract.Texts(
			"table tr td:first-child",
			".notification-title",
			"h2",
			"h3",
			"a",
		),
		dateSelectors: extract.Texts(
			"table tr td:nth-child(2)",
			".date",
			"span.date",
		),
		linkSelectors: extract.Attrs("href",
			"a[href$='.pdf']",
			"a[href*='.pdf']",
			"a",
		),
	}
}

// Name returns the adapter name
func (a *SSCAdapter) Name() string { return "ssc" }

// CanHandle claims SSC pages, including the regional boards
func (a *SSCAdapter) CanHandle(pageURL string) bool {
	for _, domain := range []string{"ssc.nic.in", "ssc-wr.org", "sscner.org.in", "sscsr.gov.in"} {
		if hostMatches(pageURL, domain) {
			return true
		}
	}
	return false
}

// Parse extracts the requested record type from an SSC listing page
func (a *SSCAdapter) Parse(page *extract.Page, t model.RecordType) (map[string]string, error) {
	title, ok := extract.TrySelectors(page.Find("html"), a.titleSelectors)
	if !ok {
		return nil, fmt.Errorf("ssc: no title on %s", page.URL)
	}

	fields := map[string]string{
		model.FieldExamName:     title,
		model.FieldOrganization: "Staff Selection Commission (SSC)",
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
