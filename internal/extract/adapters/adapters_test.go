package adapters

import (
	"testing"

	"github.com/examwatch/examwatch/internal/extract"
	"github.com/examwatch/examwatch/internal/model"
)

func mustPage(t *testing.T, url, body string) *extract.Page {
	t.Helper()
	page, err := extract.NewPage(url, 200, body)
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	return page
}

func TestRegistryFind(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		url  string
		want string
	}{
		{"https://upsc.gov.in/whats-new", "upsc"},
		{"https://www.upsc.gov.in/whats-new", "upsc"},
		{"https://ssc.nic.in/portal/notice", "ssc"},
		{"https://sscsr.gov.in/results", "ssc"},
		{"https://unknown-board.gov.in/n", ""},
		{"not a url", ""},
	}
	for _, tt := range tests {
		adapter := r.Find(tt.url)
		got := ""
		if adapter != nil {
			got = adapter.Name()
		}
		if got != tt.want {
			t.Errorf("Find(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

const upscNoticePage = `<html><body>
<div class="notification">
  <div class="notification-title"><a href="/notice/cse-2026">Civil Services (Preliminary) Examination, 2026</a></div>
  <span class="notification-date">11/02/2026</span>
  <a href="/sites/default/files/cse-notice-2026.pdf">Download Notification</a>
</div>
</body></html>`

func TestUPSCAdapterNotification(t *testing.T) {
	a := NewUPSCAdapter()
	page := mustPage(t, "https://upsc.gov.in/whats-new", upscNoticePage)

	fields, err := a.Parse(page, model.RecordNotification)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := fields[model.FieldExamName]; got != "Civil Services (Preliminary) Examination, 2026" {
		t.Errorf("exam_name = %q", got)
	}
	if got := fields[model.FieldOrganization]; got != "Union Public Service Commission (UPSC)" {
		t.Errorf("organization = %q", got)
	}
	if got := fields[model.FieldNotificationDate]; got != "11/02/2026" {
		t.Errorf("notification_date = %q (raw, normalization happens later)", got)
	}
	if got := fields[model.FieldPDFLink]; got != "/sites/default/files/cse-notice-2026.pdf" {
		t.Errorf("pdf_link = %q", got)
	}
	if got := fields[model.FieldOfficialLink]; got != page.URL {
		t.Errorf("official_link = %q, want the page URL", got)
	}
}

func TestUPSCAdapterAdmitCardFields(t *testing.T) {
	a := NewUPSCAdapter()
	page := mustPage(t, "https://upsc.gov.in/admit-cards", upscNoticePage)

	fields, err := a.Parse(page, model.RecordAdmitCard)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := fields[model.FieldNotificationDate]; ok {
		t.Error("admit card must not set notification_date")
	}
	if got := fields[model.FieldExamDate]; got == "" {
		t.Error("admit card must map the date to exam_date")
	}
	if got := fields[model.FieldDownloadLink]; got == "" {
		t.Error("admit card must map the link to download_link")
	}
}

func TestUPSCAdapterNoTitle(t *testing.T) {
	a := NewUPSCAdapter()
	page := mustPage(t, "https://upsc.gov.in/empty", "<html><body><p>nothing here</p></body></html>")
	if _, err := a.Parse(page, model.RecordNotification); err == nil {
		t.Error("expected error when no title selector matches")
	}
}

const sscListingPage = `<html><body>
<table>
<tr>
  <td>Combined Graduate Level Examination 2026</td>
  <td>20-02-2026</td>
  <td><a href="/notice/cgl-2026.pdf">Notice</a></td>
</tr>
</table>
</body></html>`

func TestSSCAdapterNotification(t *testing.T) {
	a := NewSSCAdapter()
	page := mustPage(t, "https://ssc.nic.in/portal/notices", sscListingPage)

	fields, err := a.Parse(page, model.RecordNotification)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := fields[model.FieldExamName]; got != "Combined Graduate Level Examination 2026" {
		t.Errorf("exam_name = %q", got)
	}
	if got := fields[model.FieldOrganization]; got != "Staff Selection Commission (SSC)" {
		t.Errorf("organization = %q", got)
	}
	if got := fields[model.FieldNotificationDate]; got != "20-02-2026" {
		t.Errorf("notification_date = %q", got)
	}
	if got := fields[model.FieldPDFLink]; got != "/notice/cgl-2026.pdf" {
		t.Errorf("pdf_link = %q", got)
	}
}

func TestHostMatches(t *testing.T) {
	tests := []struct {
		url    string
		domain string
		want   bool
	}{
		{"https://upsc.gov.in/x", "upsc.gov.in", true},
		{"https://www.upsc.gov.in/x", "upsc.gov.in", true},
		{"https://portal.upsc.gov.in/x", "upsc.gov.in", true},
		{"https://upsc.gov.in.evil.example/x", "upsc.gov.in", false},
		{"https://notupsc.gov.in/x", "upsc.gov.in", false},
	}
	for _, tt := range tests {
		if got := hostMatches(tt.url, tt.domain); got != tt.want {
			t.Errorf("hostMatches(%q, %q) = %v, want %v", tt.url, tt.domain, got, tt.want)
		}
	}
}
