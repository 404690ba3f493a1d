package extract

import (
	"strings"
	"testing"
)

const samplePage = `<html>
<head>
  <title>UPSC Engineering Services 2026</title>
  <script>var tracker = "ignore me";</script>
  <style>.hidden { display: none; }</style>
</head>
<body>
  <h1 class="page-title">Engineering Services Examination</h1>
  <div class="notice">
    <a href="/notices/ese-2026.pdf" class="pdf">Notification PDF</a>
  </div>
</body>
</html>`

func TestPageText(t *testing.T) {
	page, err := NewPage("https://upsc.gov.in/ese", 200, samplePage)
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	text := page.Text()
	if !strings.Contains(text, "Engineering Services Examination") {
		t.Errorf("Text() missing body content: %q", text)
	}
	if strings.Contains(text, "tracker") || strings.Contains(text, "display: none") {
		t.Errorf("Text() must skip script and style content: %q", text)
	}
}

func TestTrySelectorsFirstMatchWins(t *testing.T) {
	page, err := NewPage("https://upsc.gov.in/ese", 200, samplePage)
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}

	got, ok := TrySelectors(page.Find("html"), Texts(".missing", "h1.page-title", "title"))
	if !ok {
		t.Fatal("expected a match")
	}
	if got != "Engineering Services Examination" {
		t.Errorf("got %q", got)
	}
}

func TestTrySelectorsAttr(t *testing.T) {
	page, err := NewPage("https://upsc.gov.in/ese", 200, samplePage)
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}

	got, ok := TrySelectors(page.Find("html"), Attrs("href", "a.pdf"))
	if !ok || got != "/notices/ese-2026.pdf" {
		t.Errorf("got %q, %v", got, ok)
	}
}

func TestTrySelectorsInvalidSelectorIsMissingField(t *testing.T) {
	page, err := NewPage("https://upsc.gov.in/ese", 200, samplePage)
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}

	// A selector goquery cannot compile must be treated as no match,
	// then the next selector still gets its turn
	got, ok := TrySelectors(page.Find("html"), Texts("p:nth-child(", "h1.page-title"))
	if !ok || got != "Engineering Services Examination" {
		t.Errorf("got %q, %v; invalid selector must not abort the chain", got, ok)
	}
}

func TestTrySelectorsNoMatch(t *testing.T) {
	page, err := NewPage("https://upsc.gov.in/ese", 200, samplePage)
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	if got, ok := TrySelectors(page.Find("html"), Texts(".nope", "#missing")); ok {
		t.Errorf("expected no match, got %q", got)
	}
}
