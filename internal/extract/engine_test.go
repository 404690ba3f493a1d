package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/examwatch/examwatch/internal/model"
	"github.com/examwatch/examwatch/internal/normalize"
)

type stubAdapter struct {
	fields map[string]string
	err    error
}

func (a *stubAdapter) Name() string          { return "stub" }
func (a *stubAdapter) CanHandle(string) bool { return true }
func (a *stubAdapter) Parse(*Page, model.RecordType) (map[string]string, error) {
	return a.fields, a.err
}

type stubFinder struct {
	adapter Adapter
}

func (f *stubFinder) Find(string) Adapter { return f.adapter }

type stubSemantic struct {
	fields map[string]string
	err    error
	called bool
}

func (s *stubSemantic) ParseRecord(context.Context, string, model.RecordType) (map[string]string, error) {
	s.called = true
	return s.fields, s.err
}

func testEngine(finder AdapterFinder, semantic SemanticParser) *Engine {
	return NewEngine(finder, semantic, normalize.NewDateParser(2020, 2030))
}

func mustPage(t *testing.T, url, body string) *Page {
	t.Helper()
	page, err := NewPage(url, 200, body)
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	return page
}

func TestExtractAdapterTier(t *testing.T) {
	adapter := &stubAdapter{fields: map[string]string{
		model.FieldExamName:         "UPSC CSE 2026",
		model.FieldNotificationDate: "15th March 2026",
		model.FieldPDFLink:          "/notices/cse.pdf",
	}}
	e := testEngine(&stubFinder{adapter: adapter}, nil)

	page := mustPage(t, "https://upsc.gov.in/notices", "<html><body></body></html>")
	record, err := e.Extract(context.Background(), page, model.RecordNotification)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if record.ParsingMethod != model.ParsingSelectors {
		t.Errorf("ParsingMethod = %s, want selectors", record.ParsingMethod)
	}
	if got := record.Get(model.FieldNotificationDate); got != "2026-03-15" {
		t.Errorf("notification_date = %q, want normalized 2026-03-15", got)
	}
	if got := record.Get(model.FieldPDFLink); got != "https://upsc.gov.in/notices/cse.pdf" {
		t.Errorf("pdf_link = %q, want absolutized", got)
	}
}

func TestExtractFallsBackToHeuristic(t *testing.T) {
	// Adapter yields nothing useful
	adapter := &stubAdapter{fields: map[string]string{}}
	e := testEngine(&stubFinder{adapter: adapter}, nil)

	page := mustPage(t, "https://example.gov.in/n", `<html>
<head><title>State PSC Recruitment 2026</title></head>
<body><a href="/adv/psc-2026.pdf">Advertisement</a></body></html>`)
	record, err := e.Extract(context.Background(), page, model.RecordNotification)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if record.ParsingMethod != model.ParsingHeuristic {
		t.Errorf("ParsingMethod = %s, want heuristic", record.ParsingMethod)
	}
	if got := record.Get(model.FieldExamName); got != "State PSC Recruitment 2026" {
		t.Errorf("exam_name = %q", got)
	}
}

func TestExtractSemanticTierTagged(t *testing.T) {
	semantic := &stubSemantic{fields: map[string]string{
		model.FieldExamName:     "Railway RRB NTPC 2026",
		model.FieldOrganization: "Railway Recruitment Board",
	}}
	e := testEngine(&stubFinder{}, semantic)

	// No adapter match, nothing for the heuristic either
	page := mustPage(t, "https://example.gov.in/n", "<html><body><p>plain prose announcement</p></body></html>")
	record, err := e.Extract(context.Background(), page, model.RecordNotification)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !semantic.called {
		t.Error("semantic tier was not consulted")
	}
	if record.ParsingMethod != model.ParsingFallback {
		t.Errorf("ParsingMethod = %s, want fallback", record.ParsingMethod)
	}
}

func TestExtractSemanticDisabled(t *testing.T) {
	e := testEngine(&stubFinder{}, nil)
	page := mustPage(t, "https://example.gov.in/n", "<html><body><p>plain prose announcement</p></body></html>")
	_, err := e.Extract(context.Background(), page, model.RecordNotification)
	if !errors.Is(err, ErrNoData) {
		t.Errorf("err = %v, want ErrNoData when every tier fails", err)
	}
}

func TestExtractAdapterErrorFallsThrough(t *testing.T) {
	adapter := &stubAdapter{err: errors.New("selector blew up")}
	e := testEngine(&stubFinder{adapter: adapter}, nil)

	page := mustPage(t, "https://example.gov.in/n", `<html>
<head><title>Forest Guard Recruitment 2026</title></head><body></body></html>`)
	record, err := e.Extract(context.Background(), page, model.RecordNotification)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if record.ParsingMethod != model.ParsingHeuristic {
		t.Errorf("ParsingMethod = %s, adapter failure must fall through to heuristic", record.ParsingMethod)
	}
}

func TestExtractNormalizesVacancies(t *testing.T) {
	adapter := &stubAdapter{fields: map[string]string{
		model.FieldExamName:       "SSC GD Constable 2026",
		model.FieldTotalVacancies: "Total 39,481 posts",
	}}
	e := testEngine(&stubFinder{adapter: adapter}, nil)

	page := mustPage(t, "https://ssc.nic.in/gd", "<html><body></body></html>")
	record, err := e.Extract(context.Background(), page, model.RecordNotification)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got := record.Get(model.FieldTotalVacancies); got != "39481" {
		t.Errorf("total_vacancies = %q, want 39481", got)
	}
}
