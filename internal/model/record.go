package model

import (
	"strings"
	"time"
)

// RecordType identifies the kind of exam event a page describes
type RecordType string

const (
	RecordNotification RecordType = "notification"
	RecordAdmitCard    RecordType = "admit_card"
	RecordResult       RecordType = "result"
	RecordAnswerKey    RecordType = "answer_key"
)

// ParsingMethod records which extraction tier produced a record
type ParsingMethod string

const (
	ParsingSelectors ParsingMethod = "selectors" // Site-specific adapter selectors
	ParsingHeuristic ParsingMethod = "heuristic" // Generic fallback patterns
	ParsingFallback  ParsingMethod = "fallback"  // LLM-assisted extraction (distrusted downstream)
)

// Well-known field names shared by extractors, the scorer and the propagator
const (
	FieldExamName         = "exam_name"
	FieldOrganization     = "organization"
	FieldDescription      = "description"
	FieldCategory         = "category"
	FieldNotificationDate = "notification_date"
	FieldResultDate       = "result_date"
	FieldApplicationStart = "application_start"
	FieldApplicationEnd   = "application_end"
	FieldExamDate         = "exam_date"
	FieldOfficialLink     = "official_link"
	FieldPDFLink          = "pdf_link"
	FieldDownloadLink     = "download_link"
	FieldApplyLink        = "apply_link"
	FieldTotalVacancies   = "total_vacancies"
	FieldYear             = "year"
	FieldStatus           = "status"
)

// DateFields are normalized to YYYY-MM-DD before a record is scored
var DateFields = []string{
	FieldNotificationDate,
	FieldResultDate,
	FieldApplicationStart,
	FieldApplicationEnd,
	FieldExamDate,
}

// URLFields are absolutized against the page URL before a record is scored
var URLFields = []string{
	FieldOfficialLink,
	FieldPDFLink,
	FieldDownloadLink,
	FieldApplyLink,
}

// ExtractedRecord is one extraction attempt over one page. It is a value
// object: the pipeline treats it as immutable once the confidence score is
// set, and it carries no persistence responsibility.
type ExtractedRecord struct {
	Type          RecordType        `json:"type"`
	SourceURL     string            `json:"source_url"`
	ScrapedAt     time.Time         `json:"scraped_at"`
	ParsingMethod ParsingMethod     `json:"parsing_method"`
	Fields        map[string]string `json:"fields"`

	ConfidenceScore      int      `json:"confidence_score"`
	ValidationFailed     bool     `json:"validation_failed,omitempty"`
	MissingFields        []string `json:"missing_fields,omitempty"`
	RequiresManualReview bool     `json:"requires_manual_review,omitempty"`
}

// NewExtractedRecord creates an empty record of the given type
func NewExtractedRecord(t RecordType, sourceURL string) *ExtractedRecord {
	return &ExtractedRecord{
		Type:      t,
		SourceURL: sourceURL,
		ScrapedAt: time.Now().UTC(),
		Fields:    make(map[string]string),
	}
}

// Get returns the value of a field, or "" if absent
func (r *ExtractedRecord) Get(name string) string {
	return r.Fields[name]
}

// Set stores a field value. Empty values are stored as-is so the attempted
// field remains visible downstream.
func (r *ExtractedRecord) Set(name, value string) {
	r.Fields[name] = value
}

// Has reports whether a field is present and non-blank
func (r *ExtractedRecord) Has(name string) bool {
	return strings.TrimSpace(r.Fields[name]) != ""
}
