package model

import "time"

// Exam statuses mutated by the propagator
const (
	StatusUpcoming  = "upcoming"
	StatusActive    = "active"
	StatusCancelled = "CANCELLED"
	StatusPostponed = "POSTPONED"
)

// Exam is the persisted exam entity, uniquely identified by a normalized
// slug. The pipeline mutates its status fields only through the propagator
// and never deletes it.
type Exam struct {
	ID              int64      `json:"id"`
	Slug            string     `json:"slug"`
	Name            string     `json:"name"`
	Organization    string     `json:"organization"`
	Category        string     `json:"category"`
	ExamType        string     `json:"exam_type"`
	Status          string     `json:"status"`
	StatusReason    string     `json:"status_reason,omitempty"`
	StatusSourceURL string     `json:"status_source_url,omitempty"`
	StatusUpdatedAt *time.Time `json:"status_updated_at,omitempty"`
	IsActive        bool       `json:"is_active"`
}

// ExamEvent is the persisted event entity. At most one event exists per
// (exam, year, event type); that triple is the upsert key.
type ExamEvent struct {
	ID               int64      `json:"id"`
	ExamID           int64      `json:"exam_id"`
	Year             int        `json:"year"`
	EventType        RecordType `json:"event_type"`
	EventDate        string     `json:"event_date,omitempty"` // YYYY-MM-DD
	ApplicationStart string     `json:"application_start,omitempty"`
	ApplicationEnd   string     `json:"application_end,omitempty"`
	ExamDate         string     `json:"exam_date,omitempty"`
	Status           string     `json:"status"`
	OfficialLink     string     `json:"official_link,omitempty"`
	PDFLink          string     `json:"pdf_link,omitempty"`
	DownloadLink     string     `json:"download_link,omitempty"`
	TotalVacancies   *int       `json:"total_vacancies,omitempty"`

	// Details holds everything the extractor produced, as an opaque payload
	Details map[string]string `json:"details,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// MonitoringTarget lists the URLs re-checked for an exam. The pipeline
// mutates only LastContentHash on it (write-after-check).
type MonitoringTarget struct {
	ID              int64    `json:"id"`
	ExamID          int64    `json:"exam_id"`
	URLs            []string `json:"urls"`
	LastContentHash string   `json:"last_content_hash,omitempty"`
	IsActive        bool     `json:"is_active"`
}
