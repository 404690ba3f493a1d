package model

import "time"

// RunError records one per-item failure that did not abort the run
type RunError struct {
	URL     string `json:"url"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// RunStats is the explicit run context threaded through a crawl or
// monitoring run and reported at the end, instead of mutable scraper state.
type RunStats struct {
	PagesFetched    int        `json:"pages_fetched"`
	ItemsExtracted  int        `json:"items_extracted"`
	ItemsValid      int        `json:"items_valid"`
	ItemsInvalid    int        `json:"items_invalid"`
	ItemsPersisted  int        `json:"items_persisted"`
	ChangesDetected int        `json:"changes_detected"`
	ChangesApproved int        `json:"changes_approved"`
	Errors          []RunError `json:"errors,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      time.Time  `json:"finished_at"`
}

// NewRunStats starts a run context
func NewRunStats() *RunStats {
	return &RunStats{StartedAt: time.Now().UTC()}
}

// RecordError appends a per-item failure
func (s *RunStats) RecordError(url, errType, message string) {
	s.Errors = append(s.Errors, RunError{URL: url, Type: errType, Message: message})
}

// Merge folds another stats value into this one. Start and finish
// timestamps are kept; only counters and errors accumulate.
func (s *RunStats) Merge(other *RunStats) {
	if other == nil {
		return
	}
	s.PagesFetched += other.PagesFetched
	s.ItemsExtracted += other.ItemsExtracted
	s.ItemsValid += other.ItemsValid
	s.ItemsInvalid += other.ItemsInvalid
	s.ItemsPersisted += other.ItemsPersisted
	s.ChangesDetected += other.ChangesDetected
	s.ChangesApproved += other.ChangesApproved
	s.Errors = append(s.Errors, other.Errors...)
}

// Finish stamps the end of the run
func (s *RunStats) Finish() {
	s.FinishedAt = time.Now().UTC()
}

// Duration returns the wall-clock length of the run
func (s *RunStats) Duration() time.Duration {
	end := s.FinishedAt
	if end.IsZero() {
		end = time.Now().UTC()
	}
	return end.Sub(s.StartedAt)
}
