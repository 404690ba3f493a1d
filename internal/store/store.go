// Package store is the persistence collaborator boundary. Upstream
// components produce value objects; only the propagator writes through
// this interface.
package store

import (
	"context"
	"errors"

	"github.com/examwatch/examwatch/internal/model"
)

var (
	// ErrExamNotFound is returned when a status update targets a missing exam
	ErrExamNotFound = errors.New("exam not found")
	// ErrTargetNotFound is returned when a hash update targets a missing
	// monitoring target
	ErrTargetNotFound = errors.New("monitoring target not found")

	// ErrIntegrity wraps database constraint violations so callers can
	// route the offending item to the backup sink
	ErrIntegrity = errors.New("integrity constraint violated")
)

// ExamAttrs are the creation attributes for a new exam
type ExamAttrs struct {
	Name         string
	Organization string
	Category     string
	ExamType     string
}

// EventFields are the persisted fields of an exam event upsert
type EventFields struct {
	EventDate        string
	ApplicationStart string
	ApplicationEnd   string
	ExamDate         string
	Status           string
	OfficialLink     string
	PDFLink          string
	DownloadLink     string
	TotalVacancies   *int
	Details          map[string]string
}

// Store is the outbound persistence interface. Implementations must make
// UpsertExamEvent idempotent on (exam, year, event type) and must let
// WithTx run the two propagation writes atomically.
type Store interface {
	// GetOrCreateExam resolves an exam by slug, creating it with attrs on
	// first sight. Slug collisions on distinct names resolve to the first
	// writer.
	GetOrCreateExam(ctx context.Context, slug string, attrs ExamAttrs) (*model.Exam, error)

	// GetExamByID loads one exam, ErrExamNotFound if absent
	GetExamByID(ctx context.Context, id int64) (*model.Exam, error)

	// UpsertExamEvent updates the event if (examID, year, eventType)
	// exists, inserts otherwise. The bool reports creation.
	UpsertExamEvent(ctx context.Context, examID int64, year int, eventType model.RecordType, fields EventFields) (*model.ExamEvent, bool, error)

	// UpdateExamStatus sets the exam's status, reason, source URL and
	// status timestamp
	UpdateExamStatus(ctx context.Context, examID int64, status, reason, sourceURL string) error

	// MarkPagesStale flags every generated page of the exam for
	// regeneration
	MarkPagesStale(ctx context.Context, examID int64) error

	// ListActiveTargets returns the monitoring targets to re-check
	ListActiveTargets(ctx context.Context) ([]model.MonitoringTarget, error)

	// UpdateLastContentHash records the content hash seen for a target
	UpdateLastContentHash(ctx context.Context, targetID int64, hash string) error

	// WithTx runs fn against a transactional view of the store. fn
	// returning an error rolls back every write made through its argument.
	WithTx(ctx context.Context, fn func(Store) error) error
}
