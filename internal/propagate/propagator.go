// Package propagate turns scored records and verified change events
// into database writes. It is the only component that mutates exam
// state, and it keeps the status update and the page invalidation in
// one transaction.
package propagate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/examwatch/examwatch/internal/alert"
	"github.com/examwatch/examwatch/internal/backup"
	"github.com/examwatch/examwatch/internal/model"
	"github.com/examwatch/examwatch/internal/store"
)

var (
	slugStripRe = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaceRe = regexp.MustCompile(`\s+`)
	yearRe      = regexp.MustCompile(`\b(\d{4})\b`)
)

// Slugify derives the canonical exam identity from a display name:
// lowercase, alphanumerics and hyphens only, whitespace collapsed to
// single hyphens. "UPSC Civil Services (Prelims) 2026" becomes
// "upsc-civil-services-prelims-2026".
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugStripRe.ReplaceAllString(s, "")
	s = slugSpaceRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// InferYear resolves the event year for a record: an explicit year
// field wins, then the first four-digit number found in a date field,
// then the current year.
func InferYear(record *model.ExtractedRecord, now time.Time) int {
	if y, err := strconv.Atoi(strings.TrimSpace(record.Get(model.FieldYear))); err == nil && y > 0 {
		return y
	}
	for _, field := range model.DateFields {
		if m := yearRe.FindString(record.Get(field)); m != "" {
			y, _ := strconv.Atoi(m)
			return y
		}
	}
	return now.Year()
}

// typeDate names the date field that anchors each record type
func typeDate(t model.RecordType) string {
	switch t {
	case model.RecordResult, model.RecordAnswerKey:
		return model.FieldResultDate
	case model.RecordAdmitCard:
		return model.FieldExamDate
	default:
		return model.FieldNotificationDate
	}
}

// Propagator writes records and status changes through the store. One
// failing item never aborts a batch: persistence failures are backed up
// and reported to the caller per item.
type Propagator struct {
	store    store.Store
	sink     *backup.Sink
	notifier alert.Notifier
	logger   *slog.Logger
}

func NewPropagator(st store.Store, sink *backup.Sink, notifier alert.Notifier, logger *slog.Logger) *Propagator {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = alert.NewLogNotifier(logger)
	}
	return &Propagator{store: st, sink: sink, notifier: notifier, logger: logger}
}

// SaveRecord persists one extracted record as an exam event. Records
// that failed validation go to the backup sink and return a nil event.
// The bool reports whether the event row was created rather than
// updated.
func (p *Propagator) SaveRecord(ctx context.Context, record *model.ExtractedRecord) (*model.ExamEvent, bool, error) {
	if record.ValidationFailed {
		p.backup(backup.ReasonMissingMandatory, record, nil)
		return nil, false, nil
	}

	name := record.Get(model.FieldExamName)
	slug := Slugify(name)
	if slug == "" {
		p.backup(backup.ReasonMissingMandatory, record, nil)
		return nil, false, nil
	}

	exam, err := p.store.GetOrCreateExam(ctx, slug, store.ExamAttrs{
		Name:         name,
		Organization: record.Get(model.FieldOrganization),
		Category:     record.Get(model.FieldCategory),
		ExamType:     record.Get(model.FieldCategory),
	})
	if err != nil {
		return nil, false, p.saveFailed(record, err)
	}

	year := InferYear(record, time.Now())
	event, created, err := p.store.UpsertExamEvent(ctx, exam.ID, year, record.Type, p.eventFields(record))
	if err != nil {
		return nil, false, p.saveFailed(record, err)
	}

	p.logger.Info("exam event saved",
		"exam_slug", slug,
		"year", year,
		"event_type", record.Type,
		"created", created,
		"confidence", record.ConfidenceScore)
	return event, created, nil
}

// eventFields maps record fields onto the event row. Fields that have
// no dedicated column land in the details object.
func (p *Propagator) eventFields(record *model.ExtractedRecord) store.EventFields {
	fields := store.EventFields{
		EventDate:        record.Get(typeDate(record.Type)),
		ApplicationStart: record.Get(model.FieldApplicationStart),
		ApplicationEnd:   record.Get(model.FieldApplicationEnd),
		ExamDate:         record.Get(model.FieldExamDate),
		Status:           record.Get(model.FieldStatus),
		OfficialLink:     record.Get(model.FieldOfficialLink),
		PDFLink:          record.Get(model.FieldPDFLink),
		DownloadLink:     record.Get(model.FieldDownloadLink),
	}
	if fields.OfficialLink == "" {
		fields.OfficialLink = record.SourceURL
	}
	if n, err := strconv.Atoi(record.Get(model.FieldTotalVacancies)); err == nil {
		fields.TotalVacancies = &n
	}

	details := make(map[string]string)
	for _, f := range []string{model.FieldDescription, model.FieldApplyLink} {
		if record.Has(f) {
			details[f] = record.Get(f)
		}
	}
	if record.RequiresManualReview {
		details["requires_manual_review"] = "true"
	}
	if len(details) > 0 {
		fields.Details = details
	}
	return fields
}

func (p *Propagator) saveFailed(record *model.ExtractedRecord, err error) error {
	reason := backup.ReasonUnexpectedError
	if errors.Is(err, store.ErrIntegrity) {
		reason = backup.ReasonIntegrityError
	}
	p.backup(reason, record, err)
	return fmt.Errorf("save record from %s: %w", record.SourceURL, err)
}

func (p *Propagator) backup(reason string, record *model.ExtractedRecord, cause error) {
	if p.sink == nil {
		return
	}
	if err := p.sink.Save(reason, record, cause); err != nil {
		p.logger.Error("backup sink failed", "reason", reason, "error", err)
	}
}

// ApplyStatusChange propagates a verified change event onto the exam:
// the status update and the stale-page marking commit together or not
// at all. The alert fires only after the commit and its failure is
// logged, never returned.
func (p *Propagator) ApplyStatusChange(ctx context.Context, exam *model.Exam, change *model.ChangeEvent, sourceURL string) error {
	var status string
	switch change.Type {
	case model.ChangeCancelled:
		status = model.StatusCancelled
	case model.ChangePostponed:
		status = model.StatusPostponed
	default:
		// Context-only changes carry no status transition
		p.logger.Info("change without status transition",
			"exam_slug", exam.Slug, "change_type", change.Type)
		return nil
	}

	reason := strings.Join(change.KeywordsFound, ", ")
	err := p.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.UpdateExamStatus(ctx, exam.ID, status, reason, sourceURL); err != nil {
			return err
		}
		return tx.MarkPagesStale(ctx, exam.ID)
	})
	if err != nil {
		return fmt.Errorf("propagate %s for exam %s: %w", status, exam.Slug, err)
	}

	p.logger.Warn("exam status propagated",
		"exam_slug", exam.Slug,
		"status", status,
		"confidence", change.Confidence,
		"source_url", sourceURL)

	if err := p.notifier.Notify(ctx, alert.StatusAlert{
		ExamID:    exam.ID,
		ExamSlug:  exam.Slug,
		Status:    status,
		Reason:    reason,
		SourceURL: sourceURL,
		Change:    change,
	}); err != nil {
		p.logger.Error("status alert failed", "exam_slug", exam.Slug, "error", err)
	}
	return nil
}
