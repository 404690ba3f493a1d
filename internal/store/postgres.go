package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/examwatch/examwatch/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so the same
// store methods run inside and outside a transaction
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store on PostgreSQL via pgx
type PostgresStore struct {
	pool *pgxpool.Pool
	db   querier
}

// NewPostgresStore connects to the database and verifies the connection
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	config.MaxConns = 10
	config.MaxConnLifetime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{pool: pool, db: pool}, nil
}

// Close releases the connection pool
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate applies the embedded schema
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// GetOrCreateExam resolves an exam by slug, creating it on first sight.
// The insert is a no-op on conflict, so concurrent creators and distinct
// names colliding on one slug both resolve to the first writer.
func (s *PostgresStore) GetOrCreateExam(ctx context.Context, slug string, attrs ExamAttrs) (*model.Exam, error) {
	_, err := s.db.Exec(ctx, `
		INSERT INTO exams (slug, name, organization, category, exam_type)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (slug) DO NOTHING
	`, slug, attrs.Name, attrs.Organization, attrs.Category, attrs.ExamType)
	if err != nil {
		return nil, fmt.Errorf("create exam %q: %w", slug, classify(err))
	}

	var exam model.Exam
	err = s.db.QueryRow(ctx, `
		SELECT id, slug, name, organization, category, exam_type,
		       status, status_reason, status_source_url, status_updated_at, is_active
		FROM exams WHERE slug = $1
	`, slug).Scan(
		&exam.ID, &exam.Slug, &exam.Name, &exam.Organization, &exam.Category,
		&exam.ExamType, &exam.Status, &exam.StatusReason, &exam.StatusSourceURL,
		&exam.StatusUpdatedAt, &exam.IsActive,
	)
	if err != nil {
		return nil, fmt.Errorf("load exam %q: %w", slug, err)
	}
	return &exam, nil
}

// GetExamByID loads one exam by primary key
func (s *PostgresStore) GetExamByID(ctx context.Context, id int64) (*model.Exam, error) {
	var exam model.Exam
	err := s.db.QueryRow(ctx, `
		SELECT id, slug, name, organization, category, exam_type,
		       status, status_reason, status_source_url, status_updated_at, is_active
		FROM exams WHERE id = $1
	`, id).Scan(
		&exam.ID, &exam.Slug, &exam.Name, &exam.Organization, &exam.Category,
		&exam.ExamType, &exam.Status, &exam.StatusReason, &exam.StatusSourceURL,
		&exam.StatusUpdatedAt, &exam.IsActive,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrExamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load exam %d: %w", id, err)
	}
	return &exam, nil
}

// UpsertExamEvent inserts or updates the event keyed by
// (exam_id, year, event_type). Re-applying the same item overwrites the
// row's fields in place; it never duplicates.
func (s *PostgresStore) UpsertExamEvent(ctx context.Context, examID int64, year int, eventType model.RecordType, fields EventFields) (*model.ExamEvent, bool, error) {
	details, err := json.Marshal(fields.Details)
	if err != nil {
		return nil, false, fmt.Errorf("encode event details: %w", err)
	}

	var (
		event   model.ExamEvent
		created bool
	)
	// xmax = 0 distinguishes a fresh insert from a conflict update
	err = s.db.QueryRow(ctx, `
		INSERT INTO exam_events (
			exam_id, year, event_type, event_date, application_start,
			application_end, exam_date, status, official_link, pdf_link,
			download_link, total_vacancies, details, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		ON CONFLICT (exam_id, year, event_type) DO UPDATE SET
			event_date = EXCLUDED.event_date,
			application_start = EXCLUDED.application_start,
			application_end = EXCLUDED.application_end,
			exam_date = EXCLUDED.exam_date,
			status = EXCLUDED.status,
			official_link = EXCLUDED.official_link,
			pdf_link = EXCLUDED.pdf_link,
			download_link = EXCLUDED.download_link,
			total_vacancies = EXCLUDED.total_vacancies,
			details = EXCLUDED.details,
			updated_at = NOW()
		RETURNING id, (xmax = 0), updated_at
	`, examID, year, string(eventType), fields.EventDate, fields.ApplicationStart,
		fields.ApplicationEnd, fields.ExamDate, fields.Status, fields.OfficialLink,
		fields.PDFLink, fields.DownloadLink, fields.TotalVacancies, details,
	).Scan(&event.ID, &created, &event.UpdatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("upsert event (%d, %d, %s): %w", examID, year, eventType, classify(err))
	}

	event.ExamID = examID
	event.Year = year
	event.EventType = eventType
	event.EventDate = fields.EventDate
	event.ApplicationStart = fields.ApplicationStart
	event.ApplicationEnd = fields.ApplicationEnd
	event.ExamDate = fields.ExamDate
	event.Status = fields.Status
	event.OfficialLink = fields.OfficialLink
	event.PDFLink = fields.PDFLink
	event.DownloadLink = fields.DownloadLink
	event.TotalVacancies = fields.TotalVacancies
	event.Details = fields.Details
	return &event, created, nil
}

// UpdateExamStatus sets the status fields on one exam
func (s *PostgresStore) UpdateExamStatus(ctx context.Context, examID int64, status, reason, sourceURL string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE exams
		SET status = $1, status_reason = $2, status_source_url = $3,
		    status_updated_at = NOW(), updated_at = NOW()
		WHERE id = $4
	`, status, reason, sourceURL, examID)
	if err != nil {
		return fmt.Errorf("update exam %d status: %w", examID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrExamNotFound
	}
	return nil
}

// MarkPagesStale flags every generated page of the exam for regeneration
func (s *PostgresStore) MarkPagesStale(ctx context.Context, examID int64) error {
	_, err := s.db.Exec(ctx, `
		UPDATE page_metadata
		SET needs_regeneration = TRUE, updated_at = NOW()
		WHERE exam_id = $1
	`, examID)
	if err != nil {
		return fmt.Errorf("mark pages stale for exam %d: %w", examID, err)
	}
	return nil
}

// ListActiveTargets returns every active monitoring target
func (s *PostgresStore) ListActiveTargets(ctx context.Context) ([]model.MonitoringTarget, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, exam_id, urls, last_content_hash, is_active
		FROM monitoring_targets
		WHERE is_active = TRUE
	`)
	if err != nil {
		return nil, fmt.Errorf("list monitoring targets: %w", err)
	}
	defer rows.Close()

	var targets []model.MonitoringTarget
	for rows.Next() {
		var t model.MonitoringTarget
		if err := rows.Scan(&t.ID, &t.ExamID, &t.URLs, &t.LastContentHash, &t.IsActive); err != nil {
			return nil, fmt.Errorf("scan monitoring target: %w", err)
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monitoring targets: %w", err)
	}
	return targets, nil
}

// UpdateLastContentHash records the hash seen for a target
func (s *PostgresStore) UpdateLastContentHash(ctx context.Context, targetID int64, hash string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE monitoring_targets SET last_content_hash = $1 WHERE id = $2
	`, hash, targetID)
	if err != nil {
		return fmt.Errorf("update target %d hash: %w", targetID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTargetNotFound
	}
	return nil
}

// WithTx runs fn against a transactional store. fn returning an error
// rolls the transaction back; a panic rolls back and re-raises.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(Store) error) error {
	if s.pool == nil {
		// Already inside a transaction; reuse it
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txStore := &PostgresStore{db: tx}
	if err := fn(txStore); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// classify maps constraint-violation SQLSTATEs (class 23) onto
// ErrIntegrity so callers need not depend on the driver.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return fmt.Errorf("%w: %s", ErrIntegrity, pgErr.Message)
	}
	return err
}

var _ Store = (*PostgresStore)(nil)
