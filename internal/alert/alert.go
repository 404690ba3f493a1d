// Package alert delivers best-effort notifications for verified status
// changes. Delivery failures never affect the pipeline: the status write
// has already committed by the time an alert fires.
package alert

import (
	"context"
	"log/slog"

	"github.com/examwatch/examwatch/internal/model"
)

// StatusAlert describes one verified exam status change
type StatusAlert struct {
	ExamID    int64
	ExamSlug  string
	Status    string
	Reason    string
	SourceURL string
	Change    *model.ChangeEvent
}

// Notifier receives status alerts. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(ctx context.Context, a StatusAlert) error
}

// LogNotifier writes alerts to the structured log. It is the default
// sink when no external channel is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, a StatusAlert) error {
	n.logger.Warn("exam status changed",
		"exam_id", a.ExamID,
		"exam_slug", a.ExamSlug,
		"status", a.Status,
		"reason", a.Reason,
		"source_url", a.SourceURL)
	return nil
}
