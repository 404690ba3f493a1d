// Package backup persists rejected items to disk so no scraped data is
// silently lost. Each rejected record becomes one timestamped JSON file
// keyed by the rejection reason.
package backup

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/examwatch/examwatch/internal/model"
)

// Rejection reasons recorded in backup files
const (
	ReasonMissingMandatory = "missing_mandatory_fields"
	ReasonIntegrityError   = "integrity_error"
	ReasonUnexpectedError  = "unexpected_error"
)

// Sink writes rejected records under a directory. The zero value is not
// usable; construct with NewSink.
type Sink struct {
	dir    string
	logger *slog.Logger
	seq    atomic.Uint64
}

// NewSink creates a sink rooted at dir. The directory is created lazily
// on first save.
func NewSink(dir string, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{dir: dir, logger: logger}
}

type rejectedItem struct {
	Reason  string                 `json:"reason"`
	Error   string                 `json:"error,omitempty"`
	SavedAt time.Time              `json:"saved_at"`
	Record  *model.ExtractedRecord `json:"record"`
}

// Save writes one rejected record. cause may be nil when the rejection
// carries no underlying error (validation failures).
func (s *Sink) Save(reason string, record *model.ExtractedRecord, cause error) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	item := rejectedItem{
		Reason:  reason,
		SavedAt: time.Now().UTC(),
		Record:  record,
	}
	if cause != nil {
		item.Error = cause.Error()
	}
	data, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal rejected item: %w", err)
	}

	// Sequence counter keeps names unique when two saves land in the
	// same nanosecond timestamp.
	name := fmt.Sprintf("%s_%s_%d.json",
		reason,
		item.SavedAt.Format("20060102T150405.000000000"),
		s.seq.Add(1),
	)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write backup file: %w", err)
	}

	s.logger.Debug("rejected item backed up",
		"reason", reason,
		"source_url", record.SourceURL,
		"path", path)
	return nil
}
