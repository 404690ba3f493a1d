// Package pipeline orchestrates the two run modes: crawling listing
// pages into exam events, and monitoring known pages for cancellation
// or postponement notices.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/examwatch/examwatch/internal/alert"
	"github.com/examwatch/examwatch/internal/backup"
	"github.com/examwatch/examwatch/internal/cache"
	"github.com/examwatch/examwatch/internal/config"
	"github.com/examwatch/examwatch/internal/detect"
	"github.com/examwatch/examwatch/internal/extract"
	"github.com/examwatch/examwatch/internal/extract/adapters"
	"github.com/examwatch/examwatch/internal/llm"
	"github.com/examwatch/examwatch/internal/model"
	"github.com/examwatch/examwatch/internal/normalize"
	"github.com/examwatch/examwatch/internal/propagate"
	"github.com/examwatch/examwatch/internal/score"
	"github.com/examwatch/examwatch/internal/store"
	"github.com/examwatch/examwatch/internal/validate"
	"github.com/examwatch/examwatch/internal/verify"
)

// Pipeline wires fetch, extraction, scoring, change detection and
// propagation behind the two entry points the workers call.
type Pipeline struct {
	fetcher    *Fetcher
	engine     *extract.Engine
	detector   *detect.Detector
	verifier   *verify.Verifier
	propagator *propagate.Propagator
	store      store.Store
	logger     *slog.Logger
}

// NewPipeline assembles a pipeline from configuration. st carries all
// persistence; body caching is off when cfg.Cache.Enabled is false.
func NewPipeline(cfg *config.Config, st store.Store, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var pageCache cache.Cache
	if cfg.Cache.Enabled {
		cacheDir := cfg.Cache.Dir
		if cacheDir == "" {
			cacheDir = filepath.Join(os.TempDir(), "examwatch-cache")
		}
		pageCache = cache.NewLayeredCache(cfg.Cache.TTL(), cacheDir, cfg.Cache.TTL())
	}
	fetcher := NewFetcher(cfg.HTTP, cfg.Crawl, pageCache, cfg.Cache.TTL(), logger)

	dates := normalize.NewDateParser(cfg.Dates.MinYear, cfg.Dates.MaxYear)

	// A typed nil must not reach the engine's interface field
	var semantic extract.SemanticParser
	parser, err := llm.NewParser(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("init semantic parser: %w", err)
	}
	if parser != nil {
		semantic = parser
	}
	engine := extract.NewEngine(adapters.NewRegistry(), semantic, dates)

	sink := backup.NewSink(cfg.Backup.Dir, logger)
	propagator := propagate.NewPropagator(st, sink, alert.NewLogNotifier(logger), logger)

	return &Pipeline{
		fetcher:    fetcher,
		engine:     engine,
		detector:   detect.NewDetector(cfg.Verify.ChangeConfidenceFloor, cfg.Verify.ContextRadius),
		verifier:   verify.NewVerifier(cfg.Verify.TrustedDomains, cfg.Verify.AutoApproveConfidenceFloor),
		propagator: propagator,
		store:      st,
		logger:     logger,
	}, nil
}

// CrawlDelay exposes the robots.txt crawl delay for the worker's
// per-domain pacing
func (p *Pipeline) CrawlDelay(ctx context.Context, url string) time.Duration {
	return p.fetcher.CrawlDelay(ctx, url)
}

// CrawlPage fetches one listing page, extracts a record of type t and
// persists it. Extraction and persistence failures are recorded in
// stats and do not propagate; only fetch errors return, so the worker
// can retry the retryable ones.
func (p *Pipeline) CrawlPage(ctx context.Context, url string, t model.RecordType, stats *model.RunStats) error {
	result, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		stats.RecordError(url, "fetch", err.Error())
		return err
	}
	stats.PagesFetched++

	page, err := extract.NewPage(result.FinalURL, result.StatusCode, result.HTML)
	if err != nil {
		stats.RecordError(url, "parse", err.Error())
		return nil
	}

	record, err := p.engine.Extract(ctx, page, t)
	if err != nil {
		if errors.Is(err, extract.ErrNoData) {
			p.logger.Info("no data on page", "url", url, "type", t)
		} else {
			stats.RecordError(url, "extract", err.Error())
		}
		return nil
	}
	stats.ItemsExtracted++

	vr := validate.Validate(record)
	record.ValidationFailed = !vr.Valid
	record.MissingFields = vr.MissingFields
	if vr.Valid {
		stats.ItemsValid++
	} else {
		stats.ItemsInvalid++
	}

	record.ConfidenceScore = score.Confidence(record)
	record.RequiresManualReview = score.RequiresReview(record.ConfidenceScore)
	if record.RequiresManualReview {
		p.logger.Warn("record flagged for review",
			"url", url, "confidence", record.ConfidenceScore)
	}

	if _, _, err := p.propagator.SaveRecord(ctx, record); err != nil {
		stats.RecordError(url, "persist", err.Error())
		return nil
	}
	if !record.ValidationFailed {
		stats.ItemsPersisted++
	}
	return nil
}

// MonitorTarget re-checks one monitored exam. The first URL is the
// canonical page whose content hash gates re-processing; the remaining
// URLs only corroborate. The stored hash advances only after the check
// completes, so a failed propagation is retried on the next run.
func (p *Pipeline) MonitorTarget(ctx context.Context, target model.MonitoringTarget, stats *model.RunStats) error {
	if len(target.URLs) == 0 {
		return nil
	}
	primary := target.URLs[0]

	result, err := p.fetcher.Fetch(ctx, primary)
	if err != nil {
		stats.RecordError(primary, "fetch", err.Error())
		return err
	}
	stats.PagesFetched++

	page, err := extract.NewPage(result.FinalURL, result.StatusCode, result.HTML)
	if err != nil {
		stats.RecordError(primary, "parse", err.Error())
		return nil
	}

	change, newHash := p.detector.Detect(target.LastContentHash, page.Text())
	if change == nil {
		return p.advanceHash(ctx, target, newHash)
	}
	stats.ChangesDetected++
	p.logger.Info("change detected",
		"url", primary,
		"change_type", change.Type,
		"confidence", change.Confidence,
		"keywords", change.KeywordsFound)

	// The primary detection itself is one report of the change
	corroboration := 1 + p.corroborate(ctx, target.URLs[1:], change.Type, stats)
	decision := p.verifier.ShouldAutoApprove(primary, change.Confidence, corroboration)
	if !decision.Approved {
		p.logger.Warn("change held for manual review",
			"url", primary,
			"change_type", change.Type,
			"confidence", change.Confidence,
			"corroboration", corroboration)
		return p.advanceHash(ctx, target, newHash)
	}

	exam, err := p.store.GetExamByID(ctx, target.ExamID)
	if err != nil {
		stats.RecordError(primary, "persist", err.Error())
		return nil
	}
	if err := p.propagator.ApplyStatusChange(ctx, exam, change, primary); err != nil {
		// Hash stays put so the change is re-processed next run
		stats.RecordError(primary, "persist", err.Error())
		return nil
	}
	stats.ChangesApproved++
	return p.advanceHash(ctx, target, newHash)
}

// corroborate counts the additional sources reporting the same change
// type. Fetch failures on corroborating URLs reduce the count, never
// abort the check.
func (p *Pipeline) corroborate(ctx context.Context, urls []string, want model.ChangeType, stats *model.RunStats) int {
	count := 0
	for _, u := range urls {
		result, err := p.fetcher.Fetch(ctx, u)
		if err != nil {
			stats.RecordError(u, "fetch", err.Error())
			continue
		}
		stats.PagesFetched++
		page, err := extract.NewPage(result.FinalURL, result.StatusCode, result.HTML)
		if err != nil {
			continue
		}
		if change := p.detector.Classify(page.Text()); change != nil && change.Type == want {
			count++
		}
	}
	return count
}

func (p *Pipeline) advanceHash(ctx context.Context, target model.MonitoringTarget, newHash string) error {
	if newHash == target.LastContentHash {
		return nil
	}
	if err := p.store.UpdateLastContentHash(ctx, target.ID, newHash); err != nil {
		return fmt.Errorf("advance content hash for target %d: %w", target.ID, err)
	}
	return nil
}
