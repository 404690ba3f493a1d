// Package extract turns fetched pages into raw field maps using tiered
// strategies: site-specific adapter selectors, generic heuristics, and an
// optional LLM-assisted fallback. Errors never cross the engine boundary;
// a tier that fails is skipped and the next one runs.
package extract

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/examwatch/examwatch/internal/model"
	"github.com/examwatch/examwatch/internal/normalize"
)

// ErrNoData is returned when every strategy tier failed to produce a title.
// The record is dropped: logged, not persisted, retried only on the next
// scheduled crawl.
var ErrNoData = errors.New("no data extracted by any strategy")

// Adapter is the site-specific extraction capability (tier 1). Parse
// returns the raw field map for the requested record type, or an error
// when the page shape defeated its selectors.
type Adapter interface {
	Name() string
	CanHandle(pageURL string) bool
	Parse(page *Page, t model.RecordType) (map[string]string, error)
}

// AdapterFinder resolves the adapter responsible for a URL
type AdapterFinder interface {
	Find(pageURL string) Adapter
}

// SemanticParser is the external LLM-assisted extraction capability
// (tier 3), invoked only when tiers 1 and 2 both fail to produce a title
type SemanticParser interface {
	ParseRecord(ctx context.Context, pageText string, t model.RecordType) (map[string]string, error)
}

// Engine applies the strategy tiers in order and normalizes the result
type Engine struct {
	finder   AdapterFinder
	semantic SemanticParser // nil when the fallback is disabled
	dates    *normalize.DateParser
	logger   *slog.Logger
}

// NewEngine creates an extraction engine. semantic may be nil to disable
// the LLM fallback tier.
func NewEngine(finder AdapterFinder, semantic SemanticParser, dates *normalize.DateParser) *Engine {
	return &Engine{
		finder:   finder,
		semantic: semantic,
		dates:    dates,
		logger:   slog.Default().With("component", "extract"),
	}
}

// Extract produces a scored-ready record for the page, or ErrNoData when
// all tiers failed. The returned field map always carries the attempted
// fields, possibly empty.
func (e *Engine) Extract(ctx context.Context, page *Page, t model.RecordType) (*model.ExtractedRecord, error) {
	record := model.NewExtractedRecord(t, page.URL)

	fields, method := e.runTiers(ctx, page, t)
	if fields == nil {
		e.logger.Warn("no data extracted after all strategies", "url", page.URL, "type", t)
		return nil, ErrNoData
	}
	record.ParsingMethod = method
	for k, v := range fields {
		record.Set(k, v)
	}

	e.normalizeFields(page, record)
	return record, nil
}

// runTiers walks the strategy tiers until one yields a titled field map
func (e *Engine) runTiers(ctx context.Context, page *Page, t model.RecordType) (map[string]string, model.ParsingMethod) {
	// Tier 1: site-specific adapter selectors
	if adapter := e.finder.Find(page.URL); adapter != nil {
		fields, err := adapter.Parse(page, t)
		if err != nil {
			e.logger.Debug("adapter parse failed", "adapter", adapter.Name(), "url", page.URL, "error", err)
		} else if hasTitle(fields) {
			return fields, model.ParsingSelectors
		}
	}

	// Tier 2: generic heuristics
	if fields := e.parseHeuristic(page); hasTitle(fields) {
		return fields, model.ParsingHeuristic
	}

	// Tier 3: semantic fallback, only when enabled
	if e.semantic != nil {
		fields, err := e.semantic.ParseRecord(ctx, page.Text(), t)
		if err != nil {
			e.logger.Debug("semantic fallback failed", "url", page.URL, "error", err)
		} else if hasTitle(fields) {
			return fields, model.ParsingFallback
		}
	}

	return nil, ""
}

// normalizeFields cleans text, parses dates and absolutizes URLs in place
func (e *Engine) normalizeFields(page *Page, record *model.ExtractedRecord) {
	for _, f := range []string{model.FieldExamName, model.FieldOrganization, model.FieldDescription} {
		if v, ok := record.Fields[f]; ok {
			record.Set(f, normalize.CleanText(v))
		}
	}
	for _, f := range model.DateFields {
		if v, ok := record.Fields[f]; ok && v != "" {
			record.Set(f, e.dates.ExtractDate(v))
		}
	}
	for _, f := range model.URLFields {
		if v, ok := record.Fields[f]; ok && v != "" {
			record.Set(f, normalize.MakeAbsoluteURL(v, page.URL))
		}
	}
	if v, ok := record.Fields[model.FieldTotalVacancies]; ok && v != "" {
		if n, found := normalize.ExtractNumber(v); found {
			record.Set(model.FieldTotalVacancies, strconv.Itoa(n))
		} else {
			record.Set(model.FieldTotalVacancies, "")
		}
	}
}

func hasTitle(fields map[string]string) bool {
	return fields != nil && normalize.CleanText(fields[model.FieldExamName]) != ""
}
