package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/examwatch/examwatch/internal/config"
	"github.com/examwatch/examwatch/internal/model"
)

// Parser implements the extraction engine's semantic-fallback contract on
// top of a Provider
type Parser struct {
	provider Provider
	maxChars int
	timeout  time.Duration
	logger   *slog.Logger
}

// NewParser creates the fallback parser, or (nil, nil) when the fallback
// is disabled in configuration
func NewParser(cfg config.LLMConfig) (*Parser, error) {
	provider, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, nil
	}
	return &Parser{
		provider: provider,
		maxChars: cfg.MaxChars,
		timeout:  time.Duration(cfg.TimeoutSeconds) * time.Second,
		logger:   slog.Default().With("component", "llm", "provider", provider.Name()),
	}, nil
}

// ParseRecord asks the model for the record's fields and returns them as a
// string field map. Null and non-scalar values are dropped.
func (p *Parser) ParseRecord(ctx context.Context, pageText string, t model.RecordType) (map[string]string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	raw, err := p.provider.Complete(ctx, BuildPrompt(pageText, t, p.maxChars))
	if err != nil {
		return nil, err
	}

	fields, err := decodeFields(raw)
	if err != nil {
		p.logger.Debug("undecodable llm output", "error", err)
		return nil, err
	}
	return fields, nil
}

// decodeFields parses the model's JSON object into a string field map
func decodeFields(raw string) (map[string]string, error) {
	// Some models wrap JSON in markdown fences despite instructions
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("decode llm output: %w", err)
	}

	fields := make(map[string]string, len(parsed))
	for k, v := range parsed {
		switch val := v.(type) {
		case string:
			fields[k] = val
		case float64:
			if val == float64(int64(val)) {
				fields[k] = strconv.FormatInt(int64(val), 10)
			} else {
				fields[k] = strconv.FormatFloat(val, 'f', -1, 64)
			}
		case nil:
			// Absent field, skip
		}
	}
	return fields, nil
}
