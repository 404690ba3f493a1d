// Package llm implements the semantic extraction fallback: a language
// model asked to pull structured exam fields out of page text when
// selector-based tiers fail. Its output is tagged for downstream distrust
// and never bypasses validation or scoring.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/examwatch/examwatch/internal/config"
	"github.com/examwatch/examwatch/internal/model"
)

// Provider is a model backend capable of structured extraction
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends a prompt and returns the raw model output, which is
	// expected to be a single JSON object
	Complete(ctx context.Context, prompt string) (string, error)
}

// NewProvider creates a provider from configuration. A disabled config
// returns (nil, nil).
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch strings.ToLower(cfg.Provider) {
	case "openai", "":
		return NewOpenAIProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s (supported: openai)", cfg.Provider)
	}
}

// promptFields is the exact field list the model is asked for, per record
// type. The date-of-record field differs by type.
func promptFields(t model.RecordType) []string {
	dateField := model.FieldNotificationDate
	switch t {
	case model.RecordResult, model.RecordAnswerKey:
		dateField = model.FieldResultDate
	case model.RecordAdmitCard:
		dateField = model.FieldExamDate
	}
	return []string{
		model.FieldExamName,
		model.FieldOrganization,
		dateField,
		model.FieldApplicationStart,
		model.FieldApplicationEnd,
		model.FieldExamDate,
		model.FieldTotalVacancies,
		model.FieldOfficialLink,
	}
}

// BuildPrompt constructs the extraction prompt. Dates are requested in
// YYYY-MM-DD and unknown fields as null so the response parses strictly.
func BuildPrompt(pageText string, t model.RecordType, maxChars int) string {
	if maxChars > 0 && len(pageText) > maxChars {
		pageText = pageText[:maxChars]
	}

	var b strings.Builder
	b.WriteString("Extract the following details from the text below as a single valid JSON object.\n")
	b.WriteString("If a field is not found, use null. Dates must be YYYY-MM-DD.\n\nFields:\n")
	for _, f := range promptFields(t) {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	fmt.Fprintf(&b, "\nThe text describes a competitive-exam %s.\n\nText Content:\n%s\n", t, pageText)
	return b.String()
}
