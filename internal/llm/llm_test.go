package llm

import (
	"strings"
	"testing"

	"github.com/examwatch/examwatch/internal/config"
	"github.com/examwatch/examwatch/internal/model"
)

func TestBuildPromptTruncatesText(t *testing.T) {
	text := strings.Repeat("x", 500)
	prompt := BuildPrompt(text, model.RecordNotification, 100)
	if strings.Contains(prompt, strings.Repeat("x", 101)) {
		t.Error("page text was not truncated to max chars")
	}
	if !strings.Contains(prompt, strings.Repeat("x", 100)) {
		t.Error("truncated text missing from prompt")
	}
}

func TestBuildPromptFieldsPerType(t *testing.T) {
	tests := []struct {
		recordType model.RecordType
		dateField  string
	}{
		{model.RecordNotification, model.FieldNotificationDate},
		{model.RecordAdmitCard, model.FieldExamDate},
		{model.RecordResult, model.FieldResultDate},
		{model.RecordAnswerKey, model.FieldResultDate},
	}
	for _, tt := range tests {
		prompt := BuildPrompt("some page", tt.recordType, 0)
		if !strings.Contains(prompt, "- "+tt.dateField+"\n") {
			t.Errorf("%s prompt missing date field %s", tt.recordType, tt.dateField)
		}
		if !strings.Contains(prompt, "- "+model.FieldExamName+"\n") {
			t.Errorf("%s prompt missing exam_name", tt.recordType)
		}
		if !strings.Contains(prompt, "use null") {
			t.Errorf("%s prompt missing null instruction", tt.recordType)
		}
	}
}

func TestDecodeFields(t *testing.T) {
	raw := "```json\n" + `{
		"exam_name": "CGL 2026",
		"total_vacancies": 39481,
		"confidence": 0.85,
		"result_date": null,
		"nested": {"ignored": true}
	}` + "\n```"

	fields, err := decodeFields(raw)
	if err != nil {
		t.Fatalf("decodeFields: %v", err)
	}
	if fields["exam_name"] != "CGL 2026" {
		t.Errorf("exam_name = %q", fields["exam_name"])
	}
	if fields["total_vacancies"] != "39481" {
		t.Errorf("integer not formatted without decimals: %q", fields["total_vacancies"])
	}
	if fields["confidence"] != "0.85" {
		t.Errorf("float formatting: %q", fields["confidence"])
	}
	if _, ok := fields["result_date"]; ok {
		t.Error("null field should be dropped")
	}
	if _, ok := fields["nested"]; ok {
		t.Error("non-scalar field should be dropped")
	}
}

func TestDecodeFieldsRejectsGarbage(t *testing.T) {
	if _, err := decodeFields("Sure! Here are the fields you asked for."); err == nil {
		t.Error("expected decode error for non-JSON output")
	}
}

func TestNewParserDisabled(t *testing.T) {
	p, err := NewParser(config.LLMConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	if p != nil {
		t.Error("disabled config must yield a nil parser")
	}
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider(config.LLMConfig{Enabled: true, Provider: "mystery"})
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}
