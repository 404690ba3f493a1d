package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/examwatch/examwatch/internal/config"
	"github.com/examwatch/examwatch/internal/model"
	openai "github.com/sashabaranov/go-openai"
)

func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected Authorization header %q", r.Header.Get("Authorization"))
		}
		resp := openai.ChatCompletionResponse{
			Model: "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: "assistant", Content: content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestOpenAIProviderComplete(t *testing.T) {
	server := completionServer(t, `{"exam_name": "CGL 2026"}`)
	defer server.Close()

	provider, err := NewOpenAIProvider(config.LLMConfig{
		Enabled: true,
		APIKey:  "test-key",
		BaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}

	out, err := provider.Complete(context.Background(), "extract")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != `{"exam_name": "CGL 2026"}` {
		t.Errorf("Complete = %q", out)
	}
}

func TestOpenAIProviderAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(config.LLMConfig{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}
	if _, err := provider.Complete(context.Background(), "extract"); err == nil {
		t.Fatal("expected error from API failure")
	}
}

func TestNewOpenAIProviderRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewOpenAIProvider(config.LLMConfig{}); err == nil {
		t.Fatal("expected error when no API key is configured")
	}
}

func TestParserParseRecordEndToEnd(t *testing.T) {
	server := completionServer(t, "```json\n"+`{"exam_name": "IBPS PO 2026", "total_vacancies": 4500, "result_date": null}`+"\n```")
	defer server.Close()

	parser, err := NewParser(config.LLMConfig{
		Enabled: true,
		APIKey:  "test-key",
		BaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	if parser == nil {
		t.Fatal("enabled config must yield a parser")
	}

	fields, err := parser.ParseRecord(context.Background(), "page text", model.RecordNotification)
	if err != nil {
		t.Fatalf("ParseRecord: %v", err)
	}
	if fields[model.FieldExamName] != "IBPS PO 2026" {
		t.Errorf("exam_name = %q", fields[model.FieldExamName])
	}
	if fields[model.FieldTotalVacancies] != "4500" {
		t.Errorf("total_vacancies = %q", fields[model.FieldTotalVacancies])
	}
	if _, ok := fields[model.FieldResultDate]; ok {
		t.Error("null result_date should be dropped")
	}
}
