package gemini

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(
		config.OracleConfig{Temperature: 0.7, TopP: 0.9, MaxTokens: 2000},
		config.GeminiConfig{APIKey: "test", TextModel: "gemini-2.5-flash", ImageModel: "gemini-2.5-flash-image"},
		srv.Client(),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.baseURL = srv.URL + "/"
	return client
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(config.OracleConfig{}, config.GeminiConfig{TextModel: "m"}, nil); !errors.Is(err, llm.ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
	if _, err := NewClient(config.OracleConfig{}, config.GeminiConfig{APIKey: "k"}, nil); !errors.Is(err, ErrInvalidModel) {
		t.Fatalf("expected ErrInvalidModel, got %v", err)
	}
}

func TestCompleteAgainstFakeServer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-2.5-flash:generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "application/json") {
			t.Errorf("expected json response mime type in request: %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "{\"reminder\":"}, {"text": "\"静\"}"}]}}],
			"usageMetadata": {"promptTokenCount": 11, "candidatesTokenCount": 7, "totalTokenCount": 18}
		}`)
	})

	completion, err := client.Complete(context.Background(), llm.Request{System: "sys", User: "usr"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completion.Text != `{"reminder":"静"}` {
		t.Fatalf("unexpected text: %s", completion.Text)
	}
	if completion.Usage.InputTokens != 11 || completion.Usage.OutputTokens != 7 {
		t.Fatalf("unexpected usage: %+v", completion.Usage)
	}
}

func TestCompleteStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error": {"code": 503, "message": "overloaded", "status": "UNAVAILABLE"}}`)
	})

	_, err := client.Complete(context.Background(), llm.Request{User: "x"})
	if llm.Classify(err) != llm.ReasonStatus {
		t.Fatalf("expected status classification, got %v", err)
	}
}

func TestGenerateInlineImage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates": [{"content": {"role": "model", "parts": [{"inlineData": {"mimeType": "image/png", "data": "aGVsbG8="}}]}}]}`)
	})

	url, err := client.Generate(context.Background(), "水墨")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if url != "data:image/png;base64,aGVsbG8=" {
		t.Fatalf("unexpected url: %s", url)
	}
}

func TestTextPartsSkipsThoughts(t *testing.T) {
	if parts := textParts(nil); len(parts) != 0 {
		t.Fatalf("expected no parts for nil response")
	}

	response := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{
						{Text: "answer"},
						{Text: "thought", Thought: true},
						{Text: ""},
						nil,
					},
				},
			},
		},
	}
	texts := textParts(response)
	if len(texts) != 1 || texts[0] != "answer" {
		t.Fatalf("unexpected texts: %v", texts)
	}
}

func TestInlineImageURLMissing(t *testing.T) {
	response := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: "no image"}}}}},
	}
	if _, ok := inlineImageURL(response); ok {
		t.Fatalf("expected no image")
	}
}

func TestExtractUsage(t *testing.T) {
	response := &genai.GenerateContentResponse{
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:        10,
			CandidatesTokenCount:    20,
			ThoughtsTokenCount:      3,
			TotalTokenCount:         33,
			CachedContentTokenCount: 4,
		},
	}
	usage := extractUsage(response)
	if usage.InputTokens != 10 || usage.OutputTokens != 23 || usage.TotalTokens != 33 {
		t.Fatalf("unexpected usage: %+v", usage)
	}
	if usage.ReasoningTokens != 3 || usage.CachedTokens != 4 {
		t.Fatalf("unexpected usage details: %+v", usage)
	}
}
