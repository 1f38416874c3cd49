package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/digesto/internal/domain"
)

// chatRequest mirrors the fields of the chat completions request under test.
type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func completionHandler(t *testing.T, content string, got *chatRequest) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20},
		})
	}
}

func newTestTranslator(url string) *Translator {
	return NewTranslator(&Config{
		APIKey:  "test-key",
		BaseURL: url,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})
}

func TestTranslator_Translate(t *testing.T) {
	var req chatRequest
	server := httptest.NewServer(completionHandler(t, "  La justicia es la constante voluntad.\n", &req))
	defer server.Close()

	out, err := newTestTranslator(server.URL).Translate(context.Background(), "Iustitia est constans voluntas.", "la", "es")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if out != "La justicia es la constante voluntad." {
		t.Errorf("unexpected translation %q", out)
	}

	if req.Model != "test-model" {
		t.Errorf("unexpected model %q", req.Model)
	}
	if len(req.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(req.Messages))
	}
	if req.Messages[0].Role != "system" || !strings.Contains(req.Messages[0].Content, "from Latin to Spanish") {
		t.Errorf("unexpected system message: %+v", req.Messages[0])
	}
	if req.Messages[1].Role != "user" || req.Messages[1].Content != "Iustitia est constans voluntas." {
		t.Errorf("unexpected user message: %+v", req.Messages[1])
	}
}

func TestTranslator_BlankCompletion(t *testing.T) {
	server := httptest.NewServer(completionHandler(t, "   ", nil))
	defer server.Close()

	_, err := newTestTranslator(server.URL).Translate(context.Background(), "lex", "la", "es")
	if !errors.Is(err, domain.ErrTranslationFailed) {
		t.Fatalf("expected ErrTranslationFailed, got %v", err)
	}
}

func TestTranslator_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests"}}`))
	}))
	defer server.Close()

	_, err := newTestTranslator(server.URL).Translate(context.Background(), "lex", "la", "es")
	if !errors.Is(err, domain.ErrTranslationFailed) {
		t.Fatalf("expected ErrTranslationFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "Rate limit reached") {
		t.Errorf("expected status and message in error, got %v", err)
	}
}

func TestTranslator_DetailError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"Model not found"}`))
	}))
	defer server.Close()

	_, err := newTestTranslator(server.URL).Translate(context.Background(), "lex", "la", "es")
	if !errors.Is(err, domain.ErrTranslationFailed) {
		t.Fatalf("expected ErrTranslationFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "Model not found") {
		t.Errorf("expected detail in error, got %v", err)
	}
}

func TestParseAPIError_Transport(t *testing.T) {
	err := parseAPIError(context.DeadlineExceeded)
	if !errors.Is(err, domain.ErrTranslationFailed) {
		t.Errorf("expected ErrTranslationFailed, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected cause to be kept, got %v", err)
	}
}

func TestExtractDetail(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"detail":"bad model"}`, "bad model"},
		{`{"error":"x"}`, ""},
		{`not json`, ""},
	}
	for _, tc := range tests {
		if got := extractDetail([]byte(tc.body)); got != tc.want {
			t.Errorf("extractDetail(%q) = %q, want %q", tc.body, got, tc.want)
		}
	}
}
