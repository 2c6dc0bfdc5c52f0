package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spec-kit/ticket-relay/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewOpenAIClient(config.AssistConfig{
		APIKey:         "test-key",
		BaseURL:        server.URL + "/v1/",
		Model:          "gpt-3.5-turbo",
		TimeoutSeconds: 5,
	})
}

func TestOpenAIClientComplete(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}

		var body struct {
			Model       string  `json:"model"`
			MaxTokens   int     `json:"max_tokens"`
			Temperature float32 `json:"temperature"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body.Model != "gpt-3.5-turbo" || body.MaxTokens != 150 || body.Temperature != 0.7 {
			t.Errorf("unexpected request body %+v", body)
		}
		if len(body.Messages) != 2 || body.Messages[0].Role != "system" || body.Messages[1].Content != "how do I reset?" {
			t.Errorf("unexpected messages %+v", body.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  Use the reset link.  "},"finish_reason":"stop"}]}`))
	})

	got, err := client.Complete(context.Background(), Request{
		System:      "be brief",
		Prompt:      "how do I reset?",
		MaxTokens:   150,
		Temperature: 0.7,
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got != "Use the reset link." {
		t.Fatalf("unexpected answer %q", got)
	}
}

func TestOpenAIClientProviderError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream down","type":"server_error"}}`))
	})

	if _, err := client.Complete(context.Background(), Request{Prompt: "hi"}); err == nil {
		t.Fatalf("expected provider error")
	}
}

func TestOpenAIClientEmptyChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[]}`))
	})

	if _, err := client.Complete(context.Background(), Request{Prompt: "hi"}); !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}
