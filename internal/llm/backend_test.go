package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/event_research/internal/config"
)

func newChatServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "gpt-4o-mini-2024-07-18", req.Model)
		require.Len(t, req.Messages, 1)
		require.Equal(t, "user", req.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply + " <- " + req.Messages[0].Content},
			}},
			"usage": map[string]any{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestBackends(t *testing.T) {
	t.Parallel()

	for _, provider := range []string{"eino", "openai"} {
		t.Run(provider, func(t *testing.T) {
			t.Parallel()
			server := newChatServer(t, "pong")

			backend, err := NewBackend(context.Background(), config.LLMConfig{
				Provider: provider,
				BaseURL:  server.URL + "/v1",
				APIKey:   "sk-test",
				Model:    "gpt-4o-mini-2024-07-18",
				Timeout:  5 * time.Second,
			})
			require.NoError(t, err)

			got, err := backend.Generate(context.Background(), "ping")
			require.NoError(t, err)
			require.Equal(t, "pong <- ping", got)
		})
	}
}

func TestNewBackendUnknownProvider(t *testing.T) {
	t.Parallel()

	_, err := NewBackend(context.Background(), config.LLMConfig{Provider: "anthropic"})
	require.ErrorContains(t, err, "unknown llm provider")
}

func TestOpenAIBackendTimeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(server.Close)

	backend := NewOpenAIBackend(config.LLMConfig{
		BaseURL: server.URL + "/v1",
		APIKey:  "sk-test",
		Model:   "gpt-4o-mini-2024-07-18",
		Timeout: 100 * time.Millisecond,
	})

	start := time.Now()
	_, err := backend.Generate(context.Background(), "ping")
	require.Error(t, err)
	require.Less(t, time.Since(start), 3*time.Second)
}
